package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/soultalk/backend/internal/handler/chat"
	"github.com/soultalk/backend/internal/handler/session"
	"github.com/soultalk/backend/internal/handler/stream"
	"github.com/soultalk/backend/internal/handler/voice"
	middlewarePkg "github.com/soultalk/backend/internal/middleware"
	aiservice "github.com/soultalk/backend/internal/service/ai"
	chatservice "github.com/soultalk/backend/internal/service/chat"
	emotionservice "github.com/soultalk/backend/internal/service/emotion"
	memoryservice "github.com/soultalk/backend/internal/service/memory"
	speechservice "github.com/soultalk/backend/internal/service/speech"
	"github.com/soultalk/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(memorySvc *memoryservice.Service, chatSvc *chatservice.Service, aiSvc *aiservice.Service, emotionSvc *emotionservice.Service, speechSvc *speechservice.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": "SoulTalk AI"})
	})

	sessionHandler := session.New(memorySvc)
	chatHandler := chat.New(chatSvc, speechSvc)
	voiceHandler := voice.New(chatSvc, speechSvc)

	var streamHandler *stream.Handler
	if aiSvc != nil {
		streamHandler = stream.New(aiSvc, emotionSvc, memorySvc)
	}

	r.Route("/api", func(api chi.Router) {
		sessionHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		voiceHandler.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if streamHandler == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}
