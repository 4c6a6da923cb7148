package chat

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/soultalk/backend/internal/service/chat"
	speechservice "github.com/soultalk/backend/internal/service/speech"
	"github.com/soultalk/backend/pkg/utils"
)

const maxAudioUpload = 32 << 20 // 32MB

// Handler runs the voice and text chat pipelines.
type Handler struct {
	chatSvc   *chatservice.Service
	speechSvc *speechservice.Service
}

// New creates the chat handler.
func New(chatSvc *chatservice.Service, speechSvc *speechservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc, speechSvc: speechSvc}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleVoiceChat)
	r.Post("/chat/text", h.handleTextChat)
}

// handleVoiceChat is the full pipeline: audio in, transcript, emotion,
// reply and synthesized speech out.
func (h *Handler) handleVoiceChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audioBytes, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	sessionID := r.FormValue("sessionId")
	if sessionID == "" {
		sessionID = r.URL.Query().Get("session_id")
	}

	transcript := h.speechSvc.Transcribe(r.Context(), audioBytes, mimeType)

	result, err := h.chatSvc.ProcessTurn(r.Context(), sessionID, transcript)
	if err != nil {
		log.Printf("[chat] pipeline failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "chat_pipeline_failed")
		return
	}

	audio := h.speechSvc.Synthesize(r.Context(), result.Response)

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"transcript":  transcript,
		"response":    result.Response,
		"emotion":     result.Emotion,
		"audioBase64": base64.StdEncoding.EncodeToString(audio),
		"sessionId":   result.SessionID,
	})
}

// handleTextChat runs the same pipeline minus speech, for typed input.
func (h *Handler) handleTextChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.chatSvc.ProcessTurn(r.Context(), payload.SessionID, payload.Message)
	if err != nil {
		log.Printf("[chat] pipeline failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "chat_pipeline_failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"response":  result.Response,
		"emotion":   result.Emotion,
		"sessionId": result.SessionID,
	})
}
