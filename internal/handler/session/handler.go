package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	memoryservice "github.com/soultalk/backend/internal/service/memory"
	"github.com/soultalk/backend/pkg/utils"
)

// Handler exposes session lifecycle and memory reads over HTTP.
type Handler struct {
	memorySvc *memoryservice.Service
}

// New creates the session handler.
func New(memorySvc *memoryservice.Service) *Handler {
	return &Handler{memorySvc: memorySvc}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Get("/session/{sessionID}/history", h.handleGetHistory)
	r.Get("/session/{sessionID}/context", h.handleGetContext)
	r.Patch("/session/{sessionID}", h.handleUpdateSession)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.memorySvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"sessionId": session.ID})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.memorySvc.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	history, err := h.memorySvc.GetHistory(r.Context(), sessionID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"history":   history,
	})
}

func (h *Handler) handleGetContext(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	context, err := h.memorySvc.GetMemoryContext(r.Context(), sessionID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"sessionId": sessionID,
		"context":   context,
	})
}

// handleUpdateSession applies a partial update. Unknown session ids are
// acknowledged without effect; the store's silent-ignore policy is part
// of the contract.
func (h *Handler) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		UserName string `json:"userName"`
		Topic    string `json:"topic"`
		Tone     string `json:"tone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.memorySvc.UpdateSession(r.Context(), sessionID, memoryservice.Update{
		UserName: payload.UserName,
		Topic:    payload.Topic,
		Tone:     payload.Tone,
	})

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, memoryservice.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
