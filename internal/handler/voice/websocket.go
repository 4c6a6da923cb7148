// Package voice carries full voice turns over a websocket: audio chunks
// in, transcript, reply, emotion and synthesized speech out.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/soultalk/backend/internal/service/chat"
	speechservice "github.com/soultalk/backend/internal/service/speech"
)

// Handler upgrades voice connections and drives the turn pipeline.
type Handler struct {
	chatSvc   *chatservice.Service
	speechSvc *speechservice.Service
	upgrader  websocket.Upgrader
}

// New creates the websocket voice handler.
func New(chatSvc *chatservice.Service, speechSvc *speechservice.Service) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		speechSvc: speechSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/voice/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// audioMessage carries one recorded chunk; the final chunk triggers the
// pipeline on the accumulated buffer.
type audioMessage struct {
	AudioData []byte `json:"audioData"`
	MimeType  string `json:"mimeType"`
	IsFinal   bool   `json:"isFinal"`
}

type textMessage struct {
	Text string `json:"text"`
}

type configMessage struct {
	TTSEnabled *bool `json:"ttsEnabled,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type connectionState struct {
	sessionID  string
	ttsEnabled bool
	mimeType   string
	buffer     bytes.Buffer
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.chatSvc.Memory().GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[voice] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	state := &connectionState{
		sessionID:  sessionID,
		ttsEnabled: true,
		mimeType:   "audio/webm",
	}

	log.Printf("[voice] connection opened for session=%s", sessionID)
	h.readLoop(r.Context(), conn, state)
	log.Printf("[voice] connection closed for session=%s", sessionID)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, state *connectionState) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[voice] read error for session=%s: %v", state.sessionID, err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(conn, state.sessionID, "invalid message")
			continue
		}

		switch msg.Type {
		case "config":
			h.handleConfig(conn, state, msg.Data)
		case "audio":
			h.handleAudio(ctx, conn, state, msg.Data)
		case "text":
			h.handleText(ctx, conn, state, msg.Data)
		default:
			h.sendError(conn, state.sessionID, "unknown message type: "+msg.Type)
		}
	}
}

func (h *Handler) handleConfig(conn *websocket.Conn, state *connectionState, data json.RawMessage) {
	var cfg configMessage
	if err := json.Unmarshal(data, &cfg); err != nil {
		h.sendError(conn, state.sessionID, "invalid config message")
		return
	}

	if cfg.TTSEnabled != nil {
		state.ttsEnabled = *cfg.TTSEnabled
	}

	h.send(conn, outgoingMessage{
		Type:      "configured",
		SessionID: state.sessionID,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *Handler) handleAudio(ctx context.Context, conn *websocket.Conn, state *connectionState, data json.RawMessage) {
	var audio audioMessage
	if err := json.Unmarshal(data, &audio); err != nil {
		h.sendError(conn, state.sessionID, "invalid audio message")
		return
	}

	if audio.MimeType != "" {
		state.mimeType = audio.MimeType
	}
	state.buffer.Write(audio.AudioData)

	if !audio.IsFinal {
		return
	}

	audioBytes := make([]byte, state.buffer.Len())
	copy(audioBytes, state.buffer.Bytes())
	state.buffer.Reset()

	transcript := h.speechSvc.Transcribe(ctx, audioBytes, state.mimeType)
	h.send(conn, outgoingMessage{
		Type:      "transcript",
		SessionID: state.sessionID,
		Data:      map[string]string{"text": transcript},
		Timestamp: time.Now().UnixMilli(),
	})

	h.runTurn(ctx, conn, state, transcript)
}

func (h *Handler) handleText(ctx context.Context, conn *websocket.Conn, state *connectionState, data json.RawMessage) {
	var text textMessage
	if err := json.Unmarshal(data, &text); err != nil {
		h.sendError(conn, state.sessionID, "invalid text message")
		return
	}
	if text.Text == "" {
		h.sendError(conn, state.sessionID, "text is required")
		return
	}

	h.runTurn(ctx, conn, state, text.Text)
}

func (h *Handler) runTurn(ctx context.Context, conn *websocket.Conn, state *connectionState, userMessage string) {
	result, err := h.chatSvc.ProcessTurn(ctx, state.sessionID, userMessage)
	if err != nil {
		log.Printf("[voice] turn failed for session=%s: %v", state.sessionID, err)
		h.sendError(conn, state.sessionID, "turn processing failed")
		return
	}

	h.send(conn, outgoingMessage{
		Type:      "message",
		SessionID: result.SessionID,
		Data:      map[string]string{"text": result.Response},
		Timestamp: time.Now().UnixMilli(),
	})

	h.send(conn, outgoingMessage{
		Type:      "emotion",
		SessionID: result.SessionID,
		Data:      result.Emotion,
		Timestamp: time.Now().UnixMilli(),
	})

	if state.ttsEnabled {
		if audio := h.speechSvc.Synthesize(ctx, result.Response); len(audio) > 0 {
			h.send(conn, outgoingMessage{
				Type:      "audio",
				SessionID: result.SessionID,
				Data:      map[string]any{"audioData": audio, "format": "mp3"},
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[voice] write failed: %v", err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, sessionID, message string) {
	h.send(conn, outgoingMessage{
		Type:      "error",
		SessionID: sessionID,
		Data:      map[string]string{"error": message},
		Timestamp: time.Now().UnixMilli(),
	})
}
