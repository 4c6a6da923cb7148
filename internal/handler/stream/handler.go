package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"

	analysis "github.com/soultalk/backend/internal/analysis/emotion"
	memorymodel "github.com/soultalk/backend/internal/model/memory"
	aiservice "github.com/soultalk/backend/internal/service/ai"
	emotionservice "github.com/soultalk/backend/internal/service/emotion"
	memoryservice "github.com/soultalk/backend/internal/service/memory"
	"github.com/soultalk/backend/pkg/utils"
)

// Handler streams companion replies over Server-Sent Events.
type Handler struct {
	aiSvc      *aiservice.Service
	emotionSvc *emotionservice.Service
	memorySvc  *memoryservice.Service
}

// New creates the stream handler.
func New(aiSvc *aiservice.Service, emotionSvc *emotionservice.Service, memorySvc *memoryservice.Service) *Handler {
	return &Handler{aiSvc: aiSvc, emotionSvc: emotionSvc, memorySvc: memorySvc}
}

// StreamResponse is one streamed chunk.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest processes one streamed turn for an existing
// session. Unlike the REST pipeline it does not create sessions: a
// streaming client must hold a valid id already.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	if _, err := h.memorySvc.GetSession(ctx, sessionID); err != nil {
		h.sendError(w, flusher, "session not found")
		return err
	}

	h.memorySvc.AppendMessage(ctx, sessionID, memorymodel.RoleUser, userMessage)

	memoryContext, err := h.memorySvc.GetMemoryContext(ctx, sessionID)
	if err != nil {
		h.sendError(w, flusher, "failed to load session memory")
		return err
	}
	history, err := h.memorySvc.GetHistory(ctx, sessionID)
	if err != nil {
		h.sendError(w, flusher, "failed to load conversation")
		return err
	}

	decision := h.emotionSvc.Detect(ctx, history, userMessage)

	h.send(w, flusher, StreamResponse{Event: "start", SessionID: sessionID})

	response, err := h.dispatch(ctx, w, flusher, sessionID, memoryContext, history, userMessage, decision)
	if err != nil {
		h.sendError(w, flusher, fmt.Sprintf("AI generation failed: %v", err))
		return err
	}

	h.memorySvc.AppendMessage(ctx, sessionID, memorymodel.RoleAssistant, response)
	h.memorySvc.UpdateSession(ctx, sessionID, memoryservice.Update{
		Topic: excerpt(userMessage, 50),
		Tone:  string(decision.Emotion),
	})

	h.send(w, flusher, StreamResponse{
		Event:     "emotion",
		SessionID: sessionID,
		Content:   fmt.Sprintf(`{"emotion":%q,"intensity":%.2f,"summary":%q}`, decision.Emotion, decision.Intensity, decision.Summary),
	})

	h.send(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})

	log.Printf("[stream] completed response for session=%s", sessionID)
	return nil
}

func (h *Handler) dispatch(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, memoryContext string, history []memorymodel.Turn, userMessage string, decision analysis.Decision) (string, error) {
	if reply, ok := aiservice.ScriptedReply(userMessage); ok {
		h.send(w, flusher, StreamResponse{Event: "message", SessionID: sessionID, Content: reply})
		return reply, nil
	}

	if !h.aiSvc.StreamingEnabled() {
		response := h.aiSvc.GenerateResponse(ctx, sessionID, memoryContext, history, userMessage, decision)
		h.send(w, flusher, StreamResponse{Event: "message", SessionID: sessionID, Content: response})
		return response, nil
	}

	stream, err := h.aiSvc.StreamResponse(ctx, memoryContext, history, userMessage, decision)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.send(w, flusher, StreamResponse{Event: "delta", SessionID: sessionID, Content: chunk.Content})
		}
	}

	concatenated, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}

	response := h.aiSvc.Polish(concatenated.Content, decision.Emotion)
	h.send(w, flusher, StreamResponse{Event: "message", SessionID: sessionID, Content: response})
	return response, nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.send(w, flusher, StreamResponse{Event: "error", Error: errorMsg})
}

func excerpt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
