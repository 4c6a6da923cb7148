// Package chat orchestrates one conversational turn: resolve the
// session, record the user's message, detect emotion, generate the reply
// and fold the turn back into session memory.
package chat

import (
	"context"
	"log"

	analysis "github.com/soultalk/backend/internal/analysis/emotion"
	memorymodel "github.com/soultalk/backend/internal/model/memory"
	aiservice "github.com/soultalk/backend/internal/service/ai"
	emotionservice "github.com/soultalk/backend/internal/service/emotion"
	memoryservice "github.com/soultalk/backend/internal/service/memory"
)

// topicExcerpt is how much of the user's message is kept as the topic
// summary for the turn.
const topicExcerpt = 50

// Service wires the memory core to the stateless collaborators around it.
type Service struct {
	memory  *memoryservice.Service
	emotion *emotionservice.Service
	ai      *aiservice.Service
}

// NewService builds the turn processor. ai may be nil; turns then get
// the canned empathetic fallback so the product works without a key.
func NewService(memory *memoryservice.Service, emotion *emotionservice.Service, ai *aiservice.Service) *Service {
	return &Service{memory: memory, emotion: emotion, ai: ai}
}

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	SessionID string            `json:"sessionId"`
	Response  string            `json:"response"`
	Emotion   analysis.Decision `json:"emotion"`
	Created   bool              `json:"-"`
}

// Memory returns the session store for handlers that read state directly.
func (s *Service) Memory() *memoryservice.Service {
	return s.memory
}

// ProcessTurn runs the full text pipeline for one user message. An empty
// or unknown session id gets a fresh session; that decision lives here,
// not in the store.
func (s *Service) ProcessTurn(ctx context.Context, sessionID, userMessage string) (TurnResult, error) {
	sessionID, created, err := s.resolveSession(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	s.memory.AppendMessage(ctx, sessionID, memorymodel.RoleUser, userMessage)

	memoryContext, err := s.memory.GetMemoryContext(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	history, err := s.memory.GetHistory(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	decision := s.emotion.Detect(ctx, history, userMessage)

	response := s.generate(ctx, sessionID, memoryContext, history, userMessage, decision)

	s.memory.AppendMessage(ctx, sessionID, memorymodel.RoleAssistant, response)
	s.memory.UpdateSession(ctx, sessionID, memoryservice.Update{
		Topic: excerpt(userMessage, topicExcerpt),
		Tone:  string(decision.Emotion),
	})

	return TurnResult{
		SessionID: sessionID,
		Response:  response,
		Emotion:   decision,
		Created:   created,
	}, nil
}

func (s *Service) generate(ctx context.Context, sessionID, memoryContext string, history []memorymodel.Turn, userMessage string, decision analysis.Decision) string {
	if s.ai != nil {
		return s.ai.GenerateResponse(ctx, sessionID, memoryContext, history, userMessage, decision)
	}

	if reply, ok := aiservice.ScriptedReply(userMessage); ok {
		return reply
	}
	return aiservice.FallbackReply(decision)
}

func (s *Service) resolveSession(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID != "" {
		if _, err := s.memory.GetSession(ctx, sessionID); err == nil {
			return sessionID, false, nil
		}
	}

	session, err := s.memory.CreateSession(ctx)
	if err != nil {
		return "", false, err
	}
	log.Printf("[chat] created session %s", session.ID)
	return session.ID, true, nil
}

func excerpt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
