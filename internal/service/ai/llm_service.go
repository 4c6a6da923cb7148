// Package ai generates the companion's replies through a Mistral chat
// model, with scripted and canned fallbacks so the conversation keeps
// flowing when the model is unreachable.
package ai

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/soultalk/backend/internal/analysis/emotion"
	"github.com/soultalk/backend/internal/config"
	"github.com/soultalk/backend/internal/model/companion"
	memorymodel "github.com/soultalk/backend/internal/model/memory"
)

// Service encapsulates AI-powered response generation.
type Service struct {
	chatModel    model.ChatModel
	profile      companion.Profile
	cfg          config.AIConfig
	chain        compose.Runnable[map[string]any, *schema.Message]
	systemPrompt string
}

// NewService creates the response generator backed by the configured model.
func NewService(ctx context.Context, profile companion.Profile, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel:    chatModel,
		profile:      profile,
		cfg:          cfg,
		chain:        runnable,
		systemPrompt: loadSystemPrompt(cfg.SystemPromptPath, profile),
	}, nil
}

// StreamingEnabled indicates whether SSE streaming output is configured.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// GetChatModel returns the underlying chat model so other services (the
// emotion classifier) can reuse the connection.
func (s *Service) GetChatModel() model.ChatModel {
	return s.chatModel
}

// GenerateResponse produces one companion reply. Model failures degrade
// to a canned empathetic reply rather than surfacing an error; the memory
// core downstream never sees provider failures.
func (s *Service) GenerateResponse(ctx context.Context, sessionID, memoryContext string, history []memorymodel.Turn, userMessage string, decision analysis.Decision) string {
	if reply, ok := ScriptedReply(userMessage); ok {
		return reply
	}

	input := s.buildChainInput(memoryContext, history, userMessage, decision)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		log.Printf("[ai] generation failed for session=%s, using fallback: %v", sessionID, err)
		return applyGuardrails(connectionIssueReply, decision.Emotion)
	}

	log.Printf("[ai] generated response for session=%s, length=%d", sessionID, len(response.Content))
	return applyGuardrails(response.Content, decision.Emotion)
}

// StreamResponse streams raw reply chunks via the configured chain. The
// caller applies guardrails to the concatenated result.
func (s *Service) StreamResponse(ctx context.Context, memoryContext string, history []memorymodel.Turn, userMessage string, decision analysis.Decision) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	input := s.buildChainInput(memoryContext, history, userMessage, decision)

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}

	return stream, nil
}

// Polish applies the response guardrails to externally assembled text,
// e.g. the concatenation of streamed chunks.
func (s *Service) Polish(text string, emotion analysis.Label) string {
	return applyGuardrails(text, emotion)
}

func (s *Service) buildChainInput(memoryContext string, history []memorymodel.Turn, userMessage string, decision analysis.Decision) map[string]any {
	return map[string]any{
		"system":  BuildSystemPrompt(s.systemPrompt, memoryContext, decision),
		"history": buildHistoryMessages(history),
		"query":   userMessage,
	}
}

const historyLimit = 10

func buildHistoryMessages(turns []memorymodel.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if len(turns) > historyLimit {
		startIdx = len(turns) - historyLimit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.Role {
		case memorymodel.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case memorymodel.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}

	return history
}

// BuildSystemPrompt assembles the full system prompt: companion base,
// session memory block, detected emotion block and output constraints.
func BuildSystemPrompt(base, memoryContext string, decision analysis.Decision) string {
	var builder strings.Builder
	builder.WriteString(base)

	if memoryContext != "" {
		builder.WriteString("\n\n--- Session Memory ---\n")
		builder.WriteString(memoryContext)
	}

	builder.WriteString("\n\n--- Detected Emotion ---\n")
	builder.WriteString(fmt.Sprintf("User feels: %s (intensity %.1f/1.0)\n", decision.Emotion, decision.Intensity))
	builder.WriteString("Context: ")
	builder.WriteString(decision.Summary)
	builder.WriteString("\n")
	builder.WriteString(styleHint(decision.Emotion))

	builder.WriteString("\n\n--- Output Constraints ---\n")
	builder.WriteString("Reply in 2-4 short lines max.\n")
	builder.WriteString("Validate emotion first, reflect second, optional gentle question last.\n")
	builder.WriteString("Do not give generic advice unless user asks directly.")

	return builder.String()
}

func loadSystemPrompt(path string, profile companion.Profile) string {
	if path == "" {
		return profile.SystemPrompt
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[ai] system prompt file unavailable, using built-in prompt: %v", err)
		return profile.SystemPrompt
	}
	return string(data)
}

func styleHint(emotion analysis.Label) string {
	switch emotion {
	case analysis.Sad:
		return "Use slower, softer wording. Validate the heaviness before any suggestion."
	case analysis.Anxious:
		return "Use grounding language and short steady phrases."
	case analysis.Confused:
		return "Use clarifying language and one simple follow-up question."
	default:
		return "Keep a calm conversational tone."
	}
}
