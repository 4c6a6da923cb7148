// Package emotion classifies the emotional tone of user messages with a
// small LLM, falling back to the keyword heuristic whenever the model is
// unavailable or returns something unusable.
package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/soultalk/backend/internal/analysis/emotion"
	memorymodel "github.com/soultalk/backend/internal/model/memory"
)

// Config controls the classifier behaviour.
type Config struct {
	Enabled      bool
	HistoryLimit int
}

// Service wraps the LLM classifier chain. A nil or disabled service still
// answers every call through the heuristic.
type Service struct {
	enabled      bool
	classifier   compose.Runnable[map[string]any, *schema.Message]
	fallback     func(text string) analysis.Decision
	historyLimit int
}

// NewService builds the classifier. chatModel may be nil, in which case
// the service runs heuristic-only.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 6
	}

	svc := &Service{
		enabled:      cfg.Enabled && chatModel != nil,
		fallback:     analysis.Analyze,
		historyLimit: historyLimit,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(detectionSystemPrompt),
		schema.UserMessage(detectionUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the LLM path is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Detect classifies the user's latest message. It never fails: every
// error path degrades to the keyword heuristic.
func (s *Service) Detect(ctx context.Context, history []memorymodel.Turn, userMessage string) analysis.Decision {
	if s == nil || !s.Enabled() {
		return analysis.Analyze(userMessage)
	}

	input := map[string]any{
		"history":      formatHistory(history, s.historyLimit),
		"user_message": strings.TrimSpace(userMessage),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		log.Printf("[emotion] classifier invoke failed, using fallback: %v", err)
		return s.fallback(userMessage)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallback(userMessage)
	}

	decision, err := parseClassifierOutput(msg.Content)
	if err != nil {
		log.Printf("[emotion] classifier output parse failed, using fallback: %v", err)
		return s.fallback(userMessage)
	}

	return decision
}

type classifierPayload struct {
	Emotion   string  `json:"emotion"`
	Intensity float32 `json:"intensity"`
	Summary   string  `json:"summary"`
}

// parseClassifierOutput validates the JSON object the model returned.
func parseClassifierOutput(content string) (analysis.Decision, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return analysis.Decision{}, fmt.Errorf("missing json object")
	}

	payload := classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return analysis.Decision{}, err
	}

	decision := analysis.Decision{
		Emotion:   analysis.Normalize(payload.Emotion),
		Intensity: clampIntensity(payload.Intensity),
		Summary:   strings.TrimSpace(payload.Summary),
	}
	if decision.Summary == "" {
		decision.Summary = string(decision.Emotion)
	}
	return decision, nil
}

func clampIntensity(val float32) float32 {
	if val <= 0 {
		return 0.5
	}
	if val > 1 {
		return 1
	}
	return val
}

func formatHistory(turns []memorymodel.Turn, limit int) string {
	if len(turns) == 0 {
		return "no prior conversation"
	}
	if limit < 1 {
		limit = 1
	}
	start := len(turns) - limit
	if start < 0 {
		start = 0
	}

	var builder strings.Builder
	for i := start; i < len(turns); i++ {
		turn := turns[i]
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		role := "User"
		if strings.EqualFold(turn.Role, memorymodel.RoleAssistant) {
			role = "AI"
		}
		builder.WriteString(role)
		builder.WriteString(": ")
		builder.WriteString(content)
	}
	if builder.Len() == 0 {
		return "no prior conversation"
	}
	return builder.String()
}

const detectionSystemPrompt = "You are an emotion classifier. Given a user message, respond with ONLY a JSON object (no markdown, no extra text) containing:\n" +
	"- \"emotion\": one of [\"sad\", \"anxious\", \"confused\", \"neutral\"]\n" +
	"- \"intensity\": a float 0.0-1.0 (0 = barely present, 1 = very intense)\n" +
	"- \"summary\": a 3-5 word description of the emotional state\n\n" +
	"Example output:\n{\"emotion\": \"anxious\", \"intensity\": 0.7, \"summary\": \"worried and tense\"}"

const detectionUserPrompt = "Recent conversation:\n{history}\n\nUser's latest message:\n{user_message}\n\nReturn the JSON."
