package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every section of the service configuration.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Speech SpeechConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Speech: speech}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Accept ":8000" or "127.0.0.1:8000" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the Mistral-backed generation and classification
// models. Mistral exposes an OpenAI-compatible chat API, so both run
// through the eino OpenAI component.
type AIConfig struct {
	APIKey              string
	Model               string
	EmotionModel        string
	BaseURL             string
	Temperature         *float64
	TopP                *float64
	MaxTokens           *int
	StreamResponse      bool
	EmotionLLMEnabled   bool
	EmotionHistoryLimit int
	SystemPromptPath    string
}

// Enabled reports whether the required credentials were provided.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel builds the response-generation model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Mistral credentials missing, set MISTRAL_API_KEY")
	}

	maxTokens := 180
	if c.MaxTokens != nil {
		maxTokens = *c.MaxTokens
	}

	temperature := float32(0.6)
	if c.Temperature != nil {
		temperature = float32(*c.Temperature)
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	return openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        topP,
	})
}

// NewEmotionChatModel builds the smaller, near-deterministic model used
// for emotion classification.
func (c AIConfig) NewEmotionChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Mistral credentials missing, set MISTRAL_API_KEY")
	}

	maxTokens := 100
	temperature := float32(0.1)

	return openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.EmotionModel,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("MISTRAL_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("MISTRAL_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("MISTRAL_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("MISTRAL_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	emotionEnabled, err := parseBoolEnv("EMOTION_LLM_ENABLED", true)
	if err != nil {
		return AIConfig{}, err
	}

	emotionHistory := 6
	if historyOverride, err := parseOptionalIntEnv("EMOTION_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if historyOverride != nil {
		if *historyOverride < 1 {
			emotionHistory = 1
		} else {
			emotionHistory = *historyOverride
		}
	}

	return AIConfig{
		APIKey:              strings.TrimSpace(os.Getenv("MISTRAL_API_KEY")),
		Model:               getEnvOrDefault("MISTRAL_MODEL", "mistral-large-latest"),
		EmotionModel:        getEnvOrDefault("EMOTION_MODEL", "mistral-small-latest"),
		BaseURL:             getEnvOrDefault("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
		Temperature:         temperature,
		TopP:                topP,
		MaxTokens:           maxTokens,
		StreamResponse:      stream,
		EmotionLLMEnabled:   emotionEnabled,
		EmotionHistoryLimit: emotionHistory,
		SystemPromptPath:    strings.TrimSpace(os.Getenv("SYSTEM_PROMPT_PATH")),
	}, nil
}

// SpeechConfig describes the speech-to-text and text-to-speech providers.
// Both run in demo mode with canned output when their keys are absent.
type SpeechConfig struct {
	MistralAPIKey     string
	MistralBaseURL    string
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	TranscribeTimeout int
	SynthesizeTimeout int
}

func loadSpeechConfig() (SpeechConfig, error) {
	transcribeTimeout := 60
	if timeout, err := parseOptionalIntEnv("SPEECH_TRANSCRIBE_TIMEOUT"); err != nil {
		return SpeechConfig{}, err
	} else if timeout != nil {
		transcribeTimeout = *timeout
	}

	synthesizeTimeout := 30
	if timeout, err := parseOptionalIntEnv("SPEECH_SYNTHESIZE_TIMEOUT"); err != nil {
		return SpeechConfig{}, err
	} else if timeout != nil {
		synthesizeTimeout = *timeout
	}

	return SpeechConfig{
		MistralAPIKey:     strings.TrimSpace(os.Getenv("MISTRAL_API_KEY")),
		MistralBaseURL:    getEnvOrDefault("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
		ElevenLabsAPIKey:  strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		ElevenLabsVoiceID: getEnvOrDefault("ELEVENLABS_VOICE_ID", "EXAVITQu4vr4xnSDxMaL"),
		TranscribeTimeout: transcribeTimeout,
		SynthesizeTimeout: synthesizeTimeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
