package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "MISTRAL_MODEL", "EMOTION_MODEL", "MISTRAL_BASE_URL",
		"MISTRAL_STREAM", "EMOTION_HISTORY_LIMIT",
		"SPEECH_TRANSCRIBE_TIMEOUT", "SPEECH_SYNTHESIZE_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.AI.Model != "mistral-large-latest" {
		t.Fatalf("unexpected default model: %q", cfg.AI.Model)
	}
	if cfg.AI.EmotionModel != "mistral-small-latest" {
		t.Fatalf("unexpected default emotion model: %q", cfg.AI.EmotionModel)
	}
	if cfg.AI.BaseURL != "https://api.mistral.ai/v1" {
		t.Fatalf("unexpected default base URL: %q", cfg.AI.BaseURL)
	}
	if !cfg.AI.StreamResponse {
		t.Fatal("streaming should default to enabled")
	}
	if cfg.AI.EmotionHistoryLimit != 6 {
		t.Fatalf("unexpected default history limit: %d", cfg.AI.EmotionHistoryLimit)
	}
	if cfg.Speech.TranscribeTimeout != 60 || cfg.Speech.SynthesizeTimeout != 30 {
		t.Fatalf("unexpected default speech timeouts: %d/%d",
			cfg.Speech.TranscribeTimeout, cfg.Speech.SynthesizeTimeout)
	}
}

func TestLoadServerConfigPortForms(t *testing.T) {
	tests := []struct {
		port string
		want string
	}{
		{"", ":8000"},
		{"9000", ":9000"},
		{":9000", ":9000"},
		{"127.0.0.1:9000", "127.0.0.1:9000"},
	}

	for _, tt := range tests {
		t.Setenv("PORT", tt.port)
		server, err := loadServerConfig()
		if err != nil {
			t.Fatalf("PORT=%q: unexpected err: %v", tt.port, err)
		}
		if server.Addr != tt.want {
			t.Fatalf("PORT=%q: Addr = %q, want %q", tt.port, server.Addr, tt.want)
		}
	}
}

func TestLoadServerConfigRejectsGarbage(t *testing.T) {
	t.Setenv("PORT", "80 00")

	if _, err := loadServerConfig(); err == nil {
		t.Fatal("expected error for PORT with spaces")
	}
}

func TestAIConfigEnabled(t *testing.T) {
	if (AIConfig{}).Enabled() {
		t.Fatal("empty config must not report enabled")
	}
	if !(AIConfig{APIKey: "key", Model: "mistral-large-latest"}).Enabled() {
		t.Fatal("key and model must report enabled")
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("TEST_BOOL", "")
	if val, err := parseBoolEnv("TEST_BOOL", true); err != nil || !val {
		t.Fatalf("expected default true, got %v err=%v", val, err)
	}

	t.Setenv("TEST_BOOL", "false")
	if val, err := parseBoolEnv("TEST_BOOL", true); err != nil || val {
		t.Fatalf("expected false, got %v err=%v", val, err)
	}

	t.Setenv("TEST_BOOL", "not-a-bool")
	if _, err := parseBoolEnv("TEST_BOOL", true); err == nil {
		t.Fatal("expected error for garbage value")
	}
}

func TestParseOptionalFloatEnv(t *testing.T) {
	if val, err := parseOptionalFloatEnv("TEST_FLOAT_ABSENT"); err != nil || val != nil {
		t.Fatalf("expected nil for absent key, got %v err=%v", val, err)
	}

	t.Setenv("TEST_FLOAT", "0.7")
	val, err := parseOptionalFloatEnv("TEST_FLOAT")
	if err != nil || val == nil || *val != 0.7 {
		t.Fatalf("expected 0.7, got %v err=%v", val, err)
	}

	t.Setenv("TEST_FLOAT", "abc")
	if _, err := parseOptionalFloatEnv("TEST_FLOAT"); err == nil {
		t.Fatal("expected error for garbage value")
	}
}

func TestParseOptionalIntEnv(t *testing.T) {
	if val, err := parseOptionalIntEnv("TEST_INT_ABSENT"); err != nil || val != nil {
		t.Fatalf("expected nil for absent key, got %v err=%v", val, err)
	}

	t.Setenv("TEST_INT", "250")
	val, err := parseOptionalIntEnv("TEST_INT")
	if err != nil || val == nil || *val != 250 {
		t.Fatalf("expected 250, got %v err=%v", val, err)
	}
}
