// Package speech provides the speech-to-text (Voxtral via Mistral) and
// text-to-speech (ElevenLabs) clients. Both degrade to canned output when
// their API keys are absent so the rest of the pipeline stays usable in
// demos; neither ever propagates a provider failure.
package speech

import (
	"net/http"
	"time"

	"github.com/soultalk/backend/internal/config"
)

// Service bundles both speech directions behind one dependency for the
// handlers.
type Service struct {
	cfg              config.SpeechConfig
	transcribeClient *http.Client
	synthesizeClient *http.Client
}

// NewService creates the speech service with per-direction HTTP timeouts.
func NewService(cfg config.SpeechConfig) *Service {
	return &Service{
		cfg:              cfg,
		transcribeClient: &http.Client{Timeout: time.Duration(cfg.TranscribeTimeout) * time.Second},
		synthesizeClient: &http.Client{Timeout: time.Duration(cfg.SynthesizeTimeout) * time.Second},
	}
}

// TranscriberLive reports whether transcription talks to the real API
// rather than returning the demo transcript.
func (s *Service) TranscriberLive() bool {
	return s.cfg.MistralAPIKey != ""
}

// SynthesizerLive reports whether synthesis talks to the real API rather
// than returning empty audio.
func (s *Service) SynthesizerLive() bool {
	return s.cfg.ElevenLabsAPIKey != ""
}
