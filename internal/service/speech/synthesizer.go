package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

// Synthesize converts reply text to MP3 audio via ElevenLabs. Missing
// key, empty text and provider failures all yield nil audio; the
// frontend treats a silent reply gracefully.
func (s *Service) Synthesize(ctx context.Context, text string) []byte {
	if !s.SynthesizerLive() {
		return nil
	}

	ttsText := prepareTTSText(text)
	if ttsText == "" {
		return nil
	}

	payload := map[string]any{
		"text":     ttsText,
		"model_id": "eleven_multilingual_v2",
		"voice_settings": map[string]any{
			"stability":         0.72,
			"similarity_boost":  0.8,
			"style":             0.28,
			"use_speaker_boost": true,
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[speech] failed to encode TTS payload: %v", err)
		return nil
	}

	url := elevenLabsBaseURL + "/v1/text-to-speech/" + s.cfg.ElevenLabsVoiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		log.Printf("[speech] failed to build TTS request: %v", err)
		return nil
	}
	req.Header.Set("xi-api-key", s.cfg.ElevenLabsAPIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.synthesizeClient.Do(req)
	if err != nil {
		log.Printf("[speech] TTS request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("[speech] TTS returned %d", resp.StatusCode)
		return nil
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[speech] failed to read TTS audio: %v", err)
		return nil
	}
	return audio
}

// prepareTTSText compacts the multi-line reply into a single utterance
// and stretches sentence boundaries into audible pauses.
func prepareTTSText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if cleaned == "" {
		return ""
	}
	return strings.ReplaceAll(cleaned, ". ", "... ")
}
