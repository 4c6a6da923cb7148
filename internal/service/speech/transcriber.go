package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Models tried against the dedicated transcription endpoint, in order.
var transcribeModels = []string{"voxtral-mini-latest", "voxtral-small-latest", "mistral-small-latest"}

// mimeNormalise maps browser MIME types onto the simplified types the
// API expects; codec suffixes are dropped.
var mimeNormalise = map[string]string{
	"audio/webm":             "audio/webm",
	"audio/webm;codecs=opus": "audio/webm",
	"audio/ogg":              "audio/ogg",
	"audio/ogg;codecs=opus":  "audio/ogg",
	"audio/wav":              "audio/wav",
	"audio/x-wav":            "audio/wav",
	"audio/mpeg":             "audio/mpeg",
	"audio/mp3":              "audio/mpeg",
	"audio/flac":             "audio/flac",
	"audio/mp4":              "audio/mp4",
}

const (
	demoTranscript    = "I've been feeling a bit overwhelmed lately with everything going on."
	unclearTranscript = "I couldn't transcribe that clearly. Could you try saying it again?"

	transcribeInstruction = "Transcribe the spoken words in this audio exactly as spoken. " +
		"Return ONLY the transcription text — no commentary, no labels, no timestamps."
)

// Transcribe converts recorded audio to text. It first tries the
// dedicated speech-to-text endpoint per model, then falls back to the
// multimodal chat completions route with a base64 data URI, and finally
// to an apology transcript. It never fails.
func (s *Service) Transcribe(ctx context.Context, audioData []byte, mimeType string) string {
	if !s.TranscriberLive() {
		return demoTranscript
	}

	mime := normaliseMIME(mimeType)

	if text := s.transcribeDedicated(ctx, audioData, mime); text != "" {
		return text
	}
	if text := s.transcribeMultimodal(ctx, audioData, mime); text != "" {
		return text
	}
	return unclearTranscript
}

func normaliseMIME(raw string) string {
	if mime, ok := mimeNormalise[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return mime
	}
	return "audio/wav"
}

func (s *Service) transcribeDedicated(ctx context.Context, audioData []byte, mime string) string {
	for _, model := range transcribeModels {
		text, err := s.postTranscription(ctx, audioData, mime, model)
		if err != nil {
			log.Printf("[speech] transcription with %s failed: %v", model, err)
			continue
		}
		if text != "" {
			return text
		}
	}
	return ""
}

func (s *Service) postTranscription(ctx context.Context, audioData []byte, mime, model string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="recording.webm"`)
	header.Set("Content-Type", mime)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audioData); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", model); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.MistralBaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.MistralAPIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := s.transcribeClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("transcription endpoint returned %d", resp.StatusCode)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

func (s *Service) transcribeMultimodal(ctx context.Context, audioData []byte, mime string) string {
	dataURI := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(audioData))

	payload := map[string]any{
		"model": "mistral-small-latest",
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "audio_url", "audio_url": dataURI},
					{"type": "text", "text": transcribeInstruction},
				},
			},
		},
		"max_tokens":  1000,
		"temperature": 0.0,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[speech] failed to encode multimodal payload: %v", err)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.MistralBaseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		log.Printf("[speech] failed to build multimodal request: %v", err)
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.MistralAPIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.transcribeClient.Do(req)
	if err != nil {
		log.Printf("[speech] multimodal transcription failed: %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("[speech] multimodal transcription returned %d: %s", resp.StatusCode, body)
		return ""
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("[speech] failed to decode multimodal response: %v", err)
		return ""
	}
	if len(result.Choices) == 0 {
		return ""
	}

	transcript := strings.TrimSpace(result.Choices[0].Message.Content)
	if len(transcript) >= 2 && strings.HasPrefix(transcript, `"`) && strings.HasSuffix(transcript, `"`) {
		transcript = transcript[1 : len(transcript)-1]
	}
	return transcript
}
