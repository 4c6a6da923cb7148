package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soultalk/backend/internal/config"
	"github.com/soultalk/backend/internal/handler"
	chatservice "github.com/soultalk/backend/internal/service/chat"
	emotionservice "github.com/soultalk/backend/internal/service/emotion"
	memoryservice "github.com/soultalk/backend/internal/service/memory"
	speechservice "github.com/soultalk/backend/internal/service/speech"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	memorySvc := memoryservice.NewService()
	emotionSvc, err := emotionservice.NewService(context.Background(), nil, emotionservice.Config{})
	if err != nil {
		t.Fatalf("emotion service init err: %v", err)
	}
	chatSvc := chatservice.NewService(memorySvc, emotionSvc, nil)
	speechSvc := speechservice.NewService(config.SpeechConfig{})

	router := handler.NewRouter(memorySvc, chatSvc, nil, emotionSvc, speechSvc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
}

func TestRoutesMounted(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/session", "application/json", nil)
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 from /api/session, got %d", resp.StatusCode)
	}

	textResp, err := http.Post(srv.URL+"/api/chat/text", "application/json",
		strings.NewReader(`{"message":"hello"}`))
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	defer textResp.Body.Close()

	if textResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /api/chat/text, got %d", textResp.StatusCode)
	}
}

func TestStreamUnavailableWithoutAI(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/stream/some-session?message=hi")
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without AI service, got %d", resp.StatusCode)
	}
}
