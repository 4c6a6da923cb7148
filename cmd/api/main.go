package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/soultalk/backend/internal/config"
	"github.com/soultalk/backend/internal/handler"
	"github.com/soultalk/backend/internal/model/companion"
	aiservice "github.com/soultalk/backend/internal/service/ai"
	chatservice "github.com/soultalk/backend/internal/service/chat"
	emotionservice "github.com/soultalk/backend/internal/service/emotion"
	memoryservice "github.com/soultalk/backend/internal/service/memory"
	speechservice "github.com/soultalk/backend/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	memoryService := memoryservice.NewService()
	profile := companion.Default()

	var aiService *aiservice.Service
	if cfg.AI.Enabled() {
		aiService, err = aiservice.NewService(ctx, profile, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing with canned replies - check MISTRAL_API_KEY and MISTRAL_MODEL")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Mistral credentials not configured, replies run in demo mode")
	}

	var classifierModel model.ChatModel
	if cfg.AI.Enabled() && cfg.AI.EmotionLLMEnabled {
		classifierModel, err = cfg.AI.NewEmotionChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize emotion model: %v", err)
			classifierModel = nil
		}
	}

	emotionService, err := emotionservice.NewService(ctx, classifierModel, emotionservice.Config{
		Enabled:      cfg.AI.EmotionLLMEnabled,
		HistoryLimit: cfg.AI.EmotionHistoryLimit,
	})
	if err != nil {
		log.Printf("warning: failed to initialize emotion service: %v", err)
		emotionService, _ = emotionservice.NewService(ctx, nil, emotionservice.Config{})
	}
	if emotionService.Enabled() {
		log.Println("Emotion classifier service enabled")
	} else {
		log.Println("Emotion classifier running on keyword heuristics")
	}

	speechService := speechservice.NewService(cfg.Speech)
	if !speechService.TranscriberLive() {
		log.Println("Mistral key absent, transcription runs in demo mode")
	}
	if !speechService.SynthesizerLive() {
		log.Println("ElevenLabs key absent, synthesis returns silent replies")
	}

	chatService := chatservice.NewService(memoryService, emotionService, aiService)

	router := handler.NewRouter(memoryService, chatService, aiService, emotionService, speechService)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("SoulTalk backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
