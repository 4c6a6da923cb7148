// voicetester exercises the speech providers from the command line:
//
//	voicetester -transcribe recording.webm
//	voicetester -synthesize "Hmm… that sounds heavy." -out reply.mp3
package main

import (
	"context"
	"flag"
	"log"
	"mime"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/soultalk/backend/internal/config"
	speechservice "github.com/soultalk/backend/internal/service/speech"
)

func main() {
	transcribePath := flag.String("transcribe", "", "audio file to transcribe")
	synthesizeText := flag.String("synthesize", "", "text to synthesize")
	outPath := flag.String("out", "reply.mp3", "output file for synthesized audio")
	flag.Parse()

	if *transcribePath == "" && *synthesizeText == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	svc := speechservice.NewService(cfg.Speech)
	ctx := context.Background()

	if *transcribePath != "" {
		audio, err := os.ReadFile(*transcribePath)
		if err != nil {
			log.Fatalf("failed to read audio file: %v", err)
		}

		mimeType := mime.TypeByExtension(filepath.Ext(*transcribePath))
		if mimeType == "" {
			mimeType = "audio/wav"
		}

		transcript := svc.Transcribe(ctx, audio, mimeType)
		log.Printf("transcript: %s", transcript)
	}

	if *synthesizeText != "" {
		audio := svc.Synthesize(ctx, *synthesizeText)
		if len(audio) == 0 {
			log.Println("no audio returned (missing ELEVENLABS_API_KEY?)")
			return
		}
		if err := os.WriteFile(*outPath, audio, 0o644); err != nil {
			log.Fatalf("failed to write audio: %v", err)
		}
		log.Printf("wrote %d bytes to %s", len(audio), *outPath)
	}
}
