// File: cmd/diagnostic/llm_diagnostic.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iyunix/go-lingochat/internal/config"
	"github.com/iyunix/go-lingochat/internal/services"
	"github.com/iyunix/go-lingochat/internal/services/ai"
	"github.com/iyunix/go-lingochat/internal/services/backend"
	"github.com/iyunix/go-lingochat/internal/services/language"
	"github.com/iyunix/go-lingochat/internal/services/location"
)

// Checks every capability the server depends on with the current configuration.
func main() {
	text := flag.String("text", "Dove si trova la stazione?", "sample text to identify and translate")
	target := flag.String("target", "en", "target language")
	audio := flag.String("audio", "", "optional recording to transcribe")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	logger := services.NewLogger("lingochat-diagnostic")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	failed := false
	check := func(name string, fn func() (string, error)) {
		start := time.Now()
		result, err := fn()
		if err != nil {
			failed = true
			fmt.Printf("❌ %-14s %v\n", name, err)
			return
		}
		fmt.Printf("✅ %-14s %s (%s)\n", name, result, time.Since(start).Round(time.Millisecond))
	}

	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.AIAPIKey
	aiConfig.BaseURL = cfg.AIBaseURL
	aiConfig.LanguageIDModel = cfg.LanguageIDModel
	aiConfig.TranslationModel = cfg.TranslationModel
	aiConfig.TranscriptionModel = cfg.TranscriptionModel
	aiConfig.Supported = cfg.SupportedLanguages
	provider, err := ai.NewOpenAIProvider(aiConfig, logger)
	if err != nil {
		log.Fatalf("❌ AI provider: %v", err)
	}

	source := language.Undetermined
	check("identify", func() (string, error) {
		code, err := provider.Identify(ctx, *text)
		source = code
		return code, err
	})
	check("script id", func() (string, error) {
		return language.NewScriptIdentifier().Identify(ctx, *text)
	})

	if language.Normalize(source) == language.Undetermined {
		fmt.Println("⚠️  source language undetermined, skipping translation")
	} else {
		resolvedSource := language.Resolve(source, provider.Supports, cfg.DefaultLanguage)
		resolvedTarget := language.Resolve(*target, provider.Supports, cfg.DefaultLanguage)
		check("model", func() (string, error) {
			return resolvedSource + "->" + resolvedTarget, provider.EnsureModel(ctx, resolvedSource, resolvedTarget)
		})
		check("translate", func() (string, error) {
			return provider.Translate(ctx, *text, resolvedSource, resolvedTarget)
		})
	}

	if *audio != "" {
		check("transcribe", func() (string, error) {
			return provider.Transcribe(ctx, *audio)
		})
	}

	backendConfig := backend.DefaultConfig()
	backendConfig.BaseURL = cfg.BackendBaseURL
	backendConfig.Timeout = cfg.BackendTimeout
	backendConfig.AuthToken = cfg.BackendAuthToken
	api, err := backend.NewClient(backendConfig, logger)
	if err != nil {
		log.Fatalf("❌ Backend client: %v", err)
	}
	check("backend", func() (string, error) {
		chats, err := api.ListCommunityChats(ctx)
		return fmt.Sprintf("%d community chats", len(chats)), err
	})

	if cfg.HasLocation {
		geocoder := location.NewNominatimGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, 10*time.Second)
		check("geocode", func() (string, error) {
			return geocoder.Resolve(ctx, cfg.Latitude, cfg.Longitude)
		})
	}

	if failed {
		os.Exit(1)
	}
}
