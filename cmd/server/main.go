// File: cmd/server/main.go
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

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iyunix/go-lingochat/internal/config"
	"github.com/iyunix/go-lingochat/internal/handlers"
	"github.com/iyunix/go-lingochat/internal/ratelimit"
	"github.com/iyunix/go-lingochat/internal/repository/user"
	"github.com/iyunix/go-lingochat/internal/services"
	"github.com/iyunix/go-lingochat/internal/services/ai"
	"github.com/iyunix/go-lingochat/internal/services/backend"
	"github.com/iyunix/go-lingochat/internal/services/chat"
	"github.com/iyunix/go-lingochat/internal/services/language"
	"github.com/iyunix/go-lingochat/internal/services/location"
	"github.com/iyunix/go-lingochat/internal/services/pipeline"
	"github.com/iyunix/go-lingochat/internal/services/speech"
)

// scriptModel selects the offline script based identifier instead of a model.
const scriptModel = "script"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := services.NewLogger("lingochat")

	db, err := gorm.Open(sqlite.Open(cfg.CachePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}
	if err := user.Migrate(db); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	userRepo := user.NewGormUserRepository(db)

	// --- Services ---
	backendConfig := backend.DefaultConfig()
	backendConfig.BaseURL = cfg.BackendBaseURL
	backendConfig.Timeout = cfg.BackendTimeout
	backendConfig.AuthToken = cfg.BackendAuthToken
	api, err := backend.NewClient(backendConfig, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize backend client: %v", err)
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
		log.Fatalf("FATAL: Failed to initialize AI provider: %v", err)
	}

	var identifier pipeline.LanguageIdentifier = provider
	if cfg.LanguageIDModel == scriptModel {
		identifier = language.NewScriptIdentifier()
	}

	var position *location.Coordinates
	if cfg.HasLocation {
		position = &location.Coordinates{Lat: cfg.Latitude, Lon: cfg.Longitude}
	}
	cities := location.NewResolver(
		location.NewGrant(cfg.LocationPermission),
		location.NewStaticLocator(position),
		location.NewNominatimGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, 10*time.Second),
		logger,
	)

	pipelineConfig := &pipeline.Config{
		DefaultLanguage:  cfg.DefaultLanguage,
		IdentifyTimeout:  cfg.IdentifyTimeout,
		ModelTimeout:     cfg.ModelTimeout,
		TranslateTimeout: cfg.TranslateTimeout,
		PersistTimeout:   cfg.PersistTimeout,
	}
	chatConfig := chat.DefaultConfig()
	chatConfig.RemoteTimeout = cfg.BackendTimeout

	// Each session owns its recognizer; recordings reach it through the inbox.
	newSession := func(uid string) (*handlers.Session, error) {
		inbox := speech.NewInboxEngine(speech.RemovingTranscriber(provider))
		recognizer := speech.NewRecognizer(inbox, logger)

		factory := func(observer pipeline.Observer) (chat.Pipeline, error) {
			return pipeline.NewService(pipeline.Dependencies{
				Identifier: identifier,
				Translator: provider,
				Recognizer: recognizer,
				Cities:     cities,
				Store:      api,
				Observer:   observer,
			}, pipelineConfig, logger)
		}

		vm, err := chat.NewViewModel(uid, chat.Dependencies{
			Backend:    api,
			Users:      userRepo,
			Recognizer: recognizer,
			Pipeline:   factory,
		}, chatConfig, logger)
		if err != nil {
			_ = recognizer.Close()
			return nil, err
		}
		return &handlers.Session{ViewModel: vm, Audio: inbox}, nil
	}

	sessions := handlers.NewSessionRegistry(newSession, logger)
	if cfg.SessionIdleTimeout > 0 && cfg.SessionReapInterval > 0 {
		if err := sessions.StartReaper(cfg.SessionReapInterval, cfg.SessionIdleTimeout); err != nil {
			log.Fatalf("FATAL: Failed to start session reaper: %v", err)
		}
	}

	messageLimiter := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultMessageConfig())
	sessionLimiter := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultSessionConfig())
	defer messageLimiter.Close()
	defer sessionLimiter.Close()

	secret := []byte(cfg.JWTSecretKey)
	if len(secret) == 0 {
		logger.Warn("JWT_SECRET_KEY not set, using an ephemeral key; tokens will not survive restarts")
		secret = []byte(uuid.NewString())
	}

	// --- Router Setup ---
	router := handlers.NewRouter(handlers.RouterConfig{
		Sessions:       sessions,
		Users:          api,
		JWTSecret:      secret,
		TokenTTL:       cfg.TokenTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		SpeechInputDir: cfg.SpeechInputDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		MessageLimiter: messageLimiter,
		SessionLimiter: sessionLimiter,
		Logger:         logger,
	})

	// --- Server Configuration ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("server starting",
		"port", cfg.ServerPort,
		"backend", cfg.BackendBaseURL,
		"languages", len(cfg.SupportedLanguages),
		"location_permission", cfg.LocationPermission)

	// --- Start Server in Goroutine ---
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := sessions.Close(); err != nil {
		logger.Error("error closing sessions", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server stopped gracefully")
}
