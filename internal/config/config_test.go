package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "production") // skip .env lookup
	t.Setenv("BACKEND_BASE_URL", "https://chat.example.com")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("AI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Equal(t, time.Duration(0), cfg.IdentifyTimeout)
	assert.Contains(t, cfg.SupportedLanguages, "it")
	assert.False(t, cfg.LocationPermission)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestValidateRequiresBackendURL(t *testing.T) {
	cfg := &Config{DefaultLanguage: "en", BackendTimeout: time.Second, GeocoderBaseURL: "https://geo.example.com"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BackendBaseURL")
}

func TestValidateProductionSecrets(t *testing.T) {
	cfg := &Config{
		Environment:     "production",
		BackendBaseURL:  "https://chat.example.com",
		BackendTimeout:  time.Second,
		DefaultLanguage: "en",
		GeocoderBaseURL: "https://geo.example.com",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
	assert.Contains(t, err.Error(), "AI_API_KEY")
}
