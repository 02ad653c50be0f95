// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"time"
)

type Config struct {
	APIKey  string
	BaseURL string

	LanguageIDModel    string
	TranslationModel   string
	TranscriptionModel string

	// Supported lists the language codes the translator accepts.
	Supported []string

	Timeout     time.Duration
	Temperature float32
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("AI_API_KEY is required")
	}
	if c.LanguageIDModel == "" {
		return fmt.Errorf("language identification model is required")
	}
	if c.TranslationModel == "" {
		return fmt.Errorf("translation model is required")
	}
	if len(c.Supported) == 0 {
		return fmt.Errorf("at least one supported language is required")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		LanguageIDModel:    "gpt-4o-mini",
		TranslationModel:   "gpt-4o-mini",
		TranscriptionModel: "whisper-1",
		Supported:          []string{"en"},
		Timeout:            2 * time.Minute,
		Temperature:        0,
	}
}
