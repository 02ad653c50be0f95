// File: internal/services/pipeline/config.go
package pipeline

import (
	"fmt"
	"time"

	"github.com/iyunix/go-lingochat/internal/domain"
)

// Config holds per-step timeouts. A zero timeout leaves the step unbounded.
type Config struct {
	DefaultLanguage string

	IdentifyTimeout  time.Duration
	ModelTimeout     time.Duration
	TranslateTimeout time.Duration
	PersistTimeout   time.Duration
}

func (c *Config) Validate() error {
	if c.DefaultLanguage == "" {
		return fmt.Errorf("default language is required")
	}
	for name, d := range map[string]time.Duration{
		"identify":  c.IdentifyTimeout,
		"model":     c.ModelTimeout,
		"translate": c.TranslateTimeout,
		"persist":   c.PersistTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s timeout must not be negative", name)
		}
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		DefaultLanguage: domain.DefaultTargetLanguage,
		PersistTimeout:  30 * time.Second,
	}
}
