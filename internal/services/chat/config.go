// File: internal/services/chat/config.go
package chat

import (
	"fmt"
	"time"
)

type Config struct {
	// RemoteTimeout bounds each backend call made by a command; zero disables it.
	RemoteTimeout time.Duration
	// UpdateBuffer is the per-subscriber channel size of the update hub.
	UpdateBuffer int
	// RecognitionTimeout bounds standalone speech recognition; zero disables it.
	RecognitionTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.RemoteTimeout < 0 {
		return fmt.Errorf("remote timeout must not be negative")
	}
	if c.UpdateBuffer <= 0 {
		return fmt.Errorf("update buffer must be positive")
	}
	if c.RecognitionTimeout < 0 {
		return fmt.Errorf("recognition timeout must not be negative")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		RemoteTimeout:      30 * time.Second,
		UpdateBuffer:       64,
		RecognitionTimeout: 0,
	}
}
