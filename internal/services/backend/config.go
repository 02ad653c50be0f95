// File: internal/services/backend/config.go
package backend

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// AuthToken is sent as a bearer token when set.
	AuthToken string
	// Retry applies to GET requests only; nil means a single attempt.
	Retry *RetryConfig
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid backend base url: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Retry:   DefaultRetryConfig(),
	}
}
