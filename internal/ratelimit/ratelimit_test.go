package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg *Config) (*MemoryRateLimiter, *time.Time) {
	t.Helper()
	require.NoError(t, cfg.Validate())
	limiter := NewMemoryRateLimiter(cfg)
	t.Cleanup(limiter.Close)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestAllowWithinWindow(t *testing.T) {
	limiter, now := newTestLimiter(t, &Config{WindowSize: time.Minute, MaxRequests: 2, CleanupPeriod: time.Hour})

	ok, info := limiter.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, info.Remaining)

	ok, _ = limiter.Allow("a")
	assert.True(t, ok)

	ok, info = limiter.Allow("a")
	assert.False(t, ok)
	assert.False(t, info.Blocked)
	assert.Equal(t, time.Minute, info.RetryAfter)

	ok, _ = limiter.Allow("b")
	assert.True(t, ok)

	*now = now.Add(2 * time.Minute)
	ok, _ = limiter.Allow("a")
	assert.True(t, ok)
}

func TestBlockAfterLimit(t *testing.T) {
	limiter, now := newTestLimiter(t, &Config{WindowSize: time.Minute, MaxRequests: 1, CleanupPeriod: time.Hour, BlockDuration: 5 * time.Minute})

	ok, _ := limiter.Allow("a")
	require.True(t, ok)

	ok, info := limiter.Allow("a")
	assert.False(t, ok)
	assert.True(t, info.Blocked)

	*now = now.Add(3 * time.Minute)
	ok, info = limiter.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 2*time.Minute, info.RetryAfter)

	*now = now.Add(3 * time.Minute)
	ok, _ = limiter.Allow("a")
	assert.True(t, ok)
}

func TestResetAndCleanup(t *testing.T) {
	limiter, now := newTestLimiter(t, &Config{WindowSize: time.Minute, MaxRequests: 1, CleanupPeriod: time.Hour})

	limiter.Allow("a")
	limiter.Reset("a")
	ok, _ := limiter.Allow("a")
	assert.True(t, ok)

	*now = now.Add(2 * time.Minute)
	limiter.cleanup()
	assert.Empty(t, limiter.records)
	limiter.Close()
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.3")
	assert.Equal(t, "203.0.113.5", GetClientIP(r))
}
