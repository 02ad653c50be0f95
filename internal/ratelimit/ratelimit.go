// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds rate limiting configuration
type Config struct {
	WindowSize    time.Duration // Time window for rate limiting
	MaxRequests   int           // Maximum requests per window
	CleanupPeriod time.Duration // How often to clean up old entries
	BlockDuration time.Duration // How long to block after exceeding the limit
}

func (c *Config) Validate() error {
	if c.WindowSize <= 0 || c.CleanupPeriod <= 0 {
		return fmt.Errorf("window size and cleanup period must be positive")
	}
	if c.MaxRequests <= 0 {
		return fmt.Errorf("max requests must be positive")
	}
	if c.BlockDuration < 0 {
		return fmt.Errorf("block duration must not be negative")
	}
	return nil
}

// DefaultMessageConfig limits message sends; each one costs translation calls.
func DefaultMessageConfig() *Config {
	return &Config{
		WindowSize:    time.Minute,
		MaxRequests:   30,
		CleanupPeriod: 10 * time.Minute,
		BlockDuration: 2 * time.Minute,
	}
}

// DefaultSessionConfig limits session logins and user creation.
func DefaultSessionConfig() *Config {
	return &Config{
		WindowSize:    15 * time.Minute,
		MaxRequests:   10,
		CleanupPeriod: 30 * time.Minute,
		BlockDuration: 15 * time.Minute,
	}
}

type record struct {
	count     int
	firstSeen time.Time
	blockedAt *time.Time
}

// Info describes the limiter state for one identifier.
type Info struct {
	Allowed    bool
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Blocked    bool
}

// MemoryRateLimiter is a fixed window limiter kept in process memory.
type MemoryRateLimiter struct {
	config  *Config
	records map[string]*record
	now     func() time.Time

	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	limiter := &MemoryRateLimiter{
		config:  config,
		records: make(map[string]*record),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go limiter.cleanupLoop()
	return limiter
}

// Limit is the configured number of requests per window.
func (rl *MemoryRateLimiter) Limit() int {
	return rl.config.MaxRequests
}

// Allow counts a request and reports whether it may proceed.
func (rl *MemoryRateLimiter) Allow(identifier string) (bool, *Info) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rec, ok := rl.records[identifier]

	if ok && rec.blockedAt != nil {
		if elapsed := now.Sub(*rec.blockedAt); elapsed < rl.config.BlockDuration {
			return false, &Info{
				ResetTime:  rec.blockedAt.Add(rl.config.BlockDuration),
				RetryAfter: rl.config.BlockDuration - elapsed,
				Blocked:    true,
			}
		}
		ok = false
	}

	if !ok || now.Sub(rec.firstSeen) > rl.config.WindowSize {
		rec = &record{count: 0, firstSeen: now}
		rl.records[identifier] = rec
	}

	rec.count++
	if rec.count > rl.config.MaxRequests {
		if rl.config.BlockDuration > 0 {
			blockedAt := now
			rec.blockedAt = &blockedAt
			return false, &Info{
				ResetTime:  now.Add(rl.config.BlockDuration),
				RetryAfter: rl.config.BlockDuration,
				Blocked:    true,
			}
		}
		reset := rec.firstSeen.Add(rl.config.WindowSize)
		return false, &Info{ResetTime: reset, RetryAfter: reset.Sub(now)}
	}

	return true, &Info{
		Allowed:   true,
		Remaining: rl.config.MaxRequests - rec.count,
		ResetTime: rec.firstSeen.Add(rl.config.WindowSize),
	}
}

// Reset forgets the identifier.
func (rl *MemoryRateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.records, identifier)
}

func (rl *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for identifier, rec := range rl.records {
		windowExpired := now.Sub(rec.firstSeen) > rl.config.WindowSize
		blockExpired := rec.blockedAt != nil && now.Sub(*rec.blockedAt) > rl.config.BlockDuration
		if (windowExpired && rec.blockedAt == nil) || blockExpired {
			delete(rl.records, identifier)
		}
	}
}

// Close stops the cleanup goroutine
func (rl *MemoryRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GetClientIP extracts the real client IP from request
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
