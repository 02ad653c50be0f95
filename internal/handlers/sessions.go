// File: internal/handlers/sessions.go
package handlers

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/iyunix/go-lingochat/internal/services/chat"
)

// Logger defines the logging interface used by handlers
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

var ErrRegistryClosed = errors.New("session registry closed")

// AudioInbox accepts recordings uploaded for the session's recognizer.
type AudioInbox interface {
	Submit(audioPath string) error
}

// Session is the server side state of one logged in user.
type Session struct {
	ViewModel *chat.ViewModel
	Audio     AudioInbox

	lastSeen atomic.Int64
	streams  atomic.Int32
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// SessionFactory builds the session for uid.
type SessionFactory func(uid string) (*Session, error)

// SessionRegistry keeps one Session per uid and evicts idle ones.
type SessionRegistry struct {
	factory SessionFactory
	logger  Logger
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*Session
	closed    bool
	scheduler gocron.Scheduler
}

func NewSessionRegistry(factory SessionFactory, logger Logger) *SessionRegistry {
	return &SessionRegistry{
		factory:  factory,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for uid, creating it on first use.
func (r *SessionRegistry) Open(uid string) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false, ErrRegistryClosed
	}
	if s, ok := r.sessions[uid]; ok {
		s.touch(r.now())
		return s, false, nil
	}

	s, err := r.factory(uid)
	if err != nil {
		return nil, false, fmt.Errorf("creating session for %s: %w", uid, err)
	}
	s.touch(r.now())
	r.sessions[uid] = s
	r.logger.Info("session opened", "uid", uid, "active_sessions", len(r.sessions))
	return s, true, nil
}

// Get returns the existing session for uid and marks it active.
func (r *SessionRegistry) Get(uid string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[uid]
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Remove closes and forgets the session for uid.
func (r *SessionRegistry) Remove(uid string) error {
	r.mu.Lock()
	s, ok := r.sessions[uid]
	delete(r.sessions, uid)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.logger.Info("session closed", "uid", uid)
	return s.ViewModel.Close()
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes sessions without requests or open streams for maxIdle.
func (r *SessionRegistry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*Session
	for uid, s := range r.sessions {
		if s.streams.Load() > 0 || s.idleSince().After(cutoff) {
			continue
		}
		idle = append(idle, s)
		delete(r.sessions, uid)
	}
	r.mu.Unlock()

	for _, s := range idle {
		if err := s.ViewModel.Close(); err != nil {
			r.logger.Warn("error closing idle session", "uid", s.ViewModel.UserID(), "error", err)
		}
	}
	if len(idle) > 0 {
		r.logger.Info("idle sessions evicted", "count", len(idle))
	}
	return len(idle)
}

// StartReaper schedules EvictIdle every interval.
func (r *SessionRegistry) StartReaper(interval, maxIdle time.Duration) error {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(r.logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { r.EvictIdle(maxIdle) }),
		gocron.WithName("session-reaper"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule session reaper: %w", err)
	}

	r.mu.Lock()
	r.scheduler = s
	r.mu.Unlock()

	s.Start()
	r.logger.Info("session reaper scheduled", "interval", interval, "max_idle", maxIdle)
	return nil
}

// Close stops the reaper and closes every session.
func (r *SessionRegistry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	scheduler := r.scheduler
	r.mu.Unlock()

	var result *multierror.Error
	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to shutdown scheduler: %w", err))
		}
	}
	for uid, s := range sessions {
		if err := s.ViewModel.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing session %s: %w", uid, err))
		}
	}
	return result.ErrorOrNil()
}
