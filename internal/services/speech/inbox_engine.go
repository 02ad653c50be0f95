package speech

import (
	"context"
	"errors"
	"os"
	"sync"
)

// Transcriber turns a recorded audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// TranscribeFunc adapts a function to Transcriber.
type TranscribeFunc func(ctx context.Context, audioPath string) (string, error)

func (f TranscribeFunc) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f(ctx, audioPath)
}

// RemovingTranscriber deletes each recording once t has processed it.
func RemovingTranscriber(t Transcriber) Transcriber {
	return TranscribeFunc(func(ctx context.Context, audioPath string) (string, error) {
		defer os.Remove(audioPath)
		return t.Transcribe(ctx, audioPath)
	})
}

// InboxEngine is an Engine fed with recordings uploaded by the client.
// A session waits for the next recording, transcribes it and reports the
// transcript; stopping without a recording reports ErrorNoMatch.
type InboxEngine struct {
	transcriber Transcriber
	recordings  chan string

	mu      sync.Mutex
	session *inboxSession
}

type inboxSession struct {
	ctx      context.Context
	cancel   context.CancelFunc
	stop     chan struct{}
	stopOnce sync.Once
}

func NewInboxEngine(transcriber Transcriber) *InboxEngine {
	return &InboxEngine{
		transcriber: transcriber,
		recordings:  make(chan string, 1),
	}
}

// Submit hands a recording to the engine. Only one recording may wait.
func (e *InboxEngine) Submit(audioPath string) error {
	select {
	case e.recordings <- audioPath:
		return nil
	default:
		return errors.New("a recording is already waiting to be transcribed")
	}
}

func (e *InboxEngine) Start(l Listener) error {
	ctx, cancel := context.WithCancel(context.Background())
	s := &inboxSession{ctx: ctx, cancel: cancel, stop: make(chan struct{})}

	e.mu.Lock()
	if e.session != nil {
		e.mu.Unlock()
		cancel()
		return &RecognitionError{Code: ErrorBusy}
	}
	e.session = s
	e.mu.Unlock()

	go e.run(s, l)
	return nil
}

func (e *InboxEngine) run(s *inboxSession, l Listener) {
	defer e.finish(s)

	select {
	case path := <-e.recordings:
		text, err := e.transcriber.Transcribe(s.ctx, path)
		if err != nil {
			if s.ctx.Err() != nil {
				l.OnError(ErrorClient)
				return
			}
			l.OnError(ErrorServer)
			return
		}
		l.OnResults([]string{text})
	case <-s.stop:
		l.OnError(ErrorNoMatch)
	case <-s.ctx.Done():
		l.OnError(ErrorClient)
	}
}

func (e *InboxEngine) finish(s *inboxSession) {
	s.cancel()
	e.mu.Lock()
	if e.session == s {
		e.session = nil
	}
	e.mu.Unlock()
}

func (e *InboxEngine) current() *inboxSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

func (e *InboxEngine) Stop() {
	if s := e.current(); s != nil {
		s.stopOnce.Do(func() { close(s.stop) })
	}
}

func (e *InboxEngine) Cancel() {
	if s := e.current(); s != nil {
		s.cancel()
	}
}

func (e *InboxEngine) Destroy() {
	e.Cancel()
	for {
		select {
		case <-e.recordings:
		default:
			return
		}
	}
}
