// File: internal/services/pipeline/service.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iyunix/go-lingochat/internal/domain"
	"github.com/iyunix/go-lingochat/internal/services/backend"
	"github.com/iyunix/go-lingochat/internal/services/language"
)

// Dependencies are the capabilities a Service drives. Recognizer and
// Observer are optional.
type Dependencies struct {
	Identifier LanguageIdentifier
	Translator Translator
	Recognizer SpeechRecognizer
	Cities     CityResolver
	Store      MessageStore
	Observer   Observer
}

// Service runs the per-message transcribe, identify, translate, enrich and
// persist sequence. Messages are independent; Process is safe for
// concurrent use.
type Service struct {
	deps   Dependencies
	config *Config
	logger Logger

	downloadMu  sync.Mutex
	downloading int
}

func NewService(deps Dependencies, config *Config, logger Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	switch {
	case deps.Identifier == nil:
		return nil, errors.New("language identifier is required")
	case deps.Translator == nil:
		return nil, errors.New("translator is required")
	case deps.Cities == nil:
		return nil, errors.New("city resolver is required")
	case deps.Store == nil:
		return nil, errors.New("message store is required")
	}
	return &Service{deps: deps, config: config, logger: logger}, nil
}

// ModelDownloading reports whether any message is acquiring a translation model.
func (s *Service) ModelDownloading() bool {
	s.downloadMu.Lock()
	defer s.downloadMu.Unlock()
	return s.downloading > 0
}

// outcome is what the text branch hands back to Process.
type outcome struct {
	message     domain.Message
	translation string
	notice      Notice
	source      string
	target      string
}

// Process never returns an error; failures are reported through Result.
func (s *Service) Process(ctx context.Context, job Job) Result {
	msg := job.Message
	if job.Kind != "" {
		msg.Kind = job.Kind
	}
	log := []interface{}{"message_id", msg.ID, "kind", msg.Kind}

	if msg.IsTranslated() {
		return s.abort(msg, NoticeNone, stepError("start", msg.ID, ErrAlreadyProcessed, nil))
	}
	s.emit(msg, StateRaw, NoticeNone, nil)

	var (
		city string
		out  = outcome{message: msg}
	)

	// City lookup overlaps with the text branch and is cancelled if it aborts.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		city = s.deps.Cities.ResolveCity(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		out, err = s.translate(gctx, msg, job.TargetLanguage)
		return err
	})

	if err := g.Wait(); err != nil {
		notice := noticeFor(err)
		s.logger.Error("message pipeline aborted", append(log, "error", err)...)
		return s.abort(out.message, notice, err)
	}

	enriched, err := out.message.WithCity(city).WithTranslation(out.translation)
	if err != nil {
		return s.abort(out.message, NoticeNone, stepError("enrich", msg.ID, ErrAlreadyProcessed, err))
	}
	s.emit(enriched, StateEnriched, out.notice, nil)

	result := Result{
		Message:        enriched,
		State:          StateEnriched,
		Notice:         out.notice,
		SourceLanguage: out.source,
		TargetLanguage: out.target,
	}

	if job.ChatID == 0 {
		s.logger.Warn("no current chat, message not persisted", log...)
		if result.Notice == NoticeNone {
			result.Notice = NoticeNoChat
		}
		return result
	}

	if err := s.persist(ctx, enriched, job.ChatID); err != nil {
		// At most once: the enriched message stays visible, nothing is retried.
		s.logger.Error("failed to persist message", append(log, "chat_id", job.ChatID, "error", err)...)
		return result
	}

	result.State = StatePersisted
	result.Persisted = true
	s.emit(enriched, StatePersisted, result.Notice, nil)
	s.logger.Debug("message persisted", append(log, "chat_id", job.ChatID, "city", enriched.City)...)
	return result
}

func (s *Service) translate(ctx context.Context, msg domain.Message, target string) (outcome, error) {
	out := outcome{message: msg}

	if msg.Kind == domain.MessageKindAudio {
		s.emit(msg, StateTranscribing, NoticeNone, nil)
		transcript, err := s.transcribe(ctx, msg.ID)
		if err != nil {
			return out, err
		}
		msg = msg.WithTranscript(transcript)
		out.message = msg
	}

	text := msg.OriginalContent

	s.emit(msg, StateIdentifying, NoticeNone, nil)
	code, err := s.identify(ctx, text)
	if err != nil {
		return out, stepError("identify", msg.ID, ErrIdentification, err)
	}

	if code == language.Undetermined {
		s.logger.Info("language not identified, passing original through", "message_id", msg.ID)
		s.emit(msg, StateFallback, NoticeLanguageNotIdentified, nil)
		out.translation = text
		out.notice = NoticeLanguageNotIdentified
		return out, nil
	}

	s.emit(msg, StateTranslating, NoticeNone, nil)
	fallback := s.config.DefaultLanguage
	out.source = language.Resolve(code, s.deps.Translator.Supports, fallback)
	out.target = language.Resolve(target, s.deps.Translator.Supports, fallback)

	if out.source == out.target {
		out.translation = text
		return out, nil
	}

	if err := s.ensureModel(ctx, out.source, out.target); err != nil {
		return out, stepError("ensure_model", msg.ID, ErrTranslation, err)
	}

	tctx, cancel := withTimeout(ctx, s.config.TranslateTimeout)
	defer cancel()
	translated, err := s.deps.Translator.Translate(tctx, text, out.source, out.target)
	if err != nil {
		return out, stepError("translate", msg.ID, ErrTranslation, err)
	}

	out.translation = translated
	return out, nil
}

func (s *Service) transcribe(ctx context.Context, messageID string) (string, error) {
	if s.deps.Recognizer == nil {
		return "", stepError("transcribe", messageID, ErrTranscription, ErrRecognizerMissing)
	}
	transcript, err := s.deps.Recognizer.Listen(ctx)
	if err != nil {
		return "", stepError("transcribe", messageID, ErrTranscription, err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", stepError("transcribe", messageID, ErrEmptyTranscript, nil)
	}
	return transcript, nil
}

func (s *Service) identify(ctx context.Context, text string) (string, error) {
	ictx, cancel := withTimeout(ctx, s.config.IdentifyTimeout)
	defer cancel()

	code, err := s.deps.Identifier.Identify(ictx, text)
	if err != nil {
		return "", err
	}
	code = language.Normalize(code)
	if code == "" {
		return language.Undetermined, nil
	}
	return code, nil
}

func (s *Service) ensureModel(ctx context.Context, source, target string) error {
	s.setDownloading(1)
	defer s.setDownloading(-1)

	mctx, cancel := withTimeout(ctx, s.config.ModelTimeout)
	defer cancel()
	return s.deps.Translator.EnsureModel(mctx, source, target)
}

// setDownloading notifies the observer only when the first download starts
// or the last one ends.
func (s *Service) setDownloading(delta int) {
	s.downloadMu.Lock()
	defer s.downloadMu.Unlock()

	before := s.downloading > 0
	s.downloading += delta
	after := s.downloading > 0
	if before != after && s.deps.Observer != nil {
		s.deps.Observer.ModelDownloading(after)
	}
}

func (s *Service) persist(ctx context.Context, msg domain.Message, chatID int64) error {
	pctx, cancel := withTimeout(ctx, s.config.PersistTimeout)
	defer cancel()

	return s.deps.Store.AddMessage(pctx, backend.MessageBody{
		Message:     msg.OriginalContent,
		Translation: msg.TranslatedContent,
		City:        msg.City,
		ChatID:      chatID,
	})
}

func (s *Service) abort(msg domain.Message, notice Notice, err error) Result {
	s.emit(msg, StateAborted, notice, err)
	return Result{Message: msg, State: StateAborted, Notice: notice, Err: err}
}

func (s *Service) emit(msg domain.Message, state State, notice Notice, err error) {
	if s.deps.Observer == nil {
		return
	}
	s.deps.Observer.MessageUpdated(Event{
		MessageID: msg.ID,
		State:     state,
		Message:   msg,
		Notice:    notice,
		Err:       err,
	})
}

func noticeFor(err error) Notice {
	switch {
	case errors.Is(err, ErrEmptyTranscript), errors.Is(err, ErrTranscription):
		return NoticeSpeechNotRecognized
	case errors.Is(err, ErrIdentification):
		return NoticeIdentificationFailed
	case errors.Is(err, ErrTranslation):
		return NoticeTranslationFailed
	default:
		return NoticeNone
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
