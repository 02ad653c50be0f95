// File: internal/services/pipeline/types.go
package pipeline

import "github.com/iyunix/go-lingochat/internal/domain"

type State string

const (
	StateRaw          State = "RAW"
	StateTranscribing State = "TRANSCRIBING"
	StateIdentifying  State = "IDENTIFYING"
	StateTranslating  State = "TRANSLATING"
	StateFallback     State = "FALLBACK"
	StateEnriched     State = "ENRICHED"
	StatePersisted    State = "PERSISTED"
	StateAborted      State = "ABORTED"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StatePersisted || s == StateAborted
}

// Notice is a short user facing hint attached to a result.
type Notice string

const (
	NoticeNone                  Notice = ""
	NoticeLanguageNotIdentified Notice = "language_not_identified"
	NoticeSpeechNotRecognized   Notice = "speech_not_recognized"
	NoticeIdentificationFailed  Notice = "identification_failed"
	NoticeTranslationFailed     Notice = "translation_failed"
	NoticeNoChat                Notice = "no_current_chat"
)

// Job is one message handed to the pipeline.
type Job struct {
	Message domain.Message
	// Kind overrides Message.Kind when set.
	Kind           domain.MessageKind
	TargetLanguage string
	// ChatID is the current chat; zero skips persistence.
	ChatID int64
}

type Result struct {
	Message        domain.Message
	State          State
	Notice         Notice
	Err            error
	Persisted      bool
	SourceLanguage string
	TargetLanguage string
}

// Event is emitted on each state transition of a message.
type Event struct {
	MessageID string
	State     State
	Message   domain.Message
	Notice    Notice
	Err       error
}
