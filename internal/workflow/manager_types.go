package workflow

import (
	"context"
	"time"

	"mangashelf/internal/language"
	"mangashelf/internal/library"
	"mangashelf/internal/recognition"
	"mangashelf/internal/translation"
)

// State is a pipeline state.
type State string

const (
	StateIdle              State = "idle"
	StateRecognizing       State = "recognizing"
	StateLanguageDetecting State = "language_detecting"
	StateTranslating       State = "translating"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Submission requests recognition and translation of one page image.
type Submission struct {
	ImageRef string
}

// Ticket identifies an accepted submission.
type Ticket struct {
	Generation  uint64
	RequestID   string
	SubmittedAt time.Time
}

// Event reports a state transition of the latest run.
type Event struct {
	Generation     uint64    `json:"generation"`
	State          State     `json:"state"`
	ImageRef       string    `json:"image_ref,omitempty"`
	RecognizedText string    `json:"recognized_text,omitempty"`
	TranslatedText string    `json:"translated_text,omitempty"`
	SourceLanguage string    `json:"source_language,omitempty"`
	TargetLanguage string    `json:"target_language,omitempty"`
	// DetectedLanguage is the detector's raw answer; SourceLanguage differs
	// from it when the default source language was used instead.
	DetectedLanguage string    `json:"detected_language,omitempty"`
	UsedFallback     bool      `json:"used_fallback,omitempty"`
	HistoryID        string    `json:"history_id,omitempty"`
	FailureKind      string    `json:"failure_kind,omitempty"`
	FailureMessage   string    `json:"failure_message,omitempty"`
	At               time.Time `json:"at"`
}

// Observer receives events for the latest run in order. Observe must not
// block for long; it runs on the pipeline's dispatch path.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(ev Event) { f(ev) }

// HistoryWriter persists completed runs.
type HistoryWriter interface {
	InsertHistory(ctx context.Context, record *library.HistoryRecord) error
}

// TranslatorSource hands out prepared translators.
type TranslatorSource interface {
	Get(ctx context.Context, pair translation.Pair) (translation.Resource, error)
}

// Engine bundles the collaborators a run calls.
type Engine struct {
	Recognizer     recognition.Recognizer
	Detector       language.Detector
	Resolver       *language.Resolver
	Translators    TranslatorSource
	TargetLanguage string
}
