package workflow

import (
	"context"
	"fmt"

	"mangashelf/internal/logging"
	"mangashelf/internal/services"
)

// failureText gives observers a readable reason for each failure kind.
var failureText = map[string]string{
	"recognition_failure":        "could not recognize text in the image",
	"language_detection_failure": "could not determine the text language",
	"translation_failure":        "could not translate the recognized text",
	"model_unavailable":          "translation model could not be prepared",
	"storage_write_failure":      "could not save the result to history",
	"permission_denied":          "the image is no longer readable",
	"transient":                  "the run could not be scheduled",
}

func describeFailure(err error) (kind, message string) {
	kind = services.Kind(err)
	text, ok := failureText[kind]
	if !ok {
		text = "recognition run failed"
	}
	return kind, fmt.Sprintf("%s: %v", text, err)
}

// fail ends the run in Failed unless the error is the run's own
// cancellation, which only means a newer submission took over.
func (m *Manager) fail(ctx context.Context, ev Event, stage State, err error) {
	if isCancellation(ctx, err) {
		m.logSuperseded(ctx, stage)
		return
	}
	kind, message := describeFailure(err)
	ev.FailureKind = kind
	ev.FailureMessage = message

	m.setLastError(err)
	logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "recognition run failed", "run_failed",
		logging.String(logging.FieldStage, string(stage)),
		logging.String("failure_kind", kind),
		logging.String(logging.FieldErrorHint, failureHint(kind)),
		logging.Error(err),
	)
	m.emit(withState(ev, StateFailed))
}

func failureHint(kind string) string {
	switch kind {
	case "model_unavailable":
		return "check the translation model settings and LLM connectivity"
	case "recognition_failure":
		return "check the recognition provider settings and that the file is an image"
	case "permission_denied":
		return "make sure the image still exists and is readable"
	case "storage_write_failure":
		return "check free disk space and permissions on the data directory"
	default:
		return "rerun with --log-level debug for details"
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// LastError returns the most recent run failure, or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}
