package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"mangashelf/internal/language"
	"mangashelf/internal/library"
	"mangashelf/internal/logging"
	"mangashelf/internal/services"
	"mangashelf/internal/textutil"
	"mangashelf/internal/translation"
)

// Submit starts a run for sub and returns without waiting for it. Any run
// still in flight is canceled and its later events are suppressed.
func (m *Manager) Submit(ctx context.Context, sub Submission) (Ticket, error) {
	ref := strings.TrimSpace(sub.ImageRef)
	if ref == "" {
		return Ticket{}, services.Wrap(services.ErrValidation, "workflow", "submit", "image reference is empty", nil)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Ticket{}, ErrClosed
	}
	m.generation++
	ticket := Ticket{
		Generation:  m.generation,
		RequestID:   uuid.NewString(),
		SubmittedAt: time.Now().UTC(),
	}
	if m.cancelRun != nil {
		m.cancelRun()
	}
	runCtx, cancel := context.WithCancel(m.baseCtx)
	m.cancelRun = cancel
	m.cond.Broadcast()
	m.mu.Unlock()

	runCtx = services.WithGeneration(runCtx, ticket.Generation)
	runCtx = services.WithRequestID(runCtx, ticket.RequestID)

	logging.WithContext(runCtx, m.logger).Info("recognition run submitted",
		logging.String(logging.FieldEventType, "run_submitted"),
		logging.String("image_ref", ref),
	)

	err := m.pool.Submit(ctx, func(context.Context) {
		m.run(runCtx, ticket, ref)
	})
	if err != nil {
		cancel()
		err = services.Wrap(services.ErrTransient, "workflow", "submit", "run was not scheduled", err)
		m.unscheduled(runCtx, ticket, ref, err)
		return Ticket{}, err
	}
	return ticket, nil
}

// unscheduled settles a generation whose run never reached the pool. The
// previous run is already canceled, so without this the latest state would
// stay on that run's last event.
func (m *Manager) unscheduled(ctx context.Context, ticket Ticket, ref string, err error) {
	base := Event{
		Generation:     ticket.Generation,
		ImageRef:       ref,
		TargetLanguage: m.engine.TargetLanguage,
	}
	failed := base
	failed.FailureKind, failed.FailureMessage = describeFailure(err)
	m.setLastError(err)
	logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "recognition run not scheduled", "run_failed",
		logging.String("failure_kind", failed.FailureKind),
		logging.String(logging.FieldErrorHint, "retry the submission"),
		logging.Error(err),
	)
	m.emit(withState(failed, StateFailed))
	m.emit(withState(base, StateIdle))
}

// run drives one generation through the pipeline. Events are tagged with the
// generation; emit drops them once a newer submission exists.
func (m *Manager) run(ctx context.Context, ticket Ticket, ref string) {
	if ctx.Err() != nil {
		m.logSuperseded(ctx, StateIdle)
		return
	}
	base := Event{
		Generation:     ticket.Generation,
		ImageRef:       ref,
		TargetLanguage: m.engine.TargetLanguage,
	}
	defer m.emit(withState(base, StateIdle))

	// Recognizing
	m.emit(withState(base, StateRecognizing))
	recognized, err := m.recognize(ctx, ref)
	if err != nil {
		m.fail(ctx, base, StateRecognizing, err)
		return
	}
	base.RecognizedText = recognized

	if textutil.IsBlank(recognized) {
		base.RecognizedText = ""
		m.complete(ctx, ticket, base)
		return
	}

	// LanguageDetecting
	m.emit(withState(base, StateLanguageDetecting))
	detected, source, fallback, err := m.detect(ctx, recognized)
	if err != nil {
		m.fail(ctx, base, StateLanguageDetecting, err)
		return
	}
	base.DetectedLanguage = detected
	base.SourceLanguage = source
	base.UsedFallback = fallback

	// Translating
	m.emit(withState(base, StateTranslating))
	translated, err := m.translate(ctx, source, recognized)
	if err != nil {
		m.fail(ctx, base, StateTranslating, err)
		return
	}
	base.TranslatedText = translated

	m.complete(ctx, ticket, base)
}

func (m *Manager) recognize(ctx context.Context, ref string) (string, error) {
	start := time.Now()
	stageCtx := services.WithStage(ctx, string(StateRecognizing))
	text, err := m.engine.Recognizer.Recognize(stageCtx, ref)
	if err != nil {
		return "", err
	}
	text = textutil.NormalizeRecognized(text)
	logging.WithContext(stageCtx, m.logger).Info("text recognized",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("runes", len([]rune(text))),
		logging.Duration("duration", time.Since(start)),
	)
	return text, nil
}

// detect returns the raw detection, the resolved source language, and
// whether the default source language was substituted. Detector errors are
// recovered; only cancellation is returned.
func (m *Manager) detect(ctx context.Context, text string) (string, string, bool, error) {
	stageCtx := services.WithStage(ctx, string(StateLanguageDetecting))
	logger := logging.WithContext(stageCtx, m.logger)

	detected := language.Undetermined
	if m.engine.Detector != nil {
		code, err := m.engine.Detector.Detect(stageCtx, text)
		switch {
		case err != nil && ctx.Err() != nil:
			return "", "", false, ctx.Err()
		case err != nil:
			logging.WarnWithContext(logger, "language detection failed; using default source language", "language_detection_fallback",
				logging.String(logging.FieldErrorHint, "check the detector configuration or LLM connectivity"),
				logging.String(logging.FieldImpact, "text is translated from the default source language"),
				logging.String("fallback", m.engine.Resolver.Fallback()),
				logging.Error(err),
			)
		default:
			detected = code
		}
	}

	source, matched := m.engine.Resolver.Resolve(detected)
	if !matched {
		logger.Info("language undetermined or unsupported; using default source language",
			logging.String(logging.FieldEventType, "language_fallback"),
			logging.String("detected", detected),
			logging.String("source_language", source),
		)
	} else {
		logger.Info("language detected",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.String("source_language", source),
		)
	}
	return detected, source, !matched, nil
}

func (m *Manager) translate(ctx context.Context, source, text string) (string, error) {
	start := time.Now()
	stageCtx := services.WithStage(ctx, string(StateTranslating))
	pair := translation.Pair{Source: source, Target: m.engine.TargetLanguage}
	resource, err := m.engine.Translators.Get(stageCtx, pair)
	if err != nil {
		return "", err
	}
	translated, err := resource.Translate(stageCtx, text)
	if err != nil {
		return "", err
	}
	logging.WithContext(stageCtx, m.logger).Info("text translated",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("pair", pair.String()),
		logging.Duration("duration", time.Since(start)),
	)
	return translated, nil
}

// complete persists the run and reports Completed. Persistence ignores
// cancellation: a run that got this far is kept even when superseded.
func (m *Manager) complete(ctx context.Context, ticket Ticket, ev Event) {
	record := &library.HistoryRecord{
		SourceImageRef: ev.ImageRef,
		RecognizedText: ev.RecognizedText,
		TranslatedText: ev.TranslatedText,
		SourceLanguage: ev.SourceLanguage,
		TargetLanguage: ev.TargetLanguage,
		Timestamp:      ticket.SubmittedAt,
	}
	if m.history != nil {
		if err := m.history.InsertHistory(context.WithoutCancel(ctx), record); err != nil {
			m.fail(context.WithoutCancel(ctx), ev, StateCompleted, err)
			return
		}
		ev.HistoryID = record.ID
	}

	if ctx.Err() != nil {
		m.logSuperseded(ctx, StateCompleted)
	} else {
		logging.WithContext(ctx, m.logger).Info("recognition run completed",
			logging.String(logging.FieldEventType, "run_completed"),
			logging.String("history_id", ev.HistoryID),
			logging.String("source_language", ev.SourceLanguage),
			logging.Duration("elapsed", time.Since(ticket.SubmittedAt)),
		)
	}
	m.emit(withState(ev, StateCompleted))
}

func withState(ev Event, state State) Event {
	ev.State = state
	ev.At = time.Now().UTC()
	if state == StateIdle {
		return Event{Generation: ev.Generation, State: StateIdle, At: ev.At}
	}
	return ev
}

func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}
