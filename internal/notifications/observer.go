package notifications

import (
	"context"
	"log/slog"
	"sync"

	"mangashelf/internal/logging"
	"mangashelf/internal/workflow"
)

// Observer forwards terminal workflow events to a Service. Delivery runs on
// its own goroutines so the workflow dispatch path never waits on ntfy.
type Observer struct {
	svc         Service
	completions bool
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewObserver returns an Observer. Failed runs are always forwarded;
// completed runs only when completions is true.
func NewObserver(svc Service, completions bool, logger *slog.Logger) *Observer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Observer{
		svc:         svc,
		completions: completions,
		logger:      logging.NewComponentLogger(logger, "notifications"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Observe implements workflow.Observer.
func (o *Observer) Observe(ev workflow.Event) {
	if o == nil || o.svc == nil {
		return
	}
	var send func(context.Context, Run) error
	switch {
	case ev.State == workflow.StateFailed:
		send = o.svc.NotifyRunFailed
	case ev.State == workflow.StateCompleted && o.completions:
		send = o.svc.NotifyRunCompleted
	default:
		return
	}
	run := Run{
		ImageRef:       ev.ImageRef,
		SourceLanguage: ev.SourceLanguage,
		TargetLanguage: ev.TargetLanguage,
		TranslatedText: ev.TranslatedText,
		FailureKind:    ev.FailureKind,
		FailureMessage: ev.FailureMessage,
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := send(o.ctx, run); err != nil && o.ctx.Err() == nil {
			logging.WarnWithContext(o.logger, "notification failed", "notification_failed",
				logging.Generation(ev.Generation),
				logging.String("state", string(ev.State)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
				logging.String(logging.FieldImpact, "run result was not pushed"),
			)
		}
	}()
}

// Close waits for in-flight notifications. Sends still pending when ctx ends
// are abandoned.
func (o *Observer) Close(ctx context.Context) {
	if o == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		o.cancel()
		<-done
	}
	o.cancel()
}
