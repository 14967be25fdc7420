package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"mangashelf/internal/language"
	"mangashelf/internal/library"
	"mangashelf/internal/recognition"
	"mangashelf/internal/testsupport"
	"mangashelf/internal/translation"
	"mangashelf/internal/workflow"
)

const waitTimeout = 5 * time.Second

type translateFunc func(ctx context.Context, text string) (string, error)

func (f translateFunc) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// prefixTranslator tags output with the target language so tests can tell
// translated text apart.
func prefixTranslator() translation.Preparer {
	return translation.PreparerFunc(func(_ context.Context, pair translation.Pair) (translation.Resource, error) {
		return translateFunc(func(_ context.Context, text string) (string, error) {
			return pair.Target + ":" + text, nil
		}), nil
	})
}

// recognizeByRef returns canned text per image reference.
func recognizeByRef(texts map[string]string) recognition.Recognizer {
	return recognition.RecognizerFunc(func(_ context.Context, ref string) (string, error) {
		return texts[ref], nil
	})
}

func constantDetector(code string) language.Detector {
	return language.DetectorFunc(func(context.Context, string) (string, error) {
		return code, nil
	})
}

type harness struct {
	manager *workflow.Manager
	store   *library.Store
	events  *eventLog
}

func newHarness(t *testing.T, engine workflow.Engine, opts ...workflow.Option) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if engine.Resolver == nil {
		resolver, err := language.NewResolver([]string{"ja", "zh", "en"}, "en")
		if err != nil {
			t.Fatalf("NewResolver: %v", err)
		}
		engine.Resolver = resolver
	}
	if engine.TargetLanguage == "" {
		engine.TargetLanguage = "vi"
	}
	if engine.Translators == nil {
		engine.Translators = translation.NewCache(prefixTranslator(), nil)
	}

	events := &eventLog{}
	manager := workflow.New(engine, store, append([]workflow.Option{workflow.WithObserver(events)}, opts...)...)
	t.Cleanup(manager.Close)
	return &harness{manager: manager, store: store, events: events}
}

func (h *harness) submit(t *testing.T, ref string) workflow.Ticket {
	t.Helper()
	ticket, err := h.manager.Submit(context.Background(), workflow.Submission{ImageRef: ref})
	if err != nil {
		t.Fatalf("Submit(%q): %v", ref, err)
	}
	return ticket
}

func (h *harness) wait(t *testing.T, ticket workflow.Ticket) workflow.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	ev, err := h.manager.Wait(ctx, ticket)
	if err != nil {
		t.Fatalf("Wait(%d): %v", ticket.Generation, err)
	}
	return ev
}

func (h *harness) history(t *testing.T) []*library.HistoryRecord {
	t.Helper()
	records, err := h.store.ListHistory(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	return records
}

// waitForHistory polls until count records exist.
func (h *harness) waitForHistory(t *testing.T, count int) []*library.HistoryRecord {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for {
		records := h.history(t)
		if len(records) == count {
			return records
		}
		if time.Now().After(deadline) {
			t.Fatalf("history has %d records, want %d", len(records), count)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// waitForIdle polls until the manager reports idle for generation.
func (h *harness) waitForIdle(t *testing.T, generation uint64) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for {
		ev := h.manager.Current()
		if ev.Generation == generation && ev.State == workflow.StateIdle {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("manager did not return to idle: %+v", ev)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (l *eventLog) Observe(ev workflow.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) snapshot() []workflow.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]workflow.Event(nil), l.events...)
}

func (l *eventLog) states(generation uint64) []workflow.State {
	var states []workflow.State
	for _, ev := range l.snapshot() {
		if ev.Generation == generation {
			states = append(states, ev.State)
		}
	}
	return states
}
