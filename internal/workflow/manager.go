package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"mangashelf/internal/logging"
	"mangashelf/internal/workpool"
)

// ErrSuperseded is returned by Wait when a newer submission replaced the
// awaited run before it finished.
var ErrSuperseded = errors.New("run superseded by a newer submission")

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("workflow manager closed")

const recentTerminalEvents = 16

// Manager coordinates recognition-translation runs.
type Manager struct {
	engine   Engine
	history  HistoryWriter
	pool     *workpool.Pool
	ownsPool bool
	logger   *slog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	cond       *sync.Cond
	generation uint64
	cancelRun  context.CancelFunc
	current    Event
	terminal   []Event
	closed     bool
	lastErr    error

	dispatchMu  sync.Mutex
	observers   []Observer
	subscribers map[*subscriber]struct{}
}

// Option configures optional Manager behavior.
type Option func(*Manager)

// WithPool runs pipeline work on pool instead of a private one.
func WithPool(pool *workpool.Pool) Option {
	return func(m *Manager) {
		if pool != nil {
			m.pool = pool
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logging.NewComponentLogger(logger, "workflow")
		}
	}
}

// WithObserver registers an observer at construction.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// New constructs a manager. Without WithPool it owns a two-worker pool so a
// new run never waits behind a canceled one.
func New(engine Engine, history HistoryWriter, opts ...Option) *Manager {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	m := &Manager{
		engine:      engine,
		history:     history,
		logger:      logging.NewComponentLogger(nil, "workflow"),
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
		current:     Event{State: StateIdle},
		subscribers: make(map[*subscriber]struct{}),
	}
	m.cond = sync.NewCond(&m.mu)
	for _, opt := range opts {
		opt(m)
	}
	if m.pool == nil {
		m.pool = workpool.New("recognition", 2, 0, m.logger)
		m.ownsPool = true
	}
	return m
}

// Close cancels the active run, ends subscriptions, and releases a privately
// owned pool. History writes already underway still finish.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.cancelRun != nil {
		m.cancelRun()
	}
	m.cond.Broadcast()
	m.mu.Unlock()

	m.baseCancel()
	if m.ownsPool {
		m.pool.Close()
	}
	m.closeSubscribers()
}
