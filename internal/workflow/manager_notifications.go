package workflow

import (
	"context"
	"slices"
)

const subscriberBuffer = 16

type subscriber struct {
	ch chan Event
}

// offer delivers ev, discarding the oldest buffered event when the reader
// has fallen behind. Only the dispatcher sends, so the retry cannot block.
func (s *subscriber) offer(ev Event) {
	select {
	case s.ch <- ev:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// Subscribe streams events of the latest run, starting with the current
// state. The channel closes when ctx ends or the manager closes.
func (m *Manager) Subscribe(ctx context.Context) <-chan Event {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	m.dispatchMu.Lock()
	m.mu.Lock()
	closed := m.closed
	current := m.current
	m.mu.Unlock()
	if closed {
		m.dispatchMu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	sub.ch <- current
	m.subscribers[sub] = struct{}{}
	m.dispatchMu.Unlock()

	context.AfterFunc(ctx, func() { m.unsubscribe(sub) })
	return sub.ch
}

// AddObserver registers o for subsequent events. The returned function
// removes it.
func (m *Manager) AddObserver(o Observer) func() {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	m.observers = append(m.observers, o)
	return func() {
		m.dispatchMu.Lock()
		defer m.dispatchMu.Unlock()
		if i := slices.Index(m.observers, o); i >= 0 {
			m.observers = slices.Delete(m.observers, i, i+1)
		}
	}
}

func (m *Manager) unsubscribe(sub *subscriber) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	if _, ok := m.subscribers[sub]; ok {
		delete(m.subscribers, sub)
		close(sub.ch)
	}
}

func (m *Manager) closeSubscribers() {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	for sub := range m.subscribers {
		delete(m.subscribers, sub)
		close(sub.ch)
	}
}

// emit publishes ev if it belongs to the latest generation. The generation
// check and the state update happen under one lock, and delivery is
// serialized, so observers see each run's events in order and never see an
// older run after a newer one started.
func (m *Manager) emit(ev Event) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if ev.Generation != m.generation {
		latest := m.generation
		m.mu.Unlock()
		m.logDropped(ev, latest)
		return
	}
	m.current = ev
	if ev.State.Terminal() {
		m.terminal = append(m.terminal, ev)
		if len(m.terminal) > recentTerminalEvents {
			m.terminal = m.terminal[len(m.terminal)-recentTerminalEvents:]
		}
	}
	m.cond.Broadcast()
	m.mu.Unlock()

	for _, o := range m.observers {
		o.Observe(ev)
	}
	for sub := range m.subscribers {
		sub.offer(ev)
	}
}
