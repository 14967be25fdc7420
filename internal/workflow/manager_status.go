package workflow

import (
	"context"
	"fmt"

	"mangashelf/internal/services"
)

// State returns the latest run's state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.State
}

// Current returns the latest published event.
func (m *Manager) Current() Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Generation returns the generation of the latest submission.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Wait blocks until the ticket's run reaches Completed or Failed and returns
// that event. It returns ErrSuperseded if a newer submission replaced the run
// first.
func (m *Manager) Wait(ctx context.Context, ticket Ticket) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket.Generation == 0 || ticket.Generation > m.generation {
		return Event{}, services.Wrap(services.ErrValidation, "workflow", "wait",
			fmt.Sprintf("unknown generation %d", ticket.Generation), nil)
	}

	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer stop()

	for {
		if ev, ok := m.terminalFor(ticket.Generation); ok {
			return ev, nil
		}
		if m.generation > ticket.Generation {
			return Event{}, ErrSuperseded
		}
		if m.closed {
			return Event{}, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}
		m.cond.Wait()
	}
}

func (m *Manager) terminalFor(generation uint64) (Event, bool) {
	for i := len(m.terminal) - 1; i >= 0; i-- {
		if m.terminal[i].Generation == generation {
			return m.terminal[i], true
		}
	}
	return Event{}, false
}
