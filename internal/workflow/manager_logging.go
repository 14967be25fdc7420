package workflow

import (
	"context"

	"mangashelf/internal/logging"
)

func (m *Manager) logSuperseded(ctx context.Context, stage State) {
	logging.WithContext(ctx, m.logger).Debug("recognition run superseded",
		logging.String(logging.FieldEventType, "run_superseded"),
		logging.String(logging.FieldStage, string(stage)),
	)
}

func (m *Manager) logDropped(ev Event, latest uint64) {
	m.logger.Debug("stale event dropped",
		logging.String(logging.FieldEventType, "event_dropped"),
		logging.Generation(ev.Generation),
		logging.Uint64("latest_generation", latest),
		logging.String("state", string(ev.State)),
	)
}
