package services

import "context"

type contextKey string

const (
	itemIDKey     contextKey = "item_id"
	unitIDKey     contextKey = "unit_id"
	generationKey contextKey = "run_generation"
	stageKey      contextKey = "stage"
	requestIDKey  contextKey = "request_id"
)

// WithItemID annotates context with the library item identifier.
func WithItemID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext extracts the library item identifier if present.
func ItemIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(itemIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUnitID annotates context with the content unit identifier.
func WithUnitID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, unitIDKey, id)
}

// UnitIDFromContext extracts the content unit identifier if present.
func UnitIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(unitIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithGeneration annotates context with a recognition run generation.
func WithGeneration(ctx context.Context, generation uint64) context.Context {
	return context.WithValue(ctx, generationKey, generation)
}

// GenerationFromContext returns the recognition run generation if present.
func GenerationFromContext(ctx context.Context) (uint64, bool) {
	v, ok := ctx.Value(generationKey).(uint64)
	return v, ok
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
