package services_test

import (
	"context"
	"testing"

	"mangashelf/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithItemID(ctx, "01HZITEM")
	ctx = services.WithUnitID(ctx, "01HZUNIT")
	ctx = services.WithGeneration(ctx, 7)
	ctx = services.WithStage(ctx, "recognizing")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ItemIDFromContext(ctx); !ok || id != "01HZITEM" {
		t.Fatalf("unexpected item id: %v %v", id, ok)
	}
	if id, ok := services.UnitIDFromContext(ctx); !ok || id != "01HZUNIT" {
		t.Fatalf("unexpected unit id: %v %v", id, ok)
	}
	if gen, ok := services.GenerationFromContext(ctx); !ok || gen != 7 {
		t.Fatalf("unexpected generation: %v %v", gen, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "recognizing" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithItemID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("expected no item id")
	}
	if _, ok := services.GenerationFromContext(ctx); ok {
		t.Fatal("expected no generation")
	}
}
