package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"mangashelf/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("disk full")
	err := services.Wrap(services.ErrStorageWrite, "ingestion", "create item", "item \"Vol 1\" was not created", base)
	if !errors.Is(err, services.ErrStorageWrite) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ingestion", "create item", "was not created", "disk full"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("plain"), "unknown"},
		{services.Wrap(services.ErrInvalidBatchSize, "ingestion", "validate", "", nil), "invalid_batch_size"},
		{fmt.Errorf("outer: %w", services.ErrPermissionDenied), "permission_denied"},
		{services.Wrap(services.ErrTranslation, "translation", "prepare", "", services.ErrModelUnavailable), "model_unavailable"},
		{services.Wrap(services.ErrTranslation, "translation", "translate", "", errors.New("http 500")), "translation_failure"},
		{services.Wrap(services.ErrRecognition, "recognition", "ocr", "", nil), "recognition_failure"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
