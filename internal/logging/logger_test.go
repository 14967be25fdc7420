package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mangashelf/internal/config"
	"mangashelf/internal/logging"
	"mangashelf/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("library opened", logging.String("path", "/tmp/library.db"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"library opened"`) {
		t.Fatalf("expected JSON log line, got %q", content)
	}
}

func TestConsoleLoggerLiftsComponentAndItem(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "ingestion")
	logger.Info("unit appended", logging.ItemID("01ITEM"), logging.Int("pages", 3))

	line := buf.String()
	for _, fragment := range []string{"INFO", "ingestion: unit appended", "[item 01ITEM]", "pages=3"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source location at info level, got %q", line)
	}
}

func TestConsoleLoggerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Warn("recognition failed", logging.Error(errors.New("http 500: bad gateway")))
	if !strings.Contains(buf.String(), `error="http 500: bad gateway"`) {
		t.Fatalf("expected quoted error, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestAutoFormatUsesJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "auto", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello")
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if decoded["level"] != "info" || decoded["ts"] == nil {
		t.Fatalf("unexpected keys: %v", decoded)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := services.WithItemID(context.Background(), "01ITEM")
	ctx = services.WithGeneration(ctx, 4)
	ctx = services.WithStage(ctx, "translating")
	ctx = services.WithRequestID(ctx, "req-1")

	logging.WithContext(ctx, base).Info("stage started")

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded[logging.FieldItemID] != "01ITEM" || decoded[logging.FieldStage] != "translating" ||
		decoded[logging.FieldCorrelationID] != "req-1" || decoded[logging.FieldGeneration] != float64(4) {
		t.Fatalf("missing context fields: %v", decoded)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.WarnWithContext(logger, "page count unavailable", "introspection_fallback",
		logging.String(logging.FieldImpact, "document imported as a single page"))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded[logging.FieldEventType] != "introspection_fallback" {
		t.Fatalf("event_type = %v", decoded[logging.FieldEventType])
	}
	if decoded[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if decoded[logging.FieldImpact] != "document imported as a single page" {
		t.Fatalf("impact overwritten: %v", decoded[logging.FieldImpact])
	}
}
