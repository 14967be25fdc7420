package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mangashelf/internal/config"
	"mangashelf/internal/document"
	"mangashelf/internal/testsupport"
)

func healthServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": `{"ok":true}`},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckLLM(t *testing.T) {
	tests := []struct {
		name   string
		status int
		key    string
		want   bool
	}{
		{name: "reachable", status: http.StatusOK, key: "k", want: true},
		{name: "unauthorized", status: http.StatusUnauthorized, key: "bad", want: false},
		{name: "missing key", status: http.StatusOK, key: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := healthServer(t, tt.status)
			result := CheckLLM(context.Background(), "LLM", config.LLMConfig{APIKey: tt.key, BaseURL: srv.URL, Model: "m"})
			if result.Passed != tt.want {
				t.Fatalf("passed = %v, want %v (%s)", result.Passed, tt.want, result.Detail)
			}
		})
	}
}

func TestCheckGeminiRequiresKey(t *testing.T) {
	cfg := config.Default()
	cfg.Recognition.GeminiAPIKey = ""
	if result := CheckGemini(context.Background(), &cfg); result.Passed {
		t.Fatal("expected failure without key")
	}
}

func TestCheckDocument(t *testing.T) {
	ok := document.IntrospectorFunc(func(context.Context, string) (int, error) { return 12, nil })
	if result := CheckDocument(context.Background(), ok, "vol1.pdf"); !result.Passed {
		t.Fatalf("expected pass: %s", result.Detail)
	}
	broken := document.IntrospectorFunc(func(context.Context, string) (int, error) { return 0, errors.New("corrupt") })
	if result := CheckDocument(context.Background(), broken, "vol1.pdf"); result.Passed {
		t.Fatal("expected failure for corrupt document")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_OfflineConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := RunAll(context.Background(), cfg, Options{SkipNetwork: true})
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if Failed(results) {
		t.Fatal("Failed reported a failure")
	}
}

func TestRunAll_ChecksDistinctTranslationEndpoint(t *testing.T) {
	srv := healthServer(t, http.StatusOK)
	cfg := testsupport.NewConfig(t, testsupport.WithLLMEndpoint(srv.URL))
	cfg.Translation.Model = "translator-model"

	results := RunAll(context.Background(), cfg, Options{})
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if !names["Recognition LLM"] || !names["Translation LLM"] {
		t.Fatalf("expected both LLM checks, got %v", names)
	}
}
