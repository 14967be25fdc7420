package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mangashelf/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndReadsEnvKeys(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MANGASHELF_LLM_API_KEY", "llm-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "mangashelf")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "library.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.LLM.APIKey != "llm-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Recognition.GeminiAPIKey != "gemini-key" {
		t.Fatalf("expected Gemini key from env, got %q", cfg.Recognition.GeminiAPIKey)
	}
	if cfg.Library.MaxBatchSize != 25 {
		t.Fatalf("expected batch limit 25, got %d", cfg.Library.MaxBatchSize)
	}
	if cfg.Translation.TargetLanguage != "vi" {
		t.Fatalf("expected vi target, got %q", cfg.Translation.TargetLanguage)
	}
	if got := strings.Join(cfg.Translation.SupportedSources, ","); got != "ja,zh,en" {
		t.Fatalf("unexpected supported sources: %q", got)
	}
	if cfg.Translation.DefaultSourceLanguage != "en" {
		t.Fatalf("unexpected default source: %q", cfg.Translation.DefaultSourceLanguage)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		t.Fatalf("ValidateCredentials: %v", err)
	}
}

func TestLoadCustomConfigNormalizesLanguages(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Translation.TargetLanguage = "vie"
	cfg.Translation.DefaultSourceLanguage = "Japanese"
	cfg.Translation.SupportedSources = []string{"JPN", "chi", "ja", "english"}
	cfg.Logging.Format = "JSON"
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q exists=%v", path, resolved, exists)
	}
	if loaded.Translation.TargetLanguage != "vi" {
		t.Fatalf("target = %q, want vi", loaded.Translation.TargetLanguage)
	}
	if loaded.Translation.DefaultSourceLanguage != "ja" {
		t.Fatalf("default source = %q, want ja", loaded.Translation.DefaultSourceLanguage)
	}
	if got := strings.Join(loaded.Translation.SupportedSources, ","); got != "ja,zh,en" {
		t.Fatalf("supported sources = %q", got)
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("format = %q", loaded.Logging.Format)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "batch size",
			mutate: func(c *config.Config) { c.Library.MaxBatchSize = -1 },
			want:   "library.max_batch_size",
		},
		{
			name:   "unit title format",
			mutate: func(c *config.Config) { c.Library.UnitTitleFormat = "Chapter" },
			want:   "library.unit_title_format",
		},
		{
			name:   "provider",
			mutate: func(c *config.Config) { c.Recognition.Provider = "tesseract" },
			want:   "recognition.provider",
		},
		{
			name:   "default source outside supported set",
			mutate: func(c *config.Config) { c.Translation.DefaultSourceLanguage = "ko" },
			want:   "translation.default_source_language",
		},
		{
			name:   "detector",
			mutate: func(c *config.Config) { c.Translation.Detector = "magic" },
			want:   "translation.detector",
		},
		{
			name:   "ntfy topic",
			mutate: func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" },
			want:   "notifications.ntfy_topic",
		},
		{
			name:   "workers",
			mutate: func(c *config.Config) { c.Workflow.RecognitionWorkers = 0 },
			want:   "workflow.recognition_workers",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateCredentialsRequiresKeys(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateCredentials(); err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected llm.api_key error, got %v", err)
	}
	cfg.LLM.APIKey = "key"
	cfg.Recognition.Provider = "gemini"
	if err := cfg.ValidateCredentials(); err == nil || !strings.Contains(err.Error(), "gemini_api_key") {
		t.Fatalf("expected gemini key error, got %v", err)
	}
	cfg.Recognition.GeminiAPIKey = "g"
	if err := cfg.ValidateCredentials(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecognitionLLMFallsBackToShared(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "shared"
	cfg.Recognition.Model = "vision-model"

	got := cfg.RecognitionLLM()
	if got.APIKey != "shared" {
		t.Fatalf("api key = %q", got.APIKey)
	}
	if got.Model != "vision-model" {
		t.Fatalf("model = %q", got.Model)
	}
	if got.BaseURL != cfg.LLM.BaseURL {
		t.Fatalf("base url = %q", got.BaseURL)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if info, err := os.Stat(cfg.LockDir()); err != nil || !info.IsDir() {
		t.Fatalf("lock dir missing: %v", err)
	}
}
