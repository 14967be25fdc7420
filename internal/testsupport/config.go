package testsupport

import (
	"path/filepath"
	"testing"

	"mangashelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.LLM.APIKey = "test"
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithMaxBatchSize overrides the per-request page limit.
func WithMaxBatchSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.MaxBatchSize = n
	}
}

// WithLanguages overrides the translation target and supported sources.
func WithLanguages(target, fallback string, supported ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.TargetLanguage = target
		b.cfg.Translation.DefaultSourceLanguage = fallback
		if len(supported) > 0 {
			b.cfg.Translation.SupportedSources = supported
		}
	}
}

// WithLLMEndpoint points every LLM consumer at baseURL.
func WithLLMEndpoint(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = baseURL
	}
}

// WithNtfyTopic enables notifications against topicURL.
func WithNtfyTopic(topicURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topicURL
		b.cfg.Notifications.RequestTimeoutSeconds = 5
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
