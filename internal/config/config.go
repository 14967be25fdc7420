package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Library contains ingestion limits and the defaults applied to new records.
type Library struct {
	MaxBatchSize        int    `toml:"max_batch_size"`
	DefaultTitle        string `toml:"default_title"`
	DocumentDescription string `toml:"document_description"`
	UnitTitleFormat     string `toml:"unit_title_format"`
	LockTimeoutSeconds  int    `toml:"lock_timeout_seconds"`
}

// LLM contains shared OpenAI-compatible connection settings used by
// recognition, translation, and language detection.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Recognition selects the text recognition provider.
type Recognition struct {
	// Provider is "openai" (any OpenAI-compatible vision endpoint) or "gemini".
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// GeminiAPIKey is read from GEMINI_API_KEY when unset.
	GeminiAPIKey string `toml:"gemini_api_key"`
}

// Translation contains language selection and translator settings.
type Translation struct {
	TargetLanguage        string   `toml:"target_language"`
	DefaultSourceLanguage string   `toml:"default_source_language"`
	SupportedSources      []string `toml:"supported_sources"`
	// Detector is "script" (local Unicode script + tokenizer heuristics) or "llm".
	Detector string `toml:"detector"`
	Model    string `toml:"model"`
}

// Workflow contains worker pool sizing.
type Workflow struct {
	IngestWorkers      int `toml:"ingest_workers"`
	RecognitionWorkers int `toml:"recognition_workers"`
	QueueSize          int `toml:"queue_size"`
}

// Notifications configures ntfy push notifications. An empty topic disables them.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	// NotifyCompletions also announces successful runs; failures are always sent.
	NotifyCompletions bool `toml:"notify_completions"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mangashelf.
//
// Configuration sections by subsystem:
//   - Paths: library database, lock files, and logs
//   - Library: batch limits and record defaults
//   - LLM: shared OpenAI-compatible connection settings
//   - Recognition: OCR provider selection
//   - Translation: target/source languages and detector choice
//   - Workflow: worker pool sizes
//   - Notifications: ntfy topic for ingestion and run alerts
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Library       Library       `toml:"library"`
	LLM           LLM           `toml:"llm"`
	Recognition   Recognition   `toml:"recognition"`
	Translation   Translation   `toml:"translation"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mangashelf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, lock, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.LockDir(), c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the library database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "library.db")
}

// LockDir returns the directory holding per-item lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains connection settings for one OpenAI-compatible consumer.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// RecognitionLLM returns the vision endpoint settings for the openai provider.
// Falls back to [llm] settings when not explicitly configured.
func (c *Config) RecognitionLLM() LLMConfig {
	cfg := c.GetLLM()
	if v := strings.TrimSpace(c.Recognition.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(c.Recognition.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(c.Recognition.Model); v != "" {
		cfg.Model = v
	}
	if c.Recognition.TimeoutSeconds > 0 {
		cfg.TimeoutSeconds = c.Recognition.TimeoutSeconds
	}
	cfg.Title = defaultRecognitionTitle
	return cfg
}

// TranslationLLM returns the chat settings used for translation and, with
// detector "llm", for language detection.
func (c *Config) TranslationLLM() LLMConfig {
	cfg := c.GetLLM()
	if v := strings.TrimSpace(c.Translation.Model); v != "" {
		cfg.Model = v
	}
	cfg.Title = defaultTranslationTitle
	return cfg
}
