package config

import (
	"fmt"
	"os"
	"strings"

	"mangashelf/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLibrary()
	c.normalizeLLM()
	c.normalizeRecognition()
	c.normalizeTranslation()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() {
	if c.Library.MaxBatchSize == 0 {
		c.Library.MaxBatchSize = defaultMaxBatchSize
	}
	c.Library.DefaultTitle = strings.TrimSpace(c.Library.DefaultTitle)
	if c.Library.DefaultTitle == "" {
		c.Library.DefaultTitle = defaultTitle
	}
	c.Library.DocumentDescription = strings.TrimSpace(c.Library.DocumentDescription)
	if c.Library.DocumentDescription == "" {
		c.Library.DocumentDescription = defaultDocumentDescription
	}
	c.Library.UnitTitleFormat = strings.TrimSpace(c.Library.UnitTitleFormat)
	if c.Library.UnitTitleFormat == "" {
		c.Library.UnitTitleFormat = defaultUnitTitleFormat
	}
	if c.Library.LockTimeoutSeconds <= 0 {
		c.Library.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = firstEnv("MANGASHELF_LLM_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY")
	}
}

func (c *Config) normalizeRecognition() {
	c.Recognition.Provider = strings.ToLower(strings.TrimSpace(c.Recognition.Provider))
	if c.Recognition.Provider == "" {
		c.Recognition.Provider = defaultRecognitionProvider
	}
	c.Recognition.Model = strings.TrimSpace(c.Recognition.Model)
	if c.Recognition.Provider == "gemini" && c.Recognition.Model == "" {
		c.Recognition.Model = defaultGeminiModel
	}
	c.Recognition.GeminiAPIKey = strings.TrimSpace(c.Recognition.GeminiAPIKey)
	if c.Recognition.GeminiAPIKey == "" {
		c.Recognition.GeminiAPIKey = firstEnv("GEMINI_API_KEY")
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.TargetLanguage = language.ToISO2(c.Translation.TargetLanguage)
	if c.Translation.TargetLanguage == "" {
		c.Translation.TargetLanguage = defaultTargetLanguage
	}
	c.Translation.DefaultSourceLanguage = language.ToISO2(c.Translation.DefaultSourceLanguage)
	if c.Translation.DefaultSourceLanguage == "" {
		c.Translation.DefaultSourceLanguage = defaultSourceLanguage
	}
	sources := language.NormalizeList(c.Translation.SupportedSources)
	if len(sources) == 0 {
		sources = append([]string(nil), defaultSupportedSources...)
	}
	c.Translation.SupportedSources = sources
	c.Translation.Detector = strings.ToLower(strings.TrimSpace(c.Translation.Detector))
	if c.Translation.Detector == "" {
		c.Translation.Detector = defaultDetector
	}
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.IngestWorkers <= 0 {
		c.Workflow.IngestWorkers = defaultIngestWorkers
	}
	if c.Workflow.RecognitionWorkers <= 0 {
		c.Workflow.RecognitionWorkers = defaultRecognitionWorkers
	}
	if c.Workflow.QueueSize <= 0 {
		c.Workflow.QueueSize = defaultQueueSize
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = firstEnv("MANGASHELF_NTFY_TOPIC")
	}
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json", "auto":
	case "":
		c.Logging.Format = defaultLogFormat
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
