package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if c.Library.MaxBatchSize < 1 {
		return errors.New("library.max_batch_size must be positive")
	}
	if !strings.Contains(c.Library.UnitTitleFormat, "%d") {
		return errors.New("library.unit_title_format must contain %d for the sequence number")
	}
	return nil
}

func (c *Config) validateRecognition() error {
	switch c.Recognition.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("recognition.provider must be \"openai\" or \"gemini\", got %q", c.Recognition.Provider)
	}
	if c.Recognition.TimeoutSeconds < 0 {
		return errors.New("recognition.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.TargetLanguage == "" {
		return errors.New("translation.target_language must be set")
	}
	if !slices.Contains(c.Translation.SupportedSources, c.Translation.DefaultSourceLanguage) {
		return fmt.Errorf("translation.default_source_language %q must be one of translation.supported_sources %v",
			c.Translation.DefaultSourceLanguage, c.Translation.SupportedSources)
	}
	switch c.Translation.Detector {
	case "script", "llm":
	default:
		return fmt.Errorf("translation.detector must be \"script\" or \"llm\", got %q", c.Translation.Detector)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.ingest_workers":      c.Workflow.IngestWorkers,
		"workflow.recognition_workers": c.Workflow.RecognitionWorkers,
		"workflow.queue_size":          c.Workflow.QueueSize,
		"llm.timeout_seconds":          c.LLM.TimeoutSeconds,
	})
}

// ValidateCredentials reports missing API keys for the configured providers.
// Library-only commands do not need them, so Load does not call it.
func (c *Config) ValidateCredentials() error {
	if c.Recognition.Provider == "gemini" {
		if c.Recognition.GeminiAPIKey == "" {
			return errors.New("recognition.gemini_api_key is required for the gemini provider (or set GEMINI_API_KEY)")
		}
	} else if c.RecognitionLLM().APIKey == "" {
		return c.missingKeyError("llm.api_key")
	}
	if c.TranslationLLM().APIKey == "" {
		return c.missingKeyError("llm.api_key")
	}
	return nil
}

func (c *Config) missingKeyError(key string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("%s is required. Set MANGASHELF_LLM_API_KEY or edit %s (create with 'mangashelf config init')", key, defaultPath)
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
