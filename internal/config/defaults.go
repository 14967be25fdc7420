package config

const (
	defaultConfigPath          = "~/.config/mangashelf/config.toml"
	defaultDataDir             = "~/.local/share/mangashelf"
	defaultLogDir              = "~/.local/share/mangashelf/logs"
	defaultMaxBatchSize        = 25
	defaultTitle               = "Untitled"
	defaultDocumentDescription = "Imported from document"
	defaultUnitTitleFormat     = "Chapter %d"
	defaultLockTimeoutSeconds  = 30
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-3-flash-preview"
	defaultLLMReferer          = "https://github.com/mangashelf/mangashelf"
	defaultLLMTitle            = "mangashelf"
	defaultLLMTimeoutSeconds   = 60
	defaultRecognitionProvider = "openai"
	defaultGeminiModel         = "gemini-1.5-flash"
	defaultRecognitionTitle    = "mangashelf Recognition"
	defaultTranslationTitle    = "mangashelf Translation"
	defaultTargetLanguage      = "vi"
	defaultSourceLanguage      = "en"
	defaultDetector            = "script"
	defaultIngestWorkers       = 2
	defaultRecognitionWorkers  = 2
	defaultQueueSize           = 32
	defaultNtfyTimeoutSeconds  = 10
	defaultLogFormat           = "auto"
	defaultLogLevel            = "info"
)

var defaultSupportedSources = []string{"ja", "zh", "en"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Library: Library{
			MaxBatchSize:        defaultMaxBatchSize,
			DefaultTitle:        defaultTitle,
			DocumentDescription: defaultDocumentDescription,
			UnitTitleFormat:     defaultUnitTitleFormat,
			LockTimeoutSeconds:  defaultLockTimeoutSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Recognition: Recognition{
			Provider: defaultRecognitionProvider,
		},
		Translation: Translation{
			TargetLanguage:        defaultTargetLanguage,
			DefaultSourceLanguage: defaultSourceLanguage,
			SupportedSources:      append([]string(nil), defaultSupportedSources...),
			Detector:              defaultDetector,
		},
		Workflow: Workflow{
			IngestWorkers:      defaultIngestWorkers,
			RecognitionWorkers: defaultRecognitionWorkers,
			QueueSize:          defaultQueueSize,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
