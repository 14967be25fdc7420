package recognition

import (
	"context"
	"fmt"

	"mangashelf/internal/config"
	"mangashelf/internal/services"
	"mangashelf/internal/services/gemini"
	"mangashelf/internal/services/llm"
)

// NewFromConfig builds the configured recognizer. The returned close function
// releases provider connections and is never nil.
func NewFromConfig(ctx context.Context, cfg *config.Config, loader ImageLoader) (Recognizer, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Recognition.Provider {
	case "gemini":
		client, err := gemini.New(ctx, gemini.Config{
			APIKey: cfg.Recognition.GeminiAPIKey,
			Model:  cfg.Recognition.Model,
		})
		if err != nil {
			return nil, noop, services.Wrap(services.ErrConfiguration, "recognition", "gemini client", "check recognition.gemini_api_key", err)
		}
		return NewGeminiRecognizer(loader, client), client.Close, nil
	case "openai", "":
		settings := cfg.RecognitionLLM()
		client := llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
		})
		return NewLLMRecognizer(loader, client), noop, nil
	default:
		return nil, noop, services.Wrap(services.ErrConfiguration, "recognition", "select provider",
			fmt.Sprintf("unsupported provider %q", cfg.Recognition.Provider), nil)
	}
}
