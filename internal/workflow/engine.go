package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"mangashelf/internal/config"
	"mangashelf/internal/language"
	"mangashelf/internal/recognition"
	"mangashelf/internal/reference"
	"mangashelf/internal/services"
	"mangashelf/internal/services/llm"
	"mangashelf/internal/translation"
)

// NewEngineFromConfig wires the configured recognizer, detector, resolver,
// and translator cache. The close function releases provider connections.
func NewEngineFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Engine, func() error, error) {
	recognizer, closeFn, err := recognition.NewFromConfig(ctx, cfg, reference.NewFileSystem())
	if err != nil {
		return Engine{}, closeFn, err
	}

	resolver, err := language.NewResolver(cfg.Translation.SupportedSources, cfg.Translation.DefaultSourceLanguage)
	if err != nil {
		return Engine{}, closeFn, services.Wrap(services.ErrConfiguration, "workflow", "resolver", "check translation languages", err)
	}

	settings := cfg.TranslationLLM()
	chat := llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	})

	var detector language.Detector
	switch cfg.Translation.Detector {
	case "llm":
		detector = language.NewLLMDetector(chat)
	case "script", "":
		detector = language.NewScriptDetector(resolver.Supported()...)
	default:
		return Engine{}, closeFn, services.Wrap(services.ErrConfiguration, "workflow", "detector",
			fmt.Sprintf("unsupported detector %q", cfg.Translation.Detector), nil)
	}

	return Engine{
		Recognizer:     recognizer,
		Detector:       detector,
		Resolver:       resolver,
		Translators:    translation.NewCache(translation.NewLLMPreparer(chat), logger),
		TargetLanguage: cfg.Translation.TargetLanguage,
	}, closeFn, nil
}
