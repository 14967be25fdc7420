package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mangashelf/internal/config"
	"mangashelf/internal/document"
	"mangashelf/internal/language"
	"mangashelf/internal/library"
	"mangashelf/internal/services/gemini"
	"mangashelf/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", cfg.Model)}
}

// CheckGemini verifies that a Gemini client can be built from the configured
// key. The SDK performs no request until the first generation.
func CheckGemini(ctx context.Context, cfg *config.Config) Result {
	const name = "Gemini"
	if strings.TrimSpace(cfg.Recognition.GeminiAPIKey) == "" {
		return Result{Name: name, Detail: "API key missing (set GEMINI_API_KEY)"}
	}
	client, err := gemini.New(ctx, gemini.Config{
		APIKey: cfg.Recognition.GeminiAPIKey,
		Model:  cfg.Recognition.Model,
	})
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("client setup failed (%v)", err)}
	}
	_ = client.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("client ready (%s)", cfg.Recognition.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase opens the library database and runs a read.
func CheckDatabase(ctx context.Context, cfg *config.Config) Result {
	const name = "Library database"
	store, err := library.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.DatabasePath(), err)}
	}
	defer store.Close()
	count, err := store.CountHistory(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.DatabasePath(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d history records)", cfg.DatabasePath(), count)}
}

// CheckLanguages verifies the translation language settings resolve.
func CheckLanguages(cfg *config.Config) Result {
	const name = "Languages"
	resolver, err := language.NewResolver(cfg.Translation.SupportedSources, cfg.Translation.DefaultSourceLanguage)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s -> %s (default %s)",
		strings.Join(resolver.Supported(), ","), cfg.Translation.TargetLanguage, resolver.Fallback())}
}

// CheckDetector runs the local detector on a kanji-only Japanese sample,
// which loads the tokenizer dictionary. The llm detector is covered by the
// LLM checks.
func CheckDetector(ctx context.Context, cfg *config.Config) Result {
	const name = "Language detector"
	if cfg.Translation.Detector == "llm" {
		return Result{Name: name, Passed: true, Detail: "llm (checked with translation endpoint)"}
	}
	code, err := language.NewScriptDetector("ja", "zh").Detect(ctx, "東京大学")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("dictionary failed to load (%v)", err)}
	}
	if code != "ja" {
		return Result{Name: name, Detail: fmt.Sprintf("unexpected result %q for Japanese sample", code)}
	}
	return Result{Name: name, Passed: true, Detail: "script"}
}

// CheckDocument counts the pages of a sample document.
func CheckDocument(ctx context.Context, introspector document.Introspector, path string) Result {
	const name = "Document support"
	pages, err := introspector.PageCount(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d pages)", path, pages)}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
