package preflight

import (
	"context"

	"mangashelf/internal/config"
	"mangashelf/internal/document"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Options tunes RunAll.
type Options struct {
	// SkipNetwork omits checks that contact model endpoints.
	SkipNetwork bool
	// SampleDocument, when set, is opened with Introspector to prove document
	// support works end to end.
	SampleDocument string
	Introspector   document.Introspector
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Lock directory", cfg.LockDir()),
		CheckDatabase(ctx, cfg),
		CheckLanguages(cfg),
		CheckDetector(ctx, cfg),
	}

	if !opts.SkipNetwork {
		switch cfg.Recognition.Provider {
		case "gemini":
			results = append(results, CheckGemini(ctx, cfg))
		default:
			results = append(results, CheckLLM(ctx, "Recognition LLM", cfg.RecognitionLLM()))
		}
		if cfg.Recognition.Provider == "gemini" || translationUsesDistinctLLM(cfg) {
			results = append(results, CheckLLM(ctx, "Translation LLM", cfg.TranslationLLM()))
		}
	}

	if opts.SampleDocument != "" {
		introspector := opts.Introspector
		if introspector == nil {
			introspector = document.NewFitzIntrospector()
		}
		results = append(results, CheckDocument(ctx, introspector, opts.SampleDocument))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// translationUsesDistinctLLM returns true when translation resolves to a
// different endpoint, key, or model than recognition. When they are the same
// the recognition check already covers it.
func translationUsesDistinctLLM(cfg *config.Config) bool {
	rec := cfg.RecognitionLLM()
	tr := cfg.TranslationLLM()
	return rec.APIKey != tr.APIKey || rec.BaseURL != tr.BaseURL || rec.Model != tr.Model
}
