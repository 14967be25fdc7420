package language

import (
	"context"
	"fmt"
	"strings"

	"mangashelf/internal/services/llm"
)

const detectionPrompt = `You identify the language of text extracted from comic pages.
Respond with JSON only: {"language": "<ISO 639-1 code>"}.
Use "und" when the text has no identifiable language (numbers, sound effects, noise).`

// Longest excerpt sent for detection; language is evident well before this.
const maxDetectionRunes = 1000

// JSONCompleter issues JSON-only chat completions.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMDetector asks a chat model to name the language of a text.
type LLMDetector struct {
	client JSONCompleter
}

// NewLLMDetector wraps client as a Detector.
func NewLLMDetector(client JSONCompleter) *LLMDetector {
	return &LLMDetector{client: client}
}

// Detect implements Detector.
func (d *LLMDetector) Detect(ctx context.Context, text string) (string, error) {
	excerpt := strings.TrimSpace(text)
	if excerpt == "" {
		return Undetermined, nil
	}
	if runes := []rune(excerpt); len(runes) > maxDetectionRunes {
		excerpt = string(runes[:maxDetectionRunes])
	}
	content, err := d.client.CompleteJSON(ctx, detectionPrompt, excerpt)
	if err != nil {
		return "", fmt.Errorf("llm detect: %w", err)
	}
	var parsed struct {
		Language string `json:"language"`
	}
	if err := llm.DecodeLLMJSON(content, &parsed); err != nil {
		return "", fmt.Errorf("llm detect: parse payload: %w", err)
	}
	code := strings.ToLower(strings.TrimSpace(parsed.Language))
	if code == "" {
		return Undetermined, nil
	}
	if iso := ToISO2(code); iso != "" {
		return iso, nil
	}
	return Undetermined, nil
}
