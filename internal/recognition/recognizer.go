// Package recognition extracts text from page images with vision models.
package recognition

import (
	"context"
	"errors"
	"fmt"

	"mangashelf/internal/reference"
	"mangashelf/internal/services"
	"mangashelf/internal/services/llm"
	"mangashelf/internal/textutil"
)

const systemPrompt = `You are performing OCR on a single comic or manga page image.

Transcribe ALL visible text exactly as it appears: speech bubbles, captions,
signs, and sound effects. Read panels in the page's natural reading order
(right to left for Japanese manga). Keep the original script; do not translate,
romanize, or explain. Put each bubble or caption on its own line.

Respond with JSON only: {"text": "<transcription>"}.
If the page has no legible text, respond with {"text": ""}.`

const userPrompt = "Transcribe the text on this page."

// Recognizer extracts the text printed on the image at ref. An image without
// text yields "" and no error.
type Recognizer interface {
	Recognize(ctx context.Context, ref string) (string, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, ref string) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ImageLoader reads image bytes for a reference.
type ImageLoader interface {
	ReadImage(ctx context.Context, ref string) (reference.Image, error)
}

// VisionCompleter is the subset of the LLM client used for recognition.
type VisionCompleter interface {
	CompleteJSONWithImage(ctx context.Context, systemPrompt, userPrompt string, image llm.Image) (string, error)
}

// LLMRecognizer sends pages to an OpenAI-compatible vision model.
type LLMRecognizer struct {
	loader ImageLoader
	client VisionCompleter
}

// NewLLMRecognizer constructs an LLMRecognizer.
func NewLLMRecognizer(loader ImageLoader, client VisionCompleter) *LLMRecognizer {
	return &LLMRecognizer{loader: loader, client: client}
}

// Recognize implements Recognizer.
func (r *LLMRecognizer) Recognize(ctx context.Context, ref string) (string, error) {
	img, err := r.loader.ReadImage(ctx, ref)
	if err != nil {
		return "", wrapFailure("load image", ref, err)
	}
	content, err := r.client.CompleteJSONWithImage(ctx, systemPrompt, userPrompt, llm.Image{MIMEType: img.MIMEType, Data: img.Data})
	if err != nil {
		return "", wrapFailure("vision request", ref, err)
	}
	return decodeTranscription(content, ref)
}

type transcription struct {
	Text *string `json:"text"`
}

func decodeTranscription(content, ref string) (string, error) {
	var parsed transcription
	if err := llm.DecodeLLMJSON(content, &parsed); err != nil {
		return "", wrapFailure("parse response", ref, err)
	}
	if parsed.Text == nil {
		return "", wrapFailure("parse response", ref, errors.New("response missing text field"))
	}
	return textutil.NormalizeRecognized(*parsed.Text), nil
}

// wrapFailure marks err as a recognition failure unless it is a
// cancellation or already carries a taxonomy marker.
func wrapFailure(op, ref string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if services.Kind(err) != "unknown" {
		return err
	}
	return services.Wrap(services.ErrRecognition, "recognition", op, fmt.Sprintf("page %s", ref), err)
}
