package recognition

import (
	"context"

	"mangashelf/internal/services/gemini"
)

// JSONImageGenerator is the subset of the Gemini client used for recognition.
type JSONImageGenerator interface {
	GenerateJSONWithImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error)
}

var _ JSONImageGenerator = (*gemini.Client)(nil)

// GeminiRecognizer sends pages to a Gemini model.
type GeminiRecognizer struct {
	loader ImageLoader
	client JSONImageGenerator
}

// NewGeminiRecognizer constructs a GeminiRecognizer.
func NewGeminiRecognizer(loader ImageLoader, client JSONImageGenerator) *GeminiRecognizer {
	return &GeminiRecognizer{loader: loader, client: client}
}

// Recognize implements Recognizer.
func (r *GeminiRecognizer) Recognize(ctx context.Context, ref string) (string, error) {
	img, err := r.loader.ReadImage(ctx, ref)
	if err != nil {
		return "", wrapFailure("load image", ref, err)
	}
	content, err := r.client.GenerateJSONWithImage(ctx, systemPrompt+"\n\n"+userPrompt, img.MIMEType, img.Data)
	if err != nil {
		return "", wrapFailure("gemini request", ref, err)
	}
	return decodeTranscription(content, ref)
}
