// Package gemini wraps the Google Gemini API for page text recognition.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Config captures Gemini connection settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Client issues single-turn multimodal requests against one model.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New creates a client. Callers must Close it.
func New(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key required (set GEMINI_API_KEY)")
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		return nil, errors.New("gemini: model required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"
	return &Client{client: client, model: model}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GenerateJSONWithImage sends prompt and the image, returning the JSON text
// of the first candidate.
func (c *Client) GenerateJSONWithImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("gemini: image data required")
	}
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(ImageFormat(mimeType), data))
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	return FirstText(resp)
}

// ImageFormat converts a MIME type such as "image/jpeg" to the short format
// name Gemini expects.
func ImageFormat(mimeType string) string {
	format := strings.ToLower(strings.TrimSpace(mimeType))
	format = strings.TrimPrefix(format, "image/")
	if i := strings.IndexByte(format, ';'); i >= 0 {
		format = format[:i]
	}
	switch format {
	case "", "jpg":
		return "jpeg"
	default:
		return format
	}
}

// FirstText extracts the text of the first candidate's parts.
func FirstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates returned")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("gemini: empty content returned")
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: unexpected response format")
	}
	return b.String(), nil
}
