package recognition_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mangashelf/internal/recognition"
	"mangashelf/internal/reference"
	"mangashelf/internal/services"
	"mangashelf/internal/services/llm"
	"mangashelf/internal/testsupport"
)

type fakeVision struct {
	content string
	err     error
	got     llm.Image
}

func (f *fakeVision) CompleteJSONWithImage(_ context.Context, _, _ string, image llm.Image) (string, error) {
	f.got = image
	return f.content, f.err
}

type fakeGemini struct {
	content  string
	mimeType string
}

func (f *fakeGemini) GenerateJSONWithImage(_ context.Context, _, mimeType string, _ []byte) (string, error) {
	f.mimeType = mimeType
	return f.content, nil
}

func TestLLMRecognizer(t *testing.T) {
	page := filepath.Join(t.TempDir(), "page.png")
	testsupport.WriteImage(t, page)

	tests := []struct {
		name    string
		content string
		err     error
		want    string
		wantErr error
	}{
		{"text", `{"text": "ＨＥＬＬＯ\n  there "}`, nil, "HELLO\nthere", nil},
		{"fenced", "```json\n{\"text\": \"こんにちは\"}\n```", nil, "こんにちは", nil},
		{"empty page", `{"text": ""}`, nil, "", nil},
		{"missing field", `{"words": "x"}`, nil, "", services.ErrRecognition},
		{"garbage", `not json`, nil, "", services.ErrRecognition},
		{"transport", "", errors.New("503"), "", services.ErrRecognition},
		{"canceled", "", context.Canceled, "", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vision := &fakeVision{content: tt.content, err: tt.err}
			r := recognition.NewLLMRecognizer(reference.NewFileSystem(), vision)
			got, err := r.Recognize(context.Background(), page)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Recognize: %v", err)
			}
			if got != tt.want {
				t.Fatalf("text = %q, want %q", got, tt.want)
			}
			if vision.got.MIMEType != "image/png" || len(vision.got.Data) == 0 {
				t.Fatalf("image not forwarded: %#v", vision.got.MIMEType)
			}
		})
	}
}

func TestRecognizerMissingImage(t *testing.T) {
	r := recognition.NewLLMRecognizer(reference.NewFileSystem(), &fakeVision{content: `{"text":"x"}`})
	_, err := r.Recognize(context.Background(), filepath.Join(t.TempDir(), "gone.png"))
	if !errors.Is(err, services.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestGeminiRecognizer(t *testing.T) {
	page := filepath.Join(t.TempDir(), "page.png")
	testsupport.WriteImage(t, page)
	client := &fakeGemini{content: `{"text":"你好"}`}

	got, err := recognition.NewGeminiRecognizer(reference.NewFileSystem(), client).Recognize(context.Background(), page)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if got != "你好" || client.mimeType != "image/png" {
		t.Fatalf("got %q mime %q", got, client.mimeType)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	r, closeFn, err := recognition.NewFromConfig(context.Background(), cfg, reference.NewFileSystem())
	if err != nil || r == nil {
		t.Fatalf("openai provider: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg.Recognition.Provider = "gemini"
	cfg.Recognition.GeminiAPIKey = ""
	if _, closeFn, err := recognition.NewFromConfig(context.Background(), cfg, reference.NewFileSystem()); !errors.Is(err, services.ErrConfiguration) || closeFn == nil {
		t.Fatalf("expected configuration error, got %v", err)
	}

	cfg.Recognition.Provider = "tesseract"
	if _, _, err := recognition.NewFromConfig(context.Background(), cfg, reference.NewFileSystem()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
