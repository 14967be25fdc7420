package language_test

import (
	"context"
	"errors"
	"testing"

	"mangashelf/internal/language"
)

var detectorLanguages = []string{"ja", "zh", "ko", "en", "vi", "ru", "fr", "de"}

func TestScriptDetector(t *testing.T) {
	detector := language.NewScriptDetector(detectorLanguages...)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", language.Undetermined},
		{"punctuation only", "!!! ... ?!", language.Undetermined},
		{"digits only", "1234 5678", language.Undetermined},
		{"japanese with kana", "おはようございます、先生！", "ja"},
		{"katakana sound effect", "ドドドドド", "ja"},
		{"kanji-only japanese", "東京大学", "ja"},
		{"simplified chinese", "这个问题非常重要", "zh"},
		{"simplified chinese with japanese words", "中国人民银行发表声明", "zh"},
		{"traditional chinese", "我們的學校很漂亮", "zh"},
		{"traditional chinese with japanese words", "他說這個東西太貴了", "zh"},
		{"korean", "안녕하세요 반갑습니다", "ko"},
		{"english", "What is this? I'm not going to the store with you.", "en"},
		{"vietnamese", "Tôi không biết đường về nhà", "vi"},
		{"russian", "Привет, как у тебя дела сегодня?", "ru"},
		{"french", "Je ne sais pas ce que tu veux dire, mon ami.", "fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := detector.Detect(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestScriptDetectorHanClassifierOverride(t *testing.T) {
	detector := language.NewScriptDetector(detectorLanguages...)
	var seen string
	detector.HanClassifier = func(text string) (string, error) {
		seen = text
		return "ja", nil
	}
	got, err := detector.Detect(context.Background(), "我们今天去学校")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got != "ja" || seen != "我们今天去学校" {
		t.Fatalf("override not used: got %q, saw %q", got, seen)
	}
	if _, err := detector.Detect(context.Background(), "おはよう"); err != nil || seen != "我们今天去学校" {
		t.Fatalf("kana text should not reach the han classifier (err=%v)", err)
	}
}

func TestScriptDetectorHanWithOneCJKLanguage(t *testing.T) {
	tests := []struct {
		name      string
		languages []string
		text      string
		want      string
	}{
		{"only chinese configured", []string{"zh", "en"}, "東京大学", "zh"},
		{"only japanese configured", []string{"ja", "en"}, "这个问题非常重要", "ja"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := language.NewScriptDetector(tt.languages...).Detect(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestScriptDetectorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := language.NewScriptDetector(detectorLanguages...).Detect(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type stubCompleter struct {
	content string
	err     error
	prompt  string
}

func (s *stubCompleter) CompleteJSON(_ context.Context, _, user string) (string, error) {
	s.prompt = user
	return s.content, s.err
}

func TestLLMDetector(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", `{"language":"ja"}`, "ja"},
		{"fenced three letter", "```json\n{\"language\":\"zho\"}\n```", "zh"},
		{"undetermined", `{"language":"und"}`, language.Undetermined},
		{"blank", `{"language":""}`, language.Undetermined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{content: tt.content}
			got, err := language.NewLLMDetector(stub).Detect(context.Background(), "text")
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLLMDetectorPropagatesErrors(t *testing.T) {
	stub := &stubCompleter{err: errors.New("boom")}
	if _, err := language.NewLLMDetector(stub).Detect(context.Background(), "text"); err == nil {
		t.Fatal("expected error")
	}
	stub = &stubCompleter{content: "not json"}
	if _, err := language.NewLLMDetector(stub).Detect(context.Background(), "text"); err == nil {
		t.Fatal("expected parse error")
	}
}
