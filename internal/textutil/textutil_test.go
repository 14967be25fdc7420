package textutil_test

import (
	"testing"

	"mangashelf/internal/textutil"
)

func TestNormalizeRecognized(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \n\t \n", ""},
		{"full width latin", "ＨＥＬＬＯ　ｗｏｒｌｄ", "HELLO world"},
		{"half width kana", "ｺﾝﾆﾁﾊ", "コンニチハ"},
		{"keeps lines", "  first   line \r\nsecond\n\n", "first line\nsecond"},
		{"drops controls", "a\u0000b", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textutil.NormalizeRecognized(tt.in); got != tt.want {
				t.Fatalf("NormalizeRecognized(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"01HZX3ABC":     "01hzx3abc",
		"  ":            "unknown",
		"a/b c":         "a_b_c",
		"--keep_me--":   "keep_me",
		"日本語":           "unknown",
		"Chapter 1: Go": "chapter_1__go",
	}
	for in, want := range tests {
		if got := textutil.SanitizeToken(in); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := textutil.Truncate("こんにちは世界", 4); got != "こんに…" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := textutil.Truncate("short", 10); got != "short" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := textutil.Truncate("abc", 0); got != "" {
		t.Fatalf("Truncate = %q", got)
	}
}
