package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeRecognized cleans OCR output: NFKC folds full-width Latin and
// half-width kana into their canonical forms, control characters are dropped,
// runs of spaces collapse, and blank lines at the edges are trimmed. Line
// breaks inside the text are kept since speech bubbles are often multi-line.
func NormalizeRecognized(text string) string {
	text = norm.NFKC.String(text)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		var b strings.Builder
		space := false
		for _, r := range line {
			switch {
			case unicode.IsSpace(r):
				space = true
			case unicode.IsControl(r):
			default:
				if space && b.Len() > 0 {
					b.WriteByte(' ')
				}
				space = false
				b.WriteRune(r)
			}
		}
		out = append(out, b.String())
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}

// IsBlank reports whether text holds nothing but whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Truncate shortens text to at most n runes, appending an ellipsis when cut.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
