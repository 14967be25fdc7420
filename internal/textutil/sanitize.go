package textutil

import "strings"

// SanitizeToken lowercases value and maps every rune outside [a-z0-9_-] to an
// underscore, so ids can be embedded in lock file names. Leading and trailing
// separators are dropped; an empty result becomes "unknown".
func SanitizeToken(value string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case 'A' <= r && r <= 'Z':
			return r + ('a' - 'A')
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	if out = strings.Trim(out, "_-"); out == "" {
		return "unknown"
	}
	return out
}
