package language_test

import (
	"testing"

	"mangashelf/internal/language"
)

func TestResolverMapsIntoSupportedSet(t *testing.T) {
	resolver, err := language.NewResolver([]string{"ja", "zh", "en"}, "en")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	tests := []struct {
		detected string
		want     string
		matched  bool
	}{
		{"ja", "ja", true},
		{"jpn", "ja", true},
		{"zh-Hant", "zh", true},
		{"en", "en", true},
		{"ko", "en", false},
		{"fr", "en", false},
		{"und", "en", false},
		{"", "en", false},
		{"garbage!!", "en", false},
	}
	for _, tt := range tests {
		t.Run(tt.detected, func(t *testing.T) {
			got, matched := resolver.Resolve(tt.detected)
			if got != tt.want || matched != tt.matched {
				t.Fatalf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.detected, got, matched, tt.want, tt.matched)
			}
		})
	}
}

func TestNewResolverRejectsFallbackOutsideSet(t *testing.T) {
	if _, err := language.NewResolver([]string{"ja", "zh"}, "en"); err == nil {
		t.Fatal("expected error for fallback outside supported set")
	}
	if _, err := language.NewResolver(nil, "en"); err == nil {
		t.Fatal("expected error for empty supported set")
	}
}
