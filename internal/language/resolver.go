package language

import (
	"fmt"
	"slices"
)

// Resolver maps detected language codes into a fixed set of supported
// source languages.
type Resolver struct {
	supported []string
	fallback  string
}

// NewResolver builds a resolver over supported codes. fallback must be one of
// the supported codes after normalization.
func NewResolver(supported []string, fallback string) (*Resolver, error) {
	normalized := NormalizeList(supported)
	if len(normalized) == 0 {
		return nil, fmt.Errorf("language resolver: no supported languages")
	}
	fb := ToISO2(fallback)
	if !slices.Contains(normalized, fb) {
		return nil, fmt.Errorf("language resolver: fallback %q is not in supported set %v", fallback, normalized)
	}
	return &Resolver{supported: normalized, fallback: fb}, nil
}

// Resolve returns the supported code for detected and whether the detection
// matched. Unmapped or undetermined codes resolve to the fallback.
func (r *Resolver) Resolve(detected string) (string, bool) {
	code := ToISO2(detected)
	if code == "" || code == Undetermined {
		return r.fallback, false
	}
	if slices.Contains(r.supported, code) {
		return code, true
	}
	return r.fallback, false
}

// Fallback returns the default source language.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// Supported returns a copy of the supported source languages.
func (r *Resolver) Supported() []string {
	return slices.Clone(r.supported)
}
