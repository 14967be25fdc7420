// Package document reports page counts for paginated document containers.
package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"mangashelf/internal/services"
)

// Introspector reports how many pages a document holds.
type Introspector interface {
	PageCount(ctx context.Context, ref string) (int, error)
}

// IntrospectorFunc adapts a function to Introspector.
type IntrospectorFunc func(ctx context.Context, ref string) (int, error)

// PageCount calls f.
func (f IntrospectorFunc) PageCount(ctx context.Context, ref string) (int, error) {
	return f(ctx, ref)
}

// FitzIntrospector opens documents read-only through MuPDF. It understands
// PDF, EPUB, CBZ, XPS and the other containers MuPDF supports.
type FitzIntrospector struct{}

// NewFitzIntrospector returns an Introspector backed by go-fitz.
func NewFitzIntrospector() *FitzIntrospector {
	return &FitzIntrospector{}
}

// PageCount opens ref, counts its pages, and closes it. A document reporting
// zero pages is treated as unreadable. Every failure carries
// services.ErrDocumentIntrospection.
func (FitzIntrospector) PageCount(ctx context.Context, ref string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path := strings.TrimPrefix(strings.TrimSpace(ref), "file://")
	if path == "" {
		return 0, services.Wrap(services.ErrDocumentIntrospection, "document", "open", "empty document reference", nil)
	}
	doc, err := fitz.New(path)
	if err != nil {
		return 0, services.Wrap(services.ErrDocumentIntrospection, "document", "open", fmt.Sprintf("cannot open %s", path), err)
	}
	defer doc.Close()

	count := doc.NumPage()
	if count <= 0 {
		return 0, services.Wrap(services.ErrDocumentIntrospection, "document", "count pages", fmt.Sprintf("%s has no pages", path), nil)
	}
	return count, nil
}
