// Package reference is the boundary to externally selected images and
// documents. References are local paths or file:// URIs; the package checks
// they remain readable and loads image bytes for recognition.
package reference

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"mangashelf/internal/services"
)

// Checker verifies references are still accessible.
type Checker interface {
	CheckReadable(ctx context.Context, ref string) error
}

// Image is a loaded page image.
type Image struct {
	Ref      string
	MIMEType string
	Data     []byte
}

// FileSystem resolves references against the local filesystem.
type FileSystem struct{}

// NewFileSystem returns the default filesystem-backed reference checker.
func NewFileSystem() *FileSystem {
	return &FileSystem{}
}

// Resolve converts ref to a cleaned absolute path.
func Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", services.Wrap(services.ErrValidation, "reference", "resolve", "empty reference", nil)
	}
	if strings.HasPrefix(ref, "file://") {
		parsed, err := url.Parse(ref)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "reference", "resolve", fmt.Sprintf("malformed uri %q", ref), err)
		}
		ref = parsed.Path
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "reference", "resolve", fmt.Sprintf("resolve %q", ref), err)
	}
	return abs, nil
}

// CheckReadable reports services.ErrPermissionDenied when ref is missing,
// not a regular file, or not readable by this process.
func (FileSystem) CheckReadable(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := Resolve(ref)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrPermissionDenied, "reference", "check", fmt.Sprintf("%s is no longer available", path), err)
		}
		return services.Wrap(services.ErrPermissionDenied, "reference", "check", fmt.Sprintf("cannot stat %s", path), err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrPermissionDenied, "reference", "check", fmt.Sprintf("%s is not a file", path), nil)
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return services.Wrap(services.ErrPermissionDenied, "reference", "check", fmt.Sprintf("%s is not readable", path), err)
	}
	return nil
}

// ReadImage loads ref and sniffs its MIME type.
func (f FileSystem) ReadImage(ctx context.Context, ref string) (Image, error) {
	if err := f.CheckReadable(ctx, ref); err != nil {
		return Image{}, err
	}
	path, _ := Resolve(ref)
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, services.Wrap(services.ErrPermissionDenied, "reference", "read", fmt.Sprintf("cannot read %s", path), err)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, services.Wrap(services.ErrRecognition, "reference", "read", fmt.Sprintf("%s is not an image (%s)", path, mimeType), nil)
	}
	return Image{Ref: path, MIMEType: mimeType, Data: data}, nil
}
