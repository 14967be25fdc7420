package services

import (
	"errors"
	"fmt"
	"strings"
)

// Ingestion failures.
var (
	ErrInvalidBatchSize      = errors.New("invalid batch size")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrDocumentIntrospection = errors.New("document introspection failure")
	ErrStorageWrite          = errors.New("storage write failure")
)

// Recognition-translation failures.
var (
	ErrRecognition       = errors.New("recognition failure")
	ErrLanguageDetection = errors.New("language detection failure")
	ErrTranslation       = errors.New("translation failure")
	ErrModelUnavailable  = errors.New("model unavailable")
)

// General markers.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

var kinds = []struct {
	marker error
	name   string
}{
	{ErrInvalidBatchSize, "invalid_batch_size"},
	{ErrPermissionDenied, "permission_denied"},
	{ErrDocumentIntrospection, "document_introspection_failure"},
	{ErrStorageWrite, "storage_write_failure"},
	{ErrModelUnavailable, "model_unavailable"},
	{ErrRecognition, "recognition_failure"},
	{ErrLanguageDetection, "language_detection_failure"},
	{ErrTranslation, "translation_failure"},
	{ErrNotFound, "not_found"},
	{ErrValidation, "validation"},
	{ErrConfiguration, "configuration"},
	{ErrTransient, "transient"},
}

// Kind returns the stable taxonomy name for err, or "unknown" when err carries
// no marker. ErrModelUnavailable takes precedence over ErrTranslation since
// preparation failures are reported under both.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "unknown"
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
