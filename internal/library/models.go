package library

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// SourceType identifies where a page's image comes from.
type SourceType string

const (
	// SourceImage pages reference a standalone image.
	SourceImage SourceType = "image"
	// SourceDocumentPage pages reference one page of a paginated document.
	SourceDocumentPage SourceType = "document_page"
)

// Item is a top-level library entry (a series or book).
type Item struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	CoverRef    string    `json:"cover_ref,omitempty" yaml:"cover_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	// UnitCount is populated by list queries.
	UnitCount int `json:"unit_count" yaml:"unit_count"`
}

// Unit is an ordered chapter or volume within an item.
type Unit struct {
	ID             string    `json:"id" yaml:"id"`
	ItemID         string    `json:"item_id" yaml:"item_id"`
	SequenceNumber int       `json:"sequence_number" yaml:"sequence_number"`
	Title          string    `json:"title,omitempty" yaml:"title,omitempty"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	// PageCount is populated by list queries.
	PageCount int `json:"page_count" yaml:"page_count"`
}

// Page is one displayable page of a unit. Exactly one of ImageRef or
// (DocumentRef, DocumentPage) is set, according to SourceType.
type Page struct {
	ID         string     `json:"id" yaml:"id"`
	UnitID     string     `json:"unit_id" yaml:"unit_id"`
	Index      int        `json:"index" yaml:"index"`
	SourceType SourceType `json:"source_type" yaml:"source_type"`
	ImageRef   string     `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
	// DocumentRef and the zero-based DocumentPage locate a document page.
	DocumentRef  string `json:"document_ref,omitempty" yaml:"document_ref,omitempty"`
	DocumentPage int    `json:"document_page" yaml:"document_page"`
}

// HistoryRecord is one completed recognition-translation run.
type HistoryRecord struct {
	ID             string    `json:"id" yaml:"id"`
	SourceImageRef string    `json:"source_image_ref,omitempty" yaml:"source_image_ref,omitempty"`
	RecognizedText string    `json:"recognized_text" yaml:"recognized_text"`
	TranslatedText string    `json:"translated_text" yaml:"translated_text"`
	SourceLanguage string    `json:"source_language,omitempty" yaml:"source_language,omitempty"`
	TargetLanguage string    `json:"target_language,omitempty" yaml:"target_language,omitempty"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
}

// Album is a named collection of units drawn from any items.
type Album struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UnitCount int       `json:"unit_count" yaml:"unit_count"`
}

// AlbumEntry is a unit listed in an album together with its item title.
type AlbumEntry struct {
	Unit      Unit      `json:"unit" yaml:"unit"`
	ItemTitle string    `json:"item_title" yaml:"item_title"`
	AddedAt   time.Time `json:"added_at" yaml:"added_at"`
}

// NewID returns a new lexically sortable identifier.
func NewID() string {
	return ulid.Make().String()
}

// Fixed-width UTC layout so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(timeLayout, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
