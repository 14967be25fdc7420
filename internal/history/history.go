// Package history is the append-only log of completed recognition runs.
// Records are written by the workflow manager and read by the CLI; there is
// no update or delete.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mangashelf/internal/library"
	"mangashelf/internal/services"
)

// Format selects an export encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml", or "json" in any case.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yaml", "yml", "":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", services.Wrap(services.ErrValidation, "history", "export",
			fmt.Sprintf("unsupported format %q (want yaml or json)", value), nil)
	}
}

// Log wraps the library store's history table.
type Log struct {
	store *library.Store
	now   func() time.Time
}

// New returns a Log over store.
func New(store *library.Store) *Log {
	return &Log{store: store, now: time.Now}
}

// InsertHistory appends record, assigning its ID and, when zero, its
// timestamp.
func (l *Log) InsertHistory(ctx context.Context, record *library.HistoryRecord) error {
	if record == nil {
		return services.Wrap(services.ErrValidation, "history", "append", "record is nil", nil)
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = l.now().UTC()
	}
	return l.store.InsertHistory(ctx, record)
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (l *Log) List(ctx context.Context, limit int) ([]*library.HistoryRecord, error) {
	return l.store.ListHistory(ctx, limit)
}

// Watch streams the full history, newest first, after every append.
func (l *Log) Watch(ctx context.Context) (<-chan []*library.HistoryRecord, error) {
	return l.store.WatchHistory(ctx)
}

type exportDocument struct {
	ExportedAt time.Time                `json:"exported_at" yaml:"exported_at"`
	Count      int                      `json:"count" yaml:"count"`
	Records    []*library.HistoryRecord `json:"records" yaml:"records"`
}

// Export writes every record, oldest first, to w and returns how many were
// written.
func (l *Log) Export(ctx context.Context, w io.Writer, format Format) (int, error) {
	records, err := l.store.ListHistory(ctx, 0)
	if err != nil {
		return 0, err
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	doc := exportDocument{
		ExportedAt: l.now().UTC(),
		Count:      len(records),
		Records:    records,
	}
	if doc.Records == nil {
		doc.Records = []*library.HistoryRecord{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(doc)
		if err == nil {
			err = enc.Close()
		}
	default:
		_, err = ParseFormat(string(format))
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("export history: %w", err)
	}
	return len(records), nil
}

// Import reads an export document produced by Export. Records are returned
// as written; callers decide whether to append them.
func Import(r io.Reader, format Format) ([]*library.HistoryRecord, error) {
	var doc exportDocument
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		_, err = ParseFormat(string(format))
		return nil, err
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "history", "import", "malformed export", err)
	}
	return doc.Records, nil
}

// Append inserts imported records in one transaction. Each record gets a
// fresh ID so re-importing never collides; exported timestamps are kept.
func (l *Log) Append(ctx context.Context, records []*library.HistoryRecord) (int, error) {
	err := l.store.Update(ctx, func(tx *library.Tx) error {
		for i, record := range records {
			if record == nil {
				return services.Wrap(services.ErrValidation, "history", "import",
					fmt.Sprintf("record %d is empty", i), nil)
			}
			record.ID = ""
			if record.Timestamp.IsZero() {
				record.Timestamp = l.now().UTC()
			}
			if err := tx.InsertHistory(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
