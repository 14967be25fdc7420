package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertHistory appends a completed run. Each call creates its own record.
func (s *Store) InsertHistory(ctx context.Context, record *HistoryRecord) error {
	return s.Update(ctx, func(tx *Tx) error {
		return tx.InsertHistory(ctx, record)
	})
}

// InsertHistory stores record, assigning ID and Timestamp when unset.
func (t *Tx) InsertHistory(ctx context.Context, record *HistoryRecord) error {
	if record.ID == "" {
		record.ID = NewID()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO history (id, source_image_ref, recognized_text, translated_text, source_language, target_language, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, nullableString(record.SourceImageRef), record.RecognizedText, record.TranslatedText,
		record.SourceLanguage, record.TargetLanguage, formatTime(record.Timestamp),
	); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	t.touch(topicHistory)
	return nil
}

// ListHistory returns records newest first. limit <= 0 returns everything.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]*HistoryRecord, error) {
	query := `SELECT id, source_image_ref, recognized_text, translated_text, source_language, target_language, created_at
		FROM history ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []*HistoryRecord
	for rows.Next() {
		var (
			record    HistoryRecord
			imageRef  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&record.ID, &imageRef, &record.RecognizedText, &record.TranslatedText,
			&record.SourceLanguage, &record.TargetLanguage, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		record.SourceImageRef = imageRef.String
		record.Timestamp = parseTime(createdAt)
		records = append(records, &record)
	}
	return records, rows.Err()
}

// CountHistory returns the number of stored records.
func (s *Store) CountHistory(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
