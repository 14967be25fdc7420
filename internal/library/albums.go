package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mangashelf/internal/services"
)

// CreateAlbum stores a new, empty album.
func (s *Store) CreateAlbum(ctx context.Context, name string) (*Album, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "library", "create album", "album name must not be empty", nil)
	}
	album := &Album{ID: NewID(), Name: name, CreatedAt: time.Now().UTC()}
	err := s.Update(ctx, func(tx *Tx) error {
		if _, err := tx.tx.ExecContext(ctx,
			`INSERT INTO albums (id, name, created_at) VALUES (?, ?, ?)`,
			album.ID, album.Name, formatTime(album.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert album: %w", err)
		}
		tx.touch(topicAlbums)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return album, nil
}

// DeleteAlbum removes the album and its memberships. Units are untouched.
func (s *Store) DeleteAlbum(ctx context.Context, id string) error {
	return s.Update(ctx, func(tx *Tx) error {
		if _, err := tx.tx.ExecContext(ctx, `DELETE FROM album_units WHERE album_id = ?`, id); err != nil {
			return fmt.Errorf("delete album memberships: %w", err)
		}
		res, err := tx.tx.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete album: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound("album", id)
		}
		tx.touch(topicAlbums, albumTopic(id))
		return nil
	})
}

// AddUnitsToAlbum adds unitIDs to the album. Units already present are
// reported as skipped; an unknown unit aborts the whole call.
func (s *Store) AddUnitsToAlbum(ctx context.Context, albumID string, unitIDs []string) (added, skipped int, err error) {
	err = s.Update(ctx, func(tx *Tx) error {
		added, skipped = 0, 0
		var exists int
		if err := tx.tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM albums WHERE id = ?`, albumID).Scan(&exists); err != nil {
			return fmt.Errorf("check album: %w", err)
		}
		if exists == 0 {
			return notFound("album", albumID)
		}
		now := formatTime(time.Now().UTC())
		for _, unitID := range unitIDs {
			var found string
			err := tx.tx.QueryRowContext(ctx, `SELECT id FROM units WHERE id = ?`, unitID).Scan(&found)
			if errors.Is(err, sql.ErrNoRows) {
				return notFound("unit", unitID)
			}
			if err != nil {
				return fmt.Errorf("check unit: %w", err)
			}
			res, err := tx.tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO album_units (album_id, unit_id, added_at) VALUES (?, ?, ?)`,
				albumID, unitID, now)
			if err != nil {
				return fmt.Errorf("add unit %s: %w", unitID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				skipped++
				continue
			}
			added++
		}
		if added > 0 {
			tx.touch(topicAlbums, albumTopic(albumID))
		}
		return nil
	})
	return added, skipped, err
}

// RemoveUnitFromAlbum drops one membership.
func (s *Store) RemoveUnitFromAlbum(ctx context.Context, albumID, unitID string) error {
	return s.Update(ctx, func(tx *Tx) error {
		res, err := tx.tx.ExecContext(ctx,
			`DELETE FROM album_units WHERE album_id = ? AND unit_id = ?`, albumID, unitID)
		if err != nil {
			return fmt.Errorf("remove album unit: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound("album entry", albumID+"/"+unitID)
		}
		tx.touch(topicAlbums, albumTopic(albumID))
		return nil
	})
}

// GetAlbum returns the album with id or services.ErrNotFound.
func (s *Store) GetAlbum(ctx context.Context, id string) (*Album, error) {
	var (
		album     Album
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT a.id, a.name, a.created_at, (SELECT COUNT(1) FROM album_units au WHERE au.album_id = a.id)
		 FROM albums a WHERE a.id = ?`, id,
	).Scan(&album.ID, &album.Name, &createdAt, &album.UnitCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("album", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get album: %w", err)
	}
	album.CreatedAt = parseTime(createdAt)
	return &album, nil
}

// ListAlbums returns albums ordered by name.
func (s *Store) ListAlbums(ctx context.Context) ([]*Album, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.created_at, (SELECT COUNT(1) FROM album_units au WHERE au.album_id = a.id)
		 FROM albums a ORDER BY a.name COLLATE NOCASE, a.id`)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	var albums []*Album
	for rows.Next() {
		var (
			album     Album
			createdAt string
		)
		if err := rows.Scan(&album.ID, &album.Name, &createdAt, &album.UnitCount); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		album.CreatedAt = parseTime(createdAt)
		albums = append(albums, &album)
	}
	return albums, rows.Err()
}

// ListAlbumUnits returns the album's units in the order they were added.
func (s *Store) ListAlbumUnits(ctx context.Context, albumID string) ([]*AlbumEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+unitColumns+`, i.title, au.added_at
		 FROM album_units au
		 JOIN units u ON u.id = au.unit_id
		 JOIN items i ON i.id = u.item_id
		 WHERE au.album_id = ?
		 ORDER BY au.added_at, i.title, u.sequence_number`, albumID)
	if err != nil {
		return nil, fmt.Errorf("list album units: %w", err)
	}
	defer rows.Close()

	var entries []*AlbumEntry
	for rows.Next() {
		var (
			entry     AlbumEntry
			title     sql.NullString
			createdAt string
			addedAt   string
		)
		if err := rows.Scan(&entry.Unit.ID, &entry.Unit.ItemID, &entry.Unit.SequenceNumber, &title, &createdAt,
			&entry.Unit.PageCount, &entry.ItemTitle, &addedAt); err != nil {
			return nil, fmt.Errorf("scan album unit: %w", err)
		}
		entry.Unit.Title = title.String
		entry.Unit.CreatedAt = parseTime(createdAt)
		entry.AddedAt = parseTime(addedAt)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
