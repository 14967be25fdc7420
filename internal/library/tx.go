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

// Tx is the write handle passed to Store.Update callbacks.
type Tx struct {
	tx     *sql.Tx
	topics map[string]struct{}
}

func (t *Tx) touch(topics ...string) {
	for _, topic := range topics {
		t.topics[topic] = struct{}{}
	}
}

func (t *Tx) touched() []string {
	out := make([]string, 0, len(t.topics))
	for topic := range t.topics {
		out = append(out, topic)
	}
	return out
}

// InsertItem stores item, assigning ID and CreatedAt when unset.
func (t *Tx) InsertItem(ctx context.Context, item *Item) error {
	if strings.TrimSpace(item.Title) == "" {
		return services.Wrap(services.ErrValidation, "library", "insert item", "title must not be empty", nil)
	}
	if item.ID == "" {
		item.ID = NewID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO items (id, title, description, cover_ref, created_at) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Description, nullableString(item.CoverRef), formatTime(item.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	t.touch(topicItems)
	return nil
}

// ItemExists reports whether an item with id is present.
func (t *Tx) ItemExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM items WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check item: %w", err)
	}
	return n > 0, nil
}

// NextSequenceNumber returns one past the highest sequence number used by
// itemID's units (1 for an item without units). Inside an immediate
// transaction the result cannot be claimed by a concurrent writer before commit.
func (t *Tx) NextSequenceNumber(ctx context.Context, itemID string) (int, error) {
	var current sql.NullInt64
	if err := t.tx.QueryRowContext(ctx,
		`SELECT MAX(sequence_number) FROM units WHERE item_id = ?`, itemID,
	).Scan(&current); err != nil {
		return 0, fmt.Errorf("next sequence number: %w", err)
	}
	return int(current.Int64) + 1, nil
}

// InsertUnit stores unit, assigning ID and CreatedAt when unset.
func (t *Tx) InsertUnit(ctx context.Context, unit *Unit) error {
	if unit.SequenceNumber < 1 {
		return services.Wrap(services.ErrValidation, "library", "insert unit",
			fmt.Sprintf("sequence number %d must be positive", unit.SequenceNumber), nil)
	}
	if unit.ID == "" {
		unit.ID = NewID()
	}
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = time.Now().UTC()
	}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO units (id, item_id, sequence_number, title, created_at) VALUES (?, ?, ?, ?, ?)`,
		unit.ID, unit.ItemID, unit.SequenceNumber, nullableString(unit.Title), formatTime(unit.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert unit: %w", err)
	}
	t.touch(topicItems, unitsTopic(unit.ItemID))
	return nil
}

// InsertPage stores page, assigning ID when unset.
func (t *Tx) InsertPage(ctx context.Context, page *Page) error {
	if page.ID == "" {
		page.ID = NewID()
	}
	var imageRef, documentRef, documentPage any
	switch page.SourceType {
	case SourceImage:
		imageRef = page.ImageRef
	case SourceDocumentPage:
		documentRef = page.DocumentRef
		documentPage = page.DocumentPage
	default:
		return services.Wrap(services.ErrValidation, "library", "insert page",
			fmt.Sprintf("unknown source type %q", page.SourceType), nil)
	}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO pages (id, unit_id, page_index, source_type, image_ref, document_ref, document_page)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		page.ID, page.UnitID, page.Index, string(page.SourceType), imageRef, documentRef, documentPage,
	); err != nil {
		return fmt.Errorf("insert page %d: %w", page.Index, err)
	}
	t.touch(pagesTopic(page.UnitID))
	return nil
}

// DeleteItem removes the item with every unit, page, and album membership it
// owns. History is untouched.
func (t *Tx) DeleteItem(ctx context.Context, id string) error {
	unitIDs, err := t.queryIDs(ctx, `SELECT id FROM units WHERE item_id = ?`, id)
	if err != nil {
		return err
	}
	albumIDs, err := t.queryIDs(ctx,
		`SELECT DISTINCT album_id FROM album_units WHERE unit_id IN (SELECT id FROM units WHERE item_id = ?)`, id)
	if err != nil {
		return err
	}
	steps := []struct {
		name  string
		query string
	}{
		{"album memberships", `DELETE FROM album_units WHERE unit_id IN (SELECT id FROM units WHERE item_id = ?)`},
		{"pages", `DELETE FROM pages WHERE unit_id IN (SELECT id FROM units WHERE item_id = ?)`},
		{"units", `DELETE FROM units WHERE item_id = ?`},
	}
	for _, step := range steps {
		if _, err := t.tx.ExecContext(ctx, step.query, id); err != nil {
			return fmt.Errorf("delete %s of item %s: %w", step.name, id, err)
		}
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("item", id)
	}

	t.touch(topicItems, unitsTopic(id))
	for _, unitID := range unitIDs {
		t.touch(pagesTopic(unitID))
	}
	t.touchAlbums(albumIDs)
	return nil
}

// DeleteUnit removes the unit with its pages and album memberships.
func (t *Tx) DeleteUnit(ctx context.Context, id string) error {
	var itemID string
	err := t.tx.QueryRowContext(ctx, `SELECT item_id FROM units WHERE id = ?`, id).Scan(&itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("unit", id)
	}
	if err != nil {
		return fmt.Errorf("lookup unit %s: %w", id, err)
	}
	albumIDs, err := t.queryIDs(ctx, `SELECT album_id FROM album_units WHERE unit_id = ?`, id)
	if err != nil {
		return err
	}
	for _, query := range []string{
		`DELETE FROM album_units WHERE unit_id = ?`,
		`DELETE FROM pages WHERE unit_id = ?`,
		`DELETE FROM units WHERE id = ?`,
	} {
		if _, err := t.tx.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("delete unit %s: %w", id, err)
		}
	}
	t.touch(topicItems, unitsTopic(itemID), pagesTopic(id))
	t.touchAlbums(albumIDs)
	return nil
}

func (t *Tx) touchAlbums(albumIDs []string) {
	if len(albumIDs) == 0 {
		return
	}
	t.touch(topicAlbums)
	for _, albumID := range albumIDs {
		t.touch(albumTopic(albumID))
	}
}

func (t *Tx) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
