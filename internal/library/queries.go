package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const itemColumns = `i.id, i.title, i.description, i.cover_ref, i.created_at,
	(SELECT COUNT(1) FROM units u WHERE u.item_id = i.id)`

const unitColumns = `u.id, u.item_id, u.sequence_number, u.title, u.created_at,
	(SELECT COUNT(1) FROM pages p WHERE p.unit_id = u.id)`

const pageColumns = `id, unit_id, page_index, source_type, image_ref, document_ref, document_page`

type rowScanner interface {
	Scan(dest ...any) error
}

// GetItem returns the item with id or services.ErrNotFound.
func (s *Store) GetItem(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items i WHERE i.id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListItems returns every item, newest first.
func (s *Store) ListItems(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items i ORDER BY i.created_at DESC, i.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetUnit returns the unit with id or services.ErrNotFound.
func (s *Store) GetUnit(ctx context.Context, id string) (*Unit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units u WHERE u.id = ?`, id)
	unit, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("unit", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return unit, nil
}

// ListUnits returns itemID's units in ascending sequence order. An unknown
// item yields an empty list.
func (s *Store) ListUnits(ctx context.Context, itemID string) ([]*Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+unitColumns+` FROM units u WHERE u.item_id = ? ORDER BY u.sequence_number`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []*Unit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// ListPages returns unitID's pages in ascending index order.
func (s *Store) ListPages(ctx context.Context, unitID string) ([]*Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE unit_id = ? ORDER BY page_index`, unitID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []*Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item      Item
		cover     sql.NullString
		createdAt string
	)
	if err := row.Scan(&item.ID, &item.Title, &item.Description, &cover, &createdAt, &item.UnitCount); err != nil {
		return nil, err
	}
	item.CoverRef = cover.String
	item.CreatedAt = parseTime(createdAt)
	return &item, nil
}

func scanUnit(row rowScanner) (*Unit, error) {
	var (
		unit      Unit
		title     sql.NullString
		createdAt string
	)
	if err := row.Scan(&unit.ID, &unit.ItemID, &unit.SequenceNumber, &title, &createdAt, &unit.PageCount); err != nil {
		return nil, err
	}
	unit.Title = title.String
	unit.CreatedAt = parseTime(createdAt)
	return &unit, nil
}

func scanPage(row rowScanner) (*Page, error) {
	var (
		page         Page
		sourceType   string
		imageRef     sql.NullString
		documentRef  sql.NullString
		documentPage sql.NullInt64
	)
	if err := row.Scan(&page.ID, &page.UnitID, &page.Index, &sourceType, &imageRef, &documentRef, &documentPage); err != nil {
		return nil, err
	}
	page.SourceType = SourceType(sourceType)
	page.ImageRef = imageRef.String
	page.DocumentRef = documentRef.String
	page.DocumentPage = int(documentPage.Int64)
	return &page, nil
}
