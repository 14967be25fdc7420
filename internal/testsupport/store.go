package testsupport

import (
	"context"
	"fmt"
	"testing"

	"mangashelf/internal/config"
	"mangashelf/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewItem stores an item with one unit per entry in pageCounts, each unit
// holding that many image pages.
func NewItem(t testing.TB, store *library.Store, title string, pageCounts ...int) *library.Item {
	t.Helper()

	ctx := context.Background()
	item := &library.Item{Title: title}
	err := store.Update(ctx, func(tx *library.Tx) error {
		if err := tx.InsertItem(ctx, item); err != nil {
			return err
		}
		for i, count := range pageCounts {
			unit := &library.Unit{ItemID: item.ID, SequenceNumber: i + 1}
			if err := tx.InsertUnit(ctx, unit); err != nil {
				return err
			}
			for p := 0; p < count; p++ {
				page := &library.Page{
					UnitID:     unit.ID,
					Index:      p,
					SourceType: library.SourceImage,
					ImageRef:   fmt.Sprintf("/images/%s/%d/%d.png", title, i+1, p),
				}
				if err := tx.InsertPage(ctx, page); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed item %q: %v", title, err)
	}
	return item
}
