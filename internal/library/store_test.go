package library_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mangashelf/internal/library"
	"mangashelf/internal/services"
	"mangashelf/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.Path() != cfg.DatabasePath() {
		t.Fatalf("path = %q, want %q", store.Path(), cfg.DatabasePath())
	}
	testsupport.NewItem(t, store, "Persisted", 2)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := library.OpenPath(filepath.Join(cfg.Paths.DataDir, "library.db"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	items, err := reopened.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Persisted" || items[0].UnitCount != 1 {
		t.Fatalf("unexpected items after reopen: %#v", items)
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Update(ctx, func(tx *library.Tx) error {
		if err := tx.InsertItem(ctx, &library.Item{Title: "Ghost"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !errors.Is(err, services.ErrStorageWrite) {
		t.Fatalf("expected storage write marker, got %v", err)
	}
	items, err := store.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected rollback, found %d items", len(items))
	}
}

func TestUpdatePreservesTaxonomyMarkers(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	err := store.Update(context.Background(), func(tx *library.Tx) error {
		return tx.DeleteItem(context.Background(), "missing")
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if errors.Is(err, services.ErrStorageWrite) {
		t.Fatalf("not found should not be reclassified: %v", err)
	}
}

func TestInsertRejectsInvalidRecords(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "Series", 1)

	tests := []struct {
		name string
		fn   func(tx *library.Tx) error
	}{
		{"blank title", func(tx *library.Tx) error {
			return tx.InsertItem(ctx, &library.Item{Title: "   "})
		}},
		{"zero sequence", func(tx *library.Tx) error {
			return tx.InsertUnit(ctx, &library.Unit{ItemID: item.ID, SequenceNumber: 0})
		}},
		{"duplicate sequence", func(tx *library.Tx) error {
			return tx.InsertUnit(ctx, &library.Unit{ItemID: item.ID, SequenceNumber: 1})
		}},
		{"orphan unit", func(tx *library.Tx) error {
			return tx.InsertUnit(ctx, &library.Unit{ItemID: "nope", SequenceNumber: 1})
		}},
		{"unknown source type", func(tx *library.Tx) error {
			return tx.InsertPage(ctx, &library.Page{UnitID: "x", SourceType: "video"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Update(ctx, tt.fn); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDuplicateSequenceIsConstraintConflict(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "Series", 1)

	err := store.Update(ctx, func(tx *library.Tx) error {
		return tx.InsertUnit(ctx, &library.Unit{ItemID: item.ID, SequenceNumber: 1})
	})
	if !library.IsConstraintConflict(err) {
		t.Fatalf("expected constraint conflict, got %v", err)
	}
}

func TestNextSequenceNumber(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	empty := testsupport.NewItem(t, store, "Empty")
	three := testsupport.NewItem(t, store, "Three", 1, 1, 1)

	err := store.Update(ctx, func(tx *library.Tx) error {
		for id, want := range map[string]int{empty.ID: 1, three.ID: 4} {
			got, err := tx.NextSequenceNumber(ctx, id)
			if err != nil {
				return err
			}
			if got != want {
				t.Errorf("NextSequenceNumber(%s) = %d, want %d", id, got, want)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	first := testsupport.NewItem(t, store, "First", 3, 1)
	time.Sleep(2 * time.Millisecond)
	second := testsupport.NewItem(t, store, "Second")

	items, err := store.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 || items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("expected newest first, got %#v", items)
	}
	if items[1].UnitCount != 2 {
		t.Fatalf("unit count = %d", items[1].UnitCount)
	}

	units, err := store.ListUnits(ctx, first.ID)
	if err != nil {
		t.Fatalf("ListUnits: %v", err)
	}
	if len(units) != 2 || units[0].SequenceNumber != 1 || units[1].SequenceNumber != 2 {
		t.Fatalf("unexpected units: %#v", units)
	}
	if units[0].PageCount != 3 {
		t.Fatalf("page count = %d", units[0].PageCount)
	}

	pages, err := store.ListPages(ctx, units[0].ID)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	for i, page := range pages {
		if page.Index != i || page.SourceType != library.SourceImage || page.ImageRef == "" {
			t.Fatalf("page %d unexpected: %#v", i, page)
		}
	}
}

func TestDocumentPagesRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "Doc", 0)
	units, err := store.ListUnits(ctx, item.ID)
	if err != nil || len(units) != 1 {
		t.Fatalf("ListUnits: %v %#v", err, units)
	}

	err = store.Update(ctx, func(tx *library.Tx) error {
		for i := 0; i < 2; i++ {
			page := &library.Page{UnitID: units[0].ID, Index: i, SourceType: library.SourceDocumentPage, DocumentRef: "/b.pdf", DocumentPage: i}
			if err := tx.InsertPage(ctx, page); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert pages: %v", err)
	}
	pages, err := store.ListPages(ctx, units[0].ID)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(pages) != 2 || pages[1].DocumentPage != 1 || pages[1].DocumentRef != "/b.pdf" || pages[1].ImageRef != "" {
		t.Fatalf("unexpected pages: %#v", pages)
	}
}

func TestDeleteItemCascades(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	doomed := testsupport.NewItem(t, store, "Doomed", 2, 2)
	kept := testsupport.NewItem(t, store, "Kept", 1)

	doomedUnits, _ := store.ListUnits(ctx, doomed.ID)
	keptUnits, _ := store.ListUnits(ctx, kept.ID)
	album, err := store.CreateAlbum(ctx, "Favorites")
	if err != nil {
		t.Fatalf("CreateAlbum: %v", err)
	}
	if _, _, err := store.AddUnitsToAlbum(ctx, album.ID, []string{doomedUnits[0].ID, keptUnits[0].ID}); err != nil {
		t.Fatalf("AddUnitsToAlbum: %v", err)
	}
	doomedPages, _ := store.ListPages(ctx, doomedUnits[0].ID)
	for i, text := range []string{"こんにちは", "谢谢"} {
		record := &library.HistoryRecord{
			RecognizedText: text,
			TranslatedText: "xin chào",
			SourceImageRef: doomedPages[i].ImageRef,
		}
		if err := store.InsertHistory(ctx, record); err != nil {
			t.Fatalf("InsertHistory: %v", err)
		}
	}
	historyBefore, err := store.ListHistory(ctx, 0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}

	if err := store.Update(ctx, func(tx *library.Tx) error { return tx.DeleteItem(ctx, doomed.ID) }); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	if _, err := store.GetItem(ctx, doomed.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	for _, unit := range doomedUnits {
		pages, err := store.ListPages(ctx, unit.ID)
		if err != nil || len(pages) != 0 {
			t.Fatalf("pages survived delete: %v %#v", err, pages)
		}
	}
	entries, err := store.ListAlbumUnits(ctx, album.ID)
	if err != nil {
		t.Fatalf("ListAlbumUnits: %v", err)
	}
	if len(entries) != 1 || entries[0].Unit.ID != keptUnits[0].ID || entries[0].ItemTitle != "Kept" {
		t.Fatalf("unexpected album entries: %#v", entries)
	}
	if _, err := store.GetItem(ctx, kept.ID); err != nil {
		t.Fatalf("kept item missing: %v", err)
	}

	if n, err := store.CountHistory(ctx); err != nil || n != len(historyBefore) {
		t.Fatalf("history count after delete = %d (%v), want %d", n, err, len(historyBefore))
	}
	historyAfter, _ := store.ListHistory(ctx, 0)
	for i, record := range historyAfter {
		if record.ID != historyBefore[i].ID || record.SourceImageRef != historyBefore[i].SourceImageRef {
			t.Fatalf("history record %d changed by delete: %#v", i, record)
		}
	}
}

func TestDeleteUnitKeepsItem(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	item := testsupport.NewItem(t, store, "Series", 1, 2)
	units, _ := store.ListUnits(ctx, item.ID)

	if err := store.Update(ctx, func(tx *library.Tx) error { return tx.DeleteUnit(ctx, units[0].ID) }); err != nil {
		t.Fatalf("DeleteUnit: %v", err)
	}
	remaining, _ := store.ListUnits(ctx, item.ID)
	if len(remaining) != 1 || remaining[0].SequenceNumber != 2 {
		t.Fatalf("unexpected remaining units: %#v", remaining)
	}
	err := store.Update(ctx, func(tx *library.Tx) error { return tx.DeleteUnit(ctx, units[0].ID) })
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, text := range []string{"one", "two", "three"} {
		record := &library.HistoryRecord{
			RecognizedText: text,
			TranslatedText: "t-" + text,
			SourceLanguage: "en",
			TargetLanguage: "vi",
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.InsertHistory(ctx, record); err != nil {
			t.Fatalf("InsertHistory: %v", err)
		}
	}
	// Identical content still yields a distinct record.
	if err := store.InsertHistory(ctx, &library.HistoryRecord{RecognizedText: "one", TranslatedText: "t-one", Timestamp: base}); err != nil {
		t.Fatalf("InsertHistory duplicate: %v", err)
	}

	records, err := store.ListHistory(ctx, 0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	if records[0].RecognizedText != "three" || !records[0].Timestamp.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected newest record: %#v", records[0])
	}
	limited, _ := store.ListHistory(ctx, 2)
	if len(limited) != 2 {
		t.Fatalf("limit ignored: %d", len(limited))
	}
	if n, _ := store.CountHistory(ctx); n != 4 {
		t.Fatalf("count = %d", n)
	}
}
