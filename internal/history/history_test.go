package history_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mangashelf/internal/history"
	"mangashelf/internal/library"
	"mangashelf/internal/services"
	"mangashelf/internal/testsupport"
)

func seed(t *testing.T, log *history.Log, texts ...string) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range texts {
		err := log.InsertHistory(context.Background(), &library.HistoryRecord{
			SourceImageRef: text + ".png",
			RecognizedText: text,
			TranslatedText: "vi:" + text,
			SourceLanguage: "ja",
			TargetLanguage: "vi",
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertHistory: %v", err)
		}
	}
}

func TestListNewestFirst(t *testing.T) {
	log := history.New(testsupport.MustOpenStore(t, testsupport.NewConfig(t)))
	seed(t, log, "first", "second", "third")

	records, err := log.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 || records[0].RecognizedText != "third" || records[1].RecognizedText != "second" {
		t.Fatalf("unexpected order: %+v", records)
	}
}

func TestInsertStampsMissingTimestamp(t *testing.T) {
	log := history.New(testsupport.MustOpenStore(t, testsupport.NewConfig(t)))
	rec := &library.HistoryRecord{RecognizedText: "x", TranslatedText: "y"}
	before := time.Now().UTC()
	if err := log.InsertHistory(context.Background(), rec); err != nil {
		t.Fatalf("InsertHistory: %v", err)
	}
	if rec.ID == "" || rec.Timestamp.Before(before) {
		t.Fatalf("record not stamped: %+v", rec)
	}
}

func TestExportRoundTrip(t *testing.T) {
	for _, format := range []history.Format{history.FormatYAML, history.FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			log := history.New(testsupport.MustOpenStore(t, testsupport.NewConfig(t)))
			seed(t, log, "こんにちは", "ありがとう")

			var buf bytes.Buffer
			n, err := log.Export(context.Background(), &buf, format)
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			if n != 2 {
				t.Fatalf("exported %d, want 2", n)
			}

			records, err := history.Import(&buf, format)
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("imported %d records", len(records))
			}
			if records[0].RecognizedText != "こんにちは" || records[1].TranslatedText != "vi:ありがとう" {
				t.Fatalf("unexpected records: %+v %+v", records[0], records[1])
			}
			if !records[0].Timestamp.Before(records[1].Timestamp) {
				t.Fatal("export should be oldest first")
			}
		})
	}
}

func TestExportEmptyYAML(t *testing.T) {
	log := history.New(testsupport.MustOpenStore(t, testsupport.NewConfig(t)))
	var buf bytes.Buffer
	if _, err := log.Export(context.Background(), &buf, history.FormatYAML); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(buf.String(), "count: 0") || !strings.Contains(buf.String(), "records: []") {
		t.Fatalf("unexpected empty export:\n%s", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]history.Format{"yaml": history.FormatYAML, "YML": history.FormatYAML, "json": history.FormatJSON}
	for in, want := range tests {
		got, err := history.ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := history.ParseFormat("csv"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWatchSeesAppends(t *testing.T) {
	log := history.New(testsupport.MustOpenStore(t, testsupport.NewConfig(t)))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := log.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if initial := <-updates; len(initial) != 0 {
		t.Fatalf("initial snapshot = %d records", len(initial))
	}
	seed(t, log, "one")

	timeout := time.After(5 * time.Second)
	for {
		select {
		case snap := <-updates:
			if len(snap) == 1 && snap[0].RecognizedText == "one" {
				return
			}
		case <-timeout:
			t.Fatal("watch never delivered the appended record")
		}
	}
}

func TestAppendImportedRecords(t *testing.T) {
	source := history.New(testsupport.MustOpenStore(t, testsupport.NewConfig(t)))
	seed(t, source, "いただきます", "ごちそうさま")
	var buf bytes.Buffer
	if _, err := source.Export(context.Background(), &buf, history.FormatJSON); err != nil {
		t.Fatalf("Export: %v", err)
	}
	records, err := history.Import(&buf, history.FormatJSON)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	exportedIDs := []string{records[0].ID, records[1].ID}

	target := history.New(testsupport.MustOpenStore(t, testsupport.NewConfig(t)))
	seed(t, target, "おやすみ")
	for round := 0; round < 2; round++ {
		n, err := target.Append(context.Background(), records)
		if err != nil {
			t.Fatalf("Append round %d: %v", round, err)
		}
		if n != 2 {
			t.Fatalf("appended %d, want 2", n)
		}
	}

	all, err := target.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("history has %d records, want 5", len(all))
	}
	for _, rec := range all {
		if rec.ID == exportedIDs[0] || rec.ID == exportedIDs[1] {
			t.Fatalf("imported record kept exported id %s", rec.ID)
		}
	}
	want := time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)
	if !all[0].Timestamp.Equal(want) || all[0].RecognizedText != "ごちそうさま" {
		t.Fatalf("newest record = %+v, want exported timestamp %s", all[0], want)
	}
}

func TestAppendRejectsNilRecordAtomically(t *testing.T) {
	log := history.New(testsupport.MustOpenStore(t, testsupport.NewConfig(t)))
	records := []*library.HistoryRecord{
		{RecognizedText: "はい", TranslatedText: "vâng"},
		nil,
	}
	if _, err := log.Append(context.Background(), records); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Append error = %v, want validation", err)
	}
	all, err := log.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("partial import left %d records", len(all))
	}
}
