package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndByDocument(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	entries := []Entry{
		{DocumentPath: "/work/a.sdlxliff", SegmentID: "1", OldTarget: "alt", NewTarget: "neu", Status: "RejectedTranslation"},
		{DocumentPath: "/work/a.sdlxliff", SegmentID: "2", OldTarget: "x", NewTarget: "y", Status: "RejectedTranslation", Warnings: 1},
		{DocumentPath: "/work/b.sdlxliff", SegmentID: "1", OldTarget: "p", NewTarget: "q", Status: "Translated"},
	}
	for _, e := range entries {
		id, err := j.Record(ctx, e)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if id <= 0 {
			t.Errorf("Expected positive journal id, got %d", id)
		}
	}

	got, err := j.ByDocument(ctx, "/work/a.sdlxliff", 0)
	if err != nil {
		t.Fatalf("ByDocument failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	// Newest first.
	if got[0].SegmentID != "2" || got[1].SegmentID != "1" {
		t.Errorf("Expected newest-first order, got %s then %s", got[0].SegmentID, got[1].SegmentID)
	}
	if got[0].Warnings != 1 {
		t.Errorf("Expected warnings 1, got %d", got[0].Warnings)
	}
	if got[0].RecordedAt.IsZero() {
		t.Error("Expected RecordedAt to be populated")
	}
}

func TestByDocumentLimit(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := j.Record(ctx, Entry{
			DocumentPath: "/work/a.sdlxliff",
			SegmentID:    "1",
			NewTarget:    "rev",
			Status:       "RejectedTranslation",
		}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := j.ByDocument(ctx, "/work/a.sdlxliff", 3)
	if err != nil {
		t.Fatalf("ByDocument failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Expected 3 entries with limit, got %d", len(got))
	}
}

func TestBySegment(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	if _, err := j.Record(ctx, Entry{DocumentPath: "/work/a.sdlxliff", SegmentID: "1", NewTarget: "first", Status: "RejectedTranslation"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := j.Record(ctx, Entry{DocumentPath: "/work/a.sdlxliff", SegmentID: "1", NewTarget: "second", Status: "RejectedTranslation"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := j.Record(ctx, Entry{DocumentPath: "/work/a.sdlxliff", SegmentID: "2", NewTarget: "other", Status: "Draft"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := j.BySegment(ctx, "/work/a.sdlxliff", "1")
	if err != nil {
		t.Fatalf("BySegment failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].NewTarget != "second" {
		t.Errorf("Expected newest entry first, got %q", got[0].NewTarget)
	}
}

func TestRecordKeepsExplicitTimestamp(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if _, err := j.Record(ctx, Entry{
		DocumentPath: "/work/a.sdlxliff",
		SegmentID:    "1",
		NewTarget:    "rev",
		Status:       "RejectedTranslation",
		RecordedAt:   at,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := j.ByDocument(ctx, "/work/a.sdlxliff", 1)
	if err != nil {
		t.Fatalf("ByDocument failed: %v", err)
	}
	if !got[0].RecordedAt.Equal(at) {
		t.Errorf("Expected recorded_at %v, got %v", at, got[0].RecordedAt)
	}
}

func TestDriverType(t *testing.T) {
	dt := DriverType()
	if dt != "purego" && dt != "cgo" {
		t.Errorf("Unexpected driver type %q", dt)
	}
}
