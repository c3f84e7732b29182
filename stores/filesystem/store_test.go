package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Henry5410858/design-sub000/core"
)

func TestRecordLifecycle(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	if _, err := store.GetRecord(ctx, "missing"); !errors.Is(err, core.ErrRecordNotFound) {
		t.Fatalf("GetRecord(missing) error = %v, want ErrRecordNotFound", err)
	}

	rec := &core.DesignRecord{
		Key:           "d1",
		Pointer:       "ptr-1",
		Kind:          core.KindBanner,
		Background:    "#123456",
		CanvasWidth:   1200,
		CanvasHeight:  400,
		InlineObjects: []byte(`[{"type":"circle","id":"c","radius":5}]`),
		Revision:      3,
	}
	if err := store.UpsertRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRecord(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Pointer != "ptr-1" || got.Kind != core.KindBanner || got.Revision != 3 {
		t.Errorf("round-tripped record differs: %+v", got)
	}
	if string(got.InlineObjects) != string(rec.InlineObjects) {
		t.Errorf("inline objects lost: %s", got.InlineObjects)
	}

	if err := store.DeleteRecord(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteRecord(ctx, "d1"); err != nil {
		t.Errorf("double delete failed: %v", err)
	}
}

func TestBlobLifecycle(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	pointer, err := store.PutBlob(ctx, []byte("bulk payload"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := store.GetBlob(ctx, pointer)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "bulk payload" {
		t.Errorf("GetBlob() = %q", data)
	}

	if err := store.DeleteBlob(ctx, pointer); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetBlob(ctx, pointer); !errors.Is(err, core.ErrBlobNotFound) {
		t.Errorf("GetBlob() after delete error = %v, want ErrBlobNotFound", err)
	}
}

func TestClearPointer(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	if err := store.UpsertRecord(ctx, &core.DesignRecord{Key: "d1", Pointer: "p1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.ClearPointer(ctx, "d1", "stale"); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetRecord(ctx, "d1")
	if got.Pointer != "p1" {
		t.Fatal("mismatched ClearPointer() cleared the pointer")
	}
	if err := store.ClearPointer(ctx, "d1", "p1"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetRecord(ctx, "d1")
	if got.Pointer != "" {
		t.Error("matching ClearPointer() left the pointer in place")
	}
	if err := store.ClearPointer(ctx, "missing", "p"); err != nil {
		t.Errorf("ClearPointer() on a missing record failed: %v", err)
	}
}

func TestUnsafeIdentifiersRejected(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", ".", "..", "../escape", "a/b", `a\b`} {
		if _, err := store.GetRecord(ctx, id); err == nil || errors.Is(err, core.ErrRecordNotFound) {
			t.Errorf("GetRecord(%q) should reject the identifier", id)
		}
		if err := store.UpsertRecord(ctx, &core.DesignRecord{Key: id}); err == nil {
			t.Errorf("UpsertRecord(%q) should reject the identifier", id)
		}
		if _, err := store.GetBlob(ctx, id); err == nil || errors.Is(err, core.ErrBlobNotFound) {
			t.Errorf("GetBlob(%q) should reject the identifier", id)
		}
	}
}

func TestListRecords_SkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		if err := store.UpsertRecord(ctx, &core.DesignRecord{Key: key}); err != nil {
			t.Fatal(err)
		}
	}
	// A corrupt file in the records directory must not fail the listing.
	if err := os.WriteFile(filepath.Join(dir, "records", "junk.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	// Non-record files are ignored outright.
	if err := os.WriteFile(filepath.Join(dir, "records", "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	recs, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Errorf("ListRecords() returned %d records, want 2", len(recs))
	}
}

func TestPersistenceAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewStore(dir)
	if err := first.UpsertRecord(ctx, &core.DesignRecord{Key: "d1", Background: "#abcdef"}); err != nil {
		t.Fatal(err)
	}
	pointer, err := first.PutBlob(ctx, []byte("survives restart"))
	if err != nil {
		t.Fatal(err)
	}

	second := NewStore(dir)
	rec, err := second.GetRecord(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Background != "#abcdef" {
		t.Errorf("record did not survive reopen: %+v", rec)
	}
	data, err := second.GetBlob(ctx, pointer)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "survives restart" {
		t.Errorf("blob did not survive reopen: %q", data)
	}
}
