package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Henry5410858/design-sub000/core"
)

func TestRecordLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.GetRecord(ctx, "missing"); !errors.Is(err, core.ErrRecordNotFound) {
		t.Fatalf("GetRecord(missing) error = %v, want ErrRecordNotFound", err)
	}

	rec := &core.DesignRecord{Key: "d1", Kind: core.KindFlyer, Background: "#ffffff", CanvasWidth: 800, CanvasHeight: 600}
	if err := store.UpsertRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRecord(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != core.KindFlyer || got.CanvasWidth != 800 {
		t.Errorf("stored record differs: %+v", got)
	}

	// The store hands out copies; mutating a result must not leak back.
	got.Background = "#000000"
	again, _ := store.GetRecord(ctx, "d1")
	if again.Background != "#ffffff" {
		t.Error("GetRecord() result aliases store state")
	}

	if err := store.DeleteRecord(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetRecord(ctx, "d1"); !errors.Is(err, core.ErrRecordNotFound) {
		t.Error("record survived delete")
	}
	// Double delete is fine.
	if err := store.DeleteRecord(ctx, "d1"); err != nil {
		t.Errorf("DeleteRecord() of missing key failed: %v", err)
	}
}

func TestBlobLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	p1, err := store.PutBlob(ctx, []byte("payload one"))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := store.PutBlob(ctx, []byte("payload two"))
	if err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Fatal("PutBlob() returned the same pointer twice")
	}

	data, err := store.GetBlob(ctx, p1)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload one" {
		t.Errorf("GetBlob() = %q", data)
	}

	if err := store.DeleteBlob(ctx, p1); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetBlob(ctx, p1); !errors.Is(err, core.ErrBlobNotFound) {
		t.Errorf("GetBlob() after delete error = %v, want ErrBlobNotFound", err)
	}
}

func TestClearPointer_OnlyWhenMatching(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	rec := &core.DesignRecord{Key: "d1", Pointer: "ptr-a"}
	if err := store.UpsertRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}

	// A stale clear (the record has moved on) must be a no-op.
	if err := store.ClearPointer(ctx, "d1", "ptr-old"); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetRecord(ctx, "d1")
	if got.Pointer != "ptr-a" {
		t.Fatal("ClearPointer() with a mismatched pointer cleared anyway")
	}

	if err := store.ClearPointer(ctx, "d1", "ptr-a"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetRecord(ctx, "d1")
	if got.Pointer != "" {
		t.Error("ClearPointer() with the matching pointer did not clear")
	}

	// Unknown keys are ignored.
	if err := store.ClearPointer(ctx, "missing", "ptr"); err != nil {
		t.Errorf("ClearPointer() on missing key failed: %v", err)
	}
}

func TestListRecords_StripsInlineObjects(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := &core.DesignRecord{
			Key:           fmt.Sprintf("d%d", i),
			InlineObjects: []byte(`[{"type":"rect","id":"r"}]`),
		}
		if err := store.UpsertRecord(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("ListRecords() returned %d, want 3", len(recs))
	}
	for _, rec := range recs {
		if rec.InlineObjects != nil {
			t.Errorf("listing for %s carries inline objects", rec.Key)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("d%d", n)
			rec := &core.DesignRecord{Key: key}
			if err := store.UpsertRecord(ctx, rec); err != nil {
				t.Errorf("concurrent upsert: %v", err)
			}
			if _, err := store.PutBlob(ctx, []byte(key)); err != nil {
				t.Errorf("concurrent put: %v", err)
			}
			if _, err := store.GetRecord(ctx, key); err != nil {
				t.Errorf("concurrent get: %v", err)
			}
		}(i)
	}
	wg.Wait()

	recs, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 20 {
		t.Errorf("ListRecords() returned %d, want 20", len(recs))
	}
}

func TestCache_QuotaAccounting(t *testing.T) {
	cache := NewCache(10)
	ctx := context.Background()

	if err := cache.Put(ctx, "a", []byte("12345")); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(ctx, "b", []byte("123456")); !errors.Is(err, core.ErrQuotaExceeded) {
		t.Fatalf("over-quota Put() error = %v, want ErrQuotaExceeded", err)
	}

	// Replacing an entry frees its previous size first.
	if err := cache.Put(ctx, "a", []byte("1234567890")); err != nil {
		t.Errorf("replacing within quota failed: %v", err)
	}

	data, err := cache.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1234567890" {
		t.Errorf("Get() = %q", data)
	}

	if _, err := cache.Get(ctx, "missing"); err == nil {
		t.Error("Get() of missing key should fail")
	}
}
