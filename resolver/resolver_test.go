package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Henry5410858/design-sub000/codec"
	"github.com/Henry5410858/design-sub000/core"
	"github.com/Henry5410858/design-sub000/stores/memory"
)

func testDocument(t *testing.T, objects int) *core.Document {
	t.Helper()
	doc, err := core.NewDocument(core.KindFlyer, 800, 600)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < objects; i++ {
		doc.Insert(&core.Rect{
			ObjectBase: core.ObjectBase{X: float64(i * 10), Fill: "#336699"},
			Width:      20, Height: 20,
		})
	}
	return doc
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store)
	ctx := context.Background()

	doc := testDocument(t, 3)
	saved, err := res.Save(ctx, "d1", doc, "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if saved.Pointer == "" {
		t.Fatal("Save() returned empty pointer")
	}
	if saved.Revision != 1 {
		t.Errorf("first save revision = %d, want 1", saved.Revision)
	}

	got, err := res.Load(ctx, "d1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Source != SourceBlob {
		t.Errorf("source = %s, want %s", got.Source, SourceBlob)
	}
	if got.Document.Len() != 3 {
		t.Errorf("loaded %d objects, want 3", got.Document.Len())
	}
	if got.Record.Thumbnail != "data:image/png;base64,AAAA" {
		t.Errorf("thumbnail lost: %q", got.Record.Thumbnail)
	}
}

func TestLoad_MissingRecordIsHardFailure(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store)

	_, err := res.Load(context.Background(), "nope")
	if !errors.Is(err, core.ErrRecordNotFound) {
		t.Errorf("Load() error = %v, want ErrRecordNotFound", err)
	}
}

func TestLoad_NoPointerDecodesInline(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store)
	ctx := context.Background()

	inline, _ := json.Marshal([]map[string]any{
		{"type": "circle", "id": "c1", "radius": 10.0},
	})
	rec := &core.DesignRecord{
		Key:           "d1",
		Kind:          core.KindBadge,
		Background:    "#eeeeee",
		CanvasWidth:   400,
		CanvasHeight:  400,
		InlineObjects: inline,
	}
	if err := store.UpsertRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := res.Load(ctx, "d1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Source != SourceInline {
		t.Errorf("source = %s, want %s", got.Source, SourceInline)
	}
	if got.Document.Len() != 1 {
		t.Fatalf("inline decode yielded %d objects, want 1", got.Document.Len())
	}
	if _, ok := got.Document.Objects()[0].(*core.Circle); !ok {
		t.Errorf("inline object has wrong type %T", got.Document.Objects()[0])
	}
}

func TestLoad_DanglingPointerFallsBackAndClears(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store)
	ctx := context.Background()

	doc := testDocument(t, 2)
	saved, err := res.Save(ctx, "d1", doc, "")
	if err != nil {
		t.Fatal(err)
	}
	// Simulate the blob disappearing out from under the record.
	if err := store.DeleteBlob(ctx, saved.Pointer); err != nil {
		t.Fatal(err)
	}

	got, err := res.Load(ctx, "d1")
	if err != nil {
		t.Fatalf("Load() with dangling pointer failed: %v", err)
	}
	if got.Source != SourceInline {
		t.Errorf("source = %s, want %s", got.Source, SourceInline)
	}
	// The inline duplicate carries the full (small) object list.
	if got.Document.Len() != 2 {
		t.Errorf("inline fallback yielded %d objects, want 2", got.Document.Len())
	}

	// The dangling pointer is cleared asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec, err := store.GetRecord(ctx, "d1")
		if err != nil {
			t.Fatal(err)
		}
		if rec.Pointer == "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("dangling pointer was never cleared")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLoad_CorruptPayloadFallsBack(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store)
	ctx := context.Background()

	pointer, err := store.PutBlob(ctx, []byte("{definitely not a payload"))
	if err != nil {
		t.Fatal(err)
	}
	rec := &core.DesignRecord{
		Key:          "d1",
		Pointer:      pointer,
		Kind:         core.KindCustom,
		CanvasWidth:  300,
		CanvasHeight: 300,
	}
	if err := store.UpsertRecord(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := res.Load(ctx, "d1")
	if err != nil {
		t.Fatalf("Load() with corrupt payload failed: %v", err)
	}
	if got.Source != SourceInline {
		t.Errorf("source = %s, want %s", got.Source, SourceInline)
	}
}

func TestSave_DeletesPreviousBlobAfterRepoint(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store)
	ctx := context.Background()

	doc := testDocument(t, 1)
	first, err := res.Save(ctx, "d1", doc, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := res.Save(ctx, "d1", doc, "")
	if err != nil {
		t.Fatal(err)
	}
	if second.Pointer == first.Pointer {
		t.Fatal("second save reused the previous pointer")
	}
	if second.Revision != 2 {
		t.Errorf("second save revision = %d, want 2", second.Revision)
	}

	if _, err := store.GetBlob(ctx, first.Pointer); !errors.Is(err, core.ErrBlobNotFound) {
		t.Errorf("previous blob survived: err = %v", err)
	}
	if _, err := store.GetBlob(ctx, second.Pointer); err != nil {
		t.Errorf("current blob missing: %v", err)
	}
}

func TestSave_CacheQuotaSetsSkippedFlag(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store, WithCache(memory.NewCache(8))) // 8 bytes: nothing fits
	ctx := context.Background()

	saved, err := res.Save(ctx, "d1", testDocument(t, 2), "")
	if err != nil {
		t.Fatalf("Save() failed although only the cache tier rejected: %v", err)
	}
	if !saved.Flags.SkippedCache {
		t.Error("SkippedCache flag not set after a quota rejection")
	}

	// The durable path is unaffected.
	got, err := res.Load(ctx, "d1")
	if err != nil || got.Source != SourceBlob {
		t.Errorf("durable load degraded: source=%v err=%v", got, err)
	}
}

func TestSave_CacheAccepted(t *testing.T) {
	store := memory.NewStore()
	cache := memory.NewCache(1 << 20)
	res := New(store, store, WithCache(cache))
	ctx := context.Background()

	saved, err := res.Save(ctx, "d1", testDocument(t, 2), "")
	if err != nil {
		t.Fatal(err)
	}
	if saved.Flags.SkippedCache {
		t.Error("SkippedCache set although the cache accepted the payload")
	}
	if _, err := cache.Get(ctx, "d1"); err != nil {
		t.Errorf("cache tier has no entry for the saved design: %v", err)
	}
}

func TestSave_TruncationFlagSurfaces(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store, WithLimits(codec.Limits{Server: 64, TruncateCap: 2}))
	ctx := context.Background()

	saved, err := res.Save(ctx, "d1", testDocument(t, 50), "")
	if err != nil {
		t.Fatal(err)
	}
	if !saved.Flags.Truncated {
		t.Error("Truncated flag not reported to the caller")
	}
}

func TestDelete_RemovesRecordAndBlob(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store)
	ctx := context.Background()

	saved, err := res.Save(ctx, "d1", testDocument(t, 1), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := res.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.GetRecord(ctx, "d1"); !errors.Is(err, core.ErrRecordNotFound) {
		t.Error("record survived delete")
	}
	if _, err := store.GetBlob(ctx, saved.Pointer); !errors.Is(err, core.ErrBlobNotFound) {
		t.Error("blob survived delete")
	}

	// Deleting a missing design is a no-op.
	if err := res.Delete(ctx, "d1"); err != nil {
		t.Errorf("Delete() of a missing design failed: %v", err)
	}
}

func TestList_ReturnsMetadataOnly(t *testing.T) {
	store := memory.NewStore()
	res := New(store, store)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if _, err := res.Save(ctx, key, testDocument(t, 1), "thumb"); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := res.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(recs))
	}
	for _, rec := range recs {
		if len(rec.InlineObjects) != 0 {
			t.Errorf("record %s leaked inline objects into listing", rec.Key)
		}
	}
}
