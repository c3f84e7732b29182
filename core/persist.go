package core

import (
	"context"
	"encoding/json"
	"image"
	"time"
)

type (
	// DesignRecord is the small metadata row kept separate from the bulk
	// payload so listing designs never loads full scene graphs. Pointer
	// and InlineObjects are both optional: the pointer references the
	// authoritative blob, the inline fields are the compatibility
	// fallback decoded when the blob is unavailable.
	DesignRecord struct {
		Key             string          `json:"key"`
		Pointer         string          `json:"pointer,omitempty"`
		Kind            DocumentKind    `json:"kind"`
		Background      string          `json:"background"`
		BackgroundImage string          `json:"backgroundImage,omitempty"`
		CanvasWidth     float64         `json:"canvasWidth"`
		CanvasHeight    float64         `json:"canvasHeight"`
		TemplateKey     string          `json:"templateKey,omitempty"`
		InlineObjects   json.RawMessage `json:"inlineObjects,omitempty"`
		Thumbnail       string          `json:"thumbnail,omitempty"`
		// Revision is incremented on every save. It is reserved for a
		// future optimistic-concurrency check and is never compared today;
		// concurrent sessions race under last-write-wins.
		Revision  int64     `json:"revision"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// RecordStore is the external record-store boundary. Keys are opaque.
	RecordStore interface {
		// GetRecord returns ErrRecordNotFound when no record exists.
		GetRecord(ctx context.Context, key string) (*DesignRecord, error)
		UpsertRecord(ctx context.Context, rec *DesignRecord) error
		// ClearPointer removes a dangling pointer from a record, but only
		// if the record still carries that exact pointer.
		ClearPointer(ctx context.Context, key, pointer string) error
		DeleteRecord(ctx context.Context, key string) error
		// ListRecords returns record metadata without inline objects.
		ListRecords(ctx context.Context) ([]*DesignRecord, error)
	}

	// BlobStore is the external bulk-payload boundary. PutBlob generates
	// and returns an opaque pointer; GetBlob returns ErrBlobNotFound for
	// unknown pointers; DeleteBlob is best-effort.
	BlobStore interface {
		GetBlob(ctx context.Context, pointer string) ([]byte, error)
		PutBlob(ctx context.Context, data []byte) (string, error)
		DeleteBlob(ctx context.Context, pointer string) error
	}

	// CacheStore is the size-bounded client-side cache tier. Put returns
	// ErrQuotaExceeded when the payload does not fit the remaining budget.
	CacheStore interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Put(ctx context.Context, key string, data []byte) error
	}

	// BitmapLoader resolves an image object's source reference into
	// decoded pixels. Used only by the compositor.
	BitmapLoader interface {
		Load(ctx context.Context, ref string) (image.Image, error)
	}

	// BitmapLoaderFunc adapts a function to the BitmapLoader interface.
	BitmapLoaderFunc func(ctx context.Context, ref string) (image.Image, error)
)

func (f BitmapLoaderFunc) Load(ctx context.Context, ref string) (image.Image, error) {
	return f(ctx, ref)
}

// Meta returns a copy of the record without the heavy inline fields, for
// list views.
func (r *DesignRecord) Meta() *DesignRecord {
	m := *r
	m.InlineObjects = nil
	return &m
}
