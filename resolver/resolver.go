// Package resolver reconciles the design record store with the bulk
// payload blob store. Loads fall back through a defined chain instead of
// failing; saves write the new blob before repointing the record and only
// delete the old blob afterwards.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Henry5410858/design-sub000/codec"
	"github.com/Henry5410858/design-sub000/core"
)

// Source identifies which path reconstructed a loaded document.
type Source string

const (
	// SourceBlob means the bulk payload was fetched and decoded.
	SourceBlob Source = "blob"
	// SourceInline means the document was rebuilt from the record's
	// inline fields, either because the record carried no pointer or
	// because the pointed-at blob was missing.
	SourceInline Source = "inline"
)

type (
	Resolver struct {
		records core.RecordStore
		blobs   core.BlobStore
		cache   core.CacheStore // optional
		limits  codec.Limits
	}

	Option func(*Resolver)

	LoadResult struct {
		Document *core.Document
		Source   Source
		Record   *core.DesignRecord
	}

	SaveResult struct {
		Pointer  string
		Revision int64
		Flags    codec.Flags
	}
)

// WithCache installs the client-side cache tier. Without it every save
// reports the cache as skipped only when degradation says so; with it,
// quota rejections also surface through the SkippedCache flag.
func WithCache(c core.CacheStore) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithLimits overrides the degradation thresholds.
func WithLimits(l codec.Limits) Option {
	return func(r *Resolver) { r.limits = l }
}

func New(records core.RecordStore, blobs core.BlobStore, opts ...Option) *Resolver {
	r := &Resolver{records: records, blobs: blobs, limits: codec.DefaultLimits()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reconstructs the document saved under key. The only hard failure
// is a missing record; a missing or unreadable blob falls back to the
// record's inline fields, and a dangling pointer is cleared best-effort
// without blocking the load.
func (r *Resolver) Load(ctx context.Context, key string) (*LoadResult, error) {
	log := logrus.WithField("design_key", key)

	rec, err := r.records.GetRecord(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			log.Warn("No design record for key")
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		return nil, fmt.Errorf("load %s: fetch record: %w", key, err)
	}

	if rec.Pointer == "" {
		log.Debug("Record has no payload pointer, decoding inline fields")
		return r.loadInline(rec)
	}

	data, err := r.blobs.GetBlob(ctx, rec.Pointer)
	if err != nil {
		if errors.Is(err, core.ErrBlobNotFound) {
			log.WithField("pointer", rec.Pointer).Warn("Record points at a missing payload, falling back to inline fields")
			r.clearDanglingPointer(rec.Key, rec.Pointer)
			return r.loadInline(rec)
		}
		return nil, fmt.Errorf("load %s: fetch payload %s: %w", key, rec.Pointer, err)
	}

	doc, err := codec.Decode(data)
	if err != nil {
		// A corrupt payload is as good as a missing one.
		log.WithError(err).Warn("Stored payload is undecodable, falling back to inline fields")
		return r.loadInline(rec)
	}
	log.WithField("objects", doc.Len()).Info("Design loaded from payload")
	return &LoadResult{Document: doc, Source: SourceBlob, Record: rec}, nil
}

func (r *Resolver) loadInline(rec *core.DesignRecord) (*LoadResult, error) {
	doc, err := codec.DecodeInline(rec)
	if err != nil {
		return nil, fmt.Errorf("load %s: inline fallback: %w", rec.Key, err)
	}
	return &LoadResult{Document: doc, Source: SourceInline, Record: rec}, nil
}

// clearDanglingPointer fires the cleanup write without blocking the load.
// Failure to clear is logged and otherwise ignored; the next save will
// overwrite the pointer anyway.
func (r *Resolver) clearDanglingPointer(key, pointer string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.records.ClearPointer(ctx, key, pointer); err != nil {
			logrus.WithFields(logrus.Fields{
				"design_key": key,
				"pointer":    pointer,
			}).WithError(err).Warn("Failed to clear dangling payload pointer")
		}
	}()
}

// Save persists the document under key: encode (degrading as needed),
// write the payload under a fresh pointer, repoint the record, then delete
// the previous payload. The old blob is never deleted before the record
// durably references the new one. Thumbnail is stored on the record as-is
// (a data URI produced by the compositor's caller) and may be empty.
func (r *Resolver) Save(ctx context.Context, key string, doc *core.Document, thumbnail string) (*SaveResult, error) {
	log := logrus.WithField("design_key", key)

	payload, err := codec.EncodeBounded(doc, r.limits)
	if err != nil {
		return nil, fmt.Errorf("save %s: encode: %w", key, err)
	}

	pointer, err := r.blobs.PutBlob(ctx, payload.Data)
	if err != nil {
		return nil, fmt.Errorf("save %s: write payload: %w", key, err)
	}

	prev, err := r.records.GetRecord(ctx, key)
	if err != nil && !errors.Is(err, core.ErrRecordNotFound) {
		return nil, fmt.Errorf("save %s: fetch record: %w", key, err)
	}

	rec := &core.DesignRecord{
		Key:             key,
		Pointer:         pointer,
		Kind:            doc.Kind,
		Background:      doc.Background,
		BackgroundImage: doc.BackgroundImage,
		CanvasWidth:     doc.CanvasWidth,
		CanvasHeight:    doc.CanvasHeight,
		TemplateKey:     doc.TemplateKey,
		InlineObjects:   payload.InlineObjects,
		Thumbnail:       thumbnail,
		Revision:        1,
		UpdatedAt:       time.Now(),
	}
	var prevPointer string
	if prev != nil {
		rec.Revision = prev.Revision + 1
		prevPointer = prev.Pointer
	}

	if err := r.records.UpsertRecord(ctx, rec); err != nil {
		// The new blob is now orphaned; an out-of-band sweep reclaims
		// blobs unreferenced by any record.
		log.WithField("pointer", pointer).WithError(err).Error("Record update failed after payload write")
		return nil, fmt.Errorf("save %s: update record: %w", key, err)
	}

	if prevPointer != "" && prevPointer != pointer {
		if err := r.blobs.DeleteBlob(ctx, prevPointer); err != nil {
			log.WithField("pointer", prevPointer).WithError(err).Warn("Failed to delete previous payload")
		}
	}

	flags := payload.Flags
	if cacheData := payload.CacheForm(); r.cache != nil && cacheData != nil {
		if err := r.cache.Put(ctx, key, cacheData); err != nil {
			if errors.Is(err, core.ErrQuotaExceeded) {
				log.Warn("Cache tier rejected payload for quota, skipping tier")
			} else {
				log.WithError(err).Warn("Cache tier write failed, skipping tier")
			}
			flags.SkippedCache = true
		}
	}

	log.WithFields(logrus.Fields{
		"pointer":   pointer,
		"revision":  rec.Revision,
		"optimized": flags.Optimized,
		"truncated": flags.Truncated,
		"size":      len(payload.Data),
	}).Info("Design saved")
	return &SaveResult{Pointer: pointer, Revision: rec.Revision, Flags: flags}, nil
}

// Delete removes the record and then, best-effort, its payload.
func (r *Resolver) Delete(ctx context.Context, key string) error {
	rec, err := r.records.GetRecord(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("delete %s: fetch record: %w", key, err)
	}
	if err := r.records.DeleteRecord(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if rec.Pointer != "" {
		if err := r.blobs.DeleteBlob(ctx, rec.Pointer); err != nil {
			logrus.WithFields(logrus.Fields{
				"design_key": key,
				"pointer":    rec.Pointer,
			}).WithError(err).Warn("Failed to delete payload for removed design")
		}
	}
	return nil
}

// List returns record metadata for browsing; it never touches the blob
// store.
func (r *Resolver) List(ctx context.Context) ([]*core.DesignRecord, error) {
	recs, err := r.records.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	out := make([]*core.DesignRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Meta())
	}
	return out, nil
}
