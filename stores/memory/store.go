package memory

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/Henry5410858/design-sub000/core"
)

// memStore keeps records and payload blobs in process memory. Each store
// instance has its own maps so tests stay isolated.
type memStore struct {
	mu      sync.RWMutex
	records map[string]*core.DesignRecord
	blobs   map[string][]byte
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		records: make(map[string]*core.DesignRecord),
		blobs:   make(map[string][]byte),
	}
}

func (s *memStore) GetRecord(ctx context.Context, key string) (*core.DesignRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, core.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) UpsertRecord(ctx context.Context, rec *core.DesignRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.Key] = &cp
	logrus.WithFields(logrus.Fields{
		"design_key": rec.Key,
		"pointer":    rec.Pointer,
	}).Debug("Record upserted")
	return nil
}

func (s *memStore) ClearPointer(ctx context.Context, key, pointer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || rec.Pointer != pointer {
		return nil
	}
	rec.Pointer = ""
	return nil
}

func (s *memStore) DeleteRecord(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *memStore) ListRecords(ctx context.Context) ([]*core.DesignRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.DesignRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Meta())
	}
	return out, nil
}

// BlobStore implementation.

func (s *memStore) GetBlob(ctx context.Context, pointer string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[pointer]
	if !ok {
		return nil, core.ErrBlobNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *memStore) PutBlob(ctx context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pointer := ulid.Make().String()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[pointer] = cp
	logrus.WithFields(logrus.Fields{
		"pointer":     pointer,
		"data_length": len(data),
	}).Debug("Payload stored")
	return pointer, nil
}

func (s *memStore) DeleteBlob(ctx context.Context, pointer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, pointer)
	return nil
}
