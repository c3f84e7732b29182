package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/Henry5410858/design-sub000/core"
)

// fsStore keeps records as JSON files under records/ and payload blobs
// under blobs/.
type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	for _, dir := range []string{basePath, filepath.Join(basePath, "records"), filepath.Join(basePath, "blobs")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create storage directory: %v", err)
		}
	}
	return &fsStore{basePath: basePath}
}

// safeName rejects keys and pointers that would escape the storage tree.
// Identifiers are names, never paths.
func safeName(id string) error {
	if id == "" || id == "." || id == ".." {
		return fmt.Errorf("invalid identifier: must not be empty or a dot directory")
	}
	if filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid identifier: must not be a path")
	}
	return nil
}

func (s *fsStore) recordPath(key string) string {
	return filepath.Join(s.basePath, "records", key+".json")
}

func (s *fsStore) blobPath(pointer string) string {
	return filepath.Join(s.basePath, "blobs", pointer)
}

func (s *fsStore) GetRecord(ctx context.Context, key string) (*core.DesignRecord, error) {
	if err := safeName(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrRecordNotFound
		}
		return nil, err
	}
	var rec core.DesignRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	return &rec, nil
}

func (s *fsStore) UpsertRecord(ctx context.Context, rec *core.DesignRecord) error {
	if err := safeName(rec.Key); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.Key, err)
	}
	return os.WriteFile(s.recordPath(rec.Key), data, 0644)
}

func (s *fsStore) ClearPointer(ctx context.Context, key, pointer string) error {
	rec, err := s.GetRecord(ctx, key)
	if err != nil {
		if err == core.ErrRecordNotFound {
			return nil
		}
		return err
	}
	if rec.Pointer != pointer {
		return nil
	}
	rec.Pointer = ""
	return s.UpsertRecord(ctx, rec)
}

func (s *fsStore) DeleteRecord(ctx context.Context, key string) error {
	if err := safeName(key); err != nil {
		return err
	}
	err := os.Remove(s.recordPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *fsStore) ListRecords(ctx context.Context) ([]*core.DesignRecord, error) {
	dir := filepath.Join(s.basePath, "records")
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*core.DesignRecord{}, nil
		}
		return nil, err
	}
	records := make([]*core.DesignRecord, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			logrus.WithError(err).Warnf("Failed to read record file %s, skipping", file.Name())
			continue
		}
		var rec core.DesignRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			logrus.WithError(err).Warnf("Failed to unmarshal record file %s, skipping", file.Name())
			continue
		}
		records = append(records, rec.Meta())
	}
	return records, nil
}

// BlobStore implementation.

func (s *fsStore) GetBlob(ctx context.Context, pointer string) ([]byte, error) {
	if err := safeName(pointer); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.blobPath(pointer))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrBlobNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *fsStore) PutBlob(ctx context.Context, data []byte) (string, error) {
	pointer := ulid.Make().String()
	if err := os.WriteFile(s.blobPath(pointer), data, 0644); err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{
		"pointer":     pointer,
		"data_length": len(data),
	}).Debug("Payload written")
	return pointer, nil
}

func (s *fsStore) DeleteBlob(ctx context.Context, pointer string) error {
	if err := safeName(pointer); err != nil {
		return err
	}
	err := os.Remove(s.blobPath(pointer))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
