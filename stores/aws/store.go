package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"

	"github.com/Henry5410858/design-sub000/core"
)

const (
	recordPrefix = "records/"
	blobPrefix   = "blobs/"
)

type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store. Records live under records/ and
// payload blobs under blobs/ in a single bucket.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

// safeName rejects identifiers that are paths; keys and pointers are
// simple names.
func safeName(id string) error {
	if id == "" || id == "." || id == ".." {
		return fmt.Errorf("invalid identifier: must not be empty or a dot directory")
	}
	if path.Base(id) != id {
		return fmt.Errorf("invalid identifier: must not be a path")
	}
	return nil
}

func (s *s3Store) getObject(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func isNoSuchKey(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}

func (s *s3Store) GetRecord(ctx context.Context, key string) (*core.DesignRecord, error) {
	if err := safeName(key); err != nil {
		return nil, err
	}
	data, err := s.getObject(ctx, recordPrefix+key)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, core.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record %s: %w", key, err)
	}
	var rec core.DesignRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", key, err)
	}
	return &rec, nil
}

func (s *s3Store) UpsertRecord(ctx context.Context, rec *core.DesignRecord) error {
	if err := safeName(rec.Key); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.Key, err)
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(recordPrefix + rec.Key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.Key, err)
	}
	return nil
}

func (s *s3Store) ClearPointer(ctx context.Context, key, pointer string) error {
	rec, err := s.GetRecord(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
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

func (s *s3Store) DeleteRecord(ctx context.Context, key string) error {
	if err := safeName(key); err != nil {
		return err
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(recordPrefix + key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) ListRecords(ctx context.Context) ([]*core.DesignRecord, error) {
	output, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(recordPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]*core.DesignRecord, 0, len(output.Contents))
	for _, object := range output.Contents {
		if object.Key == nil || strings.HasSuffix(*object.Key, "/") {
			continue
		}
		data, err := s.getObject(ctx, *object.Key)
		if err != nil {
			log.Printf("warn: failed to get record object %s: %v", *object.Key, err)
			continue
		}
		var rec core.DesignRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			log.Printf("warn: failed to unmarshal record object %s: %v", *object.Key, err)
			continue
		}
		records = append(records, rec.Meta())
	}
	return records, nil
}

// BlobStore implementation.

func (s *s3Store) GetBlob(ctx context.Context, pointer string) ([]byte, error) {
	if err := safeName(pointer); err != nil {
		return nil, err
	}
	data, err := s.getObject(ctx, blobPrefix+pointer)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, core.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get payload %s: %w", pointer, err)
	}
	return data, nil
}

func (s *s3Store) PutBlob(ctx context.Context, data []byte) (string, error) {
	pointer := ulid.Make().String()
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(blobPrefix + pointer),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload payload: %w", err)
	}
	return pointer, nil
}

func (s *s3Store) DeleteBlob(ctx context.Context, pointer string) error {
	if err := safeName(pointer); err != nil {
		return err
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(blobPrefix + pointer),
	})
	if err != nil {
		return fmt.Errorf("failed to delete payload %s: %w", pointer, err)
	}
	return nil
}
