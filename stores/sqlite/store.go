package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/Henry5410858/design-sub000/core"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	recordTableStmt := `
	CREATE TABLE IF NOT EXISTS records (
		key TEXT PRIMARY KEY,
		pointer TEXT,
		kind TEXT,
		background TEXT,
		background_image TEXT,
		canvas_width REAL,
		canvas_height REAL,
		template_key TEXT,
		inline_objects BLOB,
		thumbnail TEXT,
		revision INTEGER,
		updated_at DATETIME
	);`
	if _, err = db.Exec(recordTableStmt); err != nil {
		log.Fatalf("failed to create records table: %v", err)
	}

	blobTableStmt := `CREATE TABLE IF NOT EXISTS blobs (pointer TEXT PRIMARY KEY, data BLOB);`
	if _, err = db.Exec(blobTableStmt); err != nil {
		log.Fatalf("failed to create blobs table: %v", err)
	}

	return &sqliteStore{db}
}

func (s *sqliteStore) GetRecord(ctx context.Context, key string) (*core.DesignRecord, error) {
	rec := core.DesignRecord{Key: key}
	var inline []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT pointer, kind, background, background_image, canvas_width, canvas_height,
		        template_key, inline_objects, thumbnail, revision, updated_at
		 FROM records WHERE key = ?`, key).
		Scan(&rec.Pointer, &rec.Kind, &rec.Background, &rec.BackgroundImage,
			&rec.CanvasWidth, &rec.CanvasHeight, &rec.TemplateKey, &inline,
			&rec.Thumbnail, &rec.Revision, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrRecordNotFound
		}
		return nil, err
	}
	rec.InlineObjects = inline
	return &rec, nil
}

func (s *sqliteStore) UpsertRecord(ctx context.Context, rec *core.DesignRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM records WHERE key = ?", rec.Key).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE records SET pointer = ?, kind = ?, background = ?, background_image = ?,
			        canvas_width = ?, canvas_height = ?, template_key = ?, inline_objects = ?,
			        thumbnail = ?, revision = ?, updated_at = ?
			 WHERE key = ?`,
			rec.Pointer, rec.Kind, rec.Background, rec.BackgroundImage,
			rec.CanvasWidth, rec.CanvasHeight, rec.TemplateKey, []byte(rec.InlineObjects),
			rec.Thumbnail, rec.Revision, rec.UpdatedAt, rec.Key)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO records (key, pointer, kind, background, background_image,
			        canvas_width, canvas_height, template_key, inline_objects, thumbnail,
			        revision, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Key, rec.Pointer, rec.Kind, rec.Background, rec.BackgroundImage,
			rec.CanvasWidth, rec.CanvasHeight, rec.TemplateKey, []byte(rec.InlineObjects),
			rec.Thumbnail, rec.Revision, rec.UpdatedAt)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) ClearPointer(ctx context.Context, key, pointer string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE records SET pointer = '' WHERE key = ? AND pointer = ?", key, pointer)
	return err
}

func (s *sqliteStore) DeleteRecord(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE key = ?", key)
	return err
}

func (s *sqliteStore) ListRecords(ctx context.Context) ([]*core.DesignRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, pointer, kind, background, background_image, canvas_width,
		        canvas_height, template_key, thumbnail, revision, updated_at
		 FROM records ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*core.DesignRecord
	for rows.Next() {
		var rec core.DesignRecord
		if err := rows.Scan(&rec.Key, &rec.Pointer, &rec.Kind, &rec.Background,
			&rec.BackgroundImage, &rec.CanvasWidth, &rec.CanvasHeight,
			&rec.TemplateKey, &rec.Thumbnail, &rec.Revision, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// BlobStore implementation.

func (s *sqliteStore) GetBlob(ctx context.Context, pointer string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM blobs WHERE pointer = ?", pointer).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrBlobNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *sqliteStore) PutBlob(ctx context.Context, data []byte) (string, error) {
	pointer := ulid.Make().String()
	_, err := s.db.ExecContext(ctx, "INSERT INTO blobs (pointer, data) VALUES (?, ?)", pointer, data)
	if err != nil {
		return "", fmt.Errorf("insert payload: %w", err)
	}
	return pointer, nil
}

func (s *sqliteStore) DeleteBlob(ctx context.Context, pointer string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE pointer = ?", pointer)
	return err
}
