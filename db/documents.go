// ABOUTME: SQLite-backed Document Store for offline and single-machine deployments
// ABOUTME: Stores each document as a JSON row keyed by its full path
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/rentdesk/docstore"
)

// DocumentStore implements docstore.Store over the documents table.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore wraps an open database.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Get(ctx context.Context, path string) (*docstore.Document, error) {
	doc := &docstore.Document{Path: path}
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data, created_at, updated_at FROM documents WHERE path = ?
	`, path).Scan(&data, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", path, err)
	}
	doc.Data = []byte(data)
	return doc, nil
}

func (s *DocumentStore) Set(ctx context.Context, path string, data interface{}) error {
	body, err := docstore.Encode(data)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (path, parent, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, path, docstore.Parent(path), string(body), now, now)
	if err != nil {
		return fmt.Errorf("failed to set document %s: %w", path, err)
	}
	return nil
}

// Import writes doc as-is, keeping its timestamps.
func (s *DocumentStore) Import(ctx context.Context, doc *docstore.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, parent, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, doc.Path, docstore.Parent(doc.Path), string(doc.Data), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to import document %s: %w", doc.Path, err)
	}
	return nil
}

func (s *DocumentStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = ?`, path).Scan(&data)
	if err == sql.ErrNoRows {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", path, err)
	}

	merged, err := docstore.Merge([]byte(data), fields)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET data = ?, updated_at = ? WHERE path = ?
	`, string(merged), time.Now().UTC(), path)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", path, err)
	}

	return tx.Commit()
}

func (s *DocumentStore) Delete(ctx context.Context, path string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", path, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *DocumentStore) Add(ctx context.Context, collection string, data interface{}) (string, error) {
	id := docstore.NewID()
	if err := s.Set(ctx, docstore.Join(collection, id), data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]*docstore.Document, error) {
	return s.query(ctx, `
		SELECT path, data, created_at, updated_at FROM documents
		WHERE parent = ?
		ORDER BY created_at ASC, path ASC
	`, collection)
}

// All returns every stored document ordered by path, for migration.
func (s *DocumentStore) All(ctx context.Context) ([]*docstore.Document, error) {
	return s.query(ctx, `
		SELECT path, data, created_at, updated_at FROM documents
		ORDER BY path ASC
	`)
}

func (s *DocumentStore) query(ctx context.Context, q string, args ...interface{}) ([]*docstore.Document, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*docstore.Document
	for rows.Next() {
		var doc docstore.Document
		var data string
		if err := rows.Scan(&doc.Path, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Data = []byte(data)
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}
