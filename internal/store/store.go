// Package store provides the SQLite-backed document registry for docfold.
// The vector store holds the chunks; this registry holds the per-owner
// document catalog (what was uploaded, by whom, with how many chunks) and the
// per-owner chat history. Both survive server restarts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Status tracks a document's progress through the ingestion pipeline.
type Status string

const (
	// StatusPending means the document is registered but not yet ingested.
	StatusPending Status = "pending"
	// StatusIngested means the document's chunks are in the vector store.
	StatusIngested Status = "ingested"
	// StatusFailed means ingestion ended in an error.
	StatusFailed Status = "failed"
)

// ErrNotFound is returned when a document does not exist or belongs to a
// different owner.
var ErrNotFound = errors.New("store: document not found")

// Document is one registry entry.
type Document struct {
	// ID uniquely identifies the document.
	ID string
	// OwnerID identifies the tenant the document belongs to.
	OwnerID string
	// Name is the original filename or caller-supplied title.
	Name string
	// MediaType is the document's MIME type.
	MediaType string
	// Status is the ingestion state.
	Status Status
	// ChunkCount is the number of chunks produced by ingestion.
	ChunkCount int
	// CreatedAt is when the document was registered.
	CreatedAt time.Time
}

// Registry persists the document catalog and chat history. Implementations
// must be safe for concurrent use.
type Registry interface {
	// Create registers a new document in StatusPending.
	Create(ctx context.Context, doc *Document) error
	// SetStatus records the outcome of an ingestion attempt.
	SetStatus(ctx context.Context, ownerID, documentID string, status Status, chunkCount int) error
	// Get returns one document, scoped to its owner. Returns ErrNotFound if
	// the document does not exist or belongs to another owner.
	Get(ctx context.Context, ownerID, documentID string) (*Document, error)
	// ListByOwner returns the owner's documents, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)
	// Delete removes a document from the registry. Returns ErrNotFound if the
	// document does not exist or belongs to another owner.
	Delete(ctx context.Context, ownerID, documentID string) error

	// AppendMessage persists a single chat turn for the owner.
	AppendMessage(ctx context.Context, ownerID string, role Role, content string) error
	// RecentMessages returns the owner's most recent n chat turns,
	// oldest-first.
	RecentMessages(ctx context.Context, ownerID string, n int) ([]Message, error)

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error
	// Close releases any resources held by the registry.
	Close() error
}

// SQLiteRegistry is a Registry backed by a local SQLite database.
type SQLiteRegistry struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the registry database.
// It resolves to ~/.docfold/docfold.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".docfold")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "docfold.db"), nil
}

// Open opens (or creates) a SQLiteRegistry at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteRegistry, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteRegistry{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteRegistry) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id           TEXT    PRIMARY KEY,
    owner_id     TEXT    NOT NULL,
    name         TEXT    NOT NULL,
    media_type   TEXT    NOT NULL,
    status       TEXT    NOT NULL CHECK(status IN ('pending','ingested','failed')),
    chunk_count  INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_documents_owner_created
    ON documents (owner_id, created_at);

CREATE TABLE IF NOT EXISTS messages (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id     TEXT    NOT NULL,
    role         TEXT    NOT NULL CHECK(role IN ('user','assistant')),
    content      TEXT    NOT NULL,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_messages_owner_created
    ON messages (owner_id, created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Create registers a new document. A zero Status defaults to StatusPending
// and a zero CreatedAt defaults to now.
func (s *SQLiteRegistry) Create(ctx context.Context, doc *Document) error {
	if doc.ID == "" || doc.OwnerID == "" {
		return fmt.Errorf("store: document id and owner id are required")
	}
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	const q = `INSERT INTO documents (id, owner_id, name, media_type, status, chunk_count, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		doc.ID, doc.OwnerID, doc.Name, doc.MediaType, string(doc.Status), doc.ChunkCount, doc.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store: create document: %w", err)
	}
	return nil
}

// SetStatus records the outcome of an ingestion attempt.
func (s *SQLiteRegistry) SetStatus(ctx context.Context, ownerID, documentID string, status Status, chunkCount int) error {
	const q = `UPDATE documents SET status = ?, chunk_count = ? WHERE id = ? AND owner_id = ?`
	res, err := s.db.ExecContext(ctx, q, string(status), chunkCount, documentID, ownerID)
	if err != nil {
		return fmt.Errorf("store: set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: set status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one document, scoped to its owner.
func (s *SQLiteRegistry) Get(ctx context.Context, ownerID, documentID string) (*Document, error) {
	const q = `SELECT id, owner_id, name, media_type, status, chunk_count, created_at
FROM documents WHERE id = ? AND owner_id = ?`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, q, documentID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get document: %w", err)
	}
	return doc, nil
}

// ListByOwner returns the owner's documents, newest first.
func (s *SQLiteRegistry) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	const q = `SELECT id, owner_id, name, media_type, status, chunk_count, created_at
FROM documents WHERE owner_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return docs, nil
}

// Delete removes a document from the registry. Purging the document's chunks
// from the vector store is the caller's job.
func (s *SQLiteRegistry) Delete(ctx context.Context, ownerID, documentID string) error {
	const q = `DELETE FROM documents WHERE id = ? AND owner_id = ?`
	res, err := s.db.ExecContext(ctx, q, documentID, ownerID)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *SQLiteRegistry) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (s *SQLiteRegistry) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var status string
	var ts int64
	if err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Name, &doc.MediaType, &status, &doc.ChunkCount, &ts); err != nil {
		return nil, err
	}
	doc.Status = Status(status)
	doc.CreatedAt = time.Unix(ts, 0)
	return &doc, nil
}
