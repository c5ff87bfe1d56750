package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inful/mdfp"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/mdsite/internal/document"
)

// RenderCache persists processed documents keyed by path and content
// fingerprint so unchanged files skip the render pass on subsequent scans.
// Cache failures are never fatal: a broken cache degrades to a miss.
type RenderCache struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewRenderCache opens (or creates) the cache database.
// Use ":memory:" for an in-memory cache, or a file path for persistence.
func NewRenderCache(dbPath string) (*RenderCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	cache := &RenderCache{db: db}
	if err := cache.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return cache, nil
}

func (c *RenderCache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rendered_documents (
		path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		doc BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fingerprint ON rendered_documents(fingerprint);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Fingerprint derives the cache key material for raw document content.
func Fingerprint(content string) string {
	return mdfp.CalculateFingerprintFromParts("", content)
}

// Get returns the cached document for path when its fingerprint still
// matches, or nil on a miss.
func (c *RenderCache) Get(ctx context.Context, path, fingerprint string) *document.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var stored string
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT fingerprint, doc FROM rendered_documents WHERE path = ?",
		path,
	).Scan(&stored, &blob)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Debug("render cache lookup failed", "path", path, "error", err)
		}
		return nil
	}
	if stored != fingerprint {
		return nil
	}

	var doc document.Document
	if err := json.Unmarshal(blob, &doc); err != nil {
		slog.Debug("render cache entry corrupt", "path", path, "error", err)
		return nil
	}
	return &doc
}

// Put stores a processed document under its path and fingerprint.
func (c *RenderCache) Put(ctx context.Context, fingerprint string, doc *document.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	blob, err := json.Marshal(doc)
	if err != nil {
		slog.Debug("render cache marshal failed", "path", doc.Path, "error", err)
		return
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO rendered_documents (path, fingerprint, doc, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET fingerprint = excluded.fingerprint, doc = excluded.doc, updated_at = excluded.updated_at`,
		doc.Path, fingerprint, blob, time.Now().Unix(),
	)
	if err != nil {
		slog.Debug("render cache write failed", "path", doc.Path, "error", err)
	}
}

// Delete removes the entry for path, if any.
func (c *RenderCache) Delete(ctx context.Context, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.ExecContext(ctx, "DELETE FROM rendered_documents WHERE path = ?", path); err != nil {
		slog.Debug("render cache delete failed", "path", path, "error", err)
	}
}

// Close closes the database connection.
func (c *RenderCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}
