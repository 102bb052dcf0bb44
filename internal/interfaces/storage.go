// Package interfaces defines service contracts for YDRX
package interfaces

import (
	"context"
	"errors"

	"github.com/ydrx/ydrx/internal/models"
)

// ErrBlobNotFound is returned when a requested key holds no blob.
var ErrBlobNotFound = errors.New("blob not found")

// ErrVersionConflict is returned by DocumentStore.Save when the stored
// document has moved past the version the caller loaded.
var ErrVersionConflict = errors.New("document version conflict")

// BlobStore is the synchronous key-value boundary the application document is
// persisted through. The store is scoped to a single fixed key; there is no
// listing or streaming surface.
type BlobStore interface {
	// Get retrieves a blob by key. Returns ErrBlobNotFound if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a blob. Overwrites if exists.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes a blob. No error if not found.
	Delete(ctx context.Context, key string) error

	// Exists checks if a blob exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// DocumentStore loads and saves the entire application state as one JSON
// document. It is the concurrency boundary: there is no cross-operation
// locking, and the design assumes a single logical writer at a time. Save
// detects a racing writer through the document version and fails with
// ErrVersionConflict instead of silently losing the other write.
type DocumentStore interface {
	// Load returns the stored document, seeding and persisting the default
	// document when none is present.
	Load(ctx context.Context) (*models.Document, error)

	// Save serializes the full document and overwrites the stored blob.
	// The document's version must match the stored version; on success the
	// version is incremented.
	Save(ctx context.Context, doc *models.Document) error

	// Reset destructively clears the stored document and re-seeds defaults.
	// Test/debug only.
	Reset(ctx context.Context) (*models.Document, error)

	// Update loads the document, applies fn, and saves. On a version
	// conflict the document is reloaded and fn reapplied, a bounded number
	// of times. fn must be safe to call more than once.
	Update(ctx context.Context, fn func(*models.Document) error) (*models.Document, error)
}
