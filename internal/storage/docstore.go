package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
	"github.com/ydrx/ydrx/internal/models"
)

// DocumentStore persists the whole application state as one JSON blob under a
// fixed key. Version checking on Save turns racing writers into explicit
// conflicts.
type DocumentStore struct {
	blobs  interfaces.BlobStore
	key    string
	logger *common.Logger
}

// NewDocumentStore creates a document store over the given blob backend.
func NewDocumentStore(logger *common.Logger, blobs interfaces.BlobStore, key string) *DocumentStore {
	if key == "" {
		key = "ydrx_db_v1"
	}
	return &DocumentStore{
		blobs:  blobs,
		key:    key,
		logger: logger,
	}
}

// Load returns the stored document. When no document exists yet the default
// seed document is persisted and returned.
func (ds *DocumentStore) Load(ctx context.Context) (*models.Document, error) {
	data, err := ds.blobs.Get(ctx, ds.key)
	if err != nil {
		if errors.Is(err, interfaces.ErrBlobNotFound) {
			return ds.seed(ctx)
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// Save writes the document back. The caller's version must match the stored
// version; on success the persisted version is one higher and the caller's
// document is updated in place.
func (ds *DocumentStore) Save(ctx context.Context, doc *models.Document) error {
	data, err := ds.blobs.Get(ctx, ds.key)
	if err != nil && !errors.Is(err, interfaces.ErrBlobNotFound) {
		return fmt.Errorf("failed to read stored document: %w", err)
	}

	if err == nil {
		var stored models.Document
		if uerr := json.Unmarshal(data, &stored); uerr != nil {
			return fmt.Errorf("failed to decode stored document: %w", uerr)
		}
		if stored.Version != doc.Version {
			ds.logger.Warn().
				Int("stored", stored.Version).
				Int("have", doc.Version).
				Msg("Document version conflict on save")
			return interfaces.ErrVersionConflict
		}
	}

	doc.Version++
	payload, err := json.Marshal(doc)
	if err != nil {
		doc.Version--
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := ds.blobs.Put(ctx, ds.key, payload); err != nil {
		doc.Version--
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// Update runs a load-mutate-save cycle, reloading and reapplying fn when a
// racing writer moved the version. fn must be safe to call more than once.
func (ds *DocumentStore) Update(ctx context.Context, fn func(*models.Document) error) (*models.Document, error) {
	for attempt := 1; attempt <= 3; attempt++ {
		doc, err := ds.Load(ctx)
		if err != nil {
			return nil, err
		}
		if err := fn(doc); err != nil {
			return nil, err
		}
		err = ds.Save(ctx, doc)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, interfaces.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, interfaces.ErrVersionConflict
}

// Reset drops the stored document and re-seeds the defaults.
func (ds *DocumentStore) Reset(ctx context.Context) (*models.Document, error) {
	if err := ds.blobs.Delete(ctx, ds.key); err != nil {
		return nil, fmt.Errorf("failed to clear document: %w", err)
	}
	ds.logger.Info().Str("key", ds.key).Msg("Document reset to defaults")
	return ds.seed(ctx)
}

func (ds *DocumentStore) seed(ctx context.Context) (*models.Document, error) {
	doc := models.DefaultDocument()
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode seed document: %w", err)
	}
	if err := ds.blobs.Put(ctx, ds.key, payload); err != nil {
		return nil, fmt.Errorf("failed to store seed document: %w", err)
	}
	ds.logger.Info().Str("key", ds.key).Msg("Seeded default document")
	return doc, nil
}

// Compile-time check
var _ interfaces.DocumentStore = (*DocumentStore)(nil)
