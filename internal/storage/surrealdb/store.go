// Package surrealdb implements the blob store boundary on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
)

const blobTable = "blob"

// blobRecord is the stored shape of one blob.
type blobRecord struct {
	Key  string `json:"key"`
	Data []byte `json:"data"`
}

// Store implements storage.BlobStore backed by a single SCHEMALESS table.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewStore connects to SurrealDB and prepares the blob table.
func NewStore(logger *common.Logger, config *common.SurrealConfig) (*Store, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// SurrealDB v3 errors on querying non-existent tables.
	sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", blobTable)
	if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
		return nil, fmt.Errorf("failed to define table %s: %w", blobTable, err)
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB blob store initialized")

	return &Store{db: db, logger: logger}, nil
}

// NewStoreWithDB wraps an existing connection; used by tests.
func NewStoreWithDB(db *surrealdb.DB, logger *common.Logger) (*Store, error) {
	ctx := context.Background()
	sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", blobTable)
	if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
		return nil, fmt.Errorf("failed to define table %s: %w", blobTable, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Get retrieves a blob by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	record, err := surrealdb.Select[blobRecord](ctx, s.db, surrealmodels.NewRecordID(blobTable, key))
	if err != nil {
		return nil, fmt.Errorf("failed to select blob: %w", err)
	}
	if record == nil || record.Key == "" {
		return nil, interfaces.ErrBlobNotFound
	}
	return record.Data, nil
}

// Put stores a blob, overwriting any existing record under the key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	record := blobRecord{Key: key, Data: data}

	sql := "UPSERT $rid CONTENT $blob"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(blobTable, key), "blob": record}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]blobRecord](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to put blob after retries: %w", lastErr)
}

// Delete removes a blob. No error if not found.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := surrealdb.Delete[blobRecord](ctx, s.db, surrealmodels.NewRecordID(blobTable, key))
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Exists checks if a blob exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	record, err := surrealdb.Select[blobRecord](ctx, s.db, surrealmodels.NewRecordID(blobTable, key))
	if err != nil {
		return false, fmt.Errorf("failed to select blob: %w", err)
	}
	return record != nil && record.Key != "", nil
}

// Close shuts down the underlying connection.
func (s *Store) Close() error {
	s.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.BlobStore = (*Store)(nil)
