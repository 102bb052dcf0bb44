// Package storage provides blob-based persistence with pluggable backends.
package storage

import (
	"fmt"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
	"github.com/ydrx/ydrx/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendFile    = "file"
	BackendSurreal = "surrealdb"
)

// NewBlobStore creates a blob store based on the configuration.
// Supported backends: "file" (default), "surrealdb".
func NewBlobStore(logger *common.Logger, config *common.StorageConfig) (interfaces.BlobStore, error) {
	backend := config.Backend
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendFile:
		return NewFileBlobStore(logger, &config.File)

	case BackendSurreal:
		return surrealdb.NewStore(logger, &config.Surreal)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: file, surrealdb)", backend)
	}
}
