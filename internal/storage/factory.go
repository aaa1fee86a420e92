// Package storage provides the second-tier cache behind the in-process caches.
package storage

import (
	"context"
	"fmt"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendMemory    = "memory"
	BackendSurrealDB = "surrealdb"
)

// NewCacheStore creates a cache store based on the configuration.
// Supported backends: "memory" (default), "surrealdb".
func NewCacheStore(ctx context.Context, logger *common.Logger, config common.StorageConfig) (interfaces.CacheStore, error) {
	backend := config.Backend
	if backend == "" {
		backend = BackendMemory
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil

	case BackendSurrealDB:
		return surrealdb.NewStore(ctx, logger, config)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: memory, surrealdb)", backend)
	}
}
