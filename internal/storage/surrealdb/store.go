// Package surrealdb implements the cache store on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const (
	tableDirectory = "directory"
	tablePrices    = "price_history"

	directoryRecord = "sec"
	saveAttempts    = 3
)

// Store implements interfaces.CacheStore using SurrealDB.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewStore connects to SurrealDB and ensures the cache tables exist.
func NewStore(ctx context.Context, logger *common.Logger, config common.StorageConfig) (*Store, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	s, err := newStore(ctx, db, logger)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB cache store initialized")

	return s, nil
}

// newStore wraps an open connection. SurrealDB v3 errors on querying
// tables that were never defined.
func newStore(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Store, error) {
	for _, table := range []string{tableDirectory, tablePrices} {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}
	return &Store{db: db, logger: logger}, nil
}

// recordKey maps a market symbol to a record id. Dots split record ids.
func recordKey(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), ".", "_")
}

func (s *Store) GetDirectory(ctx context.Context) (*models.Directory, error) {
	dir, err := surrealdb.Select[models.Directory](ctx, s.db, surrealmodels.NewRecordID(tableDirectory, directoryRecord))
	if err != nil {
		return nil, fmt.Errorf("failed to select directory: %w", err)
	}
	if dir == nil || len(dir.Entries) == 0 {
		return nil, nil
	}
	return dir, nil
}

func (s *Store) SaveDirectory(ctx context.Context, dir *models.Directory) error {
	if dir == nil {
		return nil
	}
	return s.upsert(ctx, surrealmodels.NewRecordID(tableDirectory, directoryRecord), dir)
}

func (s *Store) GetPriceHistory(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	hist, err := surrealdb.Select[models.PriceHistory](ctx, s.db, surrealmodels.NewRecordID(tablePrices, recordKey(symbol)))
	if err != nil {
		return nil, fmt.Errorf("failed to select price history: %w", err)
	}
	if hist == nil || hist.Symbol == "" {
		return nil, nil
	}
	return hist, nil
}

func (s *Store) SavePriceHistory(ctx context.Context, history *models.PriceHistory) error {
	if history == nil {
		return nil
	}
	return s.upsert(ctx, surrealmodels.NewRecordID(tablePrices, recordKey(history.Symbol)), history)
}

func (s *Store) upsert(ctx context.Context, rid surrealmodels.RecordID, data any) error {
	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{"rid": rid, "data": data}

	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		_, err := surrealdb.Query[[]any](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Debug().Err(err).Int("attempt", attempt).Str("table", rid.Table).Msg("Cache upsert failed")
	}
	return fmt.Errorf("failed to save %s after retries: %w", rid.Table, lastErr)
}

func (s *Store) Close() error {
	s.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.CacheStore = (*Store)(nil)
