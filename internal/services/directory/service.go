// Package directory resolves tickers to regulatory company identifiers
package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/metrics"
	"github.com/bobmcallan/fairval/internal/models"
)

const cacheKey = "company_tickers"

// Service implements DirectoryService over a TTL cache, an optional
// persistent store and the directory feed.
type Service struct {
	client  interfaces.DirectoryClient
	store   interfaces.CacheStore
	cache   *common.TTLCache[*models.Directory]
	metrics *metrics.Metrics
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a directory service.
// store and m may be nil.
func NewService(client interfaces.DirectoryClient, store interfaces.CacheStore, ttl time.Duration, m *metrics.Metrics, logger *common.Logger) *Service {
	if ttl <= 0 {
		ttl = common.FreshnessDirectory
	}
	s := &Service{
		client:  client,
		store:   store,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
	s.cache = common.NewTTLCache[*models.Directory](ttl).WithClock(func() time.Time { return s.now() })
	return s
}

// Lookup returns the directory entry for a ticker, or ErrNotFound
func (s *Service) Lookup(ctx context.Context, ticker string) (*models.DirectoryEntry, error) {
	dir, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	key := common.DirectoryKey(ticker)
	entry, ok := dir.Entries[key]
	if !ok {
		return nil, fmt.Errorf("ticker %s not in company directory: %w", key, interfaces.ErrNotFound)
	}
	return &entry, nil
}

// Refresh re-fetches the directory regardless of freshness
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

// Warm loads the directory from the store or the feed when the cache is
// empty or expired and returns the number of entries.
func (s *Service) Warm(ctx context.Context) (int, error) {
	dir, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(dir.Entries), nil
}

// Size returns the number of cached directory entries
func (s *Service) Size() int {
	entry, ok := s.cache.Entry(cacheKey)
	if !ok || entry.Value == nil {
		return 0
	}
	return len(entry.Value.Entries)
}

func (s *Service) load(ctx context.Context) (*models.Directory, error) {
	if dir, ok := s.cache.Get(cacheKey); ok {
		s.metrics.CacheLookup("directory", true)
		return dir, nil
	}
	s.metrics.CacheLookup("directory", false)

	if dir := s.fromStore(ctx); dir != nil && common.IsFreshAt(dir.FetchedAt, s.cache.TTL(), s.now()) {
		s.cache.SetAt(cacheKey, dir, dir.FetchedAt)
		return dir, nil
	}

	dir, err := s.refresh(ctx)
	if err == nil {
		return dir, nil
	}

	// Serve a stale directory rather than failing the lookup
	if stale, ok := s.cache.Entry(cacheKey); ok && stale.Value != nil {
		s.logger.Warn().Err(err).Str("fetched_at", stale.FetchedAt.Format(time.RFC3339)).Msg("Directory refresh failed, serving stale copy")
		return stale.Value, nil
	}
	if stale := s.fromStore(ctx); stale != nil {
		s.logger.Warn().Err(err).Str("fetched_at", stale.FetchedAt.Format(time.RFC3339)).Msg("Directory refresh failed, serving stored copy")
		s.cache.SetAt(cacheKey, stale, stale.FetchedAt)
		return stale, nil
	}
	return nil, err
}

func (s *Service) refresh(ctx context.Context) (*models.Directory, error) {
	rows, err := s.client.GetCompanyTickers(ctx)
	if err == nil && len(rows) == 0 {
		err = fmt.Errorf("company directory is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company directory: %w", err)
	}

	dir := &models.Directory{
		Entries:   make(map[string]models.DirectoryEntry, len(rows)),
		FetchedAt: s.now(),
	}
	for _, row := range rows {
		key := common.DirectoryKey(row.Ticker)
		// First listing wins; the feed orders primary share classes first
		if _, exists := dir.Entries[key]; exists {
			continue
		}
		row.Ticker = key
		dir.Entries[key] = row
	}
	s.cache.SetAt(cacheKey, dir, dir.FetchedAt)

	if s.store != nil {
		if err := s.store.SaveDirectory(ctx, dir); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist company directory")
		}
	}

	s.logger.Info().Int("entries", len(dir.Entries)).Msg("Company directory refreshed")
	return dir, nil
}

func (s *Service) fromStore(ctx context.Context) *models.Directory {
	if s.store == nil {
		return nil
	}
	dir, err := s.store.GetDirectory(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Stored directory unavailable")
		return nil
	}
	if dir == nil || len(dir.Entries) == 0 {
		return nil
	}
	return dir
}

// Ensure Service implements DirectoryService
var _ interfaces.DirectoryService = (*Service)(nil)
