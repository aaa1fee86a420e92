package storage

import (
	"context"
	"sync"

	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
)

// MemoryStore keeps cached feeds for the lifetime of the process
type MemoryStore struct {
	mu        sync.RWMutex
	directory *models.Directory
	prices    map[string]*models.PriceHistory
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prices: make(map[string]*models.PriceHistory)}
}

func (s *MemoryStore) GetDirectory(_ context.Context) (*models.Directory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.directory, nil
}

func (s *MemoryStore) SaveDirectory(_ context.Context, dir *models.Directory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory = dir
	return nil
}

func (s *MemoryStore) GetPriceHistory(_ context.Context, symbol string) (*models.PriceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices[symbol], nil
}

func (s *MemoryStore) SavePriceHistory(_ context.Context, history *models.PriceHistory) error {
	if history == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[history.Symbol] = history
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ interfaces.CacheStore = (*MemoryStore)(nil)
