package interfaces

import (
	"context"

	"github.com/bobmcallan/fairval/internal/models"
)

// CacheStore is the optional second tier behind the in-process caches.
// Get methods return (nil, nil) when nothing is stored.
type CacheStore interface {
	GetDirectory(ctx context.Context) (*models.Directory, error)
	SaveDirectory(ctx context.Context, dir *models.Directory) error

	GetPriceHistory(ctx context.Context, symbol string) (*models.PriceHistory, error)
	SavePriceHistory(ctx context.Context, history *models.PriceHistory) error

	Close() error
}
