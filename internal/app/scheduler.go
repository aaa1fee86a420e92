package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
)

const directoryRefreshTimeout = 2 * time.Minute

// newScheduler builds a cron scheduler that refreshes the company directory
// on the given standard 5-field schedule.
func newScheduler(spec string, directoryService interfaces.DirectoryService, logger *common.Logger, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		refreshDirectory(ctx, directoryService, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid directory refresh schedule %q: %w", spec, err)
	}
	return c, nil
}

func refreshDirectory(ctx context.Context, directoryService interfaces.DirectoryService, logger *common.Logger) {
	start := time.Now()

	if err := directoryService.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("Directory refresh: failed, keeping cached copy")
		return
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Msg("Directory refresh: complete")
}
