package app

import (
	"context"
	"os"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
)

// warmCache loads the company directory on startup so the first request
// does not block on the full directory download.
func warmCache(ctx context.Context, directoryService interfaces.DirectoryService, logger *common.Logger) {
	// Check env var override
	if os.Getenv("FAIRVAL_WARM_CACHE") == "off" {
		logger.Info().Msg("Warm cache: disabled via FAIRVAL_WARM_CACHE=off")
		return
	}

	start := time.Now()
	logger.Info().Msg("Warm cache: starting")

	entries, err := directoryService.Warm(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Warm cache: directory unavailable, requests will load it on demand")
		return
	}

	logger.Info().
		Int("entries", entries).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}
