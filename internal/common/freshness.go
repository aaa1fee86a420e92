// Package common provides shared utilities for Fairval
package common

import "time"

// Freshness TTLs for cached upstream data
const (
	FreshnessDirectory = 24 * time.Hour // ticker directory refreshes daily upstream
	FreshnessPrices    = 6 * time.Hour
	FreshnessQuote     = 2 * time.Hour

	DefaultUpstreamTimeout = 12 * time.Second
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	return IsFreshAt(updated, ttl, time.Now())
}

// IsFreshAt is IsFresh evaluated against an explicit clock
func IsFreshAt(updated time.Time, ttl time.Duration, now time.Time) bool {
	if updated.IsZero() {
		return false
	}
	return now.Sub(updated) < ttl
}
