package interfaces

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidTicker is returned before any upstream call for malformed input
	ErrInvalidTicker = errors.New("invalid ticker")

	// ErrInvalidPeriod is returned for a period other than annual or quarterly
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrNotFound is returned when a ticker resolves to no company and no quote
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable is returned when every usable feed failed
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamError carries per-source failure detail for a total upstream failure
type UpstreamError struct {
	Ticker  string
	Sources map[string]string // source -> error message
}

func (e *UpstreamError) Error() string {
	names := make([]string, 0, len(e.Sources))
	for name := range e.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Sources[name]))
	}
	return fmt.Sprintf("upstream unavailable for %s (%s)", e.Ticker, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrUpstreamUnavailable
func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamUnavailable
}
