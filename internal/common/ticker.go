package common

import (
	"regexp"
	"strings"
)

// MaxTickerLength is the longest ticker accepted from callers
const MaxTickerLength = 10

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]+$`)

// IsValidTicker reports whether s is a non-empty alphanumeric ticker that may
// contain dots and hyphens, at most MaxTickerLength characters long.
func IsValidTicker(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxTickerLength {
		return false
	}
	return tickerPattern.MatchString(s)
}

// NormalizeTicker upper-cases and trims a caller-supplied ticker
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// DirectoryKey maps a ticker to the form used by the company directory,
// where share classes are hyphenated (BRK.B -> BRK-B).
func DirectoryKey(ticker string) string {
	return strings.ReplaceAll(NormalizeTicker(ticker), ".", "-")
}

// MarketSymbol returns the market feed symbol for a ticker. Tickers that
// already carry an exchange suffix (e.g. BHP.AU) are passed through; share
// class suffixes of a single letter (BRK.B) are hyphenated first.
func MarketSymbol(ticker, exchange string) string {
	t := NormalizeTicker(ticker)
	if exchange == "" {
		exchange = "US"
	}
	if i := strings.LastIndex(t, "."); i > 0 {
		suffix := t[i+1:]
		if len(suffix) >= 2 {
			return t
		}
		t = t[:i] + "-" + suffix
	}
	return t + "." + strings.ToUpper(exchange)
}
