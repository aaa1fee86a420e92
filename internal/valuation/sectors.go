package valuation

import "strings"

// sectorMargins are long-run operating margins by sector
var sectorMargins = map[string]float64{
	"technology":             0.24,
	"communication services": 0.18,
	"healthcare":             0.15,
	"financial services":     0.25,
	"consumer cyclical":      0.09,
	"consumer defensive":     0.08,
	"industrials":            0.11,
	"energy":                 0.12,
	"basic materials":        0.11,
	"utilities":              0.17,
	"real estate":            0.22,
}

// TerminalMargin looks up the sector's long-run operating margin, bounded to
// the configured range. Unknown sectors use the default.
func TerminalMargin(p Params, sector string) float64 {
	m, ok := sectorMargins[strings.ToLower(strings.TrimSpace(sector))]
	if !ok {
		m = p.DefaultTerminalMargin
	}
	if m < p.MinTerminalMargin {
		return p.MinTerminalMargin
	}
	if m > p.MaxTerminalMargin {
		return p.MaxTerminalMargin
	}
	return m
}
