package valuation

import (
	"math"

	"github.com/bobmcallan/fairval/internal/common"
)

// ImpliedGrowth solves price = base*(1+g)^years*multiple / (1+r)^years for g.
// Returns nil on any non-positive input.
func ImpliedGrowth(price, base, multiple, requiredReturn float64, years int) *float64 {
	if price <= 0 || base <= 0 || multiple <= 0 || requiredReturn <= 0 || years <= 0 {
		return nil
	}
	n := float64(years)
	ratio := price * math.Pow(1+requiredReturn, n) / (base * multiple)
	return common.Ptr(math.Pow(ratio, 1/n) - 1)
}

// ForwardPrice is the price a base growing at g for years, exiting at
// multiple and discounted at requiredReturn, is worth today
func ForwardPrice(base, growth, multiple, requiredReturn float64, years int) *float64 {
	if base <= 0 || multiple <= 0 || requiredReturn <= 0 || years <= 0 || growth <= -1 {
		return nil
	}
	n := float64(years)
	return common.Ptr(base * math.Pow(1+growth, n) * multiple / math.Pow(1+requiredReturn, n))
}
