package common

import (
	"math"
	"sort"
)

// Ptr returns a pointer to v when v is finite, nil otherwise
func Ptr(v float64) *float64 {
	if !IsFinite(v) {
		return nil
	}
	return &v
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Positive reports whether p holds a finite value greater than zero
func Positive(p *float64) bool {
	return p != nil && IsFinite(*p) && *p > 0
}

// Div divides a by b, returning nil when either side is missing or the
// result would not be finite.
func Div(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	return Ptr(*a / *b)
}

// Sub returns a - b, or nil when either side is missing
func Sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return Ptr(*a - *b)
}

// FirstOf evaluates candidates in order and returns the first non-nil result.
// Later candidates are not evaluated once one succeeds.
func FirstOf(candidates ...func() *float64) *float64 {
	for _, c := range candidates {
		if v := c(); v != nil {
			return v
		}
	}
	return nil
}

// Value returns a closure yielding p, for use with FirstOf
func Value(p *float64) func() *float64 {
	return func() *float64 { return p }
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Median returns the median of values, or NaN for an empty slice
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Mean returns the arithmetic mean of values, or NaN for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
