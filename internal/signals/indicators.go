// Package signals classifies a daily price series into a regime and a
// discrete trading action. Bars are ascending by date: the latest bar is last.
package signals

import (
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/fairval/internal/models"
)

// Clean sorts bars ascending, keeps the last bar seen for each date and
// drops bars without a positive finite close
func Clean(points []models.PricePoint) []models.PricePoint {
	byDate := make(map[string]int, len(points))
	out := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Close <= 0 || math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			continue
		}
		key := p.Date.UTC().Format("2006-01-02")
		if i, ok := byDate[key]; ok {
			out[i] = p
			continue
		}
		byDate[key] = len(out)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// SMA calculates the simple moving average of the last period closes
func SMA(bars []models.PricePoint, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	sum := 0.0
	for _, b := range bars[len(bars)-period:] {
		sum += b.Close
	}
	return sum / float64(period)
}

// VWMA calculates the volume-weighted moving average of the last period closes.
// Returns 0 when the window carries no volume.
func VWMA(bars []models.PricePoint, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	var pv, vol float64
	for _, b := range bars[len(bars)-period:] {
		if b.Volume <= 0 {
			continue
		}
		pv += b.Close * b.Volume
		vol += b.Volume
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}

// AnchoredVWAP is the running volume-weighted typical price from the first
// bar on or after anchor through the latest bar. minBars bars are required.
func AnchoredVWAP(bars []models.PricePoint, anchor time.Time, minBars int) float64 {
	start := sort.Search(len(bars), func(i int) bool {
		return !bars[i].Date.Before(anchor)
	})
	window := bars[start:]
	if len(window) == 0 || len(window) < minBars {
		return 0
	}

	var pv, vol float64
	for _, b := range window {
		if b.Volume <= 0 {
			continue
		}
		pv += typicalPrice(b) * b.Volume
		vol += b.Volume
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}

// StdDev is the population standard deviation of the last period closes
func StdDev(bars []models.PricePoint, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}
	window := bars[len(bars)-period:]

	mean := 0.0
	for _, b := range window {
		mean += b.Close
	}
	mean /= float64(period)

	variance := 0.0
	for _, b := range window {
		d := b.Close - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(period))
}

// ATR calculates the average true range over the last period bars
func ATR(bars []models.PricePoint, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return 0
	}

	trSum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		high, low := barHigh(bars[i]), barLow(bars[i])
		prevClose := bars[i-1].Close

		tr1 := high - low
		tr2 := math.Abs(high - prevClose)
		tr3 := math.Abs(low - prevClose)

		trSum += math.Max(tr1, math.Max(tr2, tr3))
	}

	return trSum / float64(period)
}

// Spread is the percentage gap of the short average over the long one
func Spread(short, long float64) float64 {
	if long == 0 {
		return 0
	}
	return (short - long) / long
}

func typicalPrice(b models.PricePoint) float64 {
	return (barHigh(b) + barLow(b) + b.Close) / 3
}

// barHigh falls back to close when the feed omits the high
func barHigh(b models.PricePoint) float64 {
	if b.High <= 0 {
		return b.Close
	}
	return b.High
}

func barLow(b models.PricePoint) float64 {
	if b.Low <= 0 {
		return b.Close
	}
	return b.Low
}
