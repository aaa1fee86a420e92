package signals

import (
	"math"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

// Params holds the windows and thresholds of the signal engine
type Params struct {
	MinBars         int
	StdDevWindow    int
	VWMAWindow      int
	ShortWindow     int
	LongWindow      int
	SlopeLookback   int
	ATRPeriod       int
	MinAnchoredBars int
	StopATRMultiple float64
	TrendSpread     float64
	TrendSlope      float64
}

// DefaultParams returns the engine defaults
func DefaultParams() Params {
	return Params{
		MinBars:         60,
		StdDevWindow:    60,
		VWMAWindow:      20,
		ShortWindow:     50,
		LongWindow:      200,
		SlopeLookback:   20,
		ATRPeriod:       14,
		MinAnchoredBars: 5,
		StopATRMultiple: 1.5,
		TrendSpread:     0.01,
		TrendSlope:      0.005,
	}
}

// ParamsFromConfig applies non-zero config overrides to the defaults
func ParamsFromConfig(cfg common.SignalsConfig) Params {
	p := DefaultParams()
	if cfg.MinBars > 0 {
		p.MinBars = cfg.MinBars
	}
	if cfg.StdDevWindow > 0 {
		p.StdDevWindow = cfg.StdDevWindow
	}
	if cfg.VWMAWindow > 0 {
		p.VWMAWindow = cfg.VWMAWindow
	}
	if cfg.SlopeLookback > 0 {
		p.SlopeLookback = cfg.SlopeLookback
	}
	return p
}

// thresholds are z-score cut-offs for one regime. A zero cut-off disables it.
type thresholds struct {
	scaleIn    float64 // buy at z <= scaleIn
	accumulate float64
	takeProfit float64 // sell at z >= takeProfit
	reduce     float64
}

var regimeThresholds = map[models.Regime]thresholds{
	models.RegimeRange:     {scaleIn: -1.8, accumulate: -2.5, takeProfit: 1.8, reduce: 2.5},
	models.RegimeTrendUp:   {scaleIn: -1.0, accumulate: -2.0, takeProfit: 2.5},
	models.RegimeTrendDown: {scaleIn: -2.8, reduce: 2.0},
}

// Engine computes trading signals. Computation is a pure function of the bars.
type Engine struct {
	params Params
	logger *common.Logger
}

// NewEngine creates a signal engine
func NewEngine(params Params, logger *common.Logger) *Engine {
	return &Engine{params: params, logger: logger}
}

// Compute classifies the series. With fewer than MinBars qualifying bars it
// returns WAIT in an UNKNOWN regime with zero confidence.
func (e *Engine) Compute(points []models.PricePoint) *models.TradingSignal {
	p := e.params
	bars := Clean(points)

	signal := &models.TradingSignal{
		Action:   models.ActionWait,
		Regime:   models.RegimeUnknown,
		Targets:  []float64{},
		BarsUsed: len(bars),
	}
	if len(bars) == 0 {
		return signal
	}
	last := bars[len(bars)-1]
	signal.AsOf = last.Date
	if len(bars) < p.MinBars {
		return signal
	}

	mean, source := e.meanReference(bars)
	sigma := StdDev(bars, p.StdDevWindow)
	z := 0.0
	if sigma > 0 {
		z = (last.Close - mean) / sigma
	}

	sma50 := SMA(bars, p.ShortWindow)
	longWindow := p.LongWindow
	if len(bars) < longWindow {
		longWindow = len(bars)
	}
	sma200 := SMA(bars, longWindow)
	spread := Spread(sma50, sma200)

	slope := 0.0
	if len(bars) >= p.ShortWindow+p.SlopeLookback {
		prior := SMA(bars[:len(bars)-p.SlopeLookback], p.ShortWindow)
		slope = Spread(sma50, prior)
	}

	regime := Classify(p, spread, slope)
	action := Action(regime, z)

	signal.Regime = regime
	signal.Action = action
	signal.MeanReference = common.Ptr(mean)
	signal.MeanSource = source
	signal.StdDev = common.Ptr(sigma)
	signal.ZScore = common.Ptr(z)
	signal.Confidence = Confidence(action, regime, z, spread, slope)

	levels := &models.SignalLevels{
		LatestClose: last.Close,
		SMA50:       sma50,
		SMA200:      sma200,
		Spread:      spread,
		Slope:       slope,
		BuyZone:     models.PriceZone{Low: mean - 2*sigma, High: mean - sigma},
		SellZone:    models.PriceZone{Low: mean + sigma, High: mean + 2*sigma},
	}
	atr := ATR(bars, p.ATRPeriod)
	if atr > 0 {
		levels.ATR14 = common.Ptr(atr)
	}
	signal.Levels = levels

	switch {
	case action.IsBuy():
		zone := levels.BuyZone
		signal.EntryZone = &zone
		signal.Targets = []float64{last.Close + (mean-last.Close)/2, mean, mean + sigma}
		if atr > 0 {
			signal.Stop = common.Ptr(last.Close - p.StopATRMultiple*atr)
		}
	case action.IsSell():
		zone := levels.SellZone
		signal.EntryZone = &zone
		signal.Targets = []float64{last.Close - (last.Close-mean)/2, mean, mean - sigma}
		if atr > 0 {
			signal.Stop = common.Ptr(last.Close + p.StopATRMultiple*atr)
		}
	}

	if e.logger != nil {
		e.logger.Debug().
			Str("regime", string(regime)).
			Str("action", string(action)).
			Str("mean_source", source).
			Int("bars", len(bars)).
			Int("confidence", signal.Confidence).
			Msg("Signal computed")
	}
	return signal
}

// meanReference prefers the year-to-date anchored VWAP, then the 20-bar
// VWMA, then the 50-bar SMA
func (e *Engine) meanReference(bars []models.PricePoint) (float64, string) {
	p := e.params
	last := bars[len(bars)-1].Date
	yearStart := time.Date(last.Year(), time.January, 1, 0, 0, 0, 0, last.Location())

	if v := AnchoredVWAP(bars, yearStart, p.MinAnchoredBars); v > 0 {
		return v, models.MeanAnchoredVWAP
	}
	if v := VWMA(bars, p.VWMAWindow); v > 0 {
		return v, models.MeanVWMA20
	}
	return SMA(bars, p.ShortWindow), models.MeanSMA50
}

// Classify maps the moving-average spread and slope to a regime
func Classify(p Params, spread, slope float64) models.Regime {
	switch {
	case spread >= p.TrendSpread && slope >= p.TrendSlope:
		return models.RegimeTrendUp
	case spread <= -p.TrendSpread && slope <= -p.TrendSlope:
		return models.RegimeTrendDown
	default:
		return models.RegimeRange
	}
}

// Action applies the regime's z-score thresholds
func Action(regime models.Regime, z float64) models.SignalAction {
	t, ok := regimeThresholds[regime]
	if !ok {
		return models.ActionWait
	}
	switch {
	case t.accumulate != 0 && z <= t.accumulate:
		return models.ActionAccumulate
	case t.scaleIn != 0 && z <= t.scaleIn:
		return models.ActionScaleIn
	case t.reduce != 0 && z >= t.reduce:
		return models.ActionReduceExposure
	case t.takeProfit != 0 && z >= t.takeProfit:
		return models.ActionTakeProfit
	}
	return models.ActionWait
}

// Confidence blends signal strength, regime clarity and trend strength into [0, 100]
func Confidence(action models.SignalAction, regime models.Regime, z, spread, slope float64) int {
	strength := math.Min(100, math.Abs(z)/3*100)

	clarity := 40.0
	switch {
	case regime == models.RegimeRange && action != models.ActionWait:
		clarity = 85
	case regime != models.RegimeRange:
		clarity = 75
	}

	trend := math.Min(100, math.Abs(spread)*1500+math.Abs(slope)*1500)

	return int(math.Round(0.55*strength + 0.30*clarity + 0.15*trend))
}
