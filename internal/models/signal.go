package models

import "time"

// SignalAction is the discrete trading action
type SignalAction string

const (
	ActionWait           SignalAction = "WAIT"
	ActionAccumulate     SignalAction = "ACCUMULATE"
	ActionScaleIn        SignalAction = "SCALE_IN"
	ActionTakeProfit     SignalAction = "TAKE_PROFIT"
	ActionReduceExposure SignalAction = "REDUCE_EXPOSURE"
)

// IsBuy reports whether the action adds exposure
func (a SignalAction) IsBuy() bool {
	return a == ActionAccumulate || a == ActionScaleIn
}

// IsSell reports whether the action removes exposure
func (a SignalAction) IsSell() bool {
	return a == ActionTakeProfit || a == ActionReduceExposure
}

// Regime classifies recent price action
type Regime string

const (
	RegimeTrendUp   Regime = "TREND_UP"
	RegimeTrendDown Regime = "TREND_DOWN"
	RegimeRange     Regime = "RANGE"
	RegimeUnknown   Regime = "UNKNOWN"
)

// Mean reference sources, in priority order
const (
	MeanAnchoredVWAP = "anchored_vwap_ytd"
	MeanVWMA20       = "vwma_20"
	MeanSMA50        = "sma_50"
)

// PriceZone is an inclusive price band
type PriceZone struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// SignalLevels are the reference levels behind a signal
type SignalLevels struct {
	LatestClose float64   `json:"latest_close"`
	SMA50       float64   `json:"sma_50"`
	SMA200      float64   `json:"sma_200"`
	Spread      float64   `json:"spread"` // (SMA50 - SMA200) / SMA200
	Slope       float64   `json:"slope"`  // SMA50 change over the slope lookback
	ATR14       *float64  `json:"atr_14"`
	BuyZone     PriceZone `json:"buy_zone"`
	SellZone    PriceZone `json:"sell_zone"`
}

// TradingSignal is the regime classification and action for a price series
type TradingSignal struct {
	Action        SignalAction  `json:"action"`
	Regime        Regime        `json:"regime"`
	Confidence    int           `json:"confidence"`
	MeanReference *float64      `json:"mean_reference"`
	MeanSource    string        `json:"mean_source,omitempty"`
	StdDev        *float64      `json:"std_dev"`
	ZScore        *float64      `json:"z_score"`
	Levels        *SignalLevels `json:"levels,omitempty"`
	EntryZone     *PriceZone    `json:"entry_zone,omitempty"`
	Targets       []float64     `json:"targets"`
	Stop          *float64      `json:"stop,omitempty"`
	BarsUsed      int           `json:"bars_used"`
	AsOf          time.Time     `json:"as_of,omitempty"`
}
