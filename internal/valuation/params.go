// Package valuation derives per-share fair value estimates from financial
// history and blends them into one composite.
package valuation

import (
	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

// Method keys
const (
	MethodDCF        = "dcf"
	MethodGraham     = "graham"
	MethodEPV        = "epv"
	MethodRelativePS = "relative_ps"
	MethodRelativePE = "relative_pe"
	MethodRelativePB = "relative_pb"
	MethodPEG        = "peg"
	MethodPSG        = "psg"
	MethodAnalyst    = "analyst"
)

// Params holds every tunable constant of the engine. The blending constants
// were chosen empirically; they are exposed for calibration.
type Params struct {
	// Cost of capital
	RiskFreeRate      float64
	EquityRiskPremium float64
	DefaultBeta       float64
	DefaultCostOfDebt float64
	DefaultTaxRate    float64
	MaxTaxRate        float64

	// Discounted cash flow
	ProjectionYears       int
	HighGrowthYears       int
	HistoryYears          int
	TerminalGrowth        float64
	TerminalSafetyMargin  float64
	MinGrowth             float64
	MaxGrowth             float64
	DefaultGrowth         float64
	MinTerminalMargin     float64
	MaxTerminalMargin     float64
	DefaultTerminalMargin float64
	DefaultDARatio        float64
	DefaultCapexRatio     float64
	DefaultNWCRatio       float64

	// Secondary models
	HaircutPS             float64
	HaircutPE             float64
	HaircutPB             float64
	GrowthAdjustedHaircut float64
	MethodWeights         map[string]float64

	// Composite blending
	BucketWeights           map[models.BucketType]float64
	CalibrationLow          float64
	CalibrationHigh         float64
	ReliabilitySlope        float64
	MedianAnchorWeight      float64
	MinGrowthAdjustment     float64
	MaxGrowthAdjustment     float64
	MaxQualityAdjustment    float64
	MaxRiskPenalty          float64
	RegimeThreshold         float64
	RegimeDamping           float64
	RegimeBoost             float64
	RegimeBoostMinGrowth    float64
	PriceAnchorBase         float64
	PriceAnchorDisagreement float64
	PriceAnchorBeta         float64
	PriceAnchorCap          float64
	ClampLow                float64
	ClampHigh               float64

	// Reverse valuation
	TerminalPE            float64
	TerminalPFCF          float64
	ReverseYears          int
	DefaultRequiredReturn float64
}

// DefaultParams returns the engine defaults
func DefaultParams() Params {
	return Params{
		RiskFreeRate:      0.04,
		EquityRiskPremium: 0.05,
		DefaultBeta:       1.0,
		DefaultCostOfDebt: 0.05,
		DefaultTaxRate:    0.21,
		MaxTaxRate:        0.35,

		ProjectionYears:       10,
		HighGrowthYears:       5,
		HistoryYears:          5,
		TerminalGrowth:        0.025,
		TerminalSafetyMargin:  0.01,
		MinGrowth:             -0.05,
		MaxGrowth:             0.25,
		DefaultGrowth:         0.05,
		MinTerminalMargin:     0.02,
		MaxTerminalMargin:     0.20,
		DefaultTerminalMargin: 0.10,
		DefaultDARatio:        0.03,
		DefaultCapexRatio:     0.04,
		DefaultNWCRatio:       0.01,

		HaircutPS:             0.20,
		HaircutPE:             0.15,
		HaircutPB:             0.10,
		GrowthAdjustedHaircut: 0.15,
		MethodWeights: map[string]float64{
			MethodDCF:        1.0,
			MethodGraham:     0.5,
			MethodEPV:        0.6,
			MethodRelativePS: 0.8,
			MethodRelativePE: 1.0,
			MethodRelativePB: 0.7,
			MethodPEG:        0.6,
			MethodPSG:        0.5,
			MethodAnalyst:    1.0,
		},

		BucketWeights: map[models.BucketType]float64{
			models.BucketCashflow: 0.55,
			models.BucketRelative: 0.35,
			models.BucketAnalyst:  0.10,
		},
		CalibrationLow:          0.2,
		CalibrationHigh:         5.0,
		ReliabilitySlope:        2.0,
		MedianAnchorWeight:      0.10,
		MinGrowthAdjustment:     -0.05,
		MaxGrowthAdjustment:     0.08,
		MaxQualityAdjustment:    0.04,
		MaxRiskPenalty:          0.08,
		RegimeThreshold:         1.35,
		RegimeDamping:           0.92,
		RegimeBoost:             1.04,
		RegimeBoostMinGrowth:    0.05,
		PriceAnchorBase:         0.05,
		PriceAnchorDisagreement: 0.15,
		PriceAnchorBeta:         0.04,
		PriceAnchorCap:          0.22,
		ClampLow:                0.45,
		ClampHigh:               2.40,

		TerminalPE:            15,
		TerminalPFCF:          15,
		ReverseYears:          10,
		DefaultRequiredReturn: 0.10,
	}
}

// ParamsFromConfig applies non-zero config overrides to the defaults
func ParamsFromConfig(cfg common.ValuationConfig) Params {
	p := DefaultParams()
	override := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	override(&p.RiskFreeRate, cfg.RiskFreeRate)
	override(&p.EquityRiskPremium, cfg.EquityRiskPremium)
	override(&p.TerminalGrowth, cfg.TerminalGrowth)
	override(&p.MedianAnchorWeight, cfg.MedianAnchorWeight)
	override(&p.PriceAnchorBase, cfg.PriceAnchorBase)
	override(&p.PriceAnchorCap, cfg.PriceAnchorCap)
	override(&p.ClampLow, cfg.ClampLow)
	override(&p.ClampHigh, cfg.ClampHigh)
	override(&p.TerminalPE, cfg.TerminalPE)
	override(&p.TerminalPFCF, cfg.TerminalPFCF)
	override(&p.RegimeThreshold, cfg.RegimeThreshold)
	override(&p.RegimeDamping, cfg.RegimeDamping)
	override(&p.RegimeBoost, cfg.RegimeBoost)
	override(&p.DefaultTerminalMargin, cfg.DefaultTerminalMargin)
	override(&p.HaircutPS, cfg.HaircutPS)
	override(&p.HaircutPE, cfg.HaircutPE)
	override(&p.HaircutPB, cfg.HaircutPB)
	if cfg.ReverseYears > 0 {
		p.ReverseYears = cfg.ReverseYears
	}

	weights := map[models.BucketType]float64{}
	for k, v := range p.BucketWeights {
		weights[k] = v
	}
	if cfg.CashflowWeight > 0 {
		weights[models.BucketCashflow] = cfg.CashflowWeight
	}
	if cfg.RelativeWeight > 0 {
		weights[models.BucketRelative] = cfg.RelativeWeight
	}
	if cfg.AnalystWeight > 0 {
		weights[models.BucketAnalyst] = cfg.AnalystWeight
	}
	p.BucketWeights = weights

	methods := map[string]float64{}
	for k, v := range p.MethodWeights {
		methods[k] = v
	}
	for k, v := range cfg.MethodWeights {
		if _, known := methods[k]; known && v >= 0 {
			methods[k] = v
		}
	}
	p.MethodWeights = methods
	return p
}
