package valuation

import (
	"math"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/history"
	"github.com/bobmcallan/fairval/internal/models"
)

// Graham is sqrt(22.5 * EPS * BVPS). Requires positive net income and equity.
func Graham(latest *models.PeriodRecord, ps *models.PerShareMetrics) *float64 {
	if latest == nil || ps == nil {
		return nil
	}
	if !common.Positive(latest.NetIncome) || !common.Positive(latest.StockholdersEquity) {
		return nil
	}
	if !common.Positive(ps.NetIncome) || !common.Positive(ps.BookValue) {
		return nil
	}
	return common.Ptr(math.Sqrt(22.5 * *ps.NetIncome * *ps.BookValue))
}

// EarningsPowerValue capitalises current net income at the discount rate
func EarningsPowerValue(latest *models.PeriodRecord, discountRate float64, shares *float64) *float64 {
	if latest == nil || !common.Positive(latest.NetIncome) || discountRate <= 0 || !common.Positive(shares) {
		return nil
	}
	return positive(*latest.NetIncome / discountRate / *shares)
}

// Relative applies a historical-average multiple to the current per-share
// fundamental, less a margin-of-safety haircut
func Relative(multiple, fundamental *float64, haircut float64) *float64 {
	if !common.Positive(multiple) || !common.Positive(fundamental) {
		return nil
	}
	return positive(*multiple * *fundamental * (1 - haircut))
}

// PEG values earnings at a P/E equal to the growth rate in percent, bounded to [8, 30]
func PEG(eps, growth *float64, haircut float64) *float64 {
	if !common.Positive(eps) || !common.Positive(growth) {
		return nil
	}
	fairPE := common.Clamp(*growth*100, 8, 30)
	return positive(fairPE * *eps * (1 - haircut))
}

// PSG values sales at a P/S of ten times the growth rate, bounded to [0.5, 8]
func PSG(revenuePerShare, growth *float64, haircut float64) *float64 {
	if !common.Positive(revenuePerShare) || !common.Positive(growth) {
		return nil
	}
	fairPS := common.Clamp(*growth*10, 0.5, 8)
	return positive(fairPS * *revenuePerShare * (1 - haircut))
}

// secondaryMethods evaluates every non-DCF method. Each is nil when its
// inputs are missing.
func secondaryMethods(p Params, in Inputs, latest *models.PeriodRecord, ps *models.PerShareMetrics, discountRate float64, shares, earningsGrowth, revenueGrowth *float64) []models.ValuationMethodResult {
	var eps, bvps, rps *float64
	if ps != nil {
		eps, bvps, rps = ps.NetIncome, ps.BookValue, ps.Revenue
	}
	avg := in.Multiples

	return []models.ValuationMethodResult{
		method(p, MethodGraham, "Graham number", models.BucketConservative, Graham(latest, ps), ""),
		method(p, MethodEPV, "Earnings power value", models.BucketConservative, EarningsPowerValue(latest, discountRate, shares), ""),
		method(p, MethodRelativePS, "Historical P/S", models.BucketRelative, Relative(avg.PriceToSales, rps, p.HaircutPS), yearsNote(avg)),
		method(p, MethodRelativePE, "Historical P/E", models.BucketRelative, Relative(avg.PriceToEarnings, eps, p.HaircutPE), yearsNote(avg)),
		method(p, MethodRelativePB, "Historical P/B", models.BucketRelative, Relative(avg.PriceToBook, bvps, p.HaircutPB), yearsNote(avg)),
		method(p, MethodPEG, "Growth-adjusted P/E", models.BucketRelative, PEG(eps, earningsGrowth, p.GrowthAdjustedHaircut), ""),
		method(p, MethodPSG, "Growth-adjusted P/S", models.BucketRelative, PSG(rps, revenueGrowth, p.GrowthAdjustedHaircut), ""),
		method(p, MethodAnalyst, "Analyst target", models.BucketAnalyst, positivePtr(in.AnalystTarget), ""),
	}
}

func method(p Params, key, label string, bucket models.BucketType, raw *float64, note string) models.ValuationMethodResult {
	return models.ValuationMethodResult{
		Key:        key,
		Label:      label,
		RawValue:   raw,
		Weight:     p.MethodWeights[key],
		BucketType: bucket,
		Note:       note,
	}
}

func yearsNote(avg history.AverageMultiples) string {
	if avg.Years == 0 {
		return "no price history at period ends"
	}
	return ""
}

func positive(v float64) *float64 {
	if v <= 0 || !common.IsFinite(v) {
		return nil
	}
	return &v
}

func positivePtr(v *float64) *float64 {
	if !common.Positive(v) {
		return nil
	}
	return v
}
