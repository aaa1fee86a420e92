package valuation

import (
	"math"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

// DCFInput holds the inputs of the multi-stage unlevered free cash flow model
type DCFInput struct {
	History        []models.PeriodRecord // annual, newest first
	DiscountRate   float64
	TaxRate        float64
	Growth         float64 // initial growth, before clamping
	TerminalMargin float64
	Shares         *float64
}

// Projection is one projected year
type Projection struct {
	Year          int     `json:"year"`
	Revenue       float64 `json:"revenue"`
	Growth        float64 `json:"growth"`
	Margin        float64 `json:"margin"`
	FreeCashFlow  float64 `json:"free_cash_flow"`
	PresentValue  float64 `json:"present_value"`
}

// DCFResult is the model output. Value is nil whenever a guard trips;
// Reason then names the guard.
type DCFResult struct {
	Value           *float64
	CurrentMargin   *float64
	EnterpriseValue float64
	NetDebt         float64
	TerminalValue   float64
	Projections     []Projection
	Reason          string
	Missing         []string
}

// DCF projects ten years of unlevered free cash flow from the latest revenue.
// Growth holds at the clamped initial rate for the high-growth years then
// fades linearly to terminal growth; operating margin moves linearly from the
// current margin to the terminal margin. Each year's FCF is
// EBIT*(1-tax) + D&A - capex - change in NWC, the last three as ratios of that
// year's revenue. Returns a nil Value when the discount rate does not clear
// terminal growth plus the safety margin, when terminal FCF is not positive,
// or when the per-share result cannot be formed.
func DCF(p Params, in DCFInput) DCFResult {
	var res DCFResult

	if len(in.History) == 0 || !common.Positive(in.History[0].Revenue) {
		res.Reason = "no revenue"
		res.Missing = append(res.Missing, "revenue")
		return res
	}
	if in.DiscountRate <= p.TerminalGrowth+p.TerminalSafetyMargin {
		res.Reason = "discount rate does not exceed terminal growth"
		return res
	}
	if !common.Positive(in.Shares) {
		res.Reason = "no share count"
		res.Missing = append(res.Missing, "shares")
		return res
	}

	latest := in.History[0]
	g0 := common.Clamp(in.Growth, p.MinGrowth, p.MaxGrowth)

	margin := common.FirstOf(
		func() *float64 { return revenueRatio(latest.OperatingIncome, latest.Revenue) },
		func() *float64 {
			return averageRatio(in.History, p.HistoryYears, func(r models.PeriodRecord) *float64 { return r.OperatingIncome })
		},
	)
	m0 := in.TerminalMargin
	if margin != nil {
		m0 = *margin
		res.CurrentMargin = margin
	} else {
		res.Missing = append(res.Missing, "operating_margin")
	}

	da := ratioOrDefault(&res, "da_ratio", p.DefaultDARatio, averageRatio(in.History, p.HistoryYears, func(r models.PeriodRecord) *float64 {
		return abs(r.DepreciationAmortization)
	}))
	capex := ratioOrDefault(&res, "capex_ratio", p.DefaultCapexRatio, averageRatio(in.History, p.HistoryYears, func(r models.PeriodRecord) *float64 {
		return abs(r.CapitalExpenditure)
	}))
	nwc := ratioOrDefault(&res, "nwc_ratio", p.DefaultNWCRatio, nwcChangeRatio(in.History, p.HistoryYears))

	r := in.DiscountRate
	n := p.ProjectionYears
	revenue := *latest.Revenue
	pv := 0.0
	var fcf float64

	for t := 1; t <= n; t++ {
		g := growthAt(p, g0, t)
		revenue *= 1 + g
		m := m0 + (in.TerminalMargin-m0)*float64(t)/float64(n)
		ebit := revenue * m
		fcf = ebit*(1-in.TaxRate) + revenue*da - revenue*capex - revenue*nwc
		discounted := fcf / math.Pow(1+r, float64(t))
		pv += discounted
		res.Projections = append(res.Projections, Projection{
			Year:         t,
			Revenue:      revenue,
			Growth:       g,
			Margin:       m,
			FreeCashFlow: fcf,
			PresentValue: discounted,
		})
	}

	if fcf <= 0 {
		res.Reason = "terminal free cash flow is not positive"
		return res
	}

	res.TerminalValue = fcf * (1 + p.TerminalGrowth) / (r - p.TerminalGrowth)
	res.EnterpriseValue = pv + res.TerminalValue/math.Pow(1+r, float64(n))

	if latest.TotalDebt != nil {
		res.NetDebt += *latest.TotalDebt
	}
	if latest.Cash != nil {
		res.NetDebt -= *latest.Cash
	}
	if latest.TotalDebt == nil && latest.Cash == nil {
		res.Missing = append(res.Missing, "net_debt")
	}

	perShare := (res.EnterpriseValue - res.NetDebt) / *in.Shares
	if perShare <= 0 || !common.IsFinite(perShare) {
		res.Reason = "equity value is not positive"
		return res
	}
	res.Value = common.Ptr(perShare)
	return res
}

// growthAt holds g0 through the high-growth years, then fades linearly so
// the final projection year grows at terminal growth.
func growthAt(p Params, g0 float64, year int) float64 {
	if year <= p.HighGrowthYears {
		return g0
	}
	fadeYears := p.ProjectionYears - p.HighGrowthYears
	if fadeYears <= 0 {
		return p.TerminalGrowth
	}
	step := float64(year-p.HighGrowthYears) / float64(fadeYears)
	return g0 + (p.TerminalGrowth-g0)*step
}

// CAGR is the compound annual growth rate between the newest value and the
// oldest positive value at most maxYears back. values are newest first.
func CAGR(values []*float64, maxYears int) *float64 {
	if len(values) < 2 || !common.Positive(values[0]) {
		return nil
	}
	last := len(values) - 1
	if last > maxYears {
		last = maxYears
	}
	for k := last; k >= 1; k-- {
		if common.Positive(values[k]) {
			return common.Ptr(math.Pow(*values[0] / *values[k], 1/float64(k)) - 1)
		}
	}
	return nil
}

func revenueRatio(v, revenue *float64) *float64 {
	if !common.Positive(revenue) {
		return nil
	}
	return common.Div(v, revenue)
}

// averageRatio averages f(record)/revenue over the newest n records where both exist
func averageRatio(history []models.PeriodRecord, n int, f func(models.PeriodRecord) *float64) *float64 {
	var ratios []float64
	for i, r := range history {
		if i >= n {
			break
		}
		if v := revenueRatio(f(r), r.Revenue); v != nil {
			ratios = append(ratios, *v)
		}
	}
	if len(ratios) == 0 {
		return nil
	}
	return common.Ptr(common.Mean(ratios))
}

// nwcChangeRatio averages the year-over-year change in net working capital
// as a share of that year's revenue
func nwcChangeRatio(history []models.PeriodRecord, n int) *float64 {
	var ratios []float64
	for i := 0; i+1 < len(history) && i < n; i++ {
		cur, prev := history[i], history[i+1]
		nwc := common.Sub(cur.CurrentAssets, cur.CurrentLiabilities)
		prevNWC := common.Sub(prev.CurrentAssets, prev.CurrentLiabilities)
		if v := revenueRatio(common.Sub(nwc, prevNWC), cur.Revenue); v != nil {
			ratios = append(ratios, *v)
		}
	}
	if len(ratios) == 0 {
		return nil
	}
	return common.Ptr(common.Mean(ratios))
}

func ratioOrDefault(res *DCFResult, name string, fallback float64, v *float64) float64 {
	if v == nil {
		res.Missing = append(res.Missing, name)
		return fallback
	}
	return *v
}

func abs(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return common.Ptr(math.Abs(*v))
}
