package valuation

import (
	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/history"
	"github.com/bobmcallan/fairval/internal/models"
)

// Inputs gathers everything the engine values a company from
type Inputs struct {
	Price          *float64
	MarketCap      *float64
	Beta           *float64
	Shares         *float64 // live share count
	Sector         string
	Annual         []models.PeriodRecord    // newest first
	PerShare       []models.PerShareMetrics // aligned with Annual
	Multiples      history.AverageMultiples
	AnalystTarget  *float64
	RevenueGrowth  *float64 // trailing year over year, from the market feed
	EarningsGrowth *float64
}

// Engine computes the composite valuation. It holds no mutable state.
type Engine struct {
	params Params
	logger *common.Logger
}

// NewEngine creates a valuation engine
func NewEngine(params Params, logger *common.Logger) *Engine {
	return &Engine{params: params, logger: logger}
}

// Params returns the engine's constants
func (e *Engine) Params() Params {
	return e.params
}

// Value runs every method whose inputs are available and blends the valid ones
func (e *Engine) Value(in Inputs) *models.CompositeValuation {
	p := e.params

	var latest *models.PeriodRecord
	if len(in.Annual) > 0 {
		latest = &in.Annual[0]
	}
	var ps *models.PerShareMetrics
	if len(in.PerShare) > 0 {
		ps = &in.PerShare[0]
	}

	var missing []string
	if !common.Positive(in.Price) {
		missing = append(missing, "price")
	}
	if latest == nil {
		missing = append(missing, "financial_history")
	}

	var shares *float64
	if latest != nil {
		shares, _ = history.ResolveShares(*latest, in.Shares)
	}

	cost := DiscountRate(p, latest, in.Beta, in.MarketCap)
	missing = append(missing, cost.Missing...)

	revenueCAGR := CAGR(series(in.Annual, func(r models.PeriodRecord) *float64 { return r.Revenue }), p.HistoryYears)
	epsCAGR := CAGR(series(in.Annual, func(r models.PeriodRecord) *float64 { return r.DilutedEPS }), p.HistoryYears)

	growth := common.FirstOf(common.Value(revenueCAGR), common.Value(in.RevenueGrowth))
	initialGrowth := p.DefaultGrowth
	if growth != nil {
		initialGrowth = *growth
	} else {
		missing = append(missing, "revenue_growth")
	}

	terminalMargin := TerminalMargin(p, in.Sector)
	dcf := DCF(p, DCFInput{
		History:        in.Annual,
		DiscountRate:   cost.Rate,
		TaxRate:        cost.TaxRate,
		Growth:         initialGrowth,
		TerminalMargin: terminalMargin,
		Shares:         shares,
	})
	missing = append(missing, dcf.Missing...)

	methods := []models.ValuationMethodResult{
		method(p, MethodDCF, "Discounted cash flow", models.BucketCashflow, dcf.Value, dcf.Reason),
	}
	earningsGrowth := common.FirstOf(common.Value(in.EarningsGrowth), common.Value(epsCAGR))
	methods = append(methods, secondaryMethods(p, in, latest, ps, cost.Rate, shares, earningsGrowth, growth)...)

	blendIn := BlendInputs{
		Price:       in.Price,
		Beta:        in.Beta,
		GrowthScore: GrowthScore(revenueCAGR, in.RevenueGrowth, earningsGrowth),
	}
	if latest != nil {
		blendIn.ROE = positiveDenominator(latest.NetIncome, latest.StockholdersEquity)
		blendIn.NetMargin = positiveDenominator(latest.NetIncome, latest.Revenue)
		blendIn.DebtToEquity = positiveDenominator(latest.TotalDebt, latest.StockholdersEquity)
	}
	blend := BlendMethods(p, methods, blendIn)

	result := &models.CompositeValuation{
		Methods:        blend.Methods,
		CompositeValue: blend.Value,
		Assumptions: models.ValuationAssumptions{
			DiscountRate:      common.Ptr(cost.Rate),
			CostOfEquity:      cost.CostOfEquity,
			CostOfDebt:        cost.CostOfDebt,
			TaxRate:           cost.TaxRate,
			EquityWeight:      cost.EquityWeight,
			DebtWeight:        cost.DebtWeight,
			Beta:              cost.Beta,
			TerminalGrowth:    p.TerminalGrowth,
			InitialGrowth:     common.Ptr(common.Clamp(initialGrowth, p.MinGrowth, p.MaxGrowth)),
			CurrentMargin:     dcf.CurrentMargin,
			TerminalMargin:    terminalMargin,
			Sector:            in.Sector,
			Buckets:           blend.Buckets,
			CrossMedian:       blend.CrossMedian,
			GrowthScore:       blendIn.GrowthScore,
			GrowthAdjustment:  blend.GrowthAdjustment,
			QualityAdjustment: blend.QualityAdjustment,
			RiskAdjustment:    blend.RiskAdjustment,
			RegimeAdjustment:  blend.RegimeAdjustment,
			PriceAnchorWeight: blend.PriceAnchorWeight,
			MissingInputs:     dedupe(missing),
		},
	}
	if blend.Value != nil && common.Positive(in.Price) {
		result.UpsidePercent = common.Ptr((*blend.Value - *in.Price) / *in.Price * 100)
	}
	result.Assumptions.Confidence = confidence(blend, result.Assumptions.MissingInputs)

	if e.logger != nil {
		event := e.logger.Debug().
			Int("methods", countValid(blend.Methods)).
			Int("buckets", len(blend.Buckets)).
			Str("confidence", result.Assumptions.Confidence)
		if blend.Value != nil {
			event = event.Float64("composite", *blend.Value)
		}
		event.Msg("Composite valuation computed")
	}
	return result
}

// Reverse solves the growth implied by the current price on EPS and on free
// cash flow per share, at the discount rate (or the default required return)
func (e *Engine) Reverse(in Inputs, discountRate *float64) []models.ReverseValuation {
	p := e.params
	r := p.DefaultRequiredReturn
	if common.Positive(discountRate) {
		r = *discountRate
	}

	var eps, fcf *float64
	if len(in.PerShare) > 0 {
		eps, fcf = in.PerShare[0].NetIncome, in.PerShare[0].FreeCashFlow
	}

	bases := []struct {
		basis    string
		value    *float64
		multiple float64
	}{
		{"eps", eps, p.TerminalPE},
		{"fcf_per_share", fcf, p.TerminalPFCF},
	}

	out := make([]models.ReverseValuation, 0, len(bases))
	for _, b := range bases {
		rv := models.ReverseValuation{
			Basis:            b.basis,
			BaseValue:        b.value,
			TerminalMultiple: b.multiple,
			RequiredReturn:   r,
			Years:            p.ReverseYears,
		}
		if common.Positive(in.Price) && common.Positive(b.value) {
			rv.ImpliedGrowth = ImpliedGrowth(*in.Price, *b.value, b.multiple, r, p.ReverseYears)
		}
		out = append(out, rv)
	}
	return out
}

// confidence grades the composite by how many independent buckets and
// methods contributed and how many inputs were missing
func confidence(b Blend, missing []string) string {
	if b.Value == nil {
		return "none"
	}
	valid := countValid(b.Methods)
	dcfValid := false
	for _, m := range b.Methods {
		if m.Key == MethodDCF && m.DynamicWeight > 0 {
			dcfValid = true
		}
	}
	switch {
	case len(b.Buckets) >= 2 && dcfValid && valid >= 4 && len(missing) <= 2:
		return "high"
	case len(b.Buckets) >= 2 || valid >= 3:
		return "medium"
	default:
		return "low"
	}
}

func countValid(methods []models.ValuationMethodResult) int {
	n := 0
	for _, m := range methods {
		if m.DynamicWeight > 0 {
			n++
		}
	}
	return n
}

func series(records []models.PeriodRecord, f func(models.PeriodRecord) *float64) []*float64 {
	out := make([]*float64, len(records))
	for i, r := range records {
		out[i] = f(r)
	}
	return out
}

func positiveDenominator(a, b *float64) *float64 {
	if !common.Positive(b) {
		return nil
	}
	return common.Div(a, b)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
