package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/history"
	"github.com/bobmcallan/fairval/internal/models"
)

func f(v float64) *float64 { return &v }

// healthyHistory returns five years of a profitable, growing company, newest first
func healthyHistory() []models.PeriodRecord {
	var out []models.PeriodRecord
	revenue := 1000.0
	for i := 0; i < 5; i++ {
		out = append(out, models.PeriodRecord{
			FiscalYear:               2024 - i,
			FiscalPeriod:             "FY",
			PeriodType:               models.PeriodAnnual,
			Revenue:                  f(revenue),
			OperatingIncome:          f(revenue * 0.20),
			NetIncome:                f(revenue * 0.15),
			PretaxIncome:             f(revenue * 0.19),
			IncomeTax:                f(revenue * 0.04),
			InterestExpense:          f(5),
			DilutedEPS:               f(revenue * 0.15 / 100),
			DilutedShares:            f(100),
			StockholdersEquity:       f(2000),
			TotalDebt:                f(100),
			Cash:                     f(150),
			CurrentAssets:            f(500),
			CurrentLiabilities:       f(300),
			DepreciationAmortization: f(revenue * 0.03),
			CapitalExpenditure:       f(-revenue * 0.04),
			FreeCashFlow:             f(revenue * 0.14),
		})
		revenue /= 1.08
	}
	return out
}

func TestDiscountRate_BlendsEquityAndDebt(t *testing.T) {
	latest := &models.PeriodRecord{
		InterestExpense: f(10),
		TotalDebt:       f(200),
		PretaxIncome:    f(100),
		IncomeTax:       f(20),
	}
	c := DiscountRate(DefaultParams(), latest, f(1.2), f(800))

	assert.InDelta(t, 0.10, c.CostOfEquity, 1e-12)
	assert.InDelta(t, 0.05, c.CostOfDebt, 1e-12)
	assert.InDelta(t, 0.20, c.TaxRate, 1e-12)
	assert.InDelta(t, 0.8, c.EquityWeight, 1e-12)
	assert.InDelta(t, 0.088, c.Rate, 1e-12)
	assert.Empty(t, c.Missing)
}

func TestDiscountRate_Defaults(t *testing.T) {
	c := DiscountRate(DefaultParams(), nil, nil, nil)

	assert.InDelta(t, 0.09, c.CostOfEquity, 1e-12)
	assert.Equal(t, 0.21, c.TaxRate)
	assert.Equal(t, 1.0, c.EquityWeight)
	assert.InDelta(t, 0.09, c.Rate, 1e-12)
	assert.ElementsMatch(t, []string{"beta", "market_cap"}, c.Missing)
}

func TestDiscountRate_MissingMarketCapNeverWeightsEquityAtZero(t *testing.T) {
	latest := &models.PeriodRecord{
		InterestExpense: f(10),
		TotalDebt:       f(200),
		PretaxIncome:    f(100),
		IncomeTax:       f(20),
	}

	allEquity := DiscountRate(DefaultParams(), latest, f(1.2), nil)
	assert.Equal(t, 1.0, allEquity.EquityWeight)
	assert.Zero(t, allEquity.DebtWeight)
	assert.InDelta(t, allEquity.CostOfEquity, allEquity.Rate, 1e-12)
	assert.Contains(t, allEquity.Missing, "market_cap")

	latest.StockholdersEquity = f(800)
	book := DiscountRate(DefaultParams(), latest, f(1.2), nil)
	assert.InDelta(t, 0.8, book.EquityWeight, 1e-12)
	assert.InDelta(t, 0.088, book.Rate, 1e-12)
	assert.Contains(t, book.Missing, "market_cap")
}

func TestDiscountRate_BookEquityStaysNearMarketRate(t *testing.T) {
	history := healthyHistory()
	withCap := DiscountRate(DefaultParams(), &history[0], f(1), f(10000))
	withoutCap := DiscountRate(DefaultParams(), &history[0], f(1), nil)

	assert.Greater(t, withoutCap.Rate, DefaultParams().TerminalGrowth+0.01)
	assert.InDelta(t, withCap.Rate, withoutCap.Rate, 0.03)
}

func TestDiscountRate_TaxRateClamped(t *testing.T) {
	latest := &models.PeriodRecord{PretaxIncome: f(100), IncomeTax: f(60)}
	c := DiscountRate(DefaultParams(), latest, f(1), f(100))
	assert.Equal(t, 0.35, c.TaxRate)

	latest.IncomeTax = f(-10)
	c = DiscountRate(DefaultParams(), latest, f(1), f(100))
	assert.Equal(t, 0.0, c.TaxRate)
}

func TestDCF_HealthyCompany(t *testing.T) {
	p := DefaultParams()
	res := DCF(p, DCFInput{
		History:        healthyHistory(),
		DiscountRate:   0.09,
		TaxRate:        0.21,
		Growth:         0.08,
		TerminalMargin: 0.15,
		Shares:         f(100),
	})

	require.NotNil(t, res.Value, res.Reason)
	assert.Greater(t, *res.Value, 0.0)
	require.Len(t, res.Projections, 10)
	assert.InDelta(t, 0.08, res.Projections[0].Growth, 1e-12)
	assert.InDelta(t, 0.08, res.Projections[4].Growth, 1e-12)
	assert.InDelta(t, p.TerminalGrowth, res.Projections[9].Growth, 1e-12)
	assert.InDelta(t, 0.15, res.Projections[9].Margin, 1e-12)
	require.NotNil(t, res.CurrentMargin)
	assert.InDelta(t, 0.20, *res.CurrentMargin, 1e-12)
}

func TestDCF_GrowthIsClamped(t *testing.T) {
	res := DCF(DefaultParams(), DCFInput{
		History:        healthyHistory(),
		DiscountRate:   0.09,
		TaxRate:        0.21,
		Growth:         0.90,
		TerminalMargin: 0.15,
		Shares:         f(100),
	})
	require.NotEmpty(t, res.Projections)
	assert.InDelta(t, 0.25, res.Projections[0].Growth, 1e-12)
}

func TestDCF_NullWhenDiscountRateDoesNotClearTerminalGrowth(t *testing.T) {
	p := DefaultParams()
	for _, rate := range []float64{0.01, p.TerminalGrowth, p.TerminalGrowth + p.TerminalSafetyMargin} {
		res := DCF(p, DCFInput{
			History:        healthyHistory(),
			DiscountRate:   rate,
			TaxRate:        0.21,
			Growth:         0.05,
			TerminalMargin: 0.10,
			Shares:         f(100),
		})
		assert.Nil(t, res.Value, "rate %v", rate)
	}
}

func TestDCF_NullWhenTerminalCashFlowNotPositive(t *testing.T) {
	hist := healthyHistory()
	for i := range hist {
		hist[i].CapitalExpenditure = f(-*hist[i].Revenue * 0.8)
	}
	res := DCF(DefaultParams(), DCFInput{
		History:        hist,
		DiscountRate:   0.09,
		TaxRate:        0.21,
		Growth:         0.05,
		TerminalMargin: 0.10,
		Shares:         f(100),
	})
	assert.Nil(t, res.Value)
	assert.Equal(t, "terminal free cash flow is not positive", res.Reason)
}

func TestDCF_NullWithoutSharesOrRevenue(t *testing.T) {
	p := DefaultParams()
	res := DCF(p, DCFInput{History: healthyHistory(), DiscountRate: 0.09, TerminalMargin: 0.1})
	assert.Nil(t, res.Value)
	assert.Contains(t, res.Missing, "shares")

	res = DCF(p, DCFInput{DiscountRate: 0.09, TerminalMargin: 0.1, Shares: f(10)})
	assert.Nil(t, res.Value)
	assert.Contains(t, res.Missing, "revenue")
}

func TestCAGR(t *testing.T) {
	g := CAGR([]*float64{f(121), f(110), f(100)}, 5)
	require.NotNil(t, g)
	assert.InDelta(t, 0.10, *g, 1e-12)

	// Oldest non-positive value is skipped for the next older positive one
	g = CAGR([]*float64{f(121), f(110), nil}, 5)
	require.NotNil(t, g)
	assert.InDelta(t, 0.10, *g, 1e-12)

	assert.Nil(t, CAGR([]*float64{f(100)}, 5))
	assert.Nil(t, CAGR([]*float64{nil, f(100)}, 5))
}

func TestTerminalMargin(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, p.MaxTerminalMargin, TerminalMargin(p, "Technology"))
	assert.Equal(t, 0.08, TerminalMargin(p, " consumer defensive "))
	assert.Equal(t, p.DefaultTerminalMargin, TerminalMargin(p, "Unknown"))
}

func TestGraham(t *testing.T) {
	latest := &models.PeriodRecord{NetIncome: f(400), StockholdersEquity: f(2500)}
	ps := &models.PerShareMetrics{NetIncome: f(4), BookValue: f(25)}

	v := Graham(latest, ps)
	require.NotNil(t, v)
	assert.InDelta(t, math.Sqrt(2250), *v, 1e-9)

	latest.NetIncome = f(-1)
	assert.Nil(t, Graham(latest, ps))
}

func TestEarningsPowerValue(t *testing.T) {
	latest := &models.PeriodRecord{NetIncome: f(90)}
	v := EarningsPowerValue(latest, 0.09, f(100))
	require.NotNil(t, v)
	assert.InDelta(t, 10.0, *v, 1e-9)

	assert.Nil(t, EarningsPowerValue(latest, 0.09, nil))
	assert.Nil(t, EarningsPowerValue(latest, 0, f(100)))
}

func TestRelativeAndGrowthAdjusted(t *testing.T) {
	v := Relative(f(20), f(5), 0.15)
	require.NotNil(t, v)
	assert.InDelta(t, 85.0, *v, 1e-9)
	assert.Nil(t, Relative(nil, f(5), 0.15))
	assert.Nil(t, Relative(f(20), f(-5), 0.15))

	// 3% growth floors the fair P/E at 8
	v = PEG(f(2), f(0.03), 0)
	require.NotNil(t, v)
	assert.InDelta(t, 16.0, *v, 1e-9)

	v = PSG(f(10), f(0.20), 0.20)
	require.NotNil(t, v)
	assert.InDelta(t, 16.0, *v, 1e-9)
	assert.Nil(t, PSG(f(10), f(-0.1), 0.2))
}

func TestReliability(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1.0, Reliability(p, 50, 50))
	assert.InDelta(t, 1/(1+2*math.Log(2)), Reliability(p, 100, 50), 1e-12)
	assert.InDelta(t, Reliability(p, 100, 50), Reliability(p, 25, 50), 1e-12)
}

func TestCalibrate(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 500.0, *Calibrate(p, f(9000), f(100)))
	assert.Equal(t, 20.0, *Calibrate(p, f(1), f(100)))
	assert.Equal(t, 9000.0, *Calibrate(p, f(9000), nil))
	assert.Nil(t, Calibrate(p, nil, f(100)))
}

func TestBlendMethods_ExcludesInvalidMethods(t *testing.T) {
	p := DefaultParams()
	methods := []models.ValuationMethodResult{
		{Key: MethodDCF, RawValue: f(110), Weight: 1, BucketType: models.BucketCashflow},
		{Key: MethodGraham, RawValue: f(-5), Weight: 0.5, BucketType: models.BucketConservative},
		{Key: MethodEPV, RawValue: nil, Weight: 0.6, BucketType: models.BucketConservative},
		{Key: MethodRelativePE, RawValue: f(95), Weight: 1, BucketType: models.BucketRelative},
	}
	b := BlendMethods(p, methods, BlendInputs{Price: f(100)})

	require.NotNil(t, b.Value)
	assert.Zero(t, b.Methods[1].DynamicWeight)
	assert.Zero(t, b.Methods[2].DynamicWeight)
	assert.Greater(t, b.Methods[0].DynamicWeight, 0.0)
	assert.Len(t, b.Buckets, 2)

	total := 0.0
	for _, m := range b.Methods {
		total += m.DynamicWeight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestBlendMethods_NothingValid(t *testing.T) {
	b := BlendMethods(DefaultParams(), []models.ValuationMethodResult{
		{Key: MethodDCF, BucketType: models.BucketCashflow},
	}, BlendInputs{Price: f(10)})
	assert.Nil(t, b.Value)
	assert.Nil(t, b.CrossMedian)
}

func TestBlendMethods_CompositeWithinCrossMedianBounds(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		name   string
		values map[string]float64
		price  *float64
		in     BlendInputs
	}{
		{"agreeing", map[string]float64{MethodDCF: 100, MethodRelativePE: 105, MethodAnalyst: 98}, f(100), BlendInputs{}},
		{"bubble multiples", map[string]float64{MethodDCF: 40, MethodGraham: 35, MethodRelativePS: 300, MethodRelativePE: 280}, f(250), BlendInputs{Beta: f(2.5)}},
		{"deep value", map[string]float64{MethodDCF: 400, MethodEPV: 380, MethodRelativePB: 60}, f(50), BlendInputs{GrowthScore: f(0.4), ROE: f(0.4), NetMargin: f(0.3)}},
		{"price far above", map[string]float64{MethodDCF: 10, MethodAnalyst: 12}, f(1000), BlendInputs{Beta: f(3), DebtToEquity: f(5)}},
		{"price far below", map[string]float64{MethodDCF: 10, MethodRelativePS: 11}, f(0.5), BlendInputs{GrowthScore: f(0.5)}},
		{"no price", map[string]float64{MethodDCF: 10, MethodRelativePS: 30, MethodAnalyst: 50}, nil, BlendInputs{}},
		{"single method", map[string]float64{MethodAnalyst: 75}, f(20), BlendInputs{Beta: f(1.8)}},
	}
	buckets := map[string]models.BucketType{
		MethodDCF: models.BucketCashflow, MethodGraham: models.BucketConservative, MethodEPV: models.BucketConservative,
		MethodRelativePS: models.BucketRelative, MethodRelativePE: models.BucketRelative, MethodRelativePB: models.BucketRelative,
		MethodAnalyst: models.BucketAnalyst,
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var methods []models.ValuationMethodResult
			for key, v := range tc.values {
				methods = append(methods, method(p, key, key, buckets[key], f(v), ""))
			}
			tc.in.Price = tc.price
			b := BlendMethods(p, methods, tc.in)
			require.NotNil(t, b.Value)
			require.NotNil(t, b.CrossMedian)

			var calibrated []float64
			for _, m := range b.Methods {
				calibrated = append(calibrated, *m.CalibratedValue)
			}
			cm := common.Median(calibrated)
			assert.InDelta(t, cm, *b.CrossMedian, 1e-9)
			assert.GreaterOrEqual(t, *b.Value, p.ClampLow*cm-1e-9)
			assert.LessOrEqual(t, *b.Value, p.ClampHigh*cm+1e-9)
		})
	}
}

func TestBlendMethods_RegimeDampsBubble(t *testing.T) {
	p := DefaultParams()
	methods := []models.ValuationMethodResult{
		method(p, MethodDCF, "", models.BucketCashflow, f(50), ""),
		method(p, MethodRelativePE, "", models.BucketRelative, f(100), ""),
	}
	b := BlendMethods(p, methods, BlendInputs{Price: f(80)})
	assert.InDelta(t, p.RegimeDamping-1, b.RegimeAdjustment, 1e-12)

	// Reverse case needs healthy growth for the boost
	methods[0].RawValue, methods[1].RawValue = f(100), f(50)
	b = BlendMethods(p, methods, BlendInputs{Price: f(80)})
	assert.Zero(t, b.RegimeAdjustment)
	b = BlendMethods(p, methods, BlendInputs{Price: f(80), GrowthScore: f(0.10)})
	assert.InDelta(t, p.RegimeBoost-1, b.RegimeAdjustment, 1e-12)
}

func TestBlendMethods_PriceAnchorCapped(t *testing.T) {
	p := DefaultParams()
	methods := []models.ValuationMethodResult{
		method(p, MethodDCF, "", models.BucketCashflow, f(20), ""),
		method(p, MethodRelativePS, "", models.BucketRelative, f(400), ""),
	}
	b := BlendMethods(p, methods, BlendInputs{Price: f(100), Beta: f(4)})
	assert.Equal(t, p.PriceAnchorCap, b.PriceAnchorWeight)
}

func TestGrowthScore(t *testing.T) {
	assert.Nil(t, GrowthScore(nil, nil))
	g := GrowthScore(f(0.10), nil, f(2.0))
	require.NotNil(t, g)
	assert.InDelta(t, 0.30, *g, 1e-12)
}

func TestImpliedGrowth_RoundTrip(t *testing.T) {
	cases := []struct {
		price, base, multiple, r float64
		years                    int
	}{
		{100, 5, 15, 0.10, 10},
		{42.5, 3.1, 18, 0.088, 10},
		{20, 4, 12, 0.09, 5},
		{500, 1.2, 25, 0.12, 7},
	}
	for _, c := range cases {
		g := ImpliedGrowth(c.price, c.base, c.multiple, c.r, c.years)
		require.NotNil(t, g)
		back := ForwardPrice(c.base, *g, c.multiple, c.r, c.years)
		require.NotNil(t, back)
		assert.InDelta(t, c.price, *back, 1e-9*c.price)
	}
}

func TestImpliedGrowth_NonPositiveInputs(t *testing.T) {
	assert.Nil(t, ImpliedGrowth(0, 5, 15, 0.1, 10))
	assert.Nil(t, ImpliedGrowth(100, -5, 15, 0.1, 10))
	assert.Nil(t, ImpliedGrowth(100, 5, 0, 0.1, 10))
	assert.Nil(t, ImpliedGrowth(100, 5, 15, 0, 10))
	assert.Nil(t, ImpliedGrowth(100, 5, 15, 0.1, 0))
}

func TestEngine_Value(t *testing.T) {
	engine := NewEngine(DefaultParams(), common.NewSilentLogger())
	annual := healthyHistory()
	perShare := history.PerShare(annual, nil)

	result := engine.Value(Inputs{
		Price:         f(30),
		MarketCap:     f(3000),
		Beta:          f(1.1),
		Sector:        "Technology",
		Annual:        annual,
		PerShare:      perShare,
		Multiples:     history.AverageMultiples{PriceToSales: f(3), PriceToEarnings: f(20), PriceToBook: f(2), Years: 5},
		AnalystTarget: f(35),
	})

	require.NotNil(t, result)
	require.NotNil(t, result.CompositeValue)
	require.NotNil(t, result.UpsidePercent)
	assert.InDelta(t, (*result.CompositeValue-30)/30*100, *result.UpsidePercent, 1e-9)
	assert.Len(t, result.Methods, 9)
	assert.Equal(t, MethodDCF, result.Methods[0].Key)
	assert.NotNil(t, result.Methods[0].RawValue)
	assert.Len(t, result.Assumptions.Buckets, 3)
	assert.Equal(t, "high", result.Assumptions.Confidence)
	assert.NotContains(t, result.Assumptions.MissingInputs, "beta")
}

func TestEngine_ValueDegradesWithoutFinancials(t *testing.T) {
	engine := NewEngine(DefaultParams(), common.NewSilentLogger())

	result := engine.Value(Inputs{Price: f(30), AnalystTarget: f(40)})
	require.NotNil(t, result.CompositeValue)
	assert.Nil(t, result.Methods[0].RawValue)
	assert.Contains(t, result.Assumptions.MissingInputs, "financial_history")
	assert.Equal(t, "low", result.Assumptions.Confidence)

	result = engine.Value(Inputs{})
	assert.Nil(t, result.CompositeValue)
	assert.Nil(t, result.UpsidePercent)
	assert.Equal(t, "none", result.Assumptions.Confidence)
}

func TestEngine_Reverse(t *testing.T) {
	engine := NewEngine(DefaultParams(), common.NewSilentLogger())
	in := Inputs{
		Price:    f(30),
		PerShare: []models.PerShareMetrics{{NetIncome: f(1.5), FreeCashFlow: f(-0.2)}},
	}

	out := engine.Reverse(in, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "eps", out[0].Basis)
	assert.Equal(t, 0.10, out[0].RequiredReturn)
	require.NotNil(t, out[0].ImpliedGrowth)
	assert.Nil(t, out[1].ImpliedGrowth)

	out = engine.Reverse(in, f(0.088))
	assert.Equal(t, 0.088, out[0].RequiredReturn)
}

func TestParamsFromConfig(t *testing.T) {
	p := ParamsFromConfig(common.ValuationConfig{CashflowWeight: 0.7, ClampHigh: 2.0, ReverseYears: 5})
	assert.Equal(t, 0.7, p.BucketWeights[models.BucketCashflow])
	assert.Equal(t, 0.35, p.BucketWeights[models.BucketRelative])
	assert.Equal(t, 2.0, p.ClampHigh)
	assert.Equal(t, 5, p.ReverseYears)
	assert.Equal(t, 0.55, DefaultParams().BucketWeights[models.BucketCashflow])
}

func TestParamsFromConfig_HaircutsAndMethodWeights(t *testing.T) {
	p := ParamsFromConfig(common.ValuationConfig{
		HaircutPE:     0.25,
		MethodWeights: map[string]float64{MethodGraham: 0.2, "unknown": 3},
	})
	assert.Equal(t, 0.25, p.HaircutPE)
	assert.Equal(t, 0.20, p.HaircutPS)
	assert.Equal(t, 0.2, p.MethodWeights[MethodGraham])
	assert.Equal(t, 1.0, p.MethodWeights[MethodDCF])
	_, ok := p.MethodWeights["unknown"]
	assert.False(t, ok)
	assert.Equal(t, 0.5, DefaultParams().MethodWeights[MethodGraham])
}

func TestBlendMethods_ZeroConfiguredWeightDisablesMethod(t *testing.T) {
	p := ParamsFromConfig(common.ValuationConfig{
		MethodWeights: map[string]float64{MethodPEG: 0},
	})
	require.Zero(t, p.MethodWeights[MethodPEG])

	methods := []models.ValuationMethodResult{
		method(p, MethodDCF, "", models.BucketCashflow, f(100), ""),
		method(p, MethodRelativePE, "", models.BucketRelative, f(90), ""),
		method(p, MethodPEG, "", models.BucketRelative, f(120), ""),
	}
	b := BlendMethods(p, methods, BlendInputs{Price: f(95)})
	require.NotNil(t, b.Value)

	assert.Zero(t, b.Methods[2].DynamicWeight)
	assert.NotNil(t, b.Methods[2].CalibratedValue, "disabled methods are still reported")
	assert.Positive(t, b.Methods[1].DynamicWeight)
	assert.InDelta(t, 1.0, b.Methods[0].DynamicWeight+b.Methods[1].DynamicWeight, 1e-9)
}
