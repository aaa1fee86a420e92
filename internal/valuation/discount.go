package valuation

import (
	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

// CostOfCapital is the blended discount rate and its components
type CostOfCapital struct {
	Rate         float64
	CostOfEquity float64
	CostOfDebt   float64 // pre-tax
	TaxRate      float64
	EquityWeight float64
	DebtWeight   float64
	Beta         float64
	Missing      []string
}

// DiscountRate blends cost of equity and after-tax cost of debt by the
// market-cap and total-debt shares of combined capital. Without a market cap
// the equity side falls back to book equity, then to an all-equity rate.
func DiscountRate(p Params, latest *models.PeriodRecord, beta, marketCap *float64) CostOfCapital {
	c := CostOfCapital{
		Beta:       p.DefaultBeta,
		CostOfDebt: p.DefaultCostOfDebt,
		TaxRate:    p.DefaultTaxRate,
	}

	if beta != nil && common.IsFinite(*beta) {
		c.Beta = *beta
	} else {
		c.Missing = append(c.Missing, "beta")
	}
	c.CostOfEquity = p.RiskFreeRate + c.Beta*p.EquityRiskPremium

	var debt *float64
	if latest != nil {
		debt = latest.TotalDebt
		if common.Positive(latest.InterestExpense) && common.Positive(debt) {
			c.CostOfDebt = *latest.InterestExpense / *debt
		}
		if rate := EffectiveTaxRate(latest); rate != nil {
			c.TaxRate = common.Clamp(*rate, 0, p.MaxTaxRate)
		}
	}

	var equity float64
	switch {
	case common.Positive(marketCap):
		equity = *marketCap
	case latest != nil && common.Positive(latest.StockholdersEquity):
		c.Missing = append(c.Missing, "market_cap")
		equity = *latest.StockholdersEquity
	default:
		c.Missing = append(c.Missing, "market_cap")
		c.EquityWeight = 1
		c.Rate = c.CostOfEquity
		return c
	}
	d := 0.0
	if common.Positive(debt) {
		d = *debt
	}

	if equity+d > 0 {
		c.EquityWeight = equity / (equity + d)
		c.DebtWeight = d / (equity + d)
	} else {
		c.EquityWeight = 1
	}

	c.Rate = c.EquityWeight*c.CostOfEquity + c.DebtWeight*c.CostOfDebt*(1-c.TaxRate)
	return c
}

// EffectiveTaxRate is income tax over pre-tax income, when pre-tax income is positive
func EffectiveTaxRate(r *models.PeriodRecord) *float64 {
	if r == nil || r.IncomeTax == nil || !common.Positive(r.PretaxIncome) {
		return nil
	}
	return common.Div(r.IncomeTax, r.PretaxIncome)
}
