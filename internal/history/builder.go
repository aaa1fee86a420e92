// Package history joins reconciled metrics into per-period financial
// statement records.
package history

import (
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/facts"
	"github.com/bobmcallan/fairval/internal/models"
)

// Default statement depths
const (
	DefaultAnnualDepth    = 10
	DefaultQuarterlyDepth = 12
)

type setter func(r *models.PeriodRecord, v *float64)

// fields maps each catalogue metric to the record field it populates
var fields = map[string]setter{
	facts.Revenue.Name:                  func(r *models.PeriodRecord, v *float64) { r.Revenue = v },
	facts.CostOfRevenue.Name:            func(r *models.PeriodRecord, v *float64) { r.CostOfRevenue = v },
	facts.GrossProfit.Name:              func(r *models.PeriodRecord, v *float64) { r.GrossProfit = v },
	facts.OperatingIncome.Name:          func(r *models.PeriodRecord, v *float64) { r.OperatingIncome = v },
	facts.InterestExpense.Name:          func(r *models.PeriodRecord, v *float64) { r.InterestExpense = v },
	facts.PretaxIncome.Name:             func(r *models.PeriodRecord, v *float64) { r.PretaxIncome = v },
	facts.IncomeTax.Name:                func(r *models.PeriodRecord, v *float64) { r.IncomeTax = v },
	facts.NetIncome.Name:                func(r *models.PeriodRecord, v *float64) { r.NetIncome = v },
	facts.DilutedEPS.Name:               func(r *models.PeriodRecord, v *float64) { r.DilutedEPS = v },
	facts.DilutedShares.Name:            func(r *models.PeriodRecord, v *float64) { r.DilutedShares = v },
	facts.BasicShares.Name:              func(r *models.PeriodRecord, v *float64) { r.BasicShares = v },
	facts.TotalAssets.Name:              func(r *models.PeriodRecord, v *float64) { r.TotalAssets = v },
	facts.TotalLiabilities.Name:         func(r *models.PeriodRecord, v *float64) { r.TotalLiabilities = v },
	facts.Equity.Name:                   func(r *models.PeriodRecord, v *float64) { r.StockholdersEquity = v },
	facts.Cash.Name:                     func(r *models.PeriodRecord, v *float64) { r.Cash = v },
	facts.CurrentAssets.Name:            func(r *models.PeriodRecord, v *float64) { r.CurrentAssets = v },
	facts.CurrentLiabilities.Name:       func(r *models.PeriodRecord, v *float64) { r.CurrentLiabilities = v },
	facts.LongTermDebt.Name:             func(r *models.PeriodRecord, v *float64) { r.LongTermDebt = v },
	facts.ShortTermDebt.Name:            func(r *models.PeriodRecord, v *float64) { r.ShortTermDebt = v },
	facts.OperatingCashFlow.Name:        func(r *models.PeriodRecord, v *float64) { r.OperatingCashFlow = v },
	facts.CapitalExpenditure.Name:       func(r *models.PeriodRecord, v *float64) { r.CapitalExpenditure = v },
	facts.DepreciationAmortization.Name: func(r *models.PeriodRecord, v *float64) { r.DepreciationAmortization = v },
	facts.DividendsPaid.Name:            func(r *models.PeriodRecord, v *float64) { r.DividendsPaid = v },
	facts.ShareRepurchases.Name:         func(r *models.PeriodRecord, v *float64) { r.ShareRepurchases = v },
}

// Builder assembles statement records from a reconciler
type Builder struct {
	reconciler *facts.Reconciler
	metrics    []facts.Metric
}

// NewBuilder creates a builder over the statement metric catalogue
func NewBuilder(r *facts.Reconciler) *Builder {
	return &Builder{reconciler: r, metrics: facts.StatementMetrics}
}

// BuildHistory builds annual and quarterly records at the given depths
func (b *Builder) BuildHistory(annualDepth, quarterlyDepth int) models.FinancialHistory {
	return models.FinancialHistory{
		Annual:    b.Build(models.PeriodAnnual, annualDepth),
		Quarterly: b.Build(models.PeriodQuarterly, quarterlyDepth),
	}
}

// Build joins every metric series by period end into records, newest first.
// A record exists for each period end carrying at least one flow (income or
// cash flow) metric; balance sheet values attach to those periods. Derived
// fields are computed per period from that period's values only.
func (b *Builder) Build(period models.PeriodType, depth int) []models.PeriodRecord {
	records := make(map[time.Time]*models.PeriodRecord)
	var instants []models.ReconciledPeriod

	for _, m := range b.metrics {
		set, ok := fields[m.Name]
		if !ok {
			continue
		}
		for _, rp := range b.reconciler.Series(m, period, 0) {
			if m.Instant {
				instants = append(instants, rp)
				continue
			}
			rec := recordFor(records, rp, period)
			set(rec, common.Ptr(rp.Value))
		}
	}

	for _, rp := range instants {
		rec, ok := records[day(rp.PeriodEnd)]
		if !ok {
			continue
		}
		fields[rp.Metric](rec, common.Ptr(rp.Value))
	}

	out := make([]models.PeriodRecord, 0, len(records))
	for _, rec := range records {
		derive(rec)
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PeriodEnd.After(out[j].PeriodEnd)
	})
	if depth > 0 && len(out) > depth {
		out = out[:depth]
	}
	return out
}

func recordFor(records map[time.Time]*models.PeriodRecord, rp models.ReconciledPeriod, period models.PeriodType) *models.PeriodRecord {
	key := day(rp.PeriodEnd)
	if rec, ok := records[key]; ok {
		if period == models.PeriodAnnual && rp.OffCalendar {
			rec.OffCalendar = true
		}
		return rec
	}
	fp := rp.FiscalPeriod
	if period == models.PeriodAnnual {
		fp = "FY"
	}
	rec := &models.PeriodRecord{
		PeriodEnd:    rp.PeriodEnd,
		FiscalYear:   rp.FiscalYear,
		FiscalPeriod: fp,
		PeriodType:   period,
		OffCalendar:  period == models.PeriodAnnual && rp.OffCalendar,
	}
	records[key] = rec
	return rec
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// derive fills fields computed from other values of the same period
func derive(r *models.PeriodRecord) {
	r.GrossProfit = common.FirstOf(
		common.Value(r.GrossProfit),
		func() *float64 { return common.Sub(r.Revenue, r.CostOfRevenue) },
	)
	r.FreeCashFlow = FreeCashFlow(r.OperatingCashFlow, r.CapitalExpenditure)
	r.TotalDebt = totalDebt(r.LongTermDebt, r.ShortTermDebt)
}

// FreeCashFlow is operating cash flow less the magnitude of capital
// expenditure; filers report capex with either sign.
func FreeCashFlow(ocf, capex *float64) *float64 {
	if ocf == nil || capex == nil {
		return nil
	}
	return common.Ptr(*ocf - math.Abs(*capex))
}

func totalDebt(long, short *float64) *float64 {
	if long == nil && short == nil {
		return nil
	}
	sum := 0.0
	if long != nil {
		sum += *long
	}
	if short != nil {
		sum += *short
	}
	return common.Ptr(sum)
}
