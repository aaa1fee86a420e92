package report

import (
	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/facts"
	"github.com/bobmcallan/fairval/internal/history"
	"github.com/bobmcallan/fairval/internal/models"
	"github.com/bobmcallan/fairval/internal/valuation"
)

// analysis is the reconciled history and valuation inputs for one report
type analysis struct {
	reconciler   *facts.Reconciler
	history      models.FinancialHistory
	perShare     []models.PerShareMetrics
	inputs       valuation.Inputs
	valuation    *models.CompositeValuation
	sharesSource string
}

func (a *analysis) latestPerShare() *models.PerShareMetrics {
	if len(a.perShare) == 0 {
		return nil
	}
	return &a.perShare[0]
}

func (a *analysis) quality(b *bundle) models.DataQuality {
	q := b.quality()
	q.ReconciledMetrics = countReconciled(a.reconciler)
	q.SharesSource = a.sharesSource
	if a.valuation != nil && a.valuation.Assumptions.MissingInputs != nil {
		q.MissingInputs = a.valuation.Assumptions.MissingInputs
	}
	return q
}

// analyse reconciles the facts into history and values the company
func (s *Service) analyse(b *bundle) *analysis {
	a := &analysis{reconciler: facts.NewReconciler(b.companyFacts)}
	a.history = history.NewBuilder(a.reconciler).BuildHistory(history.DefaultAnnualDepth, history.DefaultQuarterlyDepth)

	var price *float64
	if b.quote != nil && b.quote.Price > 0 {
		price = common.Ptr(b.quote.Price)
	}

	liveShares, sharesSource := liveShareCount(b.stats, a.reconciler)

	var marketCap *float64
	if b.stats != nil && common.Positive(b.stats.MarketCap) {
		marketCap = b.stats.MarketCap
	} else if common.Positive(price) && common.Positive(liveShares) {
		marketCap = common.Ptr(*price * *liveShares)
	}

	a.perShare = history.PerShare(a.history.Annual, liveShares)
	if ps := a.latestPerShare(); ps != nil && ps.SharesSource != "" {
		a.sharesSource = ps.SharesSource
		if ps.SharesSource == models.SharesLive {
			a.sharesSource = sharesSource
		}
	}

	a.inputs = valuation.Inputs{
		Price:     price,
		MarketCap: marketCap,
		Shares:    liveShares,
		Annual:    a.history.Annual,
		PerShare:  a.perShare,
		Multiples: history.HistoricalMultiples(a.perShare, b.points()),
	}
	if st := b.stats; st != nil {
		a.inputs.Beta = st.Beta
		a.inputs.Sector = st.Sector
		a.inputs.AnalystTarget = st.AnalystTargetPrice
		a.inputs.RevenueGrowth = st.RevenueGrowthYoY
		a.inputs.EarningsGrowth = st.EarningsGrowthYoY
	}

	a.valuation = s.valuation.Value(a.inputs)
	return a
}

// liveShareCount prefers the market feed's share count and falls back to
// the cover-page count from the facts feed
func liveShareCount(stats *models.KeyStats, r *facts.Reconciler) (*float64, string) {
	if stats != nil && common.Positive(stats.SharesOutstanding) {
		return stats.SharesOutstanding, models.SharesLive
	}
	if rp := r.Latest(facts.SharesOutstanding); rp != nil && rp.Value > 0 {
		return common.Ptr(rp.Value), "cover_page"
	}
	return nil, ""
}

// countReconciled counts statement metrics with at least one reconciled period
func countReconciled(r *facts.Reconciler) int {
	n := 0
	for _, m := range facts.StatementMetrics {
		if len(r.Series(m, models.PeriodAnnual, 1)) > 0 || len(r.Series(m, models.PeriodQuarterly, 1)) > 0 {
			n++
		}
	}
	return n
}
