// Package facts reconciles multiply-tagged regulatory facts into one
// deduplicated series per metric.
package facts

import (
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/fairval/internal/models"
)

const (
	daysPerMonth = 30.4375

	// MaxQuarterMonths is the exclusive upper bound on a single-quarter span
	MaxQuarterMonths = 5.0
	// MinAnnualMonths and MaxAnnualMonths bound a full-year span
	MinAnnualMonths = 10.0
	MaxAnnualMonths = 14.0
)

// Reconciler resolves reconciled series from one company's facts
type Reconciler struct {
	facts map[string][]models.RawFactPoint
}

// NewReconciler creates a reconciler over the given facts. A nil input
// yields a reconciler that returns empty series.
func NewReconciler(cf *models.CompanyFacts) *Reconciler {
	r := &Reconciler{}
	if cf != nil {
		r.facts = cf.Facts
	}
	return r
}

// Series returns up to limit reconciled periods for metric, newest period
// end first. A non-positive limit returns every period. An empty result
// means the metric is unavailable, not zero.
func (r *Reconciler) Series(metric Metric, period models.PeriodType, limit int) []models.ReconciledPeriod {
	var candidates []models.RawFactPoint
	for _, id := range metric.Candidates {
		candidates = append(candidates, r.facts[id]...)
	}
	series := Reconcile(candidates, period, limit)
	for i := range series {
		series[i].Metric = metric.Name
	}
	return series
}

// Latest returns the most recent value reported for metric regardless of
// period type, or nil when nothing was reported.
func (r *Reconciler) Latest(metric Metric) *models.ReconciledPeriod {
	var best *models.RawFactPoint
	for _, id := range metric.Candidates {
		for i := range r.facts[id] {
			p := &r.facts[id][i]
			if p.PeriodEnd.IsZero() {
				continue
			}
			if best == nil || p.PeriodEnd.After(best.PeriodEnd) ||
				(p.PeriodEnd.Equal(best.PeriodEnd) && p.Filed.After(best.Filed)) {
				best = p
			}
		}
	}
	if best == nil {
		return nil
	}
	return &models.ReconciledPeriod{
		Metric:       metric.Name,
		FieldID:      best.FieldID,
		PeriodEnd:    best.PeriodEnd,
		FiscalYear:   best.PeriodEnd.Year(),
		FiscalPeriod: strings.ToUpper(best.FiscalPeriod),
		Filed:        best.Filed,
		Value:        best.Value,
	}
}

// Reconcile filters candidates to the requested period type and keeps one
// value per period end: the candidate with the latest filed date. Candidate
// field identity never breaks ties.
func Reconcile(candidates []models.RawFactPoint, period models.PeriodType, limit int) []models.ReconciledPeriod {
	best := make(map[time.Time]models.RawFactPoint)
	for _, p := range candidates {
		if !Accept(p, period) {
			continue
		}
		key := dateKey(p.PeriodEnd)
		current, ok := best[key]
		if !ok || p.Filed.After(current.Filed) {
			best[key] = p
		}
	}

	out := make([]models.ReconciledPeriod, 0, len(best))
	for _, p := range best {
		out = append(out, models.ReconciledPeriod{
			FieldID:      p.FieldID,
			PeriodStart:  p.PeriodStart,
			PeriodEnd:    p.PeriodEnd,
			FiscalYear:   p.PeriodEnd.Year(),
			FiscalPeriod: strings.ToUpper(p.FiscalPeriod),
			Filed:        p.Filed,
			Value:        p.Value,
			OffCalendar:  period == models.PeriodAnnual && p.PeriodEnd.Month() != time.December,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PeriodEnd.After(out[j].PeriodEnd)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Accept reports whether a raw point qualifies for the period type.
// Quarterly points need a Q1..Q4 tag and, when dated, a span under five
// months. Annual points need the FY tag and, when dated, a span within
// [10, 14] months, which rejects prior-year comparatives re-filed with a
// different span. Points without a period end never qualify.
func Accept(p models.RawFactPoint, period models.PeriodType) bool {
	if p.PeriodEnd.IsZero() {
		return false
	}

	tag := strings.ToUpper(strings.TrimSpace(p.FiscalPeriod))
	months, dated := spanMonths(p)

	switch period {
	case models.PeriodQuarterly:
		if !isQuarterTag(tag) {
			return false
		}
		return !dated || months < MaxQuarterMonths
	case models.PeriodAnnual:
		if tag != "FY" {
			return false
		}
		return !dated || (months >= MinAnnualMonths && months <= MaxAnnualMonths)
	default:
		return false
	}
}

func isQuarterTag(tag string) bool {
	switch tag {
	case "Q1", "Q2", "Q3", "Q4":
		return true
	}
	return false
}

// spanMonths returns the period length in months and whether the point
// carries both dates.
func spanMonths(p models.RawFactPoint) (float64, bool) {
	if p.PeriodStart.IsZero() {
		return 0, false
	}
	days := p.PeriodEnd.Sub(p.PeriodStart).Hours() / 24
	return days / daysPerMonth, true
}

func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
