package history

import (
	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

// ResolveShares returns the share count for one period: diluted weighted
// average, then basic weighted average, then the live count. A missing or
// non-positive count resolves to nil; a denominator is never invented.
func ResolveShares(r models.PeriodRecord, live *float64) (*float64, string) {
	switch {
	case common.Positive(r.DilutedShares):
		return r.DilutedShares, models.SharesDiluted
	case common.Positive(r.BasicShares):
		return r.BasicShares, models.SharesBasic
	case common.Positive(live):
		return live, models.SharesLive
	}
	return nil, ""
}

// PerShare divides each annual record by its resolved share count
func PerShare(annual []models.PeriodRecord, live *float64) []models.PerShareMetrics {
	out := make([]models.PerShareMetrics, 0, len(annual))
	for _, r := range annual {
		shares, source := ResolveShares(r, live)
		m := models.PerShareMetrics{
			FiscalYear:   r.FiscalYear,
			PeriodEnd:    r.PeriodEnd,
			Shares:       shares,
			SharesSource: source,
		}
		if shares != nil {
			m.Revenue = common.Div(r.Revenue, shares)
			m.NetIncome = common.Div(r.NetIncome, shares)
			m.BookValue = common.Div(r.StockholdersEquity, shares)
			m.FreeCashFlow = common.Div(r.FreeCashFlow, shares)
			m.OperatingCashFlow = common.Div(r.OperatingCashFlow, shares)
		}
		out = append(out, m)
	}
	return out
}
