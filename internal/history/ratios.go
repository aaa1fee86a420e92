package history

import (
	"sort"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

// MinMultipleYears is the fewest positive yearly observations needed for a
// historical average multiple
const MinMultipleYears = 2

// ComputeRatios derives profitability and leverage ratios per annual record.
// annual must be newest first; growth compares each record to the next older one.
func ComputeRatios(annual []models.PeriodRecord) []models.Ratios {
	out := make([]models.Ratios, 0, len(annual))
	for i, r := range annual {
		ratio := models.Ratios{
			FiscalYear:      r.FiscalYear,
			PeriodEnd:       r.PeriodEnd,
			GrossMargin:     positiveDenominator(r.GrossProfit, r.Revenue),
			OperatingMargin: positiveDenominator(r.OperatingIncome, r.Revenue),
			NetMargin:       positiveDenominator(r.NetIncome, r.Revenue),
			FCFMargin:       positiveDenominator(r.FreeCashFlow, r.Revenue),
			ReturnOnEquity:  positiveDenominator(r.NetIncome, r.StockholdersEquity),
			ReturnOnAssets:  positiveDenominator(r.NetIncome, r.TotalAssets),
			DebtToEquity:    positiveDenominator(r.TotalDebt, r.StockholdersEquity),
			CurrentRatio:    positiveDenominator(r.CurrentAssets, r.CurrentLiabilities),
		}
		if i+1 < len(annual) {
			prev := annual[i+1]
			if g := positiveDenominator(r.Revenue, prev.Revenue); g != nil {
				ratio.RevenueGrowth = common.Ptr(*g - 1)
			}
		}
		out = append(out, ratio)
	}
	return out
}

// ComputeMultiples values the latest annual record at the live price
func ComputeMultiples(latest *models.PeriodRecord, perShare *models.PerShareMetrics, price, marketCap *float64) *models.ValuationMultiples {
	if latest == nil || !common.Positive(price) {
		return nil
	}
	m := &models.ValuationMultiples{}
	if perShare != nil {
		m.PriceToEarnings = positiveDenominator(price, perShare.NetIncome)
		m.PriceToSales = positiveDenominator(price, perShare.Revenue)
		m.PriceToBook = positiveDenominator(price, perShare.BookValue)
		m.PriceToFCF = positiveDenominator(price, perShare.FreeCashFlow)
	}
	if common.Positive(marketCap) {
		ev := *marketCap
		if latest.TotalDebt != nil {
			ev += *latest.TotalDebt
		}
		if latest.Cash != nil {
			ev -= *latest.Cash
		}
		m.EnterpriseValue = common.Ptr(ev)
		m.EVToRevenue = positiveDenominator(m.EnterpriseValue, latest.Revenue)
	}
	return m
}

// AverageMultiples are historical mean valuation multiples
type AverageMultiples struct {
	PriceToSales    *float64 `json:"price_to_sales"`
	PriceToEarnings *float64 `json:"price_to_earnings"`
	PriceToBook     *float64 `json:"price_to_book"`
	Years           int      `json:"years"`
}

// HistoricalMultiples averages each year's close-at-period-end over that
// year's per-share revenue, earnings and book value. Years where the
// per-share figure is missing or non-positive are skipped, and a multiple
// needs at least MinMultipleYears observations.
func HistoricalMultiples(perShare []models.PerShareMetrics, prices []models.PricePoint) AverageMultiples {
	var ps, pe, pb []float64
	years := 0
	for _, m := range perShare {
		px, ok := CloseOnOrBefore(prices, m)
		if !ok {
			continue
		}
		years++
		if v := positiveDenominator(&px, m.Revenue); v != nil {
			ps = append(ps, *v)
		}
		if v := positiveDenominator(&px, m.NetIncome); v != nil {
			pe = append(pe, *v)
		}
		if v := positiveDenominator(&px, m.BookValue); v != nil {
			pb = append(pb, *v)
		}
	}
	return AverageMultiples{
		PriceToSales:    averageOf(ps),
		PriceToEarnings: averageOf(pe),
		PriceToBook:     averageOf(pb),
		Years:           years,
	}
}

// CloseOnOrBefore finds the last close at or before the period end within
// ten days. prices must be ascending by date.
func CloseOnOrBefore(prices []models.PricePoint, m models.PerShareMetrics) (float64, bool) {
	end := m.PeriodEnd
	i := sort.Search(len(prices), func(i int) bool {
		return prices[i].Date.After(end)
	})
	if i == 0 {
		return 0, false
	}
	p := prices[i-1]
	if end.Sub(p.Date).Hours() > 10*24 || p.Close <= 0 {
		return 0, false
	}
	return p.Close, true
}

func averageOf(values []float64) *float64 {
	if len(values) < MinMultipleYears {
		return nil
	}
	return common.Ptr(common.Mean(values))
}

// positiveDenominator divides a by b only when b is positive
func positiveDenominator(a, b *float64) *float64 {
	if !common.Positive(b) {
		return nil
	}
	return common.Div(a, b)
}
