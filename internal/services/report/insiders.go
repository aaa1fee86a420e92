package report

import (
	"time"

	"github.com/bobmcallan/fairval/internal/models"
)

// InsiderWindowDays is the look-back for the insider activity summary
const InsiderWindowDays = 90

// SummarizeInsiders nets open-market purchases (P) against sales (S) made
// within windowDays of now. Transactions are returned as received.
func SummarizeInsiders(txs []models.InsiderTransaction, now time.Time, windowDays int) *models.InsiderSummary {
	summary := &models.InsiderSummary{
		Transactions: txs,
		WindowDays:   windowDays,
	}
	if summary.Transactions == nil {
		summary.Transactions = []models.InsiderTransaction{}
	}

	cutoff := now.AddDate(0, 0, -windowDays)
	for _, tx := range txs {
		if tx.Date.Before(cutoff) || tx.Date.After(now) {
			continue
		}
		value := tx.Value
		if value == 0 {
			value = tx.Shares * tx.Price
		}
		switch tx.Code {
		case "P":
			summary.BuyCount++
			summary.BuyShares += tx.Shares
			summary.BuyValue += value
		case "S":
			summary.SellCount++
			summary.SellShares += tx.Shares
			summary.SellValue += value
		}
	}
	summary.NetShares = summary.BuyShares - summary.SellShares
	summary.NetValue = summary.BuyValue - summary.SellValue
	return summary
}
