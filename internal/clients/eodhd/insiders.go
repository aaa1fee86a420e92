package eodhd

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/fairval/internal/models"
)

// insiderResponse is one row of /insider-transactions
type insiderResponse struct {
	Date                        string      `json:"date"`
	TransactionDate             string      `json:"transactionDate"`
	OwnerName                   string      `json:"ownerName"`
	OwnerTitle                  string      `json:"ownerTitle"`
	TransactionCode             string      `json:"transactionCode"`
	TransactionAmount           flexFloat64 `json:"transactionAmount"`
	TransactionPrice            flexFloat64 `json:"transactionPrice"`
	TransactionAcquiredDisposed string      `json:"transactionAcquiredDisposed"`
}

// GetInsiderTransactions retrieves recent insider transactions, newest first
func (c *Client) GetInsiderTransactions(ctx context.Context, symbol string, limit int) ([]models.InsiderTransaction, error) {
	params := url.Values{}
	params.Set("code", symbol)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var rows []insiderResponse
	if err := c.get(ctx, "/insider-transactions", params, &rows); err != nil {
		return nil, err
	}

	out := make([]models.InsiderTransaction, 0, len(rows))
	for _, r := range rows {
		dateStr := r.TransactionDate
		if dateStr == "" {
			dateStr = r.Date
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		shares := r.TransactionAmount.Float()
		price := r.TransactionPrice.Float()
		out = append(out, models.InsiderTransaction{
			Date:     date,
			Owner:    r.OwnerName,
			Title:    r.OwnerTitle,
			Code:     strings.ToUpper(r.TransactionCode),
			Shares:   shares,
			Price:    price,
			Value:    shares * price,
			Acquired: strings.EqualFold(r.TransactionAcquiredDisposed, "A"),
		})
	}

	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(txs []models.InsiderTransaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}
