package edgar

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bobmcallan/fairval/internal/models"
)

// tickerResponse is one row of company_tickers.json
type tickerResponse struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// GetCompanyTickers retrieves the full ticker to CIK directory. Tickers are
// upper-cased; rows without a ticker or CIK are skipped.
func (c *Client) GetCompanyTickers(ctx context.Context) ([]models.DirectoryEntry, error) {
	var rows map[string]tickerResponse
	if err := c.get(ctx, c.wwwURL, "/files/company_tickers.json", &rows); err != nil {
		return nil, err
	}

	keys := make([]int, 0, len(rows))
	byIndex := make(map[int]tickerResponse, len(rows))
	for k, row := range rows {
		var idx int
		if _, err := fmt.Sscanf(k, "%d", &idx); err != nil {
			continue
		}
		keys = append(keys, idx)
		byIndex[idx] = row
	}
	sort.Ints(keys)

	entries := make([]models.DirectoryEntry, 0, len(keys))
	for _, k := range keys {
		row := byIndex[k]
		ticker := strings.ToUpper(strings.TrimSpace(row.Ticker))
		if ticker == "" || row.CIK <= 0 {
			continue
		}
		entries = append(entries, models.DirectoryEntry{
			Ticker: ticker,
			CIK:    fmt.Sprintf("%010d", row.CIK),
			Name:   row.Title,
		})
	}

	c.logger.Debug().Int("entries", len(entries)).Msg("Company directory loaded")
	return entries, nil
}
