package eodhd

import (
	"context"
	"net/url"
	"time"

	"github.com/bobmcallan/fairval/internal/models"
)

// fundamentalsResponse holds the /fundamentals sections used for key statistics
type fundamentalsResponse struct {
	General struct {
		Code         string `json:"Code"`
		Name         string `json:"Name"`
		Exchange     string `json:"Exchange"`
		CurrencyCode string `json:"CurrencyCode"`
		Sector       string `json:"Sector"`
		Industry     string `json:"Industry"`
		Description  string `json:"Description"`
		WebURL       string `json:"WebURL"`
		CIK          string `json:"CIK"`
		UpdatedAt    string `json:"UpdatedAt"`
	} `json:"General"`
	Highlights struct {
		MarketCapitalization       flexFloat64 `json:"MarketCapitalization"`
		PERatio                    flexFloat64 `json:"PERatio"`
		WallStreetTargetPrice      flexFloat64 `json:"WallStreetTargetPrice"`
		BookValue                  flexFloat64 `json:"BookValue"`
		DividendYield              flexFloat64 `json:"DividendYield"`
		EarningsShare              flexFloat64 `json:"EarningsShare"`
		ProfitMargin               flexFloat64 `json:"ProfitMargin"`
		ReturnOnEquityTTM          flexFloat64 `json:"ReturnOnEquityTTM"`
		QuarterlyRevenueGrowthYOY  flexFloat64 `json:"QuarterlyRevenueGrowthYOY"`
		QuarterlyEarningsGrowthYOY flexFloat64 `json:"QuarterlyEarningsGrowthYOY"`
	} `json:"Highlights"`
	Valuation struct {
		TrailingPE    flexFloat64 `json:"TrailingPE"`
		ForwardPE     flexFloat64 `json:"ForwardPE"`
		PriceSalesTTM flexFloat64 `json:"PriceSalesTTM"`
		PriceBookMRQ  flexFloat64 `json:"PriceBookMRQ"`
	} `json:"Valuation"`
	SharesStats struct {
		SharesOutstanding flexFloat64 `json:"SharesOutstanding"`
	} `json:"SharesStats"`
	Technicals struct {
		Beta             flexFloat64 `json:"Beta"`
		FiftyTwoWeekHigh flexFloat64 `json:"52WeekHigh"`
		FiftyTwoWeekLow  flexFloat64 `json:"52WeekLow"`
	} `json:"Technicals"`
	AnalystRatings struct {
		TargetPrice flexFloat64 `json:"TargetPrice"`
		StrongBuy   int         `json:"StrongBuy"`
		Buy         int         `json:"Buy"`
		Hold        int         `json:"Hold"`
		Sell        int         `json:"Sell"`
		StrongSell  int         `json:"StrongSell"`
	} `json:"AnalystRatings"`
}

// fundamentalsFilter limits the payload to the sections read
const fundamentalsFilter = "General,Highlights,Valuation,SharesStats,Technicals,AnalystRatings"

// GetFundamentals retrieves the company description and extended statistics
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*models.KeyStats, error) {
	params := url.Values{}
	params.Set("filter", fundamentalsFilter)

	var resp fundamentalsResponse
	if err := c.get(ctx, "/fundamentals/"+symbol, params, &resp); err != nil {
		return nil, err
	}

	g, h, v := resp.General, resp.Highlights, resp.Valuation
	stats := &models.KeyStats{
		Symbol:             symbol,
		Name:               g.Name,
		Exchange:           g.Exchange,
		Currency:           g.CurrencyCode,
		Sector:             g.Sector,
		Industry:           g.Industry,
		Description:        g.Description,
		WebURL:             g.WebURL,
		MarketCap:          h.MarketCapitalization.Ptr(),
		SharesOutstanding:  resp.SharesStats.SharesOutstanding.Ptr(),
		Beta:               resp.Technicals.Beta.Ptr(),
		TrailingPE:         firstSet(v.TrailingPE, h.PERatio),
		ForwardPE:          v.ForwardPE.Ptr(),
		PriceToBook:        v.PriceBookMRQ.Ptr(),
		PriceToSales:       v.PriceSalesTTM.Ptr(),
		EPS:                h.EarningsShare.Ptr(),
		BookValuePerShare:  h.BookValue.Ptr(),
		DividendYield:      h.DividendYield.Ptr(),
		ProfitMargin:       h.ProfitMargin.Ptr(),
		ReturnOnEquity:     h.ReturnOnEquityTTM.Ptr(),
		RevenueGrowthYoY:   h.QuarterlyRevenueGrowthYOY.Ptr(),
		EarningsGrowthYoY:  h.QuarterlyEarningsGrowthYOY.Ptr(),
		AnalystTargetPrice: firstSet(resp.AnalystRatings.TargetPrice, h.WallStreetTargetPrice),
		High52Week:         resp.Technicals.FiftyTwoWeekHigh.Ptr(),
		Low52Week:          resp.Technicals.FiftyTwoWeekLow.Ptr(),
		LastUpdated:        time.Now(),
	}

	ar := resp.AnalystRatings
	stats.AnalystCount = ar.StrongBuy + ar.Buy + ar.Hold + ar.Sell + ar.StrongSell

	if updated, err := time.Parse("2006-01-02", g.UpdatedAt); err == nil {
		stats.LastUpdated = updated
	}

	return stats, nil
}

func firstSet(values ...flexFloat64) *float64 {
	for _, v := range values {
		if p := v.Ptr(); p != nil {
			return p
		}
	}
	return nil
}
