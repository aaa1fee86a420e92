package edgar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factsPayload = `{
	"cik": 320193,
	"entityName": "Apple Inc.",
	"facts": {
		"dei": {
			"EntityCommonStockSharesOutstanding": {
				"label": "Shares outstanding",
				"units": {"shares": [{"end": "2024-10-18", "val": 15115823000, "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"}]}
			}
		},
		"us-gaap": {
			"Revenues": {
				"units": {
					"EUR": [{"start": "2023-10-01", "end": "2024-09-28", "val": 1, "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"}],
					"USD": [
						{"start": "2023-10-01", "end": "2024-09-28", "val": 391035000000, "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"},
						{"start": "2022-09-25", "end": "2023-09-30", "val": 383285000000, "fy": null, "fp": "FY", "form": "10-K", "filed": "2023-11-03"}
					]
				}
			},
			"EarningsPerShareDiluted": {
				"units": {"USD/shares": [{"start": "2023-10-01", "end": "2024-09-28", "val": 6.08, "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"}]}
			},
			"Odd": {
				"units": {"widgets": [{"end": "bad-date", "val": 3, "fp": "FY", "filed": "2024-11-01"}]}
			}
		}
	}
}`

func TestGetCompanyFacts(t *testing.T) {
	var capturedPath, capturedUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(factsPayload))
	}))
	defer srv.Close()

	client := NewClient("fairval test admin@example.com", WithDataURL(srv.URL))
	facts, err := client.GetCompanyFacts(context.Background(), "320193")
	require.NoError(t, err)

	if capturedPath != "/api/xbrl/companyfacts/CIK0000320193.json" {
		t.Errorf("unexpected path %s", capturedPath)
	}
	assert.Equal(t, "fairval test admin@example.com", capturedUA)
	assert.Equal(t, "0000320193", facts.CIK)
	assert.Equal(t, "Apple Inc.", facts.EntityName)

	revenue := facts.Facts["us-gaap:Revenues"]
	require.Len(t, revenue, 2)
	assert.Equal(t, "USD", revenue[0].Unit, "USD preferred over other currencies")
	assert.Equal(t, 391035000000.0, revenue[0].Value)
	assert.Equal(t, time.Date(2024, 9, 28, 0, 0, 0, 0, time.UTC), revenue[0].PeriodEnd)
	assert.Equal(t, time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), revenue[0].PeriodStart)
	assert.Equal(t, "FY", revenue[0].FiscalPeriod)
	assert.Equal(t, 0, revenue[1].FiscalYear, "null fiscal year stays zero")

	eps := facts.Facts["us-gaap:EarningsPerShareDiluted"]
	require.Len(t, eps, 1)
	assert.Equal(t, "USD/shares", eps[0].Unit)

	shares := facts.Facts["dei:EntityCommonStockSharesOutstanding"]
	require.Len(t, shares, 1)
	assert.True(t, shares[0].PeriodStart.IsZero())

	odd := facts.Facts["us-gaap:Odd"]
	require.Len(t, odd, 1)
	assert.Equal(t, "widgets", odd[0].Unit)
	assert.True(t, odd[0].PeriodEnd.IsZero())
}

func TestGetCompanyFacts_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("NoSuchKey"))
	}))
	defer srv.Close()

	client := NewClient("ua", WithDataURL(srv.URL))
	_, err := client.GetCompanyFacts(context.Background(), "0000000001")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.NotFound())
	assert.Equal(t, "/api/xbrl/companyfacts/CIK0000000001.json", apiErr.Endpoint)
}

func TestGetCompanyFacts_InvalidCIK(t *testing.T) {
	client := NewClient("ua", WithDataURL("http://127.0.0.1:1"))
	_, err := client.GetCompanyFacts(context.Background(), "abc")
	assert.Error(t, err)
}

func TestPadCIK(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"320193", "0000320193", false},
		{"0000320193", "0000320193", false},
		{"CIK320193", "0000320193", false},
		{" 1 ", "0000000001", false},
		{"", "", true},
		{"0", "", true},
		{"12ab", "", true},
	}
	for _, tt := range tests {
		got, err := PadCIK(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got)
	}
}

func TestGetCompanyTickers(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.Write([]byte(`{
			"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
			"2": {"cik_str": 1067983, "ticker": "brk-b", "title": "BERKSHIRE HATHAWAY INC"},
			"1": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"},
			"3": {"cik_str": 0, "ticker": "NOPE", "title": "missing cik"}
		}`))
	}))
	defer srv.Close()

	client := NewClient("ua", WithWWWURL(srv.URL))
	entries, err := client.GetCompanyTickers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/files/company_tickers.json", capturedPath)
	require.Len(t, entries, 3)
	assert.Equal(t, "AAPL", entries[0].Ticker)
	assert.Equal(t, "MSFT", entries[1].Ticker)
	assert.Equal(t, "BRK-B", entries[2].Ticker)
	assert.Equal(t, "0001067983", entries[2].CIK)
}
