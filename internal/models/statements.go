package models

import "time"

// PeriodRecord is one fiscal period's income statement, balance sheet and
// cash flow figures. Missing values are nil, never zero.
type PeriodRecord struct {
	PeriodEnd    time.Time  `json:"period_end"`
	FiscalYear   int        `json:"fiscal_year"`
	FiscalPeriod string     `json:"fiscal_period"`
	PeriodType   PeriodType `json:"period_type"`
	OffCalendar  bool       `json:"off_calendar,omitempty"`

	// Income statement
	Revenue         *float64 `json:"revenue"`
	CostOfRevenue   *float64 `json:"cost_of_revenue"`
	GrossProfit     *float64 `json:"gross_profit"`
	OperatingIncome *float64 `json:"operating_income"`
	InterestExpense *float64 `json:"interest_expense"`
	PretaxIncome    *float64 `json:"pretax_income"`
	IncomeTax       *float64 `json:"income_tax"`
	NetIncome       *float64 `json:"net_income"`
	DilutedEPS      *float64 `json:"diluted_eps"`
	DilutedShares   *float64 `json:"diluted_shares"`
	BasicShares     *float64 `json:"basic_shares"`

	// Balance sheet
	TotalAssets        *float64 `json:"total_assets"`
	TotalLiabilities   *float64 `json:"total_liabilities"`
	StockholdersEquity *float64 `json:"stockholders_equity"`
	Cash               *float64 `json:"cash"`
	CurrentAssets      *float64 `json:"current_assets"`
	CurrentLiabilities *float64 `json:"current_liabilities"`
	LongTermDebt       *float64 `json:"long_term_debt"`
	ShortTermDebt      *float64 `json:"short_term_debt"`
	TotalDebt          *float64 `json:"total_debt"`

	// Cash flow
	OperatingCashFlow        *float64 `json:"operating_cash_flow"`
	CapitalExpenditure       *float64 `json:"capital_expenditure"`
	FreeCashFlow             *float64 `json:"free_cash_flow"`
	DepreciationAmortization *float64 `json:"depreciation_amortization"`
	DividendsPaid            *float64 `json:"dividends_paid"`
	ShareRepurchases         *float64 `json:"share_repurchases"`
}

// FinancialHistory holds statement records, newest period first
type FinancialHistory struct {
	Annual    []PeriodRecord `json:"annual"`
	Quarterly []PeriodRecord `json:"quarterly"`
}

// LatestAnnual returns the most recent annual record, or nil
func (h FinancialHistory) LatestAnnual() *PeriodRecord {
	if len(h.Annual) == 0 {
		return nil
	}
	return &h.Annual[0]
}

// Ratios are profitability and balance-sheet ratios for one annual period
type Ratios struct {
	FiscalYear      int       `json:"fiscal_year"`
	PeriodEnd       time.Time `json:"period_end"`
	GrossMargin     *float64  `json:"gross_margin"`
	OperatingMargin *float64  `json:"operating_margin"`
	NetMargin       *float64  `json:"net_margin"`
	FCFMargin       *float64  `json:"fcf_margin"`
	ReturnOnEquity  *float64  `json:"return_on_equity"`
	ReturnOnAssets  *float64  `json:"return_on_assets"`
	DebtToEquity    *float64  `json:"debt_to_equity"`
	CurrentRatio    *float64  `json:"current_ratio"`
	RevenueGrowth   *float64  `json:"revenue_growth"`
}

// ValuationMultiples are the latest period's multiples against the live price
type ValuationMultiples struct {
	PriceToEarnings *float64 `json:"price_to_earnings"`
	PriceToSales    *float64 `json:"price_to_sales"`
	PriceToBook     *float64 `json:"price_to_book"`
	PriceToFCF      *float64 `json:"price_to_fcf"`
	EVToRevenue     *float64 `json:"ev_to_revenue"`
	EnterpriseValue *float64 `json:"enterprise_value"`
}

// Share count sources, in resolution order
const (
	SharesDiluted = "diluted"
	SharesBasic   = "basic"
	SharesLive    = "live"
)

// PerShareMetrics are one fiscal year's figures divided by its resolved
// share count. Shares is nil when no source resolved; every metric is then nil.
type PerShareMetrics struct {
	FiscalYear        int       `json:"fiscal_year"`
	PeriodEnd         time.Time `json:"period_end"`
	Shares            *float64  `json:"shares"`
	SharesSource      string    `json:"shares_source,omitempty"`
	Revenue           *float64  `json:"revenue_per_share"`
	NetIncome         *float64  `json:"net_income_per_share"`
	BookValue         *float64  `json:"book_value_per_share"`
	FreeCashFlow      *float64  `json:"free_cash_flow_per_share"`
	OperatingCashFlow *float64  `json:"operating_cash_flow_per_share"`
}
