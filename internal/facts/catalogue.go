package facts

// Metric is a logical financial metric and the ordered list of field
// identifiers that filers have used to report it. Order does not affect
// reconciliation; it only documents the common tags.
type Metric struct {
	Name       string
	Candidates []string
	Instant    bool // balance sheet point-in-time values
}

func gaap(tags ...string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = "us-gaap:" + t
	}
	return out
}

var (
	Revenue = Metric{Name: "revenue", Candidates: gaap(
		"Revenues",
		"RevenueFromContractWithCustomerExcludingAssessedTax",
		"RevenueFromContractWithCustomerIncludingAssessedTax",
		"SalesRevenueNet",
		"SalesRevenueGoodsNet",
	)}
	CostOfRevenue = Metric{Name: "cost_of_revenue", Candidates: gaap(
		"CostOfRevenue",
		"CostOfGoodsAndServicesSold",
		"CostOfGoodsSold",
	)}
	GrossProfit     = Metric{Name: "gross_profit", Candidates: gaap("GrossProfit")}
	OperatingIncome = Metric{Name: "operating_income", Candidates: gaap("OperatingIncomeLoss")}
	InterestExpense = Metric{Name: "interest_expense", Candidates: gaap(
		"InterestExpense",
		"InterestExpenseNonoperating",
		"InterestExpenseDebt",
	)}
	PretaxIncome = Metric{Name: "pretax_income", Candidates: gaap(
		"IncomeLossFromContinuingOperationsBeforeIncomeTaxesExtraordinaryItemsNoncontrollingInterest",
		"IncomeLossFromContinuingOperationsBeforeIncomeTaxesMinorityInterestAndIncomeLossFromEquityMethodInvestments",
	)}
	IncomeTax = Metric{Name: "income_tax", Candidates: gaap("IncomeTaxExpenseBenefit")}
	NetIncome = Metric{Name: "net_income", Candidates: gaap(
		"NetIncomeLoss",
		"NetIncomeLossAvailableToCommonStockholdersBasic",
		"ProfitLoss",
	)}
	DilutedEPS    = Metric{Name: "diluted_eps", Candidates: gaap("EarningsPerShareDiluted")}
	DilutedShares = Metric{Name: "diluted_shares", Candidates: gaap("WeightedAverageNumberOfDilutedSharesOutstanding")}
	BasicShares   = Metric{Name: "basic_shares", Candidates: gaap("WeightedAverageNumberOfSharesOutstandingBasic")}

	TotalAssets      = Metric{Name: "total_assets", Instant: true, Candidates: gaap("Assets")}
	TotalLiabilities = Metric{Name: "total_liabilities", Instant: true, Candidates: gaap("Liabilities")}
	Equity           = Metric{Name: "stockholders_equity", Instant: true, Candidates: gaap(
		"StockholdersEquity",
		"StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest",
	)}
	Cash = Metric{Name: "cash", Instant: true, Candidates: gaap(
		"CashAndCashEquivalentsAtCarryingValue",
		"CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents",
		"Cash",
	)}
	CurrentAssets      = Metric{Name: "current_assets", Instant: true, Candidates: gaap("AssetsCurrent")}
	CurrentLiabilities = Metric{Name: "current_liabilities", Instant: true, Candidates: gaap("LiabilitiesCurrent")}
	LongTermDebt       = Metric{Name: "long_term_debt", Instant: true, Candidates: gaap(
		"LongTermDebtNoncurrent",
		"LongTermDebt",
		"LongTermDebtAndCapitalLeaseObligations",
	)}
	ShortTermDebt = Metric{Name: "short_term_debt", Instant: true, Candidates: gaap(
		"LongTermDebtCurrent",
		"DebtCurrent",
		"ShortTermBorrowings",
	)}

	OperatingCashFlow = Metric{Name: "operating_cash_flow", Candidates: gaap(
		"NetCashProvidedByUsedInOperatingActivities",
		"NetCashProvidedByUsedInOperatingActivitiesContinuingOperations",
	)}
	CapitalExpenditure = Metric{Name: "capital_expenditure", Candidates: gaap(
		"PaymentsToAcquirePropertyPlantAndEquipment",
		"PaymentsToAcquireProductiveAssets",
	)}
	DepreciationAmortization = Metric{Name: "depreciation_amortization", Candidates: gaap(
		"DepreciationDepletionAndAmortization",
		"DepreciationAndAmortization",
		"DepreciationAmortizationAndAccretionNet",
	)}
	DividendsPaid = Metric{Name: "dividends_paid", Candidates: gaap(
		"PaymentsOfDividends",
		"PaymentsOfDividendsCommonStock",
	)}
	ShareRepurchases = Metric{Name: "share_repurchases", Candidates: gaap("PaymentsForRepurchaseOfCommonStock")}

	// SharesOutstanding is the cover-page share count, used only when the
	// market feed has no live figure.
	SharesOutstanding = Metric{Name: "shares_outstanding", Instant: true, Candidates: []string{
		"dei:EntityCommonStockSharesOutstanding",
	}}
)

// StatementMetrics lists every metric joined into statement records
var StatementMetrics = []Metric{
	Revenue, CostOfRevenue, GrossProfit, OperatingIncome, InterestExpense,
	PretaxIncome, IncomeTax, NetIncome, DilutedEPS, DilutedShares, BasicShares,
	TotalAssets, TotalLiabilities, Equity, Cash, CurrentAssets,
	CurrentLiabilities, LongTermDebt, ShortTermDebt,
	OperatingCashFlow, CapitalExpenditure, DepreciationAmortization,
	DividendsPaid, ShareRepurchases,
}
