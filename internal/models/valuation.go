package models

// BucketType groups valuation methods for two-stage blending
type BucketType string

const (
	BucketCashflow     BucketType = "cashflow"
	BucketRelative     BucketType = "relative"
	BucketAnalyst      BucketType = "analyst"
	BucketConservative BucketType = "conservative" // blends inside the cashflow bucket
)

// ValuationMethodResult is one independent fair-value estimate per share.
// RawValue is nil when the method's inputs were unavailable.
type ValuationMethodResult struct {
	Key             string     `json:"key"`
	Label           string     `json:"label"`
	RawValue        *float64   `json:"raw_value"`
	CalibratedValue *float64   `json:"calibrated_value"`
	Weight          float64    `json:"weight"`
	DynamicWeight   float64    `json:"dynamic_weight"`
	BucketType      BucketType `json:"bucket_type"`
	Note            string     `json:"note,omitempty"`
}

// BucketSummary is the blended value of one bucket
type BucketSummary struct {
	Bucket  BucketType `json:"bucket"`
	Value   float64    `json:"value"`
	Median  float64    `json:"median"`
	Weight  float64    `json:"weight"`
	Methods int        `json:"methods"`
}

// ValuationAssumptions records the inputs and adjustments behind a composite
type ValuationAssumptions struct {
	DiscountRate      *float64        `json:"discount_rate"`
	CostOfEquity      float64         `json:"cost_of_equity"`
	CostOfDebt        float64         `json:"cost_of_debt"`
	TaxRate           float64         `json:"tax_rate"`
	EquityWeight      float64         `json:"equity_weight"`
	DebtWeight        float64         `json:"debt_weight"`
	Beta              float64         `json:"beta"`
	TerminalGrowth    float64         `json:"terminal_growth"`
	InitialGrowth     *float64        `json:"initial_growth"`
	CurrentMargin     *float64        `json:"current_margin"`
	TerminalMargin    float64         `json:"terminal_margin"`
	Sector            string          `json:"sector,omitempty"`
	Buckets           []BucketSummary `json:"buckets"`
	CrossMedian       *float64        `json:"cross_median"`
	GrowthScore       *float64        `json:"growth_score"`
	GrowthAdjustment  float64         `json:"growth_adjustment"`
	QualityAdjustment float64         `json:"quality_adjustment"`
	RiskAdjustment    float64         `json:"risk_adjustment"`
	RegimeAdjustment  float64         `json:"regime_adjustment"`
	PriceAnchorWeight float64         `json:"price_anchor_weight"`
	MissingInputs     []string        `json:"missing_inputs"`
	Confidence        string          `json:"confidence"` // high, medium, low, none
}

// CompositeValuation is the blended fair value and its contributing methods
type CompositeValuation struct {
	Methods        []ValuationMethodResult `json:"methods"`
	CompositeValue *float64                `json:"composite_value"`
	UpsidePercent  *float64                `json:"upside_percent"`
	Assumptions    ValuationAssumptions    `json:"assumptions"`
}

// ReverseValuation is the growth rate implied by the current price
type ReverseValuation struct {
	Basis            string   `json:"basis"` // eps or fcf_per_share
	BaseValue        *float64 `json:"base_value"`
	TerminalMultiple float64  `json:"terminal_multiple"`
	RequiredReturn   float64  `json:"required_return"`
	Years            int      `json:"years"`
	ImpliedGrowth    *float64 `json:"implied_growth"`
}
