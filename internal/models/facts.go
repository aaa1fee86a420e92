package models

import "time"

// PeriodType distinguishes full-year from single-quarter periods
type PeriodType string

const (
	PeriodAnnual    PeriodType = "annual"
	PeriodQuarterly PeriodType = "quarterly"
)

// RawFactPoint is a single reported value exactly as received from the
// regulatory facts feed. PeriodStart is zero for instant (balance sheet) facts.
type RawFactPoint struct {
	FieldID      string    `json:"field_id"` // taxonomy-qualified tag, e.g. us-gaap:Revenues
	Unit         string    `json:"unit"`
	PeriodStart  time.Time `json:"period_start,omitempty"`
	PeriodEnd    time.Time `json:"period_end"`
	FiscalPeriod string    `json:"fiscal_period"` // FY, Q1..Q4
	FiscalYear   int       `json:"fiscal_year"`   // as tagged by the filer
	Form         string    `json:"form"`
	Filed        time.Time `json:"filed"`
	Value        float64   `json:"value"`
}

// CompanyFacts holds every fact reported by one company, keyed by field ID
type CompanyFacts struct {
	CIK        string                    `json:"cik"`
	EntityName string                    `json:"entity_name"`
	Facts      map[string][]RawFactPoint `json:"facts"`
}

// ReconciledPeriod is the single value chosen for one (metric, period end).
// FiscalYear is the calendar year of PeriodEnd, not the filer's tag.
// OffCalendar marks full-year periods that do not end in December, whose
// FiscalYear may differ from the filer's own label.
type ReconciledPeriod struct {
	Metric       string    `json:"metric"`
	FieldID      string    `json:"field_id"`
	PeriodStart  time.Time `json:"period_start,omitempty"`
	PeriodEnd    time.Time `json:"period_end"`
	FiscalYear   int       `json:"fiscal_year"`
	FiscalPeriod string    `json:"fiscal_period"`
	Filed        time.Time `json:"filed"`
	Value        float64   `json:"value"`
	OffCalendar  bool      `json:"off_calendar,omitempty"`
}
