package edgar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bobmcallan/fairval/internal/models"
)

// unitPreference orders the units a tag may be reported in
var unitPreference = []string{"USD", "shares", "USD/shares", "pure"}

// companyFactsResponse is the /api/xbrl/companyfacts payload
type companyFactsResponse struct {
	CIK        int64                                `json:"cik"`
	EntityName string                               `json:"entityName"`
	Facts      map[string]map[string]tagFactsSchema `json:"facts"` // taxonomy -> tag
}

type tagFactsSchema struct {
	Label string                    `json:"label"`
	Units map[string][]factResponse `json:"units"`
}

type factResponse struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	FY    *int    `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
}

// GetCompanyFacts retrieves every reported fact for a company, flattened to
// one point list per taxonomy-qualified tag
func (c *Client) GetCompanyFacts(ctx context.Context, cik string) (*models.CompanyFacts, error) {
	padded, err := PadCIK(cik)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/api/xbrl/companyfacts/CIK%s.json", padded)

	var resp companyFactsResponse
	if err := c.get(ctx, c.dataURL, path, &resp); err != nil {
		return nil, err
	}

	out := &models.CompanyFacts{
		CIK:        padded,
		EntityName: resp.EntityName,
		Facts:      make(map[string][]models.RawFactPoint),
	}
	points := 0
	for taxonomy, tags := range resp.Facts {
		for tag, schema := range tags {
			unit, facts := preferredUnit(schema.Units)
			if len(facts) == 0 {
				continue
			}
			fieldID := taxonomy + ":" + tag
			converted := make([]models.RawFactPoint, 0, len(facts))
			for _, f := range facts {
				converted = append(converted, toRawFact(fieldID, unit, f))
			}
			out.Facts[fieldID] = converted
			points += len(converted)
		}
	}

	c.logger.Debug().Str("cik", padded).Int("tags", len(out.Facts)).Int("points", points).Msg("Company facts loaded")
	return out, nil
}

// preferredUnit picks the first present unit in preference order, then
// falls back to the alphabetically first unit
func preferredUnit(units map[string][]factResponse) (string, []factResponse) {
	for _, u := range unitPreference {
		if facts, ok := units[u]; ok && len(facts) > 0 {
			return u, facts
		}
	}
	names := make([]string, 0, len(units))
	for u := range units {
		names = append(names, u)
	}
	sort.Strings(names)
	for _, u := range names {
		if len(units[u]) > 0 {
			return u, units[u]
		}
	}
	return "", nil
}

// toRawFact converts one fact. A missing or malformed end date is kept as a
// zero PeriodEnd; the reconciler discards those.
func toRawFact(fieldID, unit string, f factResponse) models.RawFactPoint {
	p := models.RawFactPoint{
		FieldID:      fieldID,
		Unit:         unit,
		FiscalPeriod: f.FP,
		Form:         f.Form,
		Value:        f.Val,
	}
	if f.FY != nil {
		p.FiscalYear = *f.FY
	}
	p.PeriodStart = parseDate(f.Start)
	p.PeriodEnd = parseDate(f.End)
	p.Filed = parseDate(f.Filed)
	return p
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
