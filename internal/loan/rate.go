// Package loan implements the KPR calculation engine: fixed-rate installments,
// tiered-rate schedules and the affordability estimate. Every function in this
// package is pure and never fails; invalid input maps to a zero result.
package loan

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// RateKind names an interest-rate variant on the wire.
type RateKind string

const (
	RateKindSingleFixed RateKind = "single-fixed"
	RateKindTieredFixed RateKind = "tiered-fixed"
)

// Rate is either SingleFixed or TieredFixed.
type Rate interface {
	Kind() RateKind
	MinimumTenor() int
	isRate()
}

// SingleFixed is one constant annual rate for the whole tenor.
type SingleFixed struct {
	AnnualRatePercent decimal.Decimal
	MinimumTenorYears int
}

func (SingleFixed) Kind() RateKind      { return RateKindSingleFixed }
func (r SingleFixed) MinimumTenor() int { return r.MinimumTenorYears }
func (SingleFixed) isRate()             {}

// Tier is one step of a tiered (berjenjang) rate.
type Tier struct {
	Label             string
	AnnualRatePercent decimal.Decimal
}

// TieredFixed changes rate at year boundaries. Malformed is set when the tier
// data could not be read; such a rate always produces an empty schedule.
type TieredFixed struct {
	Tiers             []Tier
	MinimumTenorYears int
	Malformed         bool
}

func (TieredFixed) Kind() RateKind      { return RateKindTieredFixed }
func (r TieredFixed) MinimumTenor() int { return r.MinimumTenorYears }
func (TieredFixed) isRate()             {}

// RateSpec is the catalog/wire shape of a rate:
//
//	{"id": 1, "title": "...", "type": "tiered-fixed",
//	 "interest_rate": [{"rate": 7.5, "note": "Year 1-2"}], "minimum_tenor": 5}
//
// For single-fixed rates interest_rate is a number.
type RateSpec struct {
	ID           int    `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	Type         string `json:"type" yaml:"type"`
	InterestRate any    `json:"interest_rate" yaml:"interest_rate" swaggertype:"object"`
	MinimumTenor int    `json:"minimum_tenor" yaml:"minimum_tenor"`
}

// DecodeRate converts a RateSpec into a Rate. Unknown types, a non-numeric
// single-fixed rate and a non-positive minimum tenor are errors. Bad tier data
// is not: it yields a TieredFixed marked Malformed.
func DecodeRate(spec RateSpec) (Rate, error) {
	if spec.MinimumTenor <= 0 {
		return nil, fmt.Errorf("rate %d: minimum_tenor must be positive, got %d", spec.ID, spec.MinimumTenor)
	}

	switch RateKind(spec.Type) {
	case RateKindSingleFixed:
		pct, ok := toDecimal(spec.InterestRate)
		if !ok {
			return nil, fmt.Errorf("rate %d: single-fixed interest_rate must be a number", spec.ID)
		}
		return SingleFixed{AnnualRatePercent: pct, MinimumTenorYears: spec.MinimumTenor}, nil
	case RateKindTieredFixed:
		tiers, ok := decodeTiers(spec.InterestRate)
		return TieredFixed{Tiers: tiers, MinimumTenorYears: spec.MinimumTenor, Malformed: !ok}, nil
	default:
		return nil, fmt.Errorf("rate %d: unknown type %q", spec.ID, spec.Type)
	}
}

func decodeTiers(raw any) ([]Tier, bool) {
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	tiers := make([]Tier, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		pct, ok := toDecimal(obj["rate"])
		if !ok {
			return nil, false
		}
		note, _ := obj["note"].(string)
		tiers = append(tiers, Tier{Label: note, AnnualRatePercent: pct})
	}
	return tiers, true
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Zero, false
	}
}

// FormatRatePercent renders a rate with one decimal place: 7.5 -> "7.5%", 8 -> "8.0%".
func FormatRatePercent(pct decimal.Decimal) string {
	return pct.StringFixed(1) + "%"
}
