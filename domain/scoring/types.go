package scoring

import (
	"fmt"

	"churnscope/domain/core"
)

// Variant names a risk-score formula. The source analysis carries two
// weight sets for what it calls "risk score"; neither is authoritative,
// so both ship as independently selectable variants.
type Variant string

const (
	// VariantSimple is the 4-factor set weighted 0.40/0.25/0.20/0.15
	VariantSimple Variant = "simple"
	// VariantComposite is the 5-factor set weighted
	// 0.30/0.25/0.20/0.15/0.10 (the unit-normalized form of 3/2.5/2/1.5/1)
	VariantComposite Variant = "composite"
)

// ParseVariant validates a variant name
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantSimple:
		return VariantSimple, nil
	case VariantComposite:
		return VariantComposite, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownVariant, s)
}

// PopulationStats is the population-wide summary the scoring stage needs.
// It is computed once per run from the full snapshot and passed in as an
// explicit immutable input, never recomputed per row and never read from
// ambient state.
type PopulationStats struct {
	TotalCount   int `json:"total_count"`
	ActiveCount  int `json:"active_count"`
	ChurnedCount int `json:"churned_count"`

	// ActiveMeanMonthlyCharge is the has_high_charges reference point:
	// the mean monthly charge across customers who have not churned.
	ActiveMeanMonthlyCharge float64 `json:"active_mean_monthly_charge"`

	MeanMonthlyCharge   float64 `json:"mean_monthly_charge"`
	MedianMonthlyCharge float64 `json:"median_monthly_charge"`
	StdDevMonthlyCharge float64 `json:"stddev_monthly_charge"`
	MeanTenureMonths    float64 `json:"mean_tenure_months"`
	MedianTenureMonths  float64 `json:"median_tenure_months"`
	MeanTotalRevenue    float64 `json:"mean_total_revenue"`
	MedianTotalRevenue  float64 `json:"median_total_revenue"`

	ChurnRate core.Ratio `json:"churn_rate"`
}

// RiskScore is one customer's composite churn risk. A view over the
// snapshot: recomputed every run, never authoritative state.
type RiskScore struct {
	CustomerID core.CustomerID `json:"customer_id"`
	Variant    Variant         `json:"variant"`
	// Score is in [0, 1]: the weighted sum of triggered indicators,
	// rounded at nine decimals so a full house of indicators lands on
	// exactly 1.0.
	Score     float64     `json:"score"`
	Tier      string      `json:"tier"`
	Triggered []Indicator `json:"triggered"`
}

// Has reports whether the given indicator fired for this customer
func (r RiskScore) Has(ind Indicator) bool {
	for _, t := range r.Triggered {
		if t == ind {
			return true
		}
	}
	return false
}

// TierPolicy translates a score into a tier label
type TierPolicy struct {
	HighMin   float64 `json:"high_min"`
	MediumMin float64 `json:"medium_min"`
}

// DefaultTierPolicy returns the reporting cutoffs
func DefaultTierPolicy() TierPolicy {
	return TierPolicy{HighMin: 0.7, MediumMin: 0.4}
}

// Validate checks cutoff ordering and range
func (p TierPolicy) Validate() error {
	if p.HighMin <= p.MediumMin {
		return core.NewConfigError("risk_tiers", "high cutoff must exceed medium cutoff")
	}
	if p.MediumMin < 0 || p.HighMin > 1 {
		return core.NewConfigError("risk_tiers", "cutoffs must lie inside [0, 1]")
	}
	return nil
}

// Assign maps a score to its tier
func (p TierPolicy) Assign(score float64) string {
	switch {
	case score >= p.HighMin:
		return "High"
	case score >= p.MediumMin:
		return "Medium"
	default:
		return "Low"
	}
}
