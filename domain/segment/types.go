package segment

import (
	"fmt"
	"sort"
	"strings"

	"churnscope/domain/core"
)

// Dimension names a categorical attribute segments can group by
type Dimension string

const (
	DimTenureGroup    Dimension = "tenure_group"
	DimChargeCategory Dimension = "charge_category"
	DimContractType   Dimension = "contract_type"
	DimPaymentMethod  Dimension = "payment_method"
	DimNumServices    Dimension = "num_services"
	DimRFMSegment     Dimension = "rfm_segment"
	DimRiskTier       Dimension = "risk_tier"
)

// KnownDimensions lists every dimension the aggregation stage can extract
func KnownDimensions() []Dimension {
	return []Dimension{
		DimTenureGroup,
		DimChargeCategory,
		DimContractType,
		DimPaymentMethod,
		DimNumServices,
		DimRFMSegment,
		DimRiskTier,
	}
}

// MaxGroupingDimensions caps grouping arity; deeper cross products
// produce sparse, unreadable segment tables.
const MaxGroupingDimensions = 3

// GroupingSpec selects 1-3 dimensions to partition the population by
type GroupingSpec struct {
	Name       string      `json:"name"`
	Dimensions []Dimension `json:"dimensions"`
}

// Validate rejects unknown or malformed dimension sets before any row is
// grouped
func (g GroupingSpec) Validate() error {
	if len(g.Dimensions) == 0 {
		return core.NewConfigError(g.Name, "grouping needs at least one dimension")
	}
	if len(g.Dimensions) > MaxGroupingDimensions {
		return core.NewConfigError(g.Name,
			fmt.Sprintf("grouping uses %d dimensions, maximum is %d", len(g.Dimensions), MaxGroupingDimensions))
	}
	known := make(map[Dimension]bool, len(KnownDimensions()))
	for _, d := range KnownDimensions() {
		known[d] = true
	}
	seen := make(map[Dimension]bool, len(g.Dimensions))
	for _, d := range g.Dimensions {
		if !known[d] {
			return fmt.Errorf("%w: %q in grouping %q", core.ErrUnknownDimension, d, g.Name)
		}
		if seen[d] {
			return core.NewConfigError(g.Name, fmt.Sprintf("dimension %q listed twice", d))
		}
		seen[d] = true
	}
	return nil
}

// Aggregate is one segment row: the reduction of every customer sharing
// the same dimension values. Recomputed in full each run; empty
// combinations are never materialized.
type Aggregate struct {
	Dimensions []Dimension `json:"dimensions"`
	Key        []string    `json:"key"`

	Count   int `json:"count"`
	Churned int `json:"churned"`

	ChurnRate        core.Ratio `json:"churn_rate"`
	TotalRevenue     float64    `json:"total_revenue"`
	AvgRevenue       float64    `json:"avg_revenue"`
	AvgMonthlyCharge float64    `json:"avg_monthly_charge"`
	AvgTenureMonths  float64    `json:"avg_tenure_months"`

	// LostRevenue sums revenue of churned members; RecoverableRevenue
	// applies the configured recovery fraction to it.
	LostRevenue        float64 `json:"lost_revenue"`
	RecoverableRevenue float64 `json:"recoverable_revenue"`

	// CompositeScore is churn_rate/100 * total_revenue/1000, the
	// risk-weighted revenue exposure that orders segment reports.
	CompositeScore float64 `json:"composite_score"`
	Priority       string  `json:"priority"`
}

// KeyLabel renders the segment key for report rows and tie-breaking
func (a Aggregate) KeyLabel() string {
	return strings.Join(a.Key, " | ")
}

// Sort orders aggregates by composite score, churn rate, then revenue,
// all descending, with the segment key as the final lexicographic
// tie-break so output order is identical across re-runs.
func Sort(aggs []Aggregate) {
	sort.SliceStable(aggs, func(i, j int) bool {
		if aggs[i].CompositeScore != aggs[j].CompositeScore {
			return aggs[i].CompositeScore > aggs[j].CompositeScore
		}
		ri, rj := aggs[i].ChurnRate.Or(0), aggs[j].ChurnRate.Or(0)
		if ri != rj {
			return ri > rj
		}
		if aggs[i].TotalRevenue != aggs[j].TotalRevenue {
			return aggs[i].TotalRevenue > aggs[j].TotalRevenue
		}
		return aggs[i].KeyLabel() < aggs[j].KeyLabel()
	})
}

// PriorityPolicy maps a composite score onto retention priority labels
type PriorityPolicy struct {
	CriticalMin float64 `json:"critical_min"`
	HighMin     float64 `json:"high_min"`
	MediumMin   float64 `json:"medium_min"`
}

// DefaultPriorityPolicy returns the reporting cutoffs
func DefaultPriorityPolicy() PriorityPolicy {
	return PriorityPolicy{CriticalMin: 50, HighMin: 20, MediumMin: 5}
}

// Validate checks the cutoffs descend
func (p PriorityPolicy) Validate() error {
	if p.CriticalMin <= p.HighMin || p.HighMin <= p.MediumMin {
		return core.NewConfigError("priority", "cutoffs must strictly descend critical > high > medium")
	}
	if p.MediumMin < 0 {
		return core.NewConfigError("priority", "medium cutoff cannot be negative")
	}
	return nil
}

// Assign maps a composite score to its priority label
func (p PriorityPolicy) Assign(composite float64) string {
	switch {
	case composite >= p.CriticalMin:
		return "Critical"
	case composite >= p.HighMin:
		return "High"
	case composite >= p.MediumMin:
		return "Medium"
	default:
		return "Low"
	}
}
