package analysis

import (
	"strings"

	"churnscope/domain/core"
	"churnscope/domain/segment"
)

// Aggregator performs the grouped reduction over scored profiles
type Aggregator struct {
	recoveryFraction float64
	priorities       segment.PriorityPolicy
}

// NewAggregator validates the priority cutoffs once
func NewAggregator(recoveryFraction float64, priorities segment.PriorityPolicy) (*Aggregator, error) {
	if err := priorities.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{recoveryFraction: recoveryFraction, priorities: priorities}, nil
}

// RecoveryFraction exposes the configured win-back share for
// population-level summaries
func (a *Aggregator) RecoveryFraction() float64 {
	return a.recoveryFraction
}

// groupAccumulator collects the single-pass sums for one key
type groupAccumulator struct {
	key           []string
	count         int
	churned       int
	revenue       float64
	lostRevenue   float64
	monthlyCharge float64
	tenureMonths  float64
}

// Aggregate partitions profiles by the grouping dimensions and reduces
// each partition to one segment row. Only combinations actually present
// in the data appear; the result is fully sorted by composite score.
func (a *Aggregator) Aggregate(profiles []Profile, spec segment.GroupingSpec) ([]segment.Aggregate, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	groups := make(map[string]*groupAccumulator)
	for _, p := range profiles {
		key := make([]string, 0, len(spec.Dimensions))
		for _, dim := range spec.Dimensions {
			key = append(key, p.DimensionValue(dim))
		}
		mapKey := strings.Join(key, "\x1f")

		acc, ok := groups[mapKey]
		if !ok {
			acc = &groupAccumulator{key: key}
			groups[mapKey] = acc
		}
		acc.count++
		if p.Churned {
			acc.churned++
			acc.lostRevenue += p.TotalRevenue
		}
		acc.revenue += p.TotalRevenue
		acc.monthlyCharge += p.MonthlyCharge
		acc.tenureMonths += float64(p.TenureMonths)
	}

	aggs := make([]segment.Aggregate, 0, len(groups))
	for _, acc := range groups {
		aggs = append(aggs, a.finalize(spec.Dimensions, acc))
	}
	segment.Sort(aggs)
	return aggs, nil
}

// finalize turns the raw sums into the derived per-segment fields
func (a *Aggregator) finalize(dims []segment.Dimension, acc *groupAccumulator) segment.Aggregate {
	n := float64(acc.count)
	churnRate := core.Percent(float64(acc.churned), n)
	composite := churnRate.Or(0) / 100 * acc.revenue / 1000

	return segment.Aggregate{
		Dimensions: dims,
		Key:        acc.key,

		Count:   acc.count,
		Churned: acc.churned,

		ChurnRate:        churnRate,
		TotalRevenue:     acc.revenue,
		AvgRevenue:       acc.revenue / n,
		AvgMonthlyCharge: acc.monthlyCharge / n,
		AvgTenureMonths:  acc.tenureMonths / n,

		LostRevenue:        acc.lostRevenue,
		RecoverableRevenue: acc.lostRevenue * a.recoveryFraction,

		CompositeScore: composite,
		Priority:       a.priorities.Assign(composite),
	}
}
