package customer

import (
	"fmt"

	"churnscope/domain/core"
)

// Buckets maps a numeric value onto an ordered set of labels via
// inclusive-exclusive thresholds: bucket i covers [Edges[i], Edges[i+1]),
// and the final bucket is open-ended. Assignment is total: any value at or
// above the first edge lands in exactly one bucket, so re-running on a
// different population never changes bucket semantics.
type Buckets struct {
	Name   string    `json:"name"`
	Edges  []float64 `json:"edges"`
	Labels []string  `json:"labels"`
}

// Validate rejects edge sets that could leave a value unclassified
func (b Buckets) Validate() error {
	if len(b.Labels) == 0 {
		return core.NewConfigError(b.Name, "at least one bucket label is required")
	}
	if len(b.Edges) != len(b.Labels) {
		return core.NewConfigError(b.Name,
			fmt.Sprintf("%d edges for %d labels; each label needs its lower edge", len(b.Edges), len(b.Labels)))
	}
	for i := 1; i < len(b.Edges); i++ {
		if b.Edges[i] <= b.Edges[i-1] {
			return fmt.Errorf("%w: %s edge %.2f follows %.2f", core.ErrBucketEdges, b.Name, b.Edges[i], b.Edges[i-1])
		}
	}
	return nil
}

// Assign returns the label owning v. Values below the first edge clamp
// into the first bucket; Validate plus non-negative inputs make that case
// unreachable in practice.
func (b Buckets) Assign(v float64) string {
	for i := len(b.Edges) - 1; i >= 0; i-- {
		if v >= b.Edges[i] {
			return b.Labels[i]
		}
	}
	return b.Labels[0]
}

// Contains reports whether label is one of the bucket labels
func (b Buckets) Contains(label string) bool {
	for _, l := range b.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Default bucket sets match the reference analysis: tenure splits at one,
// two, and four years; monthly charge splits at 35 and 70.
func DefaultTenureBuckets() Buckets {
	return Buckets{
		Name:   "tenure_group",
		Edges:  []float64{0, 12, 24, 48},
		Labels: []string{"0-1 year", "1-2 years", "2-4 years", "4+ years"},
	}
}

func DefaultChargeBuckets() Buckets {
	return Buckets{
		Name:   "charge_category",
		Edges:  []float64{0, 35, 70},
		Labels: []string{"Low", "Medium", "High"},
	}
}
