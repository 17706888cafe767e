package segment

import (
	"testing"

	"churnscope/domain/core"
)

// TestGroupingSpecValidation tests dimension checks run before grouping
func TestGroupingSpecValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    GroupingSpec
		wantErr bool
	}{
		{
			name:    "single dimension",
			spec:    GroupingSpec{Name: "by_tenure", Dimensions: []Dimension{DimTenureGroup}},
			wantErr: false,
		},
		{
			name:    "two dimensions",
			spec:    GroupingSpec{Name: "risk_matrix", Dimensions: []Dimension{DimTenureGroup, DimChargeCategory}},
			wantErr: false,
		},
		{
			name: "three dimensions",
			spec: GroupingSpec{Name: "deep", Dimensions: []Dimension{
				DimTenureGroup, DimChargeCategory, DimContractType,
			}},
			wantErr: false,
		},
		{
			name: "four dimensions",
			spec: GroupingSpec{Name: "too_deep", Dimensions: []Dimension{
				DimTenureGroup, DimChargeCategory, DimContractType, DimPaymentMethod,
			}},
			wantErr: true,
		},
		{
			name:    "unknown dimension",
			spec:    GroupingSpec{Name: "bad", Dimensions: []Dimension{"favorite_color"}},
			wantErr: true,
		},
		{
			name:    "duplicate dimension",
			spec:    GroupingSpec{Name: "dup", Dimensions: []Dimension{DimTenureGroup, DimTenureGroup}},
			wantErr: true,
		},
		{
			name:    "empty",
			spec:    GroupingSpec{Name: "empty"},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.spec.Validate()
			if test.wantErr && err == nil {
				t.Error("Expected validation error, got none")
			}
			if !test.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

// TestSortOrdering tests the deterministic composite ordering
func TestSortOrdering(t *testing.T) {
	aggs := []Aggregate{
		{Key: []string{"b"}, CompositeScore: 10, ChurnRate: core.NewRatio(20), TotalRevenue: 100},
		{Key: []string{"a"}, CompositeScore: 10, ChurnRate: core.NewRatio(20), TotalRevenue: 100},
		{Key: []string{"c"}, CompositeScore: 30, ChurnRate: core.NewRatio(10), TotalRevenue: 50},
		{Key: []string{"d"}, CompositeScore: 10, ChurnRate: core.NewRatio(40), TotalRevenue: 10},
	}

	Sort(aggs)

	order := make([]string, len(aggs))
	for i, a := range aggs {
		order[i] = a.KeyLabel()
	}

	// c wins on composite, d wins on churn rate at equal composite, and
	// the a/b tie breaks lexicographically.
	expected := []string{"c", "d", "a", "b"}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("Order %v, expected %v", order, expected)
		}
	}
}

// TestSortStableAcrossRuns tests identical input always sorts identically
func TestSortStableAcrossRuns(t *testing.T) {
	build := func() []Aggregate {
		return []Aggregate{
			{Key: []string{"x", "1"}, CompositeScore: 5, ChurnRate: core.NewRatio(50), TotalRevenue: 100},
			{Key: []string{"x", "2"}, CompositeScore: 5, ChurnRate: core.NewRatio(50), TotalRevenue: 100},
			{Key: []string{"w", "9"}, CompositeScore: 5, ChurnRate: core.NewRatio(50), TotalRevenue: 100},
		}
	}

	first := build()
	Sort(first)
	for i := 0; i < 10; i++ {
		again := build()
		Sort(again)
		for j := range first {
			if first[j].KeyLabel() != again[j].KeyLabel() {
				t.Fatalf("Sort unstable at position %d: %s vs %s", j, first[j].KeyLabel(), again[j].KeyLabel())
			}
		}
	}
}

// TestPriorityAssignment tests the cutoff ladder
func TestPriorityAssignment(t *testing.T) {
	p := DefaultPriorityPolicy()
	if err := p.Validate(); err != nil {
		t.Fatalf("Default priority policy rejected: %v", err)
	}

	tests := []struct {
		composite float64
		priority  string
	}{
		{120, "Critical"},
		{50, "Critical"},
		{49.9, "High"},
		{20, "High"},
		{19.9, "Medium"},
		{5, "Medium"},
		{4.9, "Low"},
		{0, "Low"},
	}
	for _, test := range tests {
		if got := p.Assign(test.composite); got != test.priority {
			t.Errorf("Assign(%.1f) = %q, expected %q", test.composite, got, test.priority)
		}
	}

	bad := PriorityPolicy{CriticalMin: 10, HighMin: 10, MediumMin: 1}
	if err := bad.Validate(); err == nil {
		t.Error("Non-descending cutoffs accepted")
	}
}
