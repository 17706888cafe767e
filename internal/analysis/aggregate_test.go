package analysis

import (
	"testing"

	"churnscope/domain/customer"
	"churnscope/domain/segment"
)

// The canonical three-customer scenario: two short-tenure customers of
// whom one churned, and one mid-tenure survivor.
func threeCustomerRecords() []customer.Record {
	return []customer.Record{
		testRecord("A", 2, 90, true),
		testRecord("B", 40, 60, false),
		testRecord("C", 2, 90, false),
	}
}

func TestAggregateByTenureGroup(t *testing.T) {
	profiles := testProfiles(t, threeCustomerRecords())
	agg := testAggregator(t)

	spec := segment.GroupingSpec{Name: "by_tenure", Dimensions: []segment.Dimension{segment.DimTenureGroup}}
	segments, err := agg.Aggregate(profiles, spec)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segments))
	}

	byKey := make(map[string]segment.Aggregate, len(segments))
	for _, s := range segments {
		byKey[s.KeyLabel()] = s
	}

	young, ok := byKey["0-1 year"]
	if !ok {
		t.Fatal("Expected a 0-1 year segment")
	}
	if young.Count != 2 || young.Churned != 1 {
		t.Errorf("Expected count=2 churned=1, got count=%d churned=%d", young.Count, young.Churned)
	}
	if got := young.ChurnRate.Render(2); got != "50.00" {
		t.Errorf("Expected churn rate 50.00, got %q", got)
	}

	mid, ok := byKey["2-4 years"]
	if !ok {
		t.Fatal("Expected a 2-4 years segment")
	}
	if mid.Count != 1 || mid.Churned != 0 {
		t.Errorf("Expected count=1 churned=0, got count=%d churned=%d", mid.Count, mid.Churned)
	}
	if got := mid.ChurnRate.Render(2); got != "0.00" {
		t.Errorf("Expected churn rate 0.00, got %q", got)
	}
}

func TestPartitionCompleteness(t *testing.T) {
	records := make([]customer.Record, 0, 60)
	for i := 0; i < 60; i++ {
		records = append(records, testRecord(string(rune('a'+i%26))+string(rune('a'+i/26)), i%73, 20+float64(i), i%3 == 0))
	}
	profiles := testProfiles(t, records)
	agg := testAggregator(t)

	specs := []segment.GroupingSpec{
		{Name: "one", Dimensions: []segment.Dimension{segment.DimTenureGroup}},
		{Name: "two", Dimensions: []segment.Dimension{segment.DimTenureGroup, segment.DimChargeCategory}},
		{Name: "three", Dimensions: []segment.Dimension{segment.DimTenureGroup, segment.DimChargeCategory, segment.DimRiskTier}},
	}

	for _, spec := range specs {
		t.Run(spec.Name, func(t *testing.T) {
			segments, err := agg.Aggregate(profiles, spec)
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}
			total := 0
			for _, s := range segments {
				total += s.Count
				if rate := s.ChurnRate.Or(0); rate < 0 || rate > 100 {
					t.Errorf("Segment %q churn rate %.2f outside [0, 100]", s.KeyLabel(), rate)
				}
			}
			if total != len(records) {
				t.Errorf("Expected segment counts to sum to %d, got %d", len(records), total)
			}
		})
	}
}

func TestEmptyCombinationsOmitted(t *testing.T) {
	// Only two of the four tenure buckets are populated
	profiles := testProfiles(t, threeCustomerRecords())
	segments, err := testAggregator(t).Aggregate(profiles, segment.GroupingSpec{
		Name:       "by_tenure",
		Dimensions: []segment.Dimension{segment.DimTenureGroup},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for _, s := range segments {
		if s.Count == 0 {
			t.Errorf("Expected no zero-count segments, got %q", s.KeyLabel())
		}
	}
}

func TestAggregateOrdering(t *testing.T) {
	records := []customer.Record{
		testRecord("r1", 2, 100, true),
		testRecord("r2", 2, 100, true),
		testRecord("r3", 40, 10, false),
		testRecord("r4", 40, 10, false),
	}
	profiles := testProfiles(t, records)
	segments, err := testAggregator(t).Aggregate(profiles, segment.GroupingSpec{
		Name:       "by_tenure",
		Dimensions: []segment.Dimension{segment.DimTenureGroup},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	for i := 1; i < len(segments); i++ {
		if segments[i-1].CompositeScore < segments[i].CompositeScore {
			t.Errorf("Expected composite scores to descend, got %.4f before %.4f",
				segments[i-1].CompositeScore, segments[i].CompositeScore)
		}
	}
	if segments[0].KeyLabel() != "0-1 year" {
		t.Errorf("Expected the fully churned segment first, got %q", segments[0].KeyLabel())
	}
}

func TestAggregateDeterministicAcrossRuns(t *testing.T) {
	records := make([]customer.Record, 0, 40)
	for i := 0; i < 40; i++ {
		records = append(records, testRecord(string(rune('a'+i%26))+string(rune('0'+i/26)), i*2, 25+float64(i%50), i%4 == 0))
	}
	profiles := testProfiles(t, records)
	agg := testAggregator(t)
	spec := segment.GroupingSpec{Name: "mix", Dimensions: []segment.Dimension{segment.DimTenureGroup, segment.DimChargeCategory}}

	first, err := agg.Aggregate(profiles, spec)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := agg.Aggregate(profiles, spec)
		if err != nil {
			t.Fatalf("Aggregate failed on run %d: %v", run, err)
		}
		if len(again) != len(first) {
			t.Fatalf("Expected %d segments, got %d on run %d", len(first), len(again), run)
		}
		for i := range first {
			if first[i].KeyLabel() != again[i].KeyLabel() || first[i].Count != again[i].Count {
				t.Fatalf("Run %d segment %d differs: %q/%d vs %q/%d",
					run, i, first[i].KeyLabel(), first[i].Count, again[i].KeyLabel(), again[i].Count)
			}
		}
	}
}

func TestRecoverableRevenue(t *testing.T) {
	profiles := testProfiles(t, threeCustomerRecords())
	segments, err := testAggregator(t).Aggregate(profiles, segment.GroupingSpec{
		Name:       "by_tenure",
		Dimensions: []segment.Dimension{segment.DimTenureGroup},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	for _, s := range segments {
		expected := s.LostRevenue * 0.30
		if diff := s.RecoverableRevenue - expected; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Segment %q recoverable %.4f, expected %.4f", s.KeyLabel(), s.RecoverableRevenue, expected)
		}
	}
}
