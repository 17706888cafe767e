package analysis

import (
	"testing"

	"churnscope/domain/core"
	"churnscope/domain/customer"
	"churnscope/domain/scoring"
	"churnscope/domain/segment"
)

// testRecord builds a valid record with the fields the scenario cares
// about; everything else takes quiet defaults.
func testRecord(id string, tenure int, charge float64, churned bool) customer.Record {
	return customer.Record{
		ID:            core.CustomerID(id),
		TenureMonths:  tenure,
		MonthlyCharge: charge,
		TotalRevenue:  charge * float64(tenure),
		ContractType:  customer.ContractMonthToMonth,
		PaymentMethod: customer.PaymentElectronicCheck,
		NumServices:   2,
		Churned:       churned,
	}
}

// testProfiles derives and scores records under the default policies
func testProfiles(t *testing.T, records []customer.Record) []Profile {
	t.Helper()
	analyzer := testAnalyzer(t, scoring.VariantComposite)
	snapshot, err := customer.NewSnapshot(core.SnapshotID(core.NewID()), records)
	if err != nil {
		t.Fatalf("Failed to build snapshot: %v", err)
	}
	result, err := analyzer.Analyze(snapshot)
	if err != nil {
		t.Fatalf("Failed to analyze snapshot: %v", err)
	}
	return result.Profiles
}

func testAnalyzer(t *testing.T, variant scoring.Variant) *Analyzer {
	t.Helper()
	weights, err := scoring.WeightsFor(variant)
	if err != nil {
		t.Fatalf("Failed to resolve weights: %v", err)
	}
	scorer, err := NewRiskScorer(weights, scoring.DefaultTierPolicy(), 1.0, 3)
	if err != nil {
		t.Fatalf("Failed to build scorer: %v", err)
	}
	rfm, err := NewRFMCalculator(5, scoring.DefaultSegmentRules())
	if err != nil {
		t.Fatalf("Failed to build RFM calculator: %v", err)
	}
	analyzer, err := NewAnalyzer(customer.DefaultRules(), scorer, rfm, scoring.DefaultCLVPolicy())
	if err != nil {
		t.Fatalf("Failed to build analyzer: %v", err)
	}
	return analyzer
}

func testAggregator(t *testing.T) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(0.30, segment.DefaultPriorityPolicy())
	if err != nil {
		t.Fatalf("Failed to build aggregator: %v", err)
	}
	return agg
}
