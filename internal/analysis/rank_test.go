package analysis

import (
	"fmt"
	"testing"
)

func TestNTileEvenSplit(t *testing.T) {
	// Ten customers into ten deciles: exactly one per bucket
	assignment := NTile(10, 10)
	if len(assignment) != 10 {
		t.Fatalf("Expected 10 assignments, got %d", len(assignment))
	}
	for i, bucket := range assignment {
		if bucket != i+1 {
			t.Errorf("Position %d: expected bucket %d, got %d", i, i+1, bucket)
		}
	}
}

func TestNTileRemainderToLowestBuckets(t *testing.T) {
	tests := []struct {
		buckets  int
		total    int
		expected []int
	}{
		{5, 7, []int{1, 1, 2, 2, 3, 4, 5}},
		{3, 10, []int{1, 1, 1, 1, 2, 2, 2, 3, 3, 3}},
		{4, 6, []int{1, 1, 2, 2, 3, 4}},
		{5, 3, []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_into_%d", tt.total, tt.buckets), func(t *testing.T) {
			got := NTile(tt.buckets, tt.total)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d assignments, got %d", len(tt.expected), len(got))
			}
			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Errorf("Position %d: expected bucket %d, got %d", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestNTileDegenerate(t *testing.T) {
	if got := NTile(0, 5); got != nil {
		t.Errorf("Expected nil for zero buckets, got %v", got)
	}
	if got := NTile(5, 0); got != nil {
		t.Errorf("Expected nil for empty population, got %v", got)
	}
}

func TestDenseRank(t *testing.T) {
	values := []float64{90, 90, 80, 70, 70, 70, 60}
	expected := []int{1, 1, 2, 3, 3, 3, 4}

	ranks := DenseRank(values)
	for i := range expected {
		if ranks[i] != expected[i] {
			t.Errorf("Position %d: expected rank %d, got %d", i, expected[i], ranks[i])
		}
	}
}

func TestTopNByRiskOrdering(t *testing.T) {
	profiles := testProfiles(t, threeCustomerRecords())

	top := TopNByRisk(profiles, 2)
	if len(top) != 2 {
		t.Fatalf("Expected top 2, got %d", len(top))
	}
	if top[0].Risk.Score < top[1].Risk.Score {
		t.Errorf("Expected descending scores, got %.4f before %.4f", top[0].Risk.Score, top[1].Risk.Score)
	}
	if top[0].Rank != 1 || top[1].Rank != 2 {
		t.Errorf("Expected ranks 1 and 2, got %d and %d", top[0].Rank, top[1].Rank)
	}
}

func TestTopNTieBreakByCustomerID(t *testing.T) {
	// A and C are byte-identical apart from churn and ID, so they tie on
	// score, charge, and tenure; the ID must settle the order.
	profiles := testProfiles(t, threeCustomerRecords())

	top := TopNByRisk(profiles, 3)
	var posA, posC int
	for i, row := range top {
		switch row.Customer.ID {
		case "A":
			posA = i
		case "C":
			posC = i
		}
	}
	if posA > posC {
		t.Errorf("Expected A before C on the ID tie-break, got positions %d and %d", posA, posC)
	}
}

func TestTopNDeterministicAcrossRuns(t *testing.T) {
	profiles := testProfiles(t, threeCustomerRecords())

	first := TopNByRisk(profiles, 3)
	for run := 0; run < 10; run++ {
		again := TopNByRisk(profiles, 3)
		for i := range first {
			if first[i].Customer.ID != again[i].Customer.ID {
				t.Fatalf("Run %d position %d: expected %s, got %s",
					run, i, first[i].Customer.ID, again[i].Customer.ID)
			}
		}
	}
}

func TestTopNShorterPopulation(t *testing.T) {
	profiles := testProfiles(t, threeCustomerRecords())
	top := TopNByRisk(profiles, 500)
	if len(top) != 3 {
		t.Errorf("Expected all 3 rows when population is under N, got %d", len(top))
	}
}

func TestRiskDeciles(t *testing.T) {
	records := threeCustomerRecords()
	profiles := testProfiles(t, records)

	ranked := RiskDeciles(profiles, 10)
	if len(ranked) != 3 {
		t.Fatalf("Expected 3 ranked rows, got %d", len(ranked))
	}
	for i, row := range ranked {
		if row.Decile != i+1 {
			t.Errorf("Position %d: expected decile %d, got %d", i, i+1, row.Decile)
		}
	}
}

func TestRankByCLVDenseRanks(t *testing.T) {
	// A and C have identical charge and tenure, hence identical CLV
	profiles := testProfiles(t, threeCustomerRecords())

	ranked := RankByCLV(profiles)
	if len(ranked) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(ranked))
	}

	byID := make(map[string]CLVRanked, len(ranked))
	for _, row := range ranked {
		byID[row.Customer.ID.String()] = row
	}
	if byID["A"].DenseRnk != byID["C"].DenseRnk {
		t.Errorf("Expected A and C to share a dense rank, got %d and %d",
			byID["A"].DenseRnk, byID["C"].DenseRnk)
	}
	if byID["A"].Rank == byID["C"].Rank {
		t.Error("Expected distinct row numbers even on CLV ties")
	}
}
