package analysis

import (
	"sort"

	"churnscope/domain/customer"
	"churnscope/domain/scoring"
)

// NTile assigns bucket numbers 1..buckets to positions 0..total-1 in an
// already sorted sequence. Matches SQL NTILE: when total is not evenly
// divisible, the remainder rows go to the lowest-numbered buckets, so
// bucket sizes differ by at most one and larger buckets come first.
func NTile(buckets, total int) []int {
	if buckets <= 0 || total <= 0 {
		return nil
	}
	if buckets > total {
		buckets = total
	}

	base := total / buckets
	remainder := total % buckets

	assignment := make([]int, total)
	pos := 0
	for b := 1; b <= buckets; b++ {
		size := base
		if b <= remainder {
			size++
		}
		for i := 0; i < size; i++ {
			assignment[pos] = b
			pos++
		}
	}
	return assignment
}

// DenseRank assigns ranks to a descending-sorted value sequence where
// equal values share a rank and the next distinct value takes rank+1.
func DenseRank(values []float64) []int {
	ranks := make([]int, len(values))
	rank := 0
	for i, v := range values {
		if i == 0 || v != values[i-1] {
			rank++
		}
		ranks[i] = rank
	}
	return ranks
}

// RankedCustomer is one row of a risk-ordered customer listing
type RankedCustomer struct {
	Rank     int
	Customer customer.Derived
	Risk     scoring.RiskScore
	CLV      scoring.CLVEstimate
	Segment  string
	Decile   int
}

// TopNByRisk returns the n highest-risk customers under the canonical
// order: score descending, monthly charge descending, tenure ascending,
// customer ID ascending. The full order is pinned so the cut at n is
// identical across re-runs.
func TopNByRisk(profiles []Profile, n int) []RankedCustomer {
	ordered := rankAllByRisk(profiles)
	if n > 0 && len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

// RiskDeciles ranks the whole population by risk and stamps each row
// with its decile, remainder rows landing in the lowest-numbered
// (highest-risk) deciles first.
func RiskDeciles(profiles []Profile, decileCount int) []RankedCustomer {
	ordered := rankAllByRisk(profiles)
	deciles := NTile(decileCount, len(ordered))
	for i := range ordered {
		ordered[i].Decile = deciles[i]
	}
	return ordered
}

func rankAllByRisk(profiles []Profile) []RankedCustomer {
	ordered := make([]RankedCustomer, 0, len(profiles))
	for _, p := range profiles {
		ordered = append(ordered, RankedCustomer{
			Customer: p.Derived,
			Risk:     p.Risk,
			CLV:      p.CLV,
			Segment:  p.RFM.Segment,
		})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Risk.Score != ordered[j].Risk.Score {
			return ordered[i].Risk.Score > ordered[j].Risk.Score
		}
		if ordered[i].Customer.MonthlyCharge != ordered[j].Customer.MonthlyCharge {
			return ordered[i].Customer.MonthlyCharge > ordered[j].Customer.MonthlyCharge
		}
		if ordered[i].Customer.TenureMonths != ordered[j].Customer.TenureMonths {
			return ordered[i].Customer.TenureMonths < ordered[j].Customer.TenureMonths
		}
		return ordered[i].Customer.ID < ordered[j].Customer.ID
	})

	for i := range ordered {
		ordered[i].Rank = i + 1
	}
	return ordered
}

// CLVRanked is one row of the lifetime-value ranking
type CLVRanked struct {
	Rank     int
	DenseRnk int
	Customer customer.Derived
	CLV      scoring.CLVEstimate
	Risk     scoring.RiskScore
}

// RankByCLV orders the population by estimated value descending with
// customer ID as the tie-break, assigning both row numbers and dense
// ranks so equal-value customers share a dense rank.
func RankByCLV(profiles []Profile) []CLVRanked {
	ordered := make([]CLVRanked, 0, len(profiles))
	for _, p := range profiles {
		ordered = append(ordered, CLVRanked{
			Customer: p.Derived,
			CLV:      p.CLV,
			Risk:     p.Risk,
		})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CLV.Value != ordered[j].CLV.Value {
			return ordered[i].CLV.Value > ordered[j].CLV.Value
		}
		return ordered[i].Customer.ID < ordered[j].Customer.ID
	})

	values := make([]float64, len(ordered))
	for i, row := range ordered {
		values[i] = row.CLV.Value
	}
	dense := DenseRank(values)
	for i := range ordered {
		ordered[i].Rank = i + 1
		ordered[i].DenseRnk = dense[i]
	}
	return ordered
}
