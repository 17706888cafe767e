package analysis

import (
	"sort"

	"churnscope/domain/customer"
	"churnscope/domain/scoring"
)

// RFMCalculator assigns population-relative quintile scores. Unlike the
// absolute derivation buckets, the same customer can land in a different
// quintile when the population around them changes.
type RFMCalculator struct {
	buckets int
	rules   scoring.SegmentRules
}

// NewRFMCalculator validates the segmentation rules once
func NewRFMCalculator(buckets int, rules scoring.SegmentRules) (*RFMCalculator, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &RFMCalculator{buckets: buckets, rules: rules}, nil
}

// Rules exposes the segment taxonomy for report ordering
func (c *RFMCalculator) Rules() scoring.SegmentRules {
	return c.rules
}

// ScoreAll ranks the whole population along the three dimensions and
// returns one RFMScore per record, in input order.
//
// Each dimension sorts better-first with customer ID as the tie-break:
// recency by tenure ascending (newer relationships are more recent),
// frequency by service count descending, monetary by total revenue
// descending. Bucket 1 of the better-first order is the best slice, so
// the digit is buckets+1-bucket and the best customers score 5.
func (c *RFMCalculator) ScoreAll(records []customer.Record) []scoring.RFMScore {
	n := len(records)
	if n == 0 {
		return nil
	}

	recency := c.assignDigits(records, func(a, b customer.Record) bool {
		if a.TenureMonths != b.TenureMonths {
			return a.TenureMonths < b.TenureMonths
		}
		return a.ID < b.ID
	})
	frequency := c.assignDigits(records, func(a, b customer.Record) bool {
		if a.NumServices != b.NumServices {
			return a.NumServices > b.NumServices
		}
		return a.ID < b.ID
	})
	monetary := c.assignDigits(records, func(a, b customer.Record) bool {
		if a.TotalRevenue != b.TotalRevenue {
			return a.TotalRevenue > b.TotalRevenue
		}
		return a.ID < b.ID
	})

	scores := make([]scoring.RFMScore, 0, n)
	for i, rec := range records {
		r, f, m := recency[i], frequency[i], monetary[i]
		scores = append(scores, scoring.RFMScore{
			CustomerID: rec.ID,
			Recency:    r,
			Frequency:  f,
			Monetary:   m,
			Code:       scoring.NewRFMCode(r, f, m),
			Segment:    c.rules.Classify(r, f, m),
		})
	}
	return scores
}

// assignDigits sorts positions better-first, spreads NTILE buckets over
// the order, and inverts the bucket number into a 1..buckets digit where
// the best rows carry the highest digit.
func (c *RFMCalculator) assignDigits(records []customer.Record, betterFirst func(a, b customer.Record) bool) []int {
	n := len(records)
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return betterFirst(records[positions[i]], records[positions[j]])
	})

	tiles := NTile(c.buckets, n)
	digits := make([]int, n)
	for orderIdx, recordIdx := range positions {
		digits[recordIdx] = c.buckets + 1 - tiles[orderIdx]
	}
	return digits
}
