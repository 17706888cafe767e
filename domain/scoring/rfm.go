package scoring

import (
	"fmt"

	"churnscope/domain/core"
)

// RFMScore holds one customer's quintile digits and segment. Quintiles are
// population-relative: the same customer can score differently when the
// population changes, unlike the absolute-threshold derivation buckets.
type RFMScore struct {
	CustomerID core.CustomerID `json:"customer_id"`
	// Recency is the inverse tenure quintile: the newest relationships
	// score 5. Frequency ranks num_services, Monetary ranks total
	// revenue; 5 is best in every dimension.
	Recency   int    `json:"recency"`
	Frequency int    `json:"frequency"`
	Monetary  int    `json:"monetary"`
	Code      string `json:"code"`
	Segment   string `json:"segment"`
}

// NewRFMCode concatenates the three digits, e.g. 545
func NewRFMCode(r, f, m int) string {
	return fmt.Sprintf("%d%d%d", r, f, m)
}

// Band is an inclusive quintile constraint. Zero min or max means
// unbounded on that side.
type Band struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

// Matches reports whether v satisfies the band
func (b Band) Matches(v int) bool {
	if b.Min > 0 && v < b.Min {
		return false
	}
	if b.Max > 0 && v > b.Max {
		return false
	}
	return true
}

// SegmentRule maps a quintile region to a named segment
type SegmentRule struct {
	Segment string `json:"segment"`
	R       Band   `json:"r"`
	F       Band   `json:"f"`
	M       Band   `json:"m"`
}

// Matches reports whether the rule covers the given digits
func (r SegmentRule) Matches(rec, freq, mon int) bool {
	return r.R.Matches(rec) && r.F.Matches(freq) && r.M.Matches(mon)
}

// OthersSegment is the guaranteed catch-all label
const OthersSegment = "Others"

// SegmentRules is an ordered rule list evaluated top to bottom; the first
// match wins. Classification is total: digits matching no rule fall into
// the Others segment.
type SegmentRules []SegmentRule

// DefaultSegmentRules returns the reporting segment taxonomy
func DefaultSegmentRules() SegmentRules {
	return SegmentRules{
		{Segment: "Champions", R: Band{Min: 4}, F: Band{Min: 4}, M: Band{Min: 4}},
		{Segment: "Loyal Customers", F: Band{Min: 4}},
		{Segment: "Big Spenders", M: Band{Min: 5}},
		{Segment: "Potential Loyalists", R: Band{Min: 4}, F: Band{Min: 2}, M: Band{Min: 2}},
		{Segment: "New Customers", R: Band{Min: 5}, F: Band{Max: 2}},
		{Segment: "At Risk", R: Band{Max: 2}, F: Band{Min: 3}},
		{Segment: "Cant Lose Them", R: Band{Max: 2}, M: Band{Min: 4}},
		{Segment: "Hibernating", R: Band{Max: 2}, F: Band{Max: 2}},
	}
}

// Validate checks rule names and band ranges before any customer is classified
func (rules SegmentRules) Validate() error {
	if len(rules) == 0 {
		return core.NewConfigError("rfm_rules", "at least one segment rule is required")
	}
	for i, rule := range rules {
		if rule.Segment == "" {
			return core.NewConfigError("rfm_rules", fmt.Sprintf("rule %d has no segment name", i+1))
		}
		for _, band := range []Band{rule.R, rule.F, rule.M} {
			if band.Min < 0 || band.Max < 0 || band.Min > 5 || band.Max > 5 {
				return core.NewConfigError("rfm_rules", fmt.Sprintf("rule %q band outside 1-5", rule.Segment))
			}
			if band.Min > 0 && band.Max > 0 && band.Min > band.Max {
				return core.NewConfigError("rfm_rules", fmt.Sprintf("rule %q band min exceeds max", rule.Segment))
			}
		}
	}
	return nil
}

// Classify returns the first matching segment, or Others
func (rules SegmentRules) Classify(r, f, m int) string {
	for _, rule := range rules {
		if rule.Matches(r, f, m) {
			return rule.Segment
		}
	}
	return OthersSegment
}

// SegmentNames lists every segment the rules can produce, in rule order,
// with Others last. Used by reports to keep segment ordering stable.
func (rules SegmentRules) SegmentNames() []string {
	names := make([]string, 0, len(rules)+1)
	seen := make(map[string]bool, len(rules)+1)
	for _, rule := range rules {
		if !seen[rule.Segment] {
			names = append(names, rule.Segment)
			seen[rule.Segment] = true
		}
	}
	if !seen[OthersSegment] {
		names = append(names, OthersSegment)
	}
	return names
}
