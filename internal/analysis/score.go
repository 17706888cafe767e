package analysis

import (
	"math"

	"churnscope/domain/customer"
	"churnscope/domain/scoring"
)

// RiskScorer evaluates one weight set against derived records. The
// population summary is an explicit input so the scorer itself stays a
// pure function of its arguments.
type RiskScorer struct {
	weights            scoring.WeightSet
	tiers              scoring.TierPolicy
	highChargeRatioMin float64
	lowServicesBelow   int
}

// NewRiskScorer validates the formula once and returns a scorer
func NewRiskScorer(weights scoring.WeightSet, tiers scoring.TierPolicy, highChargeRatioMin float64, lowServicesBelow int) (*RiskScorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if err := tiers.Validate(); err != nil {
		return nil, err
	}
	return &RiskScorer{
		weights:            weights,
		tiers:              tiers,
		highChargeRatioMin: highChargeRatioMin,
		lowServicesBelow:   lowServicesBelow,
	}, nil
}

// Variant returns the formula being applied
func (s *RiskScorer) Variant() scoring.Variant {
	return s.weights.Variant
}

// Score evaluates every indicator of the weight set for one customer.
// The weighted sum is rounded at nine decimals so a customer triggering
// every indicator lands on exactly 1.0 despite float accumulation.
func (s *RiskScorer) Score(d customer.Derived, pop scoring.PopulationStats) scoring.RiskScore {
	total := 0.0
	triggered := make([]scoring.Indicator, 0, len(s.weights.Indicators))

	for _, wi := range s.weights.Indicators {
		if s.evaluate(wi.Indicator, d, pop) {
			total += wi.Weight
			triggered = append(triggered, wi.Indicator)
		}
	}

	score := math.Round(total*1e9) / 1e9
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return scoring.RiskScore{
		CustomerID: d.ID,
		Variant:    s.weights.Variant,
		Score:      score,
		Tier:       s.tiers.Assign(score),
		Triggered:  triggered,
	}
}

// ScoreAll scores every record, preserving input order
func (s *RiskScorer) ScoreAll(derived []customer.Derived, pop scoring.PopulationStats) []scoring.RiskScore {
	scores := make([]scoring.RiskScore, 0, len(derived))
	for _, d := range derived {
		scores = append(scores, s.Score(d, pop))
	}
	return scores
}

func (s *RiskScorer) evaluate(ind scoring.Indicator, d customer.Derived, pop scoring.PopulationStats) bool {
	switch ind {
	case scoring.IndicatorNewCustomer:
		return d.IsNewCustomer
	case scoring.IndicatorHighCharges:
		return d.MonthlyCharge > pop.ActiveMeanMonthlyCharge
	case scoring.IndicatorLowServices:
		return d.NumServices < s.lowServicesBelow
	case scoring.IndicatorMonthlyContract:
		return d.IsMonthlyContract
	case scoring.IndicatorManualPayment:
		return d.UsesManualPayment
	case scoring.IndicatorHighChargeRatio:
		return d.ChargeRatio > s.highChargeRatioMin
	}
	return false
}
