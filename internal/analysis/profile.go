package analysis

import (
	"strconv"

	"churnscope/domain/customer"
	"churnscope/domain/scoring"
	"churnscope/domain/segment"
)

// Profile is the fully scored view of one customer: the derived record
// joined with its risk score, RFM digits, and CLV estimate. Aggregation
// and every report read from profiles, never from raw records.
type Profile struct {
	customer.Derived

	Risk scoring.RiskScore
	RFM  scoring.RFMScore
	CLV  scoring.CLVEstimate
}

// DimensionValue extracts the grouping value for one dimension
func (p Profile) DimensionValue(d segment.Dimension) string {
	switch d {
	case segment.DimTenureGroup:
		return p.TenureGroup
	case segment.DimChargeCategory:
		return p.ChargeCategory
	case segment.DimContractType:
		return string(p.ContractType)
	case segment.DimPaymentMethod:
		return string(p.PaymentMethod)
	case segment.DimNumServices:
		return strconv.Itoa(p.NumServices)
	case segment.DimRFMSegment:
		return p.RFM.Segment
	case segment.DimRiskTier:
		return p.Risk.Tier
	}
	return ""
}

// Analyzer runs the pure scoring stages over one snapshot. Construction
// validates every policy, so Analyze itself has no configuration error
// path left.
type Analyzer struct {
	rules     customer.Rules
	scorer    *RiskScorer
	rfm       *RFMCalculator
	clvPolicy scoring.CLVPolicy
}

// NewAnalyzer wires the stage policies together
func NewAnalyzer(rules customer.Rules, scorer *RiskScorer, rfm *RFMCalculator, clvPolicy scoring.CLVPolicy) (*Analyzer, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if err := clvPolicy.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{rules: rules, scorer: scorer, rfm: rfm, clvPolicy: clvPolicy}, nil
}

// Result carries everything the scoring stages produced for one snapshot
type Result struct {
	Profiles   []Profile
	Population scoring.PopulationStats
}

// Analyze derives, scores, and ranks the full snapshot. Pure function of
// the snapshot and the analyzer's policies: the same snapshot always
// produces the same result, in the same order.
func (a *Analyzer) Analyze(snapshot *customer.Snapshot) (*Result, error) {
	pop, err := ComputePopulationStats(snapshot.Records)
	if err != nil {
		return nil, err
	}

	rfmScores := a.rfm.ScoreAll(snapshot.Records)

	profiles := make([]Profile, 0, len(snapshot.Records))
	for i, rec := range snapshot.Records {
		derived := a.rules.Derive(rec)
		profiles = append(profiles, Profile{
			Derived: derived,
			Risk:    a.scorer.Score(derived, pop),
			RFM:     rfmScores[i],
			CLV:     a.clvPolicy.Estimate(rec),
		})
	}

	return &Result{Profiles: profiles, Population: pop}, nil
}

// Variant reports which risk formula the analyzer applies
func (a *Analyzer) Variant() scoring.Variant {
	return a.scorer.Variant()
}
