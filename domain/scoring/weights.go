package scoring

import (
	"fmt"
	"math"

	"churnscope/domain/core"
)

// Indicator names a binary risk condition evaluated per customer
type Indicator string

const (
	IndicatorNewCustomer     Indicator = "is_new_customer"
	IndicatorHighCharges     Indicator = "has_high_charges"
	IndicatorLowServices     Indicator = "has_low_services"
	IndicatorMonthlyContract Indicator = "is_monthly_contract"
	IndicatorManualPayment   Indicator = "uses_manual_payment"
	IndicatorHighChargeRatio Indicator = "has_high_charge_ratio"
)

// knownIndicators guards weight sets against typos at validation time
var knownIndicators = map[Indicator]bool{
	IndicatorNewCustomer:     true,
	IndicatorHighCharges:     true,
	IndicatorLowServices:     true,
	IndicatorMonthlyContract: true,
	IndicatorManualPayment:   true,
	IndicatorHighChargeRatio: true,
}

// WeightedIndicator pairs an indicator with its contribution to the score
type WeightedIndicator struct {
	Indicator Indicator `json:"indicator"`
	Weight    float64   `json:"weight"`
}

// WeightSet is one named risk-score formula: an ordered list of weighted
// binary indicators whose weights sum to 1.0, keeping scores on a [0, 1]
// scale.
type WeightSet struct {
	Variant    Variant             `json:"variant"`
	Indicators []WeightedIndicator `json:"indicators"`
}

// WeightSumTolerance bounds floating-point drift in the unit-sum check
const WeightSumTolerance = 1e-9

// Sum returns the total weight
func (w WeightSet) Sum() float64 {
	total := 0.0
	for _, wi := range w.Indicators {
		total += wi.Weight
	}
	return total
}

// Validate rejects weight sets that would break the [0, 1] score scale.
// Runs at configuration time, before any row is scored.
func (w WeightSet) Validate() error {
	if len(w.Indicators) == 0 {
		return core.NewConfigError(string(w.Variant), "weight set has no indicators")
	}
	seen := make(map[Indicator]bool, len(w.Indicators))
	for _, wi := range w.Indicators {
		if !knownIndicators[wi.Indicator] {
			return core.NewConfigError(string(w.Variant), fmt.Sprintf("unknown indicator %q", wi.Indicator))
		}
		if seen[wi.Indicator] {
			return core.NewConfigError(string(w.Variant), fmt.Sprintf("indicator %q listed twice", wi.Indicator))
		}
		seen[wi.Indicator] = true
		if wi.Weight <= 0 {
			return core.NewConfigError(string(w.Variant), fmt.Sprintf("indicator %q has non-positive weight %f", wi.Indicator, wi.Weight))
		}
	}
	if diff := math.Abs(w.Sum() - 1.0); diff > WeightSumTolerance {
		return fmt.Errorf("%w: %s sums to %.12f", core.ErrWeightsNotUnit, w.Variant, w.Sum())
	}
	return nil
}

// SimpleWeights is the 4-factor formula: short tenure, above-average
// charge, month-to-month contract, high charge ratio.
func SimpleWeights() WeightSet {
	return WeightSet{
		Variant: VariantSimple,
		Indicators: []WeightedIndicator{
			{IndicatorNewCustomer, 0.40},
			{IndicatorHighCharges, 0.25},
			{IndicatorMonthlyContract, 0.20},
			{IndicatorHighChargeRatio, 0.15},
		},
	}
}

// CompositeWeights is the 5-factor formula; the raw weights 3/2.5/2/1.5/1
// normalized to unit sum.
func CompositeWeights() WeightSet {
	return WeightSet{
		Variant: VariantComposite,
		Indicators: []WeightedIndicator{
			{IndicatorNewCustomer, 0.30},
			{IndicatorHighCharges, 0.25},
			{IndicatorLowServices, 0.20},
			{IndicatorMonthlyContract, 0.15},
			{IndicatorManualPayment, 0.10},
		},
	}
}

// WeightsFor returns the built-in weight set for a variant
func WeightsFor(v Variant) (WeightSet, error) {
	switch v {
	case VariantSimple:
		return SimpleWeights(), nil
	case VariantComposite:
		return CompositeWeights(), nil
	}
	return WeightSet{}, fmt.Errorf("%w: %q", core.ErrUnknownVariant, v)
}
