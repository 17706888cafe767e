package scoring

import (
	"fmt"

	"churnscope/domain/core"
	"churnscope/domain/customer"
)

// CLVEstimate is a point estimate of a customer's remaining value:
// monthly_charge * expected_lifetime_months * (1 - churn_probability).
// No confidence interval is modeled.
type CLVEstimate struct {
	CustomerID             core.CustomerID `json:"customer_id"`
	MonthlyCharge          float64         `json:"monthly_charge"`
	ExpectedLifetimeMonths int             `json:"expected_lifetime_months"`
	ChurnProbability       float64         `json:"churn_probability"`
	Value                  float64         `json:"value"`
}

// LifetimeStep maps a tenure ceiling to an expected lifetime
type LifetimeStep struct {
	MaxTenureMonths int `json:"max_tenure_months"`
	LifetimeMonths  int `json:"lifetime_months"`
}

// CLVPolicy holds the estimation constants: a tenure step function for
// expected lifetime and a fixed churn-probability lookup by contract.
type CLVPolicy struct {
	// Steps are evaluated in order; the first step whose ceiling covers
	// the tenure wins, and tenures beyond every ceiling use FinalLifetime.
	Steps              []LifetimeStep                    `json:"steps"`
	FinalLifetime      int                               `json:"final_lifetime"`
	ChurnProbabilities map[customer.ContractType]float64 `json:"churn_probabilities"`
}

// DefaultCLVPolicy returns the reporting constants. The probabilities are
// the observed churn rates by contract in the reference population.
func DefaultCLVPolicy() CLVPolicy {
	return CLVPolicy{
		Steps: []LifetimeStep{
			{MaxTenureMonths: 12, LifetimeMonths: 24},
			{MaxTenureMonths: 36, LifetimeMonths: 36},
		},
		FinalLifetime: 48,
		ChurnProbabilities: map[customer.ContractType]float64{
			customer.ContractMonthToMonth: 0.43,
			customer.ContractOneYear:      0.11,
			customer.ContractTwoYear:      0.03,
		},
	}
}

// Validate checks the policy before any estimate is produced
func (p CLVPolicy) Validate() error {
	if p.FinalLifetime <= 0 {
		return core.NewConfigError("clv", "final lifetime must be positive")
	}
	prev := 0
	for i, step := range p.Steps {
		if step.LifetimeMonths <= 0 {
			return core.NewConfigError("clv", fmt.Sprintf("step %d lifetime must be positive", i+1))
		}
		if step.MaxTenureMonths <= prev {
			return core.NewConfigError("clv", "step tenure ceilings must be strictly increasing")
		}
		prev = step.MaxTenureMonths
	}
	for _, ct := range customer.ContractTypes() {
		prob, ok := p.ChurnProbabilities[ct]
		if !ok {
			return core.NewConfigError("clv", fmt.Sprintf("no churn probability for contract %q", ct))
		}
		if prob < 0 || prob > 1 {
			return core.NewConfigError("clv", fmt.Sprintf("churn probability %.2f for %q outside [0, 1]", prob, ct))
		}
	}
	return nil
}

// ExpectedLifetime returns the step-function lifetime for a tenure
func (p CLVPolicy) ExpectedLifetime(tenureMonths int) int {
	for _, step := range p.Steps {
		if tenureMonths <= step.MaxTenureMonths {
			return step.LifetimeMonths
		}
	}
	return p.FinalLifetime
}

// Estimate computes the CLV point estimate for one customer
func (p CLVPolicy) Estimate(rec customer.Record) CLVEstimate {
	lifetime := p.ExpectedLifetime(rec.TenureMonths)
	prob := p.ChurnProbabilities[rec.ContractType]
	return CLVEstimate{
		CustomerID:             rec.ID,
		MonthlyCharge:          rec.MonthlyCharge,
		ExpectedLifetimeMonths: lifetime,
		ChurnProbability:       prob,
		Value:                  rec.MonthlyCharge * float64(lifetime) * (1 - prob),
	}
}
