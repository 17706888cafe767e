package scoring

import (
	"math"
	"testing"

	"churnscope/domain/customer"
)

// TestExpectedLifetimeSteps tests the tenure step function boundaries
func TestExpectedLifetimeSteps(t *testing.T) {
	p := DefaultCLVPolicy()
	if err := p.Validate(); err != nil {
		t.Fatalf("Default CLV policy rejected: %v", err)
	}

	tests := []struct {
		tenure   int
		lifetime int
	}{
		{0, 24},
		{12, 24},
		{13, 36},
		{36, 36},
		{37, 48},
		{72, 48},
	}
	for _, test := range tests {
		if got := p.ExpectedLifetime(test.tenure); got != test.lifetime {
			t.Errorf("ExpectedLifetime(%d) = %d, expected %d", test.tenure, got, test.lifetime)
		}
	}
}

// TestCLVEstimate tests the point-estimate formula
func TestCLVEstimate(t *testing.T) {
	p := DefaultCLVPolicy()

	rec := customer.Record{
		ID:            "C-1",
		TenureMonths:  6,
		MonthlyCharge: 100,
		ContractType:  customer.ContractMonthToMonth,
		PaymentMethod: customer.PaymentElectronicCheck,
	}
	est := p.Estimate(rec)

	// 100 * 24 * (1 - 0.43) = 1368
	if math.Abs(est.Value-1368) > 1e-9 {
		t.Errorf("CLV = %.2f, expected 1368.00", est.Value)
	}
	if est.ExpectedLifetimeMonths != 24 {
		t.Errorf("Lifetime = %d, expected 24", est.ExpectedLifetimeMonths)
	}
	if est.ChurnProbability != 0.43 {
		t.Errorf("Churn probability = %.2f, expected 0.43", est.ChurnProbability)
	}

	// Two-year contracts retain nearly all value
	rec.ContractType = customer.ContractTwoYear
	est = p.Estimate(rec)
	if math.Abs(est.Value-100*24*0.97) > 1e-9 {
		t.Errorf("Two-year CLV = %.2f, expected %.2f", est.Value, 100*24*0.97)
	}
}

// TestCLVPolicyValidation tests malformed policies are rejected
func TestCLVPolicyValidation(t *testing.T) {
	p := DefaultCLVPolicy()
	p.ChurnProbabilities[customer.ContractOneYear] = 1.5
	if err := p.Validate(); err == nil {
		t.Error("Probability above 1 accepted")
	}

	p = DefaultCLVPolicy()
	delete(p.ChurnProbabilities, customer.ContractTwoYear)
	if err := p.Validate(); err == nil {
		t.Error("Missing contract probability accepted")
	}

	p = DefaultCLVPolicy()
	p.Steps = []LifetimeStep{{MaxTenureMonths: 36, LifetimeMonths: 36}, {MaxTenureMonths: 12, LifetimeMonths: 24}}
	if err := p.Validate(); err == nil {
		t.Error("Out-of-order steps accepted")
	}

	p = DefaultCLVPolicy()
	p.FinalLifetime = 0
	if err := p.Validate(); err == nil {
		t.Error("Zero final lifetime accepted")
	}
}
