package customer

import (
	"testing"
)

// TestBucketAssignmentBoundaries tests inclusive-exclusive edge handling
func TestBucketAssignmentBoundaries(t *testing.T) {
	buckets := DefaultTenureBuckets()

	tests := []struct {
		tenure   float64
		expected string
	}{
		{0, "0-1 year"},
		{2, "0-1 year"},
		{11, "0-1 year"},
		{12, "1-2 years"},
		{23, "1-2 years"},
		{24, "2-4 years"},
		{40, "2-4 years"},
		{47, "2-4 years"},
		{48, "4+ years"},
		{72, "4+ years"},
		{200, "4+ years"},
	}

	for _, test := range tests {
		got := buckets.Assign(test.tenure)
		if got != test.expected {
			t.Errorf("Assign(%.0f) = %q, expected %q", test.tenure, got, test.expected)
		}
	}
}

// TestBucketTotality tests that every non-negative value gets exactly one label
func TestBucketTotality(t *testing.T) {
	charge := DefaultChargeBuckets()

	for v := 0.0; v <= 250.0; v += 0.5 {
		label := charge.Assign(v)
		if !charge.Contains(label) {
			t.Fatalf("Assign(%.1f) produced unknown label %q", v, label)
		}
	}

	// Values beyond any reference upper bound still classify
	if got := charge.Assign(118.75); got != "High" {
		t.Errorf("Assign(118.75) = %q, expected High", got)
	}
	if got := charge.Assign(999); got != "High" {
		t.Errorf("Assign(999) = %q, expected High", got)
	}
}

// TestBucketValidation tests rejection of malformed edge sets
func TestBucketValidation(t *testing.T) {
	tests := []struct {
		name    string
		buckets Buckets
		wantErr bool
	}{
		{
			name:    "valid default",
			buckets: DefaultChargeBuckets(),
			wantErr: false,
		},
		{
			name:    "non-increasing edges",
			buckets: Buckets{Name: "bad", Edges: []float64{0, 70, 35}, Labels: []string{"a", "b", "c"}},
			wantErr: true,
		},
		{
			name:    "duplicate edge",
			buckets: Buckets{Name: "bad", Edges: []float64{0, 35, 35}, Labels: []string{"a", "b", "c"}},
			wantErr: true,
		},
		{
			name:    "edge label mismatch",
			buckets: Buckets{Name: "bad", Edges: []float64{0, 35}, Labels: []string{"a", "b", "c"}},
			wantErr: true,
		},
		{
			name:    "empty",
			buckets: Buckets{Name: "bad"},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.buckets.Validate()
			if test.wantErr && err == nil {
				t.Error("Expected validation error, got none")
			}
			if !test.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

// TestDeriveFlags tests the convenience flag thresholds
func TestDeriveFlags(t *testing.T) {
	rules := DefaultRules()

	rec := Record{
		ID:            "X-1",
		TenureMonths:  6,
		MonthlyCharge: 50,
		TotalRevenue:  300,
		ContractType:  ContractMonthToMonth,
		PaymentMethod: PaymentElectronicCheck,
		NumServices:   2,
		HasPartner:    true,
	}

	d := rules.Derive(rec)
	if !d.IsNewCustomer {
		t.Error("tenure 6 should be a new customer at the default cutoff")
	}
	if d.IsLongTerm {
		t.Error("tenure 6 should not be long term")
	}
	if !d.IsMonthlyContract {
		t.Error("month-to-month contract flag not set")
	}
	if !d.UsesManualPayment {
		t.Error("electronic check should count as manual payment")
	}
	if d.FamilySize != 1 {
		t.Errorf("family size = %d, expected 1", d.FamilySize)
	}

	rec.TenureMonths = 7
	if rules.Derive(rec).IsNewCustomer {
		t.Error("tenure 7 should not be a new customer at the default cutoff")
	}

	rec.TenureMonths = 25
	if !rules.Derive(rec).IsLongTerm {
		t.Error("tenure 25 should be long term")
	}
}

// TestDeriveChargeRatio tests the plus-one denominator guard
func TestDeriveChargeRatio(t *testing.T) {
	rules := DefaultRules()

	// Zero tenure: denominator is 0*charge+1 = 1, never a division by zero
	rec := Record{
		ID:            "X-2",
		TenureMonths:  0,
		MonthlyCharge: 80,
		TotalRevenue:  0,
		ContractType:  ContractOneYear,
		PaymentMethod: PaymentCreditCard,
	}
	d := rules.Derive(rec)
	if d.ChargeRatio != 0 {
		t.Errorf("charge ratio for zero-tenure zero-revenue = %f, expected 0", d.ChargeRatio)
	}

	// Consistent billing: ratio approaches 1
	rec = Record{
		ID:            "X-3",
		TenureMonths:  20,
		MonthlyCharge: 50,
		TotalRevenue:  1000,
		ContractType:  ContractOneYear,
		PaymentMethod: PaymentCreditCard,
	}
	d = rules.Derive(rec)
	if d.ChargeRatio <= 0.99 || d.ChargeRatio > 1.0 {
		t.Errorf("consistent-billing charge ratio = %f, expected just under 1", d.ChargeRatio)
	}
	if d.RevenueEstimate != 1000 {
		t.Errorf("revenue estimate = %f, expected 1000", d.RevenueEstimate)
	}
}

// TestDeriveIdempotent tests that repeated derivation is stable
func TestDeriveIdempotent(t *testing.T) {
	rules := DefaultRules()
	rec := Record{
		ID:            "X-4",
		TenureMonths:  30,
		MonthlyCharge: 64.35,
		TotalRevenue:  1930.50,
		ContractType:  ContractTwoYear,
		PaymentMethod: PaymentBankTransfer,
		NumServices:   5,
	}

	first := rules.Derive(rec)
	second := rules.Derive(rec)
	if first != second {
		t.Errorf("Derivation not stable: %+v vs %+v", first, second)
	}
}
