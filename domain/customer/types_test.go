package customer

import (
	"strings"
	"testing"

	"churnscope/domain/core"
)

// TestParseContractType tests contract normalization from both source forms
func TestParseContractType(t *testing.T) {
	tests := []struct {
		input    string
		expected ContractType
		hasError bool
	}{
		{"Month-to-month", ContractMonthToMonth, false},
		{"month-to-month", ContractMonthToMonth, false},
		{"One year", ContractOneYear, false},
		{"one-year", ContractOneYear, false},
		{"Two year", ContractTwoYear, false},
		{"  Two year  ", ContractTwoYear, false},
		{"lifetime", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		result, err := ParseContractType(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestParsePaymentMethod tests payment normalization
func TestParsePaymentMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected PaymentMethod
		hasError bool
	}{
		{"Electronic check", PaymentElectronicCheck, false},
		{"Mailed check", PaymentMailedCheck, false},
		{"Bank transfer (automatic)", PaymentBankTransfer, false},
		{"bank-transfer-auto", PaymentBankTransfer, false},
		{"Credit card (automatic)", PaymentCreditCard, false},
		{"credit-card-auto", PaymentCreditCard, false},
		{"bitcoin", "", true},
	}

	for _, test := range tests {
		result, err := ParsePaymentMethod(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestManualPaymentFlag tests which methods count as manual
func TestManualPaymentFlag(t *testing.T) {
	if !PaymentElectronicCheck.IsManual() {
		t.Error("electronic check should be manual")
	}
	if !PaymentMailedCheck.IsManual() {
		t.Error("mailed check should be manual")
	}
	if PaymentBankTransfer.IsManual() {
		t.Error("automatic bank transfer should not be manual")
	}
	if PaymentCreditCard.IsManual() {
		t.Error("automatic credit card should not be manual")
	}
}

// TestRecordValidate tests attribute domain checks
func TestRecordValidate(t *testing.T) {
	valid := Record{
		ID:            "7590-VHVEG",
		TenureMonths:  12,
		MonthlyCharge: 29.85,
		TotalRevenue:  358.20,
		ContractType:  ContractMonthToMonth,
		PaymentMethod: PaymentElectronicCheck,
		NumServices:   2,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Valid record rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r Record) Record
		want   string
	}{
		{"negative tenure", func(r Record) Record { r.TenureMonths = -1; return r }, "tenure"},
		{"negative charge", func(r Record) Record { r.MonthlyCharge = -0.01; return r }, "monthly_charge"},
		{"negative revenue", func(r Record) Record { r.TotalRevenue = -5; return r }, "total_revenue"},
		{"services too high", func(r Record) Record { r.NumServices = 9; return r }, "num_services"},
		{"empty id", func(r Record) Record { r.ID = " "; return r }, "customer_id"},
		{"bad contract", func(r Record) Record { r.ContractType = "Weekly"; return r }, "contract"},
		{"bad payment", func(r Record) Record { r.PaymentMethod = "Cash"; return r }, "payment"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.mutate(valid).Validate()
			if err == nil {
				t.Fatal("Expected validation error, got none")
			}
			if !strings.Contains(strings.ToLower(err.Error()), test.want) {
				t.Errorf("Error %q does not mention %q", err, test.want)
			}
		})
	}
}

// TestSnapshotDuplicateRejection tests duplicate customer IDs are reported with positions
func TestSnapshotDuplicateRejection(t *testing.T) {
	records := []Record{
		{ID: "A", TenureMonths: 1, ContractType: ContractOneYear, PaymentMethod: PaymentCreditCard},
		{ID: "B", TenureMonths: 2, ContractType: ContractOneYear, PaymentMethod: PaymentCreditCard},
		{ID: "A", TenureMonths: 3, ContractType: ContractOneYear, PaymentMethod: PaymentCreditCard},
	}

	_, err := NewSnapshot(core.SnapshotID("snap-1"), records)
	if err == nil {
		t.Fatal("Expected duplicate key error, got none")
	}
	if !strings.Contains(err.Error(), "rows 1 and 3") {
		t.Errorf("Duplicate error lacks row positions: %v", err)
	}
}

// TestSnapshotEmptyRejection tests empty populations are rejected
func TestSnapshotEmptyRejection(t *testing.T) {
	if _, err := NewSnapshot(core.SnapshotID("snap-2"), nil); err == nil {
		t.Fatal("Expected empty snapshot error, got none")
	}
}

// TestSnapshotHashStability tests identical record sets fingerprint identically
func TestSnapshotHashStability(t *testing.T) {
	records := []Record{
		{ID: "A", TenureMonths: 1, MonthlyCharge: 10, ContractType: ContractOneYear, PaymentMethod: PaymentCreditCard},
		{ID: "B", TenureMonths: 2, MonthlyCharge: 20, ContractType: ContractTwoYear, PaymentMethod: PaymentMailedCheck},
	}

	s1, err := NewSnapshot(core.SnapshotID("s"), records)
	if err != nil {
		t.Fatal(err)
	}

	reversed := []Record{records[1], records[0]}
	s2, err := NewSnapshot(core.SnapshotID("s"), reversed)
	if err != nil {
		t.Fatal(err)
	}

	if s1.Hash != s2.Hash {
		t.Errorf("Row order changed the snapshot hash: %s vs %s", s1.Hash, s2.Hash)
	}

	records[1].MonthlyCharge = 21
	s3, err := NewSnapshot(core.SnapshotID("s"), records)
	if err != nil {
		t.Fatal(err)
	}
	if s1.Hash == s3.Hash {
		t.Error("Changed record did not change the snapshot hash")
	}
}

// TestSnapshotCounts tests active and churned tallies
func TestSnapshotCounts(t *testing.T) {
	records := []Record{
		{ID: "A", ContractType: ContractOneYear, PaymentMethod: PaymentCreditCard, Churned: true},
		{ID: "B", ContractType: ContractOneYear, PaymentMethod: PaymentCreditCard},
		{ID: "C", ContractType: ContractOneYear, PaymentMethod: PaymentCreditCard},
	}

	snap, err := NewSnapshot(core.SnapshotID("s"), records)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Size() != 3 {
		t.Errorf("Size = %d, expected 3", snap.Size())
	}
	if snap.ActiveCount() != 2 {
		t.Errorf("ActiveCount = %d, expected 2", snap.ActiveCount())
	}
	if snap.ChurnedCount() != 1 {
		t.Errorf("ChurnedCount = %d, expected 1", snap.ChurnedCount())
	}
}
