package analysis

import (
	"fmt"
	"math"
	"testing"

	"churnscope/domain/core"
	"churnscope/domain/customer"
)

// driverFixture builds a population with a strong contract signal: even
// customers are month-to-month and churn every fourth row, odd customers
// are two-year and never churn.
func driverFixture(t *testing.T) []Profile {
	t.Helper()
	records := make([]customer.Record, 0, 80)
	for i := 0; i < 80; i++ {
		rec := customer.Record{
			ID:            core.CustomerID(fmt.Sprintf("DRV-%03d", i)),
			TenureMonths:  6 + i%30,
			MonthlyCharge: 40 + float64(i%50),
			ContractType:  customer.ContractTwoYear,
			PaymentMethod: customer.PaymentCreditCard,
			NumServices:   1 + i%8,
		}
		if i%2 == 0 {
			rec.ContractType = customer.ContractMonthToMonth
			rec.PaymentMethod = customer.PaymentElectronicCheck
			rec.Churned = i%4 == 0
		}
		rec.TotalRevenue = rec.MonthlyCharge * float64(rec.TenureMonths)
		records = append(records, rec)
	}
	return testProfiles(t, records)
}

func findDriver(t *testing.T, analysis DriverAnalysis, feature string) Driver {
	t.Helper()
	for _, d := range analysis.Drivers {
		if d.Feature == feature {
			return d
		}
	}
	t.Fatalf("Driver %q missing from analysis", feature)
	return Driver{}
}

func TestDriversFindContractSignal(t *testing.T) {
	profiles := driverFixture(t)
	analysis := AnalyzeDrivers(profiles, 65)

	d := findDriver(t, analysis, "is_monthly_contract")
	if !d.ChurnedMean.Valid || !d.RetainedMean.Valid {
		t.Fatal("Both cohort means should be defined")
	}
	// Every churner is month-to-month, so the churned share is exactly 1
	if d.ChurnedMean.Value != 1.0 {
		t.Errorf("Churned cohort monthly share = %.4f, want 1.0", d.ChurnedMean.Value)
	}
	if d.ChurnedMean.Value <= d.RetainedMean.Value {
		t.Errorf("Expected monthly-contract share higher among churners: churned %.4f retained %.4f",
			d.ChurnedMean.Value, d.RetainedMean.Value)
	}
	if !d.Gap.Valid || d.Gap.Value <= 0 {
		t.Errorf("Gap should be positive, got %+v", d.Gap)
	}
	if d.Correlation <= 0 {
		t.Errorf("Correlation should be positive, got %.4f", d.Correlation)
	}
	if d.PValue < 0 || d.PValue > 1 {
		t.Errorf("P-value outside [0, 1]: %.4f", d.PValue)
	}
}

func TestDriversCohortAverages(t *testing.T) {
	records := []customer.Record{
		testRecord("A", 2, 50, true),
		testRecord("B", 4, 50, true),
		testRecord("C", 10, 50, false),
		testRecord("D", 20, 50, false),
	}
	analysis := AnalyzeDrivers(testProfiles(t, records), 50)

	d := findDriver(t, analysis, "tenure_months")
	if d.ChurnedMean.Or(-1) != 3 {
		t.Errorf("Churned tenure mean = %v, want 3", d.ChurnedMean)
	}
	if d.RetainedMean.Or(-1) != 15 {
		t.Errorf("Retained tenure mean = %v, want 15", d.RetainedMean)
	}
	if d.Gap.Or(0) != -12 {
		t.Errorf("Gap = %v, want -12", d.Gap)
	}
}

func TestDriversCoverEveryFeature(t *testing.T) {
	analysis := AnalyzeDrivers(driverFixture(t), 65)

	if len(analysis.Drivers) != 14 {
		t.Fatalf("Expected 14 drivers, got %d", len(analysis.Drivers))
	}
	seen := make(map[string]bool)
	for _, d := range analysis.Drivers {
		if seen[d.Feature] {
			t.Errorf("Duplicate driver %q", d.Feature)
		}
		seen[d.Feature] = true
	}
}

func TestDriversOrderedByStrength(t *testing.T) {
	analysis := AnalyzeDrivers(driverFixture(t), 65)

	prev := math.Inf(1)
	for _, d := range analysis.Drivers {
		strength := math.Abs(d.Correlation)
		if strength > prev {
			t.Fatalf("Driver %q out of order: |r|=%.4f after %.4f", d.Feature, strength, prev)
		}
		prev = strength
	}
}

func TestDriversDegenerateColumn(t *testing.T) {
	// Fixture has no seniors, so the column is constant
	analysis := AnalyzeDrivers(driverFixture(t), 65)

	d := findDriver(t, analysis, "is_senior")
	if d.Correlation != 0 {
		t.Errorf("Constant column correlation = %.4f, want 0", d.Correlation)
	}
	if d.PValue != 1 {
		t.Errorf("Constant column p-value = %.4f, want 1", d.PValue)
	}
}

func TestDriversSingleCohort(t *testing.T) {
	records := []customer.Record{
		testRecord("A", 2, 50, true),
		testRecord("B", 4, 60, true),
	}
	analysis := AnalyzeDrivers(testProfiles(t, records), 55)

	d := findDriver(t, analysis, "monthly_charge")
	if !d.ChurnedMean.Valid {
		t.Error("Churned mean should be defined")
	}
	if d.RetainedMean.Valid {
		t.Error("Retained mean should be undefined with no retained customers")
	}
	if d.Gap.Valid {
		t.Error("Gap should be undefined with one empty cohort")
	}
}

func TestTenureChargeCorrelation(t *testing.T) {
	// Charge rises strictly with tenure, so the correlation is strongly
	// positive.
	records := make([]customer.Record, 0, 20)
	for i := 0; i < 20; i++ {
		records = append(records, testRecord(fmt.Sprintf("T-%02d", i), 1+i, 20+float64(5*i), i%3 == 0))
	}
	analysis := AnalyzeDrivers(testProfiles(t, records), 60)

	if analysis.TenureChargeCorrelation < 0.99 {
		t.Errorf("Tenure-charge correlation = %.4f, want near 1", analysis.TenureChargeCorrelation)
	}
}

func TestChargeQuartiles(t *testing.T) {
	analysis := AnalyzeDrivers(driverFixture(t), 65)

	if len(analysis.Quartiles) != 2 {
		t.Fatalf("Expected churned and active quartiles, got %d", len(analysis.Quartiles))
	}
	total := 0
	for _, q := range analysis.Quartiles {
		total += q.Count
		if q.Count == 0 {
			continue
		}
		if q.Q1 > q.Median || q.Median > q.Q3 {
			t.Errorf("Cohort %s quartiles out of order: %.2f %.2f %.2f", q.Cohort, q.Q1, q.Median, q.Q3)
		}
	}
	if total != 80 {
		t.Errorf("Quartile cohorts cover %d customers, want 80", total)
	}
}
