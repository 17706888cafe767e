package analysis

import (
	"math"
	"sort"

	"churnscope/domain/core"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Driver compares one customer attribute across the churn split. For
// numeric attributes the cohort values are plain averages; for boolean
// attributes they are the share of the cohort carrying the flag, so the
// same row shape serves both.
type Driver struct {
	Feature string `json:"feature"`

	ChurnedMean  core.Ratio `json:"churned_mean"`
	RetainedMean core.Ratio `json:"retained_mean"`
	// Gap is churned minus retained, defined only when both cohorts exist
	Gap core.Ratio `json:"gap"`

	// Correlation is the Pearson correlation of the attribute against the
	// churn flag (point-biserial for booleans); PValue comes from the
	// Fisher z approximation.
	Correlation float64 `json:"correlation"`
	PValue      float64 `json:"p_value"`
}

// ChargeQuartiles summarizes monthly charge spread for one churn cohort
type ChargeQuartiles struct {
	Cohort string  `json:"cohort"`
	Count  int     `json:"count"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
}

// DriverAnalysis is the full picture the drivers report renders
type DriverAnalysis struct {
	Drivers []Driver `json:"drivers"`

	// TenureChargeCorrelation measures whether long-tenured customers pay
	// more, over the whole population.
	TenureChargeCorrelation float64           `json:"tenure_charge_correlation"`
	Quartiles               []ChargeQuartiles `json:"quartiles"`
}

// driverFeature pairs a feature name with its per-profile extractor.
// Boolean attributes extract as 0/1.
type driverFeature struct {
	name string
	get  func(Profile) float64
}

func flagValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// AnalyzeDrivers measures every scoring-relevant attribute against the
// churn outcome: the cohort averages the reference report carried, plus
// correlation strength per attribute. Rows come back ordered by
// correlation strength, strongest first, with the feature name as the
// deterministic tie-break. The activeMeanCharge threshold is the same
// population value the scorer uses for has_high_charges.
func AnalyzeDrivers(profiles []Profile, activeMeanCharge float64) DriverAnalysis {
	features := []driverFeature{
		{"tenure_months", func(p Profile) float64 { return float64(p.TenureMonths) }},
		{"monthly_charge", func(p Profile) float64 { return p.MonthlyCharge }},
		{"total_revenue", func(p Profile) float64 { return p.TotalRevenue }},
		{"num_services", func(p Profile) float64 { return float64(p.NumServices) }},
		{"charge_ratio", func(p Profile) float64 { return p.ChargeRatio }},
		{"is_new_customer", func(p Profile) float64 { return flagValue(p.IsNewCustomer) }},
		{"is_long_term", func(p Profile) float64 { return flagValue(p.IsLongTerm) }},
		{"is_monthly_contract", func(p Profile) float64 { return flagValue(p.IsMonthlyContract) }},
		{"uses_manual_payment", func(p Profile) float64 { return flagValue(p.UsesManualPayment) }},
		{"has_high_charges", func(p Profile) float64 { return flagValue(p.MonthlyCharge > activeMeanCharge) }},
		{"is_senior", func(p Profile) float64 { return flagValue(p.IsSenior) }},
		{"has_partner", func(p Profile) float64 { return flagValue(p.HasPartner) }},
		{"has_dependents", func(p Profile) float64 { return flagValue(p.HasDependents) }},
		{"paperless_billing", func(p Profile) float64 { return flagValue(p.PaperlessBilling) }},
	}

	churn := make([]float64, len(profiles))
	tenure := make([]float64, len(profiles))
	charge := make([]float64, len(profiles))
	for i, p := range profiles {
		churn[i] = flagValue(p.Churned)
		tenure[i] = float64(p.TenureMonths)
		charge[i] = p.MonthlyCharge
	}

	drivers := make([]Driver, 0, len(features))
	for _, feature := range features {
		drivers = append(drivers, measureDriver(feature, profiles, churn))
	}

	sort.SliceStable(drivers, func(i, j int) bool {
		ai, aj := math.Abs(drivers[i].Correlation), math.Abs(drivers[j].Correlation)
		if ai != aj {
			return ai > aj
		}
		return drivers[i].Feature < drivers[j].Feature
	})

	return DriverAnalysis{
		Drivers:                 drivers,
		TenureChargeCorrelation: safeCorrelation(tenure, charge),
		Quartiles:               chargeQuartiles(profiles),
	}
}

func measureDriver(feature driverFeature, profiles []Profile, churn []float64) Driver {
	values := make([]float64, len(profiles))

	churnedSum, retainedSum := 0.0, 0.0
	churnedN, retainedN := 0, 0
	for i, p := range profiles {
		v := feature.get(p)
		values[i] = v
		if p.Churned {
			churnedSum += v
			churnedN++
		} else {
			retainedSum += v
			retainedN++
		}
	}

	d := Driver{Feature: feature.name}
	d.ChurnedMean = core.Divide(churnedSum, float64(churnedN))
	d.RetainedMean = core.Divide(retainedSum, float64(retainedN))
	if d.ChurnedMean.Valid && d.RetainedMean.Valid {
		d.Gap = core.NewRatio(d.ChurnedMean.Value - d.RetainedMean.Value)
	}

	d.Correlation = safeCorrelation(values, churn)
	d.PValue = fisherPValue(d.Correlation, len(profiles))
	return d
}

// safeCorrelation is the Pearson correlation with degenerate columns
// (all same value) mapped to zero instead of NaN.
func safeCorrelation(x, y []float64) float64 {
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// fisherPValue approximates the two-sided p-value of a correlation via
// the Fisher z transformation.
func fisherPValue(r float64, n int) float64 {
	if n < 4 || r <= -1 || r >= 1 {
		return 1
	}
	z := math.Atanh(r) * math.Sqrt(float64(n-3))
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * (1 - normal.CDF(math.Abs(z)))
	if p > 1 {
		p = 1
	}
	return p
}

// chargeQuartiles splits monthly charges by churn outcome. Quantiles use
// the linear-interpolation convention over the sorted cohort.
func chargeQuartiles(profiles []Profile) []ChargeQuartiles {
	churnedCharges := make([]float64, 0, len(profiles))
	activeCharges := make([]float64, 0, len(profiles))
	for _, p := range profiles {
		if p.Churned {
			churnedCharges = append(churnedCharges, p.MonthlyCharge)
		} else {
			activeCharges = append(activeCharges, p.MonthlyCharge)
		}
	}

	return []ChargeQuartiles{
		cohortQuartiles("churned", churnedCharges),
		cohortQuartiles("active", activeCharges),
	}
}

func cohortQuartiles(cohort string, charges []float64) ChargeQuartiles {
	q := ChargeQuartiles{Cohort: cohort, Count: len(charges)}
	if len(charges) == 0 {
		return q
	}
	sorted := make([]float64, len(charges))
	copy(sorted, charges)
	sort.Float64s(sorted)

	q.Q1 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q.Median = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	q.Q3 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	return q
}
