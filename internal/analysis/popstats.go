package analysis

import (
	"churnscope/domain/core"
	"churnscope/domain/customer"
	"churnscope/domain/scoring"

	"github.com/montanaflynn/stats"
)

// ComputePopulationStats reduces a snapshot to the population summary the
// scoring stage consumes. Computed once per run and passed around as an
// immutable value; no stage ever recomputes it per row.
func ComputePopulationStats(records []customer.Record) (scoring.PopulationStats, error) {
	if len(records) == 0 {
		return scoring.PopulationStats{}, core.ErrEmptySnapshot
	}

	charges := make([]float64, 0, len(records))
	tenures := make([]float64, 0, len(records))
	revenues := make([]float64, 0, len(records))
	activeCharges := make([]float64, 0, len(records))
	churned := 0

	for _, rec := range records {
		charges = append(charges, rec.MonthlyCharge)
		tenures = append(tenures, float64(rec.TenureMonths))
		revenues = append(revenues, rec.TotalRevenue)
		if rec.Churned {
			churned++
		} else {
			activeCharges = append(activeCharges, rec.MonthlyCharge)
		}
	}

	meanCharge, _ := stats.Mean(charges)
	medianCharge, _ := stats.Median(charges)
	stdDevCharge, _ := stats.StandardDeviation(charges)
	meanTenure, _ := stats.Mean(tenures)
	medianTenure, _ := stats.Median(tenures)
	meanRevenue, _ := stats.Mean(revenues)
	medianRevenue, _ := stats.Median(revenues)

	// A fully churned population has no active mean; the whole-population
	// mean stands in so has_high_charges stays evaluable.
	activeMean := meanCharge
	if len(activeCharges) > 0 {
		activeMean, _ = stats.Mean(activeCharges)
	}

	return scoring.PopulationStats{
		TotalCount:   len(records),
		ActiveCount:  len(records) - churned,
		ChurnedCount: churned,

		ActiveMeanMonthlyCharge: activeMean,

		MeanMonthlyCharge:   meanCharge,
		MedianMonthlyCharge: medianCharge,
		StdDevMonthlyCharge: stdDevCharge,
		MeanTenureMonths:    meanTenure,
		MedianTenureMonths:  medianTenure,
		MeanTotalRevenue:    meanRevenue,
		MedianTotalRevenue:  medianRevenue,

		ChurnRate: core.Percent(float64(churned), float64(len(records))),
	}, nil
}
