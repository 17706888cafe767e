package analysis

import (
	"fmt"
	"math"

	"churnscope/domain/customer"
)

// QualityChecker verifies the revenue identity: reported total revenue
// should approximate monthly charge times tenure. Drift beyond the
// tolerance is recorded per row; strict mode turns any drift into a
// pipeline rejection.
type QualityChecker struct {
	absTolerance float64
	relTolerance float64
	strict       bool
}

// NewQualityChecker builds a checker from the configured tolerances
func NewQualityChecker(absTolerance, relTolerance float64, strict bool) *QualityChecker {
	return &QualityChecker{absTolerance: absTolerance, relTolerance: relTolerance, strict: strict}
}

// QualityViolation records one row whose reported revenue drifted
type QualityViolation struct {
	CustomerID string  `json:"customer_id"`
	Expected   float64 `json:"expected"`
	Reported   float64 `json:"reported"`
	Drift      float64 `json:"drift"`
}

// QualityReport summarizes the identity pass over a snapshot
type QualityReport struct {
	Checked    int                `json:"checked"`
	Violations []QualityViolation `json:"violations"`
}

// ViolationCount returns how many rows drifted
func (r QualityReport) ViolationCount() int {
	return len(r.Violations)
}

// Check runs the identity over every record. Zero-tenure rows are exempt
// from the identity (a brand-new customer has no billing history to
// reconcile) but still flagged when they carry revenue.
func (c *QualityChecker) Check(records []customer.Record) (*QualityReport, error) {
	report := &QualityReport{Checked: len(records)}

	for _, rec := range records {
		expected := rec.MonthlyCharge * float64(rec.TenureMonths)

		if rec.TenureMonths == 0 {
			if rec.TotalRevenue > c.absTolerance {
				report.Violations = append(report.Violations, QualityViolation{
					CustomerID: rec.ID.String(),
					Expected:   0,
					Reported:   rec.TotalRevenue,
					Drift:      rec.TotalRevenue,
				})
			}
			continue
		}

		drift := math.Abs(rec.TotalRevenue - expected)
		allowed := math.Max(c.absTolerance, c.relTolerance*expected)
		if drift > allowed {
			report.Violations = append(report.Violations, QualityViolation{
				CustomerID: rec.ID.String(),
				Expected:   expected,
				Reported:   rec.TotalRevenue,
				Drift:      drift,
			})
		}
	}

	if c.strict && report.ViolationCount() > 0 {
		first := report.Violations[0]
		return report, fmt.Errorf("revenue identity failed for %d of %d rows, first offender %s (expected %.2f, reported %.2f)",
			report.ViolationCount(), report.Checked, first.CustomerID, first.Expected, first.Reported)
	}
	return report, nil
}
