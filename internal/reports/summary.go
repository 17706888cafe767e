package reports

import (
	"fmt"
	"strings"
	"time"

	"churnscope/domain/report"
	"churnscope/domain/run"
	"churnscope/internal/analysis"
)

// SummaryLimit caps how many rows each headline table in the executive
// summary shows
const SummaryLimit = 10

// ComposeSummary renders the executive summary as markdown: run
// provenance, population overview, then the headline rows of the key
// reports. The dashboard serves it as HTML; the export sink writes it
// next to the CSV tables.
func ComposeSummary(manifest *run.Manifest, result *analysis.Result, bundle *report.Bundle) string {
	var md strings.Builder

	md.WriteString("# Churn Analysis Summary\n\n")
	md.WriteString(fmt.Sprintf("Run `%s` over snapshot `%s` (%s variant), generated %s.\n\n",
		manifest.RunID, manifest.SnapshotID, manifest.Variant,
		manifest.CreatedAt.Time().Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("Fingerprint: `%s`\n\n", manifest.Fingerprint.Fingerprint))

	writePopulation(&md, result)
	writeHeadline(&md, bundle, report.SegmentRisk, "Highest-Exposure Segments",
		"tenure_group", "charge_category", "customer_count", "churn_rate", "lost_revenue", "priority")
	writeHeadline(&md, bundle, report.ChurnDrivers, "Strongest Churn Drivers",
		"driver", "churned_avg", "retained_avg", "gap", "churn_correlation")
	writeHeadline(&md, bundle, report.RevenueLoss, "Revenue Loss by Contract",
		"contract_type", "churned_count", "churn_rate", "lost_revenue", "recoverable_revenue")
	writeChargeSpread(&md, result)
	writeHeadline(&md, bundle, report.RFMSegments, "RFM Segment Mix",
		"segment", "customer_count", "churn_rate", "population_share")
	writeHeadline(&md, bundle, report.HighRiskCustomers, "Top At-Risk Customers",
		"rank", "customer_id", "risk_score", "risk_tier", "monthly_charge", "estimated_clv")

	if manifest.QualityViolations > 0 {
		md.WriteString(fmt.Sprintf("## Data Quality\n\n%d customers report revenue outside the reconciliation tolerance. See the customer export for details.\n\n",
			manifest.QualityViolations))
	}

	return md.String()
}

// ComposeStoredSummary renders the executive summary from persisted data
// alone: the manifest plus the stored report tables. It carries the same
// sections as ComposeSummary except the charge spread, which needs the
// per-customer profiles a stored run no longer has.
func ComposeStoredSummary(manifest *run.Manifest, bundle *report.Bundle) string {
	var md strings.Builder

	md.WriteString("# Churn Analysis Summary\n\n")
	md.WriteString(fmt.Sprintf("Run `%s` over snapshot `%s` (%s variant), generated %s.\n\n",
		manifest.RunID, manifest.SnapshotID, manifest.Variant,
		manifest.CreatedAt.Time().Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("Fingerprint: `%s`\n\n", manifest.Fingerprint.Fingerprint))

	writeStoredPopulation(&md, manifest, bundle)
	writeHeadline(&md, bundle, report.SegmentRisk, "Highest-Exposure Segments",
		"tenure_group", "charge_category", "customer_count", "churn_rate", "lost_revenue", "priority")
	writeHeadline(&md, bundle, report.ChurnDrivers, "Strongest Churn Drivers",
		"driver", "churned_avg", "retained_avg", "gap", "churn_correlation")
	writeHeadline(&md, bundle, report.RevenueLoss, "Revenue Loss by Contract",
		"contract_type", "churned_count", "churn_rate", "lost_revenue", "recoverable_revenue")
	writeHeadline(&md, bundle, report.RFMSegments, "RFM Segment Mix",
		"segment", "customer_count", "churn_rate", "population_share")
	writeHeadline(&md, bundle, report.HighRiskCustomers, "Top At-Risk Customers",
		"rank", "customer_id", "risk_score", "risk_tier", "monthly_charge", "estimated_clv")

	if manifest.QualityViolations > 0 {
		md.WriteString(fmt.Sprintf("## Data Quality\n\n%d customers report revenue outside the reconciliation tolerance. See the customer export for details.\n\n",
			manifest.QualityViolations))
	}

	return md.String()
}

func writePopulation(md *strings.Builder, result *analysis.Result) {
	pop := result.Population
	md.WriteString("## Population\n\n")
	md.WriteString(fmt.Sprintf("- Customers: %d (%d active, %d churned)\n",
		pop.TotalCount, pop.ActiveCount, pop.ChurnedCount))
	if pop.ChurnRate.Valid {
		md.WriteString(fmt.Sprintf("- Churn rate: %s%%\n", pop.ChurnRate.Render(2)))
	}
	md.WriteString(fmt.Sprintf("- Mean monthly charge: %.2f (active mean %.2f, median %.2f)\n",
		pop.MeanMonthlyCharge, pop.ActiveMeanMonthlyCharge, pop.MedianMonthlyCharge))
	md.WriteString(fmt.Sprintf("- Mean tenure: %.1f months\n", pop.MeanTenureMonths))
	md.WriteString(fmt.Sprintf("- Mean lifetime revenue: %.2f\n\n", pop.MeanTotalRevenue))
}

// writeStoredPopulation rebuilds the population section from the manifest
// counts and the one-row churn summary table
func writeStoredPopulation(md *strings.Builder, manifest *run.Manifest, bundle *report.Bundle) {
	md.WriteString("## Population\n\n")
	md.WriteString(fmt.Sprintf("- Customers: %d (%d active, %d churned)\n",
		manifest.RowCount, manifest.ActiveCount, manifest.ChurnedCount))

	table, ok := bundle.Get(report.ChurnSummary)
	if !ok || table.RowCount() == 0 {
		md.WriteString("\n")
		return
	}
	row := table.Rows[0]
	cell := func(col string) string {
		if i := table.Column(col); i >= 0 {
			return row[i]
		}
		return ""
	}
	if v := cell("churn_rate"); v != "" {
		md.WriteString(fmt.Sprintf("- Churn rate: %s%%\n", v))
	}
	if v := cell("avg_monthly_charge"); v != "" {
		md.WriteString(fmt.Sprintf("- Mean monthly charge: %s\n", v))
	}
	if v := cell("avg_tenure_months"); v != "" {
		md.WriteString(fmt.Sprintf("- Mean tenure: %s months\n", v))
	}
	if v := cell("lost_revenue"); v != "" {
		md.WriteString(fmt.Sprintf("- Revenue lost to churn: %s\n", v))
	}
	md.WriteString("\n")
}

// writeChargeSpread adds the monthly-charge quartiles per churn cohort
// and the tenure-charge relationship
func writeChargeSpread(md *strings.Builder, result *analysis.Result) {
	spread := analysis.AnalyzeDrivers(result.Profiles, result.Population.ActiveMeanMonthlyCharge)

	md.WriteString("## Charge Distribution\n\n")
	md.WriteString("| cohort | count | q1 | median | q3 |\n")
	md.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, q := range spread.Quartiles {
		md.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %.2f |\n",
			q.Cohort, q.Count, q.Q1, q.Median, q.Q3))
	}
	md.WriteString(fmt.Sprintf("\nTenure-charge correlation across the population: %.4f\n\n",
		spread.TenureChargeCorrelation))
}

// writeHeadline renders the first SummaryLimit rows of one report as a
// markdown table, projected onto the named columns. Reports missing from
// the bundle are skipped rather than failing the whole summary.
func writeHeadline(md *strings.Builder, bundle *report.Bundle, name, title string, columns ...string) {
	table, ok := bundle.Get(name)
	if !ok || table.RowCount() == 0 {
		return
	}

	indexes := make([]int, 0, len(columns))
	for _, col := range columns {
		if i := table.Column(col); i >= 0 {
			indexes = append(indexes, i)
		}
	}
	if len(indexes) == 0 {
		return
	}

	md.WriteString(fmt.Sprintf("## %s\n\n", title))
	md.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	md.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")

	limit := table.RowCount()
	if limit > SummaryLimit {
		limit = SummaryLimit
	}
	for _, row := range table.Rows[:limit] {
		cells := make([]string, 0, len(indexes))
		for _, i := range indexes {
			cells = append(cells, row[i])
		}
		md.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	md.WriteString("\n")
}
