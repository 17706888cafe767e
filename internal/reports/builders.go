package reports

import (
	"context"
	"sort"
	"strings"

	"churnscope/domain/core"
	"churnscope/domain/report"
	"churnscope/domain/scoring"
	"churnscope/domain/segment"
	"churnscope/internal/analysis"
	"churnscope/internal/errors"

	"golang.org/x/sync/errgroup"
)

// Builders renders the report catalogue from one analysis result. Each
// report is a pure function of the result, so the builders run fully in
// parallel against the same read-only profiles.
type Builders struct {
	aggregator  *analysis.Aggregator
	rules       scoring.SegmentRules
	topN        int
	decileCount int
}

// NewBuilders wires the report catalogue
func NewBuilders(aggregator *analysis.Aggregator, rules scoring.SegmentRules, topN, decileCount int) *Builders {
	return &Builders{
		aggregator:  aggregator,
		rules:       rules,
		topN:        topN,
		decileCount: decileCount,
	}
}

// BuildAll renders every catalogue report. Builders run concurrently;
// the bundle is assembled after all of them finish so output never
// depends on goroutine scheduling.
func (b *Builders) BuildAll(ctx context.Context, result *analysis.Result) (*report.Bundle, error) {
	builds := []func(*analysis.Result) (*report.Table, error){
		b.buildChurnSummary,
		b.buildSegmentRisk,
		b.buildDrivers,
		b.buildRevenueLoss,
		b.buildHighRisk,
		b.buildRFMSegments,
		b.buildCLVRankings,
		b.buildCustomerExport,
	}

	tables := make([]*report.Table, len(builds))
	g, _ := errgroup.WithContext(ctx)
	for i, build := range builds {
		i, build := i, build
		g.Go(func() error {
			table, err := build(result)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "report build failed")
	}

	bundle := report.NewBundle()
	for _, table := range tables {
		bundle.Add(table)
	}
	return bundle, nil
}

// buildChurnSummary is the one-row headline: population totals and the
// overall churn hit.
func (b *Builders) buildChurnSummary(result *analysis.Result) (*report.Table, error) {
	pop := result.Population

	totalRevenue, lostRevenue := 0.0, 0.0
	for _, p := range result.Profiles {
		totalRevenue += p.TotalRevenue
		if p.Churned {
			lostRevenue += p.TotalRevenue
		}
	}

	table := report.NewTable(report.ChurnSummary,
		"total_customers", "active_customers", "churned_customers", "churn_rate",
		"total_revenue", "lost_revenue", "recoverable_revenue",
		"avg_monthly_charge", "avg_tenure_months")

	table.MustAddRow(
		report.Count(pop.TotalCount), report.Count(pop.ActiveCount), report.Count(pop.ChurnedCount),
		report.RateCell(pop.ChurnRate),
		report.Money(totalRevenue), report.Money(lostRevenue),
		report.Money(lostRevenue*b.aggregator.RecoveryFraction()),
		report.Money(pop.MeanMonthlyCharge), report.Money(pop.MeanTenureMonths))
	return table, nil
}

// buildSegmentRisk is the core BI table: churn exposure per tenure
// bucket crossed with charge category.
func (b *Builders) buildSegmentRisk(result *analysis.Result) (*report.Table, error) {
	aggs, err := b.aggregator.Aggregate(result.Profiles, segment.GroupingSpec{
		Name:       report.SegmentRisk,
		Dimensions: []segment.Dimension{segment.DimTenureGroup, segment.DimChargeCategory},
	})
	if err != nil {
		return nil, err
	}

	table := report.NewTable(report.SegmentRisk,
		"tenure_group", "charge_category", "customer_count", "churned_count",
		"churn_rate", "total_revenue", "avg_revenue", "avg_monthly_charge",
		"lost_revenue", "recoverable_revenue", "composite_score", "priority")

	for _, a := range aggs {
		table.MustAddRow(
			a.Key[0], a.Key[1],
			report.Count(a.Count), report.Count(a.Churned),
			report.RateCell(a.ChurnRate),
			report.Money(a.TotalRevenue), report.Money(a.AvgRevenue), report.Money(a.AvgMonthlyCharge),
			report.Money(a.LostRevenue), report.Money(a.RecoverableRevenue),
			report.Score(a.CompositeScore), a.Priority)
	}
	return table, nil
}

// buildDrivers compares every scoring attribute across the churn split,
// strongest separation first
func (b *Builders) buildDrivers(result *analysis.Result) (*report.Table, error) {
	driverAnalysis := analysis.AnalyzeDrivers(result.Profiles, result.Population.ActiveMeanMonthlyCharge)

	table := report.NewTable(report.ChurnDrivers,
		"driver", "churned_avg", "retained_avg", "gap", "churn_correlation", "p_value")

	for _, d := range driverAnalysis.Drivers {
		table.MustAddRow(
			d.Feature,
			d.ChurnedMean.Render(4), d.RetainedMean.Render(4), d.Gap.Render(4),
			report.Score(d.Correlation), report.Score(d.PValue))
	}
	return table, nil
}

// buildRevenueLoss totals the churn hit per contract type
func (b *Builders) buildRevenueLoss(result *analysis.Result) (*report.Table, error) {
	aggs, err := b.aggregator.Aggregate(result.Profiles, segment.GroupingSpec{
		Name:       report.RevenueLoss,
		Dimensions: []segment.Dimension{segment.DimContractType},
	})
	if err != nil {
		return nil, err
	}

	table := report.NewTable(report.RevenueLoss,
		"contract_type", "customer_count", "churned_count", "churn_rate",
		"total_revenue", "lost_revenue", "recoverable_revenue",
		"avg_monthly_charge", "priority")

	for _, a := range aggs {
		table.MustAddRow(
			a.Key[0],
			report.Count(a.Count), report.Count(a.Churned), report.RateCell(a.ChurnRate),
			report.Money(a.TotalRevenue), report.Money(a.LostRevenue), report.Money(a.RecoverableRevenue),
			report.Money(a.AvgMonthlyCharge), a.Priority)
	}
	return table, nil
}

// buildHighRisk lists the top-N customers under the canonical risk order
func (b *Builders) buildHighRisk(result *analysis.Result) (*report.Table, error) {
	top := analysis.TopNByRisk(result.Profiles, b.topN)

	table := report.NewTable(report.HighRiskCustomers,
		"rank", "customer_id", "risk_score", "risk_tier", "churned",
		"tenure_months", "monthly_charge", "contract_type", "payment_method",
		"num_services", "rfm_segment", "estimated_clv", "triggered")

	for _, row := range top {
		table.MustAddRow(
			report.Count(row.Rank), row.Customer.ID.String(),
			report.Score(row.Risk.Score), row.Risk.Tier, report.Flag(row.Customer.Churned),
			report.Count(row.Customer.TenureMonths), report.Money(row.Customer.MonthlyCharge),
			string(row.Customer.ContractType), string(row.Customer.PaymentMethod),
			report.Count(row.Customer.NumServices), row.Segment,
			report.Money(row.CLV.Value), joinIndicators(row.Risk.Triggered))
	}
	return table, nil
}

// buildRFMSegments reduces the population per RFM segment, ordered by
// the rule taxonomy with Others last so the report reads top-down from
// best to lost.
func (b *Builders) buildRFMSegments(result *analysis.Result) (*report.Table, error) {
	type rfmAccumulator struct {
		count     int
		churned   int
		recency   int
		frequency int
		monetary  int
		revenue   float64
	}
	groups := make(map[string]*rfmAccumulator)
	for _, p := range result.Profiles {
		acc, ok := groups[p.RFM.Segment]
		if !ok {
			acc = &rfmAccumulator{}
			groups[p.RFM.Segment] = acc
		}
		acc.count++
		if p.Churned {
			acc.churned++
		}
		acc.recency += p.RFM.Recency
		acc.frequency += p.RFM.Frequency
		acc.monetary += p.RFM.Monetary
		acc.revenue += p.TotalRevenue
	}

	table := report.NewTable(report.RFMSegments,
		"segment", "customer_count", "churned_count", "churn_rate",
		"avg_recency", "avg_frequency", "avg_monetary",
		"total_revenue", "avg_revenue", "population_share")

	total := len(result.Profiles)
	for _, name := range b.rules.SegmentNames() {
		acc, ok := groups[name]
		if !ok {
			continue
		}
		n := float64(acc.count)
		table.MustAddRow(
			name,
			report.Count(acc.count), report.Count(acc.churned),
			report.RateCell(core.Percent(float64(acc.churned), n)),
			report.Money(float64(acc.recency)/n), report.Money(float64(acc.frequency)/n), report.Money(float64(acc.monetary)/n),
			report.Money(acc.revenue), report.Money(acc.revenue/n),
			report.RateCell(core.Percent(n, float64(total))))
	}
	return table, nil
}

// buildCLVRankings orders the population by estimated remaining value
func (b *Builders) buildCLVRankings(result *analysis.Result) (*report.Table, error) {
	ranked := analysis.RankByCLV(result.Profiles)

	table := report.NewTable(report.CLVRankings,
		"rank", "value_rank", "customer_id", "monthly_charge", "tenure_months",
		"contract_type", "expected_lifetime_months", "churn_probability",
		"estimated_clv", "risk_tier", "churned")

	for _, row := range ranked {
		table.MustAddRow(
			report.Count(row.Rank), report.Count(row.DenseRnk), row.Customer.ID.String(),
			report.Money(row.Customer.MonthlyCharge), report.Count(row.Customer.TenureMonths),
			string(row.Customer.ContractType), report.Count(row.CLV.ExpectedLifetimeMonths),
			report.Score(row.CLV.ChurnProbability), report.Money(row.CLV.Value),
			row.Risk.Tier, report.Flag(row.Customer.Churned))
	}
	return table, nil
}

// buildCustomerExport is the full per-customer matrix, one row per
// customer ordered by ID so diffs between runs line up.
func (b *Builders) buildCustomerExport(result *analysis.Result) (*report.Table, error) {
	deciles := make(map[core.CustomerID]int, len(result.Profiles))
	for _, row := range analysis.RiskDeciles(result.Profiles, b.decileCount) {
		deciles[row.Customer.ID] = row.Decile
	}

	ordered := make([]analysis.Profile, len(result.Profiles))
	copy(ordered, result.Profiles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	table := report.NewTable(report.CustomerExport,
		"customer_id", "tenure_months", "tenure_group", "monthly_charge", "charge_category",
		"total_revenue", "contract_type", "payment_method", "num_services", "family_size",
		"is_senior", "has_partner", "has_dependents", "paperless_billing",
		"is_new_customer", "is_long_term", "is_monthly_contract", "uses_manual_payment",
		"charge_ratio", "revenue_estimate", "churned",
		"risk_score", "risk_tier", "rfm_code", "rfm_segment", "estimated_clv", "risk_decile")

	for _, p := range ordered {
		table.MustAddRow(
			p.ID.String(), report.Count(p.TenureMonths), p.TenureGroup,
			report.Money(p.MonthlyCharge), p.ChargeCategory,
			report.Money(p.TotalRevenue), string(p.ContractType), string(p.PaymentMethod),
			report.Count(p.NumServices), report.Count(p.FamilySize),
			report.Flag(p.IsSenior), report.Flag(p.HasPartner), report.Flag(p.HasDependents), report.Flag(p.PaperlessBilling),
			report.Flag(p.IsNewCustomer), report.Flag(p.IsLongTerm), report.Flag(p.IsMonthlyContract), report.Flag(p.UsesManualPayment),
			report.Score(p.ChargeRatio), report.Money(p.RevenueEstimate), report.Flag(p.Churned),
			report.Score(p.Risk.Score), p.Risk.Tier, p.RFM.Code, p.RFM.Segment,
			report.Money(p.CLV.Value), report.Count(deciles[p.ID]))
	}
	return table, nil
}

func joinIndicators(triggered []scoring.Indicator) string {
	parts := make([]string, 0, len(triggered))
	for _, ind := range triggered {
		parts = append(parts, string(ind))
	}
	return strings.Join(parts, ";")
}
