package report

// Report names in the emission catalogue. Export files are named
// <name>_<stamp>.csv; the Postgres report store and the HTTP surfaces key
// reports by these names.
const (
	ChurnSummary      = "churn_summary"
	SegmentRisk       = "segment_risk_analysis"
	ChurnDrivers      = "churn_drivers_summary"
	RevenueLoss       = "revenue_loss_by_contract"
	HighRiskCustomers = "high_risk_customers"
	RFMSegments       = "rfm_segments"
	CLVRankings       = "clv_rankings"
	CustomerExport    = "customer_export"
)

// Catalogue lists every report a pipeline run emits, in emission order
func Catalogue() []string {
	return []string{
		ChurnSummary,
		SegmentRisk,
		ChurnDrivers,
		RevenueLoss,
		HighRiskCustomers,
		RFMSegments,
		CLVRankings,
		CustomerExport,
	}
}

// IsKnown reports whether name belongs to the catalogue
func IsKnown(name string) bool {
	for _, n := range Catalogue() {
		if n == name {
			return true
		}
	}
	return false
}

// Bundle is the full output of one pipeline run: every catalogue report
// keyed by name, in catalogue order.
type Bundle struct {
	Tables map[string]*Table `json:"tables"`
}

// NewBundle allocates an empty bundle
func NewBundle() *Bundle {
	return &Bundle{Tables: make(map[string]*Table)}
}

// Add stores a table under its own name
func (b *Bundle) Add(t *Table) {
	b.Tables[t.Name] = t
}

// Get returns a table by name
func (b *Bundle) Get(name string) (*Table, bool) {
	t, ok := b.Tables[name]
	return t, ok
}

// Ordered returns the bundle's tables in catalogue order, skipping any
// report that was not produced.
func (b *Bundle) Ordered() []*Table {
	out := make([]*Table, 0, len(b.Tables))
	for _, name := range Catalogue() {
		if t, ok := b.Tables[name]; ok {
			out = append(out, t)
		}
	}
	return out
}
