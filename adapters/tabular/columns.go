package tabular

import (
	"fmt"
	"strings"

	"churnscope/internal/errors"
)

// serviceColumns are the raw telco subscription columns counted into
// num_services. A cell counts when it is literally "Yes"; the
// InternetService column's DSL/Fiber values deliberately do not count,
// matching the reference reports.
var serviceColumns = []string{
	"PhoneService",
	"InternetService",
	"OnlineSecurity",
	"OnlineBackup",
	"DeviceProtection",
	"TechSupport",
	"StreamingTV",
	"StreamingMovies",
}

// columnMap resolves logical fields to header positions, -1 when the
// column is absent. Both the raw telco export headers (customerID,
// MonthlyCharges, Churn, ...) and the canonical snake_case form are
// accepted.
type columnMap struct {
	customerID    int
	tenure        int
	monthlyCharge int
	totalRevenue  int
	contract      int
	payment       int
	churned       int

	// numServices is the pre-counted column; services are the raw
	// subscription columns counted when numServices is absent.
	numServices int
	services    []int

	senior     int
	partner    int
	dependents int
	paperless  int
}

// hasServiceCount reports whether the file carries any service signal
func (m columnMap) hasServiceCount() bool {
	return m.numServices >= 0 || len(m.services) > 0
}

// resolveColumns maps the header row onto the customer schema. Missing
// required columns reject the file before any row is decoded.
func resolveColumns(headers []string) (columnMap, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	find := func(names ...string) int {
		for _, name := range names {
			if i, ok := index[name]; ok {
				return i
			}
		}
		return -1
	}

	m := columnMap{
		customerID:    find("customer_id", "customerid"),
		tenure:        find("tenure_months", "tenure"),
		monthlyCharge: find("monthly_charge", "monthlycharges"),
		totalRevenue:  find("total_revenue", "totalcharges"),
		contract:      find("contract_type", "contract"),
		payment:       find("payment_method", "paymentmethod"),
		churned:       find("churned", "churn"),
		numServices:   find("num_services"),
		senior:        find("is_senior", "seniorcitizen"),
		partner:       find("has_partner", "partner"),
		dependents:    find("has_dependents", "dependents"),
		paperless:     find("paperless_billing", "paperlessbilling"),
	}
	for _, name := range serviceColumns {
		if i := find(strings.ToLower(name)); i >= 0 {
			m.services = append(m.services, i)
		}
	}

	var missing []string
	required := []struct {
		name string
		col  int
	}{
		{"customer_id", m.customerID},
		{"tenure_months", m.tenure},
		{"monthly_charge", m.monthlyCharge},
		{"total_revenue", m.totalRevenue},
		{"contract_type", m.contract},
		{"payment_method", m.payment},
		{"churned", m.churned},
	}
	for _, req := range required {
		if req.col < 0 {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return columnMap{}, errors.SchemaViolation(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}
	return m, nil
}
