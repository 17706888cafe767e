package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"churnscope/domain/core"
	"churnscope/domain/customer"
	"churnscope/internal/errors"
	"churnscope/ports"

	"github.com/montanaflynn/stats"
)

// decodeRecords runs the cleaning pass over the raw table: exact
// duplicate rows are dropped, blank or unparseable revenue cells take
// the population median, and anything that breaks the schema is recorded
// as a violation. Any violation rejects the whole file; the report still
// carries every offender so a bad file is fixed in one round.
func decodeRecords(raw *rawTable, mapping columnMap) ([]customer.Record, *ports.CleaningReport, error) {
	report := &ports.CleaningReport{RowsRead: len(raw.Rows)}

	rows := dropExactDuplicates(raw.Rows, report)
	median := revenueMedian(rows, mapping.totalRevenue)

	records := make([]customer.Record, 0, len(rows))
	for i, row := range rows {
		// Row numbers in violations are 1-based data rows, header excluded
		rec, ok := decodeRow(row, i+1, mapping, median, report)
		if ok {
			records = append(records, rec)
		}
	}
	report.RowsKept = len(records)

	if n := len(report.Violations); n > 0 {
		v := report.Violations[0]
		return nil, report, errors.SchemaViolationf(
			"%d rows failed schema validation, first: row %d column %s value %q: %s",
			n, v.Row, v.Column, v.Value, v.Reason)
	}
	return records, report, nil
}

// dropExactDuplicates removes rows that repeat an earlier row cell for
// cell, keeping the first occurrence
func dropExactDuplicates(rows [][]string, report *ports.CleaningReport) [][]string {
	seen := make(map[string]bool, len(rows))
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			report.DuplicatesDropped++
			continue
		}
		seen[key] = true
		kept = append(kept, row)
	}
	return kept
}

// revenueMedian computes the fill value for blank revenue cells from the
// rows that do parse
func revenueMedian(rows [][]string, col int) float64 {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, err := strconv.ParseFloat(row[col], 64); err == nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0
	}
	median, _ := stats.Median(values)
	return median
}

func decodeRow(row []string, rowNum int, mapping columnMap, median float64, report *ports.CleaningReport) (customer.Record, bool) {
	flag := func(column, value, reason string) {
		report.Violations = append(report.Violations, ports.RowViolation{
			Row: rowNum, Column: column, Value: value, Reason: reason,
		})
	}
	ok := true

	id := row[mapping.customerID]
	if id == "" {
		flag("customer_id", id, "customer_id is empty")
		ok = false
	}

	tenure, err := strconv.Atoi(row[mapping.tenure])
	if err != nil {
		flag("tenure_months", row[mapping.tenure], "not an integer")
		ok = false
	} else if tenure < 0 {
		flag("tenure_months", row[mapping.tenure], "negative tenure")
		ok = false
	}

	charge, err := strconv.ParseFloat(row[mapping.monthlyCharge], 64)
	if err != nil {
		flag("monthly_charge", row[mapping.monthlyCharge], "not a number")
		ok = false
	} else if charge < 0 {
		flag("monthly_charge", row[mapping.monthlyCharge], "negative charge")
		ok = false
	}

	revenue, err := strconv.ParseFloat(row[mapping.totalRevenue], 64)
	if err != nil {
		revenue = median
		report.BlankRevenueRows++
	} else if revenue < 0 {
		flag("total_revenue", row[mapping.totalRevenue], "negative revenue")
		ok = false
	}

	contract, err := customer.ParseContractType(row[mapping.contract])
	if err != nil {
		flag("contract_type", row[mapping.contract], err.Error())
		ok = false
	}

	payment, err := customer.ParsePaymentMethod(row[mapping.payment])
	if err != nil {
		flag("payment_method", row[mapping.payment], err.Error())
		ok = false
	}

	churned, err := parseYesNo(row[mapping.churned])
	if err != nil {
		flag("churned", row[mapping.churned], err.Error())
		ok = false
	}

	services, err := decodeServices(row, mapping)
	if err != nil {
		flag("num_services", row[mapping.numServices], err.Error())
		ok = false
	}

	if !ok {
		return customer.Record{}, false
	}

	return customer.Record{
		ID:               core.CustomerID(id),
		TenureMonths:     tenure,
		MonthlyCharge:    charge,
		TotalRevenue:     revenue,
		ContractType:     contract,
		PaymentMethod:    payment,
		NumServices:      services,
		Churned:          churned,
		IsSenior:         optionalFlag(row, mapping.senior),
		HasPartner:       optionalFlag(row, mapping.partner),
		HasDependents:    optionalFlag(row, mapping.dependents),
		PaperlessBilling: optionalFlag(row, mapping.paperless),
	}, true
}

// decodeServices prefers a pre-counted num_services column and falls
// back to counting "Yes" over the raw subscription columns
func decodeServices(row []string, mapping columnMap) (int, error) {
	if mapping.numServices >= 0 {
		n, err := strconv.Atoi(row[mapping.numServices])
		if err != nil {
			return 0, fmt.Errorf("not an integer")
		}
		if n < 0 || n > customer.MaxServices {
			return 0, fmt.Errorf("outside [0, %d]", customer.MaxServices)
		}
		return n, nil
	}

	count := 0
	for _, col := range mapping.services {
		if strings.EqualFold(row[col], "yes") {
			count++
		}
	}
	return count, nil
}

// parseYesNo maps the dataset's binary literals onto bool
func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "1", "true":
		return true, nil
	case "no", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("not a yes/no value")
}

// optionalFlag reads a boolean column that may be absent; unparseable
// cells read as false rather than rejecting the row
func optionalFlag(row []string, col int) bool {
	if col < 0 {
		return false
	}
	v, err := parseYesNo(row[col])
	return err == nil && v
}
