package ports

import (
	"context"

	"churnscope/domain/core"
	"churnscope/domain/report"
)

// ReportSink writes rendered tables to an external destination such as
// a directory of CSV files or a spreadsheet workbook. Sinks never alter
// table content; the same bundle must produce byte-identical output.
type ReportSink interface {
	// WriteTable emits a single table stamped with the run time and
	// returns the destination it wrote
	WriteTable(ctx context.Context, table *report.Table, stamp core.Timestamp) (string, error)

	// WriteBundle emits every table of a bundle in catalogue order and
	// returns the destinations written
	WriteBundle(ctx context.Context, bundle *report.Bundle, stamp core.Timestamp) ([]string, error)
}
