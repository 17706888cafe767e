package ports

import (
	"context"

	"churnscope/domain/core"
	"churnscope/domain/report"
)

// ReportRepository defines the interface for rendered table persistence
type ReportRepository interface {
	// SaveBundle persists every table of a run's report bundle
	SaveBundle(ctx context.Context, runID core.RunID, bundle *report.Bundle) error

	// GetTable retrieves one stored table of a run by report name
	GetTable(ctx context.Context, runID core.RunID, name string) (*report.Table, error)

	// ListTables returns summaries of a run's stored tables in
	// catalogue order
	ListTables(ctx context.Context, runID core.RunID) ([]TableSummary, error)
}

// TableSummary is the list-view projection of a stored report table
type TableSummary struct {
	Name     string
	RowCount int
	Hash     core.Hash
}
