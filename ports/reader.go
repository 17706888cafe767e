package ports

import (
	"context"

	"churnscope/domain/core"
	"churnscope/domain/report"
	"churnscope/domain/run"
	"churnscope/domain/scoring"
)

// ReaderPort provides read-only access to completed runs for UI/API
// This ensures UI cannot modify stored runs or report tables
type ReaderPort interface {
	// Run queries (read-only)
	ListRuns(ctx context.Context, filters RunFilters) ([]RunSummary, error)
	GetRun(ctx context.Context, runID core.RunID) (*RunDetail, error)

	// Report queries (read-only)
	ListReports(ctx context.Context, runID core.RunID) ([]TableSummary, error)
	GetReport(ctx context.Context, runID core.RunID, name string) (*report.Table, error)
}

// RunFilters for querying runs
type RunFilters struct {
	Variant *scoring.Variant
	Limit   int
	Offset  int
}

// RunSummary is the list-view projection of a completed run
type RunSummary struct {
	ID           core.RunID
	Variant      scoring.Variant
	Fingerprint  core.Hash
	RowCount     int
	ChurnedCount int
	CreatedAt    core.Timestamp
}

// RunDetail pairs a manifest with the tables the run produced
type RunDetail struct {
	Manifest run.Manifest
	Tables   []TableSummary
}
