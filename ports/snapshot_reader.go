package ports

import (
	"context"

	"churnscope/domain/customer"
)

// SnapshotReader loads customer rows from an external tabular source,
// cleans them, and returns an immutable snapshot. Implementations must
// reject malformed rows before any snapshot is produced.
type SnapshotReader interface {
	// ReadSnapshot performs the full load-clean-validate pass
	ReadSnapshot(ctx context.Context) (*customer.Snapshot, *CleaningReport, error)
}

// RowViolation records a single rejected or repaired source row
type RowViolation struct {
	Row    int
	Column string
	Value  string
	Reason string
}

// CleaningReport summarizes what the reader did to the raw source
type CleaningReport struct {
	RowsRead          int
	RowsKept          int
	DuplicatesDropped int
	BlankRevenueRows  int
	Violations        []RowViolation
}
