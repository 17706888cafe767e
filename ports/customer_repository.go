package ports

import (
	"context"

	"churnscope/domain/core"
	"churnscope/domain/customer"
)

// CustomerRepository defines the interface for snapshot persistence
type CustomerRepository interface {
	// SaveSnapshot persists a snapshot and all of its customer rows
	SaveSnapshot(ctx context.Context, snapshot *customer.Snapshot, createdAt core.Timestamp) error

	// GetSnapshot retrieves a snapshot with all rows by ID
	GetSnapshot(ctx context.Context, snapshotID core.SnapshotID) (*customer.Snapshot, error)

	// GetLatestSnapshot retrieves the most recently saved snapshot
	GetLatestSnapshot(ctx context.Context) (*customer.Snapshot, error)

	// ListSnapshots returns snapshot summaries, newest first
	ListSnapshots(ctx context.Context, limit int) ([]SnapshotSummary, error)
}

// SnapshotSummary is the list-view projection of a stored snapshot
type SnapshotSummary struct {
	ID        core.SnapshotID
	Hash      core.Hash
	RowCount  int
	CreatedAt core.Timestamp
}
