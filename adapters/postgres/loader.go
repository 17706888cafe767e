package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"churnscope/domain/core"
	"churnscope/domain/customer"
	"churnscope/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/schollz/progressbar/v3"
)

// Loader bulk-inserts a snapshot into the customers table. The whole load
// runs inside one transaction, so a failed load leaves any previous
// content of the snapshot untouched. After commit the stored row count is
// verified against the source before the load is reported successful.
type Loader struct {
	db           *sqlx.DB
	showProgress bool
}

// NewLoader creates a bulk snapshot loader. showProgress draws a terminal
// progress bar, which CLI loads want and service contexts do not.
func NewLoader(db *sqlx.DB, showProgress bool) *Loader {
	return &Loader{db: db, showProgress: showProgress}
}

// LoadResult reports what a completed load did
type LoadResult struct {
	SnapshotID core.SnapshotID
	RowsLoaded int
	Replaced   bool
	DurationMs int64
}

// Load writes the snapshot, verifies the stored count, and reports
func (l *Loader) Load(ctx context.Context, snapshot *customer.Snapshot, createdAt core.Timestamp) (*LoadResult, error) {
	start := time.Now()

	var existing int
	if err := l.db.GetContext(ctx, &existing, `
		SELECT COUNT(*) FROM customers WHERE snapshot_id = $1
	`, snapshot.ID); err != nil {
		return nil, fmt.Errorf("failed to check existing rows: %w", err)
	}

	var onBatch func(int)
	if l.showProgress {
		bar := progressbar.Default(int64(snapshot.Size()))
		onBatch = func(n int) { _ = bar.Add(n) }
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveSnapshotTx(ctx, tx, snapshot, createdAt, onBatch); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit load: %w", err)
	}

	var stored int
	if err := l.db.GetContext(ctx, &stored, `
		SELECT COUNT(*) FROM customers WHERE snapshot_id = $1
	`, snapshot.ID); err != nil {
		return nil, fmt.Errorf("failed to verify load: %w", err)
	}
	if stored != snapshot.Size() {
		return nil, errors.StorageError(fmt.Sprintf(
			"load verification failed: stored %d rows, expected %d", stored, snapshot.Size()))
	}

	elapsed := time.Since(start).Milliseconds()
	log.Printf("[Loader] Snapshot %s: %d rows loaded in %dms (replaced %d)",
		snapshot.ID, stored, elapsed, existing)

	return &LoadResult{
		SnapshotID: snapshot.ID,
		RowsLoaded: stored,
		Replaced:   existing > 0,
		DurationMs: elapsed,
	}, nil
}
