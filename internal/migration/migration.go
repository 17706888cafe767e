package migration

import (
	"context"
	"fmt"

	"churnscope/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every
// statement is idempotent, so re-running against an existing schema is a
// no-op.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSnapshotsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create snapshots table")
	}

	if err := r.createCustomersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create customers table")
	}

	if err := r.createRunManifestsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create run_manifests table")
	}

	if err := r.createSegmentReportsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create segment_reports table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createSnapshotsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			id UUID PRIMARY KEY,
			hash VARCHAR(64) NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createCustomersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS customers (
			snapshot_id UUID NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			customer_id VARCHAR(50) NOT NULL,
			tenure_months INTEGER NOT NULL,
			monthly_charge DECIMAL(10,2) NOT NULL,
			total_revenue DECIMAL(12,2) NOT NULL,
			contract_type VARCHAR(50) NOT NULL,
			payment_method VARCHAR(50) NOT NULL,
			num_services INTEGER NOT NULL DEFAULT 0,
			churned BOOLEAN NOT NULL,
			is_senior BOOLEAN NOT NULL DEFAULT false,
			has_partner BOOLEAN NOT NULL DEFAULT false,
			has_dependents BOOLEAN NOT NULL DEFAULT false,
			paperless_billing BOOLEAN NOT NULL DEFAULT false,
			PRIMARY KEY (snapshot_id, customer_id)
		)
	`)
	return err
}

func (r *MigrationRunner) createRunManifestsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_manifests (
			run_id UUID PRIMARY KEY,
			snapshot_id UUID NOT NULL,
			snapshot_hash VARCHAR(64) NOT NULL,
			config_hash VARCHAR(64) NOT NULL,
			variant VARCHAR(20) NOT NULL,
			code_version VARCHAR(20) NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			active_count INTEGER NOT NULL DEFAULT 0,
			churned_count INTEGER NOT NULL DEFAULT 0,
			quality_violations INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			table_hashes JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createSegmentReportsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS segment_reports (
			run_id UUID NOT NULL REFERENCES run_manifests(run_id) ON DELETE CASCADE,
			report_name VARCHAR(100) NOT NULL,
			position INTEGER NOT NULL,
			columns JSONB NOT NULL,
			rows JSONB NOT NULL,
			row_count INTEGER NOT NULL,
			table_hash VARCHAR(64) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (run_id, report_name)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		// Snapshot indexes
		"CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_customers_snapshot_id ON customers(snapshot_id)",

		// Run manifest indexes
		"CREATE INDEX IF NOT EXISTS idx_manifests_created_at ON run_manifests(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_manifests_fingerprint ON run_manifests(fingerprint)",
		"CREATE INDEX IF NOT EXISTS idx_manifests_snapshot_id ON run_manifests(snapshot_id)",
		"CREATE INDEX IF NOT EXISTS idx_manifests_variant ON run_manifests(variant)",

		// Report indexes
		"CREATE INDEX IF NOT EXISTS idx_reports_run_position ON segment_reports(run_id, position)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}
