package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"churnscope/domain/core"
	"churnscope/domain/customer"
	"churnscope/internal/errors"
	"churnscope/ports"

	"github.com/jmoiron/sqlx"
)

// insertBatchSize bounds rows per INSERT so the statement stays well under
// lib/pq's 65535 bind-parameter limit at 13 parameters per row.
const insertBatchSize = 500

// defaultListLimit applies when a caller passes a non-positive limit
const defaultListLimit = 50

const insertCustomersSQL = `
	INSERT INTO customers (
		snapshot_id, customer_id, tenure_months, monthly_charge, total_revenue,
		contract_type, payment_method, num_services, churned,
		is_senior, has_partner, has_dependents, paperless_billing
	) VALUES (
		:snapshot_id, :customer_id, :tenure_months, :monthly_charge, :total_revenue,
		:contract_type, :payment_method, :num_services, :churned,
		:is_senior, :has_partner, :has_dependents, :paperless_billing
	)`

// customerRepository implements the CustomerRepository interface
type customerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new snapshot repository
func NewCustomerRepository(db *sqlx.DB) ports.CustomerRepository {
	return &customerRepository{db: db}
}

// customerRow mirrors one customers table row
type customerRow struct {
	SnapshotID       string  `db:"snapshot_id"`
	CustomerID       string  `db:"customer_id"`
	TenureMonths     int     `db:"tenure_months"`
	MonthlyCharge    float64 `db:"monthly_charge"`
	TotalRevenue     float64 `db:"total_revenue"`
	ContractType     string  `db:"contract_type"`
	PaymentMethod    string  `db:"payment_method"`
	NumServices      int     `db:"num_services"`
	Churned          bool    `db:"churned"`
	IsSenior         bool    `db:"is_senior"`
	HasPartner       bool    `db:"has_partner"`
	HasDependents    bool    `db:"has_dependents"`
	PaperlessBilling bool    `db:"paperless_billing"`
}

func newCustomerRow(snapshotID core.SnapshotID, rec customer.Record) customerRow {
	return customerRow{
		SnapshotID:       snapshotID.String(),
		CustomerID:       rec.ID.String(),
		TenureMonths:     rec.TenureMonths,
		MonthlyCharge:    rec.MonthlyCharge,
		TotalRevenue:     rec.TotalRevenue,
		ContractType:     rec.ContractType.String(),
		PaymentMethod:    rec.PaymentMethod.String(),
		NumServices:      rec.NumServices,
		Churned:          rec.Churned,
		IsSenior:         rec.IsSenior,
		HasPartner:       rec.HasPartner,
		HasDependents:    rec.HasDependents,
		PaperlessBilling: rec.PaperlessBilling,
	}
}

func (r customerRow) toRecord() customer.Record {
	return customer.Record{
		ID:               core.CustomerID(r.CustomerID),
		TenureMonths:     r.TenureMonths,
		MonthlyCharge:    r.MonthlyCharge,
		TotalRevenue:     r.TotalRevenue,
		ContractType:     customer.ContractType(r.ContractType),
		PaymentMethod:    customer.PaymentMethod(r.PaymentMethod),
		NumServices:      r.NumServices,
		Churned:          r.Churned,
		IsSenior:         r.IsSenior,
		HasPartner:       r.HasPartner,
		HasDependents:    r.HasDependents,
		PaperlessBilling: r.PaperlessBilling,
	}
}

// snapshotRow mirrors one snapshots metadata row
type snapshotRow struct {
	ID        string    `db:"id"`
	Hash      string    `db:"hash"`
	RowCount  int       `db:"row_count"`
	CreatedAt time.Time `db:"created_at"`
}

// saveSnapshotTx writes a snapshot's metadata and rows inside the given
// transaction. Existing rows for the same snapshot are replaced outright,
// never merged. onBatch, when non-nil, is called with the size of each
// completed insert batch.
func saveSnapshotTx(ctx context.Context, tx *sqlx.Tx, snapshot *customer.Snapshot,
	createdAt core.Timestamp, onBatch func(int)) error {

	_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, hash, row_count, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			hash = EXCLUDED.hash,
			row_count = EXCLUDED.row_count,
			created_at = EXCLUDED.created_at
	`, snapshot.ID, snapshot.Hash, snapshot.Size(), createdAt.Time())
	if err != nil {
		return fmt.Errorf("failed to save snapshot metadata: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE snapshot_id = $1`, snapshot.ID); err != nil {
		return fmt.Errorf("failed to clear stale snapshot rows: %w", err)
	}

	rows := make([]customerRow, 0, len(snapshot.Records))
	for _, rec := range snapshot.Records {
		rows = append(rows, newCustomerRow(snapshot.ID, rec))
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, insertCustomersSQL, rows[start:end]); err != nil {
			return fmt.Errorf("failed to insert customer rows %d-%d: %w", start+1, end, err)
		}
		if onBatch != nil {
			onBatch(end - start)
		}
	}

	return nil
}

// SaveSnapshot persists a snapshot and all of its customer rows in one
// transaction
func (r *customerRepository) SaveSnapshot(ctx context.Context, snapshot *customer.Snapshot, createdAt core.Timestamp) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveSnapshotTx(ctx, tx, snapshot, createdAt, nil); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// GetSnapshot retrieves a snapshot with all rows by ID
func (r *customerRepository) GetSnapshot(ctx context.Context, snapshotID core.SnapshotID) (*customer.Snapshot, error) {
	var meta snapshotRow
	err := r.db.GetContext(ctx, &meta, `
		SELECT id, hash, row_count, created_at FROM snapshots WHERE id = $1
	`, snapshotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(fmt.Sprintf("snapshot %s", snapshotID))
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return r.loadRows(ctx, meta)
}

// GetLatestSnapshot retrieves the most recently saved snapshot
func (r *customerRepository) GetLatestSnapshot(ctx context.Context) (*customer.Snapshot, error) {
	var meta snapshotRow
	err := r.db.GetContext(ctx, &meta, `
		SELECT id, hash, row_count, created_at
		FROM snapshots
		ORDER BY created_at DESC
		LIMIT 1
	`)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("latest snapshot")
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return r.loadRows(ctx, meta)
}

// ListSnapshots returns snapshot summaries, newest first
func (r *customerRepository) ListSnapshots(ctx context.Context, limit int) ([]ports.SnapshotSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var metas []snapshotRow
	err := r.db.SelectContext(ctx, &metas, `
		SELECT id, hash, row_count, created_at
		FROM snapshots
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	summaries := make([]ports.SnapshotSummary, 0, len(metas))
	for _, meta := range metas {
		summaries = append(summaries, ports.SnapshotSummary{
			ID:        core.SnapshotID(meta.ID),
			Hash:      core.Hash(meta.Hash),
			RowCount:  meta.RowCount,
			CreatedAt: core.NewTimestamp(meta.CreatedAt),
		})
	}

	return summaries, nil
}

// loadRows fetches a snapshot's customer rows and rebuilds the domain
// snapshot. The rebuilt fingerprint must match the stored one; a mismatch
// means the stored rows were altered outside the pipeline.
func (r *customerRepository) loadRows(ctx context.Context, meta snapshotRow) (*customer.Snapshot, error) {
	var rows []customerRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT snapshot_id, customer_id, tenure_months, monthly_charge, total_revenue,
		       contract_type, payment_method, num_services, churned,
		       is_senior, has_partner, has_dependents, paperless_billing
		FROM customers
		WHERE snapshot_id = $1
		ORDER BY customer_id
	`, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot rows: %w", err)
	}

	records := make([]customer.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}

	snapshot, err := customer.NewSnapshot(core.SnapshotID(meta.ID), records)
	if err != nil {
		return nil, errors.Wrap(err, "failed to rebuild stored snapshot")
	}

	if snapshot.Hash.String() != meta.Hash {
		return nil, errors.StorageError(fmt.Sprintf(
			"snapshot %s fingerprint mismatch: stored %s, recomputed %s",
			meta.ID, meta.Hash, snapshot.Hash))
	}

	return snapshot, nil
}
