package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"churnscope/domain/core"
	"churnscope/domain/report"
	"churnscope/internal/errors"
	"churnscope/ports"

	"github.com/jmoiron/sqlx"
)

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new rendered table repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &reportRepository{db: db}
}

// reportRow mirrors one segment_reports table row
type reportRow struct {
	RunID      string `db:"run_id"`
	ReportName string `db:"report_name"`
	Position   int    `db:"position"`
	Columns    []byte `db:"columns"`
	Rows       []byte `db:"rows"`
	RowCount   int    `db:"row_count"`
	TableHash  string `db:"table_hash"`
}

// SaveBundle persists every table of a run's report bundle in one
// transaction, in catalogue order
func (r *reportRepository) SaveBundle(ctx context.Context, runID core.RunID, bundle *report.Bundle) error {
	position := make(map[string]int, len(report.Catalogue()))
	for i, name := range report.Catalogue() {
		position[name] = i
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range bundle.Ordered() {
		columnsJSON, err := json.Marshal(table.Columns)
		if err != nil {
			return fmt.Errorf("failed to marshal %s columns: %w", table.Name, err)
		}
		rowsJSON, err := json.Marshal(table.Rows)
		if err != nil {
			return fmt.Errorf("failed to marshal %s rows: %w", table.Name, err)
		}

		row := reportRow{
			RunID:      runID.String(),
			ReportName: table.Name,
			Position:   position[table.Name],
			Columns:    columnsJSON,
			Rows:       rowsJSON,
			RowCount:   table.RowCount(),
			TableHash:  table.Hash().String(),
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO segment_reports (
				run_id, report_name, position, columns, rows, row_count, table_hash
			) VALUES (
				:run_id, :report_name, :position, :columns, :rows, :row_count, :table_hash
			)
			ON CONFLICT (run_id, report_name) DO UPDATE SET
				position = EXCLUDED.position,
				columns = EXCLUDED.columns,
				rows = EXCLUDED.rows,
				row_count = EXCLUDED.row_count,
				table_hash = EXCLUDED.table_hash
		`, row)
		if err != nil {
			return fmt.Errorf("failed to save report %s: %w", table.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report bundle: %w", err)
	}

	return nil
}

// GetTable retrieves one stored table of a run by report name
func (r *reportRepository) GetTable(ctx context.Context, runID core.RunID, name string) (*report.Table, error) {
	if !report.IsKnown(name) {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown report %q", name))
	}

	var row reportRow
	err := r.db.GetContext(ctx, &row, `
		SELECT run_id, report_name, position, columns, rows, row_count, table_hash
		FROM segment_reports
		WHERE run_id = $1 AND report_name = $2
	`, runID, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(fmt.Sprintf("report %s for run %s", name, runID))
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return row.toTable()
}

// ListTables returns summaries of a run's stored tables in catalogue order
func (r *reportRepository) ListTables(ctx context.Context, runID core.RunID) ([]ports.TableSummary, error) {
	var rows []reportRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, report_name, position, columns, rows, row_count, table_hash
		FROM segment_reports
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	summaries := make([]ports.TableSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, ports.TableSummary{
			Name:     row.ReportName,
			RowCount: row.RowCount,
			Hash:     core.Hash(row.TableHash),
		})
	}

	return summaries, nil
}

// toTable rebuilds the domain table and verifies its hash against the
// stored one. A mismatch means the stored cells were altered outside the
// pipeline.
func (r reportRow) toTable() (*report.Table, error) {
	var columns []string
	if err := json.Unmarshal(r.Columns, &columns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s columns: %w", r.ReportName, err)
	}
	var cells [][]string
	if err := json.Unmarshal(r.Rows, &cells); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s rows: %w", r.ReportName, err)
	}

	table := report.NewTable(r.ReportName, columns...)
	for _, row := range cells {
		if err := table.AddRow(row...); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("stored report %s is malformed", r.ReportName))
		}
	}

	if table.Hash().String() != r.TableHash {
		return nil, errors.StorageError(fmt.Sprintf(
			"report %s hash mismatch: stored %s, recomputed %s",
			r.ReportName, r.TableHash, table.Hash()))
	}

	return table, nil
}
