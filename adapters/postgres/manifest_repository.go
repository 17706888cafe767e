package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"churnscope/domain/core"
	"churnscope/domain/run"
	"churnscope/domain/scoring"
	"churnscope/internal/errors"
	"churnscope/ports"

	"github.com/jmoiron/sqlx"
)

// manifestRepository implements the ManifestRepository interface
type manifestRepository struct {
	db *sqlx.DB
}

// NewManifestRepository creates a new run manifest repository
func NewManifestRepository(db *sqlx.DB) ports.ManifestRepository {
	return &manifestRepository{db: db}
}

// manifestRow mirrors one run_manifests table row
type manifestRow struct {
	RunID             string    `db:"run_id"`
	SnapshotID        string    `db:"snapshot_id"`
	SnapshotHash      string    `db:"snapshot_hash"`
	ConfigHash        string    `db:"config_hash"`
	Variant           string    `db:"variant"`
	CodeVersion       string    `db:"code_version"`
	Fingerprint       string    `db:"fingerprint"`
	RowCount          int       `db:"row_count"`
	ActiveCount       int       `db:"active_count"`
	ChurnedCount      int       `db:"churned_count"`
	QualityViolations int       `db:"quality_violations"`
	DurationMs        int64     `db:"duration_ms"`
	TableHashes       []byte    `db:"table_hashes"`
	CreatedAt         time.Time `db:"created_at"`
}

// SaveManifest persists a completed run manifest. Saving the same run
// again overwrites its outcome fields, so finalizing a run twice is safe.
func (r *manifestRepository) SaveManifest(ctx context.Context, manifest *run.Manifest) error {
	if err := manifest.Validate(); err != nil {
		return errors.Wrap(err, "refusing to save incomplete manifest")
	}

	hashesJSON, err := json.Marshal(manifest.TableHashes)
	if err != nil {
		return fmt.Errorf("failed to marshal table hashes: %w", err)
	}

	row := manifestRow{
		RunID:             manifest.RunID.String(),
		SnapshotID:        manifest.SnapshotID.String(),
		SnapshotHash:      manifest.SnapshotHash.String(),
		ConfigHash:        manifest.ConfigHash.String(),
		Variant:           string(manifest.Variant),
		CodeVersion:       manifest.CodeVersion,
		Fingerprint:       manifest.Fingerprint.Fingerprint.String(),
		RowCount:          manifest.RowCount,
		ActiveCount:       manifest.ActiveCount,
		ChurnedCount:      manifest.ChurnedCount,
		QualityViolations: manifest.QualityViolations,
		DurationMs:        manifest.DurationMs,
		TableHashes:       hashesJSON,
		CreatedAt:         manifest.CreatedAt.Time(),
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO run_manifests (
			run_id, snapshot_id, snapshot_hash, config_hash, variant,
			code_version, fingerprint, row_count, active_count, churned_count,
			quality_violations, duration_ms, table_hashes, created_at
		) VALUES (
			:run_id, :snapshot_id, :snapshot_hash, :config_hash, :variant,
			:code_version, :fingerprint, :row_count, :active_count, :churned_count,
			:quality_violations, :duration_ms, :table_hashes, :created_at
		)
		ON CONFLICT (run_id) DO UPDATE SET
			row_count = EXCLUDED.row_count,
			active_count = EXCLUDED.active_count,
			churned_count = EXCLUDED.churned_count,
			quality_violations = EXCLUDED.quality_violations,
			duration_ms = EXCLUDED.duration_ms,
			table_hashes = EXCLUDED.table_hashes
	`, row)
	if err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	return nil
}

// GetManifest retrieves a manifest by run ID
func (r *manifestRepository) GetManifest(ctx context.Context, runID core.RunID) (*run.Manifest, error) {
	var row manifestRow
	err := r.db.GetContext(ctx, &row, `
		SELECT run_id, snapshot_id, snapshot_hash, config_hash, variant,
		       code_version, fingerprint, row_count, active_count, churned_count,
		       quality_violations, duration_ms, table_hashes, created_at
		FROM run_manifests
		WHERE run_id = $1
	`, runID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(fmt.Sprintf("run %s", runID))
		}
		return nil, fmt.Errorf("failed to get manifest: %w", err)
	}

	return row.toManifest()
}

// ListManifests returns manifests, newest first
func (r *manifestRepository) ListManifests(ctx context.Context, limit int) ([]*run.Manifest, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []manifestRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, snapshot_id, snapshot_hash, config_hash, variant,
		       code_version, fingerprint, row_count, active_count, churned_count,
		       quality_violations, duration_ms, table_hashes, created_at
		FROM run_manifests
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}

	manifests := make([]*run.Manifest, 0, len(rows))
	for _, row := range rows {
		manifest, err := row.toManifest()
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, manifest)
	}

	return manifests, nil
}

// FindByFingerprint returns the most recent manifest whose run fingerprint
// matches
func (r *manifestRepository) FindByFingerprint(ctx context.Context, fingerprint core.Hash) (*run.Manifest, error) {
	var row manifestRow
	err := r.db.GetContext(ctx, &row, `
		SELECT run_id, snapshot_id, snapshot_hash, config_hash, variant,
		       code_version, fingerprint, row_count, active_count, churned_count,
		       quality_violations, duration_ms, table_hashes, created_at
		FROM run_manifests
		WHERE fingerprint = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, fingerprint)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(fmt.Sprintf("run with fingerprint %s", fingerprint))
		}
		return nil, fmt.Errorf("failed to find manifest by fingerprint: %w", err)
	}

	return row.toManifest()
}

// toManifest rebuilds the domain manifest. The fingerprint is recomputed
// from the stored inputs and must match the stored value; a mismatch means
// the row was altered outside the pipeline.
func (r manifestRow) toManifest() (*run.Manifest, error) {
	manifest := run.NewManifest(
		core.RunID(r.RunID),
		core.SnapshotID(r.SnapshotID),
		core.SnapshotHash(r.SnapshotHash),
		core.ConfigHash(r.ConfigHash),
		scoring.Variant(r.Variant),
		r.CodeVersion,
		core.NewTimestamp(r.CreatedAt),
	)

	if manifest.Fingerprint.Fingerprint.String() != r.Fingerprint {
		return nil, errors.StorageError(fmt.Sprintf(
			"run %s fingerprint mismatch: stored %s, recomputed %s",
			r.RunID, r.Fingerprint, manifest.Fingerprint.Fingerprint))
	}

	manifest.RowCount = r.RowCount
	manifest.ActiveCount = r.ActiveCount
	manifest.ChurnedCount = r.ChurnedCount
	manifest.QualityViolations = r.QualityViolations
	manifest.DurationMs = r.DurationMs

	if len(r.TableHashes) > 0 {
		if err := json.Unmarshal(r.TableHashes, &manifest.TableHashes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal table hashes: %w", err)
		}
	}

	return manifest, nil
}
