package run

import (
	"churnscope/domain/core"
	"churnscope/domain/scoring"
)

// Manifest is the complete specification of a pipeline run. It is built
// before any stage executes and finalized with outcome counts, and it is
// the truth source for replaying a run.
type Manifest struct {
	RunID        core.RunID        `json:"run_id"`
	SnapshotID   core.SnapshotID   `json:"snapshot_id"`
	SnapshotHash core.SnapshotHash `json:"snapshot_hash"`
	ConfigHash   core.ConfigHash   `json:"config_hash"`
	Variant      scoring.Variant   `json:"variant"`
	CodeVersion  string            `json:"code_version"`
	Fingerprint  Fingerprint       `json:"fingerprint"`
	CreatedAt    core.Timestamp    `json:"created_at"`

	// Outcome fields, filled when the run completes
	RowCount          int               `json:"row_count"`
	ActiveCount       int               `json:"active_count"`
	ChurnedCount      int               `json:"churned_count"`
	QualityViolations int               `json:"quality_violations"`
	DurationMs        int64             `json:"duration_ms"`
	TableHashes       map[string]string `json:"table_hashes,omitempty"`
}

// NewManifest creates a run manifest before stage execution
func NewManifest(
	runID core.RunID,
	snapshotID core.SnapshotID,
	snapshotHash core.SnapshotHash,
	configHash core.ConfigHash,
	variant scoring.Variant,
	codeVersion string,
	createdAt core.Timestamp,
) *Manifest {
	fingerprint := NewFingerprint(snapshotHash, configHash, variant, codeVersion)

	return &Manifest{
		RunID:        runID,
		SnapshotID:   snapshotID,
		SnapshotHash: snapshotHash,
		ConfigHash:   configHash,
		Variant:      variant,
		CodeVersion:  codeVersion,
		Fingerprint:  fingerprint,
		CreatedAt:    createdAt,
		TableHashes:  make(map[string]string),
	}
}

// RecordTable stores a report table's hash for replay comparison
func (m *Manifest) RecordTable(name string, hash core.TableHash) {
	if m.TableHashes == nil {
		m.TableHashes = make(map[string]string)
	}
	m.TableHashes[name] = hash.String()
}

// SameOutputs reports whether another run produced identical tables
func (m *Manifest) SameOutputs(other *Manifest) bool {
	if len(m.TableHashes) != len(other.TableHashes) {
		return false
	}
	for name, hash := range m.TableHashes {
		if other.TableHashes[name] != hash {
			return false
		}
	}
	return true
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewConfigError("run_manifest", "run_id cannot be empty")
	}
	if core.ID(m.SnapshotID).IsEmpty() {
		return core.NewConfigError("run_manifest", "snapshot_id cannot be empty")
	}
	if m.SnapshotHash == "" {
		return core.NewConfigError("run_manifest", "snapshot_hash cannot be empty")
	}
	if m.ConfigHash == "" {
		return core.NewConfigError("run_manifest", "config_hash cannot be empty")
	}
	if m.CodeVersion == "" {
		return core.NewConfigError("run_manifest", "code_version cannot be empty")
	}
	if _, err := scoring.ParseVariant(string(m.Variant)); err != nil {
		return err
	}
	return nil
}
