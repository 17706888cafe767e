package run

import (
	"crypto/sha256"
	"fmt"

	"churnscope/domain/core"
	"churnscope/domain/scoring"
)

// Fingerprint captures every input that can influence pipeline output.
// Two runs with equal fingerprints must produce byte-identical report
// tables; the fingerprint is the replay contract.
type Fingerprint struct {
	SnapshotHash core.SnapshotHash `json:"snapshot_hash"`
	ConfigHash   core.ConfigHash   `json:"config_hash"`
	Variant      scoring.Variant   `json:"variant"`
	CodeVersion  string            `json:"code_version"`
	Fingerprint  core.Hash         `json:"fingerprint"` // Hash of all above
}

// NewFingerprint creates a fingerprint from determinism parameters
func NewFingerprint(snapshotHash core.SnapshotHash, configHash core.ConfigHash,
	variant scoring.Variant, codeVersion string) Fingerprint {

	fingerprint := computeFingerprint(snapshotHash, configHash, variant, codeVersion)

	return Fingerprint{
		SnapshotHash: snapshotHash,
		ConfigHash:   configHash,
		Variant:      variant,
		CodeVersion:  codeVersion,
		Fingerprint:  fingerprint,
	}
}

// computeFingerprint generates a deterministic hash from all determinism parameters
func computeFingerprint(snapshotHash core.SnapshotHash, configHash core.ConfigHash,
	variant scoring.Variant, codeVersion string) core.Hash {

	data := fmt.Sprintf("snapshot:%s|config:%s|variant:%s|code:%s",
		snapshotHash, configHash, variant, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}
