package run

import (
	"testing"

	"churnscope/domain/core"
	"churnscope/domain/scoring"
)

// TestFingerprintDeterministic tests same inputs produce identical fingerprints
func TestFingerprintDeterministic(t *testing.T) {
	snapshotHash := core.SnapshotHash("test-snapshot")
	configHash := core.ConfigHash("test-config")
	variant := scoring.VariantSimple
	codeVersion := "1.0.0"

	// Generate fingerprint twice with identical inputs
	fp1 := NewFingerprint(snapshotHash, configHash, variant, codeVersion)
	fp2 := NewFingerprint(snapshotHash, configHash, variant, codeVersion)

	// Should be identical
	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}

	// Should contain all determinism parameters
	if fp1.SnapshotHash != snapshotHash {
		t.Errorf("SnapshotHash mismatch: %s vs %s", fp1.SnapshotHash, snapshotHash)
	}
	if fp1.ConfigHash != configHash {
		t.Errorf("ConfigHash mismatch: %s vs %s", fp1.ConfigHash, configHash)
	}
	if fp1.Variant != variant {
		t.Errorf("Variant mismatch: %s vs %s", fp1.Variant, variant)
	}
	if fp1.CodeVersion != codeVersion {
		t.Errorf("CodeVersion mismatch: %s vs %s", fp1.CodeVersion, codeVersion)
	}
}

// TestFingerprintUnique tests different inputs produce different fingerprints
func TestFingerprintUnique(t *testing.T) {
	base := NewFingerprint(
		core.SnapshotHash("test-snapshot"),
		core.ConfigHash("test-config"),
		scoring.VariantSimple,
		"1.0.0",
	)

	// Change each parameter and verify fingerprint changes
	testCases := []struct {
		name string
		fp   Fingerprint
	}{
		{
			name: "different snapshot",
			fp: NewFingerprint(core.SnapshotHash("other-snapshot"),
				core.ConfigHash("test-config"), scoring.VariantSimple, "1.0.0"),
		},
		{
			name: "different config",
			fp: NewFingerprint(core.SnapshotHash("test-snapshot"),
				core.ConfigHash("other-config"), scoring.VariantSimple, "1.0.0"),
		},
		{
			name: "different variant",
			fp: NewFingerprint(core.SnapshotHash("test-snapshot"),
				core.ConfigHash("test-config"), scoring.VariantComposite, "1.0.0"),
		},
		{
			name: "different code version",
			fp: NewFingerprint(core.SnapshotHash("test-snapshot"),
				core.ConfigHash("test-config"), scoring.VariantSimple, "1.0.1"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint unchanged for %s", tc.name)
			}
		})
	}
}

// TestManifestValidate tests completeness checks
func TestManifestValidate(t *testing.T) {
	manifest := NewManifest(
		core.RunID("run-1"),
		core.SnapshotID("snap-1"),
		core.SnapshotHash("hash-1"),
		core.ConfigHash("cfg-1"),
		scoring.VariantComposite,
		"1.0.0",
		core.Now(),
	)

	if err := manifest.Validate(); err != nil {
		t.Fatalf("Complete manifest rejected: %v", err)
	}

	broken := *manifest
	broken.RunID = ""
	if err := broken.Validate(); err == nil {
		t.Error("Missing run_id accepted")
	}

	broken = *manifest
	broken.SnapshotHash = ""
	if err := broken.Validate(); err == nil {
		t.Error("Missing snapshot_hash accepted")
	}

	broken = *manifest
	broken.Variant = "mystery"
	if err := broken.Validate(); err == nil {
		t.Error("Unknown variant accepted")
	}
}

// TestSameOutputs tests table hash comparison between runs
func TestSameOutputs(t *testing.T) {
	a := NewManifest(core.RunID("run-a"), core.SnapshotID("s"), core.SnapshotHash("h"),
		core.ConfigHash("c"), scoring.VariantSimple, "1.0.0", core.Now())
	b := NewManifest(core.RunID("run-b"), core.SnapshotID("s"), core.SnapshotHash("h"),
		core.ConfigHash("c"), scoring.VariantSimple, "1.0.0", core.Now())

	a.RecordTable("churn_summary", core.TableHash("t1"))
	b.RecordTable("churn_summary", core.TableHash("t1"))

	if !a.SameOutputs(b) {
		t.Error("Identical table hashes reported as different outputs")
	}

	b.RecordTable("segment_risk_analysis", core.TableHash("t2"))
	if a.SameOutputs(b) {
		t.Error("Different table counts reported as same outputs")
	}

	a.RecordTable("segment_risk_analysis", core.TableHash("t3"))
	if a.SameOutputs(b) {
		t.Error("Diverging table hash reported as same outputs")
	}
}
