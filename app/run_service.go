package app

import (
	"context"
	"fmt"

	"churnscope/domain/core"
	"churnscope/domain/customer"
	"churnscope/internal/errors"
	"churnscope/ports"
)

// RunService executes the pipeline against a stored snapshot and persists
// the outcome: manifest plus every report table. Before persisting it
// checks the fingerprint against prior runs; a prior run with the same
// fingerprint must have produced identical table hashes, anything else is
// a determinism breach worth failing loudly over.
type RunService struct {
	pipeline  *PipelineService
	customers ports.CustomerRepository
	manifests ports.ManifestRepository
	reports   ports.ReportRepository
}

// NewRunService creates a persisted-run service
func NewRunService(
	pipeline *PipelineService,
	customers ports.CustomerRepository,
	manifests ports.ManifestRepository,
	reports ports.ReportRepository,
) *RunService {
	return &RunService{
		pipeline:  pipeline,
		customers: customers,
		manifests: manifests,
		reports:   reports,
	}
}

// TriggerRequest selects the snapshot to analyze
type TriggerRequest struct {
	SnapshotID core.SnapshotID // empty selects the latest stored snapshot
}

// TriggerResult pairs the run output with replay information
type TriggerResult struct {
	*RunResult

	// ReplayOf names the earlier run that carried the same fingerprint,
	// empty for a first-time fingerprint
	ReplayOf core.RunID
}

// TriggerRun loads the snapshot, executes the pipeline, verifies replay
// consistency, and persists manifest and reports
func (s *RunService) TriggerRun(ctx context.Context, req TriggerRequest) (*TriggerResult, error) {
	snapshot, err := s.loadSnapshot(ctx, req.SnapshotID)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Execute(ctx, snapshot, RunOptions{})
	if err != nil {
		return nil, err
	}

	replayOf, err := s.verifyReplay(ctx, result)
	if err != nil {
		return nil, err
	}

	if err := s.manifests.SaveManifest(ctx, result.Manifest); err != nil {
		return nil, errors.Wrap(err, "failed to persist run manifest")
	}
	if err := s.reports.SaveBundle(ctx, result.Manifest.RunID, result.Bundle); err != nil {
		return nil, errors.Wrap(err, "failed to persist report bundle")
	}

	return &TriggerResult{RunResult: result, ReplayOf: replayOf}, nil
}

func (s *RunService) loadSnapshot(ctx context.Context, id core.SnapshotID) (*customer.Snapshot, error) {
	if id == "" {
		return s.customers.GetLatestSnapshot(ctx)
	}
	return s.customers.GetSnapshot(ctx, id)
}

// verifyReplay compares this run against the most recent prior run with
// the same fingerprint. Matching fingerprints with diverging table hashes
// mean the pipeline is no longer deterministic.
func (s *RunService) verifyReplay(ctx context.Context, result *RunResult) (core.RunID, error) {
	prior, err := s.manifests.FindByFingerprint(ctx, result.Manifest.Fingerprint.Fingerprint)
	if err != nil {
		if errors.GetCode(err) == errors.CodeNotFound {
			return "", nil
		}
		return "", errors.Wrap(err, "failed to check prior runs")
	}

	if !result.Manifest.SameOutputs(prior) {
		return "", errors.StorageError(fmt.Sprintf(
			"run %s reproduced fingerprint %s of run %s with different table hashes",
			result.Manifest.RunID, result.Manifest.Fingerprint.Fingerprint, prior.RunID))
	}

	return prior.RunID, nil
}
