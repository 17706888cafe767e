package app

import (
	"context"
	"log"
	"time"

	"churnscope/domain/core"
	"churnscope/domain/customer"
	"churnscope/domain/report"
	"churnscope/domain/run"
	"churnscope/domain/scoring"
	"churnscope/internal"
	"churnscope/internal/analysis"
	"churnscope/internal/config"
	"churnscope/internal/errors"
	"churnscope/internal/reports"
)

// CodeVersion pins the analysis code line into every run fingerprint.
// Bump it whenever a change can alter report bytes for the same snapshot
// and configuration.
const CodeVersion = "1.0.0"

// PipelineService executes the full analysis over one snapshot:
// derivation, scoring, quality, aggregation, and report building. It is
// pure compute; persistence and export are separate services.
type PipelineService struct {
	cfg *config.Config
}

// NewPipelineService creates a pipeline service
func NewPipelineService(cfg *config.Config) *PipelineService {
	return &PipelineService{cfg: cfg}
}

// RunOptions carries the per-run inputs that are not configuration
type RunOptions struct {
	RunID core.RunID     // generated when empty
	Now   core.Timestamp // run clock, wall clock when zero
}

// RunResult is the complete output of one pipeline run
type RunResult struct {
	Manifest *run.Manifest
	Analysis *analysis.Result
	Quality  *analysis.QualityReport
	Bundle   *report.Bundle
	Summary  string
}

// Execute runs every stage over the snapshot and returns the finalized
// manifest alongside the report bundle. Same snapshot, same configuration,
// same code version: identical table bytes, whatever the run ID or clock.
func (s *PipelineService) Execute(ctx context.Context, snapshot *customer.Snapshot, opts RunOptions) (*RunResult, error) {
	start := time.Now()

	runID := opts.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}
	now := opts.Now
	if now.IsZero() {
		now = core.Now()
	}

	analyzer, err := s.buildAnalyzer()
	if err != nil {
		return nil, err
	}

	manifest := run.NewManifest(
		runID,
		snapshot.ID,
		snapshot.Hash,
		core.ComputeConfigHash(s.cfg.Settings()),
		analyzer.Variant(),
		CodeVersion,
		now,
	)

	stageStart := time.Now()
	result, err := analyzer.Analyze(snapshot)
	if err != nil {
		return nil, errors.Wrap(err, "analysis failed")
	}
	internal.DefaultLogger.Debug("[Pipeline] Derivation and scoring: %d profiles in %v",
		len(result.Profiles), time.Since(stageStart))

	checker := analysis.NewQualityChecker(
		s.cfg.Pipeline.RevenueAbsTolerance,
		s.cfg.Pipeline.RevenueRelTolerance,
		s.cfg.Pipeline.StrictQuality,
	)
	quality, err := checker.Check(snapshot.Records)
	if err != nil {
		return nil, errors.Wrap(err, "quality gate failed")
	}

	aggregator, err := analysis.NewAggregator(s.cfg.Pipeline.RecoveryFraction, s.cfg.PriorityPolicy())
	if err != nil {
		return nil, err
	}

	stageStart = time.Now()
	builders := reports.NewBuilders(aggregator, scoring.DefaultSegmentRules(),
		s.cfg.Scoring.TopN, s.cfg.Scoring.DecileCount)
	bundle, err := builders.BuildAll(ctx, result)
	if err != nil {
		return nil, err
	}
	internal.DefaultLogger.Debug("[Pipeline] Report building: %d tables in %v",
		len(bundle.Tables), time.Since(stageStart))

	manifest.RowCount = snapshot.Size()
	manifest.ActiveCount = snapshot.ActiveCount()
	manifest.ChurnedCount = snapshot.ChurnedCount()
	manifest.QualityViolations = quality.ViolationCount()
	for _, table := range bundle.Ordered() {
		manifest.RecordTable(table.Name, table.Hash())
	}
	manifest.DurationMs = time.Since(start).Milliseconds()

	summary := reports.ComposeSummary(manifest, result, bundle)

	log.Printf("[Pipeline] Run %s: %d rows analyzed in %dms (%d reports, %d quality violations)",
		manifest.RunID, manifest.RowCount, manifest.DurationMs,
		len(manifest.TableHashes), manifest.QualityViolations)

	return &RunResult{
		Manifest: manifest,
		Analysis: result,
		Quality:  quality,
		Bundle:   bundle,
		Summary:  summary,
	}, nil
}

// buildAnalyzer resolves the configured policies into stage objects
func (s *PipelineService) buildAnalyzer() (*analysis.Analyzer, error) {
	weights, err := s.cfg.WeightSet()
	if err != nil {
		return nil, err
	}

	scorer, err := analysis.NewRiskScorer(weights, s.cfg.TierPolicy(),
		s.cfg.Scoring.HighChargeRatioMin, s.cfg.Scoring.LowServicesBelow)
	if err != nil {
		return nil, err
	}

	rfm, err := analysis.NewRFMCalculator(s.cfg.Scoring.RFMBuckets, scoring.DefaultSegmentRules())
	if err != nil {
		return nil, err
	}

	return analysis.NewAnalyzer(s.cfg.Rules(), scorer, rfm, s.cfg.CLVPolicy())
}
