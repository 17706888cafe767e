package app

import (
	"context"

	"churnscope/domain/core"
	"churnscope/domain/report"
	"churnscope/internal/errors"
	"churnscope/ports"
)

// ExportService replays a stored run through one or more report sinks
type ExportService struct {
	manifests ports.ManifestRepository
	reports   ports.ReportRepository
	sinks     []ports.ReportSink
}

// NewExportService creates an export service writing to the given sinks
func NewExportService(manifests ports.ManifestRepository, reports ports.ReportRepository, sinks ...ports.ReportSink) *ExportService {
	return &ExportService{manifests: manifests, reports: reports, sinks: sinks}
}

// ExportResult describes the files an export produced
type ExportResult struct {
	RunID core.RunID
	Paths []string
}

// ExportRun loads a run's stored tables and writes them through every
// sink, stamped with the run's original timestamp so repeated exports
// of the same run land on the same filenames
func (s *ExportService) ExportRun(ctx context.Context, runID core.RunID) (*ExportResult, error) {
	manifest, err := s.manifests.GetManifest(ctx, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load run %s", runID)
	}

	bundle, err := s.loadBundle(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{RunID: runID}
	for _, sink := range s.sinks {
		paths, err := sink.WriteBundle(ctx, bundle, manifest.CreatedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to export run %s", runID)
		}
		result.Paths = append(result.Paths, paths...)
	}

	return result, nil
}

// ExportTable writes a single stored table of a run through every sink
func (s *ExportService) ExportTable(ctx context.Context, runID core.RunID, name string) (*ExportResult, error) {
	manifest, err := s.manifests.GetManifest(ctx, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load run %s", runID)
	}

	table, err := s.reports.GetTable(ctx, runID, name)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{RunID: runID}
	for _, sink := range s.sinks {
		path, err := sink.WriteTable(ctx, table, manifest.CreatedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to export report %s", name)
		}
		result.Paths = append(result.Paths, path)
	}

	return result, nil
}

func (s *ExportService) loadBundle(ctx context.Context, runID core.RunID) (*report.Bundle, error) {
	summaries, err := s.reports.ListTables(ctx, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list reports for run %s", runID)
	}

	bundle := report.NewBundle()
	for _, summary := range summaries {
		table, err := s.reports.GetTable(ctx, runID, summary.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load report %s", summary.Name)
		}
		bundle.Add(table)
	}

	return bundle, nil
}
