package app

import (
	"context"

	"churnscope/domain/core"
	"churnscope/domain/report"
	"churnscope/ports"
)

// listWindow bounds how many manifests a filtered listing scans. Variant
// filtering happens in memory, so the window has to cover the filter plus
// the requested page.
const listWindow = 500

// ReaderService provides read-only access to completed runs for the API
// and dashboard surfaces
type ReaderService struct {
	manifests ports.ManifestRepository
	reports   ports.ReportRepository
}

// NewReaderService creates a read-only run query service
func NewReaderService(manifests ports.ManifestRepository, reports ports.ReportRepository) *ReaderService {
	return &ReaderService{manifests: manifests, reports: reports}
}

// ListRuns returns run summaries matching the filters, newest first
func (s *ReaderService) ListRuns(ctx context.Context, filters ports.RunFilters) ([]ports.RunSummary, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	manifests, err := s.manifests.ListManifests(ctx, listWindow)
	if err != nil {
		return nil, err
	}

	summaries := make([]ports.RunSummary, 0, limit)
	skipped := 0
	for _, m := range manifests {
		if filters.Variant != nil && m.Variant != *filters.Variant {
			continue
		}
		if skipped < filters.Offset {
			skipped++
			continue
		}
		summaries = append(summaries, ports.RunSummary{
			ID:           m.RunID,
			Variant:      m.Variant,
			Fingerprint:  m.Fingerprint.Fingerprint,
			RowCount:     m.RowCount,
			ChurnedCount: m.ChurnedCount,
			CreatedAt:    m.CreatedAt,
		})
		if len(summaries) == limit {
			break
		}
	}

	return summaries, nil
}

// GetRun returns a manifest with summaries of the tables it produced
func (s *ReaderService) GetRun(ctx context.Context, runID core.RunID) (*ports.RunDetail, error) {
	manifest, err := s.manifests.GetManifest(ctx, runID)
	if err != nil {
		return nil, err
	}

	tables, err := s.reports.ListTables(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &ports.RunDetail{Manifest: *manifest, Tables: tables}, nil
}

// ListReports returns summaries of a run's stored tables in catalogue
// order
func (s *ReaderService) ListReports(ctx context.Context, runID core.RunID) ([]ports.TableSummary, error) {
	return s.reports.ListTables(ctx, runID)
}

// GetReport returns one stored table of a run by report name
func (s *ReaderService) GetReport(ctx context.Context, runID core.RunID, name string) (*report.Table, error) {
	return s.reports.GetTable(ctx, runID, name)
}

var _ ports.ReaderPort = (*ReaderService)(nil)
