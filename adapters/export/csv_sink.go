package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"churnscope/domain/core"
	"churnscope/domain/report"
	"churnscope/internal/errors"
	"churnscope/ports"
)

// CSVSink writes each report table to its own CSV file in a directory.
// Files are named <report>_<stamp>.csv; re-running the same snapshot and
// config produces byte-identical file content, only the stamp differs.
type CSVSink struct {
	dir string
}

// NewCSVSink creates a CSV report sink, creating the directory if needed
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to create export directory %s", dir))
	}
	return &CSVSink{dir: dir}, nil
}

// WriteTable emits a single table and returns the path it wrote
func (s *CSVSink) WriteTable(ctx context.Context, table *report.Table, stamp core.Timestamp) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.csv", table.Name, stamp.Stamp()))

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("failed to create %s", path))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(table.Columns); err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("failed to write %s header", table.Name))
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(err, fmt.Sprintf("failed to write %s row", table.Name))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("failed to flush %s", path))
	}

	return path, nil
}

// WriteBundle emits every table of a bundle in catalogue order
func (s *CSVSink) WriteBundle(ctx context.Context, bundle *report.Bundle, stamp core.Timestamp) ([]string, error) {
	paths := make([]string, 0, len(bundle.Tables))
	for _, table := range bundle.Ordered() {
		path, err := s.WriteTable(ctx, table, stamp)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

var _ ports.ReportSink = (*CSVSink)(nil)
