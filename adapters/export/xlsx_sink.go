package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"churnscope/domain/core"
	"churnscope/domain/report"
	"churnscope/internal/errors"
	"churnscope/ports"

	"github.com/xuri/excelize/v2"
)

// workbookBaseName names the bundle workbook; each report becomes a sheet
const workbookBaseName = "churn_reports"

// XLSXSink writes report tables into Excel workbooks. A bundle becomes one
// workbook with a sheet per report in catalogue order; a single table
// becomes a one-sheet workbook.
type XLSXSink struct {
	dir string
}

// NewXLSXSink creates an Excel report sink, creating the directory if
// needed
func NewXLSXSink(dir string) (*XLSXSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to create export directory %s", dir))
	}
	return &XLSXSink{dir: dir}, nil
}

// WriteTable emits a single table as a one-sheet workbook
func (s *XLSXSink) WriteTable(ctx context.Context, table *report.Table, stamp core.Timestamp) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, table, true); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.xlsx", table.Name, stamp.Stamp()))
	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("failed to save %s", path))
	}

	return path, nil
}

// WriteBundle emits every table of a bundle into one workbook and returns
// the single path written
func (s *XLSXSink) WriteBundle(ctx context.Context, bundle *report.Bundle, stamp core.Timestamp) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range bundle.Ordered() {
		if err := writeSheet(f, table, i == 0); err != nil {
			return nil, err
		}
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.xlsx", workbookBaseName, stamp.Stamp()))
	if err := f.SaveAs(path); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to save %s", path))
	}

	return []string{path}, nil
}

// writeSheet renders one table onto its own sheet. The first sheet reuses
// the workbook's default sheet so no empty Sheet1 is left behind.
func writeSheet(f *excelize.File, table *report.Table, first bool) error {
	sheet := table.Name
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to name sheet %s", sheet))
		}
	} else {
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to add sheet %s", sheet))
		}
	}

	for i, h := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to write %s header", sheet))
		}
	}

	for r, row := range table.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrap(err, fmt.Sprintf("failed to write %s row %d", sheet, r+1))
			}
		}
	}

	return nil
}

var _ ports.ReportSink = (*XLSXSink)(nil)
