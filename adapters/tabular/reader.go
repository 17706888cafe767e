package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"churnscope/domain/core"
	"churnscope/domain/customer"
	"churnscope/internal/errors"
	"churnscope/ports"

	"github.com/xuri/excelize/v2"
)

// Reader loads a customer snapshot from a CSV or XLSX file, detected by
// extension. Implements ports.SnapshotReader.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader for the given file
func NewReader(filePath string) *Reader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// rawTable is the undecoded header+rows form shared by both file types
type rawTable struct {
	Headers []string
	Rows    [][]string
}

// ReadSnapshot reads the file, cleans the rows, and builds a
// fingerprinted snapshot. Schema violations reject the whole file; the
// cleaning report is returned alongside the error so every offending row
// is visible at once.
func (r *Reader) ReadSnapshot(ctx context.Context) (*customer.Snapshot, *ports.CleaningReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	log.Printf("[SnapshotReader] Reading %s file: %s", r.fileType, r.filePath)
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, nil, errors.NotFound(fmt.Sprintf("%s file %s", r.fileType, r.filePath))
	}

	var raw *rawTable
	var err error
	switch r.fileType {
	case "csv":
		raw, err = r.readCSV()
	case "xlsx":
		raw, err = r.readExcel()
	default:
		return nil, nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, nil, err
	}

	mapping, err := resolveColumns(raw.Headers)
	if err != nil {
		return nil, nil, err
	}

	records, report, err := decodeRecords(raw, mapping)
	if err != nil {
		return nil, report, err
	}

	snapshot, err := customer.NewSnapshot(core.SnapshotID(core.NewID()), records)
	if err != nil {
		return nil, report, errors.WithCode(errors.CodeSchemaViolation, err)
	}

	log.Printf("[SnapshotReader] Snapshot ready: %d of %d rows kept (%d duplicates, %d revenue fills)",
		report.RowsKept, report.RowsRead, report.DuplicatesDropped, report.BlankRevenueRows)
	return snapshot, report, nil
}

func (r *Reader) readExcel() (*rawTable, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	log.Printf("[SnapshotReader] Sheet %q read in %.2fms (%d rows)",
		sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return buildRawTable(rows)
}

func (r *Reader) readCSV() (*rawTable, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	startTime := time.Now()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[SnapshotReader] CSV read in %.2fms (%d rows)",
		float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return buildRawTable(rows)
}

// buildRawTable splits the header off and trims every cell
func buildRawTable(rows [][]string) (*rawTable, error) {
	if len(rows) < 2 {
		return nil, errors.SchemaViolation("file must have a header row and at least one data row")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// Pad short rows so column access stays in bounds; excelize drops
		// trailing empty cells.
		cells := make([]string, len(headers))
		for j := range headers {
			if j < len(row) {
				cells[j] = strings.TrimSpace(row[j])
			}
		}
		data = append(data, cells)
	}

	return &rawTable{Headers: headers, Rows: data}, nil
}
