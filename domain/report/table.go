package report

import (
	"fmt"
	"strconv"
	"strings"

	"churnscope/domain/core"
)

// Table is the emission contract: ordered columns and string-rendered
// rows. Everything downstream (CSV, XLSX, Postgres, HTTP) serializes this
// one shape, so byte-identity across runs reduces to Table equality.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable allocates an empty table with the given schema
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// AddRow appends a row; cell count must match the column count
func (t *Table) AddRow(cells ...string) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("report %q: row has %d cells for %d columns", t.Name, len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// MustAddRow appends a row built by the report builders themselves, where
// a width mismatch is a programming error
func (t *Table) MustAddRow(cells ...string) {
	if err := t.AddRow(cells...); err != nil {
		panic(err)
	}
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Hash fingerprints the rendered table. Unit separators keep adjacent
// cells from colliding ("ab","c" vs "a","bc").
func (t *Table) Hash() core.TableHash {
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteString("\x1e")
	b.WriteString(strings.Join(t.Columns, "\x1f"))
	for _, row := range t.Rows {
		b.WriteString("\x1e")
		b.WriteString(strings.Join(row, "\x1f"))
	}
	return core.NewTableHash([]byte(b.String()))
}

// Column returns the index of a named column, -1 when absent
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell rendering helpers. Fixed precision keeps re-runs byte-identical:
// money and rates at 2dp, scores at 4dp, counts as plain integers.

func Money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func RateCell(r core.Ratio) string {
	return r.Render(2)
}

func Score(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func Count(n int) string {
	return strconv.Itoa(n)
}

func Flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
