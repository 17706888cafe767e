package report

import (
	"testing"

	"churnscope/domain/core"
)

// TestTableRowWidth tests width mismatches are rejected
func TestTableRowWidth(t *testing.T) {
	table := NewTable("test", "a", "b")
	if err := table.AddRow("1", "2"); err != nil {
		t.Fatalf("Valid row rejected: %v", err)
	}
	if err := table.AddRow("1"); err == nil {
		t.Error("Narrow row accepted")
	}
	if err := table.AddRow("1", "2", "3"); err == nil {
		t.Error("Wide row accepted")
	}
	if table.RowCount() != 1 {
		t.Errorf("RowCount = %d, expected 1", table.RowCount())
	}
}

// TestTableHashIdentity tests equal tables hash equal, cell shifts do not
func TestTableHashIdentity(t *testing.T) {
	build := func() *Table {
		table := NewTable("segments", "segment", "count")
		table.MustAddRow("0-1 year", "2")
		table.MustAddRow("2-4 years", "1")
		return table
	}

	h1 := build().Hash()
	h2 := build().Hash()
	if h1 != h2 {
		t.Errorf("Identical tables hash differently: %s vs %s", h1, h2)
	}

	shifted := NewTable("segments", "segment", "count")
	shifted.MustAddRow("0-1 year2", "")
	shifted.MustAddRow("2-4 years", "1")
	if shifted.Hash() == h1 {
		t.Error("Cell boundary shift did not change the hash")
	}

	reordered := NewTable("segments", "segment", "count")
	reordered.MustAddRow("2-4 years", "1")
	reordered.MustAddRow("0-1 year", "2")
	if reordered.Hash() == h1 {
		t.Error("Row order change did not change the hash")
	}
}

// TestCellRendering tests fixed-precision formatting
func TestCellRendering(t *testing.T) {
	if got := Money(1368); got != "1368.00" {
		t.Errorf("Money(1368) = %q", got)
	}
	if got := Money(0.125); got != "0.13" {
		t.Errorf("Money(0.125) = %q", got)
	}
	if got := Score(0.4); got != "0.4000" {
		t.Errorf("Score(0.4) = %q", got)
	}
	if got := Count(500); got != "500" {
		t.Errorf("Count(500) = %q", got)
	}
	if got := Flag(true); got != "1" {
		t.Errorf("Flag(true) = %q", got)
	}
	if got := RateCell(core.NewRatio(50)); got != "50.00" {
		t.Errorf("RateCell(50) = %q", got)
	}
	// Undefined rates render as empty cells, never 0.00
	if got := RateCell(core.UndefinedRatio()); got != "" {
		t.Errorf("RateCell(undefined) = %q, expected empty", got)
	}
}

// TestCatalogueOrder tests the bundle preserves catalogue emission order
func TestCatalogueOrder(t *testing.T) {
	b := NewBundle()
	b.Add(NewTable(CLVRankings, "customer_id"))
	b.Add(NewTable(ChurnSummary, "total"))
	b.Add(NewTable(SegmentRisk, "segment"))

	ordered := b.Ordered()
	if len(ordered) != 3 {
		t.Fatalf("Ordered returned %d tables, expected 3", len(ordered))
	}
	expected := []string{ChurnSummary, SegmentRisk, CLVRankings}
	for i, table := range ordered {
		if table.Name != expected[i] {
			t.Errorf("Position %d holds %q, expected %q", i, table.Name, expected[i])
		}
	}

	if !IsKnown(ChurnSummary) {
		t.Error("ChurnSummary not recognized")
	}
	if IsKnown("quarterly_forecast") {
		t.Error("Unknown report recognized")
	}
}
