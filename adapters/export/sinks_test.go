package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"churnscope/domain/core"
	"churnscope/domain/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testStamp(t *testing.T) core.Timestamp {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-08-20T09:30:00Z")
	require.NoError(t, err)
	return core.NewTimestamp(ts)
}

func testBundle(t *testing.T) *report.Bundle {
	t.Helper()

	summary := report.NewTable(report.ChurnSummary, "total_customers", "churned_customers", "churn_rate")
	require.NoError(t, summary.AddRow("7043", "1869", "26.54"))

	risk := report.NewTable(report.SegmentRisk, "tenure_group", "charge_category", "churn_rate")
	require.NoError(t, risk.AddRow("0-12", "High", "45.10"))
	require.NoError(t, risk.AddRow("48+", "Low", "7.20"))

	bundle := report.NewBundle()
	bundle.Add(summary)
	bundle.Add(risk)
	return bundle
}

func TestCSVSinkWritesStampedFiles(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVSink(dir)
	require.NoError(t, err)

	paths, err := sink.WriteBundle(context.Background(), testBundle(t), testStamp(t))
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(dir, "churn_summary_20260820_093000.csv"), paths[0])
	assert.Equal(t, filepath.Join(dir, "segment_risk_analysis_20260820_093000.csv"), paths[1])

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"total_customers", "churned_customers", "churn_rate"}, rows[0])
	assert.Equal(t, []string{"7043", "1869", "26.54"}, rows[1])
}

func TestCSVSinkDeterministicBytes(t *testing.T) {
	stamp := testStamp(t)
	bundle := testBundle(t)

	sinkA, err := NewCSVSink(t.TempDir())
	require.NoError(t, err)
	sinkB, err := NewCSVSink(t.TempDir())
	require.NoError(t, err)

	pathA, err := sinkA.WriteTable(context.Background(), bundle.Ordered()[0], stamp)
	require.NoError(t, err)
	pathB, err := sinkB.WriteTable(context.Background(), bundle.Ordered()[0], stamp)
	require.NoError(t, err)

	bytesA, err := os.ReadFile(pathA)
	require.NoError(t, err)
	bytesB, err := os.ReadFile(pathB)
	require.NoError(t, err)
	assert.Equal(t, bytesA, bytesB)
}

func TestXLSXSinkOneSheetPerReport(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewXLSXSink(dir)
	require.NoError(t, err)

	paths, err := sink.WriteBundle(context.Background(), testBundle(t), testStamp(t))
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "churn_reports_20260820_093000.xlsx"), paths[0])

	f, err := excelize.OpenFile(paths[0])
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.ChurnSummary, report.SegmentRisk}, f.GetSheetList())

	rows, err := f.GetRows(report.SegmentRisk)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"tenure_group", "charge_category", "churn_rate"}, rows[0])
	assert.Equal(t, []string{"0-12", "High", "45.10"}, rows[1])
}

func TestXLSXSinkSingleTable(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewXLSXSink(dir)
	require.NoError(t, err)

	table := testBundle(t).Ordered()[0]
	path, err := sink.WriteTable(context.Background(), table, testStamp(t))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{report.ChurnSummary}, f.GetSheetList())
}

func TestWriteSummaryFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteSummaryFile(dir, "# Churn Analysis\n\nAll quiet.\n", testStamp(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "executive_summary_20260820_093000.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Churn Analysis")
}

func TestSinkRespectsCancelledContext(t *testing.T) {
	sink, err := NewCSVSink(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sink.WriteBundle(ctx, testBundle(t), testStamp(t))
	require.Error(t, err)
}
