package reports

import (
	"context"
	"strings"
	"testing"
	"time"

	"churnscope/domain/core"
	"churnscope/domain/run"
	"churnscope/domain/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManifest() *run.Manifest {
	return run.NewManifest(
		core.RunID(core.NewID()),
		core.SnapshotID(core.NewID()),
		core.NewSnapshotHash([]byte("snapshot")),
		core.NewConfigHash([]byte("config")),
		scoring.VariantComposite,
		"test",
		core.NewTimestamp(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)),
	)
}

func TestComposeSummarySections(t *testing.T) {
	result := testResult(t)
	bundle, err := testBuilders(t).BuildAll(context.Background(), result)
	require.NoError(t, err)

	manifest := testManifest()
	md := ComposeSummary(manifest, result, bundle)

	assert.Contains(t, md, "# Churn Analysis Summary")
	assert.Contains(t, md, manifest.RunID.String())
	assert.Contains(t, md, "## Population")
	assert.Contains(t, md, "## Highest-Exposure Segments")
	assert.Contains(t, md, "## Strongest Churn Drivers")
	assert.Contains(t, md, "## Revenue Loss by Contract")
	assert.Contains(t, md, "## Charge Distribution")
	assert.Contains(t, md, "## RFM Segment Mix")
	assert.Contains(t, md, "## Top At-Risk Customers")
	assert.NotContains(t, md, "## Data Quality")
}

func TestComposeSummaryCapsHeadlineRows(t *testing.T) {
	result := testResult(t)
	bundle, err := testBuilders(t).BuildAll(context.Background(), result)
	require.NoError(t, err)

	md := ComposeSummary(testManifest(), result, bundle)

	start := strings.Index(md, "## Top At-Risk Customers")
	require.Greater(t, start, 0)
	section := md[start:]
	if next := strings.Index(section[2:], "## "); next > 0 {
		section = section[:next+2]
	}

	// Header, separator, then at most SummaryLimit data rows
	rows := 0
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "|") {
			rows++
		}
	}
	assert.LessOrEqual(t, rows, SummaryLimit+2)
}

func TestComposeSummaryReportsQualityViolations(t *testing.T) {
	result := testResult(t)
	bundle, err := testBuilders(t).BuildAll(context.Background(), result)
	require.NoError(t, err)

	manifest := testManifest()
	manifest.QualityViolations = 7

	md := ComposeSummary(manifest, result, bundle)
	assert.Contains(t, md, "## Data Quality")
	assert.Contains(t, md, "7 customers")
}

func TestComposeSummaryDeterministic(t *testing.T) {
	result := testResult(t)
	bundle, err := testBuilders(t).BuildAll(context.Background(), result)
	require.NoError(t, err)

	manifest := testManifest()
	first := ComposeSummary(manifest, result, bundle)
	second := ComposeSummary(manifest, result, bundle)
	assert.Equal(t, first, second)
}

func TestComposeStoredSummaryFromPersistedTables(t *testing.T) {
	result := testResult(t)
	bundle, err := testBuilders(t).BuildAll(context.Background(), result)
	require.NoError(t, err)

	manifest := testManifest()
	manifest.RowCount = result.Population.TotalCount
	manifest.ActiveCount = result.Population.ActiveCount
	manifest.ChurnedCount = result.Population.ChurnedCount

	md := ComposeStoredSummary(manifest, bundle)

	assert.Contains(t, md, "# Churn Analysis Summary")
	assert.Contains(t, md, manifest.RunID.String())
	assert.Contains(t, md, "## Population")
	assert.Contains(t, md, "- Churn rate:")
	assert.Contains(t, md, "## Highest-Exposure Segments")
	assert.Contains(t, md, "## Top At-Risk Customers")

	// Charge quartiles need the per-customer profiles a stored run no
	// longer has
	assert.NotContains(t, md, "## Charge Distribution")
}
