package export

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/lexbench/taxeval/internal/model"
)

func testReport() *model.EvaluationReport {
	return &model.EvaluationReport{
		EvaluationDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		ScenarioCount:  3,
		RetrievalMetrics: model.Metrics{
			"recall@5": 0.8,
			"mrr":      0.75,
		},
		ExtractionMetrics: model.Metrics{
			"numeric_value_mae": math.Inf(1),
			"numeric_exact":     0.5,
		},
		ReasoningMetrics: model.Metrics{
			"brier_score": 0.185,
		},
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteReport(path, testReport()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 4)
	assert.Equal(t, "Summary", f.Sheets[0].Name)
	assert.Equal(t, "Retrieval", f.Sheets[1].Name)
	assert.Equal(t, "Extraction", f.Sheets[2].Name)
	assert.Equal(t, "Reasoning", f.Sheets[3].Name)

	summary := f.Sheets[0]
	assert.Equal(t, "Scenario Count", summary.Rows[1].Cells[0].String())
	assert.Equal(t, "3", summary.Rows[1].Cells[1].String())

	// Metric rows are sorted by key below the header.
	retrieval := f.Sheets[1]
	require.Len(t, retrieval.Rows, 3)
	assert.Equal(t, "Metric", retrieval.Rows[0].Cells[0].String())
	assert.Equal(t, "mrr", retrieval.Rows[1].Cells[0].String())
	assert.Equal(t, "recall@5", retrieval.Rows[2].Cells[0].String())

	mrr, err := retrieval.Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 0.75, mrr, 0.0001)
}

func TestWriteReport_NonFiniteValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteReport(path, testReport()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	extraction := f.Sheets[2]
	// sorted: numeric_exact, numeric_value_mae
	assert.Equal(t, "numeric_value_mae", extraction.Rows[2].Cells[0].String())
	assert.Equal(t, "+Inf", extraction.Rows[2].Cells[1].String())
}

func TestWriteReport_NilReport(t *testing.T) {
	err := WriteReport(filepath.Join(t.TempDir(), "report.xlsx"), nil)
	assert.Error(t, err)
}
