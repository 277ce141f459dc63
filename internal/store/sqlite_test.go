package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexbench/taxeval/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "taxeval.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleReport() *model.EvaluationReport {
	return &model.EvaluationReport{
		EvaluationDate: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		ScenarioCount:  2,
		RetrievalMetrics: model.Metrics{
			"recall@5":     0.8,
			"recall@5_std": 0.1,
			"mrr":          0.9,
		},
		ExtractionMetrics: model.Metrics{
			"condition_span_f1": 0.7,
			"numeric_value_mae": math.Inf(1),
		},
		ReasoningMetrics: model.Metrics{
			"brier_score": 0.05,
		},
	}
}

func TestSQLiteStore_SaveAndGetRun(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	saved, err := s.SaveRun(ctx, model.Run{
		GoldPath:        "gold.jsonl",
		PredictionsPath: "preds.jsonl",
		Status:          model.RunStatusComplete,
		Report:          sampleReport(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.GetRun(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "gold.jsonl", got.GoldPath)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Report)
	assert.InDelta(t, 0.8, got.Report.RetrievalMetrics["recall@5"], 1e-9)
	// The MAE sentinel survives the JSON round trip.
	assert.True(t, math.IsInf(got.Report.ExtractionMetrics["numeric_value_mae"], 1))
}

func TestSQLiteStore_SaveFailedRun(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	saved, err := s.SaveRun(ctx, model.Run{
		GoldPath:        "missing.json",
		PredictionsPath: "preds.json",
		Status:          model.RunStatusFailed,
		Error:           "load gold: file not found",
	})
	require.NoError(t, err)

	got, err := s.GetRun(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "load gold: file not found", got.Error)
	assert.Nil(t, got.Report)
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	_, err := s.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		status := model.RunStatusComplete
		if i == 2 {
			status = model.RunStatusFailed
		}
		_, err := s.SaveRun(ctx, model.Run{
			GoldPath:        "gold.json",
			PredictionsPath: "preds.json",
			Status:          status,
		})
		require.NoError(t, err)
	}

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	complete, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	assert.Len(t, complete, 2)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, none)
}
