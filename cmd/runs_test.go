package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lexbench/taxeval/internal/model"
)

func TestComputeRunStats(t *testing.T) {
	runs := []model.Run{
		{Status: model.RunStatusComplete, Report: &model.EvaluationReport{ScenarioCount: 100}},
		{Status: model.RunStatusComplete, Report: &model.EvaluationReport{ScenarioCount: 50}},
		{Status: model.RunStatusFailed},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 75.0, s.AvgScenarios, 0.001)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.AvgScenarios)
}

func TestFormatRunsList(t *testing.T) {
	runs := []model.Run{
		{
			ID:              "0123456789abcdef",
			GoldPath:        "gold.json",
			PredictionsPath: "preds.jsonl",
			Status:          model.RunStatusComplete,
			Report:          &model.EvaluationReport{ScenarioCount: 42},
			CreatedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:        "fedcba9876543210",
			GoldPath:  "/very/long/path/that/should/be/shortened/gold.json",
			Status:    model.RunStatusFailed,
			CreatedAt: time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2026-08-30 12:00")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{Total: 5, Complete: 4, Failed: 1, AvgScenarios: 120.5})
	out := buf.String()

	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "5")
	assert.Contains(t, out, "120.5")
}

func TestTruncateHelpers(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "01234567", truncateID("0123456789"))
	assert.Equal(t, "gold.json", truncatePath("gold.json"))

	long := "/a/really/long/path/to/some/gold/file.json"
	got := truncatePath(long)
	assert.Len(t, got, 30)
	assert.Contains(t, got, "...")
}
