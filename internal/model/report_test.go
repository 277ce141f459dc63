package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsJSON_NonFiniteRoundTrip(t *testing.T) {
	t.Parallel()

	m := Metrics{
		"numeric_value_mae": math.Inf(1),
		"negative":          math.Inf(-1),
		"undefined":         math.NaN(),
		"recall@5":          0.8,
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Infinity"`)
	assert.Contains(t, string(data), `"-Infinity"`)
	assert.Contains(t, string(data), `"NaN"`)

	var got Metrics
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, math.IsInf(got["numeric_value_mae"], 1))
	assert.True(t, math.IsInf(got["negative"], -1))
	assert.True(t, math.IsNaN(got["undefined"]))
	assert.InDelta(t, 0.8, got["recall@5"], 1e-9)
}

func TestMetricsJSON_RejectsUnknownString(t *testing.T) {
	t.Parallel()

	var m Metrics
	err := json.Unmarshal([]byte(`{"x": "bogus"}`), &m)
	assert.Error(t, err)
}

func TestGoldRecordJSON_NilVersusEmpty(t *testing.T) {
	t.Parallel()

	var absent GoldRecord
	require.NoError(t, json.Unmarshal([]byte(`{"scenario_id": "s1"}`), &absent))
	assert.Nil(t, absent.ConditionSpans)
	assert.Nil(t, absent.Jurisdictions)

	var empty GoldRecord
	require.NoError(t, json.Unmarshal([]byte(`{"scenario_id": "s1", "condition_spans": [], "jurisdictions": []}`), &empty))
	assert.NotNil(t, empty.ConditionSpans)
	assert.Empty(t, empty.ConditionSpans)
	assert.NotNil(t, empty.Jurisdictions)
	assert.Empty(t, empty.Jurisdictions)
}
