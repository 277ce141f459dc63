package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexbench/taxeval/internal/model"
)

func TestSpanF1(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pred []model.Span
		gold []model.Span
		want PRF1
	}{
		{
			name: "one of two predictions correct",
			pred: []model.Span{{Start: 0, End: 5}, {Start: 10, End: 15}},
			gold: []model.Span{{Start: 0, End: 5}},
			want: PRF1{Precision: 0.5, Recall: 1.0, F1: 2.0 / 3.0},
		},
		{
			name: "both empty is a vacuous match",
			want: PRF1{Precision: 1, Recall: 1, F1: 1},
		},
		{
			name: "prediction only",
			pred: []model.Span{{Start: 0, End: 5}},
			want: PRF1{},
		},
		{
			name: "gold only",
			gold: []model.Span{{Start: 0, End: 5}},
			want: PRF1{},
		},
		{
			name: "overlap is not a match",
			pred: []model.Span{{Start: 0, End: 6}},
			gold: []model.Span{{Start: 0, End: 5}},
			want: PRF1{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpanF1(tt.pred, tt.gold)
			assert.InDelta(t, tt.want.Precision, got.Precision, 1e-9)
			assert.InDelta(t, tt.want.Recall, got.Recall, 1e-9)
			assert.InDelta(t, tt.want.F1, got.F1, 1e-9)
		})
	}
}

func TestNumericAccuracy(t *testing.T) {
	t.Parallel()

	annual := model.PeriodAnnual
	monthly := model.PeriodMonthly

	pred := []model.NumericValue{
		{Value: 13850, Unit: model.UnitDollar, Period: &annual},
		{Value: 0.22, Unit: model.UnitPercent},
		{Value: 3, Unit: model.UnitCount},
	}
	gold := []model.NumericValue{
		{Value: 13850, Unit: model.UnitDollar, Period: &annual},
		{Value: 0.24, Unit: model.UnitPercent},
	}

	got := NumericAccuracy(pred, gold)

	// Only two pairs compared; the first matches exactly.
	assert.InDelta(t, 0.5, got.ExactMatch, 1e-9)
	assert.InDelta(t, 0.01, got.ValueMAE, 1e-9) // (0 + 0.02) / 2
	assert.InDelta(t, 1.0, got.UnitAccuracy, 1e-9)
	assert.InDelta(t, 2.0/3.0, got.CountPrecision, 1e-9)
	assert.InDelta(t, 1.0, got.CountRecall, 1e-9)

	t.Run("period mismatch blocks exact match", func(t *testing.T) {
		p := []model.NumericValue{{Value: 100, Unit: model.UnitDollar, Period: &annual}}
		g := []model.NumericValue{{Value: 100, Unit: model.UnitDollar, Period: &monthly}}
		assert.Zero(t, NumericAccuracy(p, g).ExactMatch)
	})

	t.Run("absent period matches absent period", func(t *testing.T) {
		p := []model.NumericValue{{Value: 100, Unit: model.UnitDollar}}
		g := []model.NumericValue{{Value: 100, Unit: model.UnitDollar}}
		assert.InDelta(t, 1.0, NumericAccuracy(p, g).ExactMatch, 1e-9)
	})

	t.Run("one side absent blocks exact match", func(t *testing.T) {
		p := []model.NumericValue{{Value: 100, Unit: model.UnitDollar, Period: &annual}}
		g := []model.NumericValue{{Value: 100, Unit: model.UnitDollar}}
		assert.Zero(t, NumericAccuracy(p, g).ExactMatch)
	})
}

func TestNumericAccuracy_EmptySentinel(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		pred []model.NumericValue
		gold []model.NumericValue
	}{
		{"no predictions", nil, []model.NumericValue{{Value: 1}}},
		{"no gold", []model.NumericValue{{Value: 1}}, nil},
		{"both empty", nil, nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := NumericAccuracy(tt.pred, tt.gold)
			assert.Zero(t, got.ExactMatch)
			assert.True(t, math.IsInf(got.ValueMAE, 1))
			assert.Zero(t, got.UnitAccuracy)
			assert.Zero(t, got.CountPrecision)
			assert.Zero(t, got.CountRecall)
		})
	}
}

func TestDateCorrectness(t *testing.T) {
	t.Parallel()

	pred := []string{"2024-04-15", "2024-06-01", "2025"}
	gold := []string{"2024-04-15", "2024-06-17", "2024"}

	got := DateCorrectness(pred, gold)
	assert.InDelta(t, 1.0/3.0, got.ExactMatch, 1e-9)
	// First two agree at year-month granularity; "2025" vs "2024" do not.
	assert.InDelta(t, 2.0/3.0, got.PartialMatch, 1e-9)

	t.Run("empty sides", func(t *testing.T) {
		assert.Equal(t, DateReport{}, DateCorrectness(nil, gold))
		assert.Equal(t, DateReport{}, DateCorrectness(pred, nil))
	})

	t.Run("year-only granularity", func(t *testing.T) {
		got := DateCorrectness([]string{"2024"}, []string{"2024-04-15"})
		assert.Zero(t, got.ExactMatch)
		assert.Zero(t, got.PartialMatch)
	})

	t.Run("length mismatch truncates", func(t *testing.T) {
		got := DateCorrectness([]string{"2024-04-15"}, gold)
		assert.InDelta(t, 1.0, got.ExactMatch, 1e-9)
	})
}

func TestAttributionMetrics(t *testing.T) {
	t.Parallel()

	span := func(s, e int) *model.Span { return &model.Span{Start: s, End: e} }

	pred := []model.Attribution{
		{FieldValue: "standard_deduction", EvidenceSpan: span(10, 40)},
		{FieldValue: "filing_deadline", EvidenceSpan: span(100, 130)},
		{FieldValue: "rate"}, // no evidence cited
	}
	gold := []model.Attribution{
		{FieldValue: "standard_deduction", EvidenceSpan: span(10, 40)},
		{FieldValue: "filing_deadline", EvidenceSpan: span(90, 130)},
		{FieldValue: "rate", EvidenceSpan: span(200, 210)},
	}

	got := AttributionMetrics(pred, gold)
	// One of two evidence-bearing predictions matches its gold span exactly.
	assert.InDelta(t, 0.5, got.Precision, 1e-9)
	// One of three evidence-bearing gold records was attributed.
	assert.InDelta(t, 1.0/3.0, got.Recall, 1e-9)

	t.Run("zero denominators", func(t *testing.T) {
		noEvidence := []model.Attribution{{FieldValue: "x"}}
		got := AttributionMetrics(noEvidence, noEvidence)
		assert.Zero(t, got.Precision)
		assert.Zero(t, got.Recall)
	})

	t.Run("gold without evidence cannot be matched", func(t *testing.T) {
		p := []model.Attribution{{FieldValue: "x", EvidenceSpan: span(0, 5)}}
		g := []model.Attribution{{FieldValue: "x"}}
		got := AttributionMetrics(p, g)
		assert.Zero(t, got.Precision)
		assert.Zero(t, got.Recall)
	})
}
