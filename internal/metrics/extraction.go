package metrics

import (
	"math"

	"github.com/lexbench/taxeval/internal/model"
)

// Extraction comparisons pair predictions to gold positionally (by list
// order), truncated to the shorter list. When the system extracts a
// different number of values than the gold standard, the alignment may be
// semantically wrong; CountPrecision/CountRecall expose the mismatch
// instead of the comparison failing. Matching by identifier or span overlap
// would be sounder, but positional pairing is the published benchmark
// semantics and changing it would break comparability of scores.

// PRF1 is a precision/recall/F1 triple.
type PRF1 struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// SpanF1 scores predicted spans against gold spans as sets of exact
// (start, end) pairs. Both empty is a vacuous match (all 1.0); exactly one
// empty scores all zero.
func SpanF1(pred, gold []model.Span) PRF1 {
	predSet := spanSet(pred)
	goldSet := spanSet(gold)

	if len(predSet) == 0 && len(goldSet) == 0 {
		return PRF1{Precision: 1, Recall: 1, F1: 1}
	}
	if len(predSet) == 0 || len(goldSet) == 0 {
		return PRF1{}
	}

	tp := 0
	for s := range predSet {
		if _, ok := goldSet[s]; ok {
			tp++
		}
	}

	return prf1(float64(tp)/float64(len(predSet)), float64(tp)/float64(len(goldSet)))
}

// NumericReport holds the numeric-extraction scores for one scenario.
// ValueMAE is +Inf when one side is empty and no values could be compared.
type NumericReport struct {
	ExactMatch     float64 `json:"exact_match"`
	ValueMAE       float64 `json:"value_mae"`
	UnitAccuracy   float64 `json:"unit_accuracy"`
	CountPrecision float64 `json:"count_precision"`
	CountRecall    float64 `json:"count_recall"`
}

// NumericAccuracy scores positionally-paired numeric extractions. An exact
// match requires value, unit, and period to agree; ValueMAE is the mean
// absolute difference of the numeric values over compared pairs;
// CountPrecision and CountRecall relate the compared count to the original
// list lengths, signaling under/over-generation.
func NumericAccuracy(pred, gold []model.NumericValue) NumericReport {
	if len(pred) == 0 || len(gold) == 0 {
		return NumericReport{ValueMAE: math.Inf(1)}
	}

	n := len(pred)
	if len(gold) < n {
		n = len(gold)
	}

	exact := 0
	unitMatches := 0
	absErrs := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		p, g := pred[i], gold[i]

		if p.Value == g.Value && p.Unit == g.Unit && periodEqual(p.Period, g.Period) {
			exact++
		}
		absErrs = append(absErrs, math.Abs(p.Value-g.Value))
		if p.Unit == g.Unit {
			unitMatches++
		}
	}

	return NumericReport{
		ExactMatch:     float64(exact) / float64(n),
		ValueMAE:       Mean(absErrs),
		UnitAccuracy:   float64(unitMatches) / float64(n),
		CountPrecision: float64(n) / float64(len(pred)),
		CountRecall:    float64(n) / float64(len(gold)),
	}
}

// DateReport holds date-extraction scores for one scenario.
type DateReport struct {
	ExactMatch   float64 `json:"exact_match"`
	PartialMatch float64 `json:"partial_match"`
}

// DateCorrectness scores positionally-paired ISO-style date strings. Exact
// match is full string equality; partial match compares only the first
// seven characters (year-month granularity).
func DateCorrectness(pred, gold []string) DateReport {
	if len(pred) == 0 || len(gold) == 0 {
		return DateReport{}
	}

	n := len(pred)
	if len(gold) < n {
		n = len(gold)
	}

	exact := 0
	partial := 0
	for i := 0; i < n; i++ {
		if pred[i] == gold[i] {
			exact++
		}
		if yearMonth(pred[i]) == yearMonth(gold[i]) {
			partial++
		}
	}

	return DateReport{
		ExactMatch:   float64(exact) / float64(n),
		PartialMatch: float64(partial) / float64(n),
	}
}

// AttributionReport holds evidence-attribution scores for one scenario.
type AttributionReport struct {
	Precision float64 `json:"attribution_precision"`
	Recall    float64 `json:"attribution_recall"`
}

// AttributionMetrics scores evidence attribution over positionally-paired
// records. The shared numerator counts predictions carrying an evidence
// span that exactly equals the paired gold span. Precision divides by
// predictions with evidence, recall by gold records with evidence; either
// is 0 when its denominator is 0.
func AttributionMetrics(pred, gold []model.Attribution) AttributionReport {
	predWithEvidence := 0
	for _, p := range pred {
		if p.EvidenceSpan != nil {
			predWithEvidence++
		}
	}
	goldWithEvidence := 0
	for _, g := range gold {
		if g.EvidenceSpan != nil {
			goldWithEvidence++
		}
	}

	n := len(pred)
	if len(gold) < n {
		n = len(gold)
	}
	correct := 0
	for i := 0; i < n; i++ {
		p, g := pred[i], gold[i]
		if p.EvidenceSpan != nil && g.EvidenceSpan != nil && *p.EvidenceSpan == *g.EvidenceSpan {
			correct++
		}
	}

	var report AttributionReport
	if predWithEvidence > 0 {
		report.Precision = float64(correct) / float64(predWithEvidence)
	}
	if goldWithEvidence > 0 {
		report.Recall = float64(correct) / float64(goldWithEvidence)
	}
	return report
}

func prf1(p, r float64) PRF1 {
	f1 := 0.0
	if p+r > 0 {
		f1 = 2 * p * r / (p + r)
	}
	return PRF1{Precision: p, Recall: r, F1: f1}
}

func periodEqual(a, b *model.Period) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func spanSet(spans []model.Span) map[model.Span]struct{} {
	set := make(map[model.Span]struct{}, len(spans))
	for _, s := range spans {
		set[s] = struct{}{}
	}
	return set
}

// yearMonth truncates a date string to year-month granularity ("2024-03").
func yearMonth(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
