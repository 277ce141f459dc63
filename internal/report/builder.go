package report

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexbench/taxeval/internal/metrics"
	"github.com/lexbench/taxeval/internal/model"
)

// Params configures a Builder.
type Params struct {
	KValues []int // retrieval cutoffs, ordered
	Bins    int   // calibration bin count
	Workers int   // parallel per-scenario scoring workers
}

// DefaultParams returns the benchmark's standard configuration.
func DefaultParams() Params {
	return Params{KValues: []int{5, 10, 50}, Bins: 10, Workers: 4}
}

// Builder pairs gold and prediction collections by scenario identifier,
// runs all three calculator families, and assembles one report.
type Builder struct {
	params Params
}

// NewBuilder creates a Builder, filling unset params with defaults.
func NewBuilder(params Params) *Builder {
	def := DefaultParams()
	if len(params.KValues) == 0 {
		params.KValues = def.KValues
	}
	if params.Bins <= 0 {
		params.Bins = def.Bins
	}
	if params.Workers <= 0 {
		params.Workers = def.Workers
	}
	return &Builder{params: params}
}

// pair is one scenario present in both collections.
type pair struct {
	gold model.GoldRecord
	pred model.PredictionRecord
}

// Build evaluates predictions against gold and returns the report.
//
// Scenarios present in predictions but absent from gold are excluded from
// aggregation with a warning, never treated as zero scores. The same policy
// applies to gold records missing the relevant set a retrieval metric
// needs. Per-scenario retrieval scoring runs on a bounded worker group;
// each result lands in its own index of a preallocated slice, so
// concurrency cannot reorder which scenario's scores aggregate under which
// key, and the reduction runs only after every worker has finished.
func (b *Builder) Build(ctx context.Context, golds []model.GoldRecord, preds []model.PredictionRecord) (*model.EvaluationReport, error) {
	pairs := join(golds, preds)

	retrieval, err := b.retrievalMetrics(ctx, pairs)
	if err != nil {
		return nil, err
	}

	return &model.EvaluationReport{
		EvaluationDate:    time.Now().UTC(),
		ScenarioCount:     len(pairs),
		RetrievalMetrics:  retrieval,
		ExtractionMetrics: b.extractionMetrics(pairs),
		ReasoningMetrics:  b.reasoningMetrics(pairs),
	}, nil
}

// join pairs predictions with gold records by scenario_id, preserving
// prediction order for deterministic output.
func join(golds []model.GoldRecord, preds []model.PredictionRecord) []pair {
	byID := make(map[string]model.GoldRecord, len(golds))
	for _, g := range golds {
		byID[g.ScenarioID] = g
	}

	pairs := make([]pair, 0, len(preds))
	for _, p := range preds {
		g, ok := byID[p.ScenarioID]
		if !ok {
			zap.L().Warn("prediction has no gold judgment, skipping",
				zap.String("scenario_id", p.ScenarioID))
			continue
		}
		if g.Relevant == nil {
			zap.L().Warn("gold record missing relevant set, skipping",
				zap.String("scenario_id", p.ScenarioID))
			continue
		}
		pairs = append(pairs, pair{gold: g, pred: p})
	}
	return pairs
}

func (b *Builder) retrievalMetrics(ctx context.Context, pairs []pair) (model.Metrics, error) {
	results := make([]metrics.ScenarioRetrieval, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.params.Workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = metrics.ScoreRetrieval(p.pred.RetrievedDocs, p.gold, b.params.KValues)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return metrics.ReduceRetrieval(results, b.params.KValues), nil
}

// extractionMetrics aggregates per-scenario extraction scores. A scenario
// contributes to a metric family only when its gold record carries that
// family's annotation (nil means unannotated, an empty list means annotated
// as having nothing to extract).
func (b *Builder) extractionMetrics(pairs []pair) model.Metrics {
	var spans []metrics.PRF1
	var numerics []metrics.NumericReport
	var dates []metrics.DateReport
	var attrs []metrics.AttributionReport

	for _, p := range pairs {
		if p.gold.ConditionSpans != nil {
			spans = append(spans, metrics.SpanF1(p.pred.ConditionSpans, p.gold.ConditionSpans))
		}
		if p.gold.NumericValues != nil {
			numerics = append(numerics, metrics.NumericAccuracy(p.pred.NumericValues, p.gold.NumericValues))
		}
		if p.gold.Deadlines != nil {
			dates = append(dates, metrics.DateCorrectness(p.pred.Deadlines, p.gold.Deadlines))
		}
		if p.gold.Attributions != nil {
			attrs = append(attrs, metrics.AttributionMetrics(p.pred.Attributions, p.gold.Attributions))
		}
	}

	out := make(model.Metrics)

	out["condition_span_precision"] = meanOf(spans, func(r metrics.PRF1) float64 { return r.Precision })
	out["condition_span_recall"] = meanOf(spans, func(r metrics.PRF1) float64 { return r.Recall })
	out["condition_span_f1"] = meanOf(spans, func(r metrics.PRF1) float64 { return r.F1 })

	out["numeric_exact_match"] = meanOf(numerics, func(r metrics.NumericReport) float64 { return r.ExactMatch })
	out["numeric_value_mae"] = meanOf(numerics, func(r metrics.NumericReport) float64 { return r.ValueMAE })
	out["numeric_unit_accuracy"] = meanOf(numerics, func(r metrics.NumericReport) float64 { return r.UnitAccuracy })
	out["numeric_count_precision"] = meanOf(numerics, func(r metrics.NumericReport) float64 { return r.CountPrecision })
	out["numeric_count_recall"] = meanOf(numerics, func(r metrics.NumericReport) float64 { return r.CountRecall })

	out["date_exact_match"] = meanOf(dates, func(r metrics.DateReport) float64 { return r.ExactMatch })
	out["date_partial_match"] = meanOf(dates, func(r metrics.DateReport) float64 { return r.PartialMatch })

	out["attribution_precision"] = meanOf(attrs, func(r metrics.AttributionReport) float64 { return r.Precision })
	out["attribution_recall"] = meanOf(attrs, func(r metrics.AttributionReport) float64 { return r.Recall })

	return out
}

// reasoningMetrics aggregates applicability, form, and calibration scores.
// The calibration outcome for a scenario is whether the predicted
// jurisdiction set exactly equals the gold set, scored against the
// prediction's stated confidence.
func (b *Builder) reasoningMetrics(pairs []pair) model.Metrics {
	var predJuris, goldJuris [][]string
	var predForms, goldForms [][]string
	var probs []float64
	var outcomes []bool

	for _, p := range pairs {
		if p.gold.Jurisdictions != nil {
			predJuris = append(predJuris, p.pred.Jurisdictions)
			goldJuris = append(goldJuris, p.gold.Jurisdictions)

			if p.pred.ApplicabilityConfidence != nil {
				probs = append(probs, *p.pred.ApplicabilityConfidence)
				outcomes = append(outcomes, sameStringSet(p.pred.Jurisdictions, p.gold.Jurisdictions))
			}
		}
		if p.gold.RequiredForms != nil {
			predForms = append(predForms, p.pred.RequiredForms)
			goldForms = append(goldForms, p.gold.RequiredForms)
		}
	}

	form := metrics.FormAccuracy(predForms, goldForms)

	return model.Metrics{
		"applicability_accuracy": metrics.ApplicabilityAccuracy(predJuris, goldJuris),
		"form_precision":         form.Precision,
		"form_recall":            form.Recall,
		"form_f1":                form.F1,
		"brier_score":            metrics.BrierScore(probs, outcomes),
		"ece":                    metrics.ExpectedCalibrationError(probs, outcomes, b.params.Bins),
	}
}

func meanOf[T any](reports []T, field func(T) float64) float64 {
	vals := make([]float64, len(reports))
	for i, r := range reports {
		vals[i] = field(r)
	}
	return metrics.Mean(vals)
}

func sameStringSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, s := range a {
		as[s] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, s := range b {
		bs[s] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for s := range as {
		if _, ok := bs[s]; !ok {
			return false
		}
	}
	return true
}
