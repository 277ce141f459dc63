// Package metrics implements the evaluation calculators for the legal-tax
// IR benchmark: ranked retrieval quality, span/value extraction quality,
// and downstream reasoning/calibration quality.
//
// Every function is a pure mapping from inputs to outputs. Degenerate
// inputs (empty relevant sets, empty gold) produce the documented sentinel
// values rather than errors.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lexbench/taxeval/internal/model"
)

// RecallAtK is the fraction of relevant documents present in the first k
// retrieved documents. Returns 0 when relevant is empty: a scenario with no
// relevant documents scores conservatively rather than dividing by zero.
func RecallAtK(retrieved, relevant []model.DocumentID, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}

	topK := prefixSet(retrieved, k)
	hits := 0
	seen := make(map[model.DocumentID]struct{}, len(relevant))
	for _, id := range relevant {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := topK[id]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(seen))
}

// PrecisionAtK is the fraction of the top-k retrieved documents that are
// relevant, with denominator min(k, len(retrieved)). Returns 0 when k is 0
// or nothing was retrieved.
func PrecisionAtK(retrieved, relevant []model.DocumentID, k int) float64 {
	if k == 0 || len(retrieved) == 0 {
		return 0
	}

	relevantSet := make(map[model.DocumentID]struct{}, len(relevant))
	for _, id := range relevant {
		relevantSet[id] = struct{}{}
	}

	topK := prefixSet(retrieved, k)
	hits := 0
	for id := range topK {
		if _, ok := relevantSet[id]; ok {
			hits++
		}
	}

	denom := k
	if len(retrieved) < denom {
		denom = len(retrieved)
	}
	return float64(hits) / float64(denom)
}

// NDCGAtK is normalized discounted cumulative gain at k. Gain for the item
// at 0-indexed position i is (2^grade - 1) / log2(i+2). The ideal DCG is
// computed from all known grades sorted descending, truncated to k, so a
// system is normalized against the best achievable ranking of everything
// the annotators graded, not only what it retrieved. Returns 0 when the
// ideal DCG is 0.
func NDCGAtK(retrieved []model.DocumentID, grades map[model.DocumentID]int, k int) float64 {
	dcg := 0.0
	for i, id := range truncate(retrieved, k) {
		dcg += gain(grades[id]) / math.Log2(float64(i+2))
	}

	sorted := make([]int, 0, len(grades))
	for _, g := range grades {
		sorted = append(sorted, g)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	idcg := 0.0
	for i, g := range truncate(sorted, k) {
		idcg += gain(g) / math.Log2(float64(i+2))
	}

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// ReciprocalRank is 1/rank of target in retrieved (rank is 1-indexed), or 0
// when the target is absent. An empty target never matches.
func ReciprocalRank(retrieved []model.DocumentID, target model.DocumentID) float64 {
	if target == "" {
		return 0
	}
	for i, id := range retrieved {
		if id == target {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// MRR is the mean reciprocal rank of each scenario's target document across
// scenarios, or 0 when there are none. rankedLists and targets are aligned
// by index.
func MRR(rankedLists [][]model.DocumentID, targets []model.DocumentID) float64 {
	n := len(rankedLists)
	if len(targets) < n {
		n = len(targets)
	}
	if n == 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += ReciprocalRank(rankedLists[i], targets[i])
	}
	return sum / float64(n)
}

// NoMissAtK reports whether every mandatory document appears in the top-k
// prefix of retrieved. An empty mandatory set is trivially a no-miss.
func NoMissAtK(retrieved, mandatory []model.DocumentID, k int) bool {
	topK := prefixSet(retrieved, k)
	for _, id := range mandatory {
		if _, ok := topK[id]; !ok {
			return false
		}
	}
	return true
}

// NoMissRateAtK is the fraction of scenarios whose mandatory documents all
// appear in the top-k prefix of their ranked list.
func NoMissRateAtK(rankedLists, mandatorySets [][]model.DocumentID, k int) float64 {
	n := len(rankedLists)
	if len(mandatorySets) < n {
		n = len(mandatorySets)
	}
	if n == 0 {
		return 0
	}

	noMisses := 0
	for i := 0; i < n; i++ {
		if NoMissAtK(rankedLists[i], mandatorySets[i], k) {
			noMisses++
		}
	}
	return float64(noMisses) / float64(n)
}

// ndcgCutoffs is how many of the configured k values get nDCG computed.
// nDCG is the costliest per-scenario metric, so it is restricted to the
// smaller cutoffs.
const ndcgCutoffs = 2

// ScenarioRetrieval holds one scenario's retrieval scores, keyed by k where
// the metric is cutoff-dependent. Scoring one scenario is independent of
// every other, so these can be computed concurrently and reduced afterwards.
type ScenarioRetrieval struct {
	Recall     map[int]float64
	Precision  map[int]float64
	NDCG       map[int]float64
	Reciprocal float64
	NoMiss     map[int]bool
}

// ScoreRetrieval scores a single scenario's ranked list against its gold
// judgment for each cutoff in ks.
//
// Fallbacks: MRR targets MostControlling, else the first relevant document;
// no-miss uses Mandatory, else the full relevant set.
func ScoreRetrieval(retrieved []model.DocumentID, gold model.GoldRecord, ks []int) ScenarioRetrieval {
	res := ScenarioRetrieval{
		Recall:    make(map[int]float64, len(ks)),
		Precision: make(map[int]float64, len(ks)),
		NDCG:      make(map[int]float64, ndcgCutoffs),
		NoMiss:    make(map[int]bool, len(ks)),
	}

	mandatory := gold.Mandatory
	if mandatory == nil {
		mandatory = gold.Relevant
	}

	for i, k := range ks {
		res.Recall[k] = RecallAtK(retrieved, gold.Relevant, k)
		res.Precision[k] = PrecisionAtK(retrieved, gold.Relevant, k)
		if i < ndcgCutoffs {
			res.NDCG[k] = NDCGAtK(retrieved, gold.RelevanceGrades, k)
		}
		res.NoMiss[k] = NoMissAtK(retrieved, mandatory, k)
	}

	res.Reciprocal = ReciprocalRank(retrieved, controllingTarget(gold))
	return res
}

// ReduceRetrieval aggregates per-scenario retrieval scores into the final
// metric map: mean and population std of recall@k, mean precision@k, mean
// ndcg@k for the first two cutoffs, mrr, and no_miss_rate@k. An empty
// result set produces zero-valued metrics.
func ReduceRetrieval(results []ScenarioRetrieval, ks []int) model.Metrics {
	out := make(model.Metrics)
	n := len(results)

	for i, k := range ks {
		recalls := make([]float64, 0, n)
		precisions := make([]float64, 0, n)
		ndcgs := make([]float64, 0, n)
		noMisses := 0

		for _, r := range results {
			recalls = append(recalls, r.Recall[k])
			precisions = append(precisions, r.Precision[k])
			if i < ndcgCutoffs {
				ndcgs = append(ndcgs, r.NDCG[k])
			}
			if r.NoMiss[k] {
				noMisses++
			}
		}

		out[fmt.Sprintf("recall@%d", k)] = Mean(recalls)
		out[fmt.Sprintf("recall@%d_std", k)] = Std(recalls)
		out[fmt.Sprintf("precision@%d", k)] = Mean(precisions)
		if i < ndcgCutoffs {
			out[fmt.Sprintf("ndcg@%d", k)] = Mean(ndcgs)
		}
		rate := 0.0
		if n > 0 {
			rate = float64(noMisses) / float64(n)
		}
		out[fmt.Sprintf("no_miss_rate@%d", k)] = rate
	}

	reciprocals := make([]float64, 0, n)
	for _, r := range results {
		reciprocals = append(reciprocals, r.Reciprocal)
	}
	out["mrr"] = Mean(reciprocals)

	return out
}

// ComputeRetrieval scores every scenario and reduces the results.
// rankedLists and golds are aligned by index; the caller joins predictions
// to gold judgments and drops unmatched scenarios beforehand.
func ComputeRetrieval(rankedLists [][]model.DocumentID, golds []model.GoldRecord, ks []int) model.Metrics {
	n := len(rankedLists)
	if len(golds) < n {
		n = len(golds)
	}

	results := make([]ScenarioRetrieval, n)
	for i := 0; i < n; i++ {
		results[i] = ScoreRetrieval(rankedLists[i], golds[i], ks)
	}
	return ReduceRetrieval(results, ks)
}

func controllingTarget(gold model.GoldRecord) model.DocumentID {
	if gold.MostControlling != nil {
		return *gold.MostControlling
	}
	if len(gold.Relevant) > 0 {
		return gold.Relevant[0]
	}
	return ""
}

func gain(grade int) float64 {
	return math.Pow(2, float64(grade)) - 1
}

func prefixSet(ids []model.DocumentID, k int) map[model.DocumentID]struct{} {
	set := make(map[model.DocumentID]struct{}, k)
	for _, id := range truncate(ids, k) {
		set[id] = struct{}{}
	}
	return set
}

func truncate[T any](xs []T, k int) []T {
	if k < 0 {
		k = 0
	}
	if k > len(xs) {
		k = len(xs)
	}
	return xs[:k]
}
