package metrics

// ApplicabilityAccuracy is the fraction of scenarios where the predicted
// set of applicable jurisdictions exactly equals the gold set. Order and
// duplicates are ignored; there is no partial credit.
func ApplicabilityAccuracy(pred, gold [][]string) float64 {
	if len(pred) == 0 {
		return 0
	}

	n := len(pred)
	if len(gold) < n {
		n = len(gold)
	}

	matches := 0
	for i := 0; i < n; i++ {
		if setEqual(pred[i], gold[i]) {
			matches++
		}
	}
	return float64(matches) / float64(len(pred))
}

// FormAccuracy scores required-form identification. Per scenario, precision
// and recall come from set intersection, with a vacuous 1/1 when both sets
// are empty. Precision and recall are macro-averaged across scenarios
// first, and the single F1 is derived from those two averages. This is not
// the average of per-scenario F1 values; the two diverge whenever precision
// and recall are asymmetric across scenarios, and the macro-then-F1 order
// is the published benchmark semantics.
func FormAccuracy(pred, gold [][]string) PRF1 {
	n := len(pred)
	if len(gold) < n {
		n = len(gold)
	}
	if n == 0 {
		return PRF1{}
	}

	precisions := make([]float64, 0, n)
	recalls := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		predSet := stringSet(pred[i])
		goldSet := stringSet(gold[i])

		if len(predSet) == 0 && len(goldSet) == 0 {
			precisions = append(precisions, 1)
			recalls = append(recalls, 1)
			continue
		}

		tp := 0
		for s := range predSet {
			if _, ok := goldSet[s]; ok {
				tp++
			}
		}

		p, r := 0.0, 0.0
		if len(predSet) > 0 {
			p = float64(tp) / float64(len(predSet))
		}
		if len(goldSet) > 0 {
			r = float64(tp) / float64(len(goldSet))
		}
		precisions = append(precisions, p)
		recalls = append(recalls, r)
	}

	return prf1(Mean(precisions), Mean(recalls))
}

// BrierScore is the mean squared difference between each predicted
// probability and its outcome encoded as 1.0/0.0. Lower is better; 0 is
// perfect. Returns 0 when there are no samples.
func BrierScore(probs []float64, outcomes []bool) float64 {
	n := len(probs)
	if len(outcomes) < n {
		n = len(outcomes)
	}
	if n == 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		o := 0.0
		if outcomes[i] {
			o = 1.0
		}
		d := probs[i] - o
		sum += d * d
	}
	return sum / float64(n)
}

// ExpectedCalibrationError partitions [0,1] into nBins equal-width bins and
// sums, over nonempty bins, |mean predicted probability - empirical outcome
// rate| weighted by the bin's share of all samples. Bins are half-open
// [lower, upper) except the last, whose upper edge is inclusive so that a
// probability of exactly 1.0 is counted. Returns 0 when there are no
// samples or nBins is not positive.
func ExpectedCalibrationError(probs []float64, outcomes []bool, nBins int) float64 {
	n := len(probs)
	if len(outcomes) < n {
		n = len(outcomes)
	}
	if n == 0 || nBins <= 0 {
		return 0
	}

	ece := 0.0
	for b := 0; b < nBins; b++ {
		lower := float64(b) / float64(nBins)
		upper := float64(b+1) / float64(nBins)
		last := b == nBins-1

		count := 0
		sumProb := 0.0
		sumOutcome := 0.0
		for i := 0; i < n; i++ {
			p := probs[i]
			inBin := p >= lower && (p < upper || (last && p <= upper))
			if !inBin {
				continue
			}
			count++
			sumProb += p
			if outcomes[i] {
				sumOutcome++
			}
		}

		if count == 0 {
			continue
		}

		avgConfidence := sumProb / float64(count)
		avgAccuracy := sumOutcome / float64(count)
		weight := float64(count) / float64(n)

		gap := avgConfidence - avgAccuracy
		if gap < 0 {
			gap = -gap
		}
		ece += weight * gap
	}

	return ece
}

func setEqual(a, b []string) bool {
	as := stringSet(a)
	bs := stringSet(b)
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

func stringSet(xs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		set[x] = struct{}{}
	}
	return set
}
