package forecastml

import (
	"fmt"
	"math"
	"sort"
)

// featureNames labels numFeatures in the same order buildSamples emits
// them, purely for the importance-ranking summary log.
var featureNames = [numFeatures]string{
	"enrolment", "lag1_enrolment", "lag2_enrolment",
	"growth_rate", "lag1_growth_rate",
	"school_category", "total_teachers", "total_classrooms", "usable_classrooms",
	"classroom_gap", "teacher_gap",
	"risk_score", "teacher_deficit_ratio", "classroom_deficit_ratio",
	"district_label", "management_label",
	"rolling_mean_enrolment", "rolling_std_enrolment",
	"teachers_per_student", "rooms_per_student",
}

// metrics is the evaluation summary computed against the held-out test
// transition, plus the same measures against the WMA closed-form baseline
// for comparison (§4.10 "Evaluation and artefact").
type metrics struct {
	r2, mae, mape           float64
	baselineR2              float64
	baselineMAE             float64
	baselineMAPE            float64
}

func computeMetrics(actual, predicted, baseline []float64) metrics {
	return metrics{
		r2:           r2Score(actual, predicted),
		mae:          meanAbsError(actual, predicted),
		mape:         meanAbsPercentError(actual, predicted),
		baselineR2:   r2Score(actual, baseline),
		baselineMAE:  meanAbsError(actual, baseline),
		baselineMAPE: meanAbsPercentError(actual, baseline),
	}
}

func r2Score(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	mean := 0.0
	for _, a := range actual {
		mean += a
	}
	mean /= float64(len(actual))

	var ssRes, ssTot float64
	for i, a := range actual {
		ssRes += (a - predicted[i]) * (a - predicted[i])
		ssTot += (a - mean) * (a - mean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func meanAbsError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i, a := range actual {
		sum += math.Abs(a - predicted[i])
	}
	return sum / float64(len(actual))
}

func meanAbsPercentError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	n := 0
	for i, a := range actual {
		if a == 0 {
			continue
		}
		sum += math.Abs((a - predicted[i]) / a)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// topFeatures returns the k feature names with the highest importance.
func topFeatures(importances []float64, k int) []string {
	type pair struct {
		name  string
		score float64
	}
	pairs := make([]pair, len(importances))
	for i, v := range importances {
		name := fmt.Sprintf("feature_%d", i)
		if i < len(featureNames) {
			name = featureNames[i]
		}
		pairs[i] = pair{name, v}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].score > pairs[b].score })
	if k > len(pairs) {
		k = len(pairs)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = pairs[i].name
	}
	return out
}
