package gbm

import "sort"

// huberGradients returns the negative gradient of the Huber loss at each
// point — the pseudo-residual each new tree is fit against. Points whose
// residual exceeds delta are gradient-clipped, bounding the influence of
// outlier growth-rate targets (§4.10).
func huberGradients(y, preds []float64, delta float64) []float64 {
	grad := make([]float64, len(y))
	for i := range y {
		residual := y[i] - preds[i]
		switch {
		case residual > delta:
			grad[i] = delta
		case residual < -delta:
			grad[i] = -delta
		default:
			grad[i] = residual
		}
	}
	return grad
}

// huberLoss is the mean Huber loss, used only to drive early stopping on a
// validation split.
func huberLoss(y, preds []float64, delta float64) float64 {
	if len(y) == 0 {
		return 0
	}
	total := 0.0
	for i := range y {
		residual := y[i] - preds[i]
		abs := residual
		if abs < 0 {
			abs = -abs
		}
		if abs <= delta {
			total += 0.5 * residual * residual
		} else {
			total += delta * (abs - 0.5*delta)
		}
	}
	return total / float64(len(y))
}

// median is Huber regression's standard robust initial value, replacing the
// squared-loss convention of starting from the mean.
func median(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sorted := append([]float64(nil), y...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
