// Package gbm is a from-scratch gradient-boosted regression tree
// implementation (Huber loss, shallow trees, stochastic row subsampling,
// early stopping). No third-party numerical/ML library appears anywhere in
// the retrieved example corpus, so this package is built on the standard
// library alone — see DESIGN.md for that justification.
package gbm

import "sort"

// node is a binary regression tree node. Leaves carry a constant prediction;
// internal nodes carry a single-feature threshold split.
type node struct {
	isLeaf    bool
	value     float64
	feature   int
	threshold float64
	gain      float64
	left      *node
	right     *node
}

func predict(n *node, x []float64) float64 {
	for !n.isLeaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// buildTree grows a regression tree over X[idx] predicting residuals[idx],
// bounded by maxDepth and minLeaf (§4.10: max_depth=4, min_samples_leaf=100
// in the default hyperparameters).
func buildTree(X [][]float64, residuals []float64, idx []int, maxDepth, minLeaf int) *node {
	return buildNode(X, residuals, idx, 0, maxDepth, minLeaf)
}

func buildNode(X [][]float64, residuals []float64, idx []int, depth, maxDepth, minLeaf int) *node {
	if depth >= maxDepth || len(idx) < 2*minLeaf {
		return leaf(residuals, idx)
	}

	feature, threshold, leftIdx, rightIdx, gain, found := bestSplit(X, residuals, idx, minLeaf)
	if !found {
		return leaf(residuals, idx)
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		gain:      gain,
		left:      buildNode(X, residuals, leftIdx, depth+1, maxDepth, minLeaf),
		right:     buildNode(X, residuals, rightIdx, depth+1, maxDepth, minLeaf),
	}
}

func leaf(residuals []float64, idx []int) *node {
	sum := 0.0
	for _, i := range idx {
		sum += residuals[i]
	}
	mean := 0.0
	if len(idx) > 0 {
		mean = sum / float64(len(idx))
	}
	return &node{isLeaf: true, value: mean}
}

// bestSplit scans every feature for the threshold minimizing the sum of
// squared residuals across the two resulting partitions, subject to the
// minLeaf constraint on each side.
func bestSplit(X [][]float64, residuals []float64, idx []int, minLeaf int) (feature int, threshold float64, leftIdx, rightIdx []int, gain float64, found bool) {
	if len(idx) == 0 {
		return 0, 0, nil, nil, 0, false
	}
	numFeatures := len(X[idx[0]])

	totalSum, totalSumSq := sumStats(residuals, idx)
	bestSSE := sse(totalSum, totalSumSq, len(idx)) // current node's SSE; any split must beat this
	bestGain := 0.0

	sorted := make([]int, len(idx))
	copy(sorted, idx)

	for f := 0; f < numFeatures; f++ {
		sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		leftSum, leftSumSq := 0.0, 0.0
		for i := 0; i < len(sorted)-1; i++ {
			r := residuals[sorted[i]]
			leftSum += r
			leftSumSq += r * r
			leftN := i + 1
			rightN := len(sorted) - leftN
			if leftN < minLeaf || rightN < minLeaf {
				continue
			}
			if X[sorted[i]][f] == X[sorted[i+1]][f] {
				continue // only split between distinct feature values
			}

			rightSum := totalSum - leftSum
			rightSumSq := totalSumSq - leftSumSq
			candidateSSE := sse(leftSum, leftSumSq, leftN) + sse(rightSum, rightSumSq, rightN)
			candidateGain := bestSSE - candidateSSE
			if candidateGain > bestGain {
				bestGain = candidateGain
				feature = f
				threshold = (X[sorted[i]][f] + X[sorted[i+1]][f]) / 2
				leftIdx = append([]int(nil), sorted[:leftN]...)
				rightIdx = append([]int(nil), sorted[leftN:]...)
				found = true
			}
		}
	}

	return feature, threshold, leftIdx, rightIdx, bestGain, found
}

// accumulateGain walks a tree adding each internal node's split gain to its
// feature's running total, the standard "total split-gain" importance.
func accumulateGain(n *node, totals []float64) {
	if n == nil || n.isLeaf {
		return
	}
	totals[n.feature] += n.gain
	accumulateGain(n.left, totals)
	accumulateGain(n.right, totals)
}

func sumStats(residuals []float64, idx []int) (sum, sumSq float64) {
	for _, i := range idx {
		r := residuals[i]
		sum += r
		sumSq += r * r
	}
	return sum, sumSq
}

// sse returns the sum of squared deviations from the mean, derived from the
// running sum/sum-of-squares so it can be computed in O(1) per candidate
// split rather than re-scanning the partition.
func sse(sum, sumSq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq - 2*mean*sum + float64(n)*mean*mean
}
