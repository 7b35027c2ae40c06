package gbm

import "math/rand"

// Params holds the fixed hyperparameters of §4.10. No hyperparameter search
// is performed; these are policy-fixed for reproducibility across
// re-implementations.
type Params struct {
	NumTrees       int
	MaxDepth       int
	LearningRate   float64
	Subsample      float64
	MinSamplesLeaf int
	HuberDelta     float64
	Patience       int
	Seed           int64
}

// DefaultParams returns the §4.10 hyperparameters: 500 trees, depth 4,
// learning rate 0.03, subsample 0.8, min leaf 100, patience 30.
func DefaultParams(seed int64) Params {
	return Params{
		NumTrees:       500,
		MaxDepth:       4,
		LearningRate:   0.03,
		Subsample:      0.8,
		MinSamplesLeaf: 100,
		HuberDelta:     1.0,
		Patience:       30,
		Seed:           seed,
	}
}

// Model is a trained additive ensemble: InitValue plus each tree's
// contribution scaled by LearningRate.
type Model struct {
	Trees        []*node
	LearningRate float64
	InitValue    float64
}

// FeatureImportances sums each internal node's split gain per feature
// across every tree, giving the total split-gain ranking §4.10's training
// summary logs.
func (m *Model) FeatureImportances(numFeatures int) []float64 {
	totals := make([]float64, numFeatures)
	for _, tree := range m.Trees {
		accumulateGain(tree, totals)
	}
	return totals
}

// Predict evaluates the full ensemble for one feature row.
func (m *Model) Predict(x []float64) float64 {
	v := m.InitValue
	for _, tree := range m.Trees {
		v += m.LearningRate * predict(tree, x)
	}
	return v
}

// Train fits a gradient-boosted ensemble against trainX/trainY, using
// valX/valY only to drive early stopping (§4.10). Each tree is grown on a
// stochastic row subsample drawn from a seeded PRNG, so a fixed seed
// reproduces a fixed model.
func Train(trainX [][]float64, trainY []float64, valX [][]float64, valY []float64, p Params) *Model {
	rng := rand.New(rand.NewSource(p.Seed))

	init := median(trainY)
	trainPreds := make([]float64, len(trainY))
	valPreds := make([]float64, len(valY))
	for i := range trainPreds {
		trainPreds[i] = init
	}
	for i := range valPreds {
		valPreds[i] = init
	}

	model := &Model{LearningRate: p.LearningRate, InitValue: init}

	bestLoss := huberLoss(valY, valPreds, p.HuberDelta)
	stale := 0

	for t := 0; t < p.NumTrees; t++ {
		residuals := huberGradients(trainY, trainPreds, p.HuberDelta)
		sampled := subsampleIndices(len(trainY), p.Subsample, rng)

		tree := buildTree(trainX, residuals, sampled, p.MaxDepth, p.MinSamplesLeaf)
		model.Trees = append(model.Trees, tree)

		for i := range trainPreds {
			trainPreds[i] += p.LearningRate * predict(tree, trainX[i])
		}
		for i := range valPreds {
			valPreds[i] += p.LearningRate * predict(tree, valX[i])
		}

		loss := huberLoss(valY, valPreds, p.HuberDelta)
		if loss < bestLoss-1e-9 {
			bestLoss = loss
			stale = 0
		} else {
			stale++
			if stale >= p.Patience {
				break
			}
		}
	}

	return model
}

// subsampleIndices draws a Bernoulli(rate) subset of row indices without
// replacement, matching the subsample=0.8 hyperparameter.
func subsampleIndices(n int, rate float64, rng *rand.Rand) []int {
	if rate >= 1.0 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	idx := make([]int, 0, int(float64(n)*rate)+1)
	for i := 0; i < n; i++ {
		if rng.Float64() < rate {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 && n > 0 {
		idx = append(idx, rng.Intn(n))
	}
	return idx
}
