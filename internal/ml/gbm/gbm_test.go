package gbm

import "testing"

// syntheticData builds a simple linear target y = 2*x0 - x1 over a small
// grid of n rows; callers build training and validation sets with separate
// calls.
func syntheticData(n int) (X [][]float64, y []float64) {
	X = make([][]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		x0 := float64(i%10) - 5
		x1 := float64((i*7)%10) - 5
		X[i] = []float64{x0, x1}
		y[i] = 2*x0 - x1
	}
	return X, y
}

func TestTrainReducesValidationLoss(t *testing.T) {
	trainX, trainY := syntheticData(400)
	valX, valY := syntheticData(100)

	p := Params{
		NumTrees:       50,
		MaxDepth:       3,
		LearningRate:   0.1,
		Subsample:      0.8,
		MinSamplesLeaf: 5,
		HuberDelta:     1.0,
		Patience:       50,
		Seed:           1,
	}

	baseline := huberLoss(valY, constantPreds(len(valY), median(trainY)), p.HuberDelta)

	model := Train(trainX, trainY, valX, valY, p)
	if len(model.Trees) == 0 {
		t.Fatal("expected at least one tree to be trained")
	}

	finalPreds := make([]float64, len(valY))
	for i := range valX {
		finalPreds[i] = model.Predict(valX[i])
	}
	finalLoss := huberLoss(valY, finalPreds, p.HuberDelta)

	if finalLoss >= baseline {
		t.Errorf("final validation loss %v did not improve on baseline %v", finalLoss, baseline)
	}
}

func TestTrainIsDeterministicForFixedSeed(t *testing.T) {
	trainX, trainY := syntheticData(200)
	valX, valY := syntheticData(50)
	p := DefaultParams(42)
	p.NumTrees = 20

	m1 := Train(trainX, trainY, valX, valY, p)
	m2 := Train(trainX, trainY, valX, valY, p)

	for i := range valX {
		p1 := m1.Predict(valX[i])
		p2 := m2.Predict(valX[i])
		if p1 != p2 {
			t.Fatalf("predictions diverged for identical seed at row %d: %v vs %v", i, p1, p2)
		}
	}
}

func TestTrainEarlyStopsBeforeExhaustingTreeBudget(t *testing.T) {
	// A constant target gives the validation loss nowhere to improve after
	// the first tree or two, so patience should cut training well short of
	// the configured budget.
	n := 300
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = []float64{float64(i % 5), float64(i % 3)}
		y[i] = 7.0
	}
	valX, valY := X[:50], y[:50]

	p := Params{
		NumTrees:       500,
		MaxDepth:       4,
		LearningRate:   0.03,
		Subsample:      0.8,
		MinSamplesLeaf: 5,
		HuberDelta:     1.0,
		Patience:       5,
		Seed:           7,
	}

	model := Train(X, y, valX, valY, p)
	if len(model.Trees) >= p.NumTrees {
		t.Errorf("expected early stopping well before %d trees, trained %d", p.NumTrees, len(model.Trees))
	}
}

func constantPreds(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
