package forecastml

import "math/rand"

const (
	minEnrolmentForTraining = 10
	validationFraction      = 0.15
)

// splitResult partitions the full sample set into the pieces §4.10 names:
// train (fits the trees), validation (drives early stopping, carved out of
// train since the spec doesn't name a separate validation set), test (the
// single held-out most-recent transition, used only for the evaluation
// summary), and projection (each school's latest row — no target, this is
// what gets predicted and written out).
type splitResult struct {
	trainX, valX [][]float64
	trainY, valY []float64
	test         []sample
	projection   []sample
}

// splitSamples separates per-school sample sequences into the pieces above.
// The held-out test transition is the globally most recent academic_year
// that appears as a target year anywhere in the panel; every earlier
// transition is eligible for training.
func splitSamples(bySchool map[string][]sample, seed int64) splitResult {
	mostRecentTargetYear := latestTargetYear(bySchool)

	var trainSamples []sample
	var test []sample
	var projection []sample

	for _, samples := range bySchool {
		for _, s := range samples {
			if !s.hasTarget {
				projection = append(projection, s)
				continue
			}
			if s.enrolment < minEnrolmentForTraining {
				continue
			}
			if s.targetYear == mostRecentTargetYear {
				test = append(test, s)
			} else {
				trainSamples = append(trainSamples, s)
			}
		}
	}

	rng := rand.New(rand.NewSource(seed))
	var trainX, valX [][]float64
	var trainY, valY []float64
	for _, s := range trainSamples {
		if rng.Float64() < validationFraction {
			valX = append(valX, s.features)
			valY = append(valY, *s.target)
		} else {
			trainX = append(trainX, s.features)
			trainY = append(trainY, *s.target)
		}
	}

	// A degenerate panel (too few schools/years) could leave the validation
	// split empty; early stopping needs at least one point to evaluate against.
	if len(valX) == 0 && len(trainX) > 0 {
		valX = append(valX, trainX[len(trainX)-1])
		valY = append(valY, trainY[len(trainY)-1])
		trainX = trainX[:len(trainX)-1]
		trainY = trainY[:len(trainY)-1]
	}

	return splitResult{
		trainX: trainX, trainY: trainY,
		valX: valX, valY: valY,
		test:       test,
		projection: projection,
	}
}

func latestTargetYear(bySchool map[string][]sample) string {
	latest := ""
	for _, samples := range bySchool {
		for _, s := range samples {
			if s.hasTarget && s.targetYear > latest {
				latest = s.targetYear
			}
		}
	}
	return latest
}
