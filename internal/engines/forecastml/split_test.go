package forecastml

import "testing"

func target(v float64) *float64 { return &v }

func TestSplitSamplesHoldsOutMostRecentTransitionAsTest(t *testing.T) {
	bySchool := map[string][]sample{
		"S1": {
			{schoolID: "S1", enrolment: 50, hasTarget: true, target: target(0.05), targetYear: "2021-22", features: []float64{1}},
			{schoolID: "S1", enrolment: 55, hasTarget: true, target: target(0.05), targetYear: "2022-23", features: []float64{2}},
			{schoolID: "S1", enrolment: 60, hasTarget: false, features: []float64{3}},
		},
	}

	split := splitSamples(bySchool, 1)

	if len(split.test) != 1 || split.test[0].targetYear != "2022-23" {
		t.Fatalf("expected the 2022-23 transition held out as test, got %+v", split.test)
	}
	if len(split.projection) != 1 {
		t.Fatalf("expected 1 projection row (the sample with no target), got %d", len(split.projection))
	}
}

func TestSplitSamplesFiltersLowEnrolment(t *testing.T) {
	bySchool := map[string][]sample{
		"S1": {
			{schoolID: "S1", enrolment: 5, hasTarget: true, target: target(0.05), targetYear: "2021-22", features: []float64{1}},
		},
	}

	split := splitSamples(bySchool, 1)

	total := len(split.trainX) + len(split.valX)
	if total != 0 {
		t.Errorf("expected the sub-10-enrolment sample to be excluded from training, got %d rows", total)
	}
}

func TestSplitSamplesProducesNonEmptyValidationWhenTrainNonEmpty(t *testing.T) {
	bySchool := map[string][]sample{}
	for i := 0; i < 20; i++ {
		id := string(rune('A' + i))
		bySchool[id] = []sample{
			{schoolID: id, enrolment: 100, hasTarget: true, target: target(0.02), targetYear: "2020-21", features: []float64{float64(i)}},
			{schoolID: id, enrolment: 100, hasTarget: true, target: target(0.02), targetYear: "2021-22", features: []float64{float64(i)}},
		}
	}

	split := splitSamples(bySchool, 42)

	if len(split.valX) == 0 {
		t.Error("expected a non-empty validation split for a reasonably sized panel")
	}
	if len(split.trainX) == 0 {
		t.Error("expected a non-empty train split")
	}
}
