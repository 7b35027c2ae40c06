package compliancerisk

import (
	"testing"

	"github.com/unmolkumar/school-ai-bav/internal/config"
	"github.com/unmolkumar/school-ai-bav/internal/model"
)

func TestDeficitRatio(t *testing.T) {
	cases := []struct {
		gap, required int
		want          float64
	}{
		{0, 10, 0.0},
		{1, 4, 0.25},
		{2, 10, 0.2},
		{5, 0, 1.0}, // required floored at 1, ratio clipped to 1.0
	}
	for _, c := range cases {
		if got := DeficitRatio(c.gap, c.required); got != c.want {
			t.Errorf("DeficitRatio(%d,%d) = %v, want %v", c.gap, c.required, got, c.want)
		}
	}
}

func TestGrowthRateNilWhenNoBaseline(t *testing.T) {
	if g := GrowthRate(120, 0); g != nil {
		t.Errorf("GrowthRate with zero prev = %v, want nil", *g)
	}
	if g := GrowthRate(120, -5); g != nil {
		t.Errorf("GrowthRate with negative prev = %v, want nil", *g)
	}
}

func TestGrowthRateComputation(t *testing.T) {
	g := GrowthRate(132, 120)
	if g == nil || *g != 0.1 {
		t.Fatalf("GrowthRate(132,120) = %v, want 0.1", g)
	}
}

// TestScenarioS1RiskScore exercises spec scenario S1: teacher_deficit=0.25,
// classroom_deficit=0.25, no prior year (nil growth) => risk_score = 0.20,
// MODERATE.
func TestScenarioS1RiskScore(t *testing.T) {
	weights := config.RiskWeights{Teacher: 0.45, Classroom: 0.35, Growth: 0.20}
	score := CompositeScore(0.25, 0.25, nil, weights, 0.50)
	want := 0.45*0.25 + 0.35*0.25
	if score != want {
		t.Fatalf("CompositeScore = %v, want %v", score, want)
	}
	level := model.RiskLevelFromScore(score, 0.60, 0.40, 0.20)
	if level != model.RiskModerate {
		t.Fatalf("risk_level = %s, want MODERATE (score=%v)", level, score)
	}
}

// TestScenarioS2RiskScore exercises spec scenario S2: teacher_deficit=0.25,
// classroom_deficit=0.20, growth missing => risk_score = 0.1825, LOW.
func TestScenarioS2RiskScore(t *testing.T) {
	weights := config.RiskWeights{Teacher: 0.45, Classroom: 0.35, Growth: 0.20}
	score := CompositeScore(0.25, 0.20, nil, weights, 0.50)
	want := 0.45*0.25 + 0.35*0.20
	if score != want {
		t.Fatalf("CompositeScore = %v, want %v", score, want)
	}
	level := model.RiskLevelFromScore(score, 0.60, 0.40, 0.20)
	if level != model.RiskLow {
		t.Fatalf("risk_level = %s, want LOW (score=%v)", level, score)
	}
}

// TestRiskBandBoundaryIsExact verifies the HIGH/CRITICAL boundary is crossed
// exactly at 0.60, not somewhere nearby due to float drift.
func TestRiskBandBoundaryIsExact(t *testing.T) {
	if level := model.RiskLevelFromScore(0.5999999, 0.60, 0.40, 0.20); level != model.RiskHigh {
		t.Errorf("0.5999999 classified as %s, want HIGH", level)
	}
	if level := model.RiskLevelFromScore(0.6000001, 0.60, 0.40, 0.20); level != model.RiskCritical {
		t.Errorf("0.6000001 classified as %s, want CRITICAL", level)
	}
	if level := model.RiskLevelFromScore(0.60, 0.60, 0.40, 0.20); level != model.RiskCritical {
		t.Errorf("exact boundary 0.60 classified as %s, want CRITICAL (bands are inclusive-lower)", level)
	}
}

func TestGrowthCapClampsLargeSwings(t *testing.T) {
	weights := config.RiskWeights{Teacher: 0, Classroom: 0, Growth: 1.0}
	growth := -0.90
	score := CompositeScore(0, 0, &growth, weights, 0.50)
	if score != 0.50 {
		t.Fatalf("capped growth term = %v, want 0.50", score)
	}
}
