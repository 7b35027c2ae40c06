package forecastwma

import (
	"math"
	"testing"
)

// TestScenarioS6WMAForecast exercises spec scenario S6: E=(100,110,120,130)
// => g=0.0833, projections 141/153/165 for k=1,2,3.
func TestScenarioS6WMAForecast(t *testing.T) {
	g := Growth(130, 120, 110, 100, 0.30)
	if math.Abs(g-0.08333333) > 1e-6 {
		t.Fatalf("Growth = %v, want ~0.0833", g)
	}

	cases := []struct {
		k    int
		want int
	}{
		{1, 141},
		{2, 153},
		{3, 165},
	}
	for _, c := range cases {
		if got := Project(130, g, c.k); got != c.want {
			t.Errorf("Project(130, g, %d) = %d, want %d", c.k, got, c.want)
		}
	}
}

func TestGrowthZeroWhenNoBaseline(t *testing.T) {
	if g := Growth(100, 0, 0, 0, 0.30); g != 0 {
		t.Errorf("Growth with zero e1 = %v, want 0", g)
	}
}

func TestGrowthClippedToCap(t *testing.T) {
	g := Growth(1000, 10, 10, 10, 0.30)
	if g != 0.30 {
		t.Errorf("Growth = %v, want clipped to 0.30", g)
	}
	g = Growth(1, 1000, 1000, 1000, 0.30)
	if g != -0.30 {
		t.Errorf("Growth = %v, want clipped to -0.30", g)
	}
}

func TestProjectNeverNegative(t *testing.T) {
	if got := Project(10, -0.30, 3); got < 0 {
		t.Errorf("Project = %d, want >= 0", got)
	}
}
