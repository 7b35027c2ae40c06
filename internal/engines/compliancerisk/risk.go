package compliancerisk

import (
	"math"

	"github.com/unmolkumar/school-ai-bav/internal/config"
)

// DeficitRatio computes min(1.0, gap/max(required,1)) — Pass A (§4.4).
func DeficitRatio(gap, required int) float64 {
	denom := required
	if denom < 1 {
		denom = 1
	}
	ratio := float64(gap) / float64(denom)
	if ratio > 1.0 {
		return 1.0
	}
	return ratio
}

// GrowthRate computes (enrolment-prev)/prev, or nil when prev is not positive
// — Pass B (§4.4).
func GrowthRate(enrolment, prev int) *float64 {
	if prev <= 0 {
		return nil
	}
	g := float64(enrolment-prev) / float64(prev)
	return &g
}

// CompositeScore computes the weighted convex combination of Pass C (§4.4).
// Missing components (nil growth) are treated as zero.
func CompositeScore(teacherDeficit, classroomDeficit float64, growthRate *float64, weights config.RiskWeights, growthCap float64) float64 {
	growthTerm := 0.0
	if growthRate != nil {
		growthTerm = math.Min(math.Abs(*growthRate), growthCap)
	}
	return weights.Teacher*teacherDeficit + weights.Classroom*classroomDeficit + weights.Growth*growthTerm
}
