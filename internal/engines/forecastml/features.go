package forecastml

import (
	"math"
	"sort"

	"github.com/unmolkumar/school-ai-bav/internal/engines/forecastwma"
)

// numFeatures is the fixed width of the feature vector (§4.10's 20-feature
// set): current/lag1/lag2 enrolment, current/lag growth, category, teachers,
// classrooms, usable classrooms, classroom gap, teacher gap, risk score,
// teacher/classroom deficit ratios, district/management labels, rolling
// 3-year mean/std of enrolment, teachers-per-student, rooms-per-student.
const numFeatures = 20

// growthCapML mirrors the §4.10 fixed clip bound applied to both the
// training target and every prediction.
const growthCapML = 0.30

// panelRow is one (school_id, academic_year) record as queried from the
// store, with every joined dependency already defaulted via COALESCE.
type panelRow struct {
	schoolID         string
	district         string
	management       string
	category         int
	academicYear     string
	enrolment        int
	totalTeachers    int
	totalClassrooms  int
	usableClassrooms int
	classroomGap     int
	teacherGap       int
	riskScore        float64
	teacherDeficit   float64
	classroomDeficit float64
}

// sample is one school-year's feature vector, its feature-time enrolment
// (for the training floor filter), and the next-year growth target when a
// following year exists in the panel.
type sample struct {
	schoolID     string
	academicYear string
	enrolment    int
	features     []float64
	target       *float64
	hasTarget    bool
	// targetYear is the academic_year the target growth rate transitions
	// into (academicYear's next row), used to identify the held-out
	// most-recent transition for the train/test split.
	targetYear string
	// wmaBaseline is the closed-form §4.9 growth estimate at this same
	// feature time, kept alongside the ML features purely so the training
	// summary can report the model's lift over that baseline.
	wmaBaseline float64
}

func clippedGrowth(curr, prev int) float64 {
	if prev <= 0 {
		return 0
	}
	g := float64(curr-prev) / float64(prev)
	return clip(g, growthCapML)
}

func clip(g, cap float64) float64 {
	return math.Max(-cap, math.Min(cap, g))
}

// buildSamples turns one school's chronologically ordered panel rows into
// feature samples, one per year that has at least one prior year (lag1
// requires it). The final year's sample carries no target, since there is
// no following year to compute one against — it is the projection base.
func buildSamples(rows []panelRow, districtLabel, managementLabel map[string]int) []sample {
	var out []sample

	for i := 1; i < len(rows); i++ {
		cur := rows[i]
		prev := rows[i-1]

		lag1 := prev.enrolment
		lag2 := 0
		if i >= 2 {
			lag2 = rows[i-2].enrolment
		}
		lag3 := 0
		if i >= 3 {
			lag3 = rows[i-3].enrolment
		}

		currentGrowth := clippedGrowth(cur.enrolment, lag1)
		laggedGrowth := 0.0
		if i >= 2 {
			laggedGrowth = clippedGrowth(lag1, lag2)
		}

		mean, std := rollingStats(rows, i)

		teachersPerStudent := 0.0
		roomsPerStudent := 0.0
		if cur.enrolment > 0 {
			teachersPerStudent = float64(cur.totalTeachers) / float64(cur.enrolment)
			roomsPerStudent = float64(cur.usableClassrooms) / float64(cur.enrolment)
		}

		features := []float64{
			float64(cur.enrolment),
			float64(lag1),
			float64(lag2),
			currentGrowth,
			laggedGrowth,
			float64(cur.category),
			float64(cur.totalTeachers),
			float64(cur.totalClassrooms),
			float64(cur.usableClassrooms),
			float64(cur.classroomGap),
			float64(cur.teacherGap),
			cur.riskScore,
			cur.teacherDeficit,
			cur.classroomDeficit,
			float64(districtLabel[cur.district]),
			float64(managementLabel[cur.management]),
			mean,
			std,
			teachersPerStudent,
			roomsPerStudent,
		}

		// Missing older years contribute a zero delta, as in the WMA SQL.
		e2 := lag2
		if i < 2 {
			e2 = lag1
		}
		e3 := lag3
		if i < 3 {
			e3 = e2
		}

		s := sample{
			schoolID:     cur.schoolID,
			academicYear: cur.academicYear,
			enrolment:    cur.enrolment,
			features:     features,
			wmaBaseline:  forecastwma.Growth(cur.enrolment, lag1, e2, e3, growthCapML),
		}

		if i+1 < len(rows) {
			target := clippedGrowth(rows[i+1].enrolment, cur.enrolment)
			s.target = &target
			s.hasTarget = true
			s.targetYear = rows[i+1].academicYear
		}

		out = append(out, s)
	}

	return out
}

// rollingStats computes the mean and standard deviation of enrolment over
// the up-to-3 most recent years ending at index i, with the std-dev capped
// at 500 per §4.10.
func rollingStats(rows []panelRow, i int) (mean, std float64) {
	start := i - 2
	if start < 0 {
		start = 0
	}
	window := rows[start : i+1]

	sum := 0.0
	for _, r := range window {
		sum += float64(r.enrolment)
	}
	mean = sum / float64(len(window))

	variance := 0.0
	for _, r := range window {
		d := float64(r.enrolment) - mean
		variance += d * d
	}
	variance /= float64(len(window))
	std = math.Min(500, math.Sqrt(variance))

	return mean, std
}

// labelEncode assigns each distinct value a stable integer code in sorted
// order, so re-running training on the same panel reproduces the same
// encoding.
func labelEncode(values []string) map[string]int {
	seen := map[string]bool{}
	var unique []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	sort.Strings(unique)

	out := make(map[string]int, len(unique))
	for i, v := range unique {
		out[v] = i
	}
	return out
}
