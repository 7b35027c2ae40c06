// Package norms holds the UDISE+ category → norm policy tables. This is the
// single place the classroom and PTR norms are defined; nothing downstream
// re-encodes them as inline conditionals.
package norms

import (
	"math"
	"sort"
	"strconv"
)

// classroomNorm maps a UDISE+ school category to students-per-classroom.
var classroomNorm = map[int]int{
	1: 30, 2: 30, 3: 30,
	4: 35, 5: 35,
	6: 40, 7: 40, 8: 40, 9: 40, 10: 40, 11: 40,
}

// ptrNorm maps a UDISE+ school category to the pupil-teacher ratio norm.
var ptrNorm = map[int]int{
	1: 30, 2: 30, 3: 30, 5: 30, 6: 30,
	4: 35, 7: 35, 8: 35, 9: 35, 10: 35, 11: 35,
}

// defaultClassroomNorm is used for missing or out-of-range categories: the
// most permissive value, matching §4.2's "most permissive for secondary"
// fallback.
const defaultClassroomNorm = 40

// defaultPTRNorm mirrors the same fallback for the teacher adequacy engine.
const defaultPTRNorm = 35

// ClassroomNorm returns the students-per-classroom norm for a category and
// whether the category was recognized.
func ClassroomNorm(category int) (norm int, known bool) {
	n, ok := classroomNorm[category]
	if !ok {
		return defaultClassroomNorm, false
	}
	return n, true
}

// PTRNorm returns the pupil-teacher-ratio norm for a category and whether
// the category was recognized.
func PTRNorm(category int) (norm int, known bool) {
	n, ok := ptrNorm[category]
	if !ok {
		return defaultPTRNorm, false
	}
	return n, true
}

// RequiredCount returns the ceiling of enrolment/norm, treating a
// non-positive enrolment as zero required.
func RequiredCount(enrolment, norm int) int {
	if enrolment <= 0 || norm <= 0 {
		return 0
	}
	return int(math.Ceil(float64(enrolment) / float64(norm)))
}

// Gap returns max(0, required-actual).
func Gap(required, actual int) int {
	g := required - actual
	if g < 0 {
		return 0
	}
	return g
}

// CategoryValuesSQL renders the category table as a Postgres VALUES list,
// e.g. "(1,30),(2,30),...", for use in a JOIN instead of an inline CASE.
func CategoryValuesSQL(table map[int]int) string {
	// Deterministic order keeps generated SQL stable across runs (helps
	// property 8, idempotence-by-inspection, when diffing generated queries
	// in logs).
	keys := make([]int, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += "(" + strconv.Itoa(k) + "," + strconv.Itoa(table[k]) + ")"
	}
	return out
}

// ClassroomNormTable exposes the map for callers building VALUES clauses.
func ClassroomNormTable() map[int]int { return classroomNorm }

// PTRNormTable exposes the map for callers building VALUES clauses.
func PTRNormTable() map[int]int { return ptrNorm }
