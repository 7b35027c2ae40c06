package forecastwma

import "math"

// Growth computes the closed-form weighted-moving-average growth rate from
// the last three years' enrolment, clipped to [-cap, cap] (§4.9). e1 is the
// immediately preceding year; e2, e3 the two before that. A non-positive e1
// yields zero growth rather than a division by zero.
func Growth(e, e1, e2, e3 int, cap float64) float64 {
	if e1 <= 0 {
		return 0
	}
	delta1 := float64(e - e1)
	delta2 := float64(e1 - e2)
	delta3 := float64(e2 - e3)
	g := (3*delta1 + 2*delta2 + delta3) / (6 * float64(e1))
	return math.Max(-cap, math.Min(cap, g))
}

// Project compounds growth geometrically for k years ahead, floored at zero
// (§4.9).
func Project(e int, g float64, k int) int {
	v := math.Round(float64(e) * math.Pow(1+g, float64(k)))
	if v < 0 {
		return 0
	}
	return int(v)
}
