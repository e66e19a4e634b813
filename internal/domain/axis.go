package domain

import (
	"math"
	"sort"
)

// Nearest returns the axis value with the minimum absolute difference to
// target. Ties are broken by the lowest index, so on an ascending axis the
// lower of two equidistant values wins. Returns ErrEmptyAxis when the axis
// has no values.
func Nearest(axis []float64, target float64) (float64, error) {
	if len(axis) == 0 {
		return 0, ErrEmptyAxis
	}

	best := axis[0]
	bestDiff := math.Abs(axis[0] - target)

	for _, v := range axis[1:] {
		if d := math.Abs(v - target); d < bestDiff {
			best = v
			bestDiff = d
		}
	}

	return best, nil
}

// NearestIndex returns the index of the axis value closest to target, with
// the same tie-break rule as Nearest.
func NearestIndex(axis []float64, target float64) (int, error) {
	if len(axis) == 0 {
		return 0, ErrEmptyAxis
	}

	best := 0
	bestDiff := math.Abs(axis[0] - target)

	for i, v := range axis[1:] {
		if d := math.Abs(v - target); d < bestDiff {
			best = i + 1
			bestDiff = d
		}
	}

	return best, nil
}

// UniqueSorted returns the distinct values of vs in ascending order.
// The input slice is not modified.
func UniqueSorted(vs []float64) []float64 {
	if len(vs) == 0 {
		return []float64{}
	}

	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}

	return out
}
