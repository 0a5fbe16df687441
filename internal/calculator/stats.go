package calculator

import (
	"math"
	"sort"
)

// Percentile returns the element at index min(int(n*p/100), n-1) of the sorted
// values. It returns 0 for an empty slice. The input is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * p / 100)
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// NonZero returns the values that are strictly positive.
func NonZero(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// AbsNonZero returns |v| for every v != 0.
func AbsNonZero(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != 0 {
			out = append(out, math.Abs(v))
		}
	}
	return out
}

// Max returns the largest value, or 0 for an empty slice.
func Max(values []float64) float64 {
	m := 0.0
	for i, v := range values {
		if i == 0 || v > m {
			m = v
		}
	}
	return m
}

// PercentChange returns (cur-prev)/prev*100, or 0 when prev is not positive.
func PercentChange(cur, prev float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
