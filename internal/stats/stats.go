// Package stats computes distributional statistics over a salary cohort.
//
// Every reduction over a slice is guarded: computing it over zero elements
// returns ErrNoData instead of a NaN or a panic.
package stats

import (
	"errors"
	"sort"
)

var ErrNoData = errors.New("no salary data")

func Min(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoData
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m, nil
}

func Max(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoData
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m, nil
}

func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoData
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Median does not reorder values.
func Median(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoData
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return (sorted[mid-1] + sorted[mid]) / 2, nil
}

// Metrics are the central statistics of the average salaries.
type Metrics struct {
	Min    float64
	Max    float64
	Avg    float64
	Median float64
	Count  int
}

// ComputeMetrics returns ErrNoData for an empty slice.
func ComputeMetrics(values []float64) (Metrics, error) {
	if len(values) == 0 {
		return Metrics{}, ErrNoData
	}

	// none of these can fail on a non-empty slice
	minV, _ := Min(values)
	maxV, _ := Max(values)
	mean, _ := Mean(values)
	median, _ := Median(values)

	return Metrics{Min: minV, Max: maxV, Avg: mean, Median: median, Count: len(values)}, nil
}
