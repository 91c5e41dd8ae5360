package stats

import (
	"fmt"
	"math"
)

// Bucket is a half-open salary range [Start, End) with its member count.
// The last bucket also holds the maximum value.
type Bucket struct {
	Start float64
	End   float64
	Count int
}

// Label renders the bucket boundaries rounded to whole currency units.
func (b Bucket) Label() string {
	return fmt.Sprintf("%d - %d", int64(math.Round(b.Start)), int64(math.Round(b.End)))
}

// Histogram spreads values over n equal-width buckets spanning [min, max].
// When all values are equal, fallbackWidth is used as the bucket width.
// Every bucket is returned, ordered by Start, including empty ones.
func Histogram(values []float64, n int, fallbackWidth float64) ([]Bucket, error) {
	if n <= 0 {
		return nil, fmt.Errorf("bucket count must be positive, got %d", n)
	}

	minV, err := Min(values)
	if err != nil {
		return nil, err
	}
	maxV, _ := Max(values)

	width := (maxV - minV) / float64(n)
	if width <= 0 {
		width = fallbackWidth
	}
	if width <= 0 {
		return nil, fmt.Errorf("fallback bucket width must be positive, got %v", fallbackWidth)
	}

	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i].Start = minV + float64(i)*width
		buckets[i].End = minV + float64(i+1)*width
	}

	for _, v := range values {
		idx := int(math.Floor((v - minV) / width))
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		buckets[idx].Count++
	}

	return buckets, nil
}
