package stats

import (
	"errors"
	"testing"
)

func TestGuardsOnEmptyInput(t *testing.T) {
	funcs := map[string]func([]float64) (float64, error){
		"min":    Min,
		"max":    Max,
		"mean":   Mean,
		"median": Median,
	}

	for name, fn := range funcs {
		t.Run(name, func(t *testing.T) {
			if _, err := fn(nil); !errors.Is(err, ErrNoData) {
				t.Fatalf("expected ErrNoData, got %v", err)
			}
		})
	}

	if _, err := ComputeMetrics([]float64{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData from ComputeMetrics, got %v", err)
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "odd", values: []float64{3, 1, 2}, want: 2},
		{name: "even", values: []float64{60000, 55000}, want: 57500},
		{name: "single", values: []float64{42}, want: 42},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Median(tc.values)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	values := []float64{3, 1, 2}
	_, _ = Median(values)
	if values[0] != 3 || values[1] != 1 {
		t.Fatalf("median reordered its input: %v", values)
	}
}

func TestComputeMetrics(t *testing.T) {
	m, err := ComputeMetrics([]float64{10000, 30000, 20000, 40000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Metrics{Min: 10000, Max: 40000, Avg: 25000, Median: 25000, Count: 4}
	if m != want {
		t.Fatalf("expected %+v, got %+v", want, m)
	}
}

func TestHistogramCoversEveryValue(t *testing.T) {
	values := []float64{10000, 12000, 15000, 19999, 20000, 35000, 50000}

	buckets, err := Histogram(values, 4, 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buckets) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(buckets))
	}

	total := 0
	for i, b := range buckets {
		total += b.Count
		if i > 0 && b.Start != buckets[i-1].End {
			t.Fatalf("buckets are not contiguous: %+v", buckets)
		}
	}
	if total != len(values) {
		t.Fatalf("expected %d values across buckets, got %d", len(values), total)
	}

	// the maximum is clamped into the last bucket
	if buckets[3].Count != 1 {
		t.Fatalf("expected the maximum in the last bucket, got %+v", buckets[3])
	}
	if buckets[0].Label() != "10000 - 20000" {
		t.Fatalf("unexpected label %q", buckets[0].Label())
	}
}

func TestHistogramIdenticalValues(t *testing.T) {
	buckets, err := Histogram([]float64{30000, 30000, 30000}, 10, 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if buckets[0].Count != 3 {
		t.Fatalf("expected all values in the first bucket, got %+v", buckets[0])
	}
	if buckets[0].Label() != "30000 - 40000" {
		t.Fatalf("unexpected label %q", buckets[0].Label())
	}
	for _, b := range buckets[1:] {
		if b.Count != 0 {
			t.Fatalf("expected empty trailing buckets, got %+v", b)
		}
	}
}

func TestHistogramErrors(t *testing.T) {
	if _, err := Histogram(nil, 10, 10000); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := Histogram([]float64{1}, 0, 10000); err == nil {
		t.Fatalf("expected error for zero buckets")
	}
	if _, err := Histogram([]float64{1, 1}, 10, 0); err == nil {
		t.Fatalf("expected error for zero fallback width")
	}
}
