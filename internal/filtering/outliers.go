package filtering

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"github.com/swwwjjw/barometer-pulkovo/internal/salary"
	"github.com/swwwjjw/barometer-pulkovo/internal/stats"
)

// Band is the accepted salary range around the cohort median:
// [median / LowDivisor, median * Multiplier]. A zero LowDivisor disables the
// lower bound.
type Band struct {
	Multiplier float64
	LowDivisor float64
}

func (b Band) Validate() error {
	if math.IsNaN(b.Multiplier) || math.IsInf(b.Multiplier, 0) || b.Multiplier <= 0 {
		return errors.New("outlier multiplier must be a positive number")
	}
	if math.IsNaN(b.LowDivisor) || math.IsInf(b.LowDivisor, 0) || b.LowDivisor < 0 {
		return errors.New("outlier low divisor must be zero or a positive number")
	}
	return nil
}

// OutlierStats makes the filtering auditable. Median and thresholds are nil
// when no vacancy in the cohort had a salary.
type OutlierStats struct {
	TotalBefore  int
	TotalAfter   int
	Filtered     int
	FilteredHigh int
	FilteredLow  int
	Median       *float64
	Threshold    *float64
	LowThreshold *float64
}

// SplitOutliers drops salaried vacancies outside the band around the cohort's
// own median average salary. Vacancies without a usable salary are always kept
// and appended after the kept salaried ones.
func SplitOutliers(v *headhunter.Vacancies, n *salary.Normalizer, band Band) (*headhunter.Vacancies, OutlierStats) {
	type salaried struct {
		vacancy *headhunter.Vacancy
		average float64
	}

	var (
		withSalary []salaried
		without    []*headhunter.Vacancy
	)
	for _, vacancy := range v.Items {
		if avg, ok := n.Average(vacancy); ok {
			withSalary = append(withSalary, salaried{vacancy: vacancy, average: avg})
			continue
		}
		without = append(without, vacancy)
	}

	result := OutlierStats{TotalBefore: v.Len()}

	if len(withSalary) == 0 {
		result.TotalAfter = len(without)
		return &headhunter.Vacancies{Items: without}, result
	}

	averages := make([]float64, 0, len(withSalary))
	for _, s := range withSalary {
		averages = append(averages, s.average)
	}

	// averages is non-empty here
	median, _ := stats.Median(averages)
	upper := median * band.Multiplier
	result.Median = &median
	result.Threshold = &upper

	if band.LowDivisor > 0 {
		lower := median / band.LowDivisor
		result.LowThreshold = &lower
	}

	kept := make([]*headhunter.Vacancy, 0, v.Len())
	for _, s := range withSalary {
		switch {
		case s.average > upper:
			result.FilteredHigh++
		case result.LowThreshold != nil && s.average < *result.LowThreshold:
			result.FilteredLow++
		default:
			kept = append(kept, s.vacancy)
		}
	}
	kept = append(kept, without...)

	result.Filtered = result.FilteredHigh + result.FilteredLow
	result.TotalAfter = len(kept)

	return &headhunter.Vacancies{Items: kept}, result
}

type outliersFilter struct {
	disabled   bool
	reason     string
	normalizer *salary.Normalizer
	band       Band
	stats      OutlierStats
}

// NewOutliers creates the median-relative outlier step. A filter instance holds
// the statistics of its last Apply, so build one per query.
func NewOutliers(n *salary.Normalizer, band Band) Filter {
	return &outliersFilter{normalizer: n, band: band}
}

func (f *outliersFilter) Name() string { return "outliers" }

func (f *outliersFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *outliersFilter) IsEnabled() bool { return !f.disabled }

func (f *outliersFilter) Validate() error {
	if f.normalizer == nil {
		return errors.New("salary normalizer is required")
	}
	return f.band.Validate()
}

func (f *outliersFilter) Apply(_ context.Context, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	kept, outcome := SplitOutliers(v, f.normalizer, f.band)
	f.stats = outcome

	return kept, Step{Initial: outcome.TotalBefore, Dropped: outcome.Filtered, Left: outcome.TotalAfter}, nil
}

func (f *outliersFilter) Outliers() OutlierStats {
	return f.stats
}

func (f *outliersFilter) Status() Status {
	details := map[string]string{
		"multiplier": strconv.FormatFloat(f.band.Multiplier, 'f', -1, 64),
	}
	if f.band.LowDivisor > 0 {
		details["low_divisor"] = strconv.FormatFloat(f.band.LowDivisor, 'f', -1, 64)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
