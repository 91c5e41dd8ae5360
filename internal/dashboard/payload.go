package dashboard

import (
	"math"

	"github.com/swwwjjw/barometer-pulkovo/internal/filtering"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
	"github.com/swwwjjw/barometer-pulkovo/internal/stats"
)

// StatsPayload is the JSON document consumed by the dashboard frontend.
// Comparison and BubbleData are only set for role queries; a role query
// always carries bubble_data, empty when there is no data.
type StatsPayload struct {
	Role             string           `json:"role,omitempty"`
	NoData           bool             `json:"no_data"`
	TotalCount       int              `json:"total_count"`
	Metrics          *MetricsPayload  `json:"metrics"`
	Comparison       *ComparisonEntry `json:"comparison,omitempty"`
	BubbleData       []BubbleEntry    `json:"bubble_data,omitzero"`
	SalaryDist       []BucketEntry    `json:"salary_dist"`
	ExperienceDist   []CountEntry     `json:"experience_dist"`
	EmploymentDist   []CountEntry     `json:"employment_dist"`
	ScheduleDist     []CountEntry     `json:"schedule_dist"`
	OutliersFiltered bool             `json:"outliers_filtered"`
	FilterStats      FilterStats      `json:"filter_stats"`
}

type MetricsPayload struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

type ComparisonEntry struct {
	Designated *float64 `json:"designated"`
	Market     *float64 `json:"market"`
}

type BubbleEntry struct {
	Salary          float64 `json:"salary"`
	Experience      float64 `json:"experience"`
	ExperienceLabel string  `json:"experience_label"`
	Count           int     `json:"count"`
}

type BucketEntry struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type CountEntry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type FilterStats struct {
	TotalBefore  int      `json:"total_before_filter"`
	FilteredOut  int      `json:"filtered_out_count"`
	TotalAfter   int      `json:"total_after_filter"`
	Median       *float64 `json:"median_salary_for_filter"`
	Threshold    *float64 `json:"threshold_salary"`
	LowThreshold *float64 `json:"low_threshold_salary,omitempty"`
	FilteredHigh int      `json:"filtered_high_count"`
	FilteredLow  int      `json:"filtered_low_count"`
}

func buildRolePayload(role roles.Role, s *stats.Summary, fs filtering.OutlierStats, filtered bool) *StatsPayload {
	p := basePayload(s, fs, filtered)
	p.Role = role.Name
	p.Comparison = &ComparisonEntry{}
	p.BubbleData = []BubbleEntry{}

	if s.NoData {
		return p
	}

	p.Comparison.Designated = round2Ptr(s.Comparison.Designated)
	p.Comparison.Market = round2Ptr(s.Comparison.Market)

	p.BubbleData = bubbleEntries(s.Bubbles)

	return p
}

// bubbleEntries rounds salaries and merges bubbles that become equal after
// rounding. Bubbles come ordered by experience then salary and rounding keeps
// that order, so equal entries are adjacent.
func bubbleEntries(bubbles []stats.Bubble) []BubbleEntry {
	entries := make([]BubbleEntry, 0, len(bubbles))
	for _, b := range bubbles {
		salary := round2(b.Salary)
		if n := len(entries); n > 0 && entries[n-1].Salary == salary && entries[n-1].Experience == b.Experience {
			entries[n-1].Count += b.Count
			continue
		}
		entries = append(entries, BubbleEntry{
			Salary:          salary,
			Experience:      b.Experience,
			ExperienceLabel: b.ExperienceLabel,
			Count:           b.Count,
		})
	}
	return entries
}

func buildGlobalPayload(s *stats.Summary, fs filtering.OutlierStats, filtered bool) *StatsPayload {
	return basePayload(s, fs, filtered)
}

func basePayload(s *stats.Summary, fs filtering.OutlierStats, filtered bool) *StatsPayload {
	p := &StatsPayload{
		NoData:           s.NoData,
		TotalCount:       s.Total,
		SalaryDist:       []BucketEntry{},
		ExperienceDist:   countEntries(s.Experience),
		EmploymentDist:   countEntries(s.Employment),
		ScheduleDist:     countEntries(s.Schedule),
		OutliersFiltered: filtered,
		FilterStats: FilterStats{
			TotalBefore:  fs.TotalBefore,
			FilteredOut:  fs.Filtered,
			TotalAfter:   fs.TotalAfter,
			Median:       round2Ptr(fs.Median),
			Threshold:    round2Ptr(fs.Threshold),
			LowThreshold: round2Ptr(fs.LowThreshold),
			FilteredHigh: fs.FilteredHigh,
			FilteredLow:  fs.FilteredLow,
		},
	}

	if s.NoData {
		return p
	}

	p.Metrics = &MetricsPayload{
		Min:    round2(s.Metrics.Min),
		Max:    round2(s.Metrics.Max),
		Avg:    round2(s.Metrics.Avg),
		Median: round2(s.Metrics.Median),
		Count:  s.Metrics.Count,
	}

	for _, b := range s.Histogram {
		p.SalaryDist = append(p.SalaryDist, BucketEntry{Range: b.Label(), Count: b.Count})
	}

	return p
}

func countEntries(counts []stats.Count) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for _, c := range counts {
		entries = append(entries, CountEntry{Name: c.Name, Value: c.Value})
	}
	return entries
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round2Ptr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	r := round2(*f)
	return &r
}
