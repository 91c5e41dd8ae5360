package stats

import (
	"sort"
	"strings"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"github.com/swwwjjw/barometer-pulkovo/internal/salary"
)

const (
	DefaultBuckets            = 10
	DefaultFallbackWidth      = 10000
	DefaultDesignatedEmployer = "666661"
	DefaultUnknownLabel       = "Не указано"
	DefaultNoExperienceLabel  = "Нет опыта"
	noExperienceID            = "noExperience"
)

type Config struct {
	Buckets            int                `mapstructure:"buckets"`
	FallbackWidth      float64            `mapstructure:"fallback-width"`
	DesignatedEmployer string             `mapstructure:"designated-employer"`
	ExperienceLevels   map[string]float64 `mapstructure:"experience-levels"`
	UnknownLabel       string             `mapstructure:"unknown-label"`
	NoExperienceLabel  string             `mapstructure:"no-experience-label"`
}

func DefaultConfig() Config {
	return Config{
		Buckets:            DefaultBuckets,
		FallbackWidth:      DefaultFallbackWidth,
		DesignatedEmployer: DefaultDesignatedEmployer,
		ExperienceLevels: map[string]float64{
			"noExperience": 0,
			"between1And3": 2,
			"between3And6": 4.5,
			"moreThan6":    8,
		},
		UnknownLabel:      DefaultUnknownLabel,
		NoExperienceLabel: DefaultNoExperienceLabel,
	}
}

// Comparison splits the cohort by employer: the designated employer against
// every other employer. A side without salaries is nil.
type Comparison struct {
	Designated *float64
	Market     *float64
}

// Count is one entry of a categorical frequency table.
type Count struct {
	Name  string
	Value int
}

// Bubble groups vacancies with the same average salary and experience level.
type Bubble struct {
	Salary          float64
	Experience      float64
	ExperienceLabel string
	Count           int
}

// Summary is the aggregate of one cohort. When NoData is set no salary-derived
// section was computed; categorical tables are still filled.
type Summary struct {
	NoData     bool
	Total      int
	Metrics    Metrics
	Comparison Comparison
	Histogram  []Bucket
	Bubbles    []Bubble
	Experience []Count
	Employment []Count
	Schedule   []Count
}

// Aggregator is stateless between calls and safe for concurrent use.
type Aggregator struct {
	cfg        Config
	normalizer *salary.Normalizer
	levels     map[string]float64
}

func NewAggregator(cfg Config, n *salary.Normalizer) *Aggregator {
	def := DefaultConfig()
	if cfg.Buckets <= 0 {
		cfg.Buckets = def.Buckets
	}
	if cfg.FallbackWidth <= 0 {
		cfg.FallbackWidth = def.FallbackWidth
	}
	if cfg.ExperienceLevels == nil {
		cfg.ExperienceLevels = def.ExperienceLevels
	}
	if cfg.UnknownLabel == "" {
		cfg.UnknownLabel = def.UnknownLabel
	}
	if cfg.NoExperienceLabel == "" {
		cfg.NoExperienceLabel = def.NoExperienceLabel
	}

	levels := make(map[string]float64, len(cfg.ExperienceLevels))
	for id, level := range cfg.ExperienceLevels {
		levels[strings.ToLower(id)] = level
	}

	return &Aggregator{cfg: cfg, normalizer: n, levels: levels}
}

// Summarize aggregates the cohort.
func (a *Aggregator) Summarize(records []*headhunter.Vacancy) *Summary {
	summary := &Summary{
		Total:      len(records),
		Experience: countBy(records, a.experienceLabel),
		Employment: countBy(records, func(v *headhunter.Vacancy) string { return a.label(v.Employment) }),
		Schedule:   countBy(records, func(v *headhunter.Vacancy) string { return a.label(v.Schedule) }),
	}

	var (
		averages   []float64
		designated []float64
		market     []float64
		bubbles    []Bubble
		bubbleIdx  = make(map[[2]float64]int)
	)

	for _, v := range records {
		avg, ok := a.normalizer.Average(v)
		if !ok {
			continue
		}
		averages = append(averages, avg)

		if a.cfg.DesignatedEmployer != "" && v.EmployerID() == a.cfg.DesignatedEmployer {
			designated = append(designated, avg)
		} else {
			market = append(market, avg)
		}

		level := a.experienceLevel(v)
		key := [2]float64{avg, level}
		if idx, ok := bubbleIdx[key]; ok {
			bubbles[idx].Count++
			continue
		}
		bubbleIdx[key] = len(bubbles)
		bubbles = append(bubbles, Bubble{Salary: avg, Experience: level, ExperienceLabel: a.bubbleLabel(v), Count: 1})
	}

	metrics, err := ComputeMetrics(averages)
	if err != nil {
		summary.NoData = true
		return summary
	}
	summary.Metrics = metrics

	summary.Comparison = Comparison{Designated: meanOrNil(designated), Market: meanOrNil(market)}

	// averages is non-empty and Buckets/FallbackWidth are positive
	summary.Histogram, _ = Histogram(averages, a.cfg.Buckets, a.cfg.FallbackWidth)

	sort.SliceStable(bubbles, func(i, j int) bool {
		if bubbles[i].Experience != bubbles[j].Experience {
			return bubbles[i].Experience < bubbles[j].Experience
		}
		return bubbles[i].Salary < bubbles[j].Salary
	})
	summary.Bubbles = bubbles

	return summary
}

func (a *Aggregator) label(l *headhunter.Label) string {
	if l == nil || strings.TrimSpace(l.Name) == "" {
		return a.cfg.UnknownLabel
	}
	return l.Name
}

func (a *Aggregator) experienceLabel(v *headhunter.Vacancy) string {
	return a.label(v.Experience)
}

// bubbleLabel defaults to the "no experience" label like the experience level does.
func (a *Aggregator) bubbleLabel(v *headhunter.Vacancy) string {
	if v.Experience == nil || strings.TrimSpace(v.Experience.Name) == "" {
		return a.cfg.NoExperienceLabel
	}
	return v.Experience.Name
}

// experienceLevel maps experience ids to approximate years; unknown ids are 0.
func (a *Aggregator) experienceLevel(v *headhunter.Vacancy) float64 {
	id := noExperienceID
	if v.Experience != nil && v.Experience.ID != "" {
		id = v.Experience.ID
	}
	return a.levels[strings.ToLower(id)]
}

func meanOrNil(values []float64) *float64 {
	mean, err := Mean(values)
	if err != nil {
		return nil
	}
	return &mean
}

// countBy builds a frequency table ordered by count desc, then name.
func countBy(records []*headhunter.Vacancy, key func(*headhunter.Vacancy) string) []Count {
	counts := make(map[string]int)
	for _, v := range records {
		counts[key(v)]++
	}

	table := make([]Count, 0, len(counts))
	for name, value := range counts {
		table = append(table, Count{Name: name, Value: value})
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Value != table[j].Value {
			return table[i].Value > table[j].Value
		}
		return table[i].Name < table[j].Name
	})

	return table
}
