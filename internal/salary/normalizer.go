// Package salary converts the heterogeneous hh.ru salary representation into
// monthly values in the primary currency.
package salary

import (
	"strings"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
)

const (
	ModeShift = "SHIFT"
	ModeHour  = "HOUR"

	DefaultCurrency = "RUR"
)

// Config holds the pay period heuristics. Multipliers are keyed by
// salary_range.mode.id; modes are matched case-insensitively because viper
// lowercases map keys. Modes missing from the table are treated as monthly.
type Config struct {
	PrimaryCurrency string             `mapstructure:"primary-currency"`
	Multipliers     map[string]float64 `mapstructure:"multipliers"`
}

// DefaultConfig returns shifts-per-month and hours-per-month used by the
// internal dashboard.
func DefaultConfig() Config {
	return Config{
		PrimaryCurrency: DefaultCurrency,
		Multipliers: map[string]float64{
			ModeShift: 20,
			ModeHour:  156,
		},
	}
}

// Normalized is a monthly salary triple.
type Normalized struct {
	Low     float64
	High    float64
	Average float64
}

// Normalizer is immutable once built and safe for concurrent use.
type Normalizer struct {
	currency    string
	multipliers map[string]float64
}

func NewNormalizer(cfg Config) *Normalizer {
	currency := strings.TrimSpace(cfg.PrimaryCurrency)
	if currency == "" {
		currency = DefaultCurrency
	}

	multipliers := make(map[string]float64, len(cfg.Multipliers))
	for mode, m := range cfg.Multipliers {
		multipliers[strings.ToUpper(strings.TrimSpace(mode))] = m
	}

	return &Normalizer{currency: currency, multipliers: multipliers}
}

// Multiplier returns the factor applied for the given salary_range mode.
func (n *Normalizer) Multiplier(mode string) float64 {
	if m, ok := n.multipliers[strings.ToUpper(mode)]; ok && m > 0 {
		return m
	}
	return 1
}

// Normalize returns the monthly salary of v. The second value is false when the
// vacancy has no usable salary: no salary group, no bounds, or a currency other
// than the primary one (no conversion is attempted).
func (n *Normalizer) Normalize(v *headhunter.Vacancy) (Normalized, bool) {
	if v == nil || v.Salary == nil {
		return Normalized{}, false
	}

	s := v.Salary
	if s.From == nil && s.To == nil {
		return Normalized{}, false
	}
	if !strings.EqualFold(s.Currency, n.currency) {
		return Normalized{}, false
	}

	low, high := bounds(s)
	m := n.Multiplier(v.SalaryMode())

	return Normalized{
		Low:     low * m,
		High:    high * m,
		Average: (low + high) / 2 * m,
	}, true
}

// Average is a shortcut for callers that only need the average.
func (n *Normalizer) Average(v *headhunter.Vacancy) (float64, bool) {
	norm, ok := n.Normalize(v)
	return norm.Average, ok
}

// bounds collapses a one-sided fork onto the present bound.
func bounds(s *headhunter.Salary) (low, high float64) {
	switch {
	case s.From != nil && s.To != nil:
		return *s.From, *s.To
	case s.From != nil:
		return *s.From, *s.From
	default:
		return *s.To, *s.To
	}
}
