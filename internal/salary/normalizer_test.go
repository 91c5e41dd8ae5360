package salary

import (
	"testing"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
)

func ptr(f float64) *float64 { return &f }

func withMode(v *headhunter.Vacancy, mode string) *headhunter.Vacancy {
	v.SalaryRange = &headhunter.SalaryRange{Mode: &headhunter.Label{ID: mode}}
	return v
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(DefaultConfig())

	tests := []struct {
		name    string
		vacancy *headhunter.Vacancy
		ok      bool
		expect  Normalized
	}{
		{
			name:    "no salary group",
			vacancy: &headhunter.Vacancy{ID: "1"},
		},
		{
			name:    "salary without bounds",
			vacancy: &headhunter.Vacancy{Salary: &headhunter.Salary{Currency: "RUR"}},
		},
		{
			name:    "foreign currency is dropped",
			vacancy: &headhunter.Vacancy{Salary: &headhunter.Salary{From: ptr(1000), To: ptr(2000), Currency: "USD"}},
		},
		{
			name:    "both bounds monthly",
			vacancy: &headhunter.Vacancy{Salary: &headhunter.Salary{From: ptr(50000), To: ptr(70000), Currency: "RUR"}},
			ok:      true,
			expect:  Normalized{Low: 50000, High: 70000, Average: 60000},
		},
		{
			name:    "only from collapses",
			vacancy: &headhunter.Vacancy{Salary: &headhunter.Salary{From: ptr(55000), Currency: "RUR"}},
			ok:      true,
			expect:  Normalized{Low: 55000, High: 55000, Average: 55000},
		},
		{
			name:    "only to collapses",
			vacancy: &headhunter.Vacancy{Salary: &headhunter.Salary{To: ptr(40000), Currency: "RUR"}},
			ok:      true,
			expect:  Normalized{Low: 40000, High: 40000, Average: 40000},
		},
		{
			name: "shift mode",
			vacancy: withMode(&headhunter.Vacancy{
				Salary: &headhunter.Salary{From: ptr(1000), To: ptr(1000), Currency: "RUR"},
			}, ModeShift),
			ok:     true,
			expect: Normalized{Low: 20000, High: 20000, Average: 20000},
		},
		{
			name: "hour mode scales each bound",
			vacancy: withMode(&headhunter.Vacancy{
				Salary: &headhunter.Salary{From: ptr(200), To: ptr(300), Currency: "RUR"},
			}, ModeHour),
			ok:     true,
			expect: Normalized{Low: 31200, High: 46800, Average: 39000},
		},
		{
			name: "unknown mode is monthly",
			vacancy: withMode(&headhunter.Vacancy{
				Salary: &headhunter.Salary{From: ptr(80000), Currency: "RUR"},
			}, "FLY_IN_FLY_OUT"),
			ok:     true,
			expect: Normalized{Low: 80000, High: 80000, Average: 80000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := n.Normalize(tt.vacancy)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.expect {
				t.Fatalf("expected %+v, got %+v", tt.expect, got)
			}
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	v := withMode(&headhunter.Vacancy{Salary: &headhunter.Salary{From: ptr(1500), Currency: "RUR"}}, ModeShift)

	first, _ := n.Normalize(v)
	second, _ := n.Normalize(v)
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if *v.Salary.From != 1500 {
		t.Fatalf("input was mutated")
	}
}

func TestMultiplierOverrides(t *testing.T) {
	// viper hands over lowercased keys
	n := NewNormalizer(Config{
		PrimaryCurrency: "rur",
		Multipliers:     map[string]float64{"shift": 15, "hour": 165, "month": 0},
	})

	if got := n.Multiplier("SHIFT"); got != 15 {
		t.Fatalf("expected shift multiplier 15, got %v", got)
	}
	if got := n.Multiplier("HOUR"); got != 165 {
		t.Fatalf("expected hour multiplier 165, got %v", got)
	}
	if got := n.Multiplier("MONTH"); got != 1 {
		t.Fatalf("expected non-positive override to fall back to 1, got %v", got)
	}
	if got := n.Multiplier(""); got != 1 {
		t.Fatalf("expected absent mode to be 1, got %v", got)
	}

	avg, ok := n.Average(&headhunter.Vacancy{Salary: &headhunter.Salary{From: ptr(100), Currency: "RUR"}})
	if !ok || avg != 100 {
		t.Fatalf("expected currency match to be case-insensitive, got %v %v", avg, ok)
	}
}
