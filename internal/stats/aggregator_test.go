package stats

import (
	"testing"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"github.com/swwwjjw/barometer-pulkovo/internal/salary"
)

func ptr(f float64) *float64 { return &f }

type vacancyOpt func(*headhunter.Vacancy)

func withEmployer(id string) vacancyOpt {
	return func(v *headhunter.Vacancy) { v.Employer = &headhunter.Employer{ID: id} }
}

func withExperience(id, name string) vacancyOpt {
	return func(v *headhunter.Vacancy) { v.Experience = &headhunter.Label{ID: id, Name: name} }
}

func withSchedule(name string) vacancyOpt {
	return func(v *headhunter.Vacancy) { v.Schedule = &headhunter.Label{ID: name, Name: name} }
}

func vacancy(id string, avg float64, currency string, opts ...vacancyOpt) *headhunter.Vacancy {
	v := &headhunter.Vacancy{ID: id}
	if currency != "" {
		v.Salary = &headhunter.Salary{From: ptr(avg), To: ptr(avg), Currency: currency}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func newAggregator() *Aggregator {
	return NewAggregator(DefaultConfig(), salary.NewNormalizer(salary.DefaultConfig()))
}

func TestSummarizeNoData(t *testing.T) {
	s := newAggregator().Summarize([]*headhunter.Vacancy{
		vacancy("1", 0, "", withSchedule("Полный день")),
		vacancy("2", 1500, "USD"),
	})

	if !s.NoData {
		t.Fatalf("expected NoData")
	}
	if s.Total != 2 || s.Histogram != nil || s.Bubbles != nil || s.Comparison.Market != nil {
		t.Fatalf("salary sections must stay empty: %+v", s)
	}
	if len(s.Schedule) != 2 {
		t.Fatalf("categorical tables are filled without salaries, got %+v", s.Schedule)
	}

	empty := newAggregator().Summarize(nil)
	if !empty.NoData || empty.Total != 0 {
		t.Fatalf("expected NoData for an empty cohort: %+v", empty)
	}
}

func TestSummarizeForeignCurrencyStillCounted(t *testing.T) {
	s := newAggregator().Summarize([]*headhunter.Vacancy{
		vacancy("1", 50000, "RUR", withSchedule("Сменный график")),
		vacancy("2", 3000, "USD", withSchedule("Сменный график")),
	})

	if s.Metrics.Count != 1 || s.Metrics.Avg != 50000 {
		t.Fatalf("USD vacancy must not reach salary metrics: %+v", s.Metrics)
	}
	if len(s.Schedule) != 1 || s.Schedule[0].Value != 2 {
		t.Fatalf("USD vacancy must count toward distributions: %+v", s.Schedule)
	}
}

func TestSummarizeComparison(t *testing.T) {
	cases := []struct {
		name       string
		records    []*headhunter.Vacancy
		designated *float64
		market     *float64
	}{
		{
			name: "both sides",
			records: []*headhunter.Vacancy{
				vacancy("1", 40000, "RUR", withEmployer(DefaultDesignatedEmployer)),
				vacancy("2", 60000, "RUR", withEmployer(DefaultDesignatedEmployer)),
				vacancy("3", 70000, "RUR", withEmployer("42")),
				vacancy("4", 90000, "RUR"),
			},
			designated: ptr(50000),
			market:     ptr(80000),
		},
		{
			name: "no designated employer",
			records: []*headhunter.Vacancy{
				vacancy("1", 70000, "RUR", withEmployer("42")),
			},
			market: ptr(70000),
		},
		{
			name: "only designated employer",
			records: []*headhunter.Vacancy{
				vacancy("1", 30000, "RUR", withEmployer(DefaultDesignatedEmployer)),
			},
			designated: ptr(30000),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newAggregator().Summarize(tc.records).Comparison
			if !sameFloat(c.Designated, tc.designated) || !sameFloat(c.Market, tc.market) {
				t.Fatalf("unexpected comparison: designated=%v market=%v", deref(c.Designated), deref(c.Market))
			}
		})
	}
}

func TestSummarizeCategoricalOrder(t *testing.T) {
	s := newAggregator().Summarize([]*headhunter.Vacancy{
		vacancy("1", 10000, "RUR", withExperience("between1And3", "От 1 года до 3 лет")),
		vacancy("2", 10000, "RUR", withExperience("noExperience", "Нет опыта")),
		vacancy("3", 10000, "RUR", withExperience("between1And3", "От 1 года до 3 лет")),
		vacancy("4", 10000, "RUR"),
	})

	want := []Count{
		{Name: "От 1 года до 3 лет", Value: 2},
		{Name: "Не указано", Value: 1},
		{Name: "Нет опыта", Value: 1},
	}
	if len(s.Experience) != len(want) {
		t.Fatalf("unexpected experience table: %+v", s.Experience)
	}
	for i := range want {
		if s.Experience[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], s.Experience[i])
		}
	}
	if s.Employment[0].Name != DefaultUnknownLabel || s.Employment[0].Value != 4 {
		t.Fatalf("missing employment must be labelled unknown: %+v", s.Employment)
	}
}

func TestSummarizeBubbles(t *testing.T) {
	s := newAggregator().Summarize([]*headhunter.Vacancy{
		vacancy("1", 80000, "RUR", withExperience("moreThan6", "Более 6 лет")),
		vacancy("2", 50000, "RUR", withExperience("between1And3", "От 1 года до 3 лет")),
		vacancy("3", 50000, "RUR", withExperience("between1And3", "1–3 года")),
		vacancy("4", 30000, "RUR"),
		vacancy("5", 20000, "RUR", withExperience("between1And3", "От 1 года до 3 лет")),
	})

	want := []Bubble{
		{Salary: 30000, Experience: 0, ExperienceLabel: DefaultNoExperienceLabel, Count: 1},
		{Salary: 20000, Experience: 2, ExperienceLabel: "От 1 года до 3 лет", Count: 1},
		{Salary: 50000, Experience: 2, ExperienceLabel: "От 1 года до 3 лет", Count: 2},
		{Salary: 80000, Experience: 8, ExperienceLabel: "Более 6 лет", Count: 1},
	}

	if len(s.Bubbles) != len(want) {
		t.Fatalf("expected %d bubbles, got %+v", len(want), s.Bubbles)
	}

	total := 0
	for i := range want {
		total += s.Bubbles[i].Count
		if i > 0 && s.Bubbles[i].Experience == s.Bubbles[i-1].Experience && s.Bubbles[i].Salary < s.Bubbles[i-1].Salary {
			t.Fatalf("bubbles are not sorted: %+v", s.Bubbles)
		}
	}
	if s.Bubbles[0] != want[0] || s.Bubbles[3] != want[3] {
		t.Fatalf("unexpected bubbles: %+v", s.Bubbles)
	}
	if s.Bubbles[2] != want[2] {
		t.Fatalf("expected label of the first grouped vacancy, got %+v", s.Bubbles[2])
	}
	if total != s.Metrics.Count {
		t.Fatalf("bubble counts %d must sum to the salaried count %d", total, s.Metrics.Count)
	}
}

func TestNewAggregatorFillsDefaults(t *testing.T) {
	a := NewAggregator(Config{ExperienceLevels: map[string]float64{"betweenone": 1}}, salary.NewNormalizer(salary.Config{}))

	if a.cfg.Buckets != DefaultBuckets || a.cfg.FallbackWidth != DefaultFallbackWidth {
		t.Fatalf("unexpected defaults: %+v", a.cfg)
	}
	if a.cfg.DesignatedEmployer != "" {
		t.Fatalf("designated employer must stay as configured")
	}

	level := a.experienceLevel(vacancy("1", 1, "RUR", withExperience("betweenOne", "x")))
	if level != 1 {
		t.Fatalf("experience ids must match case-insensitively, got %v", level)
	}
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
