package filtering

import (
	"context"
	"fmt"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"go.uber.org/zap"
)

// Filter represents a single filtering step applied to a cohort.
// Implementations must not modify the input collection or its vacancies.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

// Result is the outcome of Run.
type Result struct {
	Vacancies *headhunter.Vacancies
	Steps     []Step
	// Outliers is set when an enabled outlier step ran.
	Outliers *OutlierStats
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// outlierReporter is implemented by steps that expose outlier statistics after Apply.
type outlierReporter interface {
	Outliers() OutlierStats
}

// Run executes the supplied filters sequentially and returns the resulting cohort.
func Run(ctx context.Context, logger *zap.Logger, steps []Filter, v *headhunter.Vacancies) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	result := &Result{}
	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		info.Name = step.Name()
		logger.Debug("filter step",
			zap.String("name", info.Name),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		result.Steps = append(result.Steps, info)
		v = next

		if reporter, ok := step.(outlierReporter); ok {
			stats := reporter.Outliers()
			result.Outliers = &stats
		}
	}

	result.Vacancies = v
	return result, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
