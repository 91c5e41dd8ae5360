// Package dashboard composes role matching, outlier filtering and aggregation
// into the two statistics queries served to the dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/swwwjjw/barometer-pulkovo/internal/filtering"
	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"github.com/swwwjjw/barometer-pulkovo/internal/logger"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
	"github.com/swwwjjw/barometer-pulkovo/internal/salary"
	"github.com/swwwjjw/barometer-pulkovo/internal/stats"
)

const (
	KindRole   = "role"
	KindGlobal = "global"

	DefaultRoleMultiplier   = 3
	DefaultGlobalMultiplier = 3
	DefaultGlobalLowDivisor = 3
)

var (
	ErrRoleNotFound     = roles.ErrRoleNotFound
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNoLoader         = errors.New("no snapshot loader configured")
)

// Config holds the tunable heuristics of the pipeline.
type Config struct {
	Salary    salary.Config `mapstructure:"salary"`
	Aggregate stats.Config  `mapstructure:"aggregate"`

	RoleMultiplier   float64 `mapstructure:"role-multiplier"`
	GlobalMultiplier float64 `mapstructure:"global-multiplier"`
	GlobalLowDivisor float64 `mapstructure:"global-low-divisor"`
}

func DefaultConfig() Config {
	return Config{
		Salary:           salary.DefaultConfig(),
		Aggregate:        stats.DefaultConfig(),
		RoleMultiplier:   DefaultRoleMultiplier,
		GlobalMultiplier: DefaultGlobalMultiplier,
		GlobalLowDivisor: DefaultGlobalLowDivisor,
	}
}

// Snapshot is an immutable set of loaded vacancies.
type Snapshot struct {
	Vacancies *headhunter.Vacancies
	LoadedAt  time.Time
}

func NewSnapshot(v *headhunter.Vacancies, at time.Time) *Snapshot {
	if v == nil {
		v = &headhunter.Vacancies{}
	}
	return &Snapshot{Vacancies: v, LoadedAt: at}
}

// Loader produces a fresh set of vacancies for Reload.
type Loader interface {
	Load(ctx context.Context) (*headhunter.Vacancies, error)
}

type LoaderFunc func(ctx context.Context) (*headhunter.Vacancies, error)

func (f LoaderFunc) Load(ctx context.Context) (*headhunter.Vacancies, error) { return f(ctx) }

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithLoader(l Loader) Option {
	return func(s *Service) { s.loader = l }
}

// Service answers statistics queries over the current snapshot. Queries never
// mutate the snapshot; Reload replaces it atomically.
type Service struct {
	cfg        Config
	catalog    roles.Catalog
	normalizer *salary.Normalizer
	aggregator *stats.Aggregator
	loader     Loader
	logger     *zap.Logger
	now        func() time.Time

	snapshot atomic.Pointer[Snapshot]
}

func New(cfg Config, catalog roles.Catalog, snap *Snapshot, opts ...Option) *Service {
	if cfg.RoleMultiplier <= 0 {
		cfg.RoleMultiplier = DefaultRoleMultiplier
	}
	if cfg.GlobalMultiplier <= 0 {
		cfg.GlobalMultiplier = DefaultGlobalMultiplier
	}
	if cfg.GlobalLowDivisor < 0 {
		cfg.GlobalLowDivisor = DefaultGlobalLowDivisor
	}

	normalizer := salary.NewNormalizer(cfg.Salary)
	s := &Service{
		cfg:        cfg,
		catalog:    catalog,
		normalizer: normalizer,
		aggregator: stats.NewAggregator(cfg.Aggregate, normalizer),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if snap == nil {
		snap = NewSnapshot(nil, time.Time{})
	}
	s.snapshot.Store(snap)

	return s
}

func (s *Service) Catalog() roles.Catalog { return s.catalog }

func (s *Service) Snapshot() *Snapshot { return s.snapshot.Load() }

// Reload loads a new snapshot and swaps it in. On error the current snapshot
// stays in place.
func (s *Service) Reload(ctx context.Context) error {
	if s.loader == nil {
		return ErrNoLoader
	}

	v, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload snapshot: %w", err)
	}

	snap := NewSnapshot(v, s.now())
	s.snapshot.Store(snap)

	s.logger.Info("snapshot reloaded", zap.Int("vacancies", snap.Vacancies.Len()), zap.Time("loaded_at", snap.LoadedAt))
	return nil
}

// RoleQuery selects a role either by its catalog index or by its exact id set.
type RoleQuery struct {
	Index *int
	IDs   []string
}

type RoleOptions struct {
	FilterOutliers bool
	// Multiplier is the upper band multiplier; zero selects the configured one.
	Multiplier float64
}

type GlobalOptions struct {
	FilterOutliers bool
	HighMultiplier float64
	// LowDivisor overrides the configured lower band divisor when set.
	// A zero value disables the lower bound for this query.
	LowDivisor *float64
}

func (s *Service) resolve(q RoleQuery) (roles.Role, error) {
	switch {
	case q.Index != nil:
		return s.catalog.ByIndex(*q.Index)
	case len(q.IDs) > 0:
		return s.catalog.ByIDs(q.IDs)
	default:
		return roles.Role{}, fmt.Errorf("%w: role index or ids are required", ErrInvalidParameter)
	}
}

// QueryRole computes the statistics of one configured role.
func (s *Service) QueryRole(ctx context.Context, q RoleQuery, opts RoleOptions) (*StatsPayload, error) {
	role, err := s.resolve(q)
	if err != nil {
		return nil, err
	}

	band := filtering.Band{Multiplier: s.cfg.RoleMultiplier}
	if opts.Multiplier != 0 {
		band.Multiplier = opts.Multiplier
	}
	if opts.FilterOutliers {
		if err := band.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
	}

	log := logger.WithQuery(s.logger, KindRole, role.Name)
	steps := []filtering.Filter{
		filtering.NewRoles(role),
		s.outlierStep(band, opts.FilterOutliers),
	}

	res, summary, err := s.run(ctx, log, steps)
	if err != nil {
		return nil, err
	}

	return buildRolePayload(role, summary, filterStats(res), opts.FilterOutliers), nil
}

// QueryGlobal computes the statistics over every loaded vacancy.
func (s *Service) QueryGlobal(ctx context.Context, opts GlobalOptions) (*StatsPayload, error) {
	band := filtering.Band{Multiplier: s.cfg.GlobalMultiplier, LowDivisor: s.cfg.GlobalLowDivisor}
	if opts.HighMultiplier != 0 {
		band.Multiplier = opts.HighMultiplier
	}
	if opts.LowDivisor != nil {
		band.LowDivisor = *opts.LowDivisor
	}
	if opts.FilterOutliers {
		if err := band.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
	}

	log := logger.WithQuery(s.logger, KindGlobal, "")
	res, summary, err := s.run(ctx, log, []filtering.Filter{s.outlierStep(band, opts.FilterOutliers)})
	if err != nil {
		return nil, err
	}

	return buildGlobalPayload(summary, filterStats(res), opts.FilterOutliers), nil
}

func (s *Service) outlierStep(band filtering.Band, enabled bool) filtering.Filter {
	step := filtering.NewOutliers(s.normalizer, band)
	if !enabled {
		step.Disable("filter_outliers=false")
	}
	return step
}

func (s *Service) run(ctx context.Context, log *zap.Logger, steps []filtering.Filter) (*filtering.Result, *stats.Summary, error) {
	snap := s.snapshot.Load()

	res, err := filtering.Run(ctx, log, steps, snap.Vacancies)
	if err != nil {
		return nil, nil, err
	}

	summary := s.aggregator.Summarize(res.Vacancies.Items)
	log.Debug("query computed",
		zap.Int("cohort", res.Vacancies.Len()),
		zap.Int("salaried", summary.Metrics.Count),
		zap.Bool("no_data", summary.NoData),
		zap.Any("filters", filtering.Describe(steps)),
	)

	return res, summary, nil
}

// filterStats reports the outlier step, or an unfiltered cohort when the step
// was disabled.
func filterStats(res *filtering.Result) filtering.OutlierStats {
	if res.Outliers != nil {
		return *res.Outliers
	}
	n := res.Vacancies.Len()
	return filtering.OutlierStats{TotalBefore: n, TotalAfter: n}
}

// ParseIDs splits a comma separated id list, dropping empty entries.
func ParseIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = roles.NormalizeID(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseFloat parses an optional numeric query parameter. Empty means zero.
func ParseFloat(name, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidParameter, name, raw)
	}
	return f, nil
}

// ParseOptionalFloat is ParseFloat for parameters where an explicit zero
// differs from an absent value. Empty gives nil.
func ParseOptionalFloat(name, raw string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	f, err := ParseFloat(name, raw)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
