// Package fetcher collects vacancies for every configured role from hh.ru and
// saves them as one snapshot.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
	"github.com/swwwjjw/barometer-pulkovo/internal/store"
)

const (
	DefaultInterval          = 12 * time.Hour
	DefaultArea              = 2
	DefaultPerPage           = 99
	DefaultMaxPages          = 20
	DefaultRequestsPerSecond = 1
	DefaultConcurrency       = 2
)

var ErrNothingFetched = errors.New("no vacancies fetched")

type Config struct {
	Enabled           bool          `mapstructure:"enabled"`
	Interval          time.Duration `mapstructure:"interval"`
	OnStart           bool          `mapstructure:"on-start"`
	Area              int           `mapstructure:"area"`
	PerPage           int           `mapstructure:"per-page"`
	MaxPages          int           `mapstructure:"max-pages"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
	Concurrency       int           `mapstructure:"concurrency"`
	// Keywords are extra full text searches, one group per entry. Their
	// vacancies feed the overall statistics even without a configured role.
	Keywords []string `mapstructure:"keywords"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		Interval:          DefaultInterval,
		Area:              DefaultArea,
		PerPage:           DefaultPerPage,
		MaxPages:          DefaultMaxPages,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Concurrency:       DefaultConcurrency,
	}
}

// Searcher is the part of the hh.ru client used by the fetcher.
type Searcher interface {
	Search(ctx context.Context, params *headhunter.SearchParams, maxPages int) ([]headhunter.Item, error)
}

type Fetcher struct {
	cfg      Config
	searcher Searcher
	store    store.Store
	groups   []searchGroup
	logger   *zap.Logger
}

// searchGroup is one upstream search: either a set of professional roles or
// a full text query.
type searchGroup struct {
	roles []string
	text  string
}

func (g searchGroup) field() zap.Field {
	if g.text != "" {
		return zap.String("keywords", g.text)
	}
	return zap.Strings("roles", g.roles)
}

func New(cfg Config, searcher Searcher, st store.Store, catalog roles.Catalog, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	var groups []searchGroup
	for _, ids := range roleGroups(catalog) {
		groups = append(groups, searchGroup{roles: ids})
	}
	for _, text := range keywordGroups(cfg.Keywords) {
		groups = append(groups, searchGroup{text: text})
	}

	return &Fetcher{
		cfg:      cfg,
		searcher: searcher,
		store:    st,
		groups:   groups,
		logger:   logger,
	}
}

// roleGroups returns the distinct id sets of the catalog in catalog order.
// Two roles sharing the same ids are searched once.
func roleGroups(catalog roles.Catalog) [][]string {
	seen := make(map[string]struct{}, len(catalog))
	groups := make([][]string, 0, len(catalog))

	for _, role := range catalog {
		ids := make([]string, 0, len(role.IDs))
		for id := range role.Matcher() {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		sort.Strings(ids)

		key := strings.Join(ids, ",")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		groups = append(groups, ids)
	}

	return groups
}

// keywordGroups trims keywords and drops empty and repeated entries.
func keywordGroups(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	var groups []string
	for _, kw := range keywords {
		kw = strings.Join(strings.Fields(kw), " ")
		if kw == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(kw)]; ok {
			continue
		}
		seen[strings.ToLower(kw)] = struct{}{}
		groups = append(groups, kw)
	}
	return groups
}

type groupResult struct {
	group searchGroup
	items []headhunter.Item
	err   error
}

// FetchOnce searches every role and keyword group, merges the results
// without duplicates and saves them. A failing group is logged and skipped.
func (f *Fetcher) FetchOnce(ctx context.Context) (int, error) {
	results := make([]groupResult, len(f.groups))

	var g errgroup.Group
	g.SetLimit(f.cfg.Concurrency)

	for i, group := range f.groups {
		g.Go(func() error {
			items, err := f.searcher.Search(ctx, f.params(group), f.cfg.MaxPages)
			results[i] = groupResult{group: group, items: items, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	seen := make(map[string]struct{})
	var merged []headhunter.Item
	for _, r := range results {
		if r.err != nil {
			f.logger.Warn("fetching search group failed", r.group.field(), zap.Error(r.err))
			continue
		}

		added := 0
		for _, item := range r.items {
			id := headhunter.ItemID(item)
			if id != "" {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
			}
			merged = append(merged, item)
			added++
		}
		f.logger.Info("search group fetched", r.group.field(), zap.Int("items", len(r.items)), zap.Int("new", added))
	}

	if len(merged) == 0 {
		return 0, ErrNothingFetched
	}

	if err := f.store.Save(ctx, merged); err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}

	f.logger.Info("vacancies saved", zap.Int("count", len(merged)))
	return len(merged), nil
}

func (f *Fetcher) params(g searchGroup) *headhunter.SearchParams {
	p := &headhunter.SearchParams{ProfessionalRoles: g.roles, Text: g.text}
	if f.cfg.Area > 0 {
		p.Areas = []int{f.cfg.Area}
	}
	if f.cfg.PerPage > 0 {
		p.PerPage = strconv.Itoa(f.cfg.PerPage)
	}
	return p
}
