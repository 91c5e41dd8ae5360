// Package store persists fetched vacancy snapshots and loads the latest one.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"github.com/swwwjjw/barometer-pulkovo/internal/logger"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	DefaultDir        = "final_folder"
	DefaultSQLitePath = "barometer.db"

	maxLoggedError = 300
)

var ErrNoSnapshot = errors.New("no snapshot saved yet")

// Store keeps raw items verbatim. Save writes a new snapshot; Load returns the
// most recent one or ErrNoSnapshot.
type Store interface {
	Save(ctx context.Context, items []headhunter.Item) error
	Load(ctx context.Context) ([]headhunter.Item, error)
	Close() error
}

type Config struct {
	Backend    string `mapstructure:"backend"`
	Dir        string `mapstructure:"dir"`
	SQLitePath string `mapstructure:"sqlite-path"`
}

// Open returns the store selected by cfg.Backend. An empty backend means file.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultDir
		}
		return NewFileStore(dir), nil
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = DefaultSQLitePath
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// LoadVacancies loads the latest snapshot and decodes it. A missing snapshot
// yields an empty collection. Malformed groups are logged and left absent.
func LoadVacancies(ctx context.Context, s Store, log *zap.Logger) (*headhunter.Vacancies, error) {
	if log == nil {
		log = zap.NewNop()
	}

	items, err := s.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		log.Warn("no vacancies snapshot found, starting empty")
		return &headhunter.Vacancies{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	vacancies, groupErrs := headhunter.DecodeVacancies(items)
	for _, ge := range groupErrs {
		log.Debug("malformed vacancy group",
			zap.String("vacancy_id", ge.VacancyID),
			zap.String("group", ge.Group),
			zap.String("error", logger.TruncateForLog(ge.Err.Error(), maxLoggedError)),
		)
	}
	if len(groupErrs) > 0 {
		log.Warn("dropped malformed vacancy groups", zap.Int("count", len(groupErrs)))
	}

	log.Info("vacancies loaded", zap.Int("items", len(items)), zap.Int("vacancies", vacancies.Len()))
	return vacancies, nil
}
