package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/swwwjjw/barometer-pulkovo/internal/dashboard"
	"github.com/swwwjjw/barometer-pulkovo/internal/headhunter"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
	"github.com/swwwjjw/barometer-pulkovo/internal/secrets"
	"github.com/swwwjjw/barometer-pulkovo/internal/store"
)

// resolveToken loads the optional hh.ru token. The vacancy search works
// without one.
func resolveToken(config *Config) (string, error) {
	tokenFile := strings.TrimSpace(config.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("token-file"))
	}

	return secrets.Optional(secrets.Source{
		Name: "headhunter token",
		File: tokenFile,
	})
}

func newClient(config *Config, logger *zap.Logger) (*headhunter.Client, error) {
	token, err := resolveToken(config)
	if err != nil {
		return nil, fmt.Errorf("loading headhunter token: %w", err)
	}

	hh := headhunter.New(logger, token)
	if config.UserAgent != "" {
		hh.UserAgent = config.UserAgent
	}
	if rps := config.Fetch.RequestsPerSecond; rps > 0 {
		hh.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return hh, nil
}

// newDashboard loads the latest snapshot from st and wires st as the reload source.
func newDashboard(ctx context.Context, config *Config, st store.Store, logger *zap.Logger) (*dashboard.Service, error) {
	loader := dashboard.LoaderFunc(func(ctx context.Context) (*headhunter.Vacancies, error) {
		return store.LoadVacancies(ctx, st, logger)
	})

	vacancies, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	return dashboard.New(
		config.dashboardConfig(),
		roles.Catalog(config.Roles),
		dashboard.NewSnapshot(vacancies, time.Now()),
		dashboard.WithLoader(loader),
		dashboard.WithLogger(logger),
	), nil
}
