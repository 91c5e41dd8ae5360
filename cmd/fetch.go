package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/swwwjjw/barometer-pulkovo/internal/fetcher"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
	"github.com/swwwjjw/barometer-pulkovo/internal/store"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch vacancies for every configured role once and store them",
	Run: func(_ *cobra.Command, _ []string) {
		fetch()
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func fetch() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	st, err := store.Open(config.Data)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer st.Close()

	client, err := newClient(config, logger)
	if err != nil {
		logger.Fatal("creating hh.ru client", zap.Error(err), zap.String("hint", "set BARO_TOKEN_FILE or the 'token-file' key, or leave both unset"))
	}

	f := fetcher.New(config.Fetch, client, st, roles.Catalog(config.Roles), logger)

	count, err := f.FetchOnce(ctx)
	if err != nil {
		logger.Fatal("fetching vacancies", zap.Error(err))
	}

	logger.Info("done", zap.Int("vacancies", count), zap.String("backend", config.Data.Backend))
}
