package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swwwjjw/barometer-pulkovo/internal/fetcher"
	"github.com/swwwjjw/barometer-pulkovo/internal/httpapi"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
	"github.com/swwwjjw/barometer-pulkovo/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the statistics API and refresh vacancies periodically",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addServeFlags(serveCmd)

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("listen", "l", "", "address to listen on (default :8000)")
	cmd.Flags().Bool("no-fetch", false, "do not fetch vacancies periodically")
}

// applyServeFlags applies the flags that override the config file.
func applyServeFlags(cmd *cobra.Command, config *Config) {
	if noFetch, _ := cmd.Flags().GetBool("no-fetch"); noFetch {
		config.Fetch.Enabled = false
	}
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	logger.Info("starting the barometer", zap.String("version", version))

	applyServeFlags(cmd, config)

	st, err := store.Open(config.Data)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer st.Close()

	svc, err := newDashboard(ctx, config, st, logger)
	if err != nil {
		logger.Fatal("loading vacancies", zap.Error(err))
	}

	handler := httpapi.NewHandler(svc, nil, logger)
	handler.DefaultFilter = config.Outliers.Enabled

	srv := &http.Server{
		Addr:              config.Server.Listen,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if config.Fetch.Enabled {
		client, err := newClient(config, logger)
		if err != nil {
			logger.Fatal("creating hh.ru client", zap.Error(err))
		}
		f := fetcher.New(config.Fetch, client, st, roles.Catalog(config.Roles), logger)

		g.Go(func() error {
			fetcher.Every(gctx, config.Fetch.Interval, "fetch vacancies", config.Fetch.OnStart, func(ctx context.Context) error {
				if _, err := f.FetchOnce(ctx); err != nil {
					return err
				}
				return svc.Reload(ctx)
			}, logger)
			return nil
		})
	} else {
		logger.Info("periodic fetching is disabled")
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}
