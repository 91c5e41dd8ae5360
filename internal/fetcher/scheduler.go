package fetcher

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task on every tick until ctx is done. With runNow the task also
// runs once right away. Runs never overlap.
func Every(ctx context.Context, interval time.Duration, name string, runNow bool, task Task, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("task", name))

	run := func() {
		started := time.Now()
		if err := task(ctx); err != nil {
			logger.Error("scheduled task failed", zap.Error(err))
			return
		}
		logger.Info("scheduled task done", zap.Duration("took", time.Since(started)))
	}

	if runNow {
		run()
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
