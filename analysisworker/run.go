// Package analysisworker runs the outbox worker that fills in entry analyses.
package analysisworker

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sakina-app/sakina-server/internal/config"
	"github.com/sakina-app/sakina-server/internal/factory"
	"github.com/sakina-app/sakina-server/internal/logger"
	"github.com/sakina-app/sakina-server/internal/outbox"
)

// Run starts the analysis worker and the requeue sweep and blocks until shutdown or error.
func Run() error {
	l := logger.New("analysis-worker")
	log.Logger = l

	cfg, err := config.New()
	if err != nil {
		l.Error().Err(err).Msg("config")
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := factory.NewStore(ctx, cfg, l)
	if err != nil {
		l.Error().Stack().Err(err).Msg("store")
		return err
	}
	defer func() { _ = closeStore() }()

	gen := factory.NewGenerator(ctx, cfg, l)

	requeuer := outbox.NewRequeuer(st, outbox.RequeueConfig{
		Schedule: cfg.RequeueSchedule,
		Grace:    time.Duration(cfg.RequeueGraceMinutes) * time.Minute,
	}, l)
	if err := requeuer.Start(ctx); err != nil {
		l.Error().Err(err).Str("schedule", cfg.RequeueSchedule).Msg("requeue schedule")
		return err
	}

	w := outbox.NewWorker(st, gen, outbox.Config{
		BatchSize:   cfg.OutboxBatchSize,
		Interval:    time.Duration(cfg.OutboxIntervalSeconds) * time.Second,
		MaxAttempts: cfg.OutboxMaxAttempts,
	}, l)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Error().Err(err).Msg("analysis worker exit")
		return err
	}
	return nil
}
