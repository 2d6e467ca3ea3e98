package outbox

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/generative"
	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
	"github.com/sakina-app/sakina-server/internal/wellness"
)

const maxBackoff = 300 * time.Second

// Config controls batch size, polling cadence and retry budget.
type Config struct {
	BatchSize   int           // rows leased per cycle
	Interval    time.Duration // poll interval
	LeaseFor    time.Duration // how long a leased row stays hidden from other workers
	MaxAttempts int           // attempts before a row is parked as dead
}

// Worker leases outbox rows and writes entry analyses back to the store.
type Worker struct {
	queue   store.Outbox
	entries store.Entries
	gen     generative.Completer
	cfg     Config
	log     zerolog.Logger
	now     func() time.Time
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(s store.Store, gen generative.Completer, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.LeaseFor <= 0 {
		cfg.LeaseFor = 2 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Worker{
		queue:   s.Outbox(),
		entries: s.Entries(),
		gen:     gen,
		cfg:     cfg,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("outbox worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("outbox worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil {
				// per-row backoff prevents hot-looping
				w.log.Error().Err(err).Msg("outbox processOnce")
			}
		}
	}
}

// ProcessOnce leases one batch and handles it, returning how many rows it leased.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	jobs, err := w.queue.Lease(ctx, w.cfg.BatchSize, w.cfg.LeaseFor)
	if err != nil {
		return 0, fmt.Errorf("lease: %w", err)
	}
	for _, j := range jobs {
		jl := w.log.With().Int64("job_id", j.ID).Str("op", j.Op).Str("aggregate_id", j.AggregateID).Logger()
		start := time.Now()
		if err := w.handle(jl.WithContext(ctx), j); err != nil {
			w.fail(ctx, jl, j, err)
			continue
		}
		jobDuration.Observe(time.Since(start).Seconds())
		if e := w.queue.MarkDone(ctx, j.ID); e != nil {
			jl.Error().Err(e).Msg("markDone error")
			continue
		}
		jobsTotal.WithLabelValues(j.Op, "done").Inc()
	}
	return len(jobs), nil
}

func (w *Worker) fail(ctx context.Context, jl zerolog.Logger, j model.OutboxJob, cause error) {
	attempt := j.Attempts + 1
	if attempt >= w.cfg.MaxAttempts {
		jl.Error().Err(cause).Int("attempt", attempt).Msg("outbox job failed permanently")
		if e := w.queue.MarkDead(ctx, j.ID, cause.Error()); e != nil {
			jl.Error().Err(e).Msg("markDead error")
		}
		jobsTotal.WithLabelValues(j.Op, "dead").Inc()
		return
	}
	retryAt := w.now().Add(Backoff(attempt))
	jl.Warn().Err(cause).Int("attempt", attempt).Time("retry_at", retryAt).Msg("outbox job failed")
	if e := w.queue.MarkFailed(ctx, j.ID, cause.Error(), retryAt); e != nil {
		jl.Error().Err(e).Msg("markFailed error")
	}
	jobsTotal.WithLabelValues(j.Op, "failed").Inc()
}

// Backoff is 2^attempt seconds capped at five minutes.
func Backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// handle executes the outbox operation.
func (w *Worker) handle(ctx context.Context, j model.OutboxJob) error {
	switch j.Op {
	case store.OpAnalyzeEntry:
		return w.analyzeEntry(ctx, j)
	default:
		return fmt.Errorf("unknown op: %s", j.Op)
	}
}

func (w *Worker) analyzeEntry(ctx context.Context, j model.OutboxJob) error {
	userID := stringField(j.Payload, "user_id")
	entryID := stringField(j.Payload, "entry_id")
	if userID == "" || entryID == "" {
		return errors.New("bad payload: user_id and entry_id are required")
	}
	e, err := w.entries.Get(ctx, userID, entryID)
	if errors.Is(err, model.ErrNotFound) {
		zerolog.Ctx(ctx).Debug().Msg("entry deleted before analysis; skipping")
		return nil
	}
	if err != nil {
		return err
	}
	analysis := wellness.AnalyzeEntry(ctx, w.gen, e.Content, e.Mood, w.now())
	if err := w.entries.UpdateAnalysis(ctx, e.EntryID, analysis); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return err
	}
	zerolog.Ctx(ctx).Info().Int("stress_score", analysis.StressScore).Msg("entry analyzed")
	return nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
