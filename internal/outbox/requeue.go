package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/store"
)

// RequeueConfig controls the sweep for entries whose analysis job was lost.
type RequeueConfig struct {
	Schedule string        // cron spec, e.g. "@every 10m"
	Grace    time.Duration // entries younger than this are left to the normal queue
	Batch    int
}

// Requeuer periodically re-enqueues analysis for entries still unanalyzed
// after the grace period. Enqueue skips entries with a pending job.
type Requeuer struct {
	entries store.Entries
	queue   store.Outbox
	cfg     RequeueConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewRequeuer(s store.Store, cfg RequeueConfig, log zerolog.Logger) *Requeuer {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 10m"
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 15 * time.Minute
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 100
	}
	return &Requeuer{
		entries: s.Entries(),
		queue:   s.Outbox(),
		cfg:     cfg,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Sweep enqueues analysis for one batch of stale entries.
func (r *Requeuer) Sweep(ctx context.Context) (int, error) {
	stale, err := r.entries.ListUnanalyzed(ctx, r.now().Add(-r.cfg.Grace), r.cfg.Batch)
	if err != nil {
		return 0, fmt.Errorf("list unanalyzed: %w", err)
	}
	n := 0
	for _, e := range stale {
		payload := map[string]interface{}{"user_id": e.UserID, "entry_id": e.EntryID}
		if err := r.queue.Enqueue(ctx, store.OpAnalyzeEntry, e.EntryID, payload); err != nil {
			return n, fmt.Errorf("enqueue %s: %w", e.EntryID, err)
		}
		n++
	}
	requeuedTotal.Add(float64(n))
	return n, nil
}

// Start schedules Sweep and returns once the schedule is registered. The
// scheduler stops when ctx is canceled.
func (r *Requeuer) Start(ctx context.Context) error {
	c := cron.New(cron.WithLogger(cronLogger{r.log}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{r.log})))
	if _, err := c.AddFunc(r.cfg.Schedule, func() {
		n, err := r.Sweep(ctx)
		if err != nil {
			r.log.Error().Err(err).Msg("requeue sweep")
			return
		}
		if n > 0 {
			r.log.Info().Int("requeued", n).Msg("requeued unanalyzed entries")
		}
	}); err != nil {
		return fmt.Errorf("requeue schedule %q: %w", r.cfg.Schedule, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	r.log.Info().Str("schedule", r.cfg.Schedule).Dur("grace", r.cfg.Grace).Msg("requeue sweep scheduled")
	return nil
}

// cronLogger routes cron's logr-style calls to zerolog.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
