package generative

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/health"
)

// HealthChecker monitors a Completer. Completers that implement
// health.HealthPinger are pinged; others get a tiny prompt.
type HealthChecker struct {
	completer    Completer
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewHealthChecker(c Completer, log zerolog.Logger, probeTimeout time.Duration) *HealthChecker {
	hc := &HealthChecker{completer: c, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0)
	return hc
}

func (c *HealthChecker) Name() string    { return "generator" }
func (c *HealthChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

func (c *HealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		to := c.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()
		if err := c.probe(checkCtx); err != nil {
			c.healthy.Store(0)
			c.log.Warn().Str("checker", c.Name()).Err(err).Msg("generator health check failed")
			return
		}
		c.healthy.Store(1)
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

func (c *HealthChecker) probe(ctx context.Context) error {
	if c.completer == nil {
		return ErrGeneration
	}
	if p, ok := c.completer.(health.HealthPinger); ok {
		return p.HealthPing(ctx)
	}
	_, err := c.completer.Complete(ctx, "ping")
	return err
}
