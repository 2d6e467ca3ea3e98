package wellnessservice

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/sakina-app/sakina-server/internal/config"
	"github.com/sakina-app/sakina-server/internal/health"
)

func TestCalculateStartupHealthTimeout(t *testing.T) {
	assert.Equal(t, 60, calculateStartupHealthTimeout(1))
	assert.Equal(t, 60, calculateStartupHealthTimeout(30))
	assert.Equal(t, 90, calculateStartupHealthTimeout(45))
}

func TestWaitUntilHealthy_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := waitUntilHealthy(ctx, config.NewForTesting(), health.NewServiceHealthChecker(zerolog.Nop()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitUntilHealthy_NoGatingDeps(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svc := health.NewServiceHealthChecker(zerolog.Nop())
	go svc.Start(ctx, 10*time.Millisecond)
	assert.NoError(t, waitUntilHealthy(ctx, config.NewForTesting(), svc))
}

func TestNewHTTPServer_WriteTimeoutCoversGeneration(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.GenerationTimeoutSeconds = 20
	cfg.GenerationMaxRetries = 2
	srv := newHTTPServer(context.Background(), cfg, nil)
	assert.Equal(t, 75*time.Second, srv.WriteTimeout)
	assert.Equal(t, ":8000", srv.Addr)
}
