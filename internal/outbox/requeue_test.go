package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequeuer_SweepReenqueuesStaleEntries(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	e := seedEntry(t, s, "u1", "lost job")

	// simulate the original job dying
	jobs, err := s.Outbox().Lease(ctx, 10, time.Hour)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NoError(t, s.Outbox().MarkDead(ctx, jobs[0].ID, "store unavailable"))

	r := NewRequeuer(s, RequeueConfig{Grace: time.Minute}, zerolog.Nop())

	n, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "entry is still inside the grace period")

	r.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	n, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	jobs, err = s.Outbox().Lease(ctx, 10, time.Hour)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, e.EntryID, jobs[0].AggregateID)
}

func TestRequeuer_StartRejectsBadSchedule(t *testing.T) {
	r := NewRequeuer(newStore(t), RequeueConfig{Schedule: "every tuesday-ish"}, zerolog.Nop())
	assert.Error(t, r.Start(context.Background()))
}

func TestRequeuer_StartStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRequeuer(newStore(t), RequeueConfig{Schedule: "@every 1h"}, zerolog.Nop())
	require.NoError(t, r.Start(ctx))
	cancel()
}
