package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/wellness"
)

const day = 24 * time.Hour

func TestInsightsService_Streak(t *testing.T) {
	f := newFixture(t)
	for _, ago := range []time.Duration{0, day, day + time.Hour, 2 * day, 5 * day, 6 * day, 7 * day, 8 * day} {
		f.addEntry(t, ago, model.MoodOkay, nil)
	}

	got, err := NewInsightsService(f.deps()).Streak(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, wellness.StreakResult{CurrentStreak: 3, LongestStreak: 4, TotalEntries: 8}, got)
}

func TestInsightsService_StreakIsCachedUntilNextEntry(t *testing.T) {
	f := newFixture(t)
	d := f.deps()
	insights := NewInsightsService(d)
	journal := NewJournalService(d)
	ctx := context.Background()

	got, err := insights.Streak(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, got.TotalEntries)

	_, err = f.store.Entries().Create(ctx, &model.JournalEntry{UserID: "u1", Content: "direct", Mood: model.MoodOkay, CreationTime: testNow})
	require.NoError(t, err)
	got, err = insights.Streak(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, got.TotalEntries, "served from cache")

	_, err = journal.Create(ctx, "u1", CreateEntryInput{Content: "through the service", Mood: "calm"})
	require.NoError(t, err)
	got, err = insights.Streak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalEntries)
	assert.Equal(t, 1, got.CurrentStreak)
}

func TestInsightsService_Stats(t *testing.T) {
	f := newFixture(t)
	f.addEntry(t, 10*day, model.MoodStressed, score(90))
	f.addEntry(t, 2*day, model.MoodStressed, score(60))
	f.addEntry(t, day, model.MoodCalm, score(25))
	f.addEntry(t, time.Hour, model.MoodCalm, nil)
	_, err := NewInterventionService(f.deps()).Log(context.Background(), "u1", LogInterventionInput{InterventionType: "breathing", DurationSeconds: 150, Completed: true})
	require.NoError(t, err)

	svc := NewInsightsService(f.deps())
	got, err := svc.Stats(context.Background(), "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got.PeriodDays)
	assert.Equal(t, 3, got.EntryCount)
	require.NotNil(t, got.AvgStressScore)
	assert.InDelta(t, 42.5, *got.AvgStressScore, 1e-9)
	assert.Equal(t, map[model.Mood]int{model.MoodStressed: 1, model.MoodCalm: 2}, got.MoodDistribution)
	assert.Equal(t, 1, got.CompletedInterventions)
	assert.InDelta(t, 2.5, got.TotalCalmMinutes, 1e-9)

	_, err = svc.Stats(context.Background(), "u1", 31)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestInsightsService_Weekly(t *testing.T) {
	f := newFixture(t)
	svc := NewInsightsService(f.deps())
	ctx := context.Background()

	empty, err := svc.Weekly(ctx, "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, model.TrendStable, empty.Trend)
	assert.Zero(t, f.gen.calls.Load(), "an empty period never reaches the generator")

	f.cache.EvictPrefix(ctx, "insights:u1:")
	f.gen.reply = `{"trend": "improving", "frequent_themes": ["sleep"], "recommendation": "Keep the evening walks.", "weekly_summary": "A calmer week."}`
	f.addEntry(t, 2*day, model.MoodAnxious, score(70))
	f.addEntry(t, day, model.MoodCalm, score(30))

	got, err := svc.Weekly(ctx, "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, model.TrendImproving, got.Trend)
	assert.InDelta(t, 50.0, got.AvgStressScore, 1e-9)
	assert.Equal(t, 2, got.EntryCount)

	_, err = svc.Weekly(ctx, "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.gen.calls.Load(), "second call is served from cache")

	_, err = svc.Weekly(ctx, "u1", 0)
	assert.ErrorIs(t, err, model.ErrValidation)
}
