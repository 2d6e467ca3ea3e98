package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakina-app/sakina-server/internal/cache"
	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
)

func TestJournalService_CreateValidates(t *testing.T) {
	f := newFixture(t)
	svc := NewJournalService(f.deps())
	ctx := context.Background()

	cases := map[string]CreateEntryInput{
		"empty content": {Content: "   ", Mood: "calm"},
		"too long":      {Content: strings.Repeat("x", maxContentRunes+1), Mood: "calm"},
		"missing mood":  {Content: "hello"},
		"unknown mood":  {Content: "hello", Mood: "ecstatic"},
		"unknown type":  {Content: "hello", Mood: "calm", EntryType: "video"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, "u1", in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestJournalService_CreateQueuesAnalysisAndEvictsCache(t *testing.T) {
	f := newFixture(t)
	svc := NewJournalService(f.deps())
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, cache.Key("u1", "streak"), 1))
	require.NoError(t, f.cache.Set(ctx, cache.Key("u2", "streak"), 1))

	e, err := svc.Create(ctx, "u1", CreateEntryInput{Content: "  long day  ", Mood: "Tired"})
	require.NoError(t, err)
	assert.Equal(t, "long day", e.Content)
	assert.Equal(t, model.MoodTired, e.Mood)
	assert.Equal(t, model.EntryText, e.EntryType)
	assert.False(t, e.IsAnalyzed())
	assert.Equal(t, 1, f.cache.Len(), "only the author's derived results are evicted")

	jobs, err := f.store.Outbox().Lease(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, store.OpAnalyzeEntry, jobs[0].Op)
	assert.Equal(t, e.EntryID, jobs[0].AggregateID)
}

func TestJournalService_ListFilters(t *testing.T) {
	f := newFixture(t)
	svc := NewJournalService(f.deps())
	ctx := context.Background()
	f.addEntry(t, 3*time.Hour, model.MoodCalm, nil)
	f.addEntry(t, 2*time.Hour, model.MoodStressed, nil)
	newest := f.addEntry(t, time.Hour, model.MoodCalm, nil)

	all, err := svc.List(ctx, "u1", 0, 0, "all")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.EntryID, all[0].EntryID)

	calm, err := svc.List(ctx, "u1", 0, 10, "calm")
	require.NoError(t, err)
	assert.Len(t, calm, 2)

	page, err := svc.List(ctx, "u1", 2, 10, "")
	require.NoError(t, err)
	assert.Len(t, page, 1)

	_, err = svc.List(ctx, "u1", 0, 10, "grumpy")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.List(ctx, "u1", -1, 10, "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestJournalService_GetAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewJournalService(f.deps())
	ctx := context.Background()
	e := f.addEntry(t, time.Hour, model.MoodOkay, nil)

	got, err := svc.Get(ctx, "u1", e.EntryID)
	require.NoError(t, err)
	assert.Equal(t, e.EntryID, got.EntryID)

	_, err = svc.Get(ctx, "someone-else", e.EntryID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, f.cache.Set(ctx, cache.Key("u1", "stats", "7"), 1))
	require.NoError(t, svc.Delete(ctx, "u1", e.EntryID))
	assert.Zero(t, f.cache.Len())
	assert.ErrorIs(t, svc.Delete(ctx, "u1", e.EntryID), model.ErrNotFound)
}

func TestJournalService_AnalyzePreview(t *testing.T) {
	f := newFixture(t)
	f.gen.reply = "```json\n{\"stress_score\": 140, \"emotional_tone\": \"overwhelmed\", \"key_themes\": [\"exams\"], \"suggested_intervention\": \"grounding\", \"supportive_message\": \"One step at a time.\"}\n```"
	svc := NewJournalService(f.deps())

	a, err := svc.Analyze(context.Background(), AnalyzeInput{Content: "exams next week", Mood: "anxious"})
	require.NoError(t, err)
	assert.Equal(t, 100, a.StressScore)
	assert.Equal(t, "overwhelmed", a.EmotionalTone)
	assert.Equal(t, []string{"exams"}, a.KeyThemes)
	require.NotNil(t, a.SuggestedIntervention)
	assert.Equal(t, model.InterventionGrounding, *a.SuggestedIntervention)

	count, err := f.store.Entries().Count(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, count, "previews are not stored")
}
