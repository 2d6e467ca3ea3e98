package wellness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakina-app/sakina-server/internal/model"
)

func TestComputeStats_AverageIgnoresUnscored(t *testing.T) {
	entries := []*model.JournalEntry{
		entry(time.Hour, model.MoodStressed, nil),
		entry(2*time.Hour, model.MoodStressed, score(80)),
		entry(3*time.Hour, model.MoodTired, score(60)),
	}
	got, err := ComputeStats(entries, nil, 7)
	require.NoError(t, err)

	require.NotNil(t, got.AvgStressScore)
	assert.Equal(t, 70.0, *got.AvgStressScore)
	assert.Equal(t, 3, got.EntryCount)
	assert.Equal(t, map[model.Mood]int{model.MoodStressed: 2, model.MoodTired: 1}, got.MoodDistribution)
	_, hasCalm := got.MoodDistribution[model.MoodCalm]
	assert.False(t, hasCalm)
}

func TestComputeStats_NoScoresMeansAbsentNotZero(t *testing.T) {
	got, err := ComputeStats([]*model.JournalEntry{entry(time.Hour, "", nil)}, nil, 7)
	require.NoError(t, err)
	assert.Nil(t, got.AvgStressScore)
	assert.Empty(t, got.MoodDistribution)
}

func TestComputeStats_Interventions(t *testing.T) {
	ivs := []*model.InterventionLog{
		{Type: model.InterventionBreathing, DurationSeconds: 120, Completed: true},
		{Type: model.InterventionGrounding, DurationSeconds: 200, Completed: true},
		{Type: model.InterventionPause, DurationSeconds: 600, Completed: false},
	}
	got, err := ComputeStats(nil, ivs, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, got.InterventionCount)
	assert.Equal(t, 2, got.CompletedInterventions)
	assert.Equal(t, 5.3, got.TotalCalmMinutes)
	assert.Equal(t, 30, got.PeriodDays)
}

func TestComputeStats_RejectsPeriod(t *testing.T) {
	for _, d := range []int{0, -3, 31} {
		_, err := ComputeStats(nil, nil, d)
		assert.ErrorIs(t, err, ErrInvalidInput, "days=%d", d)
	}
}
