package wellness

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreak_Empty(t *testing.T) {
	got, err := ComputeStreak(nil, testNow, 7)
	require.NoError(t, err)
	assert.Equal(t, StreakResult{CurrentStreak: 0, LongestStreak: 0, TotalEntries: 7}, got)
}

func TestComputeStreak_ThreeDaysEndingToday(t *testing.T) {
	got, err := ComputeStreak(daysAgo(0, 1, 2), testNow, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 3, got.LongestStreak)
	assert.Equal(t, 5, got.TotalEntries)
}

func TestComputeStreak_GapBreaksCurrent(t *testing.T) {
	got, err := ComputeStreak(daysAgo(2, 5, 6), testNow, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 2, got.LongestStreak)
}

func TestComputeStreak_AnchoredYesterday(t *testing.T) {
	got, err := ComputeStreak(daysAgo(1, 2, 4, 5, 6, 7), testNow, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStreak)
	assert.Equal(t, 4, got.LongestStreak)
}

func TestComputeStreak_SingleEntry(t *testing.T) {
	got, err := ComputeStreak(daysAgo(0), testNow, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 1, got.LongestStreak)

	got, err = ComputeStreak(daysAgo(3), testNow, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 1, got.LongestStreak)
}

func TestComputeStreak_IgnoresTimeOfDay(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 10, 18, 0, 5, 0, 0, time.UTC),
		time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC),
	}
	got, err := ComputeStreak(dates, testNow, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStreak)
}

func TestComputeStreak_RejectsUnorderedOrDuplicate(t *testing.T) {
	_, err := ComputeStreak(daysAgo(1, 0), testNow, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	dup := []time.Time{testNow, testNow.Add(-time.Hour)}
	_, err = ComputeStreak(dup, testNow, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeStreak(nil, testNow, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComputeStreak_LongestNeverBelowCurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		set := map[int]bool{}
		for j := rng.Intn(30); j > 0; j-- {
			set[rng.Intn(40)] = true
		}
		var offs []int
		for d := range set {
			offs = append(offs, d)
		}
		sort.Ints(offs)

		got, err := ComputeStreak(daysAgo(offs...), testNow, len(offs))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.LongestStreak, got.CurrentStreak, "offsets %v", offs)
		if len(offs) > 0 && offs[0] > 1 {
			assert.Zero(t, got.CurrentStreak, "offsets %v", offs)
		}
	}
}
