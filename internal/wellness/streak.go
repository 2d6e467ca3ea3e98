package wellness

import (
	"fmt"
	"time"
)

// StreakResult is recomputed per request and never persisted.
type StreakResult struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
	TotalEntries  int `json:"total_entries"`
}

// ComputeStreak derives journaling streaks from distinct entry days ordered
// most recent first. totalEntries is the caller's full-history count and is
// passed through untouched; dates may be a bounded recent window.
func ComputeStreak(dates []time.Time, today time.Time, totalEntries int) (StreakResult, error) {
	if totalEntries < 0 {
		return StreakResult{}, fmt.Errorf("%w: total entries must not be negative", ErrInvalidInput)
	}
	days := make([]time.Time, len(dates))
	for i, d := range dates {
		days[i] = Day(d)
		if i > 0 && !days[i].Before(days[i-1]) {
			return StreakResult{}, fmt.Errorf("%w: dates must be distinct and most recent first (index %d)", ErrInvalidInput, i)
		}
	}

	res := StreakResult{TotalEntries: totalEntries}
	if len(days) == 0 {
		return res, nil
	}

	today = Day(today)
	if days[0].Equal(today) || days[0].Equal(today.AddDate(0, 0, -1)) {
		res.CurrentStreak = 1
		for i := 1; i < len(days) && consecutive(days[i-1], days[i]); i++ {
			res.CurrentStreak++
		}
	}

	res.LongestStreak = 1
	running := 1
	for i := 1; i < len(days); i++ {
		if consecutive(days[i-1], days[i]) {
			running++
		} else {
			running = 1
		}
		if running > res.LongestStreak {
			res.LongestStreak = running
		}
	}
	return res, nil
}

// consecutive reports whether older is exactly one day before newer.
func consecutive(newer, older time.Time) bool {
	return newer.AddDate(0, 0, -1).Equal(older)
}
