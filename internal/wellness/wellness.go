// Package wellness derives streaks, stats, nudge decisions and trend
// summaries from journal and intervention history. Every function here is
// a pure computation over the records passed in plus "now"; the only
// blocking work is the optional generative call, whose failures are always
// replaced by documented fallback values.
package wellness

import (
	"fmt"
	"math"
	"time"

	"github.com/sakina-app/sakina-server/internal/model"
)

// ErrInvalidInput is the only error class returned to callers.
var ErrInvalidInput = fmt.Errorf("%w: invalid input", model.ErrValidation)

const (
	MinPeriodDays = 1
	MaxPeriodDays = 30
)

// ValidatePeriod checks that days is inside [MinPeriodDays, MaxPeriodDays].
func ValidatePeriod(days int) error {
	if days < MinPeriodDays || days > MaxPeriodDays {
		return fmt.Errorf("%w: period_days must be between %d and %d, got %d", ErrInvalidInput, MinPeriodDays, MaxPeriodDays, days)
	}
	return nil
}

// PeriodName is "week" for periods up to seven days and "month" otherwise.
func PeriodName(days int) string {
	if days > 7 {
		return "month"
	}
	return "week"
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// scoredAverage returns the mean stress score over entries that have one,
// and how many entries contributed.
func scoredAverage(entries []*model.JournalEntry) (float64, int) {
	sum, n := 0, 0
	for _, e := range entries {
		if e == nil || e.StressScore == nil {
			continue
		}
		sum += *e.StressScore
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sum) / float64(n), n
}
