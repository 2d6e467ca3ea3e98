package wellness

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sakina-app/sakina-server/internal/model"
)

// fakeGen records prompts and replies with a canned answer.
type fakeGen struct {
	reply   string
	err     error
	calls   atomic.Int32
	prompts []string
}

func (f *fakeGen) Complete(_ context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

var errUnavailable = errors.New("service unavailable")

var testNow = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

func score(v int) *int { return &v }

func entry(ago time.Duration, mood model.Mood, stress *int, themes ...string) *model.JournalEntry {
	return &model.JournalEntry{
		EntryID:      "e",
		UserID:       "u",
		Content:      "Long day at work, deadlines piling up.",
		Mood:         mood,
		StressScore:  stress,
		KeyThemes:    themes,
		CreationTime: testNow.Add(-ago),
	}
}

func daysAgo(n ...int) []time.Time {
	out := make([]time.Time, len(n))
	for i, d := range n {
		out[i] = testNow.AddDate(0, 0, -d)
	}
	return out
}
