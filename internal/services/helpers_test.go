package services

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakina-app/sakina-server/internal/cache"
	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
	"github.com/sakina-app/sakina-server/internal/store/sqlite"
)

var testNow = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

type fakeGen struct {
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeGen) Complete(context.Context, string) (string, error) {
	f.calls.Add(1)
	return f.reply, f.err
}

type fixture struct {
	store store.Store
	gen   *fakeGen
	cache *cache.Memory
	now   time.Time
}

func (f *fixture) deps() Deps {
	return Deps{Store: f.store, Gen: f.gen, Cache: f.cache, Now: func() time.Time { return f.now }}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, db, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "sakina.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = s.Users().Create(context.Background(), store.NewUser("u1", "u1@example.com"))
	require.NoError(t, err)
	return &fixture{
		store: s,
		gen:   &fakeGen{},
		cache: cache.NewMemory(time.Minute).(*cache.Memory),
		now:   testNow,
	}
}

// addEntry stores an entry created ago before now, analyzed with stress when non-nil.
func (f *fixture) addEntry(t *testing.T, ago time.Duration, mood model.Mood, stress *int) *model.JournalEntry {
	t.Helper()
	ctx := context.Background()
	e, err := f.store.Entries().Create(ctx, &model.JournalEntry{
		UserID:       "u1",
		Content:      "checking in",
		Mood:         mood,
		CreationTime: f.now.Add(-ago),
	})
	require.NoError(t, err)
	if stress != nil {
		require.NoError(t, f.store.Entries().UpdateAnalysis(ctx, e.EntryID, model.EntryAnalysis{
			StressScore:       *stress,
			EmotionalTone:     "steady",
			KeyThemes:         []string{"work"},
			SupportiveMessage: "ok",
			AnalyzedAt:        f.now,
		}))
	}
	return e
}

func score(v int) *int { return &v }
