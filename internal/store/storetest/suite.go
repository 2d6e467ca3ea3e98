// Package storetest is a compliance suite shared by every store driver.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
)

// Run exercises the compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	userID := "u-" + uuid.New().String()

	t.Run("users", func(t *testing.T) { users(ctx, t, s, userID) })
	t.Run("entries", func(t *testing.T) { entries(ctx, t, s, userID) })
	t.Run("interventions", func(t *testing.T) { interventions(ctx, t, s, userID) })
	t.Run("nudges", func(t *testing.T) { nudges(ctx, t, s, userID) })
	t.Run("outbox", func(t *testing.T) { outbox(ctx, t, s) })
}

func users(ctx context.Context, t *testing.T, s store.Store, userID string) {
	if _, err := s.Users().Get(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing user: want ErrNotFound, got %v", err)
	}
	if _, err := s.Users().Create(ctx, store.NewUser(userID, userID+"@example.test")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.Users().Create(ctx, store.NewUser(userID, "")); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("CreateUser twice: want ErrConflict, got %v", err)
	}
	got, err := s.Users().Get(ctx, userID)
	if err != nil || got.UserID != userID || !got.NudgeEnabled || got.Locale != "en" {
		t.Fatalf("GetUser: got=%+v err=%v", got, err)
	}

	off, ar := false, "ar"
	got, err = s.Users().UpdatePreferences(ctx, userID, model.UserPreferences{NudgeEnabled: &off, Locale: &ar})
	if err != nil || got.NudgeEnabled || got.Locale != "ar" || got.Theme != "system" {
		t.Fatalf("UpdatePreferences: got=%+v err=%v", got, err)
	}
	on := true
	if _, err := s.Users().UpdatePreferences(ctx, userID, model.UserPreferences{NudgeEnabled: &on}); err != nil {
		t.Fatalf("UpdatePreferences restore: %v", err)
	}
	if _, err := s.Users().UpdatePreferences(ctx, "nobody-"+userID, model.UserPreferences{}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdatePreferences missing: want ErrNotFound, got %v", err)
	}
}

func entries(ctx context.Context, t *testing.T, s store.Store, userID string) {
	if _, err := s.Entries().Latest(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Latest with no entries: want ErrNotFound, got %v", err)
	}

	// midday keeps the minute offsets below on one calendar day
	now := time.Now().UTC().Truncate(24 * time.Hour).Add(12 * time.Hour)
	days := []int{0, 0, 1, 3}
	moods := []model.Mood{model.MoodCalm, model.MoodStressed, model.MoodStressed, ""}
	var created []*model.JournalEntry
	for i, d := range days {
		e, err := s.Entries().Create(ctx, &model.JournalEntry{
			UserID:       userID,
			Content:      "entry",
			Mood:         moods[i],
			CreationTime: now.AddDate(0, 0, -d).Add(-time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("CreateEntry %d: %v", i, err)
		}
		if e.EntryID == "" || e.EntryType != model.EntryText || e.IsAnalyzed() {
			t.Fatalf("CreateEntry %d: unexpected %+v", i, e)
		}
		created = append(created, e)
	}

	if n, err := s.Entries().Count(ctx, userID); err != nil || n != 4 {
		t.Fatalf("Count: n=%d err=%v", n, err)
	}

	all, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: userID})
	if err != nil || len(all) != 4 {
		t.Fatalf("List: n=%d err=%v", len(all), err)
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreationTime.After(all[i-1].CreationTime) {
			t.Fatalf("List not most-recent-first at %d", i)
		}
	}
	if all[0].EntryID != created[0].EntryID {
		t.Fatalf("List head: want %s got %s", created[0].EntryID, all[0].EntryID)
	}

	page, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: userID, Offset: 1, Limit: 2})
	if err != nil || len(page) != 2 || page[0].EntryID != all[1].EntryID {
		t.Fatalf("List page: n=%d err=%v", len(page), err)
	}
	stressed := model.MoodStressed
	if lst, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: userID, Mood: &stressed}); err != nil || len(lst) != 2 {
		t.Fatalf("List mood: n=%d err=%v", len(lst), err)
	}
	since := now.Add(-36 * time.Hour)
	if lst, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: userID, Since: &since}); err != nil || len(lst) != 3 {
		t.Fatalf("List since: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Entries().List(ctx, model.ListEntriesRequest{UserID: "nobody"}); err != nil || len(lst) != 0 {
		t.Fatalf("List other user: n=%d err=%v", len(lst), err)
	}

	dates, err := s.Entries().DistinctDates(ctx, userID, store.StreakWindow)
	if err != nil || len(dates) != 3 {
		t.Fatalf("DistinctDates: got=%v err=%v", dates, err)
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].Before(dates[i-1]) {
			t.Fatalf("DistinctDates not strictly descending: %v", dates)
		}
	}
	if dates[0].Hour() != 0 || dates[0].Location() != time.UTC {
		t.Fatalf("DistinctDates must be UTC midnights: %v", dates[0])
	}

	latest, err := s.Entries().Latest(ctx, userID)
	if err != nil || latest.EntryID != created[0].EntryID {
		t.Fatalf("Latest: got=%v err=%v", latest, err)
	}

	unanalyzed, err := s.Entries().ListUnanalyzed(ctx, now.Add(time.Minute), 10)
	if err != nil || len(unanalyzed) < 4 {
		t.Fatalf("ListUnanalyzed: n=%d err=%v", len(unanalyzed), err)
	}

	suggested := model.InterventionBreathing
	analysis := model.EntryAnalysis{
		StressScore:           64,
		EmotionalTone:         "tense",
		KeyThemes:             []string{"work", "sleep"},
		SuggestedIntervention: &suggested,
		SupportiveMessage:     "I'm here.",
		AnalyzedAt:            now,
	}
	if err := s.Entries().UpdateAnalysis(ctx, created[1].EntryID, analysis); err != nil {
		t.Fatalf("UpdateAnalysis: %v", err)
	}
	// last write wins
	analysis.StressScore = 66
	if err := s.Entries().UpdateAnalysis(ctx, created[1].EntryID, analysis); err != nil {
		t.Fatalf("UpdateAnalysis again: %v", err)
	}
	got, err := s.Entries().Get(ctx, userID, created[1].EntryID)
	if err != nil || !got.IsAnalyzed() || got.StressScore == nil || *got.StressScore != 66 ||
		len(got.KeyThemes) != 2 || got.SuggestedIntervention == nil || *got.SuggestedIntervention != suggested {
		t.Fatalf("Get after UpdateAnalysis: got=%+v err=%v", got, err)
	}
	if err := s.Entries().UpdateAnalysis(ctx, "missing", analysis); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("UpdateAnalysis missing: want ErrNotFound, got %v", err)
	}

	if _, err := s.Entries().Get(ctx, "someone-else", created[0].EntryID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get foreign entry: want ErrNotFound, got %v", err)
	}
	if err := s.Entries().Delete(ctx, userID, created[3].EntryID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Entries().Delete(ctx, userID, created[3].EntryID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Delete twice: want ErrNotFound, got %v", err)
	}
}

func interventions(ctx context.Context, t *testing.T, s store.Store, userID string) {
	if _, err := s.Interventions().Latest(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Latest with no logs: want ErrNotFound, got %v", err)
	}
	now := time.Now().UTC()
	reason := "stress spike"
	for i, typ := range []model.InterventionType{model.InterventionGrounding, model.InterventionBreathing} {
		_, err := s.Interventions().Create(ctx, &model.InterventionLog{
			UserID:          userID,
			Type:            typ,
			TriggerReason:   &reason,
			DurationSeconds: 90,
			Completed:       i == 1,
			CreationTime:    now.Add(-time.Duration(10-i) * 24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("Create intervention %d: %v", i, err)
		}
	}
	all, err := s.Interventions().List(ctx, userID, nil, 0)
	if err != nil || len(all) != 2 || all[0].Type != model.InterventionBreathing || !all[0].Completed {
		t.Fatalf("List: got=%v err=%v", all, err)
	}
	if all[1].TriggerReason == nil || *all[1].TriggerReason != reason || all[1].Subtype != nil {
		t.Fatalf("List optional fields: %+v", all[1])
	}
	since := now.Add(-9*24*time.Hour - time.Hour)
	if lst, err := s.Interventions().List(ctx, userID, &since, 0); err != nil || len(lst) != 1 {
		t.Fatalf("List since: n=%d err=%v", len(lst), err)
	}
	latest, err := s.Interventions().Latest(ctx, userID)
	if err != nil || latest.InterventionID != all[0].InterventionID {
		t.Fatalf("Latest: got=%v err=%v", latest, err)
	}
}

func nudges(ctx context.Context, t *testing.T, s store.Store, userID string) {
	if _, err := s.Nudges().Latest(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Latest with no nudges: want ErrNotFound, got %v", err)
	}
	now := time.Now().UTC()
	if _, err := s.Nudges().Record(ctx, &model.NudgeEvent{UserID: userID, NudgeType: model.InterventionPause, CreationTime: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second, err := s.Nudges().Record(ctx, &model.NudgeEvent{UserID: userID, NudgeType: model.InterventionReflection, Context: "inactivity", CreationTime: now})
	if err != nil {
		t.Fatalf("Record second: %v", err)
	}
	latest, err := s.Nudges().Latest(ctx, userID)
	if err != nil || latest.NudgeID != second.NudgeID || latest.NudgeType != model.InterventionReflection {
		t.Fatalf("Latest: got=%v err=%v", latest, err)
	}
}

func outbox(ctx context.Context, t *testing.T, s store.Store) {
	// drain jobs left over by entry creation
	for {
		jobs, err := s.Outbox().Lease(ctx, 50, time.Hour)
		if err != nil {
			t.Fatalf("drain Lease: %v", err)
		}
		if len(jobs) == 0 {
			break
		}
		for _, j := range jobs {
			if j.Op != store.OpAnalyzeEntry || j.Payload["entry_id"] != j.AggregateID {
				t.Fatalf("entry job: unexpected %+v", j)
			}
			if err := s.Outbox().MarkDone(ctx, j.ID); err != nil {
				t.Fatalf("MarkDone: %v", err)
			}
		}
	}

	agg := "agg-" + uuid.New().String()
	payload := map[string]interface{}{"user_id": "u", "entry_id": agg}
	if err := s.Outbox().Enqueue(ctx, store.OpAnalyzeEntry, agg, payload); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := s.Outbox().Enqueue(ctx, store.OpAnalyzeEntry, agg, payload); err != nil {
		t.Fatalf("Enqueue duplicate: %v", err)
	}

	jobs, err := s.Outbox().Lease(ctx, 10, time.Hour)
	if err != nil || len(jobs) != 1 || jobs[0].AggregateID != agg || jobs[0].Attempts != 0 {
		t.Fatalf("Lease: got=%+v err=%v", jobs, err)
	}
	if again, err := s.Outbox().Lease(ctx, 10, time.Hour); err != nil || len(again) != 0 {
		t.Fatalf("Lease while leased: got=%+v err=%v", again, err)
	}

	if err := s.Outbox().MarkFailed(ctx, jobs[0].ID, "boom", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	retried, err := s.Outbox().Lease(ctx, 10, time.Hour)
	if err != nil || len(retried) != 1 || retried[0].Attempts != 1 {
		t.Fatalf("Lease after MarkFailed: got=%+v err=%v", retried, err)
	}

	if err := s.Outbox().MarkDead(ctx, retried[0].ID, "boom"); err != nil {
		t.Fatalf("MarkDead: %v", err)
	}
	if err := s.Outbox().Enqueue(ctx, store.OpAnalyzeEntry, agg, payload); err != nil {
		t.Fatalf("Enqueue after dead: %v", err)
	}
	requeued, err := s.Outbox().Lease(ctx, 10, time.Hour)
	if err != nil || len(requeued) != 1 || requeued[0].ID == retried[0].ID {
		t.Fatalf("Lease requeued: got=%+v err=%v", requeued, err)
	}
	if err := s.Outbox().MarkDone(ctx, requeued[0].ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
}
