package services

import (
	"context"
	"strconv"
	"time"

	"github.com/sakina-app/sakina-server/internal/cache"
	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
	"github.com/sakina-app/sakina-server/internal/wellness"
)

// InsightsService serves the derived wellness views, caching each per user.
type InsightsService struct{ d Deps }

func NewInsightsService(d Deps) *InsightsService { return &InsightsService{d: d.withDefaults()} }

func (s *InsightsService) window(ctx context.Context, userID string, days int) ([]*model.JournalEntry, []*model.InterventionLog, error) {
	since := s.d.Now().AddDate(0, 0, -days)
	entries, err := s.d.Store.Entries().List(ctx, model.ListEntriesRequest{UserID: userID, Since: &since})
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.d.Store.Interventions().List(ctx, userID, &since, 0)
	if err != nil {
		return nil, nil, err
	}
	return entries, logs, nil
}

// Weekly summarizes the trend over the last days days.
func (s *InsightsService) Weekly(ctx context.Context, userID string, days int) (wellness.TrendSummary, error) {
	if err := wellness.ValidatePeriod(days); err != nil {
		return wellness.TrendSummary{}, err
	}
	key := cache.Key(userID, "weekly", strconv.Itoa(days))
	return cached(ctx, s.d.Cache, key, func() (wellness.TrendSummary, error) {
		since := s.d.Now().AddDate(0, 0, -days)
		entries, err := s.d.Store.Entries().List(ctx, model.ListEntriesRequest{UserID: userID, Since: &since})
		if err != nil {
			return wellness.TrendSummary{}, err
		}
		return wellness.SummarizePeriod(ctx, entries, days, s.d.Gen)
	})
}

// Stats aggregates entries and interventions of the last days days.
func (s *InsightsService) Stats(ctx context.Context, userID string, days int) (wellness.StatsResult, error) {
	if err := wellness.ValidatePeriod(days); err != nil {
		return wellness.StatsResult{}, err
	}
	key := cache.Key(userID, "stats", strconv.Itoa(days))
	return cached(ctx, s.d.Cache, key, func() (wellness.StatsResult, error) {
		entries, logs, err := s.window(ctx, userID, days)
		if err != nil {
			return wellness.StatsResult{}, err
		}
		return wellness.ComputeStats(entries, logs, days)
	})
}

// Streak computes journaling streaks from the most recent distinct entry days.
func (s *InsightsService) Streak(ctx context.Context, userID string) (wellness.StreakResult, error) {
	return cached(ctx, s.d.Cache, cache.Key(userID, "streak"), func() (wellness.StreakResult, error) {
		dates, err := s.d.Store.Entries().DistinctDates(ctx, userID, store.StreakWindow)
		if err != nil {
			return wellness.StreakResult{}, err
		}
		total, err := s.d.Store.Entries().Count(ctx, userID)
		if err != nil {
			return wellness.StreakResult{}, err
		}
		return wellness.ComputeStreak(dates, s.today(), total)
	})
}

func (s *InsightsService) today() time.Time { return wellness.Day(s.d.Now()) }
