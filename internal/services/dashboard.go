package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/wellness"
)

const (
	dashboardEntries   = 5
	dashboardStatsDays = 7
)

// DashboardSummary bundles the views the home screen needs in one call.
type DashboardSummary struct {
	Entries []*model.JournalEntry  `json:"entries"`
	Nudge   wellness.NudgeDecision `json:"nudge"`
	Stats   wellness.StatsResult   `json:"stats"`
	Streak  wellness.StreakResult  `json:"streak"`
}

// DashboardService composes the journal, nudge and insights services.
type DashboardService struct {
	journal  *JournalService
	nudge    *NudgeService
	insights *InsightsService
}

func NewDashboardService(j *JournalService, n *NudgeService, i *InsightsService) *DashboardService {
	return &DashboardService{journal: j, nudge: n, insights: i}
}

func (s *DashboardService) Summary(ctx context.Context, userID string) (DashboardSummary, error) {
	var out DashboardSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Entries, err = s.journal.List(gctx, userID, 0, dashboardEntries, "")
		return err
	})
	g.Go(func() (err error) {
		out.Nudge, err = s.nudge.Check(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Stats, err = s.insights.Stats(gctx, userID, dashboardStatsDays)
		return err
	})
	g.Go(func() (err error) {
		out.Streak, err = s.insights.Streak(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardSummary{}, err
	}
	if out.Entries == nil {
		out.Entries = []*model.JournalEntry{}
	}
	return out, nil
}
