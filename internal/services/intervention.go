package services

import (
	"context"
	"time"

	"github.com/sakina-app/sakina-server/internal/cache"
	"github.com/sakina-app/sakina-server/internal/model"
)

const maxRecentHours = 24 * 30

// LogInterventionInput is the body of an intervention log request.
type LogInterventionInput struct {
	InterventionType string  `json:"intervention_type"`
	Subtype          *string `json:"subtype"`
	TriggerReason    *string `json:"trigger_reason"`
	DurationSeconds  int     `json:"duration_seconds"`
	Completed        bool    `json:"completed"`
}

// RecentInterventions summarizes the exercises of the last few hours.
type RecentInterventions struct {
	Count        int                      `json:"count"`
	Completed    int                      `json:"completed"`
	TotalSeconds int                      `json:"total_seconds"`
	TotalMinutes float64                  `json:"total_minutes"`
	Logs         []*model.InterventionLog `json:"logs"`
}

// InterventionService records guided exercises.
type InterventionService struct{ d Deps }

func NewInterventionService(d Deps) *InterventionService {
	return &InterventionService{d: d.withDefaults()}
}

func (s *InterventionService) Log(ctx context.Context, userID string, in LogInterventionInput) (*model.InterventionLog, error) {
	typ, err := model.ParseInterventionType(in.InterventionType)
	if err != nil {
		return nil, err
	}
	if in.DurationSeconds < 0 {
		return nil, invalid("duration_seconds must not be negative")
	}
	l, err := s.d.Store.Interventions().Create(ctx, &model.InterventionLog{
		UserID:          userID,
		Type:            typ,
		Subtype:         in.Subtype,
		TriggerReason:   in.TriggerReason,
		DurationSeconds: in.DurationSeconds,
		Completed:       in.Completed,
		CreationTime:    s.d.Now(),
	})
	if err != nil {
		return nil, err
	}
	s.d.Cache.EvictPrefix(ctx, cache.UserPrefix(userID))
	return l, nil
}

func (s *InterventionService) List(ctx context.Context, userID string, limit int) ([]*model.InterventionLog, error) {
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	return s.d.Store.Interventions().List(ctx, userID, nil, limit)
}

// Recent reports the logs of the last hours hours with completion totals.
func (s *InterventionService) Recent(ctx context.Context, userID string, hours int) (RecentInterventions, error) {
	if hours <= 0 || hours > maxRecentHours {
		return RecentInterventions{}, invalid("hours must be between 1 and %d", maxRecentHours)
	}
	since := s.d.Now().Add(-time.Duration(hours) * time.Hour)
	logs, err := s.d.Store.Interventions().List(ctx, userID, &since, 0)
	if err != nil {
		return RecentInterventions{}, err
	}
	out := RecentInterventions{Count: len(logs), Logs: logs}
	for _, l := range logs {
		if l.Completed {
			out.Completed++
			out.TotalSeconds += l.DurationSeconds
		}
	}
	out.TotalMinutes = float64(int(float64(out.TotalSeconds)/6+0.5)) / 10
	return out, nil
}
