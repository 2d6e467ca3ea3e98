package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/wellness"
)

const (
	nudgeWindow      = 24 * time.Hour
	statusHighStress = 70
)

// NudgeStatus is the raw 24 hour signal behind the nudge gate.
type NudgeStatus struct {
	EntriesLast24h    int        `json:"entries_last_24h"`
	AvgStressScore    *float64   `json:"avg_stress_score"`
	LastIntervention  *time.Time `json:"last_intervention"`
	HighStressEntries int        `json:"high_stress_entries"`
}

// NudgeShownInput acknowledges a nudge the client displayed.
type NudgeShownInput struct {
	NudgeType string `json:"nudge_type"`
	Context   string `json:"context"`
}

// NudgeService gathers the gate inputs for a user and records shown nudges.
type NudgeService struct{ d Deps }

func NewNudgeService(d Deps) *NudgeService { return &NudgeService{d: d.withDefaults()} }

func (s *NudgeService) recentEntries(ctx context.Context, userID string, now time.Time) ([]*model.JournalEntry, error) {
	since := now.Add(-nudgeWindow)
	return s.d.Store.Entries().List(ctx, model.ListEntriesRequest{UserID: userID, Since: &since})
}

// Check loads the user's recent activity and runs the nudge gate over it.
func (s *NudgeService) Check(ctx context.Context, userID string) (wellness.NudgeDecision, error) {
	now := s.d.Now()
	u, err := s.d.Store.Users().Get(ctx, userID)
	if err != nil {
		return wellness.NudgeDecision{}, err
	}
	in := wellness.NudgeInput{NudgeEnabled: u.NudgeEnabled, Now: now}
	if !u.NudgeEnabled {
		return wellness.DecideNudge(ctx, in, s.d.Gen), nil
	}

	if in.RecentEntries, err = s.recentEntries(ctx, userID, now); err != nil {
		return wellness.NudgeDecision{}, err
	}
	if len(in.RecentEntries) > 0 {
		in.LastEntry = in.RecentEntries[0]
	} else if in.LastEntry, err = optional(s.d.Store.Entries().Latest(ctx, userID)); err != nil {
		return wellness.NudgeDecision{}, err
	}
	last, err := optional(s.d.Store.Interventions().Latest(ctx, userID))
	if err != nil {
		return wellness.NudgeDecision{}, err
	}
	if last != nil {
		in.LastIntervention = &last.CreationTime
	}
	shown, err := optional(s.d.Store.Nudges().Latest(ctx, userID))
	if err != nil {
		return wellness.NudgeDecision{}, err
	}
	if shown != nil {
		in.LastNudgeShown = &shown.CreationTime
	}

	d := wellness.DecideNudge(ctx, in, s.d.Gen)
	zerolog.Ctx(ctx).Debug().
		Bool("should_nudge", d.ShouldNudge).
		Str("context", d.Context).
		Int("recent_entries", len(in.RecentEntries)).
		Msg("nudge decided")
	return d, nil
}

// Status reports the signals of the last 24 hours without deciding anything.
func (s *NudgeService) Status(ctx context.Context, userID string) (NudgeStatus, error) {
	entries, err := s.recentEntries(ctx, userID, s.d.Now())
	if err != nil {
		return NudgeStatus{}, err
	}
	out := NudgeStatus{EntriesLast24h: len(entries)}
	var sum, n int
	for _, e := range entries {
		if e.StressScore == nil {
			continue
		}
		sum += *e.StressScore
		n++
		if *e.StressScore > statusHighStress {
			out.HighStressEntries++
		}
	}
	if n > 0 {
		avg := float64(int(float64(sum)/float64(n)*10+0.5)) / 10
		out.AvgStressScore = &avg
	}
	last, err := optional(s.d.Store.Interventions().Latest(ctx, userID))
	if err != nil {
		return NudgeStatus{}, err
	}
	if last != nil {
		out.LastIntervention = &last.CreationTime
	}
	return out, nil
}

// Shown records that the client displayed a nudge; the gate uses it to avoid repeats.
func (s *NudgeService) Shown(ctx context.Context, userID string, in NudgeShownInput) (*model.NudgeEvent, error) {
	typ, err := model.ParseInterventionType(in.NudgeType)
	if err != nil {
		return nil, err
	}
	return s.d.Store.Nudges().Record(ctx, &model.NudgeEvent{
		UserID:       userID,
		NudgeType:    typ,
		Context:      in.Context,
		CreationTime: s.d.Now(),
	})
}
