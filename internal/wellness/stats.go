package wellness

import "github.com/sakina-app/sakina-server/internal/model"

// StatsResult summarizes a rolling window without any generative call.
type StatsResult struct {
	PeriodDays             int                `json:"period_days"`
	EntryCount             int                `json:"entry_count"`
	AvgStressScore         *float64           `json:"avg_stress_score"`
	MoodDistribution       map[model.Mood]int `json:"mood_distribution"`
	InterventionCount      int                `json:"intervention_count"`
	CompletedInterventions int                `json:"completed_interventions"`
	TotalCalmMinutes       float64            `json:"total_calm_minutes"`
}

// ComputeStats aggregates the snapshot passed in. AvgStressScore is nil
// when no entry has been scored yet, which is distinct from zero stress.
func ComputeStats(entries []*model.JournalEntry, interventions []*model.InterventionLog, periodDays int) (StatsResult, error) {
	if err := ValidatePeriod(periodDays); err != nil {
		return StatsResult{}, err
	}

	res := StatsResult{
		PeriodDays:        periodDays,
		EntryCount:        len(entries),
		MoodDistribution:  map[model.Mood]int{},
		InterventionCount: len(interventions),
	}

	if avg, n := scoredAverage(entries); n > 0 {
		v := round1(avg)
		res.AvgStressScore = &v
	}
	for _, e := range entries {
		if e == nil || e.Mood == "" {
			continue
		}
		res.MoodDistribution[e.Mood]++
	}

	calmSeconds := 0
	for _, iv := range interventions {
		if iv == nil || !iv.Completed {
			continue
		}
		res.CompletedInterventions++
		calmSeconds += iv.DurationSeconds
	}
	res.TotalCalmMinutes = round1(float64(calmSeconds) / 60)
	return res, nil
}
