package wellness

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/generative"
	"github.com/sakina-app/sakina-server/internal/model"
)

// TrendSummary is the period insight returned to the client.
type TrendSummary struct {
	Trend          model.Trend `json:"trend"`
	AvgStressScore float64     `json:"avg_stress_score"`
	FrequentThemes []string    `json:"frequent_themes"`
	Recommendation string      `json:"recommendation"`
	WeeklySummary  string      `json:"weekly_summary"`
	EntryCount     int         `json:"entry_count"`
}

const (
	DefaultRecommendation = "Keep journaling regularly to track your wellness."
	DefaultWeeklySummary  = "Thank you for staying connected with your emotions."
	emptyRecommendation   = "Start journaling to track your wellness patterns."
	maxDigestThemes       = 3
)

const insightsPrompt = `You are Sakina, analyzing a user's wellness patterns over the past %s.

**Journal Entries Summary:**
%s

**Entry Count:** %d
**Average Stress Score:** %.1f

**Task:** Provide a supportive summary of their %s.

**Respond ONLY with valid JSON:**
{"trend": "<improving|stable|declining>", "frequent_themes": ["<theme1>", "<theme2>"], "recommendation": "<one actionable recommendation>", "weekly_summary": "<2-3 sentences summarizing their %s warmly>"}
`

// SummarizePeriod builds the trend summary for entries ordered most recent
// first. An empty period is answered locally without calling gen. The
// average is always computed here; the model only supplies the
// qualitative fields.
func SummarizePeriod(ctx context.Context, entries []*model.JournalEntry, periodDays int, gen generative.Completer) (TrendSummary, error) {
	if err := ValidatePeriod(periodDays); err != nil {
		return TrendSummary{}, err
	}
	period := PeriodName(periodDays)

	if len(entries) == 0 {
		return TrendSummary{
			Trend:          model.TrendStable,
			AvgStressScore: 0,
			FrequentThemes: []string{},
			Recommendation: emptyRecommendation,
			WeeklySummary:  fmt.Sprintf("No journal entries yet this %s. Take a moment to check in with yourself.", period),
			EntryCount:     0,
		}, nil
	}

	avg, scored := scoredAverage(entries)
	if scored == 0 {
		avg = unscoredAvgDefault
	}
	avg = round1(avg)

	prompt := fmt.Sprintf(insightsPrompt, period, PeriodDigest(entries), len(entries), avg, period, period)
	out := TrendSummary{
		Trend:          model.TrendStable,
		AvgStressScore: avg,
		FrequentThemes: []string{},
		Recommendation: DefaultRecommendation,
		WeeklySummary:  DefaultWeeklySummary,
		EntryCount:     len(entries),
	}

	obj, err := generative.CompleteJSON(ctx, gen, prompt)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("period_days", periodDays).Msg("insights generation failed; using fallback")
		return out, nil
	}
	if t, err := model.ParseTrend(generative.String(obj, "trend", "")); err == nil {
		out.Trend = t
	}
	out.FrequentThemes = generative.Strings(obj, "frequent_themes", []string{})
	out.Recommendation = generative.String(obj, "recommendation", DefaultRecommendation)
	out.WeeklySummary = generative.String(obj, "weekly_summary", DefaultWeeklySummary)
	return out, nil
}

// PeriodDigest renders one line per entry: weekday, mood, stress and up to
// three themes.
func PeriodDigest(entries []*model.JournalEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		stress := "N/A"
		if e.StressScore != nil {
			stress = fmt.Sprint(*e.StressScore)
		}
		themes := "none identified"
		if len(e.KeyThemes) > 0 {
			n := min(len(e.KeyThemes), maxDigestThemes)
			themes = strings.Join(e.KeyThemes[:n], ", ")
		}
		lines = append(lines, fmt.Sprintf("- %s: Mood=%s, Stress=%s, Themes=%s",
			e.CreationTime.UTC().Weekday(), moodLabel(e.Mood), stress, themes))
	}
	return strings.Join(lines, "\n")
}
