package wellness

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/generative"
	"github.com/sakina-app/sakina-server/internal/model"
)

// NudgeDecision is ephemeral advice produced fresh per check.
type NudgeDecision struct {
	ShouldNudge bool                   `json:"should_nudge"`
	Message     string                 `json:"message"`
	NudgeType   model.InterventionType `json:"nudge_type"`
	Context     string                 `json:"context"`
	Priority    model.Priority         `json:"priority"`
}

// Context labels for locally decided outcomes.
const (
	ContextDisabled      = "disabled"
	ContextInactivity    = "inactivity"
	ContextNoActivity    = "no recent activity"
	ContextHealthy       = "healthy"
	ContextAlreadyNudged = "nudge already shown today"
)

// InactivityNudgeMessage is shown after 48 hours without an entry.
const InactivityNudgeMessage = "I noticed you've been quiet lately. How are you feeling today?"

const (
	recentWindow       = 24 * time.Hour
	inactivityAfter    = 48 * time.Hour
	highStressAbove    = 70
	healthyAvgBelow    = 40.0
	unscoredAvgDefault = 50.0
	digestEntries      = 5
	snippetRunes       = 100
)

// NudgeInput is everything the gate looks at. RecentEntries must hold the
// entries of the last 24 hours, most recent first.
type NudgeInput struct {
	NudgeEnabled     bool
	RecentEntries    []*model.JournalEntry
	LastEntry        *model.JournalEntry
	LastIntervention *time.Time
	LastNudgeShown   *time.Time
	Now              time.Time
}

const nudgePrompt = `You are Sakina, a proactive wellness companion. Based on the user's recent journal patterns,
decide if they need a gentle intervention nudge.

**Recent Journal Summary:**
%s

**Last nudge:** %s

**Rules:**
- Only nudge if there's genuine concern (multiple stressed entries, declining pattern)
- Don't over-nudge (max once per day unless stress is very high)
- Be warm and non-intrusive
- Suggest specific intervention type based on their needs

**Respond ONLY with valid JSON:**
{"should_nudge": <true|false>, "message": "<warm nudge message if true, empty if false>", "nudge_type": "<breathing|grounding|reflection>", "context": "<brief reason for nudge>", "priority": "<low|medium|high>"}
`

func localDecision(should bool, typ model.InterventionType, reason, message string) NudgeDecision {
	return NudgeDecision{ShouldNudge: should, Message: message, NudgeType: typ, Context: reason, Priority: model.PriorityLow}
}

// DecideNudge applies the local rules in order and only defers to gen when
// none of them settles the question. The first matching rule wins.
func DecideNudge(ctx context.Context, in NudgeInput, gen generative.Completer) NudgeDecision {
	if !in.NudgeEnabled {
		return localDecision(false, model.InterventionBreathing, ContextDisabled, "")
	}

	if len(in.RecentEntries) == 0 {
		if in.LastEntry != nil && in.Now.Sub(in.LastEntry.CreationTime) > inactivityAfter {
			return localDecision(true, model.InterventionReflection, ContextInactivity, InactivityNudgeMessage)
		}
		return localDecision(false, model.InterventionBreathing, ContextNoActivity, "")
	}

	avg, scored := scoredAverage(in.RecentEntries)
	if scored == 0 {
		avg = unscoredAvgDefault
	}
	high := 0
	for _, e := range in.RecentEntries {
		if e != nil && e.StressScore != nil && *e.StressScore > highStressAbove {
			high++
		}
	}
	if avg < healthyAvgBelow && high == 0 {
		return localDecision(false, model.InterventionBreathing, ContextHealthy, "")
	}

	lastIntervention := "Never"
	if in.LastIntervention != nil {
		lastIntervention = in.LastIntervention.UTC().Format(time.RFC3339)
	}
	prompt := fmt.Sprintf(nudgePrompt, RecentDigest(in.RecentEntries), lastIntervention)

	decision := NormalizeNudge(ctx, gen, prompt)
	if decision.ShouldNudge && decision.Priority != model.PriorityHigh &&
		in.LastNudgeShown != nil && in.Now.Sub(*in.LastNudgeShown) < recentWindow {
		zerolog.Ctx(ctx).Debug().
			Time("last_nudge_shown", *in.LastNudgeShown).
			Msg("suppressing nudge: already shown within 24h")
		return localDecision(false, decision.NudgeType, ContextAlreadyNudged, "")
	}
	return decision
}

// NormalizeNudge calls gen and maps its JSON answer onto a NudgeDecision.
// Missing fields take their documented defaults; any failure yields a safe
// negative decision with low priority.
func NormalizeNudge(ctx context.Context, gen generative.Completer, prompt string) NudgeDecision {
	obj, err := generative.CompleteJSON(ctx, gen, prompt)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("nudge generation failed; using fallback")
		return NudgeDecision{NudgeType: model.InterventionBreathing, Priority: model.PriorityLow}
	}

	out := NudgeDecision{
		ShouldNudge: generative.Bool(obj, "should_nudge", false),
		Message:     generative.String(obj, "message", ""),
		NudgeType:   model.InterventionBreathing,
		Context:     generative.String(obj, "context", ""),
		Priority:    model.PriorityMedium,
	}
	if t, err := model.ParseInterventionType(generative.String(obj, "nudge_type", "")); err == nil {
		out.NudgeType = t
	}
	if p, err := model.ParsePriority(generative.String(obj, "priority", "")); err == nil {
		out.Priority = p
	}
	return out
}

// RecentDigest renders up to five entries as prompt lines.
func RecentDigest(entries []*model.JournalEntry) string {
	if len(entries) == 0 {
		return "No recent journal entries."
	}
	var b strings.Builder
	for i, e := range entries {
		if i == digestEntries {
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		stress := "not analyzed"
		if e.StressScore != nil {
			stress = fmt.Sprint(*e.StressScore)
		}
		fmt.Fprintf(&b, "- Mood: %s, Stress: %s, Content snippet: %s...", moodLabel(e.Mood), stress, snippet(e.Content, snippetRunes))
	}
	return b.String()
}

func moodLabel(m model.Mood) string {
	if m == "" {
		return "not recorded"
	}
	return string(m)
}

func snippet(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
