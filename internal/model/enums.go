package model

import (
	"fmt"
	"strings"
)

// Mood is the self-reported mood attached to a journal entry.
type Mood string

const (
	MoodStressed  Mood = "stressed"
	MoodAnxious   Mood = "anxious"
	MoodTired     Mood = "tired"
	MoodOkay      Mood = "okay"
	MoodCalm      Mood = "calm"
	MoodEnergized Mood = "energized"
)

var moods = []Mood{MoodStressed, MoodAnxious, MoodTired, MoodOkay, MoodCalm, MoodEnergized}

// EntryType tells how the entry was captured.
type EntryType string

const (
	EntryText  EntryType = "text"
	EntryVoice EntryType = "voice"
)

// InterventionType names a guided exercise. Nudge types share this set.
type InterventionType string

const (
	InterventionBreathing  InterventionType = "breathing"
	InterventionGrounding  InterventionType = "grounding"
	InterventionPause      InterventionType = "pause"
	InterventionReflection InterventionType = "reflection"
)

var interventionTypes = []InterventionType{InterventionBreathing, InterventionGrounding, InterventionPause, InterventionReflection}

// Trend is the qualitative stress direction over a period.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

var trends = []Trend{TrendImproving, TrendStable, TrendDeclining}

// Priority ranks how urgent a nudge is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// canonical lowercases and trims external text before matching.
func canonical(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func parseEnum[T ~string](kind, s string, set []T) (T, error) {
	c := canonical(s)
	for _, v := range set {
		if string(v) == c {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q", ErrValidation, kind, s)
}

// ParseMood maps external text to a Mood.
func ParseMood(s string) (Mood, error) { return parseEnum("mood", s, moods) }

// ParseEntryType maps external text to an EntryType; empty means text.
func ParseEntryType(s string) (EntryType, error) {
	if canonical(s) == "" {
		return EntryText, nil
	}
	return parseEnum("entry type", s, []EntryType{EntryText, EntryVoice})
}

// ParseInterventionType maps external text to an InterventionType.
func ParseInterventionType(s string) (InterventionType, error) {
	return parseEnum("intervention type", s, interventionTypes)
}

// ParseTrend maps external text to a Trend.
func ParseTrend(s string) (Trend, error) { return parseEnum("trend", s, trends) }

// ParsePriority maps external text to a Priority.
func ParsePriority(s string) (Priority, error) { return parseEnum("priority", s, priorities) }
