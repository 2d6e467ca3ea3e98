package model

import "time"

// User holds account preferences. The ID comes from the identity provider.
type User struct {
	UserID        string    `json:"id"`
	Email         string    `json:"email"`
	Locale        string    `json:"locale"`
	Theme         string    `json:"theme"`
	Subscription  string    `json:"subscription"`
	NudgeEnabled  bool      `json:"nudge_enabled"`
	DailyReminder bool      `json:"daily_reminder"`
	CreationTime  time.Time `json:"created_at"`
	UpdateTime    time.Time `json:"updated_at"`
}

// UserPreferences is a partial update; nil fields are left unchanged.
type UserPreferences struct {
	Locale        *string `json:"locale,omitempty"`
	Theme         *string `json:"theme,omitempty"`
	NudgeEnabled  *bool   `json:"nudge_enabled,omitempty"`
	DailyReminder *bool   `json:"daily_reminder,omitempty"`
}

// JournalEntry is an immutable journal record. The analysis fields stay
// empty until the asynchronous analysis job populates them.
type JournalEntry struct {
	EntryID               string            `json:"id"`
	UserID                string            `json:"user_id"`
	EntryType             EntryType         `json:"entry_type"`
	Content               string            `json:"content"`
	Mood                  Mood              `json:"mood"`
	StressScore           *int              `json:"stress_score"`
	EmotionalTone         *string           `json:"emotional_tone"`
	KeyThemes             []string          `json:"key_themes"`
	SuggestedIntervention *InterventionType `json:"suggested_intervention"`
	SupportiveMessage     *string           `json:"supportive_message"`
	AnalyzedAt            *time.Time        `json:"analyzed_at"`
	CreationTime          time.Time         `json:"created_at"`
}

// IsAnalyzed reports whether the analysis write-back has happened.
func (e *JournalEntry) IsAnalyzed() bool { return e.AnalyzedAt != nil }

// EntryAnalysis is the set of fields written back onto a JournalEntry.
type EntryAnalysis struct {
	StressScore           int
	EmotionalTone         string
	KeyThemes             []string
	SuggestedIntervention *InterventionType
	SupportiveMessage     string
	AnalyzedAt            time.Time
}

// InterventionLog records one attempted or completed exercise.
type InterventionLog struct {
	InterventionID  string           `json:"id"`
	UserID          string           `json:"user_id"`
	Type            InterventionType `json:"intervention_type"`
	Subtype         *string          `json:"subtype"`
	TriggerReason   *string          `json:"trigger_reason"`
	DurationSeconds int              `json:"duration_seconds"`
	Completed       bool             `json:"completed"`
	CreationTime    time.Time        `json:"created_at"`
}

// NudgeEvent records that a nudge was actually surfaced to the user.
type NudgeEvent struct {
	NudgeID      string           `json:"id"`
	UserID       string           `json:"user_id"`
	NudgeType    InterventionType `json:"nudge_type"`
	Context      string           `json:"context"`
	CreationTime time.Time        `json:"created_at"`
}

// ListEntriesRequest captures filters used when listing journal entries.
// Results are always ordered most recent first.
type ListEntriesRequest struct {
	UserID string
	Since  *time.Time
	Mood   *Mood
	Offset int
	Limit  int
}

// OutboxJob is a leased unit of asynchronous work.
type OutboxJob struct {
	ID          int64
	Op          string
	AggregateID string
	Attempts    int
	Payload     map[string]interface{}
}
