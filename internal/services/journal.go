package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/cache"
	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/wellness"
)

const (
	maxContentRunes  = 5000
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// CreateEntryInput is the caller-supplied part of a new journal entry.
type CreateEntryInput struct {
	Content   string `json:"content"`
	Mood      string `json:"mood"`
	EntryType string `json:"entry_type"`
}

// AnalyzeInput is a preview request that is not persisted.
type AnalyzeInput struct {
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

// AnalysisPreview mirrors the analysis fields of a journal entry.
type AnalysisPreview struct {
	StressScore           int                     `json:"stress_score"`
	EmotionalTone         string                  `json:"emotional_tone"`
	KeyThemes             []string                `json:"key_themes"`
	SuggestedIntervention *model.InterventionType `json:"suggested_intervention"`
	SupportiveMessage     string                  `json:"supportive_message"`
}

// JournalService creates and reads journal entries.
type JournalService struct{ d Deps }

func NewJournalService(d Deps) *JournalService { return &JournalService{d: d.withDefaults()} }

func validContent(content string) (string, error) {
	c := strings.TrimSpace(content)
	if c == "" {
		return "", invalid("content is required")
	}
	if utf8.RuneCountInString(c) > maxContentRunes {
		return "", invalid("content exceeds %d characters", maxContentRunes)
	}
	return c, nil
}

// Create stores the entry; analysis is queued and fills in later.
func (s *JournalService) Create(ctx context.Context, userID string, in CreateEntryInput) (*model.JournalEntry, error) {
	content, err := validContent(in.Content)
	if err != nil {
		return nil, err
	}
	mood, err := model.ParseMood(in.Mood)
	if err != nil {
		return nil, err
	}
	typ, err := model.ParseEntryType(in.EntryType)
	if err != nil {
		return nil, err
	}
	e, err := s.d.Store.Entries().Create(ctx, &model.JournalEntry{
		UserID:       userID,
		EntryType:    typ,
		Content:      content,
		Mood:         mood,
		CreationTime: s.d.Now(),
	})
	if err != nil {
		return nil, err
	}
	s.d.Cache.EvictPrefix(ctx, cache.UserPrefix(userID))
	zerolog.Ctx(ctx).Info().Str("entry_id", e.EntryID).Str("mood", string(mood)).Msg("journal entry created")
	return e, nil
}

// List pages through entries most recent first. mood "" or "all" disables the filter.
func (s *JournalService) List(ctx context.Context, userID string, skip, limit int, mood string) ([]*model.JournalEntry, error) {
	if skip < 0 {
		return nil, invalid("skip must not be negative")
	}
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	req := model.ListEntriesRequest{UserID: userID, Offset: skip, Limit: limit}
	if m := strings.TrimSpace(mood); m != "" && !strings.EqualFold(m, "all") {
		parsed, err := model.ParseMood(m)
		if err != nil {
			return nil, err
		}
		req.Mood = &parsed
	}
	return s.d.Store.Entries().List(ctx, req)
}

func (s *JournalService) Get(ctx context.Context, userID, entryID string) (*model.JournalEntry, error) {
	return s.d.Store.Entries().Get(ctx, userID, entryID)
}

func (s *JournalService) Delete(ctx context.Context, userID, entryID string) error {
	if err := s.d.Store.Entries().Delete(ctx, userID, entryID); err != nil {
		return err
	}
	s.d.Cache.EvictPrefix(ctx, cache.UserPrefix(userID))
	return nil
}

// Analyze runs the entry analysis synchronously without storing anything.
func (s *JournalService) Analyze(ctx context.Context, in AnalyzeInput) (AnalysisPreview, error) {
	content, err := validContent(in.Content)
	if err != nil {
		return AnalysisPreview{}, err
	}
	mood, err := model.ParseMood(in.Mood)
	if err != nil {
		return AnalysisPreview{}, err
	}
	a := wellness.AnalyzeEntry(ctx, s.d.Gen, content, mood, s.d.Now())
	return AnalysisPreview{
		StressScore:           a.StressScore,
		EmotionalTone:         a.EmotionalTone,
		KeyThemes:             a.KeyThemes,
		SuggestedIntervention: a.SuggestedIntervention,
		SupportiveMessage:     a.SupportiveMessage,
	}, nil
}
