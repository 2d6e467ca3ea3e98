package wellness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakina-app/sakina-server/internal/model"
)

func TestAnalyzeEntry_ParsesAnswer(t *testing.T) {
	gen := &fakeGen{reply: `{"stress_score": 72, "emotional_tone": "overwhelmed", "key_themes": ["work", "deadlines"], "suggested_intervention": "grounding", "supportive_message": "That sounds heavy."}`}
	got := AnalyzeEntry(context.Background(), gen, "so much to do", model.MoodStressed, testNow)

	require.NotNil(t, got.SuggestedIntervention)
	assert.Equal(t, model.InterventionGrounding, *got.SuggestedIntervention)
	assert.Equal(t, 72, got.StressScore)
	assert.Equal(t, "overwhelmed", got.EmotionalTone)
	assert.Equal(t, []string{"work", "deadlines"}, got.KeyThemes)
	assert.Equal(t, "That sounds heavy.", got.SupportiveMessage)
	assert.Equal(t, testNow, got.AnalyzedAt)
	assert.Contains(t, gen.prompts[0], "**User's self-reported mood:** stressed")
}

func TestAnalyzeEntry_ClampsAndDefaults(t *testing.T) {
	gen := &fakeGen{reply: `{"stress_score": 140, "suggested_intervention": "null"}`}
	got := AnalyzeEntry(context.Background(), gen, "x", model.MoodTired, testNow)
	assert.Equal(t, 100, got.StressScore)
	assert.Nil(t, got.SuggestedIntervention)
	assert.Equal(t, "tired", got.EmotionalTone)
	assert.Equal(t, []string{}, got.KeyThemes)
	assert.Equal(t, DefaultSupportiveMessage, got.SupportiveMessage)

	gen = &fakeGen{reply: `{"stress_score": -4}`}
	assert.Equal(t, 0, AnalyzeEntry(context.Background(), gen, "x", "", testNow).StressScore)
}

func TestAnalyzeEntry_FailureYieldsDefaults(t *testing.T) {
	got := AnalyzeEntry(context.Background(), &fakeGen{err: errUnavailable}, "x", "", testNow)
	assert.Equal(t, model.EntryAnalysis{
		StressScore:       50,
		EmotionalTone:     "not recorded",
		KeyThemes:         []string{},
		SupportiveMessage: DefaultSupportiveMessage,
		AnalyzedAt:        testNow,
	}, got)
}
