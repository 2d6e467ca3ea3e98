package wellness

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakina-app/sakina-server/internal/generative"
	"github.com/sakina-app/sakina-server/internal/model"
)

// DefaultSupportiveMessage is used whenever the model gives none.
const DefaultSupportiveMessage = "Thank you for sharing. I'm here with you."

const defaultStressScore = 50

const analysisPrompt = `You are Sakina, a warm and supportive wellness companion for young professionals.
Your role is to analyze journal entries with empathy and provide emotional support.

Analyze this journal entry and provide insights:

**Journal Entry:** %s

**User's self-reported mood:** %s

**Instructions:**
1. Assess the stress level (0-100, where 0 is completely calm and 100 is extremely stressed)
2. Identify the emotional tone in 1-2 words
3. Extract 2-3 key themes or concerns
4. Suggest an appropriate intervention if stress is elevated
5. Write a warm, supportive message (1-2 sentences, NO clinical language)

**IMPORTANT:** Respond ONLY with valid JSON in this EXACT format (no markdown, no extra text):
{"stress_score": <number 0-100>, "emotional_tone": "<1-2 words>", "key_themes": ["<theme1>", "<theme2>"], "suggested_intervention": "<breathing|grounding|reflection|null>", "supportive_message": "<warm supportive message>"}
`

// AnalyzeEntry derives the analysis fields for one journal entry. It never
// fails: generation problems produce the neutral defaults, so re-running
// with the same model answer writes the same values.
func AnalyzeEntry(ctx context.Context, gen generative.Completer, content string, mood model.Mood, now time.Time) model.EntryAnalysis {
	out := model.EntryAnalysis{
		StressScore:       defaultStressScore,
		EmotionalTone:     moodLabel(mood),
		KeyThemes:         []string{},
		SupportiveMessage: DefaultSupportiveMessage,
		AnalyzedAt:        now.UTC(),
	}

	obj, err := generative.CompleteJSON(ctx, gen, fmt.Sprintf(analysisPrompt, content, moodLabel(mood)))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("entry analysis generation failed; using fallback")
		return out
	}

	out.StressScore = clampScore(generative.Int(obj, "stress_score", defaultStressScore))
	out.EmotionalTone = generative.String(obj, "emotional_tone", out.EmotionalTone)
	out.KeyThemes = generative.Strings(obj, "key_themes", []string{})
	out.SupportiveMessage = generative.String(obj, "supportive_message", DefaultSupportiveMessage)
	if t, err := model.ParseInterventionType(generative.String(obj, "suggested_intervention", "")); err == nil {
		out.SuggestedIntervention = &t
	}
	return out
}

func clampScore(v int) int {
	return max(0, min(100, v))
}
