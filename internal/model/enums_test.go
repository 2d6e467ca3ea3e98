package model

import (
	"errors"
	"testing"
)

func TestParseMood_Canonicalizes(t *testing.T) {
	for _, in := range []string{"Calm", " calm ", "CALM"} {
		got, err := ParseMood(in)
		if err != nil || got != MoodCalm {
			t.Fatalf("ParseMood(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMood("ecstatic"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseEntryType_DefaultsToText(t *testing.T) {
	got, err := ParseEntryType("")
	if err != nil || got != EntryText {
		t.Fatalf("got %q, %v", got, err)
	}
	if got, _ := ParseEntryType("Voice"); got != EntryVoice {
		t.Fatalf("got %q", got)
	}
}

func TestParsePriorityAndTrend(t *testing.T) {
	if p, err := ParsePriority("HIGH"); err != nil || p != PriorityHigh {
		t.Fatalf("priority: %q %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatalf("expected error for unknown priority")
	}
	if tr, err := ParseTrend("Declining"); err != nil || tr != TrendDeclining {
		t.Fatalf("trend: %q %v", tr, err)
	}
	if it, err := ParseInterventionType("pause"); err != nil || it != InterventionPause {
		t.Fatalf("intervention: %q %v", it, err)
	}
}
