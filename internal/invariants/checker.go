// Package invariants holds black-box checks of the wellness API's
// invariants. They only use the public HTTP surface, so they run
// unchanged against an in-process router or a deployed dev stack.
package invariants

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// InvariantChecker tests system invariants using customer-facing APIs
type InvariantChecker struct {
	baseURL  string
	client   *http.Client
	tokenFor func(userID string) string
}

// NewInvariantChecker creates a checker that authenticates as "dev:<user>",
// which the service accepts when SAKINA_AUTH_MODE=dev.
func NewInvariantChecker(baseURL string) *InvariantChecker {
	return &InvariantChecker{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		tokenFor: func(userID string) string { return "dev:" + userID },
	}
}

// CheckAll runs every invariant with fresh users derived from prefix.
func (ic *InvariantChecker) CheckAll(t *testing.T, prefix string) {
	t.Run("StreakBounds", func(t *testing.T) { ic.CheckStreakInvariant(t, prefix+"-streak") })
	t.Run("EntryPrivacy", func(t *testing.T) { ic.CheckEntryPrivacyInvariant(t, prefix+"-alice", prefix+"-bob") })
	t.Run("StatsBounds", func(t *testing.T) { ic.CheckStatsInvariant(t, prefix+"-stats") })
	t.Run("NudgeOptOut", func(t *testing.T) { ic.CheckNudgeOptOutInvariant(t, prefix+"-optout") })
	t.Run("PeriodBounds", func(t *testing.T) { ic.CheckPeriodBoundsInvariant(t, prefix+"-period") })
}

// INVARIANT: longest streak never falls below current streak, and writing
// an entry is visible in the streak immediately.
func (ic *InvariantChecker) CheckStreakInvariant(t *testing.T, userID string) {
	before := ic.streak(t, userID)
	assert.GreaterOrEqual(t, before.LongestStreak, before.CurrentStreak)

	ic.createEntry(t, userID, "Quiet morning, coffee on the balcony.", "calm")

	after := ic.streak(t, userID)
	assert.Equal(t, before.TotalEntries+1, after.TotalEntries, "new entries must not be hidden by cached streaks")
	assert.GreaterOrEqual(t, after.CurrentStreak, 1, "an entry today keeps the streak active")
	assert.GreaterOrEqual(t, after.LongestStreak, after.CurrentStreak)
}

// INVARIANT: entries are only visible to their author.
func (ic *InvariantChecker) CheckEntryPrivacyInvariant(t *testing.T, owner, other string) {
	e := ic.createEntry(t, owner, "Private thoughts about the week.", "okay")

	ic.makeRequest(t, owner, http.MethodGet, "/api/journal/"+e.EntryID, nil, http.StatusOK)
	ic.makeRequest(t, other, http.MethodGet, "/api/journal/"+e.EntryID, nil, http.StatusNotFound)
	ic.makeRequest(t, other, http.MethodDelete, "/api/journal/"+e.EntryID, nil, http.StatusNotFound)

	var list []EntryResponse
	require.NoError(t, json.Unmarshal(ic.makeRequest(t, other, http.MethodGet, "/api/journal", nil, http.StatusOK), &list))
	for _, got := range list {
		assert.NotEqual(t, e.EntryID, got.EntryID, "listing must not leak other users' entries")
	}
}

// INVARIANT: stats stay within their documented ranges; an unscored
// period reports a null average rather than zero.
func (ic *InvariantChecker) CheckStatsInvariant(t *testing.T, userID string) {
	var empty StatsResponse
	require.NoError(t, json.Unmarshal(ic.makeRequest(t, userID, http.MethodGet, "/api/insights/stats?days=7", nil, http.StatusOK), &empty))
	assert.Zero(t, empty.EntryCount)
	assert.Nil(t, empty.AvgStressScore, "no scored entries means no average")

	ic.createEntry(t, userID, "Deadline stress again.", "stressed")
	ic.createEntry(t, userID, "Better after a walk.", "calm")

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(ic.makeRequest(t, userID, http.MethodGet, "/api/insights/stats?days=7", nil, http.StatusOK), &stats))
	assert.Equal(t, 2, stats.EntryCount)
	sum := 0
	for _, n := range stats.MoodDistribution {
		sum += n
	}
	assert.LessOrEqual(t, sum, stats.EntryCount)
	if stats.AvgStressScore != nil {
		assert.GreaterOrEqual(t, *stats.AvgStressScore, 0.0)
		assert.LessOrEqual(t, *stats.AvgStressScore, 100.0)
	}
	assert.GreaterOrEqual(t, stats.TotalCalmMinutes, 0.0)
	assert.LessOrEqual(t, stats.CompletedInterventions, stats.InterventionCount)
}

// INVARIANT: a user who turned nudges off is never nudged.
func (ic *InvariantChecker) CheckNudgeOptOutInvariant(t *testing.T, userID string) {
	ic.makeRequest(t, userID, http.MethodPatch, "/api/users/preferences", map[string]interface{}{"nudge_enabled": false}, http.StatusOK)
	ic.createEntry(t, userID, "Everything is too much today.", "stressed")

	var d NudgeResponse
	require.NoError(t, json.Unmarshal(ic.makeRequest(t, userID, http.MethodPost, "/api/nudge/check", nil, http.StatusOK), &d))
	assert.False(t, d.ShouldNudge)
	assert.Equal(t, "disabled", d.Context)
}

// INVARIANT: periods outside 1..30 days are rejected, never clamped.
func (ic *InvariantChecker) CheckPeriodBoundsInvariant(t *testing.T, userID string) {
	for _, days := range []int{0, 31} {
		ic.makeRequest(t, userID, http.MethodGet, fmt.Sprintf("/api/insights/stats?days=%d", days), nil, http.StatusBadRequest)
		ic.makeRequest(t, userID, http.MethodPost, "/api/insights/weekly", map[string]int{"days": days}, http.StatusBadRequest)
	}
}

func (ic *InvariantChecker) streak(t *testing.T, userID string) StreakResponse {
	var s StreakResponse
	require.NoError(t, json.Unmarshal(ic.makeRequest(t, userID, http.MethodGet, "/api/insights/streak", nil, http.StatusOK), &s))
	return s
}

func (ic *InvariantChecker) createEntry(t *testing.T, userID, content, mood string) EntryResponse {
	resp := ic.makeRequest(t, userID, http.MethodPost, "/api/journal",
		map[string]string{"content": content, "mood": mood}, http.StatusCreated)
	var e EntryResponse
	require.NoError(t, json.Unmarshal(resp, &e))
	require.NotEmpty(t, e.EntryID)
	return e
}

func (ic *InvariantChecker) makeRequest(t *testing.T, userID, method, path string, body interface{}, expectedStatus int) []byte {
	t.Helper()
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, ic.baseURL+path, bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ic.tokenFor(userID))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ic.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, expectedStatus, resp.StatusCode,
		"%s %s: %s", method, path, string(respBody))
	return respBody
}

// Response models, limited to the fields the invariants look at.

type EntryResponse struct {
	EntryID     string `json:"id"`
	Mood        string `json:"mood"`
	StressScore *int   `json:"stress_score"`
}

type StreakResponse struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
	TotalEntries  int `json:"total_entries"`
}

type StatsResponse struct {
	EntryCount             int            `json:"entry_count"`
	AvgStressScore         *float64       `json:"avg_stress_score"`
	MoodDistribution       map[string]int `json:"mood_distribution"`
	InterventionCount      int            `json:"intervention_count"`
	CompletedInterventions int            `json:"completed_interventions"`
	TotalCalmMinutes       float64        `json:"total_calm_minutes"`
}

type NudgeResponse struct {
	ShouldNudge bool   `json:"should_nudge"`
	Context     string `json:"context"`
}
