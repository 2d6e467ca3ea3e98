package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method, path, query, auth string
	body                      map[string]interface{}
}

func newFakeAPI(t *testing.T, status int, reply string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method, rec.path, rec.query, rec.auth = r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStreakCommand(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK, `{"current_streak":3,"longest_streak":5,"total_entries":9}`)

	out, err := run(t, "--api", srv.URL, "--token", "dev:amal", "streak")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/insights/streak", rec.path)
	assert.Equal(t, "Bearer dev:amal", rec.auth)
	assert.Contains(t, out, `"current_streak": 3`)
}

func TestJournalAddCommand(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusCreated, `{"id":"e1"}`)

	_, err := run(t, "--api", srv.URL, "journal", "add", "-c", "long day", "-m", "tired")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/journal", rec.path)
	assert.Equal(t, "long day", rec.body["content"])
	assert.Equal(t, "tired", rec.body["mood"])
}

func TestJournalAddRequiresMood(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusCreated, `{}`)
	_, err := run(t, "--api", srv.URL, "journal", "add", "-c", "long day")
	assert.Error(t, err)
}

func TestStatsCommandPassesDays(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK, `{}`)

	_, err := run(t, "--api", srv.URL, "stats", "--days", "14")
	require.NoError(t, err)
	assert.Equal(t, "days=14", rec.query)
}

func TestInsightsCommandSendsBody(t *testing.T) {
	srv, rec := newFakeAPI(t, http.StatusOK, `{"trend":"stable"}`)

	_, err := run(t, "--api", srv.URL, "insights", "-d", "30")
	require.NoError(t, err)
	assert.Equal(t, "/api/insights/weekly", rec.path)
	assert.EqualValues(t, 30, rec.body["days"])
}

func TestCommandSurfacesAPIErrors(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusBadRequest, `{"error":"Bad Request","code":400,"message":"validation error: days must be between 1 and 30"}`)

	_, err := run(t, "--api", srv.URL, "stats", "--days", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "days must be between 1 and 30")
}
