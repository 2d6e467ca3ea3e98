package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
	"github.com/sakina-app/sakina-server/internal/store/storetest"
)

func newMock(t *testing.T) (store.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestEntriesCreate_WritesOutboxInSameTx(t *testing.T) {
	s, mock := newMock(t)
	created := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO journal_entries")).
		WithArgs(sqlmock.AnyArg(), "u1", "text", "hello", "calm", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox")).
		WithArgs(store.OpAnalyzeEntry, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := s.Entries().Create(context.Background(), &model.JournalEntry{UserID: "u1", Content: "hello", Mood: model.MoodCalm})
	require.NoError(t, err)
	assert.NotEmpty(t, got.EntryID)
	assert.Equal(t, model.EntryText, got.EntryType)
	assert.Equal(t, created, got.CreationTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntriesCreate_RollsBackWhenOutboxFails(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO journal_entries")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.Entries().Create(context.Background(), &model.JournalEntry{UserID: "u1", Content: "x"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersCreate_ConflictOnExisting(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := s.Users().Create(context.Background(), store.NewUser("u1", "a@b.c"))
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestUsersUpdatePreferences_BuildsPartialUpdate(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now().UTC()
	theme := "dark"
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET updated_at=now(), theme=$1 WHERE user_id=$2")).
		WithArgs("dark", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "email", "locale", "theme", "subscription", "nudge_enabled", "daily_reminder", "created_at", "updated_at"}).
			AddRow("u1", "", "en", "dark", "free", true, true, now, now))

	got, err := s.Users().UpdatePreferences(context.Background(), "u1", model.UserPreferences{Theme: &theme})
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntriesUpdateAnalysis_NotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE journal_entries")).
		WithArgs(40, "calm", `["rest"]`, nil, "ok", sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Entries().UpdateAnalysis(context.Background(), "missing", model.EntryAnalysis{
		StressScore: 40, EmotionalTone: "calm", KeyThemes: []string{"rest"}, SupportiveMessage: "ok", AnalyzedAt: time.Now(),
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEntriesList_FiltersAndPaging(t *testing.T) {
	s, mock := newMock(t)
	since := time.Now().Add(-24 * time.Hour)
	mood := model.MoodStressed
	score := int64(80)
	cols := []string{"entry_id", "user_id", "entry_type", "content", "mood", "stress_score", "emotional_tone",
		"key_themes", "suggested_intervention", "supportive_message", "analyzed_at", "created_at"}

	mock.ExpectQuery(`FROM journal_entries WHERE user_id=\$1 AND created_at >= \$2 AND mood = \$3 ORDER BY created_at DESC LIMIT \$4 OFFSET \$5`).
		WithArgs("u1", since, "stressed", 10, 20).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("e1", "u1", "text", "hi", "stressed", score, "tense", []byte(`["work"]`), "breathing", "hang in", time.Now(), time.Now()).
			AddRow("e2", "u1", "voice", "yo", "stressed", nil, nil, nil, nil, nil, nil, time.Now()))

	got, err := s.Entries().List(context.Background(), model.ListEntriesRequest{UserID: "u1", Since: &since, Mood: &mood, Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].StressScore)
	assert.Equal(t, 80, *got[0].StressScore)
	assert.Equal(t, []string{"work"}, got[0].KeyThemes)
	assert.True(t, got[0].IsAnalyzed())
	assert.Nil(t, got[1].StressScore)
	assert.Nil(t, got[1].KeyThemes)
	assert.False(t, got[1].IsAnalyzed())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxLease_UsesSkipLocked(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WithArgs(5, 30.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "op", "aggregate_id", "attempt_count", "payload"}).
			AddRow(int64(9), store.OpAnalyzeEntry, "e9", 2, []byte(`{"user_id":"u","entry_id":"e9"}`)).
			AddRow(int64(7), store.OpAnalyzeEntry, "e7", 0, []byte(`not json`)))

	jobs, err := s.Outbox().Lease(context.Background(), 5, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, int64(7), jobs[0].ID)
	assert.Nil(t, jobs[0].Payload)
	assert.Equal(t, "e9", jobs[1].Payload["entry_id"])
	assert.Equal(t, 2, jobs[1].Attempts)
}

func TestOutboxMarkFailed(t *testing.T) {
	s, mock := newMock(t)
	retry := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("SET attempt_count = attempt_count + 1, last_error = $2, next_attempt_at = $3")).
		WithArgs(int64(3), "boom", retry).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Outbox().MarkFailed(context.Background(), 3, "boom", retry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Compliance(t *testing.T) {
	dsn := os.Getenv("SAKINA_TEST_POSTGRES_DSN")
	if dsn == "" && os.Getenv("SAKINA_TEST_CONTAINERS") != "" {
		dsn = startPostgres(t)
	}
	if dsn == "" {
		t.Skip("SAKINA_TEST_POSTGRES_DSN and SAKINA_TEST_CONTAINERS not set; skipping postgres store integration test")
	}
	storetest.Run(t, func(t *testing.T) store.Store {
		db, err := Open(dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		require.NoError(t, EnsureSchema(context.Background(), db))
		return NewWithDB(db)
	})
}

// startPostgres runs a throwaway postgres container and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "sakina",
			"POSTGRES_PASSWORD": "sakina",
			"POSTGRES_DB":       "sakina",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://sakina:sakina@%s:%s/sakina?sslmode=disable", host, port.Port())
}
