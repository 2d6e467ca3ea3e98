package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users                 { return &users{db: s.db} }
func (s *pgStore) Entries() store.Entries             { return &entries{db: s.db} }
func (s *pgStore) Interventions() store.Interventions { return &interventions{db: s.db} }
func (s *pgStore) Nudges() store.Nudges               { return &nudges{db: s.db} }
func (s *pgStore) Outbox() store.Outbox               { return &outbox{db: s.db} }

// HealthPing implements health.HealthPinger for Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap checks connectivity and applies the schema.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil // No DSN configured, skip bootstrap
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return EnsureSchema(ctx, db)
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return err
}

func affected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return nil
}

// args numbers positional parameters for dynamically built queries.
type args []interface{}

func (a *args) add(v interface{}) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

// --- Users ---
type users struct{ db *sql.DB }

const userColumns = `user_id, email, locale, theme, subscription, nudge_enabled, daily_reminder, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var out model.User
	if err := row.Scan(&out.UserID, &out.Email, &out.Locale, &out.Theme, &out.Subscription,
		&out.NudgeEnabled, &out.DailyReminder, &out.CreationTime, &out.UpdateTime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, email, locale, theme, subscription, nudge_enabled, daily_reminder)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (user_id) DO NOTHING
        RETURNING `+userColumns,
		m.UserID, m.Email, m.Locale, m.Theme, m.Subscription, m.NudgeEnabled, m.DailyReminder)
	out, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", m.UserID, model.ErrConflict)
	}
	return out, err
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	out, err := scanUser(u.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, userID))
	if err != nil {
		return nil, notFound(err, "user "+userID)
	}
	return out, nil
}

func (u *users) UpdatePreferences(ctx context.Context, userID string, p model.UserPreferences) (*model.User, error) {
	var a args
	sets := []string{"updated_at=now()"}
	if p.Locale != nil {
		sets = append(sets, "locale="+a.add(*p.Locale))
	}
	if p.Theme != nil {
		sets = append(sets, "theme="+a.add(*p.Theme))
	}
	if p.NudgeEnabled != nil {
		sets = append(sets, "nudge_enabled="+a.add(*p.NudgeEnabled))
	}
	if p.DailyReminder != nil {
		sets = append(sets, "daily_reminder="+a.add(*p.DailyReminder))
	}
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE user_id=` + a.add(userID) + ` RETURNING ` + userColumns
	out, err := scanUser(u.db.QueryRowContext(ctx, query, a...))
	if err != nil {
		return nil, notFound(err, "user "+userID)
	}
	return out, nil
}

// --- Entries ---
type entries struct{ db *sql.DB }

const entryColumns = `entry_id, user_id, entry_type, content, mood, stress_score, emotional_tone,
       key_themes, suggested_intervention, supportive_message, analyzed_at, created_at`

type scanner interface{ Scan(dest ...any) error }

func scanEntry(row scanner) (*model.JournalEntry, error) {
	var e model.JournalEntry
	var mood, tone, suggested, message sql.NullString
	var themes []byte
	var stress sql.NullInt64
	var analyzed sql.NullTime
	if err := row.Scan(&e.EntryID, &e.UserID, &e.EntryType, &e.Content, &mood, &stress, &tone,
		&themes, &suggested, &message, &analyzed, &e.CreationTime); err != nil {
		return nil, err
	}
	e.Mood = model.Mood(mood.String)
	if stress.Valid {
		v := int(stress.Int64)
		e.StressScore = &v
	}
	if tone.Valid {
		e.EmotionalTone = &tone.String
	}
	if len(themes) > 0 {
		_ = json.Unmarshal(themes, &e.KeyThemes)
	}
	if suggested.Valid {
		t := model.InterventionType(suggested.String)
		e.SuggestedIntervention = &t
	}
	if message.Valid {
		e.SupportiveMessage = &message.String
	}
	if analyzed.Valid {
		t := analyzed.Time.UTC()
		e.AnalyzedAt = &t
	}
	e.CreationTime = e.CreationTime.UTC()
	return &e, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (e *entries) Create(ctx context.Context, je *model.JournalEntry) (*model.JournalEntry, error) {
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out := *je
	out.EntryID = uuid.New().String()
	if out.EntryType == "" {
		out.EntryType = model.EntryText
	}
	var createdArg interface{}
	if !out.CreationTime.IsZero() {
		createdArg = out.CreationTime.UTC()
	}
	row := tx.QueryRowContext(ctx, `
        INSERT INTO journal_entries (entry_id, user_id, entry_type, content, mood, created_at)
        VALUES ($1,$2,$3,$4,$5,COALESCE($6, now()))
        RETURNING created_at
    `, out.EntryID, out.UserID, string(out.EntryType), out.Content, nullString(string(out.Mood)), createdArg)
	if err := row.Scan(&out.CreationTime); err != nil {
		return nil, err
	}
	out.CreationTime = out.CreationTime.UTC()

	payload := map[string]interface{}{"user_id": out.UserID, "entry_id": out.EntryID}
	if err := writeOutbox(ctx, tx, store.OpAnalyzeEntry, out.EntryID, payload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *entries) Get(ctx context.Context, userID, entryID string) (*model.JournalEntry, error) {
	row := e.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE user_id=$1 AND entry_id=$2`, userID, entryID)
	out, err := scanEntry(row)
	if err != nil {
		return nil, notFound(err, "entry "+entryID)
	}
	return out, nil
}

func (e *entries) List(ctx context.Context, req model.ListEntriesRequest) ([]*model.JournalEntry, error) {
	var a args
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE user_id=` + a.add(req.UserID)
	if req.Since != nil {
		query += " AND created_at >= " + a.add(*req.Since)
	}
	if req.Mood != nil {
		query += " AND mood = " + a.add(string(*req.Mood))
	}
	query += " ORDER BY created_at DESC"
	if req.Limit > 0 {
		query += " LIMIT " + a.add(req.Limit)
	}
	if req.Offset > 0 {
		query += " OFFSET " + a.add(req.Offset)
	}
	return e.query(ctx, query, a...)
}

func (e *entries) query(ctx context.Context, query string, args ...interface{}) ([]*model.JournalEntry, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.JournalEntry{}
	for rows.Next() {
		je, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, je)
	}
	return out, rows.Err()
}

func (e *entries) Latest(ctx context.Context, userID string) (*model.JournalEntry, error) {
	row := e.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE user_id=$1 ORDER BY created_at DESC LIMIT 1`, userID)
	out, err := scanEntry(row)
	if err != nil {
		return nil, notFound(err, "latest entry")
	}
	return out, nil
}

func (e *entries) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

func (e *entries) DistinctDates(ctx context.Context, userID string, limit int) ([]time.Time, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT DISTINCT (created_at AT TIME ZONE 'UTC')::date AS d FROM journal_entries
        WHERE user_id=$1 ORDER BY d DESC LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		y, m, dd := d.Date()
		out = append(out, time.Date(y, m, dd, 0, 0, 0, 0, time.UTC))
	}
	return out, rows.Err()
}

func (e *entries) UpdateAnalysis(ctx context.Context, entryID string, an model.EntryAnalysis) error {
	themes, err := json.Marshal(an.KeyThemes)
	if err != nil {
		return err
	}
	var suggested interface{}
	if an.SuggestedIntervention != nil {
		suggested = string(*an.SuggestedIntervention)
	}
	res, err := e.db.ExecContext(ctx, `
        UPDATE journal_entries
        SET stress_score=$1, emotional_tone=$2, key_themes=$3, suggested_intervention=$4, supportive_message=$5, analyzed_at=$6
        WHERE entry_id=$7
    `, an.StressScore, an.EmotionalTone, string(themes), suggested, an.SupportiveMessage, an.AnalyzedAt.UTC(), entryID)
	if err != nil {
		return err
	}
	return affected(res, "entry "+entryID)
}

func (e *entries) Delete(ctx context.Context, userID, entryID string) error {
	res, err := e.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE user_id=$1 AND entry_id=$2`, userID, entryID)
	if err != nil {
		return err
	}
	return affected(res, "entry "+entryID)
}

func (e *entries) ListUnanalyzed(ctx context.Context, olderThan time.Time, limit int) ([]*model.JournalEntry, error) {
	return e.query(ctx, `SELECT `+entryColumns+` FROM journal_entries
        WHERE analyzed_at IS NULL AND created_at < $1 ORDER BY created_at ASC LIMIT $2`, olderThan.UTC(), limit)
}

// --- Interventions ---
type interventions struct{ db *sql.DB }

const interventionColumns = `intervention_id, user_id, intervention_type, subtype, trigger_reason, duration_seconds, completed, created_at`

func scanIntervention(row scanner) (*model.InterventionLog, error) {
	var l model.InterventionLog
	var subtype, reason sql.NullString
	if err := row.Scan(&l.InterventionID, &l.UserID, &l.Type, &subtype, &reason, &l.DurationSeconds, &l.Completed, &l.CreationTime); err != nil {
		return nil, err
	}
	if subtype.Valid {
		l.Subtype = &subtype.String
	}
	if reason.Valid {
		l.TriggerReason = &reason.String
	}
	l.CreationTime = l.CreationTime.UTC()
	return &l, nil
}

func (i *interventions) Create(ctx context.Context, l *model.InterventionLog) (*model.InterventionLog, error) {
	out := *l
	out.InterventionID = uuid.New().String()
	var createdArg interface{}
	if !out.CreationTime.IsZero() {
		createdArg = out.CreationTime.UTC()
	}
	row := i.db.QueryRowContext(ctx, `
        INSERT INTO interventions (intervention_id, user_id, intervention_type, subtype, trigger_reason, duration_seconds, completed, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE($8, now()))
        RETURNING created_at
    `, out.InterventionID, out.UserID, string(out.Type), out.Subtype, out.TriggerReason, out.DurationSeconds, out.Completed, createdArg)
	if err := row.Scan(&out.CreationTime); err != nil {
		return nil, err
	}
	out.CreationTime = out.CreationTime.UTC()
	return &out, nil
}

func (i *interventions) List(ctx context.Context, userID string, since *time.Time, limit int) ([]*model.InterventionLog, error) {
	var a args
	query := `SELECT ` + interventionColumns + ` FROM interventions WHERE user_id=` + a.add(userID)
	if since != nil {
		query += " AND created_at >= " + a.add(*since)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT " + a.add(limit)
	}
	rows, err := i.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*model.InterventionLog{}
	for rows.Next() {
		l, err := scanIntervention(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (i *interventions) Latest(ctx context.Context, userID string) (*model.InterventionLog, error) {
	row := i.db.QueryRowContext(ctx, `SELECT `+interventionColumns+` FROM interventions WHERE user_id=$1 ORDER BY created_at DESC LIMIT 1`, userID)
	l, err := scanIntervention(row)
	if err != nil {
		return nil, notFound(err, "latest intervention")
	}
	return l, nil
}

// --- Nudges ---
type nudges struct{ db *sql.DB }

func (n *nudges) Record(ctx context.Context, ev *model.NudgeEvent) (*model.NudgeEvent, error) {
	out := *ev
	out.NudgeID = uuid.New().String()
	var createdArg interface{}
	if !out.CreationTime.IsZero() {
		createdArg = out.CreationTime.UTC()
	}
	row := n.db.QueryRowContext(ctx, `
        INSERT INTO nudge_events (nudge_id, user_id, nudge_type, context, created_at)
        VALUES ($1,$2,$3,$4,COALESCE($5, now()))
        RETURNING created_at
    `, out.NudgeID, out.UserID, string(out.NudgeType), out.Context, createdArg)
	if err := row.Scan(&out.CreationTime); err != nil {
		return nil, err
	}
	out.CreationTime = out.CreationTime.UTC()
	return &out, nil
}

func (n *nudges) Latest(ctx context.Context, userID string) (*model.NudgeEvent, error) {
	var out model.NudgeEvent
	row := n.db.QueryRowContext(ctx, `
        SELECT nudge_id, user_id, nudge_type, context, created_at
        FROM nudge_events WHERE user_id=$1 ORDER BY created_at DESC LIMIT 1
    `, userID)
	if err := row.Scan(&out.NudgeID, &out.UserID, &out.NudgeType, &out.Context, &out.CreationTime); err != nil {
		return nil, notFound(err, "latest nudge")
	}
	out.CreationTime = out.CreationTime.UTC()
	return &out, nil
}
