// Package sqlite is the single-file store used by the local build target
// and by tests. Timestamps are stored as fixed-width UTC text so that
// lexical order matches time order.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakina-app/sakina-server/internal/model"
	"github.com/sakina-app/sakina-server/internal/store"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = "2006-01-02T15:04:05.000000000Z"

func ts(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTS(s string) (time.Time, error) { return time.Parse(timeLayout, s) }

// New opens the database at path and applies the schema.
func New(ctx context.Context, path string) (store.Store, *sql.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return NewWithDB(db), db, nil
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}

// NewWithDB wraps an existing connection whose schema is already applied.
func NewWithDB(db *sql.DB) store.Store {
	return &sqliteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

func (s *sqliteStore) Users() store.Users                 { return &users{s} }
func (s *sqliteStore) Entries() store.Entries             { return &entries{s} }
func (s *sqliteStore) Interventions() store.Interventions { return &interventions{s} }
func (s *sqliteStore) Nudges() store.Nudges               { return &nudges{s} }
func (s *sqliteStore) Outbox() store.Outbox               { return &outbox{s} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return err
}

// --- Users ---
type users struct{ *sqliteStore }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	now := u.now()
	res, err := u.db.ExecContext(ctx, `
        INSERT INTO users (user_id, email, locale, theme, subscription, nudge_enabled, daily_reminder, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?)
        ON CONFLICT(user_id) DO NOTHING
    `, m.UserID, m.Email, m.Locale, m.Theme, m.Subscription, m.NudgeEnabled, m.DailyReminder, ts(now), ts(now))
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("user %s: %w", m.UserID, model.ErrConflict)
	}
	out := *m
	out.CreationTime = now
	out.UpdateTime = now
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	var created, updated string
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, locale, theme, subscription, nudge_enabled, daily_reminder, created_at, updated_at
        FROM users WHERE user_id=?
    `, userID)
	if err := row.Scan(&out.UserID, &out.Email, &out.Locale, &out.Theme, &out.Subscription,
		&out.NudgeEnabled, &out.DailyReminder, &created, &updated); err != nil {
		return nil, notFound(err, "user "+userID)
	}
	out.CreationTime, _ = parseTS(created)
	out.UpdateTime, _ = parseTS(updated)
	return &out, nil
}

func (u *users) UpdatePreferences(ctx context.Context, userID string, p model.UserPreferences) (*model.User, error) {
	sets := []string{"updated_at=?"}
	args := []interface{}{ts(u.now())}
	if p.Locale != nil {
		sets = append(sets, "locale=?")
		args = append(args, *p.Locale)
	}
	if p.Theme != nil {
		sets = append(sets, "theme=?")
		args = append(args, *p.Theme)
	}
	if p.NudgeEnabled != nil {
		sets = append(sets, "nudge_enabled=?")
		args = append(args, *p.NudgeEnabled)
	}
	if p.DailyReminder != nil {
		sets = append(sets, "daily_reminder=?")
		args = append(args, *p.DailyReminder)
	}
	args = append(args, userID)
	res, err := u.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE user_id=?`, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
	}
	return u.Get(ctx, userID)
}

// --- Entries ---
type entries struct{ *sqliteStore }

const entryColumns = `entry_id, user_id, entry_type, content, mood, stress_score, emotional_tone,
       key_themes, suggested_intervention, supportive_message, analyzed_at, created_at`

type scanner interface{ Scan(dest ...any) error }

func scanEntry(row scanner) (*model.JournalEntry, error) {
	var e model.JournalEntry
	var mood, tone, themes, suggested, message, analyzed sql.NullString
	var stress sql.NullInt64
	var created string
	if err := row.Scan(&e.EntryID, &e.UserID, &e.EntryType, &e.Content, &mood, &stress, &tone,
		&themes, &suggested, &message, &analyzed, &created); err != nil {
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
	if themes.Valid {
		_ = json.Unmarshal([]byte(themes.String), &e.KeyThemes)
	}
	if suggested.Valid {
		t := model.InterventionType(suggested.String)
		e.SuggestedIntervention = &t
	}
	if message.Valid {
		e.SupportiveMessage = &message.String
	}
	if analyzed.Valid {
		if t, err := parseTS(analyzed.String); err == nil {
			e.AnalyzedAt = &t
		}
	}
	e.CreationTime, _ = parseTS(created)
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
	if out.CreationTime.IsZero() {
		out.CreationTime = e.now()
	}
	out.CreationTime = out.CreationTime.UTC()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO journal_entries (entry_id, user_id, entry_type, content, mood, created_at)
        VALUES (?,?,?,?,?,?)
    `, out.EntryID, out.UserID, string(out.EntryType), out.Content, nullString(string(out.Mood)), ts(out.CreationTime)); err != nil {
		return nil, err
	}
	payload := map[string]interface{}{"user_id": out.UserID, "entry_id": out.EntryID}
	if err := enqueue(ctx, tx, e.now(), store.OpAnalyzeEntry, out.EntryID, payload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *entries) Get(ctx context.Context, userID, entryID string) (*model.JournalEntry, error) {
	row := e.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE user_id=? AND entry_id=?`, userID, entryID)
	out, err := scanEntry(row)
	if err != nil {
		return nil, notFound(err, "entry "+entryID)
	}
	return out, nil
}

func (e *entries) List(ctx context.Context, req model.ListEntriesRequest) ([]*model.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE user_id=?`
	args := []interface{}{req.UserID}
	if req.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, ts(*req.Since))
	}
	if req.Mood != nil {
		query += " AND mood = ?"
		args = append(args, string(*req.Mood))
	}
	query += " ORDER BY created_at DESC"
	if req.Limit > 0 || req.Offset > 0 {
		limit := req.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, req.Offset)
	}
	return e.query(ctx, query, args...)
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
	row := e.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE user_id=? ORDER BY created_at DESC LIMIT 1`, userID)
	out, err := scanEntry(row)
	if err != nil {
		return nil, notFound(err, "latest entry")
	}
	return out, nil
}

func (e *entries) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries WHERE user_id=?`, userID).Scan(&n)
	return n, err
}

func (e *entries) DistinctDates(ctx context.Context, userID string, limit int) ([]time.Time, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT DISTINCT substr(created_at, 1, 10) AS d FROM journal_entries
        WHERE user_id=? ORDER BY d DESC LIMIT ?
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []time.Time
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		day, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return nil, fmt.Errorf("parse entry day %q: %w", d, err)
		}
		out = append(out, day)
	}
	return out, rows.Err()
}

func (e *entries) UpdateAnalysis(ctx context.Context, entryID string, a model.EntryAnalysis) error {
	themes, err := json.Marshal(a.KeyThemes)
	if err != nil {
		return err
	}
	var suggested interface{}
	if a.SuggestedIntervention != nil {
		suggested = string(*a.SuggestedIntervention)
	}
	res, err := e.db.ExecContext(ctx, `
        UPDATE journal_entries
        SET stress_score=?, emotional_tone=?, key_themes=?, suggested_intervention=?, supportive_message=?, analyzed_at=?
        WHERE entry_id=?
    `, a.StressScore, a.EmotionalTone, string(themes), suggested, a.SupportiveMessage, ts(a.AnalyzedAt), entryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s: %w", entryID, model.ErrNotFound)
	}
	return nil
}

func (e *entries) Delete(ctx context.Context, userID, entryID string) error {
	res, err := e.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE user_id=? AND entry_id=?`, userID, entryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s: %w", entryID, model.ErrNotFound)
	}
	return nil
}

func (e *entries) ListUnanalyzed(ctx context.Context, olderThan time.Time, limit int) ([]*model.JournalEntry, error) {
	return e.query(ctx, `SELECT `+entryColumns+` FROM journal_entries
        WHERE analyzed_at IS NULL AND created_at < ? ORDER BY created_at ASC LIMIT ?`, ts(olderThan), limit)
}

// --- Interventions ---
type interventions struct{ *sqliteStore }

const interventionColumns = `intervention_id, user_id, intervention_type, subtype, trigger_reason, duration_seconds, completed, created_at`

func scanIntervention(row scanner) (*model.InterventionLog, error) {
	var l model.InterventionLog
	var subtype, reason sql.NullString
	var created string
	if err := row.Scan(&l.InterventionID, &l.UserID, &l.Type, &subtype, &reason, &l.DurationSeconds, &l.Completed, &created); err != nil {
		return nil, err
	}
	if subtype.Valid {
		l.Subtype = &subtype.String
	}
	if reason.Valid {
		l.TriggerReason = &reason.String
	}
	l.CreationTime, _ = parseTS(created)
	return &l, nil
}

func (i *interventions) Create(ctx context.Context, l *model.InterventionLog) (*model.InterventionLog, error) {
	out := *l
	out.InterventionID = uuid.New().String()
	if out.CreationTime.IsZero() {
		out.CreationTime = i.now()
	}
	out.CreationTime = out.CreationTime.UTC()
	_, err := i.db.ExecContext(ctx, `
        INSERT INTO interventions (intervention_id, user_id, intervention_type, subtype, trigger_reason, duration_seconds, completed, created_at)
        VALUES (?,?,?,?,?,?,?,?)
    `, out.InterventionID, out.UserID, string(out.Type), out.Subtype, out.TriggerReason, out.DurationSeconds, out.Completed, ts(out.CreationTime))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (i *interventions) List(ctx context.Context, userID string, since *time.Time, limit int) ([]*model.InterventionLog, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions WHERE user_id=?`
	args := []interface{}{userID}
	if since != nil {
		query += " AND created_at >= ?"
		args = append(args, ts(*since))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := i.db.QueryContext(ctx, query, args...)
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
	row := i.db.QueryRowContext(ctx, `SELECT `+interventionColumns+` FROM interventions WHERE user_id=? ORDER BY created_at DESC LIMIT 1`, userID)
	l, err := scanIntervention(row)
	if err != nil {
		return nil, notFound(err, "latest intervention")
	}
	return l, nil
}

// --- Nudges ---
type nudges struct{ *sqliteStore }

func (n *nudges) Record(ctx context.Context, ev *model.NudgeEvent) (*model.NudgeEvent, error) {
	out := *ev
	out.NudgeID = uuid.New().String()
	if out.CreationTime.IsZero() {
		out.CreationTime = n.now()
	}
	out.CreationTime = out.CreationTime.UTC()
	_, err := n.db.ExecContext(ctx, `INSERT INTO nudge_events (nudge_id, user_id, nudge_type, context, created_at) VALUES (?,?,?,?,?)`,
		out.NudgeID, out.UserID, string(out.NudgeType), out.Context, ts(out.CreationTime))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (n *nudges) Latest(ctx context.Context, userID string) (*model.NudgeEvent, error) {
	var out model.NudgeEvent
	var created string
	row := n.db.QueryRowContext(ctx, `
        SELECT nudge_id, user_id, nudge_type, context, created_at
        FROM nudge_events WHERE user_id=? ORDER BY created_at DESC LIMIT 1
    `, userID)
	if err := row.Scan(&out.NudgeID, &out.UserID, &out.NudgeType, &out.Context, &created); err != nil {
		return nil, notFound(err, "latest nudge")
	}
	out.CreationTime, _ = parseTS(created)
	return &out, nil
}

// --- Outbox ---
type outbox struct{ *sqliteStore }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func enqueue(ctx context.Context, x execer, now time.Time, op, aggregateID string, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = x.ExecContext(ctx, `
        INSERT INTO outbox (op, aggregate_id, payload, next_attempt_at, created_at, update_time)
        SELECT ?, ?, ?, ?, ?, ?
        WHERE NOT EXISTS (SELECT 1 FROM outbox WHERE op=? AND aggregate_id=? AND status='pending')
    `, op, aggregateID, string(b), ts(now), ts(now), ts(now), op, aggregateID)
	return err
}

func (o *outbox) Enqueue(ctx context.Context, op, aggregateID string, payload map[string]interface{}) error {
	return enqueue(ctx, o.db, o.now(), op, aggregateID, payload)
}

func (o *outbox) Lease(ctx context.Context, limit int, leaseFor time.Duration) ([]model.OutboxJob, error) {
	now := o.now()
	rows, err := o.db.QueryContext(ctx, `
        UPDATE outbox SET next_attempt_at=?, update_time=?
        WHERE id IN (
            SELECT id FROM outbox WHERE status='pending' AND next_attempt_at <= ?
            ORDER BY id ASC LIMIT ?
        )
        RETURNING id, op, aggregate_id, attempt_count, payload
    `, ts(now.Add(leaseFor)), ts(now), ts(now), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []model.OutboxJob
	for rows.Next() {
		var j model.OutboxJob
		var raw string
		if err := rows.Scan(&j.ID, &j.Op, &j.AggregateID, &j.Attempts, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &j.Payload); err != nil {
			j.Payload = nil
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].ID < jobs[b].ID })
	return jobs, nil
}

func (o *outbox) MarkDone(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `UPDATE outbox SET status='done', update_time=? WHERE id=?`, ts(o.now()), id)
	return err
}

func (o *outbox) MarkFailed(ctx context.Context, id int64, cause string, retryAt time.Time) error {
	_, err := o.db.ExecContext(ctx, `
        UPDATE outbox SET attempt_count=attempt_count+1, last_error=?, next_attempt_at=?, update_time=?
        WHERE id=?
    `, cause, ts(retryAt), ts(o.now()), id)
	return err
}

func (o *outbox) MarkDead(ctx context.Context, id int64, cause string) error {
	_, err := o.db.ExecContext(ctx, `
        UPDATE outbox SET status='dead', attempt_count=attempt_count+1, last_error=?, update_time=?
        WHERE id=?
    `, cause, ts(o.now()), id)
	return err
}
