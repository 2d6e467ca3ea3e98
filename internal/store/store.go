package store

import (
	"context"
	"time"

	"github.com/sakina-app/sakina-server/internal/model"
)

// OpAnalyzeEntry is the outbox operation that populates the analysis
// fields of one journal entry. Its payload carries user_id and entry_id.
const OpAnalyzeEntry = "analyze_entry"

// StreakWindow caps how many distinct entry days a streak looks at.
const StreakWindow = 90

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
// Lookups of a single missing record return model.ErrNotFound.
type Store interface {
	Users() Users
	Entries() Entries
	Interventions() Interventions
	Nudges() Nudges
	Outbox() Outbox
}

type Users interface {
	// Create returns model.ErrConflict when the user already exists.
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	UpdatePreferences(ctx context.Context, userID string, p model.UserPreferences) (*model.User, error)
}

type Entries interface {
	// Create stores the entry and enqueues OpAnalyzeEntry in the same transaction.
	Create(ctx context.Context, e *model.JournalEntry) (*model.JournalEntry, error)
	Get(ctx context.Context, userID, entryID string) (*model.JournalEntry, error)
	// List returns entries most recent first.
	List(ctx context.Context, req model.ListEntriesRequest) ([]*model.JournalEntry, error)
	Latest(ctx context.Context, userID string) (*model.JournalEntry, error)
	Count(ctx context.Context, userID string) (int, error)
	// DistinctDates returns up to limit distinct UTC entry days, most recent first.
	DistinctDates(ctx context.Context, userID string, limit int) ([]time.Time, error)
	// UpdateAnalysis overwrites the analysis fields; last write wins.
	UpdateAnalysis(ctx context.Context, entryID string, a model.EntryAnalysis) error
	Delete(ctx context.Context, userID, entryID string) error
	// ListUnanalyzed returns entries created before olderThan that still lack analysis.
	ListUnanalyzed(ctx context.Context, olderThan time.Time, limit int) ([]*model.JournalEntry, error)
}

type Interventions interface {
	Create(ctx context.Context, l *model.InterventionLog) (*model.InterventionLog, error)
	// List returns logs most recent first; since and limit are optional.
	List(ctx context.Context, userID string, since *time.Time, limit int) ([]*model.InterventionLog, error)
	Latest(ctx context.Context, userID string) (*model.InterventionLog, error)
}

type Nudges interface {
	Record(ctx context.Context, n *model.NudgeEvent) (*model.NudgeEvent, error)
	Latest(ctx context.Context, userID string) (*model.NudgeEvent, error)
}

// Outbox is the durable queue of asynchronous work.
type Outbox interface {
	// Enqueue is a no-op when an identical op is already pending for aggregateID.
	Enqueue(ctx context.Context, op, aggregateID string, payload map[string]interface{}) error
	// Lease hides up to limit ready jobs from other workers for leaseFor.
	Lease(ctx context.Context, limit int, leaseFor time.Duration) ([]model.OutboxJob, error)
	MarkDone(ctx context.Context, id int64) error
	// MarkFailed bumps the attempt counter and schedules the next try.
	MarkFailed(ctx context.Context, id int64, cause string, retryAt time.Time) error
	// MarkDead bumps the attempt counter and parks the job for good.
	MarkDead(ctx context.Context, id int64, cause string) error
}

// NewUser returns a user with the default preferences for a first login.
func NewUser(userID, email string) *model.User {
	return &model.User{
		UserID:        userID,
		Email:         email,
		Locale:        "en",
		Theme:         "system",
		Subscription:  "free",
		NudgeEnabled:  true,
		DailyReminder: true,
	}
}
