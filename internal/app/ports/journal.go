package ports

import (
	"context"
	"errors"
	"time"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

// ErrNotFound is returned by journals for unknown sessions or empty
// selections, and by world providers for unknown zones.
var ErrNotFound = errors.New("not found")

// TxManager runs fn in one journal transaction; repositories pick the
// transaction up from ctx.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type JournalEntry struct {
	SessionID  string
	Batch      world.Batch
	RecordedAt time.Time
}

// AllZones selects every zone in journal queries.
const AllZones world.ZoneID = -1

type BatchJournal interface {
	Append(ctx context.Context, sessionID string, batch world.Batch) error
	// ListBySession returns entries in recording order. limit <= 0 means no limit.
	ListBySession(ctx context.Context, sessionID string, zone world.ZoneID, limit int) ([]JournalEntry, error)
}

type JournalSession struct {
	SessionID  string    `json:"session_id"`
	StartedAt  time.Time `json:"started_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	Batches    int64     `json:"batches"`
}

// SessionLister is implemented by journals that can enumerate recordings.
type SessionLister interface {
	Sessions(ctx context.Context, limit int) ([]JournalSession, error)
}
