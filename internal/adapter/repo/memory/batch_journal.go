package memory

import (
	"context"
	"sort"
	"time"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

type BatchJournal struct {
	store *Store
	tx    TxManager
	now   func() time.Time
}

func NewBatchJournal(store *Store) BatchJournal {
	return BatchJournal{store: store, tx: NewTxManager(store), now: time.Now}
}

func (r BatchJournal) Append(ctx context.Context, sessionID string, batch world.Batch) error {
	now := r.now()
	return r.tx.RunInTx(ctx, func(context.Context) error {
		s, ok := r.store.sessions[sessionID]
		if !ok {
			s = ports.JournalSession{SessionID: sessionID, StartedAt: now}
		}
		s.LastSeenAt = now
		s.Batches++
		r.store.sessions[sessionID] = s
		r.store.batches[sessionID] = append(r.store.batches[sessionID], ports.JournalEntry{
			SessionID:  sessionID,
			Batch:      batch,
			RecordedAt: now,
		})
		return nil
	})
}

func (r BatchJournal) ListBySession(_ context.Context, sessionID string, zone world.ZoneID, limit int) ([]ports.JournalEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entries, ok := r.store.batches[sessionID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	out := make([]ports.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if zone != ports.AllZones && e.Batch.ZoneID != zone {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, ports.ErrNotFound
	}
	return out, nil
}

func (r BatchJournal) Sessions(_ context.Context, limit int) ([]ports.JournalSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]ports.JournalSession, 0, len(r.store.sessions))
	for _, s := range r.store.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeenAt.After(out[j].LastSeenAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
