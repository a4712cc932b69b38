package inmemory

import (
	"strconv"
	"sync"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

type Snapshot struct {
	BatchesApplied  uint64            `json:"batches_applied"`
	BatchesStale    uint64            `json:"batches_stale"`
	BatchesRejected uint64            `json:"batches_rejected"`
	EntitiesCreated uint64            `json:"entities_created"`
	EntitiesUpdated uint64            `json:"entities_updated"`
	EntitiesRemoved uint64            `json:"entities_removed"`
	Teleports       uint64            `json:"teleports"`
	AppliedByZone   map[string]uint64 `json:"applied_by_zone"`
}

type Recorder struct {
	mu       sync.Mutex
	applied  uint64
	stale    uint64
	rejected uint64
	created  uint64
	updated  uint64
	removed  uint64
	teleport uint64
	byZone   map[world.ZoneID]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byZone: map[world.ZoneID]uint64{},
	}
}

func (r *Recorder) RecordApplied(zone world.ZoneID, created, updated, removed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied++
	r.byZone[zone]++
	r.created += uint64(created)
	r.updated += uint64(updated)
	r.removed += uint64(removed)
}

func (r *Recorder) RecordStale(world.ZoneID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale++
}

func (r *Recorder) RecordRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *Recorder) RecordTeleports(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teleport += uint64(n)
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		BatchesApplied:  r.applied,
		BatchesStale:    r.stale,
		BatchesRejected: r.rejected,
		EntitiesCreated: r.created,
		EntitiesUpdated: r.updated,
		EntitiesRemoved: r.removed,
		Teleports:       r.teleport,
		AppliedByZone:   make(map[string]uint64, len(r.byZone)),
	}
	for k, v := range r.byZone {
		out.AppliedByZone[strconv.Itoa(int(k))] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
