package zonesync

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slickgotchi/thereaalm/internal/domain/entity"
	"github.com/slickgotchi/thereaalm/internal/domain/motion"
	"github.com/slickgotchi/thereaalm/internal/domain/nav"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

type Config struct {
	Layout       world.ZoneLayout
	TileSize     int
	TileDuration time.Duration
	// RouteBudget caps grid-aware route searches; past it the entity
	// teleports. The zero value uses nav.DefaultBudget.
	RouteBudget  nav.Budget
}

func DefaultConfig() Config {
	return Config{
		Layout:       world.DefaultZoneLayout(),
		TileSize:     64,
		TileDuration: motion.DefaultTileDuration,
		RouteBudget:  nav.DefaultBudget(),
	}
}

// Result summarizes one applied (or dropped) batch.
type Result struct {
	Zone      world.ZoneID `json:"zone"`
	Seq       uint64       `json:"seq"`
	Stale     bool         `json:"stale"`
	Diff      Diff         `json:"diff"`
	Skipped   int          `json:"skipped"`
	Teleports int          `json:"teleports"`
}

type zoneState struct {
	grid     *nav.Grid
	entities map[string]*entity.Entity
	lastSeq  uint64
}

// Registry owns every live entity, keyed by zone and id. It is not safe for
// concurrent use; batches are applied on the render goroutine.
type Registry struct {
	cfg       Config
	rng       *rand.Rand
	log       logrus.FieldLogger
	zones     map[world.ZoneID]*zoneState
	onDestroy []func(*entity.Entity)
}

// NewRegistry builds an empty registry. rng seeds route variety; nil uses
// the package-level source.
func NewRegistry(cfg Config, rng *rand.Rand, log logrus.FieldLogger) *Registry {
	def := DefaultConfig()
	if cfg.TileSize <= 0 {
		cfg.TileSize = def.TileSize
	}
	if cfg.TileDuration <= 0 {
		cfg.TileDuration = def.TileDuration
	}
	if cfg.Layout.ZoneTiles <= 0 || cfg.Layout.ZonesPerRow <= 0 {
		cfg.Layout = def.Layout
	}
	if cfg.RouteBudget.Unbounded() {
		cfg.RouteBudget = def.RouteBudget
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		cfg:   cfg,
		rng:   rng,
		log:   log,
		zones: map[world.ZoneID]*zoneState{},
	}
}

func (r *Registry) Config() Config { return r.cfg }

// OnDestroy registers fn to run once when an entity is destroyed. Entities
// already live are covered as well as those created later.
func (r *Registry) OnDestroy(fn func(*entity.Entity)) {
	if fn == nil {
		return
	}
	r.onDestroy = append(r.onDestroy, fn)
	for _, z := range r.zones {
		for _, e := range z.entities {
			e.Own(func() { fn(e) })
		}
	}
}

func (r *Registry) zone(id world.ZoneID) *zoneState {
	z, ok := r.zones[id]
	if !ok {
		z = &zoneState{
			grid:     nav.NewZoneGrid(r.cfg.Layout, id),
			entities: map[string]*entity.Entity{},
		}
		r.zones[id] = z
	}
	return z
}

// Apply reconciles the zone against b. Batches whose Seq is not newer than
// the last applied one are dropped; Seq zero is unsequenced and always applies.
func (r *Registry) Apply(b world.Batch) (Result, error) {
	if b.ZoneID < 0 {
		return Result{}, fmt.Errorf("apply batch: %w: zone %d", ErrInvalidBatch, b.ZoneID)
	}
	res := Result{Zone: b.ZoneID, Seq: b.Seq}
	z := r.zone(b.ZoneID)
	log := r.log.WithFields(logrus.Fields{"zone": b.ZoneID, "seq": b.Seq})

	if b.Seq != 0 {
		if b.Seq <= z.lastSeq {
			res.Stale = true
			log.WithField("last_seq", z.lastSeq).Warn("dropping stale batch")
			return res, nil
		}
		z.lastSeq = b.Seq
	}

	incoming := make(map[string]world.EntitySnapshot, len(b.Snapshots))
	for _, s := range b.Snapshots {
		if err := s.Validate(); err != nil {
			res.Skipped++
			log.WithError(err).Warn("skipping snapshot")
			continue
		}
		if s.ZoneID != b.ZoneID {
			res.Skipped++
			log.WithFields(logrus.Fields{"id": s.ID, "snapshot_zone": s.ZoneID}).Warn("skipping snapshot from another zone")
			continue
		}
		if _, dup := incoming[s.ID]; dup {
			log.WithField("id", s.ID).Warn("duplicate id in batch, keeping the last")
		}
		incoming[s.ID] = s
	}

	current := make(map[string]struct{}, len(z.entities))
	for id := range z.entities {
		current[id] = struct{}{}
	}
	ids := make(map[string]struct{}, len(incoming))
	for id := range incoming {
		ids[id] = struct{}{}
	}
	res.Diff = ComputeDiff(current, ids)

	for _, id := range res.Diff.Remove {
		e := z.entities[id]
		delete(z.entities, id)
		e.Destroy()
		log.WithField("id", id).Debug("entity destroyed")
	}
	for _, id := range res.Diff.Update {
		out, err := z.entities[id].Reconcile(incoming[id])
		if err != nil {
			// The entity stays live on its previous state so the live set
			// still matches the batch.
			res.Skipped++
			log.WithError(err).WithField("id", id).Warn("reconcile failed, keeping previous state")
			continue
		}
		if out == entity.OutcomeTeleported {
			res.Teleports++
			log.WithFields(logrus.Fields{"id": id, "tile": incoming[id].Tile()}).Debug("no route, teleporting")
		}
	}
	for _, id := range res.Diff.Create {
		z.entities[id] = r.create(z, incoming[id])
		log.WithFields(logrus.Fields{"id": id, "kind": incoming[id].Type}).Debug("entity created")
	}
	return res, nil
}

func (r *Registry) create(z *zoneState, s world.EntitySnapshot) *entity.Entity {
	caps := entity.CapabilitiesOf(entity.Kind(s.Type))
	opts := entity.Options{TileSize: r.cfg.TileSize, TileDuration: r.cfg.TileDuration}
	switch {
	case caps.Movable && caps.Avoidance:
		opts.Strategy = nav.NewGridAware(z.grid, r.rng).WithBudget(r.cfg.RouteBudget)
	case caps.Movable:
		opts.Strategy = nav.NewUnobstructed(r.rng)
	}
	if caps.StaticObstacle {
		z.grid.SetPassable(s.TileX, s.TileY, false)
	}
	e := entity.New(s, opts)
	for _, fn := range r.onDestroy {
		e.Own(func() { fn(e) })
	}
	return e
}

func (r *Registry) Lookup(zone world.ZoneID, id string) (*entity.Entity, bool) {
	z, ok := r.zones[zone]
	if !ok {
		return nil, false
	}
	e, ok := z.entities[id]
	return e, ok
}

// LiveIDs returns the sorted live id set of a zone.
func (r *Registry) LiveIDs(zone world.ZoneID) []string {
	z, ok := r.zones[zone]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(z.entities))
	for id := range z.entities {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Zones() []world.ZoneID {
	out := make([]world.ZoneID, 0, len(r.zones))
	for id := range r.zones {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Grid exposes the passability grid of a zone, if the zone has been seen.
func (r *Registry) Grid(zone world.ZoneID) (*nav.Grid, bool) {
	z, ok := r.zones[zone]
	if !ok {
		return nil, false
	}
	return z.grid, true
}

func (r *Registry) LastSeq(zone world.ZoneID) uint64 {
	if z, ok := r.zones[zone]; ok {
		return z.lastSeq
	}
	return 0
}

// Tick advances every live entity's presentation.
func (r *Registry) Tick(dt time.Duration) {
	for _, z := range r.zones {
		for _, e := range z.entities {
			e.Tick(dt)
		}
	}
}

// Frames returns the presentation of every live entity ordered by zone and id.
func (r *Registry) Frames() []entity.Frame {
	var out []entity.Frame
	for _, zone := range r.Zones() {
		for _, id := range r.LiveIDs(zone) {
			out = append(out, r.zones[zone].entities[id].Frame())
		}
	}
	return out
}

func (r *Registry) Len() int {
	n := 0
	for _, z := range r.zones {
		n += len(z.entities)
	}
	return n
}

// Teardown destroys every live entity.
func (r *Registry) Teardown() {
	for _, zone := range r.Zones() {
		z := r.zones[zone]
		for _, id := range r.LiveIDs(zone) {
			z.entities[id].Destroy()
			delete(z.entities, id)
		}
	}
}
