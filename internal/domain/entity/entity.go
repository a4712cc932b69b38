package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/slickgotchi/thereaalm/internal/domain/motion"
	"github.com/slickgotchi/thereaalm/internal/domain/nav"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

var ErrZoneMismatch = errors.New("snapshot zone does not match entity zone")

type State int

const (
	StateIdle State = iota
	StateMoving
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome describes what a reconcile did to the presentation.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeFaced
	OutcomeMoved
	OutcomeSnapped
	OutcomeTeleported
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFaced:
		return "faced"
	case OutcomeMoved:
		return "moved"
	case OutcomeSnapped:
		return "snapped"
	case OutcomeTeleported:
		return "teleported"
	default:
		return "none"
	}
}

type Options struct {
	TileSize     int
	TileDuration time.Duration
	// Strategy routes tile changes of movable entities. Nil snaps instead.
	Strategy nav.Strategy
}

// Frame is the per-tick presentation of one live entity.
type Frame struct {
	ZoneID   world.ZoneID    `json:"zoneId"`
	ID       string          `json:"id"`
	Kind     Kind            `json:"kind"`
	Tile     world.Point     `json:"tile"`
	Pos      world.Vec       `json:"pos"`
	Dir      world.Direction `json:"dir"`
	State    string          `json:"state"`
	Selected bool            `json:"selected"`
	Health   *world.Health   `json:"health,omitempty"`
	Action   string          `json:"action,omitempty"`
}

// Entity keeps the authoritative state reported by snapshots apart from the
// presentation state that is interpolated between them.
type Entity struct {
	id     string
	zone   world.ZoneID
	kind   Kind
	caps   Capabilities
	opts   Options
	worker *motion.Worker

	snap   world.EntitySnapshot
	tile   world.Point
	facing world.Direction

	dir world.Direction

	state    State
	selected bool
	releases []func()
}

func New(snap world.EntitySnapshot, opts Options) *Entity {
	e := &Entity{
		id:     snap.ID,
		zone:   snap.ZoneID,
		kind:   Kind(snap.Type),
		caps:   CapabilitiesOf(Kind(snap.Type)),
		opts:   opts,
		snap:   snap,
		tile:   snap.Tile(),
		facing: snap.FacingHint(),
		dir:    world.DirNone,
		state:  StateIdle,
	}
	if e.caps.Movable {
		e.worker = motion.NewWorker(opts.TileSize, opts.TileDuration, e.onSample)
	}
	return e
}

func (e *Entity) ID() string                     { return e.id }
func (e *Entity) ZoneID() world.ZoneID           { return e.zone }
func (e *Entity) Kind() Kind                     { return e.kind }
func (e *Entity) Capabilities() Capabilities     { return e.caps }
func (e *Entity) Tile() world.Point              { return e.tile }
func (e *Entity) Snapshot() world.EntitySnapshot { return e.snap }
func (e *Entity) Data() json.RawMessage          { return e.snap.Data }
func (e *Entity) State() State                   { return e.state }
func (e *Entity) Selected() bool                 { return e.selected }
func (e *Entity) Destroyed() bool                { return e.state == StateDestroyed }

// Own registers a release func that Destroy runs exactly once.
func (e *Entity) Own(release func()) {
	if release == nil {
		return
	}
	if e.state == StateDestroyed {
		release()
		return
	}
	e.releases = append(e.releases, release)
}

// Reconcile applies a newer snapshot. The authoritative tile and data update
// unconditionally; a tile change restarts the tween from the prior tile.
func (e *Entity) Reconcile(snap world.EntitySnapshot) (Outcome, error) {
	if e.state == StateDestroyed {
		return OutcomeNone, nil
	}
	if snap.ZoneID != e.zone {
		return OutcomeNone, ErrZoneMismatch
	}
	prev := e.tile
	e.snap = snap
	e.tile = snap.Tile()
	e.facing = snap.FacingHint()

	if e.tile == prev {
		e.dir = e.facing
		return OutcomeFaced, nil
	}
	if e.worker == nil || e.opts.Strategy == nil {
		e.settle()
		return OutcomeSnapped, nil
	}
	route := nav.FindPath(prev, e.tile, e.opts.Strategy)
	if len(route) == 0 {
		e.worker.Stop()
		e.settle()
		return OutcomeTeleported, nil
	}
	e.state = StateMoving
	e.worker.TweenToWaypoints(prev, route)
	return OutcomeMoved, nil
}

// Tick advances the presentation by dt.
func (e *Entity) Tick(dt time.Duration) {
	if e.state != StateMoving {
		return
	}
	e.worker.Advance(dt)
}

// Presentation is the worker's last emission while tweening, else the
// authoritative pixel position.
func (e *Entity) Presentation() (world.Vec, world.Direction) {
	if e.worker != nil && e.worker.IsTweening() {
		s := e.worker.Last()
		return s.Pos, s.Dir
	}
	return e.pixel(e.tile), e.dir
}

func (e *Entity) Frame() Frame {
	pos, dir := e.Presentation()
	f := Frame{
		ZoneID:   e.zone,
		ID:       e.id,
		Kind:     e.kind,
		Tile:     e.tile,
		Pos:      pos,
		Dir:      dir,
		State:    e.state.String(),
		Selected: e.selected,
		Action:   e.snap.ActionLabel(),
	}
	if e.caps.HealthTracked {
		if h, ok := e.snap.Health(); ok {
			f.Health = &h
		}
	}
	return f
}

func (e *Entity) SetSelected(selected bool) {
	if e.state == StateDestroyed {
		return
	}
	e.selected = selected
}

// Destroy is terminal. It returns true only on the call that released.
func (e *Entity) Destroy() bool {
	if e.state == StateDestroyed {
		return false
	}
	e.state = StateDestroyed
	e.selected = false
	if e.worker != nil {
		e.worker.Stop()
	}
	releases := e.releases
	e.releases = nil
	for _, release := range releases {
		release()
	}
	return true
}

func (e *Entity) onSample(s motion.Sample) {
	e.dir = s.Dir
	if s.Done && e.state == StateMoving {
		e.state = StateIdle
		e.dir = e.facing
	}
}

func (e *Entity) settle() {
	e.state = StateIdle
	e.dir = e.facing
}

func (e *Entity) pixel(p world.Point) world.Vec {
	return world.PixelOf(p, e.opts.TileSize)
}
