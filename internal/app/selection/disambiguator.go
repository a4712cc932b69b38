package selection

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slickgotchi/thereaalm/internal/domain/entity"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

const DefaultHoldThreshold = 200 * time.Millisecond

type State int

const (
	StateIdle State = iota
	StatePressed
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	case StateDragging:
		return "dragging"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Selected is the payload of a selection notification.
type Selected struct {
	ZoneID world.ZoneID    `json:"zoneId"`
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Listener receives every selection change; nil means deselected.
type Listener func(*Selected)

// Picker hit-tests a screen position against live entities.
type Picker interface {
	Pick(x, y float64) (*entity.Entity, bool)
}

// Camera is panned by raw pointer deltas while dragging.
type Camera interface {
	Pan(dx, dy float64)
}

// Disambiguator turns pointer events into either a camera drag or a
// selection change. Timestamps come from the caller so the hold threshold
// follows the input clock.
type Disambiguator struct {
	threshold time.Duration
	picker    Picker
	camera    Camera
	log       logrus.FieldLogger
	listeners []Listener

	state    State
	downAt   time.Time
	lastX    float64
	lastY    float64
	selected *entity.Entity
}

func New(threshold time.Duration, picker Picker, camera Camera, log logrus.FieldLogger) *Disambiguator {
	if threshold <= 0 {
		threshold = DefaultHoldThreshold
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Disambiguator{threshold: threshold, picker: picker, camera: camera, log: log}
}

func (d *Disambiguator) Subscribe(l Listener) {
	if l != nil {
		d.listeners = append(d.listeners, l)
	}
}

func (d *Disambiguator) State() State { return d.state }

// Selected returns the selected entity, or nil.
func (d *Disambiguator) Selected() *entity.Entity { return d.selected }

func (d *Disambiguator) PointerDown(x, y float64, at time.Time) {
	d.state = StatePressed
	d.downAt = at
	d.lastX, d.lastY = x, y
}

func (d *Disambiguator) PointerMove(x, y float64, at time.Time) {
	d.Tick(at)
	dx, dy := x-d.lastX, y-d.lastY
	d.lastX, d.lastY = x, y
	if d.state == StateDragging && d.camera != nil && (dx != 0 || dy != 0) {
		d.camera.Pan(dx, dy)
	}
}

func (d *Disambiguator) PointerUp(x, y float64, at time.Time) {
	d.Tick(at)
	state := d.state
	d.state = StateIdle
	if state != StatePressed {
		return
	}
	if d.picker != nil {
		if e, ok := d.picker.Pick(x, y); ok && !e.Destroyed() {
			d.Select(e)
			return
		}
	}
	d.Clear()
}

// Tick promotes a held press to a drag once the threshold has elapsed.
func (d *Disambiguator) Tick(now time.Time) {
	if d.state == StatePressed && now.Sub(d.downAt) >= d.threshold {
		d.state = StateDragging
	}
}

// Select makes e the only selected entity. Selecting the current selection
// is a no-op.
func (d *Disambiguator) Select(e *entity.Entity) {
	if e == nil {
		d.Clear()
		return
	}
	if e == d.selected {
		return
	}
	if d.selected != nil {
		d.selected.SetSelected(false)
	}
	d.selected = e
	e.SetSelected(true)
	d.log.WithFields(logrus.Fields{"zone": e.ZoneID(), "id": e.ID()}).Debug("entity selected")
	snap := e.Snapshot()
	d.notify(&Selected{ZoneID: e.ZoneID(), ID: e.ID(), Type: snap.Type, Data: snap.Data})
}

func (d *Disambiguator) Clear() {
	if d.selected == nil {
		return
	}
	d.selected.SetSelected(false)
	d.selected = nil
	d.log.Debug("selection cleared")
	d.notify(nil)
}

// EntityDestroyed drops the selection when its entity goes away.
func (d *Disambiguator) EntityDestroyed(e *entity.Entity) {
	if e != nil && e == d.selected {
		d.Clear()
	}
}

func (d *Disambiguator) notify(s *Selected) {
	for _, l := range d.listeners {
		l(s)
	}
}
