package world

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/tidwall/gjson"
)

var ErrInvalidSnapshot = errors.New("invalid entity snapshot")

// EntitySnapshot is one entity as reported by the simulation. Data is opaque
// apart from the few hints read below.
type EntitySnapshot struct {
	ID     string          `json:"id"`
	ZoneID ZoneID          `json:"zoneId"`
	Type   string          `json:"type"`
	TileX  int             `json:"tileX"`
	TileY  int             `json:"tileY"`
	Data   json.RawMessage `json:"data,omitempty"`
}

func (s EntitySnapshot) Tile() Point {
	return Point{X: s.TileX, Y: s.TileY}
}

func (s EntitySnapshot) Validate() error {
	if s.ID == "" || s.Type == "" {
		return ErrInvalidSnapshot
	}
	return nil
}

func (s EntitySnapshot) FacingHint() Direction {
	return ParseDirection(gjson.GetBytes(s.Data, "direction").String())
}

type Health struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Health reads stats.pulse / stats.maxpulse. ok is false when the payload
// carries no stats.
func (s EntitySnapshot) Health() (Health, bool) {
	stats := gjson.GetBytes(s.Data, "stats")
	if !stats.Exists() {
		return Health{}, false
	}
	return Health{
		Current: int(stats.Get("pulse").Int()),
		Max:     int(stats.Get("maxpulse").Int()),
	}, true
}

// ActionLabel is the type of the entity's current action, if any.
func (s EntitySnapshot) ActionLabel() string {
	return gjson.GetBytes(s.Data, "actionPlan.currentAction.type").String()
}

// Batch is a point-in-time list of entity states for one zone. Seq is
// assigned by the source when the request is issued and increases per zone.
type Batch struct {
	ZoneID    ZoneID           `json:"zoneId"`
	Seq       uint64           `json:"seq"`
	FetchedAt time.Time        `json:"fetchedAt"`
	Snapshots []EntitySnapshot `json:"entitySnapshots"`
}
