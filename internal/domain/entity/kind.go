package entity

type Kind string

const (
	KindGotchi             Kind = "gotchi"
	KindLickquidator       Kind = "lickquidator"
	KindBerryBush          Kind = "berrybush"
	KindKekWoodTree        Kind = "kekwoodtree"
	KindFomoBerryBush      Kind = "fomoberrybush"
	KindAlphaSlateBoulders Kind = "alphaslateboulders"
	KindImpassable         Kind = "impassable"
	KindShop               Kind = "shop"
	KindAltar              Kind = "altar"
	KindLickVoid           Kind = "lickvoid"
)

// Capabilities replace per-kind behaviour. Movable entities tween between
// tiles; Avoidance selects the grid-aware route strategy; StaticObstacle
// blocks its tile on creation.
type Capabilities struct {
	Movable        bool `json:"movable"`
	Avoidance      bool `json:"avoidance"`
	StaticObstacle bool `json:"static_obstacle"`
	HealthTracked  bool `json:"health_tracked"`
}

var kinds = map[Kind]Capabilities{
	KindGotchi:             {Movable: true, Avoidance: true, HealthTracked: true},
	KindLickquidator:       {Movable: true, HealthTracked: true},
	KindBerryBush:          {StaticObstacle: true},
	KindKekWoodTree:        {StaticObstacle: true},
	KindFomoBerryBush:      {StaticObstacle: true},
	KindAlphaSlateBoulders: {StaticObstacle: true},
	KindImpassable:         {StaticObstacle: true},
	KindShop:               {},
	KindAltar:              {},
	KindLickVoid:           {StaticObstacle: true, HealthTracked: true},
}

// CapabilitiesOf returns the capability set of k. Unknown kinds are plain
// static entities.
func CapabilitiesOf(k Kind) Capabilities {
	return kinds[k]
}

// Known reports whether k is in the kinds table.
func Known(k Kind) bool {
	_, ok := kinds[k]
	return ok
}
