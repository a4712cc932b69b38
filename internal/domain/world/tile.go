package world

type Direction string

const (
	DirNone  Direction = "none"
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// ParseDirection maps a facing hint onto a Direction. Anything unknown is DirNone.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case DirUp, DirDown, DirLeft, DirRight:
		return Direction(s)
	default:
		return DirNone
	}
}

// DirectionBetween is the direction of a single step from a to b.
func DirectionBetween(a, b Point) Direction {
	switch {
	case b.X > a.X:
		return DirRight
	case b.X < a.X:
		return DirLeft
	case b.Y > a.Y:
		return DirDown
	case b.Y < a.Y:
		return DirUp
	default:
		return DirNone
	}
}

// Vec is a pixel-space position.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Lerp(to Vec, t float64) Vec {
	return Vec{X: v.X + (to.X-v.X)*t, Y: v.Y + (to.Y-v.Y)*t}
}

// PixelOf returns the pixel coordinate of a tile.
func PixelOf(p Point, tileSize int) Vec {
	return Vec{X: float64(p.X * tileSize), Y: float64(p.Y * tileSize)}
}

type Waypoint struct {
	TileX     int       `json:"tileX"`
	TileY     int       `json:"tileY"`
	Direction Direction `json:"direction"`
}

func (w Waypoint) Tile() Point {
	return Point{X: w.TileX, Y: w.TileY}
}

func WaypointAt(p Point, dir Direction) Waypoint {
	return Waypoint{TileX: p.X, TileY: p.Y, Direction: dir}
}
