package nav

import "github.com/slickgotchi/thereaalm/internal/domain/world"

// Grid is a per-zone passability matrix addressed in world tile coordinates.
// Everything is passable until a static obstacle registers itself.
type Grid struct {
	origin  world.Point
	width   int
	height  int
	blocked []bool
}

func NewGrid(width, height int) *Grid {
	return NewGridAt(world.Point{}, width, height)
}

func NewGridAt(origin world.Point, width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		origin:  origin,
		width:   width,
		height:  height,
		blocked: make([]bool, width*height),
	}
}

// NewZoneGrid builds the grid covering one zone of the layout.
func NewZoneGrid(layout world.ZoneLayout, zone world.ZoneID) *Grid {
	return NewGridAt(layout.Origin(zone), layout.ZoneTiles, layout.ZoneTiles)
}

func (g *Grid) Width() int          { return g.width }
func (g *Grid) Height() int         { return g.height }
func (g *Grid) Origin() world.Point { return g.origin }

func (g *Grid) index(x, y int) (int, bool) {
	lx := x - g.origin.X
	ly := y - g.origin.Y
	if lx < 0 || ly < 0 || lx >= g.width || ly >= g.height {
		return 0, false
	}
	return ly*g.width + lx, true
}

// IsPassable is false for out-of-bounds and blocked tiles.
func (g *Grid) IsPassable(x, y int) bool {
	i, ok := g.index(x, y)
	if !ok {
		return false
	}
	return !g.blocked[i]
}

// SetPassable is a no-op outside the grid.
func (g *Grid) SetPassable(x, y int, passable bool) {
	i, ok := g.index(x, y)
	if !ok {
		return
	}
	g.blocked[i] = !passable
}

func (g *Grid) passable(p world.Point) bool {
	return g.IsPassable(p.X, p.Y)
}
