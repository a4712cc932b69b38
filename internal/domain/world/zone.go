package world

type ZoneID int

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Manhattan returns the 4-connected step distance between p and q.
func (p Point) Manhattan(q Point) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

func (p Point) Adjacent(q Point) bool {
	return p.Manhattan(q) == 1
}

// ZoneLayout places zones on a row-major grid of square zones. Snapshot tiles
// are world-absolute, so every per-zone structure is offset by Origin.
type ZoneLayout struct {
	ZoneTiles   int
	ZonesPerRow int
}

func DefaultZoneLayout() ZoneLayout {
	return ZoneLayout{ZoneTiles: 512, ZonesPerRow: 10}
}

func (l ZoneLayout) Origin(zone ZoneID) Point {
	if l.ZonesPerRow <= 0 || zone < 0 {
		return Point{}
	}
	col := int(zone) % l.ZonesPerRow
	row := int(zone) / l.ZonesPerRow
	return Point{X: col * l.ZoneTiles, Y: row * l.ZoneTiles}
}

func (l ZoneLayout) Contains(zone ZoneID, p Point) bool {
	o := l.Origin(zone)
	return p.X >= o.X && p.Y >= o.Y && p.X < o.X+l.ZoneTiles && p.Y < o.Y+l.ZoneTiles
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
