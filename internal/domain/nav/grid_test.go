package nav

import (
	"testing"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

func TestGridDefaultsPassable(t *testing.T) {
	g := NewGrid(4, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if !g.IsPassable(x, y) {
				t.Fatalf("expected (%d,%d) passable", x, y)
			}
		}
	}
}

func TestGridOutOfBoundsIsImpassable(t *testing.T) {
	g := NewGrid(4, 3)
	for _, p := range []world.Point{{X: -1}, {Y: -1}, {X: 4}, {Y: 3}, {X: 100, Y: 100}} {
		if g.IsPassable(p.X, p.Y) {
			t.Fatalf("expected out of bounds %+v impassable", p)
		}
		g.SetPassable(p.X, p.Y, true)
		if g.IsPassable(p.X, p.Y) {
			t.Fatalf("SetPassable outside the grid must be a no-op: %+v", p)
		}
	}
}

func TestGridSetPassable(t *testing.T) {
	g := NewGrid(10, 10)
	g.SetPassable(5, 5, false)
	if g.IsPassable(5, 5) {
		t.Fatalf("expected blocked tile")
	}
	g.SetPassable(5, 5, true)
	if !g.IsPassable(5, 5) {
		t.Fatalf("expected tile passable again")
	}
}

func TestZoneGridUsesWorldCoordinates(t *testing.T) {
	layout := world.ZoneLayout{ZoneTiles: 8, ZonesPerRow: 10}
	g := NewZoneGrid(layout, 12)
	if got, want := g.Origin(), (world.Point{X: 16, Y: 8}); got != want {
		t.Fatalf("origin mismatch: got=%+v want=%+v", got, want)
	}
	if g.IsPassable(0, 0) {
		t.Fatalf("expected tile outside zone impassable")
	}
	if !g.IsPassable(16, 8) || !g.IsPassable(23, 15) {
		t.Fatalf("expected zone corners passable")
	}
	if g.IsPassable(24, 15) {
		t.Fatalf("expected tile past zone edge impassable")
	}
}
