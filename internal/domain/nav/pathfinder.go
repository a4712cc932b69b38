package nav

import (
	"math/rand/v2"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

// Strategy synthesizes a route between two distinct tiles. The route excludes
// start and ends on target; an empty route means no route was found.
type Strategy interface {
	Route(start, target world.Point) []world.Waypoint
}

// FindPath returns the waypoints from start to target using s. It is empty
// iff start == target, or when s cannot reach target.
func FindPath(start, target world.Point, s Strategy) []world.Waypoint {
	if start == target || s == nil {
		return nil
	}
	return s.Route(start, target)
}

var steps = [4]world.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}

// towards returns the axis steps from p that strictly reduce the Manhattan
// distance to target.
func towards(p, target world.Point) []world.Point {
	out := make([]world.Point, 0, 2)
	if p.X < target.X {
		out = append(out, p.Add(1, 0))
	}
	if p.X > target.X {
		out = append(out, p.Add(-1, 0))
	}
	if p.Y < target.Y {
		out = append(out, p.Add(0, 1))
	}
	if p.Y > target.Y {
		out = append(out, p.Add(0, -1))
	}
	return out
}

func neighbours(p world.Point) []world.Point {
	out := make([]world.Point, 0, len(steps))
	for _, d := range steps {
		out = append(out, p.Add(d.X, d.Y))
	}
	return out
}

func shuffle(rng *rand.Rand, pts []world.Point) {
	swap := func(i, j int) { pts[i], pts[j] = pts[j], pts[i] }
	if rng == nil {
		rand.Shuffle(len(pts), swap)
		return
	}
	rng.Shuffle(len(pts), swap)
}

// Unobstructed walks straight at the target, choosing randomly between the
// two axes at every step. Passability is ignored.
type Unobstructed struct {
	rng *rand.Rand
}

func NewUnobstructed(rng *rand.Rand) Unobstructed {
	return Unobstructed{rng: rng}
}

func (s Unobstructed) Route(start, target world.Point) []world.Waypoint {
	out := make([]world.Waypoint, 0, start.Manhattan(target))
	cur := start
	for cur != target {
		moves := towards(cur, target)
		shuffle(s.rng, moves)
		next := moves[0]
		out = append(out, world.WaypointAt(next, world.DirectionBetween(cur, next)))
		cur = next
	}
	return out
}

// detourPenalty is added to a node's priority each time it is re-queued
// with neighbours still unexplored.
const detourPenalty = 2

// Budget bounds the node expansions of one GridAware search to PerTile
// times the Manhattan distance, never less than Floor. The zero Budget is
// unbounded.
type Budget struct {
	PerTile int
	Floor   int
}

func DefaultBudget() Budget {
	return Budget{PerTile: 8, Floor: 2048}
}

func (b Budget) Unbounded() bool { return b.PerTile <= 0 && b.Floor <= 0 }

// Limit is the expansion cap for a search from start to target, or zero
// when unbounded.
func (b Budget) Limit(start, target world.Point) int {
	if b.Unbounded() {
		return 0
	}
	n := max(b.PerTile, 0) * start.Manhattan(target)
	return max(n, b.Floor)
}

// GridAware is a best-first search over the grid (f = g + h, h = Manhattan)
// that admits a single random neighbour per expansion, preferring steps
// toward the target. Routes are valid but not necessarily shortest. A node
// with unexplored passable neighbours is re-queued behind a penalty, so dead
// ends backtrack and every reachable target is found, unless the search
// runs out of budget first.
type GridAware struct {
	grid   *Grid
	rng    *rand.Rand
	budget Budget
}

func NewGridAware(grid *Grid, rng *rand.Rand) GridAware {
	return GridAware{grid: grid, rng: rng, budget: DefaultBudget()}
}

// WithBudget returns a copy of s bounded by b.
func (s GridAware) WithBudget(b Budget) GridAware {
	s.budget = b
	return s
}

func (s GridAware) Route(start, target world.Point) []world.Waypoint {
	path, _ := s.route(start, target)
	return path
}

// route also reports the number of expansions spent.
func (s GridAware) route(start, target world.Point) ([]world.Waypoint, int) {
	if s.grid == nil || !s.grid.passable(target) {
		return nil, 0
	}
	limit := s.budget.Limit(start, target)
	sr := search{
		grid:   s.grid,
		rng:    s.rng,
		target: target,
		open:   NewPriorityQueue(),
		seen:   make(map[world.Point]*Node),
		closed: make(map[world.Point]bool),
	}
	root := &Node{Tile: start, H: start.Manhattan(target)}
	sr.seen[start] = root
	sr.open.Insert(root.F(), root)

	expanded := 0
	for !sr.open.IsEmpty() {
		if limit > 0 && expanded >= limit {
			return nil, expanded
		}
		expanded++
		cur := sr.open.ExtractMin()
		if cur.Tile == target {
			return reconstruct(cur), expanded
		}
		if next, ok := sr.pick(cur); ok {
			sr.admit(cur, next)
		}
		if sr.hasCandidate(cur) {
			cur.penalty += detourPenalty
			sr.open.Insert(cur.F()+cur.penalty, cur)
			continue
		}
		sr.closed[cur.Tile] = true
	}
	return nil, expanded
}

type search struct {
	grid   *Grid
	rng    *rand.Rand
	target world.Point
	open   *PriorityQueue
	seen   map[world.Point]*Node
	closed map[world.Point]bool
}

// candidate reports whether p may be admitted from cur: passable, not
// exhausted, and either new or reachable more cheaply while still queued.
func (sr *search) candidate(cur *Node, p world.Point) bool {
	if !sr.grid.passable(p) || sr.closed[p] {
		return false
	}
	n, ok := sr.seen[p]
	if !ok {
		return true
	}
	if _, queued := sr.open.Lookup(p); !queued {
		return false
	}
	return cur.G+1 < n.G
}

func (sr *search) pick(cur *Node) (world.Point, bool) {
	dirs := towards(cur.Tile, sr.target)
	shuffle(sr.rng, dirs)
	for _, p := range dirs {
		if sr.candidate(cur, p) {
			return p, true
		}
	}
	all := neighbours(cur.Tile)
	shuffle(sr.rng, all)
	for _, p := range all {
		if sr.candidate(cur, p) {
			return p, true
		}
	}
	return world.Point{}, false
}

func (sr *search) hasCandidate(cur *Node) bool {
	for _, p := range neighbours(cur.Tile) {
		if sr.candidate(cur, p) {
			return true
		}
	}
	return false
}

func (sr *search) admit(cur *Node, p world.Point) {
	g := cur.G + 1
	if n, ok := sr.seen[p]; ok {
		n.G = g
		n.Parent = cur
		sr.open.Insert(n.F()+n.penalty, n)
		return
	}
	n := &Node{Tile: p, G: g, H: p.Manhattan(sr.target), Parent: cur}
	sr.seen[p] = n
	sr.open.Insert(n.F(), n)
}

func reconstruct(end *Node) []world.Waypoint {
	n := 0
	for cur := end; cur.Parent != nil; cur = cur.Parent {
		n++
	}
	out := make([]world.Waypoint, n)
	for cur := end; cur.Parent != nil; cur = cur.Parent {
		n--
		out[n] = world.WaypointAt(cur.Tile, world.DirectionBetween(cur.Parent.Tile, cur.Tile))
	}
	return out
}
