package nav

import (
	"testing"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

func TestPriorityQueueExtractsInPriorityOrder(t *testing.T) {
	q := NewPriorityQueue()
	for i, p := range []int{5, 1, 4, 2, 3} {
		q.Insert(p, &Node{Tile: world.Point{X: i}})
	}
	if got, want := q.Len(), 5; got != want {
		t.Fatalf("len mismatch: got=%d want=%d", got, want)
	}
	wantTiles := []int{1, 3, 4, 2, 0}
	for _, x := range wantTiles {
		n := q.ExtractMin()
		if n == nil || n.Tile.X != x {
			t.Fatalf("expected tile x=%d, got %+v", x, n)
		}
	}
	if !q.IsEmpty() {
		t.Fatalf("expected empty queue")
	}
	if n := q.ExtractMin(); n != nil {
		t.Fatalf("expected nil from empty queue, got %+v", n)
	}
}

func TestPriorityQueueInsertExistingTileUpdatesPriority(t *testing.T) {
	q := NewPriorityQueue()
	a := &Node{Tile: world.Point{X: 1}}
	b := &Node{Tile: world.Point{X: 2}}
	q.Insert(10, a)
	q.Insert(5, b)
	q.Insert(1, a)

	if got, want := q.Len(), 2; got != want {
		t.Fatalf("tile must be queued once: got=%d want=%d", got, want)
	}
	if n := q.ExtractMin(); n != a {
		t.Fatalf("expected re-prioritized node first, got %+v", n)
	}
}

func TestPriorityQueueTieBreaksOnHeuristic(t *testing.T) {
	q := NewPriorityQueue()
	far := &Node{Tile: world.Point{X: 1}, G: 0, H: 4}
	near := &Node{Tile: world.Point{X: 2}, G: 3, H: 1}
	q.Insert(4, far)
	q.Insert(4, near)
	if n := q.ExtractMin(); n != near {
		t.Fatalf("expected lower heuristic first, got %+v", n)
	}
}

func TestPriorityQueueLookup(t *testing.T) {
	q := NewPriorityQueue()
	n := &Node{Tile: world.Point{X: 3, Y: 4}}
	q.Insert(1, n)
	got, ok := q.Lookup(world.Point{X: 3, Y: 4})
	if !ok || got != n {
		t.Fatalf("expected lookup hit, got %+v ok=%v", got, ok)
	}
	q.ExtractMin()
	if _, ok := q.Lookup(world.Point{X: 3, Y: 4}); ok {
		t.Fatalf("expected lookup miss after extract")
	}
}
