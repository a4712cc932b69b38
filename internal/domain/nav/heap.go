package nav

import (
	"container/heap"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

// Node is a search node. F is G+H; the queue orders by its own priority so a
// node can be re-queued behind its F.
type Node struct {
	Tile   world.Point
	G      int
	H      int
	Parent *Node

	penalty int
}

func (n *Node) F() int { return n.G + n.H }

type pqItem struct {
	node     *Node
	priority int
	index    int
}

type pqItems []*pqItem

func (q pqItems) Len() int { return len(q) }
func (q pqItems) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].node.H < q[j].node.H
}
func (q pqItems) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *pqItems) Push(x any) {
	it := x.(*pqItem)
	it.index = len(*q)
	*q = append(*q, it)
}
func (q *pqItems) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*q = old[:n-1]
	return it
}

// PriorityQueue is a min-heap of nodes with lookup by tile. A tile is held at
// most once; inserting a tile that is already queued updates its priority.
type PriorityQueue struct {
	items  pqItems
	byTile map[world.Point]*pqItem
}

func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{byTile: make(map[world.Point]*pqItem)}
}

func (q *PriorityQueue) Len() int { return len(q.items) }

func (q *PriorityQueue) IsEmpty() bool { return len(q.items) == 0 }

func (q *PriorityQueue) Insert(priority int, n *Node) {
	if it, ok := q.byTile[n.Tile]; ok {
		it.node = n
		it.priority = priority
		heap.Fix(&q.items, it.index)
		return
	}
	it := &pqItem{node: n, priority: priority}
	heap.Push(&q.items, it)
	q.byTile[n.Tile] = it
}

// ExtractMin removes and returns the lowest-priority node, or nil when empty.
func (q *PriorityQueue) ExtractMin() *Node {
	if len(q.items) == 0 {
		return nil
	}
	it := heap.Pop(&q.items).(*pqItem)
	delete(q.byTile, it.node.Tile)
	return it.node
}

func (q *PriorityQueue) Lookup(p world.Point) (*Node, bool) {
	it, ok := q.byTile[p]
	if !ok {
		return nil, false
	}
	return it.node, true
}
