// Package worklist provides the FIFO node queue shared by the incremental
// relaxation strategies.
package worklist

import "github.com/katalvlaran/egraphx/egraph"

// Queue is a FIFO of node refs that holds each ref at most once at a time.
// A popped ref may be pushed again.
type Queue struct {
	offsets []int // first flat node index of each class
	queued  []bool
	buf     []egraph.NodeRef
	head    int
}

// New returns an empty queue sized for g.
func New(g *egraph.EGraph) *Queue {
	offsets := make([]int, g.NumClasses())
	total := 0
	for c := range offsets {
		offsets[c] = total
		total += len(g.Class(c).Nodes)
	}

	return &Queue{
		offsets: offsets,
		queued:  make([]bool, total),
		buf:     make([]egraph.NodeRef, 0, total),
	}
}

// SeedLeaves pushes every childless node in (class, node) order.
func (q *Queue) SeedLeaves(g *egraph.EGraph) {
	for c := 0; c < g.NumClasses(); c++ {
		nodes := g.Class(c).Nodes
		for i := range nodes {
			if len(nodes[i].Children) == 0 {
				q.Push(egraph.NodeRef{Class: c, Node: i})
			}
		}
	}
}

// Push enqueues ref unless it is already queued.
func (q *Queue) Push(ref egraph.NodeRef) {
	k := q.offsets[ref.Class] + ref.Node
	if q.queued[k] {
		return
	}
	q.queued[k] = true
	q.buf = append(q.buf, ref)
}

// Pop dequeues the oldest ref. The queue must not be empty.
func (q *Queue) Pop() egraph.NodeRef {
	ref := q.buf[q.head]
	q.head++
	q.queued[q.offsets[ref.Class]+ref.Node] = false
	// Reclaim the consumed prefix once it dominates the buffer.
	if q.head > 1024 && q.head*2 > len(q.buf) {
		n := copy(q.buf, q.buf[q.head:])
		q.buf = q.buf[:n]
		q.head = 0
	}

	return ref
}

// Empty reports whether no ref is queued.
func (q *Queue) Empty() bool { return q.head == len(q.buf) }

// Len returns the number of queued refs.
func (q *Queue) Len() int { return len(q.buf) - q.head }
