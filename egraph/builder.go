package egraph

import (
	"fmt"
	"math"
	"strconv"
)

// Builder accumulates classes, nodes and roots before freezing them with Build.
// The zero value is not usable; call NewBuilder.
type Builder struct {
	classes []Class
	index   map[ClassID]int
	nodeIDs map[NodeID]struct{}
	roots   []ClassID
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		index:   make(map[ClassID]int),
		nodeIDs: make(map[NodeID]struct{}),
	}
}

// AddNode appends n to class id, creating the class on first use.
// An empty n.ID is replaced by "<class>.<position>".
// Children may name classes that are added later; they are resolved by Build.
func (b *Builder) AddNode(id ClassID, n Node) error {
	x := n.Cost.Float64()
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return fmt.Errorf("%w: node %q in class %q has cost %v", ErrInvalidCost, n.ID, id, x)
	}

	ci, ok := b.index[id]
	if !ok {
		ci = len(b.classes)
		b.index[id] = ci
		b.classes = append(b.classes, Class{ID: id})
	}
	if n.ID == "" {
		n.ID = NodeID(string(id) + "." + strconv.Itoa(len(b.classes[ci].Nodes)))
	}
	if _, dup := b.nodeIDs[n.ID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	}
	b.nodeIDs[n.ID] = struct{}{}

	// Copy children so later mutation of the caller's slice cannot leak in.
	n.Children = append([]ClassID(nil), n.Children...)
	n.kids = nil
	b.classes[ci].Nodes = append(b.classes[ci].Nodes, n)

	return nil
}

// AddRoot declares id as a root class. Roots keep declaration order;
// duplicates are kept as given.
func (b *Builder) AddRoot(id ClassID) {
	b.roots = append(b.roots, id)
}

// Build validates the collection and returns the frozen graph.
//
// Steps:
//  1. Every class must be non-empty (a class only exists once a node was added,
//     so this guards classes reached solely through references).
//  2. Every child reference and every root must name a known class.
//  3. Parent lists are computed once, deduplicated per node.
//
// Complexity: O(C + N + E) time and memory.
func (b *Builder) Build() (*EGraph, error) {
	if len(b.roots) == 0 {
		return nil, ErrNoRoots
	}

	var (
		g = &EGraph{
			classes: make([]Class, len(b.classes)),
			index:   make(map[ClassID]int, len(b.index)),
			parents: make([][]NodeRef, len(b.classes)),
		}
		ci, ni, k int
	)
	for id, i := range b.index {
		g.index[id] = i
	}

	// 1) Deep-copy classes and resolve children.
	for ci = range b.classes {
		src := &b.classes[ci]
		if len(src.Nodes) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyClass, src.ID)
		}
		dst := Class{ID: src.ID, Nodes: make([]Node, len(src.Nodes))}
		for ni = range src.Nodes {
			n := src.Nodes[ni]
			n.kids = make([]int, len(n.Children))
			for k = range n.Children {
				idx, ok := b.index[n.Children[k]]
				if !ok {
					return nil, fmt.Errorf("%w: %q (child of node %q)", ErrUnknownClass, n.Children[k], n.ID)
				}
				n.kids[k] = idx
			}
			dst.Nodes[ni] = n
		}
		g.classes[ci] = dst
		g.numNodes += len(dst.Nodes)
	}

	// 2) Roots.
	g.roots = make([]int, len(b.roots))
	for k = range b.roots {
		idx, ok := b.index[b.roots[k]]
		if !ok {
			return nil, unknownClass(b.roots[k])
		}
		g.roots[k] = idx
	}

	// 3) Parents in (class, node) order, one entry per referencing node.
	for ci = range g.classes {
		for ni = range g.classes[ci].Nodes {
			kids := g.classes[ci].Nodes[ni].kids
			for k = range kids {
				if seenBefore(kids, k) {
					continue
				}
				g.parents[kids[k]] = append(g.parents[kids[k]], NodeRef{Class: ci, Node: ni})
			}
		}
	}

	return g, nil
}

// seenBefore reports whether kids[k] already occurred in kids[:k].
// Child lists are short, so a linear scan beats a set.
func seenBefore(kids []int, k int) bool {
	for j := 0; j < k; j++ {
		if kids[j] == kids[k] {
			return true
		}
	}

	return false
}

func unknownClass(id ClassID) error {
	return fmt.Errorf("%w: %q", ErrUnknownClass, id)
}
