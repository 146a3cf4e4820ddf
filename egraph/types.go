package egraph

import (
	"errors"

	"github.com/katalvlaran/egraphx/cost"
)

// Sentinel errors returned by Builder and the JSON codec.
var (
	// ErrEmptyClass indicates a class that has no member nodes.
	ErrEmptyClass = errors.New("egraph: class has no nodes")

	// ErrUnknownClass indicates a reference to a class id that was never added.
	ErrUnknownClass = errors.New("egraph: unknown class")

	// ErrDuplicateNode indicates two nodes registered under the same NodeID.
	ErrDuplicateNode = errors.New("egraph: duplicate node id")

	// ErrInvalidCost indicates a node cost that is NaN, negative or infinite.
	ErrInvalidCost = errors.New("egraph: node cost must be finite and non-negative")

	// ErrNoRoots indicates that no root class was declared.
	ErrNoRoots = errors.New("egraph: no root classes")

	// ErrMalformedJSON indicates a serialized e-graph that cannot be decoded.
	ErrMalformedJSON = errors.New("egraph: malformed JSON")
)

// ClassID identifies an e-class.
type ClassID string

// NodeID identifies an e-node across the whole graph.
type NodeID string

// Node is an operator with an intrinsic cost and ordered child classes.
// Children may repeat a class (e.g. "(+ x x)").
type Node struct {
	ID       NodeID
	Op       string
	Cost     cost.Cost
	Children []ClassID

	kids []int // Children resolved to class indices by Build
}

// ChildIndices returns the dense class indices of n's children, in order.
// Only valid for nodes obtained from a built *EGraph.
func (n *Node) ChildIndices() []int { return n.kids }

// Class is an e-class: a set of interchangeable nodes.
type Class struct {
	ID    ClassID
	Nodes []Node
}

// NodeRef addresses a node by dense class index and position within the class.
type NodeRef struct {
	Class int
	Node  int
}

// EGraph is an immutable, index-addressed e-graph.
type EGraph struct {
	classes  []Class
	index    map[ClassID]int
	roots    []int
	parents  [][]NodeRef
	numNodes int
}

// NumClasses returns the number of classes; indices run from 0 to NumClasses()-1.
func (g *EGraph) NumClasses() int { return len(g.classes) }

// NumNodes returns the total number of nodes over all classes.
func (g *EGraph) NumNodes() int { return g.numNodes }

// Class returns the class at dense index i.
func (g *EGraph) Class(i int) *Class { return &g.classes[i] }

// Node returns the node addressed by ref.
func (g *EGraph) Node(ref NodeRef) *Node { return &g.classes[ref.Class].Nodes[ref.Node] }

// ClassIndex maps a class id to its dense index.
func (g *EGraph) ClassIndex(id ClassID) (int, bool) {
	i, ok := g.index[id]

	return i, ok
}

// Roots returns the root class ids in declaration order.
func (g *EGraph) Roots() []ClassID {
	out := make([]ClassID, len(g.roots))
	for i, r := range g.roots {
		out[i] = g.classes[r].ID
	}

	return out
}

// RootIndices returns the dense indices of the root classes in declaration order.
func (g *EGraph) RootIndices() []int { return g.roots }

// Parents returns every node that lists class i among its children, ordered by
// (class index, node index). A node that references i twice appears once.
func (g *EGraph) Parents(i int) []NodeRef { return g.parents[i] }

// ResolveRoots maps ids to dense indices, failing with ErrUnknownClass.
func (g *EGraph) ResolveRoots(ids []ClassID) ([]int, error) {
	out := make([]int, len(ids))
	for i, id := range ids {
		idx, ok := g.index[id]
		if !ok {
			return nil, unknownClass(id)
		}
		out[i] = idx
	}

	return out, nil
}
