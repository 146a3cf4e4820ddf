package extract

import (
	"fmt"

	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
)

// none marks a class without a chosen node.
const none = -1

// Result is the selection produced by one Extract call: for each class index,
// the index of the chosen node within that class (or none).
//
// A Result is filled by exactly one strategy during one call and read-only
// afterwards; consumers (Check, TreeCost, DagCost, Prune) never mutate it.
type Result struct {
	choices []int32
	outcome Outcome
}

// NewResult returns an empty selection sized for g.
func NewResult(g *egraph.EGraph) *Result {
	r := &Result{choices: make([]int32, g.NumClasses())}
	for i := range r.choices {
		r.choices[i] = none
	}

	return r
}

// Choose records node as the choice for class, replacing any previous one.
// Out-of-range indices are programming errors and panic.
func (r *Result) Choose(class, node int) {
	r.choices[class] = int32(node)
}

// Unchoose removes the choice for class.
func (r *Result) Unchoose(class int) {
	r.choices[class] = none
}

// Choice returns the chosen node index of class, if any.
func (r *Result) Choice(class int) (int, bool) {
	c := r.choices[class]

	return int(c), c != none
}

// ChoiceByID returns the chosen node of the class named id.
func (r *Result) ChoiceByID(g *egraph.EGraph, id egraph.ClassID) (*egraph.Node, bool) {
	ci, ok := g.ClassIndex(id)
	if !ok || ci >= len(r.choices) || r.choices[ci] == none {
		return nil, false
	}

	return g.Node(egraph.NodeRef{Class: ci, Node: int(r.choices[ci])}), true
}

// Len returns the number of classes with a choice.
func (r *Result) Len() int {
	n := 0
	for _, c := range r.choices {
		if c != none {
			n++
		}
	}

	return n
}

// Outcome reports whether the producing strategy completed.
func (r *Result) Outcome() Outcome { return r.outcome }

// SetOutcome records the producing strategy's completion state.
func (r *Result) SetOutcome(o Outcome) { r.outcome = o }

// Clone returns an independent copy.
func (r *Result) Clone() *Result {
	return &Result{
		choices: append([]int32(nil), r.choices...),
		outcome: r.outcome,
	}
}

// Selection returns the choices keyed by ids, for reporting and comparisons.
func (r *Result) Selection(g *egraph.EGraph) map[egraph.ClassID]egraph.NodeID {
	out := make(map[egraph.ClassID]egraph.NodeID, len(r.choices))
	for ci, c := range r.choices {
		if c == none {
			continue
		}
		cls := g.Class(ci)
		out[cls.ID] = cls.Nodes[c].ID
	}

	return out
}

// Reachable lists the classes reachable from roots through chosen nodes in
// depth-first pre-order (children in declaration order), each class once.
// It fails on unresolved classes but not on cycles.
func (r *Result) Reachable(g *egraph.EGraph, roots []egraph.ClassID) ([]int, error) {
	ri, err := r.prepare(g, roots)
	if err != nil {
		return nil, err
	}

	return r.reachable(g, ri)
}

func (r *Result) reachable(g *egraph.EGraph, roots []int) ([]int, error) {
	var (
		seen  = make([]bool, len(r.choices))
		order = make([]int, 0, len(r.choices))
		stack = make([]int, 0, len(roots))
		k     int
	)
	for k = len(roots) - 1; k >= 0; k-- {
		stack = append(stack, roots[k])
	}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[c] {
			continue
		}
		if r.choices[c] == none {
			return nil, &CheckError{Kind: ErrUnresolvedClass, Class: g.Class(c).ID}
		}
		seen[c] = true
		order = append(order, c)

		kids := g.Class(c).Nodes[r.choices[c]].ChildIndices()
		for k = len(kids) - 1; k >= 0; k-- {
			if !seen[kids[k]] {
				stack = append(stack, kids[k])
			}
		}
	}

	return order, nil
}

// DagCost sums the intrinsic cost of every distinct chosen node reachable
// from roots; shared classes are paid once.
func (r *Result) DagCost(g *egraph.EGraph, roots []egraph.ClassID) (cost.Cost, error) {
	ri, err := r.prepare(g, roots)
	if err != nil {
		return 0, err
	}
	order, err := r.reachable(g, ri)
	if err != nil {
		return 0, err
	}

	var total cost.Cost
	for _, c := range order {
		total = total.Add(g.Class(c).Nodes[r.choices[c]].Cost)
	}

	return total, nil
}

// prepare checks that r was built for g and resolves roots.
func (r *Result) prepare(g *egraph.EGraph, roots []egraph.ClassID) ([]int, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if g.NumClasses() != len(r.choices) {
		return nil, fmt.Errorf("%w: %d classes, result holds %d", ErrGraphMismatch, g.NumClasses(), len(r.choices))
	}
	ri, err := g.ResolveRoots(roots)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	return ri, nil
}
