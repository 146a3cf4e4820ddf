package extract

import (
	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
)

// Visitation states of the selection walk.
const (
	white = iota // not visited
	gray         // on the current path
	black        // fully explored
)

// Check validates r against g's own roots. See CheckRoots.
func (r *Result) Check(g *egraph.EGraph) error {
	if g == nil {
		return ErrNilGraph
	}

	return r.CheckRoots(g, g.Roots())
}

// CheckRoots is the correctness oracle: for every class reachable from roots
// through chosen nodes it enforces invariants (A) one choice, (B) acyclicity and
// (C) no dangling child. The first defect found is returned as *CheckError;
// nil means the selection is a valid extraction.
func (r *Result) CheckRoots(g *egraph.EGraph, roots []egraph.ClassID) error {
	ri, err := r.prepare(g, roots)
	if err != nil {
		return err
	}

	w := walker{
		g:     g,
		r:     r,
		state: make([]uint8, len(r.choices)),
		path:  make([]int, 0, 16),
	}
	for _, root := range ri {
		if r.choices[root] == none {
			return &CheckError{Kind: ErrUnresolvedClass, Class: g.Class(root).ID}
		}
		if w.state[root] == white {
			if err = w.check(root); err != nil {
				return err
			}
		}
	}

	return nil
}

// walker carries the three-colour DFS state shared by Check and TreeCost.
type walker struct {
	g     *egraph.EGraph
	r     *Result
	state []uint8
	path  []int // current Gray path, for cycle reporting

	memo []cost.Cost // TreeCost only
}

// chosen returns the node currently selected for class c (caller ensures one exists).
func (w *walker) chosen(c int) *egraph.Node {
	return &w.g.Class(c).Nodes[w.r.choices[c]]
}

// check explores class c (already known to have a choice).
func (w *walker) check(c int) error {
	// 1) Enter: c is on the path.
	w.state[c] = gray
	w.path = append(w.path, c)

	// 2) Every child must be resolved, and must not be on the path.
	n := w.chosen(c)
	for _, kid := range n.ChildIndices() {
		if w.r.choices[kid] == none {
			return &CheckError{Kind: ErrDanglingChild, Class: w.g.Class(kid).ID, Node: n.ID}
		}
		switch w.state[kid] {
		case white:
			if err := w.check(kid); err != nil {
				return err
			}
		case gray:
			return w.cycleError(kid)
		}
	}

	// 3) Leave.
	w.path = w.path[:len(w.path)-1]
	w.state[c] = black

	return nil
}

// cycleError reports the Gray path from closing class c back to c.
func (w *walker) cycleError(c int) error {
	idx := 0
	for i, p := range w.path {
		if p == c {
			idx = i
			break
		}
	}
	cyc := make([]egraph.ClassID, 0, len(w.path)-idx+1)
	for _, p := range w.path[idx:] {
		cyc = append(cyc, w.g.Class(p).ID)
	}
	cyc = append(cyc, w.g.Class(c).ID)

	return &CheckError{Kind: ErrCycle, Class: w.g.Class(c).ID, Path: cyc}
}

// TreeCost sums, from each root, the chosen node's cost plus the tree costs of
// its children, once per occurrence: a class reached twice is paid twice.
// Per-class values are memoised (a class's tree cost does not depend on where it
// is reached from), and the Gray-path guard turns a cyclic selection into
// ErrCycle instead of unbounded recursion.
func (r *Result) TreeCost(g *egraph.EGraph, roots []egraph.ClassID) (cost.Cost, error) {
	ri, err := r.prepare(g, roots)
	if err != nil {
		return 0, err
	}

	w := walker{
		g:     g,
		r:     r,
		state: make([]uint8, len(r.choices)),
		memo:  make([]cost.Cost, len(r.choices)),
	}
	var total cost.Cost
	for _, root := range ri {
		if r.choices[root] == none {
			return 0, &CheckError{Kind: ErrUnresolvedClass, Class: g.Class(root).ID}
		}
		c, err := w.tree(root)
		if err != nil {
			return 0, err
		}
		total = total.Add(c)
	}

	return total, nil
}

func (w *walker) tree(c int) (cost.Cost, error) {
	switch w.state[c] {
	case black:
		return w.memo[c], nil
	case gray:
		return 0, w.cycleError(c)
	}
	w.state[c] = gray
	w.path = append(w.path, c)

	n := w.chosen(c)
	sum := n.Cost
	for _, kid := range n.ChildIndices() {
		if w.r.choices[kid] == none {
			return 0, &CheckError{Kind: ErrDanglingChild, Class: w.g.Class(kid).ID, Node: n.ID}
		}
		kc, err := w.tree(kid)
		if err != nil {
			return 0, err
		}
		sum = sum.Add(kc)
	}

	w.path = w.path[:len(w.path)-1]
	w.state[c] = black
	w.memo[c] = sum

	return sum, nil
}
