package ilp

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/egraphx/bottomup"
	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
)

// tol is the feasibility tolerance used by Satisfied.
const tol = 1e-6

// VarKind tells the three variable families apart.
type VarKind int

const (
	// Select is the binary sel[c,n]: node n is chosen for class c.
	Select VarKind = iota
	// Active is the binary act[c]: class c is part of the extraction.
	Active
	// Order is the integer ord[c] ∈ [0, |C|-1] used to forbid cycles.
	Order
)

// Var is one program variable with its bounds.
type Var struct {
	Kind   VarKind
	Class  int // dense class index
	Node   int // node index within Class; Select only
	Lo, Hi float64
}

// Sense is the comparison of a row.
type Sense int

const (
	// Eq means Σ = RHS.
	Eq Sense = iota
	// LessEq means Σ ≤ RHS.
	LessEq
	// GreaterEq means Σ ≥ RHS.
	GreaterEq
)

// Term is coefficient × variable.
type Term struct {
	Var  int
	Coef float64
}

// Row is a linear constraint.
type Row struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Program is the 0/1 integer program of DAG extraction over the classes that
// can be reached from the roots through usable nodes.
type Program struct {
	Vars      []Var
	Rows      []Row
	Objective []Term

	g       *egraph.EGraph
	roots   []int
	rootIDs []egraph.ClassID
	classes []int   // included classes, ascending
	sel     [][]int // class → node → var index, -1 when fixed to zero
	act     []int   // class → var index, -1 when excluded
	ord     []int
	tree    *bottomup.Table
}

// Formulate builds the program for g and roots.
//
// Steps:
//  1. Compute the tree fixpoint; a root without a finite derivation fails
//     with extract.ErrInfeasible.
//  2. A node is usable when every child has a finite derivation and it does
//     not list its own class. Unusable nodes get no variable (fixed to 0).
//  3. Collect the classes reachable from the roots through usable nodes.
//  4. Emit variables per included class: act, ord, one sel per usable node.
//  5. Emit the rows (a) selection, (b) activation, (c) order.
//
// Complexity: O(C + N + E) variables and rows.
func Formulate(ctx context.Context, g *egraph.EGraph, roots []egraph.ClassID) (*Program, error) {
	if g == nil {
		return nil, extract.ErrNilGraph
	}
	ri, err := g.ResolveRoots(roots)
	if err != nil {
		return nil, fmt.Errorf("ilp: %w", err)
	}

	// 1) Tree fixpoint.
	t, err := bottomup.Worklist(ctx, g)
	if err != nil {
		return nil, err
	}
	for _, r := range ri {
		if t.Best[r].IsInf() {
			return nil, extract.InfeasibleRoot(g.Class(r).ID)
		}
	}

	p := &Program{
		g:       g,
		roots:   ri,
		rootIDs: append([]egraph.ClassID(nil), roots...),
		sel:     make([][]int, g.NumClasses()),
		act:     make([]int, g.NumClasses()),
		ord:     make([]int, g.NumClasses()),
		tree:    t,
	}

	// 2-3) Usable nodes and included classes.
	included := make([]bool, g.NumClasses())
	stack := append([]int(nil), ri...)
	for _, r := range ri {
		included[r] = true
	}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes := g.Class(c).Nodes
		for n := range nodes {
			if !usable(&nodes[n], c, t.Best) {
				continue
			}
			for _, k := range nodes[n].ChildIndices() {
				if !included[k] {
					included[k] = true
					stack = append(stack, k)
				}
			}
		}
	}
	for c := range included {
		p.act[c], p.ord[c] = -1, -1
		if included[c] {
			p.classes = append(p.classes, c)
		}
	}

	// 4) Variables.
	m := float64(len(p.classes))
	for _, c := range p.classes {
		p.act[c] = p.addVar(Var{Kind: Active, Class: c, Lo: 0, Hi: 1})
		p.ord[c] = p.addVar(Var{Kind: Order, Class: c, Lo: 0, Hi: m - 1})
		nodes := g.Class(c).Nodes
		p.sel[c] = make([]int, len(nodes))
		for n := range nodes {
			p.sel[c][n] = -1
			if usable(&nodes[n], c, t.Best) {
				v := p.addVar(Var{Kind: Select, Class: c, Node: n, Lo: 0, Hi: 1})
				p.sel[c][n] = v
				p.Objective = append(p.Objective, Term{Var: v, Coef: float64(nodes[n].Cost)})
			}
		}
	}

	// 5) Rows.
	for _, r := range ri {
		p.Rows = append(p.Rows, Row{
			Name:  fmt.Sprintf("root[%s]", g.Class(r).ID),
			Terms: []Term{{Var: p.act[r], Coef: 1}},
			Sense: Eq,
			RHS:   1,
		})
	}
	for _, c := range p.classes {
		id := g.Class(c).ID
		// (a) Σ sel[c,·] − act[c] = 0
		row := Row{Name: fmt.Sprintf("select[%s]", id), Sense: Eq}
		for _, v := range p.sel[c] {
			if v >= 0 {
				row.Terms = append(row.Terms, Term{Var: v, Coef: 1})
			}
		}
		row.Terms = append(row.Terms, Term{Var: p.act[c], Coef: -1})
		p.Rows = append(p.Rows, row)

		nodes := g.Class(c).Nodes
		for n, v := range p.sel[c] {
			if v < 0 {
				continue
			}
			kids := nodes[n].ChildIndices()
			for i, k := range kids {
				if repeats(kids, i) {
					continue
				}
				// (b) sel[c,n] − act[k] ≤ 0
				p.Rows = append(p.Rows, Row{
					Name:  fmt.Sprintf("activate[%s.%d→%s]", id, n, g.Class(k).ID),
					Terms: []Term{{Var: v, Coef: 1}, {Var: p.act[k], Coef: -1}},
					Sense: LessEq,
				})
				// (c) ord[c] − ord[k] − M·sel[c,n] ≥ 1 − M
				p.Rows = append(p.Rows, Row{
					Name:  fmt.Sprintf("order[%s.%d→%s]", id, n, g.Class(k).ID),
					Terms: []Term{{Var: p.ord[c], Coef: 1}, {Var: p.ord[k], Coef: -1}, {Var: v, Coef: -m}},
					Sense: GreaterEq,
					RHS:   1 - m,
				})
			}
		}
	}

	return p, nil
}

func (p *Program) addVar(v Var) int {
	p.Vars = append(p.Vars, v)

	return len(p.Vars) - 1
}

// usable reports whether node n of class c can be part of a finite acyclic
// derivation.
func usable(n *egraph.Node, c int, best []cost.Cost) bool {
	for _, k := range n.ChildIndices() {
		if k == c || best[k].IsInf() {
			return false
		}
	}

	return true
}

// Classes returns the included class indices in ascending order.
func (p *Program) Classes() []int { return p.classes }

// Sel returns the variable of (class, node), or false when fixed to zero.
func (p *Program) Sel(class, node int) (int, bool) {
	if p.sel[class] == nil || p.sel[class][node] < 0 {
		return -1, false
	}

	return p.sel[class][node], true
}

// Act returns the activation variable of class, or false when excluded.
func (p *Program) Act(class int) (int, bool) { return p.act[class], p.act[class] >= 0 }

// Ord returns the order variable of class, or false when excluded.
func (p *Program) Ord(class int) (int, bool) { return p.ord[class], p.ord[class] >= 0 }

// Value evaluates the objective at x.
func (p *Program) Value(x []float64) float64 {
	var total float64
	for _, t := range p.Objective {
		total += t.Coef * x[t.Var]
	}

	return total
}

// Satisfied checks x against every bound, integrality and row.
// The first violation is returned wrapped in ErrViolated.
func (p *Program) Satisfied(x []float64) error {
	if len(x) != len(p.Vars) {
		return fmt.Errorf("%w: %d values for %d variables", ErrViolated, len(x), len(p.Vars))
	}
	for i, v := range p.Vars {
		if x[i] < v.Lo-tol || x[i] > v.Hi+tol || math.Abs(x[i]-math.Round(x[i])) > tol {
			return fmt.Errorf("%w: variable %d = %g outside [%g, %g] or fractional", ErrViolated, i, x[i], v.Lo, v.Hi)
		}
	}
	for _, r := range p.Rows {
		var lhs float64
		for _, t := range r.Terms {
			lhs += t.Coef * x[t.Var]
		}
		ok := true
		switch r.Sense {
		case Eq:
			ok = math.Abs(lhs-r.RHS) <= tol
		case LessEq:
			ok = lhs <= r.RHS+tol
		case GreaterEq:
			ok = lhs >= r.RHS-tol
		}
		if !ok {
			return fmt.Errorf("%w: row %s (lhs %g, rhs %g)", ErrViolated, r.Name, lhs, r.RHS)
		}
	}

	return nil
}

// Assign maps a selection onto the program's variables: act and sel follow
// the classes reachable from the roots, ord is a topological numbering of
// the selection (children numbered before parents).
func (p *Program) Assign(r *extract.Result) ([]float64, error) {
	order, err := r.Reachable(p.g, p.rootIDs)
	if err != nil {
		return nil, err
	}
	x := make([]float64, len(p.Vars))
	for _, c := range order {
		n, _ := r.Choice(c)
		v, ok := p.Sel(c, n)
		if !ok {
			return nil, fmt.Errorf("%w: class %s chooses a node fixed to zero", ErrViolated, p.g.Class(c).ID)
		}
		x[v] = 1
		x[p.act[c]] = 1
	}

	num, err := topoNumber(p.g, r, p.roots)
	if err != nil {
		return nil, err
	}
	for c, k := range num {
		x[p.ord[c]] = float64(k)
	}

	return x, nil
}

// Decode turns x into a selection over the active classes.
func (p *Program) Decode(x []float64) *extract.Result {
	res := extract.NewResult(p.g)
	for _, c := range p.classes {
		for n, v := range p.sel[c] {
			if v >= 0 && x[v] > 0.5 {
				res.Choose(c, n)
				break
			}
		}
	}

	return res
}

// topoNumber numbers the reachable classes of a selection in DFS post-order:
// every chosen child gets a smaller number than its parent. A cycle fails
// with extract.ErrCycle.
func topoNumber(g *egraph.EGraph, r *extract.Result, roots []int) (map[int]int, error) {
	s := &topoSorter{
		g:     g,
		r:     r,
		state: make([]uint8, g.NumClasses()),
		num:   make(map[int]int),
	}
	for _, root := range roots {
		if s.state[root] == white {
			if err := s.visit(root); err != nil {
				return nil, err
			}
		}
	}

	return s.num, nil
}

// Visitation states of topoSorter.
const (
	white = iota // not visited
	gray         // on the current path
	black        // numbered
)

type topoSorter struct {
	g     *egraph.EGraph
	r     *extract.Result
	state []uint8
	num   map[int]int
}

func (s *topoSorter) visit(c int) error {
	// 1. Back edge: c is on the current path.
	if s.state[c] == gray {
		return &extract.CheckError{Kind: extract.ErrCycle, Class: s.g.Class(c).ID}
	}
	// 2. Already numbered.
	if s.state[c] == black {
		return nil
	}
	n, ok := s.r.Choice(c)
	if !ok {
		return &extract.CheckError{Kind: extract.ErrUnresolvedClass, Class: s.g.Class(c).ID}
	}
	// 3. Children first.
	s.state[c] = gray
	for _, k := range s.g.Class(c).Nodes[n].ChildIndices() {
		if err := s.visit(k); err != nil {
			return err
		}
	}
	// 4. Post-order number.
	s.state[c] = black
	s.num[c] = len(s.num)

	return nil
}

// repeats reports whether kids[i] already occurred in kids[:i].
func repeats(kids []int, i int) bool {
	for j := 0; j < i; j++ {
		if kids[j] == kids[i] {
			return true
		}
	}

	return false
}
