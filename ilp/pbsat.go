package ilp

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/crillab/gophersat/solver"

	"github.com/katalvlaran/egraphx/extract"
)

// maxWeight bounds a single scaled node cost so that objective sums stay far
// from int overflow inside the solver.
const maxWeight = 1 << 40

// scaleSteps is how many extra powers of ten costScale tries past the base.
const scaleSteps = 7

// pbModel encodes the 0/1 rows of a Program as pseudo-boolean constraints.
// Variable i of the program is literal i+1; order variables are not encoded,
// acyclicity is enforced by cuts added as cycles show up.
type pbModel struct {
	p       *Program
	weights []int // per Select variable, scaled cost
	exact   bool  // every weight is its cost times the scale
	cuts    [][]int
}

func newPBModel(p *Program) *pbModel {
	m := &pbModel{p: p, weights: make([]int, len(p.Vars))}
	scale, exact := costScale(p)
	m.exact = exact
	for _, t := range p.Objective {
		m.weights[t.Var] = int(math.Round(t.Coef * scale))
	}

	return m
}

// costScale picks the factor that turns node costs into integer weights.
//
// The base factor is the power of ten that lifts the smallest nonzero cost
// to at least 1, so the scale follows the magnitude of the costs rather than
// a fixed number of decimals. Up to scaleSteps further powers of ten are tried
// until every cost becomes integral. When none works within maxWeight, the
// largest admissible scale is returned with exact = false: rounded weights may
// then merge distinct costs and an Unsat answer proves nothing.
func costScale(p *Program) (scale float64, exact bool) {
	minNZ, maxC := math.Inf(1), 0.0
	for _, t := range p.Objective {
		if t.Coef > 0 && t.Coef < minNZ {
			minNZ = t.Coef
		}
		maxC = math.Max(maxC, t.Coef)
	}
	if maxC == 0 {
		return 1, true
	}
	base := 1.0
	if minNZ < 1 {
		// The nudge keeps exact powers of ten (1e-8) from rounding up a decade.
		base = math.Pow(10, math.Ceil(-math.Log10(minNZ)-1e-9))
	}

	s := base
	for i := 0; i < scaleSteps && maxC*s <= maxWeight; i++ {
		if integral(p.Objective, s) {
			return s, true
		}
		s *= 10
	}
	if maxC*base > maxWeight {
		return maxWeight / maxC, false
	}
	for maxC*s > maxWeight {
		s /= 10
	}

	return s, false
}

// integral reports whether every coefficient times s is an integer up to a
// relative 1e-9.
func integral(obj []Term, s float64) bool {
	for _, t := range obj {
		x := t.Coef * s
		if math.Abs(x-math.Round(x)) > 1e-9*math.Max(1, math.Abs(x)) {
			return false
		}
	}

	return true
}

func lit(v int) int { return v + 1 }

// constraints builds a fresh constraint list; gophersat takes ownership of
// the slices it is given. withBound adds "objective ≤ bound".
func (m *pbModel) constraints(bound int, withBound bool) []solver.PBConstr {
	var (
		p   = m.p
		out []solver.PBConstr
	)
	for _, r := range p.roots {
		out = append(out, solver.PropClause(lit(p.act[r])))
	}
	for _, c := range p.classes {
		act := lit(p.act[c])
		var sels []int
		for _, v := range p.sel[c] {
			if v >= 0 {
				sels = append(sels, lit(v))
			}
		}
		// (a) at most one node, at least one when active, a node implies active.
		out = append(out, solver.AtMost(append([]int(nil), sels...), 1))
		out = append(out, solver.PropClause(append([]int{-act}, sels...)...))
		for _, s := range sels {
			out = append(out, solver.PropClause(-s, act))
		}
		// (b) a chosen node activates its children.
		nodes := p.g.Class(c).Nodes
		for n, v := range p.sel[c] {
			if v < 0 {
				continue
			}
			kids := nodes[n].ChildIndices()
			for i, k := range kids {
				if !repeats(kids, i) {
					out = append(out, solver.PropClause(-lit(v), lit(p.act[k])))
				}
			}
		}
	}
	// (c) lazily: no cut cycle may be fully selected again.
	for _, cut := range m.cuts {
		neg := make([]int, len(cut))
		for i, v := range cut {
			neg[i] = -lit(v)
		}
		out = append(out, solver.PropClause(neg...))
	}
	if withBound {
		var lits, ws []int
		for _, t := range p.Objective {
			if w := m.weights[t.Var]; w > 0 {
				lits = append(lits, lit(t.Var))
				ws = append(ws, w)
			}
		}
		out = append(out, solver.LtEq(lits, ws, bound))
	}

	return out
}

// weight returns the scaled cost of a selection's reachable nodes.
func (m *pbModel) weight(order []int, r *extract.Result) int {
	total := 0
	for _, c := range order {
		n, _ := r.Choice(c)
		if v, ok := m.p.Sel(c, n); ok {
			total += m.weights[v]
		}
	}

	return total
}

// cycleCut returns the sel variables of the cycle named by err's path.
func (m *pbModel) cycleCut(r *extract.Result, err error) ([]int, bool) {
	var ce *extract.CheckError
	if !errors.As(err, &ce) || !errors.Is(err, extract.ErrCycle) {
		return nil, false
	}
	g := m.p.g
	if len(ce.Path) < 2 {
		return nil, false
	}
	var cut []int
	// Path closes on its first class; the last entry repeats it.
	for _, id := range ce.Path[:len(ce.Path)-1] {
		c, ok := g.ClassIndex(id)
		if !ok {
			return nil, false
		}
		n, _ := r.Choice(c)
		v, ok := m.p.Sel(c, n)
		if !ok {
			return nil, false
		}
		cut = append(cut, v)
	}

	return cut, len(cut) > 0
}

// solvePB minimises the objective by successive satisfiability calls:
//
//  1. Solve with the current cuts and "objective < incumbent".
//  2. Unsat: the incumbent is optimal. Sat: decode the model and keep only
//     the part reachable from the roots.
//  3. A cyclic selection adds a cut forbidding that cycle and retries;
//     an acyclic one becomes the incumbent and tightens the bound.
//
// A fresh solver is built per iteration; the deadline is checked between
// iterations. proven is false when the weights are not exact.
func solvePB(ctx context.Context, p *Program, incumbent *extract.Result) (*extract.Result, bool, error) {
	var (
		m         = newPBModel(p)
		best      *extract.Result
		bestW     int
		deadline  time.Time
		hasBudget bool
	)
	deadline, hasBudget = ctx.Deadline()
	expired := func() bool {
		return ctx.Err() != nil || (hasBudget && time.Now().After(deadline))
	}
	if incumbent != nil {
		if order, err := incumbent.Reachable(p.g, p.rootIDs); err == nil {
			best, bestW = incumbent, m.weight(order, incumbent)
		}
	}

	for {
		if expired() {
			return best, false, nil
		}

		// 1) Solve.
		pb := solver.ParsePBConstrs(m.constraints(bestW-1, best != nil))
		s := solver.New(pb)
		switch s.Solve() {
		case solver.Unsat:
			return best, m.exact, nil
		case solver.Sat:
		default:
			return best, false, nil
		}

		// 2) Decode.
		model := s.Model()
		x := make([]float64, len(p.Vars))
		for v := range x {
			if v < len(model) && model[v] {
				x[v] = 1
			}
		}
		r := p.Decode(x)
		order, err := r.Reachable(p.g, p.rootIDs)
		if err != nil {
			return best, false, err
		}
		keep := extract.NewResult(p.g)
		for _, c := range order {
			n, _ := r.Choice(c)
			keep.Choose(c, n)
		}

		// 3) Cut or accept.
		if err = keep.CheckRoots(p.g, p.rootIDs); err != nil {
			cut, ok := m.cycleCut(keep, err)
			if !ok {
				return best, false, err
			}
			m.cuts = append(m.cuts, cut)

			continue
		}
		w := m.weight(order, keep)
		if best != nil && w >= bestW {
			// Rounded weights can tie; nothing strictly better remains.
			return best, m.exact, nil
		}
		best, bestW = keep, w
	}
}
