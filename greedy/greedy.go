// Package greedy: first-improvement local search over class choices.
//
// Each round walks the reachable classes in DFS pre-order and, for every
// alternative node, estimates the DAG cost change of swapping to it:
//
//	Δ ≈ cost(new) + Σ est[k] over new children not yet reachable
//	  − cost(old) − Σ est[k] over old children referenced only by old
//
// Design:
//   - The estimate only filters. A candidate with Δ < 0 is applied to a clone
//     and re-checked exactly (CheckRoots + DagCost).
//   - A swap is accepted only when cost.Improves(new, cur), so every round
//     strictly lowers the exact DAG cost by a relative margin and the loop
//     terminates at any cost scale.
//   - Deterministic scanning order; no RNG.
//   - The context is checked at each round and every checkEvery candidates.
//
// Complexity:
//   - One round: O(C + N) to count references, O(Σ kids) to price every
//     candidate, O(C + E) per exact re-check.
//   - Overall: O(rounds · R · (C + E)) with R re-checked candidates per round.

package greedy

import (
	"context"

	"github.com/katalvlaran/egraphx/bottomup"
	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
)

// checkEvery is how many priced candidates pass between context checks.
const checkEvery = 256

// Extractor is the greedy DAG heuristic.
type Extractor struct {
	opts Options
}

// Ensure interface compliance at compile time.
var _ extract.Extractor = (*Extractor)(nil)

// New returns a greedy extractor configured by opts.
func New(opts ...Option) *Extractor {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Extractor{opts: cfg}
}

// Optimality reports extract.Neither.
func (e *Extractor) Optimality() extract.Optimality { return extract.Neither }

// Extract computes a baseline and improves it by local search.
func (e *Extractor) Extract(ctx context.Context, g *egraph.EGraph, roots []egraph.ClassID) (*extract.Result, error) {
	if g == nil {
		return nil, extract.ErrNilGraph
	}
	ri, err := g.ResolveRoots(roots)
	if err != nil {
		return nil, err
	}

	// 1) Tree fixpoint: feasibility, fallback selection and per-class estimates.
	t, err := bottomup.Worklist(ctx, g)
	if err != nil {
		return nil, err
	}
	r, err := t.Result(g, ri)
	if err != nil {
		return nil, err
	}
	if e.opts.Baseline == BaselineCostSet {
		cs, err := costSetBaseline(ctx, g, ri)
		if err != nil {
			return nil, err
		}
		if cs != nil && cs.CheckRoots(g, roots) == nil {
			r = cs
		}
	}

	// 2) Local search.
	s := &search{g: g, roots: roots, est: t.Best}
	if err := s.run(ctx, r, e.opts.MaxRounds); err != nil {
		return nil, err
	}

	return r, nil
}

// Improve runs the local search on an existing valid selection in place and
// returns the number of accepted swaps. est supplies per-class cost estimates,
// typically the Best column of a bottomup Table.
func Improve(ctx context.Context, g *egraph.EGraph, r *extract.Result, roots []egraph.ClassID, est []cost.Cost, maxRounds int) (int, error) {
	s := &search{g: g, roots: roots, est: est}
	err := s.run(ctx, r, maxRounds)

	return s.swaps, err
}

// search holds the per-call local search state.
type search struct {
	g     *egraph.EGraph
	roots []egraph.ClassID
	est   []cost.Cost
	swaps int
	steps int

	rootIdx []int

	reached []bool
	refs    []int
}

func (s *search) run(ctx context.Context, r *extract.Result, maxRounds int) error {
	cur, err := r.DagCost(s.g, s.roots)
	if err != nil {
		return err
	}
	if s.rootIdx, err = s.g.ResolveRoots(s.roots); err != nil {
		return err
	}
	for round := 0; maxRounds == 0 || round < maxRounds; round++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		next, ok, err := s.round(ctx, r, cur)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cur = next
		s.swaps++
	}

	return nil
}

// round applies the first exact improvement and reports the new DAG cost.
func (s *search) round(ctx context.Context, r *extract.Result, cur cost.Cost) (cost.Cost, bool, error) {
	order, err := r.Reachable(s.g, s.roots)
	if err != nil {
		return 0, false, err
	}
	s.count(r, order)

	for _, c := range order {
		old, _ := r.Choice(c)
		nodes := s.g.Class(c).Nodes
		for n := range nodes {
			if n == old {
				continue
			}
			delta, ok := s.estimate(r, c, &nodes[old], &nodes[n])
			if !ok || delta >= 0 {
				continue
			}

			s.steps++
			if s.steps%checkEvery == 0 {
				if err = ctx.Err(); err != nil {
					return 0, false, err
				}
			}

			// Exact re-check on a copy.
			trial := r.Clone()
			trial.Choose(c, n)
			if trial.CheckRoots(s.g, s.roots) != nil {
				continue
			}
			d, err := trial.DagCost(s.g, s.roots)
			if err != nil || !cost.Improves(d, cur) {
				continue
			}
			r.Choose(c, n)

			return d, true, nil
		}
	}

	return cur, false, nil
}

// count fills reached and refs: refs[k] is the number of reachable chosen
// nodes referencing k, roots counted once more.
func (s *search) count(r *extract.Result, order []int) {
	n := s.g.NumClasses()
	if s.reached == nil {
		s.reached = make([]bool, n)
		s.refs = make([]int, n)
	}
	for i := range s.reached {
		s.reached[i] = false
		s.refs[i] = 0
	}
	for _, c := range order {
		s.reached[c] = true
	}
	for _, root := range s.rootIdx {
		s.refs[root]++
	}
	for _, c := range order {
		ch, _ := r.Choice(c)
		kids := s.g.Class(c).Nodes[ch].ChildIndices()
		for i, k := range kids {
			if !repeats(kids, i) {
				s.refs[k]++
			}
		}
	}
}

// estimate prices swapping class c from old to alt as a DAG cost delta. ok is false when alt has
// a child without a choice, references c itself, or an infinite estimate.
func (s *search) estimate(r *extract.Result, c int, old, alt *egraph.Node) (float64, bool) {
	delta := float64(alt.Cost) - float64(old.Cost)
	kids := alt.ChildIndices()
	for i, k := range kids {
		if k == c {
			return 0, false
		}
		if _, chosen := r.Choice(k); !chosen {
			return 0, false
		}
		if repeats(kids, i) || s.reached[k] {
			continue
		}
		if s.est[k].IsInf() {
			return 0, false
		}
		delta += float64(s.est[k])
	}
	okids := old.ChildIndices()
	for i, k := range okids {
		if repeats(okids, i) || s.refs[k] != 1 || contains(kids, k) || s.est[k].IsInf() {
			continue
		}
		delta -= float64(s.est[k])
	}

	return delta, true
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

func contains(kids []int, k int) bool {
	for _, x := range kids {
		if x == k {
			return true
		}
	}

	return false
}
