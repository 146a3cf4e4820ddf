// Package ilp: branch-and-bound backend (exact search with admissible lower bounds).
//
// solveBnB searches the sel variables of a Program depth-first, keeping the
// cheapest acyclic complete assignment found so far as the upper bound (UB).
//
// Rationale (succinct):
//  1. Seeding: the caller passes the greedy-improved tree-optimal selection,
//     so UB is finite before the first branch and pruning bites at once.
//  2. State: a class is pending once a fixed node (or the root list) refers to
//     it. apply/undo keep refs and the pending lower bound incremental.
//  3. Bound: LB = costSoFar + Σ cheapest usable node of every pending class.
//     Each pending class must pick some node, so LB ≤ OPT of the subtree.
//     A branch is pruned unless LB improves on UB by more than cost.RelTol
//     (relative, so tiny and huge costs prune alike).
//  4. Branching: the pending class with the fewest candidates first, then its
//     nodes by ascending cost + tree estimate of their children (index
//     tiebreak). Fully deterministic.
//  5. Acyclicity: before fixing a node, a DFS over fixed nodes from its
//     children rejects it when the class is reachable again.
//  6. Soft time limit: sparse deadline checks, spaced by checkInterval so the
//     work between two checks stays bounded as the class count grows.
//
// Complexity:
//   - Worst case exponential (DAG extraction is NP-hard).
//   - Per search node: O(C) for pick plus O(C + E) for the cycle test.
//   - Memory: O(C) state + O(N) candidate lists.

package ilp

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/extract"
)

// bbEngine is the depth-first branch-and-bound search over the sel variables
// of a Program. A partial assignment fixes one node for some active classes;
// a class becomes pending once a fixed node references it.
type bbEngine struct {
	p *Program

	// Time budget
	ctx         context.Context
	useDeadline bool
	deadline    time.Time
	steps       int // sparse deadline checks counter
	checkMask   int // check when steps&checkMask == 0
	stopped     bool

	// Precomputes
	minCost []float64 // per class: cheapest usable node
	cands   [][]int   // per class: usable nodes by ascending estimate (index tiebreak)

	// Current search state
	choice    []int // -1 while unassigned
	refs      []int // fixed nodes referencing the class, roots counted once
	pendingLB float64

	// Reachability scratch for the cycle test
	mark  []int
	epoch int
	stack []int

	// Current best incumbent (UB)
	best     []int
	bestCost float64
	foundAny bool
}

// Deadline checks are spaced so that about checkWork class visits happen
// between two of them, never more than maxCheckInterval search nodes apart.
const (
	checkWork        = 1 << 18
	maxCheckInterval = 4096
)

// checkInterval returns the power of two closest to checkWork/classes,
// clamped to [1, maxCheckInterval]. Every search node costs O(classes) in
// pick and closesCycle.
func checkInterval(classes int) int {
	if classes < 1 {
		classes = 1
	}
	iv := 1
	for iv < maxCheckInterval && iv*classes < checkWork {
		iv <<= 1
	}

	return iv
}

// deadlineCheck performs a sparse deadline test.
func (e *bbEngine) deadlineCheck() bool {
	e.steps++
	if e.stopped {
		return true
	}
	if (e.steps & e.checkMask) != 0 {
		return false
	}

	return e.expired()
}

func (e *bbEngine) expired() bool {
	if e.ctx.Err() != nil || (e.useDeadline && time.Now().After(e.deadline)) {
		e.stopped = true
	}

	return e.stopped
}

// precompute fills minCost and the candidate order.
func (e *bbEngine) precompute() {
	var (
		g   = e.p.g
		n   = g.NumClasses()
		est = e.p.tree.Best
	)
	type keyed struct {
		node int
		key  float64
	}
	e.minCost = make([]float64, n)
	e.cands = make([][]int, n)
	for _, c := range e.p.classes {
		nodes := g.Class(c).Nodes
		row := make([]keyed, 0, len(nodes))
		mc := math.Inf(1)
		for i := range nodes {
			if _, ok := e.p.Sel(c, i); !ok {
				continue
			}
			k := float64(nodes[i].Cost)
			kids := nodes[i].ChildIndices()
			for j, kid := range kids {
				if !repeats(kids, j) {
					k += float64(est[kid])
				}
			}
			row = append(row, keyed{node: i, key: k})
			if float64(nodes[i].Cost) < mc {
				mc = float64(nodes[i].Cost)
			}
		}
		sort.SliceStable(row, func(a, b int) bool { return row[a].key < row[b].key })
		e.cands[c] = make([]int, len(row))
		for i, kn := range row {
			e.cands[c][i] = kn.node
		}
		e.minCost[c] = mc
	}
}

// seed installs r as the incumbent.
func (e *bbEngine) seed(r *extract.Result) {
	order, err := r.Reachable(e.p.g, e.p.rootIDs)
	if err != nil {
		return
	}
	var total float64
	for _, c := range order {
		n, _ := r.Choice(c)
		if _, ok := e.p.Sel(c, n); !ok {
			return
		}
		total += float64(e.p.g.Class(c).Nodes[n].Cost)
	}
	for i := range e.best {
		e.best[i] = -1
	}
	for _, c := range order {
		e.best[c], _ = r.Choice(c)
	}
	e.bestCost = total
	e.foundAny = true
}

// apply fixes node n for class c.
func (e *bbEngine) apply(c, n int) {
	e.choice[c] = n
	e.pendingLB -= e.minCost[c]
	kids := e.p.g.Class(c).Nodes[n].ChildIndices()
	for i, k := range kids {
		if repeats(kids, i) {
			continue
		}
		e.refs[k]++
		if e.refs[k] == 1 && e.choice[k] < 0 {
			e.pendingLB += e.minCost[k]
		}
	}
}

// undo reverts apply(c, n).
func (e *bbEngine) undo(c, n int) {
	kids := e.p.g.Class(c).Nodes[n].ChildIndices()
	for i, k := range kids {
		if repeats(kids, i) {
			continue
		}
		e.refs[k]--
		if e.refs[k] == 0 && e.choice[k] < 0 {
			e.pendingLB -= e.minCost[k]
		}
	}
	e.pendingLB += e.minCost[c]
	e.choice[c] = -1
}

// pick returns the pending class with the fewest candidates (index
// tiebreak), or -1 when the assignment is complete.
func (e *bbEngine) pick() int {
	best, bestLen := -1, math.MaxInt
	for _, c := range e.p.classes {
		if e.refs[c] == 0 || e.choice[c] >= 0 {
			continue
		}
		if l := len(e.cands[c]); l < bestLen {
			best, bestLen = c, l
		}
	}

	return best
}

// closesCycle reports whether fixing node n for class c would close a cycle:
// some child already reaches c through fixed nodes.
func (e *bbEngine) closesCycle(c, n int) bool {
	e.epoch++
	e.stack = e.stack[:0]
	for _, k := range e.p.g.Class(c).Nodes[n].ChildIndices() {
		if e.mark[k] != e.epoch {
			e.mark[k] = e.epoch
			e.stack = append(e.stack, k)
		}
	}
	for len(e.stack) > 0 {
		u := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]
		if u == c {
			return true
		}
		if e.choice[u] < 0 {
			continue
		}
		for _, k := range e.p.g.Class(u).Nodes[e.choice[u]].ChildIndices() {
			if e.mark[k] != e.epoch {
				e.mark[k] = e.epoch
				e.stack = append(e.stack, k)
			}
		}
	}

	return false
}

// commit records a complete assignment as the new incumbent.
func (e *bbEngine) commit(total float64) {
	copy(e.best, e.choice)
	e.bestCost = total
	e.foundAny = true
}

// dfs performs the core search: fail-first branching + pruning unless the
// lower bound improves on the incumbent by more than cost.RelTol.
func (e *bbEngine) dfs(costSoFar float64) {
	// Sparse time check.
	if e.deadlineCheck() {
		return
	}

	// Prune by lower bound: every pending class pays at least its cheapest node.
	if lb := costSoFar + e.pendingLB; !cost.Improves(cost.Cost(lb), cost.Cost(e.bestCost)) {
		return
	}

	c := e.pick()
	if c < 0 {
		e.commit(costSoFar)

		return
	}

	nodes := e.p.g.Class(c).Nodes
	for _, n := range e.cands[c] {
		if e.closesCycle(c, n) {
			continue
		}
		e.apply(c, n)
		e.dfs(costSoFar + float64(nodes[n].Cost))
		e.undo(c, n)
		if e.stopped {
			return
		}
	}
}

// solveBnB runs the search seeded with incumbent (which may be nil).
// proven is false when the search stopped at the deadline or on cancellation.
func solveBnB(ctx context.Context, p *Program, incumbent *extract.Result) (res *extract.Result, proven bool) {
	n := p.g.NumClasses()
	e := bbEngine{
		p:         p,
		ctx:       ctx,
		choice:    make([]int, n),
		refs:      make([]int, n),
		mark:      make([]int, n),
		best:      make([]int, n),
		bestCost:  math.Inf(1),
		checkMask: checkInterval(len(p.classes)) - 1,
	}
	if d, ok := ctx.Deadline(); ok {
		e.useDeadline, e.deadline = true, d
	}
	for i := range e.choice {
		e.choice[i], e.best[i] = -1, -1
	}
	e.precompute()
	if incumbent != nil {
		e.seed(incumbent)
	}

	// Roots are pending from the start.
	for _, r := range p.roots {
		e.refs[r]++
		if e.refs[r] == 1 {
			e.pendingLB += e.minCost[r]
		}
	}

	if !e.expired() {
		e.dfs(0)
	}
	if !e.foundAny {
		return nil, false
	}

	res = extract.NewResult(p.g)
	for c, node := range e.best {
		if node >= 0 {
			res.Choose(c, node)
		}
	}

	return res, !e.stopped
}
