package greedy

import (
	"context"
	"sort"

	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
	"github.com/katalvlaran/egraphx/internal/worklist"
)

// costSet is the set of classes a derivation requires, each with the cost of
// the node that was chosen for it when the set was built. classes is sorted.
type costSet struct {
	classes []int
	costs   []cost.Cost
	total   cost.Cost
}

func (s *costSet) has(c int) bool {
	i := sort.SearchInts(s.classes, c)

	return i < len(s.classes) && s.classes[i] == c
}

// merge returns the sorted union of a and b; on a shared class a's cost wins.
func merge(a, b *costSet) *costSet {
	out := &costSet{
		classes: make([]int, 0, len(a.classes)+len(b.classes)),
		costs:   make([]cost.Cost, 0, len(a.classes)+len(b.classes)),
	}
	i, j := 0, 0
	for i < len(a.classes) || j < len(b.classes) {
		switch {
		case j == len(b.classes) || (i < len(a.classes) && a.classes[i] < b.classes[j]):
			out.classes = append(out.classes, a.classes[i])
			out.costs = append(out.costs, a.costs[i])
			i++
		case i == len(a.classes) || b.classes[j] < a.classes[i]:
			out.classes = append(out.classes, b.classes[j])
			out.costs = append(out.costs, b.costs[j])
			j++
		default:
			out.classes = append(out.classes, a.classes[i])
			out.costs = append(out.costs, a.costs[i])
			i++
			j++
		}
	}

	return out
}

// price builds the cost set of node n in class c, or nil when a child has no
// set yet or the derivation would require c itself.
func price(n *egraph.Node, c int, sets []*costSet) *costSet {
	acc := &costSet{}
	for _, k := range n.ChildIndices() {
		if sets[k] == nil {
			return nil
		}
		acc = merge(acc, sets[k])
	}
	if acc.has(c) {
		return nil
	}
	acc = merge(acc, &costSet{classes: []int{c}, costs: []cost.Cost{n.Cost}})
	acc.total = cost.Sum(acc.costs...)

	return acc
}

// costSetBaseline propagates cost sets with a node worklist and returns the
// selection they induce, or nil when a root ends without a set.
//
//  1. Seed every childless node.
//  2. Pop a node and price it; a strictly smaller total replaces the class's
//     set and choice, and enqueues the class's parents.
//  3. Stop when the queue is empty.
//
// Totals only decrease and there are finitely many sets, so the loop ends.
func costSetBaseline(ctx context.Context, g *egraph.EGraph, roots []int) (*extract.Result, error) {
	var (
		sets   = make([]*costSet, g.NumClasses())
		choice = make([]int, g.NumClasses())
		q      = worklist.New(g)
		steps  int
	)

	// 1) Seed.
	q.SeedLeaves(g)

	// 2) Relax.
	for !q.Empty() {
		steps++
		if steps%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ref := q.Pop()
		cand := price(g.Node(ref), ref.Class, sets)
		if cand == nil {
			continue
		}
		if cur := sets[ref.Class]; cur != nil && !cand.total.Less(cur.total) {
			continue
		}
		sets[ref.Class] = cand
		choice[ref.Class] = ref.Node
		for _, p := range g.Parents(ref.Class) {
			q.Push(p)
		}
	}

	// 3) Selection.
	for _, r := range roots {
		if sets[r] == nil {
			return nil, nil
		}
	}
	res := extract.NewResult(g)
	for c, s := range sets {
		if s != nil {
			res.Choose(c, choice[c])
		}
	}

	return res, nil
}
