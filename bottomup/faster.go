package bottomup

import (
	"context"

	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
	"github.com/katalvlaran/egraphx/internal/worklist"
)

// ctxCheckEvery is how many worklist pops pass between context checks.
const ctxCheckEvery = 4096

// Faster is the worklist strategy: same fixpoint as Extractor, computed
// incrementally (tree-optimal).
type Faster struct{}

// Ensure interface compliance at compile time.
var _ extract.Extractor = Faster{}

// NewFaster returns the worklist extractor.
func NewFaster() Faster { return Faster{} }

// Optimality reports extract.TreeOptimal.
func (Faster) Optimality() extract.Optimality { return extract.TreeOptimal }

// Extract runs Worklist and converts the canonical table into a Result.
func (f Faster) Extract(ctx context.Context, g *egraph.EGraph, roots []egraph.ClassID) (*extract.Result, error) {
	if g == nil {
		return nil, extract.ErrNilGraph
	}
	ri, err := g.ResolveRoots(roots)
	if err != nil {
		return nil, err
	}
	t, err := Worklist(ctx, g)
	if err != nil {
		return nil, err
	}

	return t.Result(g, ri)
}

// Worklist computes the canonical tree-cost fixpoint incrementally.
//
//  1. Seed the queue with every childless node, in (class, node) order.
//  2. Pop a node; if its candidate beats its class's best, update the class and
//     enqueue every parent node of that class (a node already queued is not
//     queued twice).
//  3. Stop when the queue is empty.
//
// Values only decrease and a class changes only on a strict improvement, so the
// loop reaches the same least fixpoint as the sweep strategy.
func Worklist(ctx context.Context, g *egraph.EGraph) (*Table, error) {
	var (
		t = newTable(g.NumClasses())
		q = worklist.New(g)
	)

	// 1) Seed.
	q.SeedLeaves(g)

	// 2) Relax.
	steps := 0
	for !q.Empty() {
		steps++
		if steps%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		ref := q.Pop()
		cand := candidate(g.Node(ref), t.Best)
		if cand < t.Best[ref.Class] {
			t.Best[ref.Class] = cand
			t.Choice[ref.Class] = ref.Node
			for _, p := range g.Parents(ref.Class) {
				q.Push(p)
			}
		}
	}

	canonicalize(g, t)

	return t, nil
}
