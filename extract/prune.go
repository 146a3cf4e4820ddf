package extract

import (
	"fmt"

	"github.com/katalvlaran/egraphx/egraph"
)

// Prune rebuilds an e-graph that keeps, for every class reachable from roots,
// only its chosen node. Classes appear in Reachable order and the roots are
// preserved, so extracting the pruned graph with any strategy yields the same
// term. r must pass CheckRoots first.
func Prune(g *egraph.EGraph, r *Result, roots []egraph.ClassID) (*egraph.EGraph, error) {
	if err := r.CheckRoots(g, roots); err != nil {
		return nil, fmt.Errorf("extract: prune: %w", err)
	}
	order, err := r.Reachable(g, roots)
	if err != nil {
		return nil, err
	}

	b := egraph.NewBuilder()
	for _, c := range order {
		cls := g.Class(c)
		n := cls.Nodes[r.choices[c]]
		if err = b.AddNode(cls.ID, egraph.Node{
			ID:       n.ID,
			Op:       n.Op,
			Cost:     n.Cost,
			Children: n.Children,
		}); err != nil {
			return nil, fmt.Errorf("extract: prune: %w", err)
		}
	}
	for _, root := range roots {
		b.AddRoot(root)
	}

	return b.Build()
}
