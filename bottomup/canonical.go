package bottomup

import (
	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
)

// canonicalize rewrites t.Choice in place with the shared tie-break rule: the
// lowest-index node whose candidate equals the class's best cost and whose
// children are all strictly cheaper than the class. A positive own cost is not
// enough: cost + best[kid] can round back to best[kid]. Classes without an
// eligible node keep the fixpoint choice.
func canonicalize(g *egraph.EGraph, t *Table) {
	for c := range t.Best {
		best := t.Best[c]
		if best.IsInf() {
			continue
		}
		nodes := g.Class(c).Nodes
		for i := range nodes {
			if candidate(&nodes[i], t.Best) != best || !eligible(&nodes[i], t, best) {
				continue
			}
			t.Choice[c] = i
			break
		}
	}
}

func eligible(n *egraph.Node, t *Table, best cost.Cost) bool {
	for _, kid := range n.ChildIndices() {
		if t.Best[kid] >= best {
			return false
		}
	}

	return true
}
