// Package egtest provides e-graph fixtures shared by the extraction tests:
// a compact literal builder, the reference scenarios, and a seeded random
// generator.
package egtest

import (
	"fmt"
	"math/rand"
	"strconv"
	"testing"

	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
)

// N is a node literal: operator, cost and child class ids.
type N struct {
	Op   string
	Cost float64
	Kids []string
}

// C is a class literal.
type C struct {
	ID    string
	Nodes []N
}

// MustBuild builds an e-graph from literals, failing tb on any error.
func MustBuild(tb testing.TB, roots []string, classes ...C) *egraph.EGraph {
	tb.Helper()
	g, err := Build(roots, classes...)
	if err != nil {
		tb.Fatalf("egtest: %v", err)
	}

	return g
}

// Build builds an e-graph from literals.
func Build(roots []string, classes ...C) (*egraph.EGraph, error) {
	b := egraph.NewBuilder()
	for _, c := range classes {
		for _, n := range c.Nodes {
			kids := make([]egraph.ClassID, len(n.Kids))
			for i, k := range n.Kids {
				kids[i] = egraph.ClassID(k)
			}
			if err := b.AddNode(egraph.ClassID(c.ID), egraph.Node{
				Op:       n.Op,
				Cost:     cost.Cost(n.Cost),
				Children: kids,
			}); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range roots {
		b.AddRoot(egraph.ClassID(r))
	}

	return b.Build()
}

// Scenario1: one class, one leaf node of cost 3.
func Scenario1(tb testing.TB) *egraph.EGraph {
	return MustBuild(tb, []string{"a"}, C{ID: "a", Nodes: []N{{Op: "x", Cost: 3}}})
}

// Scenario2: A (cost 1, child B); B leaf of cost 2.
func Scenario2(tb testing.TB) *egraph.EGraph {
	return MustBuild(tb, []string{"A"},
		C{ID: "A", Nodes: []N{{Op: "f", Cost: 1, Kids: []string{"B"}}}},
		C{ID: "B", Nodes: []N{{Op: "b", Cost: 2}}},
	)
}

// Scenario3: R (cost 1) references S twice; S leaf of cost 5.
func Scenario3(tb testing.TB) *egraph.EGraph {
	return MustBuild(tb, []string{"R"},
		C{ID: "R", Nodes: []N{{Op: "+", Cost: 1, Kids: []string{"S", "S"}}}},
		C{ID: "S", Nodes: []N{{Op: "s", Cost: 5}}},
	)
}

// Scenario4: the root's only node is its own child; no acyclic derivation exists.
func Scenario4(tb testing.TB) *egraph.EGraph {
	return MustBuild(tb, []string{"L"},
		C{ID: "L", Nodes: []N{{Op: "loop", Cost: 1, Kids: []string{"L"}}}},
	)
}

// Scenario4Escapable: like Scenario4 but the class also has a leaf, so the
// self-referencing node must simply never be chosen.
func Scenario4Escapable(tb testing.TB) *egraph.EGraph {
	return MustBuild(tb, []string{"L"},
		C{ID: "L", Nodes: []N{
			{Op: "loop", Cost: 0, Kids: []string{"L"}},
			{Op: "leaf", Cost: 2},
		}},
	)
}

// Scenario5: one class with two leaves of cost 9 and 4.
func Scenario5(tb testing.TB) *egraph.EGraph {
	return MustBuild(tb, []string{"a"},
		C{ID: "a", Nodes: []N{{Op: "expensive", Cost: 9}, {Op: "cheap", Cost: 4}}},
	)
}

// Shared is a graph where the tree-optimal choice is not DAG-optimal: the root
// can pay 10 for two private leaves or share one class (cost 6) twice.
//
//	root: pair(p, q) cost 1   | twice(s, s) cost 1
//	p: 5  q: 5                | s: 6 (or via t)
func Shared(tb testing.TB) *egraph.EGraph { return SharedScaled(tb, 1) }

// SharedScaled is Shared with every cost multiplied by f.
func SharedScaled(tb testing.TB, f float64) *egraph.EGraph {
	return MustBuild(tb, []string{"root"},
		C{ID: "root", Nodes: []N{
			{Op: "pair", Cost: 1 * f, Kids: []string{"p", "q"}},
			{Op: "twice", Cost: 1 * f, Kids: []string{"s", "s"}},
		}},
		C{ID: "p", Nodes: []N{{Op: "p", Cost: 5 * f}}},
		C{ID: "q", Nodes: []N{{Op: "q", Cost: 5 * f}}},
		C{ID: "s", Nodes: []N{{Op: "s", Cost: 6 * f}}},
	)
}

// Absorbed: A and B each hold a leaf of cost 1 and a node of cost 1e-17
// pointing at the other class. 1e-17 + 1 rounds to 1, so the cross nodes tie
// with the leaves while choosing both would close a cycle.
func Absorbed(tb testing.TB) *egraph.EGraph {
	return MustBuild(tb, []string{"A"},
		C{ID: "A", Nodes: []N{{Op: "a0", Cost: 1e-17, Kids: []string{"B"}}, {Op: "a1", Cost: 1}}},
		C{ID: "B", Nodes: []N{{Op: "b0", Cost: 1e-17, Kids: []string{"A"}}, {Op: "b1", Cost: 1}}},
	)
}

// RandomOptions shapes Random.
type RandomOptions struct {
	Classes   int     // number of classes (≥ 1)
	MaxNodes  int     // nodes per class in [1, MaxNodes]
	MaxKids   int     // children per node in [0, MaxKids]
	MaxCost   int     // integer node costs in [MinCost, MaxCost]
	MinCost   int     // lower bound on node costs (use 0 to allow free nodes)
	BackEdges float64 // probability that a non-anchor node may point to any class
	Roots     int     // number of roots (taken from the lowest indices)
	Scale     float64 // multiplies every cost when > 0
}

// DefaultRandomOptions returns a small, cycle-prone shape with positive costs.
func DefaultRandomOptions() RandomOptions {
	return RandomOptions{
		Classes:   12,
		MaxNodes:  3,
		MaxKids:   3,
		MaxCost:   9,
		MinCost:   1,
		BackEdges: 0.3,
		Roots:     1,
	}
}

// Random generates a reproducible e-graph. Class i always owns an "anchor" node
// whose children have indices > i, so every class has a finite acyclic
// derivation; other nodes may point anywhere (including back edges and
// self-loops) with probability BackEdges.
func Random(seed int64, o RandomOptions) (*egraph.EGraph, error) {
	if o.Classes < 1 || o.MaxNodes < 1 || o.MaxCost < o.MinCost || o.Roots < 1 || o.Roots > o.Classes {
		return nil, fmt.Errorf("egtest: invalid random options %+v", o)
	}
	rng := rand.New(rand.NewSource(seed))
	name := func(i int) egraph.ClassID { return egraph.ClassID("c" + strconv.Itoa(i)) }

	b := egraph.NewBuilder()
	for i := 0; i < o.Classes; i++ {
		nodes := 1 + rng.Intn(o.MaxNodes)
		for k := 0; k < nodes; k++ {
			var kids []egraph.ClassID
			nk := 0
			if o.MaxKids > 0 {
				nk = rng.Intn(o.MaxKids + 1)
			}
			anywhere := k > 0 && rng.Float64() < o.BackEdges
			for j := 0; j < nk; j++ {
				switch {
				case anywhere:
					kids = append(kids, name(rng.Intn(o.Classes)))
				case i+1 < o.Classes:
					kids = append(kids, name(i+1+rng.Intn(o.Classes-i-1)))
				}
			}
			c := float64(o.MinCost + rng.Intn(o.MaxCost-o.MinCost+1))
			if o.Scale > 0 {
				c *= o.Scale
			}
			if err := b.AddNode(name(i), egraph.Node{
				Op:       "op" + strconv.Itoa(k),
				Cost:     cost.Cost(c),
				Children: kids,
			}); err != nil {
				return nil, err
			}
		}
	}
	for r := 0; r < o.Roots; r++ {
		b.AddRoot(name(r))
	}

	return b.Build()
}

// MustRandom is Random for tests.
func MustRandom(tb testing.TB, seed int64, o RandomOptions) *egraph.EGraph {
	tb.Helper()
	g, err := Random(seed, o)
	if err != nil {
		tb.Fatalf("egtest: %v", err)
	}

	return g
}
