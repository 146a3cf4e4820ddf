package ilp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/egraphx/bottomup"
	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
	"github.com/katalvlaran/egraphx/ilp"
	"github.com/katalvlaran/egraphx/internal/egtest"
)

func TestFormulate_ShapeOfShared(t *testing.T) {
	g := egtest.Shared(t)
	p, err := ilp.Formulate(context.Background(), g, g.Roots())
	require.NoError(t, err)

	// 4 classes, 5 nodes: 4 act + 4 ord + 5 sel.
	assert.Len(t, p.Vars, 13)
	assert.Equal(t, []int{0, 1, 2, 3}, p.Classes())
	assert.Len(t, p.Objective, 5)

	var kinds [3]int
	for _, v := range p.Vars {
		kinds[v.Kind]++
	}
	assert.Equal(t, [3]int{5, 4, 4}, kinds)
}

func TestFormulate_FixesSelfLoopsAndInfiniteChildren(t *testing.T) {
	g := egtest.MustBuild(t, []string{"r"},
		egtest.C{ID: "r", Nodes: []egtest.N{
			{Op: "self", Cost: 0, Kids: []string{"r"}},
			{Op: "dead", Cost: 1, Kids: []string{"z"}},
			{Op: "ok", Cost: 4},
		}},
		egtest.C{ID: "z", Nodes: []egtest.N{{Op: "loop", Cost: 1, Kids: []string{"z"}}}},
	)
	p, err := ilp.Formulate(context.Background(), g, g.Roots())
	require.NoError(t, err)

	_, ok := p.Sel(0, 0)
	assert.False(t, ok, "self-loop fixed to zero")
	_, ok = p.Sel(0, 1)
	assert.False(t, ok, "node over an infeasible class fixed to zero")
	_, ok = p.Sel(0, 2)
	assert.True(t, ok)
	_, ok = p.Act(1)
	assert.False(t, ok, "class z is not reachable through usable nodes")
}

func TestFormulate_InfeasibleRoot(t *testing.T) {
	g := egtest.Scenario4(t)
	_, err := ilp.Formulate(context.Background(), g, g.Roots())
	require.ErrorIs(t, err, extract.ErrInfeasible)
}

func TestSatisfied_AcceptsAssignedTreeSelection(t *testing.T) {
	opts := egtest.DefaultRandomOptions()
	opts.Classes = 20
	for seed := int64(1); seed <= 20; seed++ {
		g := egtest.MustRandom(t, seed, opts)
		p, err := ilp.Formulate(context.Background(), g, g.Roots())
		require.NoError(t, err)
		r, err := bottomup.NewFaster().Extract(context.Background(), g, g.Roots())
		require.NoError(t, err)

		x, err := p.Assign(r)
		require.NoError(t, err)
		require.NoError(t, p.Satisfied(x), "seed %d", seed)

		dag, err := r.DagCost(g, g.Roots())
		require.NoError(t, err)
		assert.InDelta(t, dag.Float64(), p.Value(x), 1e-9)

		// Decode inverts Assign on the reachable part.
		back := p.Decode(x)
		assert.Equal(t, mustReachableSelection(t, r, g), back.Selection(g))
	}
}

func TestSatisfied_RejectsBrokenRows(t *testing.T) {
	g := egtest.Shared(t)
	p, err := ilp.Formulate(context.Background(), g, g.Roots())
	require.NoError(t, err)
	r, err := bottomup.NewFaster().Extract(context.Background(), g, g.Roots())
	require.NoError(t, err)
	x, err := p.Assign(r)
	require.NoError(t, err)

	// Root inactive.
	bad := append([]float64(nil), x...)
	root, _ := p.Act(0)
	bad[root] = 0
	require.ErrorIs(t, p.Satisfied(bad), ilp.ErrViolated)

	// Order reversed on a selected edge.
	bad = append([]float64(nil), x...)
	o0, _ := p.Ord(0)
	o1, _ := p.Ord(1)
	bad[o0], bad[o1] = 0, 3
	require.ErrorIs(t, p.Satisfied(bad), ilp.ErrViolated)

	// Fractional.
	bad = append([]float64(nil), x...)
	bad[o0] = 0.5
	require.ErrorIs(t, p.Satisfied(bad), ilp.ErrViolated)

	// Wrong length.
	require.ErrorIs(t, p.Satisfied(x[:1]), ilp.ErrViolated)
}

func TestAssign_RejectsFixedNode(t *testing.T) {
	g := egtest.Scenario4Escapable(t)
	p, err := ilp.Formulate(context.Background(), g, g.Roots())
	require.NoError(t, err)

	r := extract.NewResult(g)
	r.Choose(0, 0) // the self-loop
	_, err = p.Assign(r)
	require.ErrorIs(t, err, ilp.ErrViolated)
}

// mustReachableSelection restricts r's selection to the classes reachable
// from g's roots.
func mustReachableSelection(t *testing.T, r *extract.Result, g *egraph.EGraph) map[egraph.ClassID]egraph.NodeID {
	t.Helper()
	order, err := r.Reachable(g, g.Roots())
	require.NoError(t, err)
	keep := extract.NewResult(g)
	for _, c := range order {
		n, _ := r.Choice(c)
		keep.Choose(c, n)
	}

	return keep.Selection(g)
}
