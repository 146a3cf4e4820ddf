package extract_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
	"github.com/katalvlaran/egraphx/internal/egtest"
)

// chooseFirst selects node 0 in every class.
func chooseFirst(g *egraph.EGraph) *extract.Result {
	r := extract.NewResult(g)
	for i := 0; i < g.NumClasses(); i++ {
		r.Choose(i, 0)
	}

	return r
}

func TestCosts_Scenarios(t *testing.T) {
	cases := []struct {
		name      string
		g         *egraph.EGraph
		tree, dag cost.Cost
	}{
		{"single leaf", egtest.Scenario1(t), 3, 3},
		{"chain", egtest.Scenario2(t), 3, 3},
		{"shared child", egtest.Scenario3(t), 11, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chooseFirst(tc.g)
			require.NoError(t, r.Check(tc.g))

			tree, err := r.TreeCost(tc.g, tc.g.Roots())
			require.NoError(t, err)
			dag, err := r.DagCost(tc.g, tc.g.Roots())
			require.NoError(t, err)

			assert.Equal(t, tc.tree, tree)
			assert.Equal(t, tc.dag, dag)
			assert.False(t, tree.Less(dag), "dag cost never exceeds tree cost")
		})
	}
}

func TestCheck_Unresolved(t *testing.T) {
	g := egtest.Scenario2(t)
	r := extract.NewResult(g)

	err := r.Check(g)
	var ce *extract.CheckError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, extract.ErrUnresolvedClass)
	assert.Equal(t, egraph.ClassID("A"), ce.Class)

	_, err = r.TreeCost(g, g.Roots())
	assert.ErrorIs(t, err, extract.ErrUnresolvedClass)
	_, err = r.DagCost(g, g.Roots())
	assert.ErrorIs(t, err, extract.ErrUnresolvedClass)
}

func TestCheck_Dangling(t *testing.T) {
	g := egtest.Scenario2(t)
	r := extract.NewResult(g)
	r.Choose(0, 0) // A chosen, B left open

	err := r.Check(g)
	var ce *extract.CheckError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, extract.ErrDanglingChild)
	assert.Equal(t, egraph.ClassID("B"), ce.Class)
	assert.Equal(t, egraph.NodeID("A.0"), ce.Node)
	assert.Contains(t, err.Error(), "via node A.0")
}

func TestCheck_Cycle(t *testing.T) {
	g := egtest.MustBuild(t, []string{"a"},
		egtest.C{ID: "a", Nodes: []egtest.N{{Op: "f", Cost: 1, Kids: []string{"b"}}}},
		egtest.C{ID: "b", Nodes: []egtest.N{{Op: "g", Cost: 1, Kids: []string{"c"}}}},
		egtest.C{ID: "c", Nodes: []egtest.N{{Op: "h", Cost: 1, Kids: []string{"b"}}, {Op: "leaf", Cost: 9}}},
	)
	r := chooseFirst(g)

	err := r.Check(g)
	var ce *extract.CheckError
	require.ErrorAs(t, err, &ce)
	require.ErrorIs(t, err, extract.ErrCycle)
	assert.Equal(t, []egraph.ClassID{"b", "c", "b"}, ce.Path)

	_, err = r.TreeCost(g, g.Roots())
	assert.ErrorIs(t, err, extract.ErrCycle, "tree cost must not recurse forever")

	// DAG cost only needs reachability; it stays defined on a cyclic selection.
	dag, err := r.DagCost(g, g.Roots())
	require.NoError(t, err)
	assert.Equal(t, cost.MustNew(3), dag)

	// Breaking the cycle makes the selection valid.
	r.Choose(2, 1)
	require.NoError(t, r.Check(g))
	tree, err := r.TreeCost(g, g.Roots())
	require.NoError(t, err)
	assert.Equal(t, cost.MustNew(11), tree)
}

func TestCheck_SelfLoop(t *testing.T) {
	g := egtest.Scenario4(t)
	r := chooseFirst(g)
	require.ErrorIs(t, r.Check(g), extract.ErrCycle)
}

func TestCheck_UnreachableClassesIgnored(t *testing.T) {
	g := egtest.MustBuild(t, []string{"a"},
		egtest.C{ID: "a", Nodes: []egtest.N{{Op: "a", Cost: 1}}},
		egtest.C{ID: "junk", Nodes: []egtest.N{{Op: "j", Cost: 1, Kids: []string{"junk"}}}},
	)
	r := extract.NewResult(g)
	r.Choose(0, 0)
	r.Choose(1, 0) // cyclic but unreachable
	require.NoError(t, r.Check(g))
	assert.Equal(t, 2, r.Len())
}

func TestCheck_GraphMismatchAndNil(t *testing.T) {
	r := chooseFirst(egtest.Scenario1(t))
	require.ErrorIs(t, r.Check(nil), extract.ErrNilGraph)
	require.ErrorIs(t, r.Check(egtest.Scenario2(t)), extract.ErrGraphMismatch)
	_, err := r.DagCost(egtest.Scenario1(t), []egraph.ClassID{"nope"})
	require.ErrorIs(t, err, egraph.ErrUnknownClass)
}

func TestReachable_PreOrderOnce(t *testing.T) {
	g := egtest.MustBuild(t, []string{"r"},
		egtest.C{ID: "r", Nodes: []egtest.N{{Op: "r", Cost: 1, Kids: []string{"x", "y", "x"}}}},
		egtest.C{ID: "y", Nodes: []egtest.N{{Op: "y", Cost: 1, Kids: []string{"z"}}}},
		egtest.C{ID: "x", Nodes: []egtest.N{{Op: "x", Cost: 1, Kids: []string{"z"}}}},
		egtest.C{ID: "z", Nodes: []egtest.N{{Op: "z", Cost: 1}}},
		egtest.C{ID: "u", Nodes: []egtest.N{{Op: "u", Cost: 1}}},
	)
	r := chooseFirst(g)
	order, err := r.Reachable(g, g.Roots())
	require.NoError(t, err)
	// r, x, z, y; u is unreachable.
	assert.Equal(t, []int{0, 2, 3, 1}, order)

	tree, err := r.TreeCost(g, g.Roots())
	require.NoError(t, err)
	dag, err := r.DagCost(g, g.Roots())
	require.NoError(t, err)
	assert.Equal(t, cost.MustNew(7), tree) // 1 + (1+1) + (1+1) + (1+1)
	assert.Equal(t, cost.MustNew(4), dag)
}

func TestSelection_CloneIsIndependent(t *testing.T) {
	g := egtest.Scenario5(t)
	r := extract.NewResult(g)
	r.Choose(0, 1)
	c := r.Clone()
	c.Choose(0, 0)
	c.SetOutcome(extract.Unproven)

	want := map[egraph.ClassID]egraph.NodeID{"a": "a.1"}
	if diff := cmp.Diff(want, r.Selection(g)); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, extract.Complete, r.Outcome())
	assert.Equal(t, extract.Unproven, c.Outcome())

	n, ok := r.ChoiceByID(g, "a")
	require.True(t, ok)
	assert.Equal(t, "cheap", n.Op)
	_, ok = r.ChoiceByID(g, "missing")
	assert.False(t, ok)

	r.Unchoose(0)
	_, ok = r.Choice(0)
	assert.False(t, ok)
}

func TestPrune_KeepsOnlyChosenNodes(t *testing.T) {
	g := egtest.Shared(t)
	r := chooseFirst(g)
	r.Choose(0, 1) // twice(s, s)

	pruned, err := extract.Prune(g, r, g.Roots())
	require.NoError(t, err)
	assert.Equal(t, 2, pruned.NumClasses())
	assert.Equal(t, 2, pruned.NumNodes())
	assert.Equal(t, g.Roots(), pruned.Roots())

	// The pruned graph round-trips and extracts to the same cost.
	var buf bytes.Buffer
	require.NoError(t, pruned.WriteJSON(&buf))
	back, err := egraph.ReadJSON(&buf)
	require.NoError(t, err)
	pr := chooseFirst(back)
	dag, err := pr.DagCost(back, back.Roots())
	require.NoError(t, err)
	assert.Equal(t, cost.MustNew(7), dag)

	// Invalid selections are refused.
	_, err = extract.Prune(g, extract.NewResult(g), g.Roots())
	assert.True(t, errors.Is(err, extract.ErrUnresolvedClass))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "tree", extract.TreeOptimal.String())
	assert.Equal(t, "dag", extract.DAGOptimal.String())
	assert.Equal(t, "neither", extract.Neither.String())
	assert.Equal(t, "complete", extract.Complete.String())
	assert.Equal(t, "unproven", extract.Unproven.String())
}
