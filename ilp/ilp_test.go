package ilp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/egraphx/bottomup"
	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
	"github.com/katalvlaran/egraphx/greedy"
	"github.com/katalvlaran/egraphx/ilp"
	"github.com/katalvlaran/egraphx/internal/egtest"
)

func backends() map[string]*ilp.Extractor {
	return map[string]*ilp.Extractor{
		"bnb": ilp.New(),
		"pb":  ilp.New(ilp.WithBackend(ilp.PseudoBoolean)),
	}
}

func solve(t *testing.T, x extract.Extractor, g *egraph.EGraph) (*extract.Result, cost.Cost) {
	t.Helper()
	r, err := x.Extract(context.Background(), g, g.Roots())
	require.NoError(t, err)
	require.NoError(t, r.Check(g))
	dag, err := r.DagCost(g, g.Roots())
	require.NoError(t, err)

	return r, dag
}

// bruteForce enumerates every selection of a small graph and returns the
// minimum DAG cost over valid ones.
func bruteForce(t *testing.T, g *egraph.EGraph) cost.Cost {
	t.Helper()
	r := extract.NewResult(g)
	best := cost.Infinity
	var rec func(c int)
	rec = func(c int) {
		if c == g.NumClasses() {
			if r.Check(g) != nil {
				return
			}
			d, err := r.DagCost(g, g.Roots())
			require.NoError(t, err)
			best = cost.Min(best, d)

			return
		}
		for n := range g.Class(c).Nodes {
			r.Choose(c, n)
			rec(c + 1)
		}
	}
	rec(0)

	return best
}

func TestScenarios(t *testing.T) {
	cases := []struct {
		name string
		g    *egraph.EGraph
		dag  cost.Cost
	}{
		{"single leaf", egtest.Scenario1(t), 3},
		{"chain", egtest.Scenario2(t), 3},
		{"shared child", egtest.Scenario3(t), 6},
		{"cheapest leaf", egtest.Scenario5(t), 4},
		{"escapable self loop", egtest.Scenario4Escapable(t), 2},
		{"reuse beats tree", egtest.Shared(t), 7},
	}
	for name, x := range backends() {
		for _, tc := range cases {
			r, dag := solve(t, x, tc.g)
			assert.Equal(t, tc.dag, dag, "%s/%s", name, tc.name)
			assert.Equal(t, extract.Complete, r.Outcome(), "%s/%s", name, tc.name)
		}
	}
}

func TestInfeasibleRootBeforeSolving(t *testing.T) {
	g := egtest.Scenario4(t)
	for name, x := range backends() {
		_, err := x.Extract(context.Background(), g, g.Roots())
		require.ErrorIs(t, err, extract.ErrInfeasible, name)
	}
}

func TestUnknownRootAndNilGraph(t *testing.T) {
	g := egtest.Scenario1(t)
	_, err := ilp.New().Extract(context.Background(), g, []egraph.ClassID{"nope"})
	require.ErrorIs(t, err, egraph.ErrUnknownClass)
	_, err = ilp.New().Extract(context.Background(), nil, nil)
	require.ErrorIs(t, err, extract.ErrNilGraph)
}

func TestMatchesBruteForce(t *testing.T) {
	opts := egtest.RandomOptions{
		Classes: 6, MaxNodes: 3, MaxKids: 2, MinCost: 0, MaxCost: 6, BackEdges: 0.5, Roots: 1,
	}
	for seed := int64(1); seed <= 40; seed++ {
		g := egtest.MustRandom(t, seed, opts)
		want := bruteForce(t, g)
		for name, x := range backends() {
			r, got := solve(t, x, g)
			assert.True(t, cost.ApproxEqual(want, got), "seed %d %s: got %v want %v", seed, name, got, want)
			assert.Equal(t, extract.Complete, r.Outcome())
		}
	}
}

// sameCost reports whether a and b agree up to cost.RelTol.
func sameCost(a, b cost.Cost) bool {
	return !cost.Improves(a, b) && !cost.Improves(b, a)
}

func TestMatchesBruteForce_TinyCosts(t *testing.T) {
	opts := egtest.RandomOptions{
		Classes: 6, MaxNodes: 3, MaxKids: 2, MinCost: 0, MaxCost: 6, BackEdges: 0.5, Roots: 1, Scale: 1e-8,
	}
	for seed := int64(1); seed <= 40; seed++ {
		g := egtest.MustRandom(t, seed, opts)
		want := bruteForce(t, g)
		for name, x := range backends() {
			r, got := solve(t, x, g)
			assert.True(t, sameCost(want, got), "seed %d %s: got %v want %v", seed, name, got, want)
			assert.Equal(t, extract.Complete, r.Outcome(), "seed %d %s", seed, name)
		}
	}
}

func TestSharedReuse_AtEveryScale(t *testing.T) {
	for _, f := range []float64{1e-12, 1e-8, 1e-7, 1e-3, 1e6} {
		g := egtest.SharedScaled(t, f)
		want := cost.MustNew(7 * f)
		for name, x := range backends() {
			r, got := solve(t, x, g)
			n, ok := r.ChoiceByID(g, "root")
			require.True(t, ok)
			assert.Equal(t, "twice", n.Op, "scale %g %s", f, name)
			assert.True(t, sameCost(want, got), "scale %g %s: got %v want %v", f, name, got, want)
			assert.Equal(t, extract.Complete, r.Outcome(), "scale %g %s", f, name)
		}
	}
}

func TestPseudoBoolean_InexactWeightsAreUnproven(t *testing.T) {
	// Costs 1 and 1e-17 admit no integer scale within the weight cap.
	g := egtest.Absorbed(t)
	r, dag := solve(t, ilp.New(ilp.WithBackend(ilp.PseudoBoolean)), g)
	assert.Equal(t, cost.MustNew(1), dag)
	assert.Equal(t, extract.Unproven, r.Outcome())

	r, _ = solve(t, ilp.New(), g)
	assert.Equal(t, extract.Complete, r.Outcome(), "branch-and-bound compares costs directly")
}

func TestNeverWorseThanHeuristics(t *testing.T) {
	opts := egtest.DefaultRandomOptions()
	opts.Classes = 14
	opts.MaxKids = 2
	for seed := int64(1); seed <= 25; seed++ {
		g := egtest.MustRandom(t, seed, opts)
		_, tree := solve(t, bottomup.New(), g)
		_, heur := solve(t, greedy.New(), g)
		var dags []cost.Cost
		for name, x := range backends() {
			_, dag := solve(t, x, g)
			assert.False(t, tree.Less(dag), "seed %d %s: ilp %v > tree-optimal dag %v", seed, name, dag, tree)
			assert.False(t, heur.Less(dag), "seed %d %s: ilp %v > greedy %v", seed, name, dag, heur)
			dags = append(dags, dag)
		}
		assert.True(t, cost.ApproxEqual(dags[0], dags[1]), "seed %d: backends disagree %v", seed, dags)
	}
}

func TestTimeout_ReturnsValidIncumbent(t *testing.T) {
	opts := egtest.DefaultRandomOptions()
	opts.Classes = 40
	g := egtest.MustRandom(t, 9, opts)
	for _, b := range []ilp.Backend{ilp.BranchAndBound, ilp.PseudoBoolean} {
		x := ilp.New(ilp.WithBackend(b), ilp.WithTimeout(time.Nanosecond))
		r, err := x.Extract(context.Background(), g, g.Roots())
		require.NoError(t, err, b.String())
		require.NoError(t, r.Check(g), b.String())
		assert.Equal(t, extract.Unproven, r.Outcome(), b.String())
	}
}

func TestTimeout_CoversFormulation(t *testing.T) {
	opts := egtest.DefaultRandomOptions()
	opts.Classes = 20000
	opts.MaxNodes = 2
	g := egtest.MustRandom(t, 3, opts)
	_, err := ilp.New(ilp.WithTimeout(time.Nanosecond)).Extract(context.Background(), g, g.Roots())
	require.ErrorIs(t, err, extract.ErrSolverFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCancelledContext_ReturnsIncumbent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := egtest.Shared(t)
	r, err := ilp.New().Extract(ctx, g, g.Roots())
	require.NoError(t, err)
	require.NoError(t, r.Check(g))
	assert.Equal(t, extract.Unproven, r.Outcome())
}

func TestDeterministic(t *testing.T) {
	g := egtest.MustRandom(t, 5, egtest.DefaultRandomOptions())
	for name, x := range backends() {
		first, _ := solve(t, x, g)
		again, _ := solve(t, x, g)
		assert.Equal(t, first.Selection(g), again.Selection(g), name)
	}
}

func TestOptionsAndLabels(t *testing.T) {
	x := ilp.New(ilp.WithTimeout(-time.Second), ilp.WithSeedRounds(-3))
	assert.Zero(t, x.Options().Timeout)
	assert.Zero(t, x.Options().SeedRounds)
	assert.Equal(t, extract.DAGOptimal, x.Optimality())

	b, err := ilp.ParseBackend("pb")
	require.NoError(t, err)
	assert.Equal(t, ilp.PseudoBoolean, b)
	_, err = ilp.ParseBackend("simplex")
	require.ErrorIs(t, err, ilp.ErrUnknownBackend)
}
