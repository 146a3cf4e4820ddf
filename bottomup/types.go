package bottomup

import (
	"runtime"

	"github.com/katalvlaran/egraphx/cost"
	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
)

// Options configures the sweep extractor.
type Options struct {
	// Workers is the number of goroutines evaluating one sweep.
	// 1 (default) evaluates sequentially; values < 1 mean runtime.GOMAXPROCS(0).
	Workers int

	// MinChunk is the smallest number of classes handed to one worker.
	MinChunk int
}

// Option represents a functional option for the sweep extractor.
type Option func(*Options)

// WithWorkers sets the number of goroutines per sweep.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		o.Workers = n
	}
}

// WithMinChunk sets the smallest per-worker chunk; values < 1 are ignored.
func WithMinChunk(n int) Option {
	return func(o *Options) {
		if n >= 1 {
			o.MinChunk = n
		}
	}
}

// DefaultOptions returns sequential sweeps with 256-class chunks when parallel.
func DefaultOptions() Options {
	return Options{Workers: 1, MinChunk: 256}
}

// Table is the fixpoint state: per class index, the best cost and the chosen
// node index (-1 while Best is +Inf).
type Table struct {
	Best   []cost.Cost
	Choice []int
}

func newTable(n int) *Table {
	t := &Table{Best: make([]cost.Cost, n), Choice: make([]int, n)}
	for i := range t.Best {
		t.Best[i] = cost.Infinity
		t.Choice[i] = -1
	}

	return t
}

// candidate evaluates node n against best; +Inf if any child is +Inf.
func candidate(n *egraph.Node, best []cost.Cost) cost.Cost {
	sum := n.Cost
	for _, kid := range n.ChildIndices() {
		b := best[kid]
		if b.IsInf() {
			return cost.Infinity
		}
		sum += b
	}

	return sum
}

// Result converts the table into an extraction: every class with a finite
// best cost keeps its choice. A root still at +Inf is infeasible.
func (t *Table) Result(g *egraph.EGraph, roots []int) (*extract.Result, error) {
	for _, r := range roots {
		if t.Best[r].IsInf() {
			return nil, extract.InfeasibleRoot(g.Class(r).ID)
		}
	}
	res := extract.NewResult(g)
	for c, n := range t.Choice {
		if n >= 0 {
			res.Choose(c, n)
		}
	}

	return res, nil
}
