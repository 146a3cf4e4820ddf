package bottomup

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
)

// Extractor is the baseline sweep-to-fixpoint strategy (tree-optimal).
type Extractor struct {
	opts Options
}

// Ensure interface compliance at compile time.
var _ extract.Extractor = (*Extractor)(nil)

// New returns a sweep extractor configured by opts.
func New(opts ...Option) *Extractor {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MinChunk < 1 {
		cfg.MinChunk = 1
	}

	return &Extractor{opts: cfg}
}

// Optimality reports extract.TreeOptimal.
func (e *Extractor) Optimality() extract.Optimality { return extract.TreeOptimal }

// Extract runs Sweep and converts the canonical table into a Result.
func (e *Extractor) Extract(ctx context.Context, g *egraph.EGraph, roots []egraph.ClassID) (*extract.Result, error) {
	if g == nil {
		return nil, extract.ErrNilGraph
	}
	ri, err := g.ResolveRoots(roots)
	if err != nil {
		return nil, err
	}
	t, err := e.Sweep(ctx, g)
	if err != nil {
		return nil, err
	}

	return t.Result(g, ri)
}

// Sweep computes the canonical tree-cost fixpoint by repeated full sweeps.
//
// Each sweep reads only prev and writes only next, so the per-class work of a
// sweep is order independent; with Workers > 1 classes are split into
// contiguous chunks evaluated concurrently. Identical output for any Workers.
func (e *Extractor) Sweep(ctx context.Context, g *egraph.EGraph) (*Table, error) {
	var (
		n       = g.NumClasses()
		prev    = newTable(n)
		next    = newTable(n)
		chunks  = e.chunks(n)
		changed = make([]bool, len(chunks))
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 1) Evaluate every class from prev into next.
		if len(chunks) == 1 {
			changed[0] = sweepRange(g, prev, next, 0, n)
		} else {
			var eg errgroup.Group
			eg.SetLimit(e.opts.Workers)
			for i, ch := range chunks {
				i, ch := i, ch
				eg.Go(func() error {
					changed[i] = sweepRange(g, prev, next, ch[0], ch[1])
					return nil
				})
			}
			_ = eg.Wait()
		}

		// 2) Sweep boundary: next becomes prev.
		prev, next = next, prev
		improved := false
		for _, c := range changed {
			improved = improved || c
		}
		if !improved {
			break
		}
	}

	canonicalize(g, prev)

	return prev, nil
}

// sweepRange evaluates classes [lo, hi) reading prev and writing next.
// It reports whether any class improved.
func sweepRange(g *egraph.EGraph, prev, next *Table, lo, hi int) bool {
	improved := false
	for c := lo; c < hi; c++ {
		best, choice := prev.Best[c], prev.Choice[c]
		nodes := g.Class(c).Nodes
		for i := range nodes {
			if cand := candidate(&nodes[i], prev.Best); cand < best {
				best, choice = cand, i
			}
		}
		if best < prev.Best[c] {
			improved = true
		}
		next.Best[c], next.Choice[c] = best, choice
	}

	return improved
}

// chunks splits [0, n) into at most Workers contiguous ranges of at least MinChunk.
func (e *Extractor) chunks(n int) [][2]int {
	w := e.opts.Workers
	if w <= 1 || n <= e.opts.MinChunk {
		return [][2]int{{0, n}}
	}
	size := (n + w - 1) / w
	if size < e.opts.MinChunk {
		size = e.opts.MinChunk
	}
	out := make([][2]int, 0, w)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		out = append(out, [2]int{lo, hi})
	}

	return out
}
