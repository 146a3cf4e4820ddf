package ilp

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
	"github.com/katalvlaran/egraphx/greedy"
)

// Extractor is the exact DAG-cost strategy.
type Extractor struct {
	opts Options
}

// Ensure interface compliance at compile time.
var _ extract.Extractor = (*Extractor)(nil)

// New returns an integer-program extractor configured by opts.
func New(opts ...Option) *Extractor {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Extractor{opts: cfg}
}

// Optimality reports extract.DAGOptimal.
func (e *Extractor) Optimality() extract.Optimality { return extract.DAGOptimal }

// Options returns the effective configuration.
func (e *Extractor) Options() Options { return e.opts }

// Extract solves the program within the configured budget.
//
// Steps:
//  1. Start the budget, then formulate (fails with extract.ErrInfeasible for
//     an infeasible root, with extract.ErrSolverFailed when the budget runs
//     out before the program exists).
//  2. Seed an incumbent: the tree-optimal selection improved by greedy swaps
//     while time remains.
//  3. Run the backend. Stopping early keeps the incumbent and marks the
//     result extract.Unproven.
//  4. Certify the answer against every row of the program.
func (e *Extractor) Extract(ctx context.Context, g *egraph.EGraph, roots []egraph.ClassID) (*extract.Result, error) {
	// 1) Budget and formulation.
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	p, err := Formulate(ctx, g, roots)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: budget expired while formulating: %w", extract.ErrSolverFailed, err)
		}
		return nil, err
	}

	// 2) Incumbent.
	incumbent, err := p.tree.Result(g, p.roots)
	if err != nil {
		return nil, err
	}
	if incumbent.CheckRoots(g, p.rootIDs) != nil {
		incumbent = nil
	} else {
		// A stopped greedy pass leaves a valid selection behind.
		_, _ = greedy.Improve(ctx, g, incumbent, p.rootIDs, p.tree.Best, e.opts.SeedRounds)
	}

	// 3) Solve.
	var (
		res    *extract.Result
		proven bool
	)
	switch e.opts.Backend {
	case PseudoBoolean:
		res, proven, err = solvePB(ctx, p, incumbent)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", extract.ErrSolverFailed, err)
		}
	default:
		res, proven = solveBnB(ctx, p, incumbent)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: no feasible selection before the deadline", extract.ErrSolverFailed)
	}

	// 4) Certify.
	x, err := p.Assign(res)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrSolverFailed, err)
	}
	if err = p.Satisfied(x); err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrSolverFailed, err)
	}
	if !proven {
		res.SetOutcome(extract.Unproven)
	}

	return res, nil
}
