// Package egraphx extracts terms from e-graphs: for every e-class reachable
// from the roots it picks one e-node, so that the selected term is finite,
// acyclic and cheap.
//
// 🚀 What is in egraphx?
//
//	• Cost model: non-negative, NaN-free costs with an Infinity for "unreachable"
//	• Input model: an immutable, index-addressed e-graph + egraph-serialize JSON
//	• Results: the selection map, its validator (Check), tree and DAG cost
//	• Strategies:
//	    bottomup   fixpoint sweep and worklist (tree-optimal)
//	    greedy     local search on a tree-optimal baseline (heuristic DAG)
//	    ilp        exact DAG cost via branch-and-bound or pseudo-boolean SAT
//	• Registry + CLI: named strategies, `egraphx extract | list | bench`
//
// ✨ Tree cost vs DAG cost
//
//	    root = f(S, S)          tree cost counts S twice,
//	           │                DAG cost counts it once.
//	           S
//
// Tree-optimal strategies are fast and minimise the former; the integer
// program minimises the latter and may stop early under a time budget, in
// which case the result is valid but marked Unproven.
//
// Layout:
//
//	cost/          the Cost type
//	egraph/        Builder, EGraph, JSON loading and writing
//	extract/       Result, Check, Prune, the Extractor contract
//	bottomup/      Sweep / Worklist fixpoints
//	greedy/        greedy DAG extractor
//	ilp/           Program formulation and its two backends
//	extractors/    the named strategy table
//	cmd/egraphx/   command line
//
// Quick start:
//
//	g, _ := egraph.LoadFile("expr.json")
//	r, _ := ilp.New(ilp.WithTimeout(5*time.Second)).Extract(ctx, g, g.Roots())
//	dag, _ := r.DagCost(g, g.Roots())
package egraphx
