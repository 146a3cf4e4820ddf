// Package extract defines the extraction contract shared by every strategy and
// the result model strategies return.
//
// What:
//
//   - Extractor: the single capability, Extract(ctx, g, roots) → *Result.
//   - Optimality: the static label a strategy carries (TreeOptimal, DAGOptimal,
//     Neither). The contract guarantees validity only, never optimality.
//   - Result: a dense selection map class → chosen node, plus
//     Check (validity oracle), TreeCost and DagCost.
//   - Prune: rebuilds an e-graph holding only the selected nodes.
//
// Validity (what Check enforces for every class reachable from the roots by
// following chosen nodes' children):
//
//	(A) the class has exactly one chosen node;
//	(B) the induced class graph is acyclic;
//	(C) no chosen node references a child class without a choice.
//
// Check walks the selection with three-colour DFS (White / Gray / Black); a Gray
// class met again closes a cycle, and the Gray path is reported in the error.
//
// Errors:
//
//   - ErrUnresolvedClass  a root or reachable class has no choice      (A)
//   - ErrDanglingChild    a chosen node references an unselected class (C)
//   - ErrCycle            following choices returns to a class on the path (B)
//   - ErrInfeasible       a root has no finite derivation at all
//   - ErrSolverFailed     an exact solver failed to produce any selection
//   - ErrNilGraph         nil *egraph.EGraph
//   - ErrGraphMismatch    a Result is used with a different graph than it was built for
//
// Validation defects are returned as *CheckError, which unwraps to one of the
// first three sentinels and names the offending class.
//
// Complexity: Check, TreeCost and DagCost are O(C + E) over the reachable part.
package extract
