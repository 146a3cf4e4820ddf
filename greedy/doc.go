// Package greedy implements a DAG-cost heuristic: start from a valid
// tree-optimal selection, then swap class choices while the exact DAG cost
// strictly drops.
//
// What:
//
//  1. Baseline. BaselineTree (default) takes the canonical tree-optimal
//     selection of bottomup.Worklist. BaselineCostSet propagates, per class, the
//     set of classes its current choice requires together with their costs;
//     a node is priced as the union of its children's sets plus itself, and is
//     rejected when that union already contains its own class. A cost-set
//     baseline that fails validation falls back to BaselineTree.
//  2. Rounds. Every reachable class is visited in DFS pre-order and every other
//     node of the class is priced by a marginal estimate: its own cost plus the
//     tree cost of children not yet reachable, minus the old node's cost and the
//     tree cost of children only the old node referenced. A negative estimate is
//     re-checked exactly (CheckRoots + DagCost); the first swap that keeps the
//     selection valid and strictly lowers DAG cost ends the round.
//  3. Stop when a round finds nothing, or after MaxRounds rounds (0 = no limit).
//
// Why:
//
//   - Tree-optimal selections do not reward reuse; shared subterms are paid
//     once under DAG cost, so swapping towards already-selected classes pays off.
//   - Every accepted swap strictly lowers the exact DAG cost, so the unbounded
//     mode terminates and DagCost(result) ≤ DagCost(baseline).
//
// Optimality: extract.Neither. No bound is claimed.
//
// Complexity: a round costs O(R·(C + E)) in the worst case, R being the
// number of re-checked candidates.
//
// Errors:
//
//   - extract.ErrInfeasible  a root class has no finite derivation
//   - extract.ErrNilGraph    nil graph
//   - ctx.Err()              the context was cancelled between rounds/candidates
package greedy
