// Package bottomup implements the two tree-cost-optimal extraction strategies:
// a least-fixpoint relaxation computed either by full sweeps (Extractor) or by
// an incremental worklist (Faster).
//
// What:
//
//   - Every class keeps a best cost (initially +Inf) and a chosen node.
//   - A node's candidate cost is its own cost plus the best costs of its
//     children (+Inf if any child is still +Inf).
//   - A class adopts a candidate only when it is strictly smaller.
//
// Sweep (Extractor):
//
//	Each sweep evaluates every class from the previous sweep's values only, so
//	classes within one sweep are independent; WithWorkers(n) evaluates them in
//	parallel chunks and joins before the next sweep. Sweeps repeat until no
//	class improves. Time O(S·N) for S sweeps over N nodes; S grows with the
//	depth of the graph.
//
// Worklist (Faster):
//
//	Seeds a FIFO set with every childless node. Popping a node re-evaluates it;
//	an improvement of its class enqueues every parent node of that class.
//	Near-linear for typical inputs.
//
// Tie-break:
//
//	Both strategies reach the same best costs; their selections are then
//	canonicalised identically: each class takes the lowest-index node whose
//	candidate equals the class's best cost and that is eligible (positive cost,
//	or every child strictly cheaper than the class). When no node is eligible
//	the fixpoint's own choice stays. Canonical edges strictly decrease best
//	cost and kept edges come from the acyclic fixpoint selection, so the result
//	remains acyclic; with positive integral costs both strategies agree node for
//	node.
//
// Errors:
//
//   - extract.ErrInfeasible  a root class has no finite derivation
//   - extract.ErrNilGraph    nil graph
//   - ctx.Err()              the context was cancelled between sweeps/pops
package bottomup
