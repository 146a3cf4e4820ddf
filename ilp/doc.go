// Package ilp implements exact DAG-cost extraction as a 0/1 integer program
// solved under a wall-clock budget.
//
// What:
//
//	Program (Formulate) over the classes reachable from the roots through
//	usable nodes:
//	  sel[c,n] ∈ {0,1}   node n chosen for class c
//	  act[c]   ∈ {0,1}   class c is part of the extraction
//	  ord[c]   ∈ [0, M)  order index, M = number of included classes
//	  (a) Σ_n sel[c,n] = act[c]
//	  (b) act[r] = 1 for roots;  sel[p,n] ≤ act[k] for every child k of n
//	  (c) ord[p] − ord[k] ≥ 1 − M·(1 − sel[p,n])
//	  min Σ cost(n)·sel[c,n]        (= DAG cost)
//	Nodes with a child that has no finite derivation, or listing their own
//	class, are fixed to 0. Program.Satisfied certifies any answer; Assign maps
//	a selection onto the variables with a topological numbering for ord.
//
// Backends:
//
//   - BranchAndBound (default): depth-first search over sel. Pending classes
//     are branched fail-first (fewest candidates, index tiebreak); candidates
//     are tried by ascending cost + tree estimate of their children; a fixed
//     edge is rejected when a child already reaches the class; a branch is
//     pruned unless costSoFar + Σ cheapest node of every pending class improves
//     on UB by more than cost.RelTol.
//   - PseudoBoolean: the 0/1 rows (a)–(b) go to gophersat as pseudo-boolean
//     constraints with integer-scaled costs (the scale follows the smallest
//     nonzero cost; when no exact scale exists the answer is Unproven).
//     Instead of (c), every cyclic model adds a clause forbidding that cycle,
//     and every acyclic model tightens "objective < incumbent" until the
//     solver reports Unsat.
//
// Anytime behaviour:
//
//	The incumbent is seeded from the tree-optimal selection improved by the
//	greedy local search. When the budget (WithTimeout) or the context runs out,
//	Extract returns the incumbent with Outcome extract.Unproven. The budget
//	also covers the formulation. The branch-and-bound backend checks it every
//	1 to 4096 search nodes, fewer on larger programs; the pseudo-boolean
//	backend checks it between solver calls, and a single call cannot be
//	interrupted.
//
// Errors:
//
//   - extract.ErrInfeasible    a root has no finite derivation (before solving)
//   - extract.ErrSolverFailed  no feasible selection, or an answer failing Satisfied
//   - extract.ErrNilGraph      nil graph
//   - ErrUnknownBackend        ParseBackend got an unknown name
//   - ErrViolated              Satisfied / Assign found a broken row or bound
//
// Complexity: exponential in the worst case (DAG extraction is NP-hard);
// pruning and a good incumbent keep small and medium inputs fast.
package ilp
