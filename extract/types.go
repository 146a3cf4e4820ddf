package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/egraphx/egraph"
)

// Sentinel errors.
var (
	// ErrUnresolvedClass indicates a reachable class without a chosen node.
	ErrUnresolvedClass = errors.New("extract: unresolved reachable class")

	// ErrDanglingChild indicates a chosen node whose child class has no choice.
	ErrDanglingChild = errors.New("extract: dangling child")

	// ErrCycle indicates that following chosen nodes returns to a class already on the path.
	ErrCycle = errors.New("extract: cycle in selection")

	// ErrInfeasible indicates that a root class has no finite extraction.
	// It describes the e-graph, not a defect of the strategy.
	ErrInfeasible = errors.New("extract: no finite extraction exists")

	// ErrSolverFailed indicates an exact solver that produced no feasible selection.
	ErrSolverFailed = errors.New("extract: solver failed")

	// ErrNilGraph indicates a nil e-graph.
	ErrNilGraph = errors.New("extract: graph is nil")

	// ErrGraphMismatch indicates a Result evaluated against a graph of a different shape.
	ErrGraphMismatch = errors.New("extract: result does not belong to graph")
)

// Optimality is the static guarantee a strategy advertises.
type Optimality int

const (
	// TreeOptimal strategies minimise TreeCost.
	TreeOptimal Optimality = iota
	// DAGOptimal strategies minimise DagCost (when they complete).
	DAGOptimal
	// Neither marks heuristics without a quality bound.
	Neither
)

// String returns the label used by reports and listings.
func (o Optimality) String() string {
	switch o {
	case TreeOptimal:
		return "tree"
	case DAGOptimal:
		return "dag"
	case Neither:
		return "neither"
	default:
		return fmt.Sprintf("Optimality(%d)", int(o))
	}
}

// Outcome records whether a strategy ran to completion.
type Outcome int

const (
	// Complete: the strategy finished and its Optimality label holds for this result.
	Complete Outcome = iota
	// Unproven: an anytime strategy stopped early (timeout or cancellation);
	// the selection is valid but its optimality is unverified.
	Unproven
)

// String returns "complete" or "unproven".
func (o Outcome) String() string {
	if o == Unproven {
		return "unproven"
	}

	return "complete"
}

// Extractor is implemented by every extraction strategy.
//
// Extract must choose exactly one node for every class reachable from roots
// through chosen children, and the returned Result must pass Check.
// Implementations are stateless: concurrent calls on one value are safe and
// never share mutable state.
type Extractor interface {
	Extract(ctx context.Context, g *egraph.EGraph, roots []egraph.ClassID) (*Result, error)
}

// CheckError describes a validation defect found by Check.
type CheckError struct {
	Kind  error          // ErrUnresolvedClass, ErrDanglingChild or ErrCycle
	Class egraph.ClassID // the class missing a choice, or where the cycle closes
	Node  egraph.NodeID  // the chosen node referencing Class, if any
	Path  []egraph.ClassID
}

// Error implements error.
func (e *CheckError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	sb.WriteString(": class ")
	sb.WriteString(string(e.Class))
	if e.Node != "" {
		sb.WriteString(" (via node ")
		sb.WriteString(string(e.Node))
		sb.WriteByte(')')
	}
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, c := range e.Path {
			parts[i] = string(c)
		}
		sb.WriteString(" path ")
		sb.WriteString(strings.Join(parts, " -> "))
	}

	return sb.String()
}

// Unwrap exposes the defect kind to errors.Is.
func (e *CheckError) Unwrap() error { return e.Kind }

// InfeasibleRoot wraps ErrInfeasible with the offending root id.
func InfeasibleRoot(id egraph.ClassID) error {
	return fmt.Errorf("%w: root %q", ErrInfeasible, id)
}
