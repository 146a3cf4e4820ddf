package ilp

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors.
var (
	// ErrViolated indicates an assignment that breaks a row or a variable bound.
	ErrViolated = errors.New("ilp: assignment violates program")

	// ErrUnknownBackend indicates a backend name that ParseBackend does not know.
	ErrUnknownBackend = errors.New("ilp: unknown backend")
)

// Backend selects the solver behind the extractor.
type Backend int

const (
	// BranchAndBound is the native depth-first branch-and-bound search.
	BranchAndBound Backend = iota
	// PseudoBoolean hands the 0/1 rows to gophersat with lazy cycle cuts.
	PseudoBoolean
)

// String returns "bnb" or "pb".
func (b Backend) String() string {
	switch b {
	case BranchAndBound:
		return "bnb"
	case PseudoBoolean:
		return "pb"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend maps "bnb" / "pb" to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "bnb", "branch-and-bound", "":
		return BranchAndBound, nil
	case "pb", "pseudo-boolean":
		return PseudoBoolean, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Options configures the integer-program extractor.
type Options struct {
	// Timeout bounds the solve; 0 disables the bound.
	Timeout time.Duration

	// Backend picks the solver.
	Backend Backend

	// SeedRounds bounds the greedy rounds used to seed the incumbent;
	// 0 runs the greedy search to convergence.
	SeedRounds int
}

// Option represents a functional option for the extractor.
type Option func(*Options)

// WithTimeout sets the wall-clock budget; d <= 0 disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d < 0 {
			d = 0
		}
		o.Timeout = d
	}
}

// WithBackend selects the solver.
func WithBackend(b Backend) Option {
	return func(o *Options) { o.Backend = b }
}

// WithSeedRounds bounds the greedy seeding.
func WithSeedRounds(n int) Option {
	return func(o *Options) {
		if n < 0 {
			n = 0
		}
		o.SeedRounds = n
	}
}

// DefaultOptions returns branch-and-bound without a timeout.
func DefaultOptions() Options {
	return Options{Backend: BranchAndBound}
}
