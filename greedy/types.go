package greedy

import "fmt"

// Baseline selects the starting selection of the local search.
type Baseline int

const (
	// BaselineTree starts from the canonical tree-optimal selection.
	BaselineTree Baseline = iota
	// BaselineCostSet starts from cost-set propagation.
	BaselineCostSet
)

// String returns "tree" or "costset".
func (b Baseline) String() string {
	switch b {
	case BaselineTree:
		return "tree"
	case BaselineCostSet:
		return "costset"
	default:
		return fmt.Sprintf("Baseline(%d)", int(b))
	}
}

// ParseBaseline maps "tree" / "costset" to a Baseline.
func ParseBaseline(s string) (Baseline, error) {
	switch s {
	case "tree", "":
		return BaselineTree, nil
	case "costset", "cost-set":
		return BaselineCostSet, nil
	default:
		return 0, fmt.Errorf("greedy: unknown baseline %q", s)
	}
}

// Options configures the greedy extractor.
type Options struct {
	// MaxRounds bounds the number of local-search rounds; 0 runs to convergence.
	MaxRounds int

	// Baseline picks the starting selection.
	Baseline Baseline
}

// Option represents a functional option for the greedy extractor.
type Option func(*Options)

// WithMaxRounds bounds the local search; n <= 0 means until convergence.
func WithMaxRounds(n int) Option {
	return func(o *Options) {
		if n < 0 {
			n = 0
		}
		o.MaxRounds = n
	}
}

// WithBaseline selects the starting selection.
func WithBaseline(b Baseline) Option {
	return func(o *Options) { o.Baseline = b }
}

// DefaultOptions returns a tree baseline searched to convergence.
func DefaultOptions() Options {
	return Options{MaxRounds: 0, Baseline: BaselineTree}
}
