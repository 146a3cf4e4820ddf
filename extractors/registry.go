// Package extractors is the named strategy table used by the command line
// and the benchmarks.
//
// Every entry pairs a name with its Extractor, the optimality label it
// advertises and whether it takes part in benchmark runs. Names are listed in
// registration order.
package extractors

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/katalvlaran/egraphx/bottomup"
	"github.com/katalvlaran/egraphx/extract"
	"github.com/katalvlaran/egraphx/greedy"
	"github.com/katalvlaran/egraphx/ilp"
)

// ErrUnknownExtractor indicates a name that is not registered.
var ErrUnknownExtractor = errors.New("extractors: unknown extractor")

// DefaultTimeout is the budget of the "-timeout" integer-program entries.
const DefaultTimeout = 10 * time.Second

// Detail describes one registered strategy.
type Detail struct {
	Extractor   extract.Extractor
	Optimal     extract.Optimality
	UseForBench bool
}

// Entry is a named Detail.
type Entry struct {
	Name string
	Detail
}

// Settings tunes the registered strategies.
type Settings struct {
	// ILPTimeout is the budget of the timeout-bounded ILP entries and of "ilp".
	ILPTimeout time.Duration
	// ILPBackend is the backend of the "ilp" entry.
	ILPBackend ilp.Backend
	// GreedyMaxRounds bounds the greedy local search (0 = until convergence).
	GreedyMaxRounds int
	// GreedyBaseline picks the greedy starting selection.
	GreedyBaseline greedy.Baseline
	// BottomUpWorkers parallelises the sweep strategy (<1 = GOMAXPROCS).
	BottomUpWorkers int
}

// DefaultSettings returns a 10s ILP budget, branch-and-bound, a converging
// greedy search and sequential sweeps.
func DefaultSettings() Settings {
	return Settings{
		ILPTimeout:      DefaultTimeout,
		ILPBackend:      ilp.BranchAndBound,
		BottomUpWorkers: 1,
	}
}

// Registry is an ordered name → Detail table. It is read-only after New.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// New builds the registry:
//
//	bottom-up         sweep fixpoint            tree     bench
//	faster-bottom-up  worklist fixpoint         tree     bench
//	greedy-dag        greedy DAG local search   neither  bench
//	ilp-bnb-timeout   branch-and-bound, budget  dag      bench
//	ilp-bnb           branch-and-bound          dag
//	ilp-pb-timeout    pseudo-boolean, budget    dag
//	ilp-pb            pseudo-boolean            dag
//	ilp               configured backend+budget dag
func New(s Settings) *Registry {
	r := &Registry{index: make(map[string]int)}

	sweep := bottomup.New(bottomup.WithWorkers(s.BottomUpWorkers))
	r.add("bottom-up", Detail{sweep, sweep.Optimality(), true})
	faster := bottomup.NewFaster()
	r.add("faster-bottom-up", Detail{faster, faster.Optimality(), true})
	g := greedy.New(greedy.WithMaxRounds(s.GreedyMaxRounds), greedy.WithBaseline(s.GreedyBaseline))
	r.add("greedy-dag", Detail{g, g.Optimality(), true})

	timeout := s.ILPTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	for _, b := range []ilp.Backend{ilp.BranchAndBound, ilp.PseudoBoolean} {
		bounded := ilp.New(ilp.WithBackend(b), ilp.WithTimeout(timeout))
		// A single gophersat call cannot be interrupted, so only the
		// branch-and-bound budget is tight enough for benchmark runs.
		r.add("ilp-"+b.String()+"-timeout", Detail{bounded, bounded.Optimality(), b == ilp.BranchAndBound})
		exact := ilp.New(ilp.WithBackend(b))
		r.add("ilp-"+b.String(), Detail{exact, exact.Optimality(), false})
	}
	configured := ilp.New(ilp.WithBackend(s.ILPBackend), ilp.WithTimeout(s.ILPTimeout))
	r.add("ilp", Detail{configured, configured.Optimality(), false})

	return r
}

// Default is New(DefaultSettings()).
func Default() *Registry { return New(DefaultSettings()) }

func (r *Registry) add(name string, d Detail) {
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, Entry{Name: name, Detail: d})
}

// Lookup returns the Detail registered under name.
func (r *Registry) Lookup(name string) (Detail, error) {
	i, ok := r.index[name]
	if !ok {
		return Detail{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownExtractor, name, strings.Join(r.Names(false), ", "))
	}

	return r.entries[i].Detail, nil
}

// Names lists registered names in order; benchOnly keeps UseForBench entries.
func (r *Registry) Names(benchOnly bool) []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		if !benchOnly || e.UseForBench {
			out = append(out, e.Name)
		}
	}

	return out
}

// Entries returns the registered entries in order; benchOnly keeps
// UseForBench entries.
func (r *Registry) Entries(benchOnly bool) []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if !benchOnly || e.UseForBench {
			out = append(out, e)
		}
	}

	return out
}
