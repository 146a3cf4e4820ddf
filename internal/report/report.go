// Package report builds the per-run record the command line prints and writes.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extract"
)

// Report is one extraction run.
type Report struct {
	Name      string  `json:"name"`
	Extractor string  `json:"extractor"`
	Tree      float64 `json:"tree"`
	Dag       float64 `json:"dag"`
	Micros    int64   `json:"micros"`
	Outcome   string  `json:"outcome"`
}

// New checks r against g and roots and measures both costs.
// A result failing Check is returned as an error, never reported.
func New(name, extractor string, g *egraph.EGraph, roots []egraph.ClassID, r *extract.Result, elapsed time.Duration) (Report, error) {
	if err := r.CheckRoots(g, roots); err != nil {
		return Report{}, fmt.Errorf("%s on %s: %w", extractor, name, err)
	}
	tree, err := r.TreeCost(g, roots)
	if err != nil {
		return Report{}, fmt.Errorf("%s on %s: tree cost: %w", extractor, name, err)
	}
	dag, err := r.DagCost(g, roots)
	if err != nil {
		return Report{}, fmt.Errorf("%s on %s: dag cost: %w", extractor, name, err)
	}

	return Report{
		Name:      name,
		Extractor: extractor,
		Tree:      tree.Float64(),
		Dag:       dag.Float64(),
		Micros:    elapsed.Microseconds(),
		Outcome:   r.Outcome().String(),
	}, nil
}

// Fields returns the report as structured log fields.
func (r Report) Fields() []zap.Field {
	return []zap.Field{
		zap.String("name", r.Name),
		zap.String("extractor", r.Extractor),
		zap.Float64("tree", r.Tree),
		zap.Float64("dag", r.Dag),
		zap.Int64("micros", r.Micros),
		zap.String("outcome", r.Outcome),
	}
}

// Write encodes r as one JSON line.
func Write(w io.Writer, r Report) error {
	return json.NewEncoder(w).Encode(r)
}

// WriteFile writes r to path, replacing any existing file.
func WriteFile(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := Write(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}

	return f.Close()
}
