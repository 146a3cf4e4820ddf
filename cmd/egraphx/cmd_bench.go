package main

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/egraphx/egraph"
	"github.com/katalvlaran/egraphx/extractors"
	"github.com/katalvlaran/egraphx/internal/report"
)

type benchFlags struct {
	parallel   int
	extractors []string
}

// benchJob is one (file, strategy) pair. Exactly one of rep and err is set
// after the run.
type benchJob struct {
	file  string
	g     *egraph.EGraph
	entry extractors.Entry
	rep   report.Report
	err   error
}

func newBenchCmd(a *app) *cobra.Command {
	var flags benchFlags
	cmd := &cobra.Command{
		Use:   "bench FILE...",
		Short: "Run every benchmark strategy on every file",
		Long: "bench runs each strategy on each e-graph concurrently and prints one\n" +
			"JSON report per run, in file then strategy order. Failed runs are\n" +
			"logged and reported together after the others finish.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBench(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&flags.parallel, "parallel", "p", runtime.NumCPU(), "maximum concurrent runs")
	f.StringSliceVar(&flags.extractors, "extractor", nil, "restrict to these strategies (default: every benchmark strategy)")

	return cmd
}

func (a *app) benchEntries(names []string) ([]extractors.Entry, error) {
	if len(names) == 0 {
		return a.registry.Entries(true), nil
	}
	out := make([]extractors.Entry, 0, len(names))
	for _, name := range names {
		d, err := a.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, extractors.Entry{Name: name, Detail: d})
	}

	return out, nil
}

func (a *app) runBench(cmd *cobra.Command, files []string, flags benchFlags) error {
	entries, err := a.benchEntries(flags.extractors)
	if err != nil {
		return err
	}
	if flags.parallel < 1 {
		flags.parallel = 1
	}

	// 1) Load every file first; a bad input aborts before any run starts.
	graphs := make([]*egraph.EGraph, len(files))
	var load errgroup.Group
	load.SetLimit(flags.parallel)
	for i, path := range files {
		load.Go(func() error {
			g, err := egraph.LoadFile(path)
			if err != nil {
				return err
			}
			graphs[i] = g
			return nil
		})
	}
	if err := load.Wait(); err != nil {
		return err
	}

	// 2) Fan out (file, strategy) runs.
	jobs := make([]*benchJob, 0, len(files)*len(entries))
	for i, path := range files {
		for _, e := range entries {
			jobs = append(jobs, &benchJob{file: path, g: graphs[i], entry: e})
		}
	}
	ctx := cmd.Context()
	var run errgroup.Group
	run.SetLimit(flags.parallel)
	for _, job := range jobs {
		run.Go(func() error {
			job.run(ctx)
			return nil
		})
	}
	_ = run.Wait()

	// 3) Report in job order.
	var errs error
	out := cmd.OutOrStdout()
	for _, job := range jobs {
		if job.err != nil {
			a.log.Error("bench run failed",
				zap.String("file", job.file),
				zap.String("extractor", job.entry.Name),
				zap.Error(job.err))
			errs = multierr.Append(errs, job.err)
			continue
		}
		a.log.Debug("bench run", job.rep.Fields()...)
		if err := report.Write(out, job.rep); err != nil {
			return err
		}
	}
	if errs != nil {
		return fmt.Errorf("%d of %d runs failed: %w", len(multierr.Errors(errs)), len(jobs), errs)
	}

	return nil
}

func (j *benchJob) run(ctx context.Context) {
	roots := j.g.Roots()
	start := time.Now()
	r, err := j.entry.Extractor.Extract(ctx, j.g, roots)
	elapsed := time.Since(start)
	if err != nil {
		j.err = fmt.Errorf("%s on %s: %w", j.entry.Name, j.file, err)
		return
	}
	j.rep, j.err = report.New(filepath.Base(j.file), j.entry.Name, j.g, roots, r, elapsed)
}
