// egraphx extracts terms from serialized e-graphs.
//
// Usage:
//
//	egraphx extract FILE [--extractor NAME] [--out REPORT] [--pruned FILE]
//	egraphx list [--all]
//	egraphx bench FILE... [--parallel N] [--extractor NAME]...
//
// Settings come from built-in defaults, the --config YAML file and EGRAPHX_*
// environment variables, in that order.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
