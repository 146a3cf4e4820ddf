package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List strategy names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, e := range a.registry.Entries(!all) {
				fmt.Fprintf(out, "%-18s %s\n", e.Name, e.Optimal)
			}

			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include strategies excluded from benchmarks")

	return cmd
}
