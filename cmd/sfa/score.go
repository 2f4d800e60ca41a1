package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/scoring"
	"github.com/YuminosukeSato/sfasweep/store"
)

func (a *app) scoreCmd() *cobra.Command {
	def := scoring.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "score <sweep> <data> <out>",
		Short: "Compute BIC and diagnostics for every model of a sweep",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScore(cmd, args[0], args[1], args[2])
		},
	}
	cmd.Flags().Int("threads", def.Threads, "number of models scored concurrently")
	cmd.Flags().Float64("eps", def.Eps, "coefficients at or below this magnitude count as zero")
	cmd.Flags().Float64("l2-eps", def.L2Eps, "ridge the sweep added to every L2 penalty")
	return cmd
}

func (a *app) runScore(cmd *cobra.Command, sweepPath, dataPath, out string) error {
	ctx := cmd.Context()
	data, err := datamatrix.Load(ctx, dataPath)
	if err != nil {
		return err
	}
	r, err := store.Open(ctx, sweepPath)
	if err != nil {
		return err
	}
	defer r.Close()

	scorer := scoring.NewScorer(scoring.Config{
		Eps:     a.v.GetFloat64("eps"),
		L2Eps:   a.v.GetFloat64("l2-eps"),
		Threads: a.v.GetInt("threads"),
	})
	table, err := scorer.Score(ctx, r, data)
	if err != nil {
		return err
	}
	if err := table.Write(ctx, out); err != nil {
		return err
	}
	scored := 0
	for _, row := range table.Rows {
		if row.Scored() {
			scored++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d models scored, written to %s\n", scored, len(table.Rows), out)
	return nil
}
