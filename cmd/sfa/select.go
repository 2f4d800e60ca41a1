package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sfasweep/selection"
)

func (a *app) selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <sweep> <scores> <out>",
		Short: "Copy the converged model with the lowest BIC to its own file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := selection.Run(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s bic=%g n_iter=%d\n", row.Model, row.BIC, row.NIter)
			return nil
		},
	}
}
