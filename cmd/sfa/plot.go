package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sfasweep/report"
	"github.com/YuminosukeSato/sfasweep/scoring"
)

func (a *app) plotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot <scores> <out>",
		Short: "Plot BIC against the gexp penalty",
		Long:  "plot draws one BIC curve per (k, alpha, l_mri). The image format follows the extension of <out>.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := scoring.ReadTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.PlotBIC(table, args[1])
		},
	}
}
