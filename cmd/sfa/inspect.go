package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/sfasweep/container"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

func (a *app) inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the group tree of a data, sweep or score file as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := container.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			node, err := container.Describe(ctx, f.Root(), a.v.GetInt("depth"))
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(node); err != nil {
				return errors.Wrap(err, "encode yaml")
			}
			return enc.Close()
		},
	}
	cmd.Flags().Int("depth", -1, "levels of groups to descend, negative for all")
	return cmd
}
