package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/pkg/log"
	"github.com/YuminosukeSato/sfasweep/sfa"
)

// app carries the configuration shared by all subcommands. Each invocation
// gets its own viper instance so flags of one subcommand never shadow those
// of another.
type app struct {
	v         *viper.Viper
	newSolver func() sfa.Solver
}

func newApp(newSolver func() sfa.Solver) *app {
	v := viper.New()
	v.SetEnvPrefix("SFA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("verbosity", "info")
	return &app{v: v, newSolver: newSolver}
}

func (a *app) root() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "sfa",
		Short: "Sparse factor analysis hyperparameter sweep",
		Long: `sfa fits a sparse factor analysis model for every combination of a
hyperparameter grid over a gene expression view and an imaging view, scores
each fit by BIC and copies the best converged model to its own file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				a.v.SetConfigFile(configPath)
				a.v.SetConfigType("yaml")
				if err := a.v.ReadInConfig(); err != nil {
					return errors.Wrapf(err, "read config %s", configPath)
				}
			}
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return log.SetupLogger(a.v.GetString("verbosity"))
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file with flag defaults")
	cmd.PersistentFlags().String("verbosity", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		a.stackCmd(),
		a.sweepCmd(),
		a.scoreCmd(),
		a.selectCmd(),
		a.plotCmd(),
		a.inspectCmd(),
	)
	return cmd
}
