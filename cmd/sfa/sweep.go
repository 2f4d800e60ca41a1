package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/grid"
	"github.com/YuminosukeSato/sfasweep/pkg/log"
	"github.com/YuminosukeSato/sfasweep/store"
	"github.com/YuminosukeSato/sfasweep/sweep"
)

func (a *app) sweepCmd() *cobra.Command {
	def := grid.DefaultSpec()
	cfg := sweep.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "sweep <data> <out>",
		Short: "Fit one model per hyperparameter combination",
		Long: `sweep fits a sparse factor analysis model for every point of the grid
and writes each fit as a group of <out>. Ranges are "v", "start:stop" or
"start:stop:step"; penalties are given as log2 exponents, so "0:2" sweeps
l = 0, 1, 2 and 4.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSweep(cmd, args[0], args[1])
		},
	}
	f := cmd.Flags()
	f.String("k", def.K, "factor counts")
	f.String("alpha", def.Alpha, "L1 share of the elastic net penalty, in [0, 1]")
	f.String("l-gexp", def.LGexp, "log2 penalty strengths for the gexp view")
	f.String("l-mri", def.LMri, "log2 penalty strengths for the mri view")
	f.Int("max-iter", cfg.MaxIter, "iteration cap of the solver")
	f.Float64("eps", cfg.Eps, "convergence tolerance of the solver")
	f.Float64("l2-eps", cfg.L2Eps, "ridge added to every view's L2 penalty")
	f.Int("threads", 1, "number of models fitted concurrently")
	return cmd
}

func (a *app) runSweep(cmd *cobra.Command, dataPath, out string) error {
	ctx := cmd.Context()
	logger := log.GetLoggerWithName("cmd.sweep").With(log.PhaseKey, log.PhaseSweep)

	spec := grid.Spec{
		K:     a.v.GetString("k"),
		Alpha: a.v.GetString("alpha"),
		LGexp: a.v.GetString("l-gexp"),
		LMri:  a.v.GetString("l-mri"),
	}
	axes, err := spec.Parse()
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Sweeping k: %v", axes.K))
	logger.Info(fmt.Sprintf("Sweeping alpha: %v", axes.Alpha))
	logger.Info(fmt.Sprintf("Sweeping l_gexp: %v", axes.LGexp))
	logger.Info(fmt.Sprintf("Sweeping l_mri: %v", axes.LMri))

	cfg := sweep.Config{
		MaxIter: a.v.GetInt("max-iter"),
		Eps:     a.v.GetFloat64("eps"),
		L2Eps:   a.v.GetFloat64("l2-eps"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := datamatrix.Load(ctx, dataPath)
	if err != nil {
		return err
	}
	w, err := sweep.NewWorker(data, a.newSolver(), cfg)
	if err != nil {
		return err
	}
	sink, err := store.Create(ctx, out, data)
	if err != nil {
		return err
	}

	threads := a.v.GetInt("threads")
	logger.Info("Starting sweep", log.TotalKey, axes.Size(), log.ThreadsKey, threads)
	summary, err := sweep.NewSweeper(w, threads).Run(ctx, axes.Product(), sink)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d models fitted, %d failed, written to %s\n",
		summary.Succeeded, summary.Failed, out)
	return nil
}
