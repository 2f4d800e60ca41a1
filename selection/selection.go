// Package selection picks the best converged model of a sweep and writes it
// to a standalone file.
package selection

import (
	"context"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/pkg/log"
	"github.com/YuminosukeSato/sfasweep/scoring"
	"github.com/YuminosukeSato/sfasweep/store"
)

// Best returns the index of the row with the lowest BIC among converged
// models. A model counts as not converged when its iteration count equals
// the largest iteration count in the table, which is taken to be the cap.
// Rows without a score never win. Ties go to the earlier row.
func Best(t *scoring.Table) (int, error) {
	if len(t.Rows) == 0 {
		return -1, errors.Wrap(errors.ErrEmptyData, "selection: empty score table")
	}

	maxIter := -1
	for _, r := range t.Rows {
		if r.NIter > maxIter {
			maxIter = r.NIter
		}
	}

	best := -1
	for i, r := range t.Rows {
		if r.NIter >= maxIter || !r.Scored() {
			continue
		}
		if best < 0 || r.BIC < t.Rows[best].BIC {
			best = i
		}
	}
	if best < 0 {
		return -1, errors.NewNoConvergedModelError(len(t.Rows), maxIter)
	}
	return best, nil
}

// Run selects the best model from the score table at scoresPath and copies
// its group from the sweep file at modelsPath to outPath.
func Run(ctx context.Context, modelsPath, scoresPath, outPath string) (scoring.Row, error) {
	logger := log.GetLoggerWithName("selection").With(log.PhaseKey, log.PhaseSelection, log.OperationKey, log.OperationSelect)

	table, err := scoring.ReadTable(ctx, scoresPath)
	if err != nil {
		return scoring.Row{}, err
	}
	i, err := Best(table)
	if err != nil {
		return scoring.Row{}, err
	}
	row := table.Rows[i]
	logger.Info("Selected model",
		log.ModelGroupKey, row.Model,
		log.BICKey, row.BIC,
		log.IterationKey, row.NIter)

	r, err := store.Open(ctx, modelsPath)
	if err != nil {
		return row, err
	}
	defer r.Close()
	if err := store.CopyModel(ctx, r, row.Model, outPath); err != nil {
		return row, err
	}
	logger.Info("Model written", log.PathKey, outPath)
	return row, nil
}
