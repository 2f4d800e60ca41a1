// Command sfa sweeps multi-view sparse factor analysis hyperparameters,
// scores the fitted models by BIC and selects the best converged one.
//
//	sfa stack data.db gexp=gexp.csv mri=mri.csv
//	sfa sweep data.db sweep.db --k 2:4 --l-gexp 0:6 --threads 8
//	sfa score sweep.db data.db scores.db
//	sfa select sweep.db scores.db best.db
//	sfa plot scores.db bic.png
package main

import (
	"os"

	"github.com/YuminosukeSato/sfasweep/sfa"
)

func main() {
	app := newApp(func() sfa.Solver { return sfa.NewALS() })
	if err := app.root().Execute(); err != nil {
		os.Exit(1)
	}
}
