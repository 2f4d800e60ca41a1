// Package sfasweep runs a hyperparameter sweep of multi-view sparse factor
// analysis and selects the best model by the Bayesian information criterion.
//
// Two views of the same samples, a gene expression matrix (gexp) and an
// imaging feature matrix (mri), are factorised jointly as X_v ≈ Z·B_v with
// an elastic net penalty on every B_v. A sweep fits one model per point of a
// grid over the factor count k, the L1 share alpha and the per-view penalty
// strengths l_gexp and l_mri.
//
// # Pipeline
//
//	sfa stack data.db gexp=gexp.csv mri=mri.csv
//	sfa sweep data.db sweep.db --k 2:6 --alpha 0.5 --l-gexp -2:6 --l-mri 0:4 --threads 8
//	sfa score sweep.db data.db scores.db --threads 8
//	sfa select sweep.db scores.db best.db
//	sfa plot scores.db bic.png
//
// Penalty ranges are log2 exponents: "0:2" means l = 0, 1, 2, 4, where the
// leading 0 is always added so the unpenalised model is part of the grid.
//
// # Packages
//
//   - grid: range parsing and the Cartesian product of hyperparameters
//   - datamatrix: labelled, weighted views and their stacked form
//   - sfa: the solver interface, an alternating least squares solver and
//     the fitted-model estimator
//   - sweep: the worker that fits one combination and the bounded-concurrency
//     sweeper that hands results to a single writer
//   - store: the sweep file, one group per combination
//   - scoring: elastic net degrees of freedom, BIC and the score table
//   - selection: the converged model with the lowest BIC
//   - report: BIC plots
//   - container: the hierarchical file format shared by all of the above
//
// # Error handling
//
// Errors are built with github.com/cockroachdb/errors through pkg/errors.
// A failed fit never stops a sweep: it is logged, recorded in its group and
// scored as a row of NaN. Structural errors, such as an unwritable output
// file or data whose samples do not match the sweep, abort the command.
package sfasweep
