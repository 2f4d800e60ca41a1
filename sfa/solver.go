// Package sfa fits the sparse multi-view factor model
//
//	X_v ≈ Z·B_v   for every view v
//
// with an elastic-net penalty on each coefficient matrix B_v and a unit
// Gaussian prior on the shared factors Z. The sweep treats the solver as a
// black box behind the Solver interface so tests can substitute a stub.
package sfa

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// Problem is one solver configuration: the number of factors, the per-view
// L1 and L2 penalties and the stopping rule.
type Problem struct {
	K       int
	L1      []float64
	L2      []float64
	MaxIter int
	Eps     float64
}

// Validate checks the problem against the data it will be solved on.
func (p Problem) Validate(data *datamatrix.Stacked) error {
	if p.K < 1 {
		return errors.NewValidationError("k", "number of factors must be positive", p.K)
	}
	if len(p.L1) != data.Len() {
		return errors.NewDimensionError("sfa.Problem(l1)", data.Len(), len(p.L1), 0)
	}
	if len(p.L2) != data.Len() {
		return errors.NewDimensionError("sfa.Problem(l2)", data.Len(), len(p.L2), 0)
	}
	for i := range p.L1 {
		if p.L1[i] < 0 || p.L2[i] < 0 {
			return errors.NewValidationError("penalty", "penalties must be non-negative", [2]float64{p.L1[i], p.L2[i]})
		}
	}
	if p.MaxIter < 1 {
		return errors.NewValidationError("max_iter", "must be positive", p.MaxIter)
	}
	if !(p.Eps > 0) {
		return errors.NewValidationError("eps", "must be positive", p.Eps)
	}
	return nil
}

// Outcome is what a successful solve produces.
type Outcome struct {
	Monitor *Monitor
	// Factors is samples × k.
	Factors *mat.Dense
	// Coefficients holds one k × features matrix per view.
	Coefficients []*mat.Dense
}

// Solver fits the factor model for one problem. Implementations must not
// modify data and must be safe for concurrent use.
type Solver interface {
	Solve(data *datamatrix.Stacked, p Problem) (*Outcome, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(data *datamatrix.Stacked, p Problem) (*Outcome, error)

// Solve calls f(data, p).
func (f SolverFunc) Solve(data *datamatrix.Stacked, p Problem) (*Outcome, error) {
	return f(data, p)
}
