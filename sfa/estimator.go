package sfa

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/core/model"
	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// SFA wraps a Solver with fitted-state tracking so a fitted model can project
// new samples.
type SFA struct {
	state   *model.StateManager
	solver  Solver
	problem Problem
	outcome *Outcome
}

// New creates an unfitted model solving p with solver. A nil solver selects ALS.
func New(solver Solver, p Problem) *SFA {
	if solver == nil {
		solver = NewALS()
	}
	return &SFA{state: model.NewStateManager("SFA"), solver: solver, problem: p}
}

// NewFitted wraps coefficients read back from storage as a fitted model.
func NewFitted(coefs []*mat.Dense, nSamples int) (*SFA, error) {
	if len(coefs) == 0 {
		return nil, errors.NewModelError("sfa.NewFitted", "no coefficient matrices", errors.ErrEmptyData)
	}
	k, _ := coefs[0].Dims()
	s := New(nil, Problem{K: k})
	s.outcome = &Outcome{Coefficients: coefs}
	s.state.SetFitted(nSamples, featureCounts(coefs)...)
	return s, nil
}

// Fit solves the problem on data.
func (s *SFA) Fit(data *datamatrix.Stacked) error {
	s.state.Reset()
	out, err := s.solver.Solve(data, s.problem)
	if err != nil {
		return err
	}
	if len(out.Coefficients) != data.Len() {
		return errors.NewDimensionError("SFA.Fit(coefficients)", data.Len(), len(out.Coefficients), 0)
	}
	s.outcome = out
	s.state.SetFitted(data.NSamples(), featureCounts(out.Coefficients)...)
	return nil
}

func featureCounts(coefs []*mat.Dense) []int {
	out := make([]int, len(coefs))
	for i, c := range coefs {
		_, out[i] = c.Dims()
	}
	return out
}

// IsFitted reports whether Fit has completed.
func (s *SFA) IsFitted() bool { return s.state.IsFitted() }

// Transform projects samples of a single view onto the factors.
func (s *SFA) Transform(view int, X mat.Matrix) (*mat.Dense, error) {
	_, p := X.Dims()
	if err := s.state.RequireFeatures("Transform", view, p); err != nil {
		return nil, err
	}
	return Transform([]mat.Matrix{X}, []*mat.Dense{s.outcome.Coefficients[view]})
}

// TransformStacked projects the weighted data of every view jointly.
func (s *SFA) TransformStacked(data *datamatrix.Stacked) (*mat.Dense, error) {
	if err := s.state.RequireFitted("TransformStacked"); err != nil {
		return nil, err
	}
	views := make([]mat.Matrix, data.Len())
	for v, X := range data.Weighted() {
		_, p := X.Dims()
		if err := s.state.RequireFeatures("TransformStacked", v, p); err != nil {
			return nil, err
		}
		views[v] = X
	}
	return Transform(views, s.outcome.Coefficients)
}

// Outcome returns the result of the last fit, or nil before Fit.
func (s *SFA) Outcome() *Outcome {
	if !s.state.IsFitted() {
		return nil
	}
	return s.outcome
}

// GetParams returns the solver configuration.
func (s *SFA) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"k":        s.problem.K,
		"l1":       s.problem.L1,
		"l2":       s.problem.L2,
		"max_iter": s.problem.MaxIter,
		"eps":      s.problem.Eps,
	}
}

var (
	_ model.Transformer     = (*SFA)(nil)
	_ model.ParameterGetter = (*SFA)(nil)
)
