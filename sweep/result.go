// Package sweep fits the factor model once per hyperparameter combination on
// a bounded pool of goroutines and hands every result, in completion order,
// to a single writer.
package sweep

import (
	"time"

	"github.com/YuminosukeSato/sfasweep/grid"
	"github.com/YuminosukeSato/sfasweep/sfa"
)

// FitResult is the outcome of one fit attempt. Exactly one of Outcome and Err
// is set.
type FitResult struct {
	Params   grid.Params
	Outcome  *sfa.Outcome
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the fit produced a model.
func (r *FitResult) Succeeded() bool { return r.Err == nil && r.Outcome != nil }

// Summary counts what a sweep did.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// Written is the number of results the sink accepted.
	Written  int
	Duration time.Duration
}
