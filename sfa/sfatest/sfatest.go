// Package sfatest provides deterministic data and a stub solver for tests of
// code that drives the factor model.
package sfatest

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/sfa"
)

// Truth is a noiseless two-view data set X_v = Z·B_v together with the
// factors and coefficients that generated it.
type Truth struct {
	Data         *datamatrix.Stacked
	Factors      *mat.Dense
	Coefficients []*mat.Dense
}

// LowRank draws Z (n×k, sd zScale) and B_v (k×features[v], sd 1) and builds
// views named gexp and mri with unit weights.
func LowRank(n, k int, features [2]int, zScale float64, seed uint64) (*Truth, error) {
	src := rand.NewPCG(seed, 0x5fa)
	draw := func(r, c int, sd float64) *mat.Dense {
		norm := distuv.Normal{Mu: 0, Sigma: sd, Src: src}
		data := make([]float64, r*c)
		for i := range data {
			data[i] = norm.Rand()
		}
		return mat.NewDense(r, c, data)
	}

	samples := make([]string, n)
	for i := range samples {
		samples[i] = fmt.Sprintf("case%03d", i)
	}
	t := &Truth{Factors: draw(n, k, zScale)}
	names := []string{"gexp", "mri"}
	views := make([]*datamatrix.DataMatrix, len(names))
	for v, name := range names {
		b := draw(k, features[v], 1)
		var x mat.Dense
		x.Mul(t.Factors, b)
		ids := make([]string, features[v])
		for j := range ids {
			ids[j] = fmt.Sprintf("%s%03d", name, j)
		}
		d, err := datamatrix.New(&x, nil, samples, ids)
		if err != nil {
			return nil, err
		}
		views[v] = d
		t.Coefficients = append(t.Coefficients, b)
	}
	var err error
	t.Data, err = datamatrix.NewStacked(views, names)
	return t, err
}

// Step decides what the stub does for one problem.
type Step struct {
	// Scale multiplies the true coefficients; 1 reproduces the data.
	Scale float64
	// Iterations is the length of the recorded monitor.
	Iterations int
	Err        error
	Panic      bool
}

// Stub is a sfa.Solver that returns the true factors (zero-padded or
// truncated to the requested k) and scaled true coefficients.
type Stub struct {
	Truth *Truth
	Plan  func(p sfa.Problem) Step
	calls atomic.Int64
}

var _ sfa.Solver = (*Stub)(nil)

// Calls returns how many times Solve ran.
func (s *Stub) Calls() int { return int(s.calls.Load()) }

// Solve implements sfa.Solver.
func (s *Stub) Solve(data *datamatrix.Stacked, p sfa.Problem) (*sfa.Outcome, error) {
	s.calls.Add(1)
	step := Step{Scale: 1, Iterations: 3}
	if s.Plan != nil {
		step = s.Plan(p)
	}
	if step.Panic {
		panic(fmt.Sprintf("stub solver exploded at k=%d", p.K))
	}
	if step.Err != nil {
		return nil, step.Err
	}

	n := data.NSamples()
	_, kTrue := s.Truth.Factors.Dims()
	z := mat.NewDense(n, p.K, nil)
	coefs := make([]*mat.Dense, data.Len())
	for v := range coefs {
		_, nf := data.View(v).Dims()
		coefs[v] = mat.NewDense(p.K, nf, nil)
	}
	for j := 0; j < p.K && j < kTrue; j++ {
		for i := 0; i < n; i++ {
			z.Set(i, j, s.Truth.Factors.At(i, j))
		}
		for v, b := range s.Truth.Coefficients {
			for f := 0; f < coefs[v].RawMatrix().Cols; f++ {
				coefs[v].Set(j, f, step.Scale*b.At(j, f))
			}
		}
	}

	mon := sfa.NewMonitor(sfa.MaxDiffCoefficients, sfa.MaxDiffFactors)
	for it := 1; it <= step.Iterations; it++ {
		mon.Record(it, 1/float64(it), 0.5/float64(it))
	}
	return &sfa.Outcome{Monitor: mon, Factors: z, Coefficients: coefs}, nil
}
