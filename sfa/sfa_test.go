package sfa

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

func normalDense(r, c int, sigma float64, seed uint64) *mat.Dense {
	norm := distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(seed, 7)}
	data := make([]float64, r*c)
	for i := range data {
		data[i] = norm.Rand()
	}
	return mat.NewDense(r, c, data)
}

// lowRank builds two views generated by k shared factors plus small noise.
func lowRank(t *testing.T, n, k int, p []int) *datamatrix.Stacked {
	t.Helper()
	z := normalDense(n, k, 1, 1)
	samples := make([]string, n)
	for i := range samples {
		samples[i] = "case" + string(rune('A'+i%26)) + string(rune('a'+i/26))
	}
	var views []*datamatrix.DataMatrix
	for v, pv := range p {
		b := normalDense(k, pv, 1, uint64(10+v))
		var x mat.Dense
		x.Mul(z, b)
		x.Add(&x, normalDense(n, pv, 0.01, uint64(20+v)))
		features := make([]string, pv)
		for j := range features {
			features[j] = string(rune('a'+v)) + string(rune('A'+j%26)) + string(rune('a'+j/26))
		}
		d, err := datamatrix.New(&x, nil, samples, features)
		require.NoError(t, err)
		views = append(views, d)
	}
	s, err := datamatrix.NewStacked(views, []string{"gexp", "mri"})
	require.NoError(t, err)
	return s
}

func TestALSConverges(t *testing.T) {
	data := lowRank(t, 30, 2, []int{12, 6})
	p := Problem{K: 2, L1: []float64{0, 0}, L2: []float64{1e-6, 1e-6}, MaxIter: 500, Eps: 1e-6}

	out, err := NewALS().Solve(data, p)
	require.NoError(t, err)

	r, c := out.Factors.Dims()
	assert.Equal(t, 30, r)
	assert.Equal(t, 2, c)
	require.Len(t, out.Coefficients, 2)
	_, p0 := out.Coefficients[0].Dims()
	_, p1 := out.Coefficients[1].Dims()
	assert.Equal(t, []int{12, 6}, []int{p0, p1})

	m := out.Monitor
	require.Greater(t, m.Len(), 0)
	assert.Equal(t, 1, m.Iterations()[0])
	for _, name := range m.Names() {
		assert.Len(t, m.Values(name), m.Len())
	}
	assert.Less(t, m.LastIteration(), p.MaxIter)
	last, ok := m.Last(ReconstructionError)
	require.True(t, ok)
	assert.Less(t, last, 0.05)
}

func TestALSSparsityGrowsWithL1(t *testing.T) {
	data := lowRank(t, 25, 2, []int{10, 5})
	zeroes := func(l1 float64) int {
		out, err := NewALS().Solve(data, Problem{K: 2, L1: []float64{l1, l1}, L2: []float64{1e-6, 1e-6}, MaxIter: 200, Eps: 1e-5})
		require.NoError(t, err)
		n := 0
		for _, b := range out.Coefficients {
			for _, v := range b.RawMatrix().Data {
				if v == 0 {
					n++
				}
			}
		}
		return n
	}
	assert.Equal(t, 0, zeroes(0))
	assert.Equal(t, 30, zeroes(1e6))
}

func TestALSIterationCapWarns(t *testing.T) {
	var (
		mu       sync.Mutex
		warnings []error
	)
	errors.SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, w)
	})
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	data := lowRank(t, 20, 2, []int{8, 4})
	out, err := NewALS().Solve(data, Problem{K: 2, L1: []float64{0, 0}, L2: []float64{1e-6, 1e-6}, MaxIter: 1, Eps: 1e-12})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Monitor.LastIteration())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	assert.True(t, errors.As(warnings[0], &cw))
}

func TestProblemValidation(t *testing.T) {
	data := lowRank(t, 5, 1, []int{3, 2})
	base := Problem{K: 1, L1: []float64{0, 0}, L2: []float64{0, 0}, MaxIter: 10, Eps: 1e-6}
	tests := []struct {
		name   string
		mutate func(*Problem)
	}{
		{"zero k", func(p *Problem) { p.K = 0 }},
		{"k above samples", func(p *Problem) { p.K = 6 }},
		{"penalty count", func(p *Problem) { p.L1 = []float64{0} }},
		{"negative penalty", func(p *Problem) { p.L2 = []float64{0, -1} }},
		{"no iterations", func(p *Problem) { p.MaxIter = 0 }},
		{"zero eps", func(p *Problem) { p.Eps = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			p.L1 = append([]float64(nil), base.L1...)
			p.L2 = append([]float64(nil), base.L2...)
			tt.mutate(&p)
			_, err := NewALS().Solve(data, p)
			assert.Error(t, err)
		})
	}
}

func TestTransformRecoversFactors(t *testing.T) {
	z := normalDense(10, 2, 1, 3)
	b := normalDense(2, 40, 100, 4)
	var x mat.Dense
	x.Mul(z, b)

	got, err := Transform([]mat.Matrix{&x}, []*mat.Dense{b})
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(z, got, 1e-3))

	_, err = Transform([]mat.Matrix{&x}, []*mat.Dense{normalDense(2, 39, 1, 5)})
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestSFAEstimator(t *testing.T) {
	data := lowRank(t, 20, 2, []int{8, 4})
	fixed := &Outcome{
		Monitor:      NewMonitor(MaxDiffCoefficients),
		Factors:      mat.NewDense(20, 2, nil),
		Coefficients: []*mat.Dense{normalDense(2, 8, 1, 1), normalDense(2, 4, 1, 2)},
	}
	stub := SolverFunc(func(*datamatrix.Stacked, Problem) (*Outcome, error) { return fixed, nil })

	s := New(stub, Problem{K: 2})
	_, err := s.Transform(0, mat.NewDense(3, 8, nil))
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))

	require.NoError(t, s.Fit(data))
	assert.True(t, s.IsFitted())
	z, err := s.Transform(1, data.View(1).Weighted())
	require.NoError(t, err)
	r, c := z.Dims()
	assert.Equal(t, []int{20, 2}, []int{r, c})

	_, err = s.Transform(1, mat.NewDense(3, 8, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))

	zs, err := s.TransformStacked(data)
	require.NoError(t, err)
	r, _ = zs.Dims()
	assert.Equal(t, 20, r)
	assert.Equal(t, 2, s.GetParams()["k"])

	restored, err := NewFitted(fixed.Coefficients, 20)
	require.NoError(t, err)
	z2, err := restored.TransformStacked(data)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(zs, z2, 1e-12))
}

func TestMonitorFromColumns(t *testing.T) {
	m, err := MonitorFromColumns([]int{1, 2}, []string{MaxDiffFactors}, [][]float64{{0.5, 0.1}})
	require.NoError(t, err)
	last, ok := m.Last(MaxDiffFactors)
	assert.True(t, ok)
	assert.Equal(t, 0.1, last)
	_, ok = m.Last("missing")
	assert.False(t, ok)

	_, err = MonitorFromColumns([]int{1, 2}, []string{MaxDiffFactors}, [][]float64{{0.5}})
	assert.Error(t, err)
}
