package sfa

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/linear"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/pkg/log"
)

// ALS solves the factor model by alternating least squares: an elastic-net
// coefficient update per view with the factors fixed, then a closed-form
// factor update with the coefficients fixed. Factors are kept at unit root
// mean square so penalty strengths act on a fixed coefficient scale.
type ALS struct {
	// NJobs bounds the goroutines used across features in the coefficient update.
	NJobs int
	// InnerTol and InnerMaxIter control the coordinate descent of each update.
	InnerTol     float64
	InnerMaxIter int
}

// NewALS returns an ALS solver with sequential coefficient updates.
func NewALS() *ALS {
	return &ALS{NJobs: 1, InnerTol: 1e-10, InnerMaxIter: 1000}
}

// Solve runs ALS until both the largest coefficient change and the largest
// factor change drop below p.Eps, or p.MaxIter iterations have run. Hitting
// the iteration cap is reported through errors.Warn, not as an error.
func (a *ALS) Solve(data *datamatrix.Stacked, p Problem) (*Outcome, error) {
	if err := p.Validate(data); err != nil {
		return nil, err
	}
	views := data.Weighted()
	n := data.NSamples()
	total := len(data.Features())
	if p.K > n || p.K > total {
		return nil, errors.NewValidationError("k", "number of factors exceeds min(samples, features)", p.K)
	}

	logger := log.GetLoggerWithName("sfa").With(log.ModelNameKey, "ALS", log.FactorsKey, p.K)

	z, err := initFactors(views, p.K)
	if err != nil {
		return nil, err
	}
	// coefs are the warm starts rescaled alongside the factors; fitted holds
	// the elastic-net solutions against the current factors.
	coefs := make([]*mat.Dense, len(views))
	fitted := make([]*mat.Dense, len(views))
	for v, X := range views {
		_, pv := X.Dims()
		coefs[v] = mat.NewDense(p.K, pv, nil)
		fitted[v] = mat.NewDense(p.K, pv, nil)
	}
	asMatrix := make([]mat.Matrix, len(views))
	for v := range views {
		asMatrix[v] = views[v]
	}

	mon := NewMonitor(MaxDiffCoefficients, MaxDiffFactors, ReconstructionError)
	for iter := 1; iter <= p.MaxIter; iter++ {
		diffB := 0.0
		for v, X := range views {
			en := linear.NewElasticNet(
				linear.WithL1(p.L1[v]),
				linear.WithL2(p.L2[v]),
				linear.WithTol(a.InnerTol),
				linear.WithMaxIter(a.InnerMaxIter),
				linear.WithNJobs(a.NJobs),
			)
			en.SetInit(coefs[v])
			if err := en.Fit(z, X); err != nil {
				return nil, errors.Wrapf(err, "sfa: coefficient update of view %d", v)
			}
			next := en.Coef()
			diffB = math.Max(diffB, maxAbsDiff(next, fitted[v]))
			fitted[v] = next
			coefs[v] = mat.DenseCopyOf(next)
		}
		recon := reconstructionError(views, z, fitted)
		if err := errors.CheckScalar("sfa.ALS(reconstruction)", recon, iter); err != nil {
			return nil, err
		}

		nextZ, err := Transform(asMatrix, coefs)
		if err != nil {
			return nil, errors.Wrap(err, "sfa: factor update")
		}
		if err := errors.CheckMatrix("sfa.ALS(factors)", nextZ, iter); err != nil {
			return nil, err
		}
		normalizeFactors(nextZ, coefs)
		diffZ := maxAbsDiff(nextZ, z)
		z = nextZ

		mon.Record(iter, diffB, diffZ, recon)
		if logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("ALS iteration",
				log.IterationKey, iter,
				MaxDiffCoefficients, diffB,
				MaxDiffFactors, diffZ,
				ReconstructionError, recon,
			)
		}

		if diffB < p.Eps && diffZ < p.Eps {
			break
		}
		if iter == p.MaxIter {
			errors.Warn(errors.NewConvergenceWarning("ALS", iter,
				"factor model did not converge; consider increasing max_iter"))
		}
	}

	return &Outcome{Monitor: mon, Factors: z, Coefficients: fitted}, nil
}

// initFactors takes the leading k left singular vectors of the concatenated
// views at unit root mean square.
func initFactors(views []*mat.Dense, k int) (*mat.Dense, error) {
	n, _ := views[0].Dims()
	total := 0
	for _, X := range views {
		_, p := X.Dims()
		total += p
	}
	all := mat.NewDense(n, total, nil)
	offset := 0
	for _, X := range views {
		_, p := X.Dims()
		all.Slice(0, n, offset, offset+p).(*mat.Dense).Copy(X)
		offset += p
	}

	var svd mat.SVD
	if ok := svd.Factorize(all, mat.SVDThin); !ok {
		return nil, errors.NewModelError("sfa.initFactors", "SVD did not converge", errors.ErrSingularMatrix)
	}
	var u mat.Dense
	svd.UTo(&u)

	z := mat.NewDense(n, k, nil)
	z.Copy(u.Slice(0, n, 0, k))
	z.Scale(math.Sqrt(float64(n)), z)
	return z, nil
}

// normalizeFactors rescales every factor column to unit root mean square and
// moves the scale into the matching coefficient rows, leaving Z·B_v unchanged.
func normalizeFactors(z *mat.Dense, coefs []*mat.Dense) {
	n, k := z.Dims()
	for j := 0; j < k; j++ {
		col := z.ColView(j).(*mat.VecDense)
		d := mat.Norm(col, 2) / math.Sqrt(float64(n))
		if d == 0 {
			continue
		}
		col.ScaleVec(1/d, col)
		for _, b := range coefs {
			row := b.RowView(j).(*mat.VecDense)
			row.ScaleVec(d, row)
		}
	}
}

func maxAbsDiff(a, b *mat.Dense) float64 {
	var d mat.Dense
	d.Sub(a, b)
	return maxAbs(&d)
}

func maxAbs(m *mat.Dense) float64 {
	out := 0.0
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = math.Max(out, math.Abs(m.At(i, j)))
		}
	}
	return out
}

// reconstructionError is the mean squared residual over all views.
func reconstructionError(views []*mat.Dense, z *mat.Dense, coefs []*mat.Dense) float64 {
	var (
		ss    float64
		count int
		rec   mat.Dense
	)
	for v, X := range views {
		rec.Mul(z, coefs[v])
		rec.Sub(X, &rec)
		r, c := rec.Dims()
		n := mat.Norm(&rec, 2)
		ss += n * n
		count += r * c
		rec.Reset()
	}
	return ss / float64(count)
}
