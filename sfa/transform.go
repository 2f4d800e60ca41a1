package sfa

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// Transform projects data onto learned coefficients:
//
//	Z = (Σ_v X_v B_vᵀ) (Σ_v B_v B_vᵀ + I)⁻¹
//
// which is the posterior mean of the factors under a unit Gaussian prior.
// views[v] is samples × features_v and coefs[v] is k × features_v.
func Transform(views []mat.Matrix, coefs []*mat.Dense) (*mat.Dense, error) {
	if len(views) == 0 || len(views) != len(coefs) {
		return nil, errors.NewDimensionError("sfa.Transform", len(coefs), len(views), 0)
	}
	n, _ := views[0].Dims()
	k, _ := coefs[0].Dims()

	rhs := mat.NewDense(k, n, nil) // (Σ X_v B_vᵀ)ᵀ
	gram := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		gram.SetSym(i, i, 1)
	}
	var part mat.Dense
	for v, X := range views {
		r, p := X.Dims()
		kb, pb := coefs[v].Dims()
		if r != n {
			return nil, errors.NewDimensionError("sfa.Transform(samples)", n, r, 0)
		}
		if kb != k {
			return nil, errors.NewDimensionError("sfa.Transform(factors)", k, kb, 0)
		}
		if pb != p {
			return nil, errors.NewDimensionError("sfa.Transform(features)", pb, p, 1)
		}
		part.Mul(coefs[v], X.T())
		rhs.Add(rhs, &part)
		part.Reset()
		gram.SymRankK(gram, 1, coefs[v])
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return nil, errors.NewModelError("sfa.Transform", "factor gram is not positive definite", errors.ErrSingularMatrix)
	}
	var zt mat.Dense
	if err := chol.SolveTo(&zt, rhs); err != nil {
		return nil, errors.NewModelError("sfa.Transform", "solve failed", err)
	}
	return mat.DenseCopyOf(zt.T()), nil
}
