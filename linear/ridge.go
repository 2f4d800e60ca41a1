package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// penalisedGram returns the Cholesky factor of AᵀA + λI.
func penalisedGram(op string, A mat.Matrix, lambda float64) (*mat.Cholesky, *mat.SymDense, error) {
	_, c := A.Dims()
	gram := mat.NewSymDense(c, nil)
	gram.SymOuterK(1, A.T())
	pen := mat.NewSymDense(c, nil)
	pen.CopySym(gram)
	for i := 0; i < c; i++ {
		pen.SetSym(i, i, pen.At(i, i)+lambda)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(pen); !ok {
		return nil, nil, errors.NewModelError(op, "matrix is not positive definite", errors.ErrSingularMatrix)
	}
	return &chol, gram, nil
}

// RidgeSolve は (AᵀA + λI) X = AᵀB をCholesky分解で解く
func RidgeSolve(A, B mat.Matrix, lambda float64) (*mat.Dense, error) {
	ra, _ := A.Dims()
	rb, _ := B.Dims()
	if ra != rb {
		return nil, errors.NewDimensionError("RidgeSolve", ra, rb, 0)
	}
	chol, _, err := penalisedGram("RidgeSolve", A, lambda)
	if err != nil {
		return nil, err
	}
	var atb mat.Dense
	atb.Mul(A.T(), B)
	var x mat.Dense
	if err := chol.SolveTo(&x, &atb); err != nil {
		return nil, errors.NewModelError("RidgeSolve", "solve failed", err)
	}
	return &x, nil
}

// HatTrace はリッジのハット行列 X (XᵀX + λI)⁻¹ Xᵀ のトレースを返す
//
// tr(X (XᵀX + λI)⁻¹ Xᵀ) = tr((XᵀX + λI)⁻¹ XᵀX) なので、
// 列数×列数の系だけを解く。
func HatTrace(X mat.Matrix, lambda float64) (float64, error) {
	chol, gram, err := penalisedGram("HatTrace", X, lambda)
	if err != nil {
		return 0, err
	}
	var s mat.Dense
	if err := chol.SolveTo(&s, gram); err != nil {
		return 0, errors.NewModelError("HatTrace", "solve failed", err)
	}
	return mat.Trace(&s), nil
}
