package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/core/model"
	"github.com/YuminosukeSato/sfasweep/core/parallel"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// ElasticNet は複数ターゲットのElastic Net回帰モデル
//
// 各ターゲット列 y_j について
//
//	(1/2n)‖y_j − X w_j‖² + l1‖w_j‖₁ + (l2/2)‖w_j‖²
//
// を座標降下法で最小化する。切片は持たない。Gram行列 XᵀX/n を一度だけ計算し、
// 全ターゲットで共有する。
type ElasticNet struct {
	state *model.StateManager

	l1      float64
	l2      float64
	tol     float64
	maxIter int
	nJobs   int

	coef  *mat.Dense // n_features × n_targets
	nIter []int
}

// ターゲット数がこれ以下なら並列化しない
const minParallelTargets = 8

// NewElasticNet は新しいElasticNetモデルを作成する
func NewElasticNet(opts ...Option) *ElasticNet {
	e := &ElasticNet{
		state:   model.NewStateManager("ElasticNet"),
		tol:     1e-8,
		maxIter: 1000,
		nJobs:   1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetInit は次のFitの初期値（ウォームスタート）を設定する
func (e *ElasticNet) SetInit(W *mat.Dense) {
	e.coef = mat.DenseCopyOf(W)
}

// Fit はモデルを学習させる
// X は n_samples × n_features、Y は n_samples × n_targets
func (e *ElasticNet) Fit(X, Y mat.Matrix) error {
	n, p := X.Dims()
	ny, t := Y.Dims()
	if n == 0 || p == 0 || t == 0 {
		return errors.NewModelError("ElasticNet.Fit", "empty data", errors.ErrEmptyData)
	}
	if ny != n {
		return errors.NewDimensionError("ElasticNet.Fit", n, ny, 0)
	}
	if e.l1 < 0 || e.l2 < 0 {
		return errors.NewValidationError("penalty", "penalties must be non-negative", [2]float64{e.l1, e.l2})
	}

	// Gram行列と相関
	nf := float64(n)
	var gram mat.Dense
	gram.Mul(X.T(), X)
	gram.Scale(1/nf, &gram)
	var corr mat.Dense
	corr.Mul(X.T(), Y)
	corr.Scale(1/nf, &corr)

	if e.coef == nil {
		e.coef = mat.NewDense(p, t, nil)
	} else if r, c := e.coef.Dims(); r != p || c != t {
		return errors.NewDimensionError("ElasticNet.Fit(init)", p, r, 0)
	}

	diag := make([]float64, p)
	for j := range diag {
		diag[j] = gram.At(j, j) + e.l2
	}

	e.nIter = make([]int, t)
	parallel.ParallelizeWithThreshold(e.nJobs, t, minParallelTargets, func(start, end int) {
		w := make([]float64, p)
		g := make([]float64, p)
		for target := start; target < end; target++ {
			mat.Col(w, target, e.coef)
			mat.Col(g, target, &corr)
			e.nIter[target] = descend(&gram, g, diag, w, e.l1, e.tol, e.maxIter)
			e.coef.SetCol(target, w)
		}
	})

	if err := errors.CheckMatrix("ElasticNet.Fit", e.coef, 0); err != nil {
		return err
	}
	e.state.SetFitted(n, p)
	return nil
}

// descend runs coordinate descent on one target in covariance form and
// returns the number of sweeps used.
func descend(gram *mat.Dense, corr, diag, w []float64, l1, tol float64, maxIter int) int {
	p := len(w)
	row := make([]float64, p)
	for iter := 1; iter <= maxIter; iter++ {
		maxDelta := 0.0
		for j := 0; j < p; j++ {
			if diag[j] == 0 {
				w[j] = 0
				continue
			}
			mat.Row(row, j, gram)
			rho := corr[j] - floats.Dot(row, w) + row[j]*w[j]
			updated := softThreshold(rho, l1) / diag[j]
			if d := math.Abs(updated - w[j]); d > maxDelta {
				maxDelta = d
			}
			w[j] = updated
		}
		if maxDelta < tol {
			return iter
		}
	}
	return maxIter
}

// softThreshold は軟閾値作用素 S(z, λ) = sign(z)·max(|z|−λ, 0)
func softThreshold(z, lambda float64) float64 {
	switch {
	case z > lambda:
		return z - lambda
	case z < -lambda:
		return z + lambda
	default:
		return 0
	}
}

// Coef は学習済み係数（n_features × n_targets）を返す
func (e *ElasticNet) Coef() *mat.Dense {
	if !e.state.IsFitted() {
		return nil
	}
	return mat.DenseCopyOf(e.coef)
}

// NIter は各ターゲットで使われた反復回数を返す
func (e *ElasticNet) NIter() []int {
	return append([]int(nil), e.nIter...)
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *ElasticNet) IsFitted() bool {
	return e.state.IsFitted()
}

// Predict は X·W を返す
func (e *ElasticNet) Predict(X mat.Matrix) (*mat.Dense, error) {
	_, c := X.Dims()
	if err := e.state.RequireFeatures("Predict", 0, c); err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Mul(X, e.coef)
	return &out, nil
}

// GetParams はモデルのハイパーパラメータを返す
func (e *ElasticNet) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"l1":       e.l1,
		"l2":       e.l2,
		"tol":      e.tol,
		"max_iter": e.maxIter,
		"n_jobs":   e.nJobs,
	}
}

// String はモデルの文字列表現を返す
func (e *ElasticNet) String() string {
	return fmt.Sprintf("ElasticNet(l1=%g, l2=%g, tol=%g, max_iter=%d)", e.l1, e.l2, e.tol, e.maxIter)
}

var (
	_ model.MultiTargetRegressor = (*ElasticNet)(nil)
	_ model.ParameterGetter      = (*ElasticNet)(nil)
)
