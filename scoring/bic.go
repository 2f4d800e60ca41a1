// Package scoring rates every fitted model of a sweep by a BIC-like score:
// per-sample reconstruction deviance plus ln(n) times the effective degrees
// of freedom of the elastic-net coefficients and the factors.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/linear"
	"github.com/YuminosukeSato/sfasweep/metrics"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// DOFElasticNet estimates the degrees of freedom of the elastic-net fit that
// produced the k × p coefficients B from the n × k factors Z. Each feature
// contributes the ridge hat trace of the factors active for it, that is
// whose coefficient magnitude exceeds eps. Features with no active factor
// contribute nothing. l2 is the ridge penalty already divided by n.
func DOFElasticNet(Z mat.Matrix, l2 float64, B mat.Matrix, eps float64) (float64, error) {
	n, k := Z.Dims()
	kb, p := B.Dims()
	if kb != k {
		return 0, errors.NewDimensionError("scoring.DOFElasticNet", k, kb, 0)
	}

	active := make([]int, 0, k)
	var df float64
	for j := 0; j < p; j++ {
		active = active[:0]
		for i := 0; i < k; i++ {
			if b := B.At(i, j); b > eps || b < -eps {
				active = append(active, i)
			}
		}
		if len(active) == 0 {
			continue
		}
		xa := mat.NewDense(n, len(active), nil)
		for c, i := range active {
			for r := 0; r < n; r++ {
				xa.Set(r, c, Z.At(r, i))
			}
		}
		tr, err := linear.HatTrace(xa, l2)
		if err != nil {
			return 0, errors.Wrapf(err, "scoring: degrees of freedom of feature %d", j)
		}
		df += tr
	}
	return df, nil
}

// BIC returns deviance + ln(n)·dof. Lower is better.
func BIC(deviance, dof float64, n int) float64 {
	return deviance + math.Log(float64(n))*dof
}

// EmptyModelBIC is the score of the model that reconstructs every view as
// zero: no parameters and a deviance equal to the per-sample sum of squares.
// The division by n matches the model rows. Earlier eval_sfa_bic tooling
// reported the undivided sum, so its empty_model_bic is n times this value.
func EmptyModelBIC(views []mat.Matrix) (float64, error) {
	if len(views) == 0 {
		return 0, errors.NewValueError("scoring.EmptyModelBIC", "no views")
	}
	n, _ := views[0].Dims()
	var dev float64
	for _, v := range views {
		r, c := v.Dims()
		d, err := metrics.MeanSquaredDeviance(v, mat.NewDense(r, c, nil))
		if err != nil {
			return 0, err
		}
		dev += d
	}
	return BIC(dev, 0, n), nil
}
