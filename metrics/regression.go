// Package metrics は因子モデルの再構成誤差と係数のスパース性を評価する関数を提供します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// checkSameShape は2つの行列が空でなく同じ形状であることを検証する
func checkSameShape(op string, yTrue, yPred mat.Matrix) (rows, cols int, err error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, 0, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred {
		return 0, 0, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return 0, 0, errors.NewDimensionError(op, cTrue, cPred, 1)
	}
	return rTrue, cTrue, nil
}

// SumSquaredError は残差平方和 Σ(yTrue - yPred)² を計算する
func SumSquaredError(yTrue, yPred mat.Matrix) (float64, error) {
	if _, _, err := checkSameShape("SumSquaredError", yTrue, yPred); err != nil {
		return 0, err
	}

	var diff mat.Dense
	diff.Sub(yTrue, yPred)
	// フロベニウスノルムの二乗
	f := mat.Norm(&diff, 2)
	return f * f, nil
}

// MeanSquaredDeviance はサンプルあたりの逸脱度 Σ(yTrue - yPred)² / n を計算する。
// n は行数（サンプル数）で、特徴量の数では割らない。
func MeanSquaredDeviance(yTrue, yPred mat.Matrix) (float64, error) {
	sse, err := SumSquaredError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	n, _ := yTrue.Dims()
	return sse / float64(n), nil
}

// MSE は全要素に対する平均二乗誤差を計算する
func MSE(yTrue, yPred mat.Matrix) (float64, error) {
	sse, err := SumSquaredError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	r, c := yTrue.Dims()
	return sse / float64(r*c), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Matrix) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// ExplainedVariance は全列をまとめた説明分散 1 - RSS/TSS を計算する。
// TSS は各列をその列の平均で中心化した平方和。
func ExplainedVariance(yTrue, yPred mat.Matrix) (float64, error) {
	rows, cols, err := checkSameShape("ExplainedVariance", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	rss, err := SumSquaredError(yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// 全変動（TSS）を列ごとに計算
	col := make([]float64, rows)
	var tss float64
	for j := 0; j < cols; j++ {
		mat.Col(col, j, yTrue)
		mean := stat.Mean(col, nil)
		for _, v := range col {
			tss += (v - mean) * (v - mean)
		}
	}

	// 全変動が0の場合（すべての列が定数）
	if tss == 0 {
		return 0, errors.Newf("ExplainedVariance: total sum of squares is zero (no variance in yTrue)")
	}

	return 1 - rss/tss, nil
}

// Sparsity は絶対値が eps 未満の係数の割合を返す
func Sparsity(coef mat.Matrix, eps float64) (float64, error) {
	r, c := coef.Dims()
	if r == 0 || c == 0 {
		return 0, errors.NewValueError("Sparsity", "empty matrix")
	}

	zeros := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(coef.At(i, j)) < eps {
				zeros++
			}
		}
	}
	return float64(zeros) / float64(r*c), nil
}
