package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/sfasweep/core/model"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// StandardScaler は特徴量ごとの中心化とスケーリングを行う
//
// Pooled を有効にすると、スケールは特徴量ごとではなく中心化後の行列全体の
// 標準偏差1つになる。ビュー全体に一様な重みを掛けたいときに使う。
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差（Pooled の場合は全特徴量で同じ値）
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool

	// Pooled は行列全体の標準偏差を使うかどうか
	Pooled bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager("StandardScaler"),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewPooledScaler は中心化と行列全体の標準偏差によるスケーリングを行うスケーラーを作成する
func NewPooledScaler() *StandardScaler {
	s := NewStandardScaler(true, true)
	s.Pooled = true
	return s
}

// IsFitted は学習済みかどうかを返す
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)

	if s.WithMean {
		for j := 0; j < c; j++ {
			mat.Col(col, j, X)
			s.Mean[j] = stat.Mean(col, nil)
		}
	}

	switch {
	case !s.WithStd:
		for j := range s.Scale {
			s.Scale[j] = 1.0
		}
	case s.Pooled:
		sumSquares := 0.0
		for j := 0; j < c; j++ {
			for i := 0; i < r; i++ {
				d := X.At(i, j) - s.Mean[j]
				sumSquares += d * d
			}
		}
		sd := guardScale(math.Sqrt(sumSquares / float64(r*c)))
		for j := range s.Scale {
			s.Scale[j] = sd
		}
	default:
		for j := 0; j < c; j++ {
			mat.Col(col, j, X)
			_, variance := stat.PopMeanVariance(col, nil)
			s.Scale[j] = guardScale(math.Sqrt(variance))
		}
	}

	s.state.SetFitted(r, c)
	return nil
}

// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
func guardScale(sd float64) float64 {
	if math.Abs(sd) < 1e-8 {
		return 1.0
	}
	return sd
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	r, c := X.Dims()
	if err := s.state.RequireFeatures("Transform", 0, c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	r, c := X.Dims()
	if err := s.state.RequireFeatures("InverseTransform", 0, c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
		"pooled":    s.Pooled,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, pooled=%t)", s.WithMean, s.WithStd, s.Pooled)
	}
	_, p := s.state.Dimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, pooled=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.Pooled, p[0])
}

var (
	_ model.Fittable        = (*StandardScaler)(nil)
	_ model.ParameterGetter = (*StandardScaler)(nil)
)
