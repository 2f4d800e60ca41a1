package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fittable reports whether an estimator has completed Fit.
type Fittable interface {
	IsFitted() bool
}

// Transformer maps a single view into the latent factor space.
type Transformer interface {
	Fittable

	// Transform returns the samples × k factor matrix for X, which must have
	// the feature count view had at fit time.
	Transform(view int, X mat.Matrix) (*mat.Dense, error)
}

// MultiTargetRegressor fits one penalised linear model per target column.
type MultiTargetRegressor interface {
	Fittable

	// Fit learns coefficients such that Y ≈ X·W.
	Fit(X, Y mat.Matrix) error

	// Coef returns the fitted features × targets coefficient matrix.
	Coef() *mat.Dense
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
