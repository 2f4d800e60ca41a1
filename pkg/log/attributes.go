// Package log defines standard attribute keys for sweep, scoring and selection.
//
// Using these keys keeps log output from the worker pool, the result writer and
// the scorer filterable by the same field names. Keys follow a hierarchical
// naming convention (e.g. "sweep.completed", "data.samples").
package log

// Operation context.
const (
	// ModelNameKey identifies the estimator or solver, e.g. "ALS".
	ModelNameKey = "model.name"

	// ModelGroupKey is the persisted group name of one hyperparameter combination.
	ModelGroupKey = "model.group"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "transform", "sweep", "score", "select".
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the pipeline phase.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey indicates the number of samples shared by all views.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features in a view.
	FeaturesKey = "data.features"

	// ViewKey names a data view, e.g. "gexp".
	ViewKey = "data.view"

	// PathKey is a file path read or written.
	PathKey = "data.path"
)

// Hyperparameters.
const (
	FactorsKey = "hyperparams.k"
	AlphaKey   = "hyperparams.alpha"
	LGexpKey   = "hyperparams.l_gexp"
	LMriKey    = "hyperparams.l_mri"
	MaxIterKey = "hyperparams.max_iter"
	EpsKey     = "hyperparams.eps"
)

// Progress and performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the iteration count of the solver.
	IterationKey = "training.iteration"

	// CompletedKey and TotalKey report sweep progress.
	CompletedKey = "sweep.completed"
	TotalKey     = "sweep.total"
	SucceededKey = "sweep.succeeded"
	FailedKey    = "sweep.failed"

	// ThreadsKey is the worker pool width.
	ThreadsKey = "sweep.threads"

	// BICKey records an information-criterion score.
	BICKey = "metrics.bic"
)

// Error context.
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"
)

// Standard attribute values.
const (
	OperationFit    = "fit"
	OperationSweep  = "sweep"
	OperationScore  = "score"
	OperationSelect = "select"
	OperationStack  = "stack"

	PhaseSweep     = "sweep"
	PhaseScoring   = "scoring"
	PhaseSelection = "selection"

	ErrorSolverFailure   = "SOLVER_FAILURE"
	ErrorMissingVariable = "MISSING_VARIABLE"
)
