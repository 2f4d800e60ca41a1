package sweep

import (
	"time"

	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/grid"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/pkg/log"
	"github.com/YuminosukeSato/sfasweep/sfa"
)

// Config holds the solver settings shared by every fit of a sweep.
type Config struct {
	MaxIter int
	Eps     float64
	// L2Eps is added to every view's L2 penalty so each regression
	// subproblem stays strictly convex when alpha is 1.
	L2Eps float64
}

// DefaultConfig returns max_iter=1000, eps=1e-6, l2_eps=1e-6.
func DefaultConfig() Config {
	return Config{MaxIter: 1000, Eps: 1e-6, L2Eps: 1e-6}
}

// Validate checks that the settings can build a solvable problem.
func (c Config) Validate() error {
	if c.MaxIter < 1 {
		return errors.NewValidationError("max_iter", "must be positive", c.MaxIter)
	}
	if !(c.Eps > 0) {
		return errors.NewValidationError("eps", "must be positive", c.Eps)
	}
	if c.L2Eps < 0 {
		return errors.NewValidationError("l2_eps", "must be non-negative", c.L2Eps)
	}
	return nil
}

// Worker runs single fits against a shared, read-only data matrix.
type Worker struct {
	data   *datamatrix.Stacked
	solver sfa.Solver
	cfg    Config
	logger log.Logger
}

// NewWorker creates a worker. A nil solver selects sfa.NewALS. The data must
// hold exactly the two views the penalties are defined for.
func NewWorker(data *datamatrix.Stacked, solver sfa.Solver, cfg Config) (*Worker, error) {
	if data == nil {
		return nil, errors.NewValueError("sweep.NewWorker", "no data")
	}
	if data.Len() != 2 {
		return nil, errors.NewValidationError("views", "expected two views (gexp, mri)", data.Names())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		solver = sfa.NewALS()
	}
	return &Worker{
		data:   data,
		solver: solver,
		cfg:    cfg,
		logger: log.GetLoggerWithName("sweep.worker").With(log.OperationKey, log.OperationFit),
	}, nil
}

// Problem builds the solver configuration for p.
func (w *Worker) Problem(p grid.Params) sfa.Problem {
	l1, l2 := p.Penalties(w.cfg.L2Eps)
	return sfa.Problem{K: p.K, L1: l1, L2: l2, MaxIter: w.cfg.MaxIter, Eps: w.cfg.Eps}
}

// Fit runs the solver for p. Solver errors and panics are captured in the
// result and never returned.
func (w *Worker) Fit(p grid.Params) *FitResult {
	logger := w.logger.With(log.ModelGroupKey, p.GroupName())
	res := &FitResult{Params: p}
	start := time.Now()

	logger.Info("Starting with "+p.String(),
		log.FactorsKey, p.K,
		log.AlphaKey, p.Alpha,
		log.LGexpKey, p.LGexp,
		log.LMriKey, p.LMri,
		log.MaxIterKey, w.cfg.MaxIter,
		log.EpsKey, w.cfg.Eps)
	var out *sfa.Outcome
	err := errors.SafeExecute("sfa.Solve", func() error {
		var err error
		if out, err = w.solver.Solve(w.data, w.Problem(p)); err != nil {
			return err
		}
		if out == nil {
			return errors.New("solver returned neither a model nor an error")
		}
		return w.checkOutcome(p, out)
	})
	res.Duration = time.Since(start)

	if err != nil {
		res.Err = errors.NewSolverFailure(p.String(), err)
		logger.Error("Error with "+p.String(), res.Err,
			log.ErrorCodeKey, log.ErrorSolverFailure,
			log.DurationMsKey, res.Duration.Milliseconds())
		return res
	}
	res.Outcome = out
	logger.Info("Finished with "+p.String(),
		log.IterationKey, out.Monitor.LastIteration(),
		log.DurationMsKey, res.Duration.Milliseconds())
	return res
}

// checkOutcome rejects solver output whose shapes cannot be stored.
func (w *Worker) checkOutcome(p grid.Params, out *sfa.Outcome) error {
	if out.Monitor == nil || out.Factors == nil {
		return errors.New("solver returned an incomplete outcome")
	}
	n, k := out.Factors.Dims()
	if n != w.data.NSamples() || k != p.K {
		return errors.NewDimensionError("sweep.Fit(factors)", w.data.NSamples()*p.K, n*k, 0)
	}
	if len(out.Coefficients) != w.data.Len() {
		return errors.NewDimensionError("sweep.Fit(coefficients)", w.data.Len(), len(out.Coefficients), 0)
	}
	for i, c := range out.Coefficients {
		if c == nil {
			return errors.New("solver returned an incomplete outcome")
		}
		_, nf := w.data.View(i).Dims()
		r, cols := c.Dims()
		if r != p.K || cols != nf {
			return errors.NewDimensionError("sweep.Fit(coefficient_"+w.data.Names()[i]+")", p.K*nf, r*cols, 0)
		}
	}
	return nil
}
