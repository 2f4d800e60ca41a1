package scoring

import (
	"context"
	"math"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/metrics"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/pkg/log"
	"github.com/YuminosukeSato/sfasweep/sfa"
	"github.com/YuminosukeSato/sfasweep/store"
)

// Config controls a scoring pass.
type Config struct {
	// Eps is the magnitude below which a coefficient counts as zero.
	Eps float64
	// L2Eps must match the value the sweep added to every L2 penalty.
	L2Eps float64
	// Threads bounds how many models are scored at once.
	Threads int
}

// DefaultConfig returns eps=1e-6, l2_eps=1e-6 and one thread.
func DefaultConfig() Config {
	return Config{Eps: 1e-6, L2Eps: 1e-6, Threads: 1}
}

// Scorer computes the score table of a sweep.
type Scorer struct {
	cfg    Config
	logger log.Logger
}

// NewScorer creates a scorer.
func NewScorer(cfg Config) *Scorer {
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	return &Scorer{cfg: cfg, logger: log.GetLoggerWithName("scoring").With(log.OperationKey, log.OperationScore)}
}

// Score rates every model in r against data. Rows follow the store's
// enumeration order. Failed fits and groups missing variables stay as
// missing rows; any other error aborts the pass.
func (s *Scorer) Score(ctx context.Context, r *store.Reader, data *datamatrix.Stacked) (*Table, error) {
	if err := checkAligned(r, data); err != nil {
		return nil, err
	}
	names, err := r.ModelNames(ctx)
	if err != nil {
		return nil, err
	}

	weighted := data.Weighted()
	views := make([]mat.Matrix, len(weighted))
	for i, w := range weighted {
		views[i] = w
	}

	t := &Table{Rows: make([]Row, len(names))}
	for i, name := range names {
		t.Rows[i] = MissingRow(name)
	}
	if t.EmptyModelBIC, err = EmptyModelBIC(views); err != nil {
		return nil, err
	}

	s.logger.Info("Scoring models", log.PhaseKey, log.PhaseScoring, log.TotalKey, len(names), log.ThreadsKey, s.cfg.Threads)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Threads)
	for i, name := range names {
		g.Go(func() error {
			m, err := r.Model(gctx, name)
			var mv *errors.MissingVariableError
			if errors.As(err, &mv) {
				s.logger.Warn("Skipping inconsistent model group", err,
					log.ModelGroupKey, name, log.ErrorCodeKey, log.ErrorMissingVariable)
				return nil
			}
			if err != nil {
				return err
			}
			if !m.Fitted {
				s.logger.Debug("Skipping failed fit", log.ModelGroupKey, name)
				return nil
			}
			row, err := s.scoreModel(m, views)
			if err != nil {
				return errors.Wrapf(err, "scoring: model %s", name)
			}
			t.Rows[i] = row
			s.logger.Debug("Model scored", log.ModelGroupKey, name, log.BICKey, row.BIC)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

// scoreModel computes one row. views are the weighted data views.
func (s *Scorer) scoreModel(m *store.Model, views []mat.Matrix) (Row, error) {
	n, k := m.Factors.Dims()
	p := m.Params
	row := Row{Model: m.Name, K: p.K, Alpha: p.Alpha, LGexp: p.LGexp, LMri: p.LMri}

	ls := []float64{p.LGexp, p.LMri}
	dev := make([]float64, len(views))
	dof := make([]float64, len(views))
	sparsity := make([]float64, len(views))
	r2 := make([]float64, len(views))
	for v, x := range views {
		var rec mat.Dense
		rec.Mul(m.Factors, m.Coefficients[v])

		var err error
		if dev[v], err = metrics.MeanSquaredDeviance(x, &rec); err != nil {
			return row, err
		}
		l2 := s.cfg.L2Eps + ls[v]*(1-p.Alpha)
		if dof[v], err = DOFElasticNet(m.Factors, l2/float64(n), m.Coefficients[v], s.cfg.Eps); err != nil {
			return row, err
		}
		if sparsity[v], err = metrics.Sparsity(m.Coefficients[v], s.cfg.Eps); err != nil {
			return row, err
		}
		if r2[v], err = metrics.ExplainedVariance(x, &rec); err != nil {
			r2[v] = math.NaN()
		}
	}

	row.DevianceGexp, row.DevianceMri = dev[0], dev[1]
	row.DofGexp, row.DofMri = dof[0], dof[1]
	row.SparsityGexp, row.SparsityMri = sparsity[0], sparsity[1]
	row.R2Gexp, row.R2Mri = r2[0], r2[1]
	row.BIC = BIC(dev[0]+dev[1], dof[0]+dof[1]+float64(n*k), n)

	row.MaxDiffCoefficients = lastOrNaN(m.Monitor, sfa.MaxDiffCoefficients)
	row.MaxDiffFactors = lastOrNaN(m.Monitor, sfa.MaxDiffFactors)
	row.NIter = m.Monitor.LastIteration()
	return row, nil
}

func lastOrNaN(m *sfa.Monitor, name string) float64 {
	if v, ok := m.Last(name); ok {
		return v
	}
	return math.NaN()
}

// checkAligned verifies that data is the matrix the sweep ran on.
func checkAligned(r *store.Reader, data *datamatrix.Stacked) error {
	if data.Len() != len(store.Views) {
		return errors.NewValidationError("views", "expected two views (gexp, mri)", data.Names())
	}
	want, got := r.Samples(), data.Samples()
	if len(want) != len(got) {
		return errors.NewSampleMismatchError("data", -1, strconv.Itoa(len(want)), strconv.Itoa(len(got)))
	}
	for i := range want {
		if want[i] != got[i] {
			return errors.NewSampleMismatchError("data", i, want[i], got[i])
		}
	}
	for v := range store.Views {
		_, p := data.View(v).Dims()
		if nf := len(r.Features(v)); nf != p {
			return errors.NewDimensionError("scoring.Score("+data.Names()[v]+")", nf, p, 1)
		}
	}
	return nil
}
