// Package store lays sweep results out in a container file:
//
//	/                      dims case, gene, cad_feature; vars of the same names
//	                       attr view_names
//	/models/M_<k>_<alpha>_<l_gexp>_<l_mri>
//	                       dim factor; attrs k, alpha, l_gexp, l_mri
//	                       coefficient_gexp(factor, gene)
//	                       coefficient_mri(factor, cad_feature)
//	                       factor_value(case, factor)
//	/models/M_.../monitor  dim iteration; var iteration plus one f8 var per metric
//
// A model group without factor_value is a failed fit and carries an error
// attribute instead of data.
package store

import (
	"context"
	"sync"

	"github.com/YuminosukeSato/sfasweep/container"
	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/grid"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/pkg/log"
	"github.com/YuminosukeSato/sfasweep/sweep"
)

// Names used in the file layout.
const (
	SampleDim    = datamatrix.SampleDim
	FactorDim    = "factor"
	IterationDim = "iteration"
	ModelsGroup  = "models"
	MonitorGroup = "monitor"
	FactorVar    = "factor_value"

	AttrViewNames = "view_names"
	AttrK         = "k"
	AttrAlpha     = "alpha"
	AttrLGexp     = "l_gexp"
	AttrLMri      = "l_mri"
	AttrError     = "error"
)

// View ties a data view position to its names in the file.
type View struct {
	// Key suffixes the coefficient variable: coefficient_<Key>.
	Key string
	// Dim is the feature dimension shared by all models.
	Dim string
}

// Views are the two views every store holds, in data order.
var Views = []View{
	{Key: "gexp", Dim: "gene"},
	{Key: "mri", Dim: "cad_feature"},
}

// CoefficientVar returns the variable name of view i's coefficients.
func CoefficientVar(i int) string { return "coefficient_" + Views[i].Key }

// Writer appends fit results to a store file. It implements sweep.ResultSink.
type Writer struct {
	file   *container.File
	mu     sync.Mutex
	logger log.Logger
}

var _ sweep.ResultSink = (*Writer)(nil)

// Create starts a new store at path and writes the sample and feature
// identifiers of data before any result arrives.
func Create(ctx context.Context, path string, data *datamatrix.Stacked) (*Writer, error) {
	if data.Len() != len(Views) {
		return nil, errors.NewValidationError("views", "expected two views (gexp, mri)", data.Names())
	}
	f, err := container.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	err = f.Update(ctx, func(root *container.Group) error {
		if err := root.SetAttr(ctx, AttrViewNames, data.Names()); err != nil {
			return err
		}
		if err := root.CreateDimension(ctx, SampleDim, data.NSamples()); err != nil {
			return err
		}
		if err := root.PutStrings(ctx, SampleDim, SampleDim, data.Samples()); err != nil {
			return err
		}
		for i, v := range Views {
			features := data.View(i).Features
			if err := root.CreateDimension(ctx, v.Dim, len(features)); err != nil {
				return err
			}
			if err := root.PutStrings(ctx, v.Dim, v.Dim, features); err != nil {
				return err
			}
		}
		_, err := root.CreateGroup(ctx, ModelsGroup)
		return err
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{file: f, logger: log.GetLoggerWithName("store").With(log.PathKey, path)}, nil
}

// Path returns the file path.
func (w *Writer) Path() string { return w.file.Path() }

// Close closes the file.
func (w *Writer) Close() error { return w.file.Close() }

// Write stores res in its own model group.
func (w *Writer) Write(ctx context.Context, res *sweep.FitResult) error {
	return w.WriteResult(ctx, res)
}

// WriteResult stores res in its own model group. Each call commits
// atomically; concurrent calls are applied one at a time.
func (w *Writer) WriteResult(ctx context.Context, res *sweep.FitResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := res.Params.GroupName()
	err := w.file.Update(ctx, func(root *container.Group) error {
		models, err := root.Group(ctx, ModelsGroup)
		if err != nil {
			return err
		}
		g, err := models.CreateGroup(ctx, name)
		if err != nil {
			return err
		}
		return writeModel(ctx, g, res)
	})
	if err != nil {
		return errors.Wrapf(err, "store: write %s", name)
	}
	w.logger.Debug("Model group written", log.ModelGroupKey, name)
	return nil
}

func writeModel(ctx context.Context, g *container.Group, res *sweep.FitResult) error {
	p := res.Params
	if err := g.CreateDimension(ctx, FactorDim, p.K); err != nil {
		return err
	}
	if err := writeParams(ctx, g, p); err != nil {
		return err
	}
	if !res.Succeeded() {
		msg := "no result"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		return g.SetAttr(ctx, AttrError, msg)
	}

	out := res.Outcome
	for i, v := range Views {
		if err := g.PutDense(ctx, CoefficientVar(i), [2]string{FactorDim, v.Dim}, out.Coefficients[i]); err != nil {
			return err
		}
	}
	if err := g.PutDense(ctx, FactorVar, [2]string{SampleDim, FactorDim}, out.Factors); err != nil {
		return err
	}

	m, err := g.CreateGroup(ctx, MonitorGroup)
	if err != nil {
		return err
	}
	mon := out.Monitor
	if err := m.CreateDimension(ctx, IterationDim, mon.Len()); err != nil {
		return err
	}
	iters := make([]int64, mon.Len())
	for i, it := range mon.Iterations() {
		iters[i] = int64(it)
	}
	if err := m.PutInt64(ctx, IterationDim, []string{IterationDim}, iters); err != nil {
		return err
	}
	for _, name := range mon.Names() {
		if err := m.PutFloat64(ctx, name, []string{IterationDim}, mon.Values(name)); err != nil {
			return err
		}
	}
	return nil
}

func writeParams(ctx context.Context, g *container.Group, p grid.Params) error {
	attrs := []struct {
		name  string
		value any
	}{
		{AttrK, p.K},
		{AttrAlpha, p.Alpha},
		{AttrLGexp, p.LGexp},
		{AttrLMri, p.LMri},
	}
	for _, a := range attrs {
		if err := g.SetAttr(ctx, a.name, a.value); err != nil {
			return err
		}
	}
	return nil
}
