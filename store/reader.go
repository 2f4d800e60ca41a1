package store

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/container"
	"github.com/YuminosukeSato/sfasweep/grid"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/sfa"
)

// Model is one model group read back from a store.
type Model struct {
	Name   string
	Params grid.Params
	// Fitted is false for groups without factor_value. The remaining
	// fields are then nil and FitError holds the recorded failure, if any.
	Fitted       bool
	FitError     string
	Factors      *mat.Dense
	Coefficients []*mat.Dense
	Monitor      *sfa.Monitor
}

// Reader reads a store file. It is safe for concurrent use.
type Reader struct {
	file      *container.File
	root      *container.Group
	models    *container.Group
	viewNames []string
	samples   []string
	features  [][]string
}

// Open opens the store at path read-only and loads its identifiers.
func Open(ctx context.Context, path string) (*Reader, error) {
	f, err := container.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	r := &Reader{file: f, root: f.Root()}
	if err := r.load(ctx); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "store: open %s", path)
	}
	return r, nil
}

func (r *Reader) load(ctx context.Context) error {
	var err error
	if r.viewNames, err = r.root.AttrStrings(ctx, AttrViewNames); err != nil {
		return err
	}
	if r.samples, err = readStrings(ctx, r.root, SampleDim); err != nil {
		return err
	}
	r.features = make([][]string, len(Views))
	for i, v := range Views {
		if r.features[i], err = readStrings(ctx, r.root, v.Dim); err != nil {
			return err
		}
	}
	r.models, err = r.root.Group(ctx, ModelsGroup)
	return err
}

// Close closes the file.
func (r *Reader) Close() error { return r.file.Close() }

// Path returns the file path.
func (r *Reader) Path() string { return r.file.Path() }

// Root returns the read-only root group.
func (r *Reader) Root() *container.Group { return r.root }

// ViewNames returns the view names of the data the sweep ran on.
func (r *Reader) ViewNames() []string { return append([]string(nil), r.viewNames...) }

// Samples returns the sample identifiers.
func (r *Reader) Samples() []string { return append([]string(nil), r.samples...) }

// Features returns the feature identifiers of view i.
func (r *Reader) Features(i int) []string { return append([]string(nil), r.features[i]...) }

// ModelNames lists the model groups in the order they were written.
func (r *Reader) ModelNames(ctx context.Context) ([]string, error) {
	groups, err := r.models.Groups(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name()
	}
	return names, nil
}

// Group returns the raw container group of a model.
func (r *Reader) Group(ctx context.Context, name string) (*container.Group, error) {
	return r.models.Group(ctx, name)
}

// Model reads one model group. A fitted group missing any of its
// coefficient or monitor variables yields a MissingVariableError.
func (r *Reader) Model(ctx context.Context, name string) (*Model, error) {
	g, err := r.models.Group(ctx, name)
	if err != nil {
		return nil, err
	}
	params, err := readParams(ctx, g)
	if err != nil {
		return nil, errors.Wrapf(err, "store: model %s", name)
	}
	m := &Model{Name: name, Params: params}

	fitted, err := g.HasVariable(ctx, FactorVar)
	if err != nil {
		return nil, err
	}
	if !fitted {
		if v, err := g.Attr(ctx, AttrError); err == nil {
			m.FitError, _ = v.(string)
		}
		return m, nil
	}
	m.Fitted = true

	var missing []string
	for i := range Views {
		ok, err := g.HasVariable(ctx, CoefficientVar(i))
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, CoefficientVar(i))
		}
	}
	mg, err := g.Group(ctx, MonitorGroup)
	if errors.Is(err, errors.ErrNotFound) {
		missing = append(missing, MonitorGroup)
	} else if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingVariableError(g.Path(), missing...)
	}

	if m.Factors, err = readDense(ctx, g, FactorVar); err != nil {
		return nil, err
	}
	m.Coefficients = make([]*mat.Dense, len(Views))
	for i := range Views {
		if m.Coefficients[i], err = readDense(ctx, g, CoefficientVar(i)); err != nil {
			return nil, err
		}
	}
	if m.Monitor, err = readMonitor(ctx, mg); err != nil {
		return nil, errors.Wrapf(err, "store: model %s", name)
	}
	return m, nil
}

func readParams(ctx context.Context, g *container.Group) (grid.Params, error) {
	var p grid.Params
	k, err := g.AttrFloat64(ctx, AttrK)
	if err != nil {
		return p, err
	}
	p.K = int(k)
	if p.Alpha, err = g.AttrFloat64(ctx, AttrAlpha); err != nil {
		return p, err
	}
	if p.LGexp, err = g.AttrFloat64(ctx, AttrLGexp); err != nil {
		return p, err
	}
	p.LMri, err = g.AttrFloat64(ctx, AttrLMri)
	return p, err
}

func readMonitor(ctx context.Context, g *container.Group) (*sfa.Monitor, error) {
	iv, err := g.Variable(ctx, IterationDim)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.NewMissingVariableError(g.Path(), IterationDim)
	}
	if err != nil {
		return nil, err
	}
	raw, err := iv.Int64()
	if err != nil {
		return nil, err
	}
	iterations := make([]int, len(raw))
	for i, it := range raw {
		iterations[i] = int(it)
	}

	all, err := g.Variables(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	var columns [][]float64
	for _, name := range all {
		if name == IterationDim {
			continue
		}
		v, err := g.Variable(ctx, name)
		if err != nil {
			return nil, err
		}
		col, err := v.Float64()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		columns = append(columns, col)
	}
	return sfa.MonitorFromColumns(iterations, names, columns)
}

func readDense(ctx context.Context, g *container.Group, name string) (*mat.Dense, error) {
	v, err := g.Variable(ctx, name)
	if err != nil {
		return nil, err
	}
	return v.Dense()
}

func readStrings(ctx context.Context, g *container.Group, name string) ([]string, error) {
	v, err := g.Variable(ctx, name)
	if err != nil {
		return nil, err
	}
	return v.Strings()
}
