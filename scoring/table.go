package scoring

import (
	"context"
	"math"

	"github.com/YuminosukeSato/sfasweep/container"
	"github.com/YuminosukeSato/sfasweep/grid"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// Row is the score of one model group. Rows of models without a fit hold
// NaN in every float column and -1 in K and NIter.
type Row struct {
	Model string

	K     int
	Alpha float64
	LGexp float64
	LMri  float64

	DevianceGexp float64
	DofGexp      float64
	DevianceMri  float64
	DofMri       float64
	BIC          float64

	SparsityGexp float64
	SparsityMri  float64
	R2Gexp       float64
	R2Mri        float64

	MaxDiffCoefficients float64
	MaxDiffFactors      float64
	NIter               int
}

// MissingRow returns the row of a model that could not be scored.
func MissingRow(model string) Row {
	r := Row{Model: model, K: -1, NIter: -1}
	for _, c := range floatColumns {
		*c.field(&r) = math.NaN()
	}
	return r
}

// Scored reports whether the row holds a score.
func (r Row) Scored() bool { return r.K >= 0 && !math.IsNaN(r.BIC) }

// Params returns the hyperparameters of a scored row.
func (r Row) Params() grid.Params {
	return grid.Params{K: r.K, Alpha: r.Alpha, LGexp: r.LGexp, LMri: r.LMri}
}

// Table is the result of a scoring pass.
type Table struct {
	Rows          []Row
	EmptyModelBIC float64
}

// Index returns the position of the named model.
func (t *Table) Index(model string) (int, bool) {
	for i, r := range t.Rows {
		if r.Model == model {
			return i, true
		}
	}
	return -1, false
}

// File layout of a score table.
const (
	ModelDim          = "model"
	AttrEmptyModelBIC = "empty_model_bic"
	columnK           = "k"
	columnNIter       = "n_iter"
)

type floatColumn struct {
	name  string
	field func(*Row) *float64
}

var floatColumns = []floatColumn{
	{"deviance_gexp", func(r *Row) *float64 { return &r.DevianceGexp }},
	{"dof_gexp", func(r *Row) *float64 { return &r.DofGexp }},
	{"deviance_mri", func(r *Row) *float64 { return &r.DevianceMri }},
	{"dof_mri", func(r *Row) *float64 { return &r.DofMri }},
	{"bic", func(r *Row) *float64 { return &r.BIC }},
	{"alpha", func(r *Row) *float64 { return &r.Alpha }},
	{"l_gexp", func(r *Row) *float64 { return &r.LGexp }},
	{"l_mri", func(r *Row) *float64 { return &r.LMri }},
	{"sparsity_gexp", func(r *Row) *float64 { return &r.SparsityGexp }},
	{"sparsity_mri", func(r *Row) *float64 { return &r.SparsityMri }},
	{"r2_gexp", func(r *Row) *float64 { return &r.R2Gexp }},
	{"r2_mri", func(r *Row) *float64 { return &r.R2Mri }},
	{"max_diff_coefficients", func(r *Row) *float64 { return &r.MaxDiffCoefficients }},
	{"max_diff_factors", func(r *Row) *float64 { return &r.MaxDiffFactors }},
}

type intColumn struct {
	name  string
	field func(*Row) *int
}

var intColumns = []intColumn{
	{columnK, func(r *Row) *int { return &r.K }},
	{columnNIter, func(r *Row) *int { return &r.NIter }},
}

// Write stores the table in a new container at path: one variable per
// column over the model dimension and the empty-model BIC as an attribute.
func (t *Table) Write(ctx context.Context, path string) error {
	f, err := container.Create(ctx, path)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Update(ctx, func(root *container.Group) error {
		if err := root.CreateDimension(ctx, ModelDim, len(t.Rows)); err != nil {
			return err
		}
		if err := root.SetAttr(ctx, AttrEmptyModelBIC, t.EmptyModelBIC); err != nil {
			return err
		}
		names := make([]string, len(t.Rows))
		for i, r := range t.Rows {
			names[i] = r.Model
		}
		if err := root.PutStrings(ctx, ModelDim, ModelDim, names); err != nil {
			return err
		}
		if len(t.Rows) == 0 {
			return nil
		}
		for _, c := range floatColumns {
			col := make([]float64, len(t.Rows))
			for i := range t.Rows {
				col[i] = *c.field(&t.Rows[i])
			}
			if err := root.PutFloat64(ctx, c.name, []string{ModelDim}, col); err != nil {
				return err
			}
		}
		for _, c := range intColumns {
			col := make([]int64, len(t.Rows))
			for i := range t.Rows {
				col[i] = int64(*c.field(&t.Rows[i]))
			}
			if err := root.PutInt64(ctx, c.name, []string{ModelDim}, col); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadTable reads a table written by Write.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	f, err := container.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	root := f.Root()

	t := &Table{}
	if t.EmptyModelBIC, err = root.AttrFloat64(ctx, AttrEmptyModelBIC); err != nil {
		return nil, errors.Wrapf(err, "scoring: %s is not a score table", path)
	}
	mv, err := root.Variable(ctx, ModelDim)
	if err != nil {
		return nil, err
	}
	names, err := mv.Strings()
	if err != nil {
		return nil, err
	}
	t.Rows = make([]Row, len(names))
	for i, n := range names {
		t.Rows[i].Model = n
	}
	if len(names) == 0 {
		return t, nil
	}

	for _, c := range floatColumns {
		v, err := root.Variable(ctx, c.name)
		if err != nil {
			return nil, err
		}
		col, err := v.Float64()
		if err != nil {
			return nil, err
		}
		if len(col) != len(names) {
			return nil, errors.NewDimensionError("scoring.ReadTable("+c.name+")", len(names), len(col), 0)
		}
		for i := range t.Rows {
			*c.field(&t.Rows[i]) = col[i]
		}
	}
	for _, c := range intColumns {
		v, err := root.Variable(ctx, c.name)
		if err != nil {
			return nil, err
		}
		col, err := v.Int64()
		if err != nil {
			return nil, err
		}
		if len(col) != len(names) {
			return nil, errors.NewDimensionError("scoring.ReadTable("+c.name+")", len(names), len(col), 0)
		}
		for i := range t.Rows {
			*c.field(&t.Rows[i]) = int(col[i])
		}
	}
	return t, nil
}
