package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/container"
	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/grid"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/sfa"
	"github.com/YuminosukeSato/sfasweep/sfa/sfatest"
	"github.com/YuminosukeSato/sfasweep/sweep"
)

func fitted(t *testing.T, tr *sfatest.Truth, p grid.Params) *sweep.FitResult {
	t.Helper()
	stub := &sfatest.Stub{Truth: tr, Plan: func(sfa.Problem) sfatest.Step {
		return sfatest.Step{Scale: 0.5, Iterations: 7}
	}}
	w, err := sweep.NewWorker(tr.Data, stub, sweep.DefaultConfig())
	require.NoError(t, err)
	res := w.Fit(p)
	require.True(t, res.Succeeded())
	return res
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	tr, err := sfatest.LowRank(10, 2, [2]int{6, 3}, 1, 11)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sweep.db")

	w, err := Create(ctx, path, tr.Data)
	require.NoError(t, err)
	ok := fitted(t, tr, grid.Params{K: 2, Alpha: 0.5, LGexp: 0.25, LMri: 1})
	failed := &sweep.FitResult{
		Params: grid.Params{K: 3, Alpha: 0.5, LGexp: 0, LMri: 1},
		Err:    errors.NewSolverFailure("k=3", errors.New("diverged")),
	}
	require.NoError(t, w.Write(ctx, failed))
	require.NoError(t, w.Write(ctx, ok))
	require.NoError(t, w.Close())

	r, err := Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, tr.Data.Samples(), r.Samples())
	assert.Equal(t, tr.Data.View(0).Features, r.Features(0))
	assert.Equal(t, tr.Data.View(1).Features, r.Features(1))
	assert.Equal(t, []string{"gexp", "mri"}, r.ViewNames())

	names, err := r.ModelNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"M_3_0.5_0.0_1.0", "M_2_0.5_0.25_1.0"}, names)

	m, err := r.Model(ctx, "M_2_0.5_0.25_1.0")
	require.NoError(t, err)
	assert.True(t, m.Fitted)
	assert.Equal(t, ok.Params, m.Params)
	assert.True(t, mat.Equal(ok.Outcome.Factors, m.Factors))
	for i := range Views {
		assert.True(t, mat.Equal(ok.Outcome.Coefficients[i], m.Coefficients[i]), CoefficientVar(i))
	}
	assert.Equal(t, ok.Outcome.Monitor.Iterations(), m.Monitor.Iterations())
	assert.Equal(t, ok.Outcome.Monitor.Names(), m.Monitor.Names())
	for _, name := range m.Monitor.Names() {
		assert.Equal(t, ok.Outcome.Monitor.Values(name), m.Monitor.Values(name))
	}

	f, err := r.Model(ctx, "M_3_0.5_0.0_1.0")
	require.NoError(t, err)
	assert.False(t, f.Fitted)
	assert.Nil(t, f.Factors)
	assert.Contains(t, f.FitError, "diverged")
	assert.Equal(t, 3, f.Params.K)

	g, err := r.Group(ctx, "M_3_0.5_0.0_1.0")
	require.NoError(t, err)
	has, err := g.HasVariable(ctx, FactorVar)
	require.NoError(t, err)
	assert.False(t, has)
	k, err := g.Dimension(ctx, FactorDim)
	require.NoError(t, err)
	assert.Equal(t, 3, k)
}

func TestCreateRequiresTwoViews(t *testing.T) {
	tr, err := sfatest.LowRank(5, 1, [2]int{2, 2}, 1, 1)
	require.NoError(t, err)
	one, err := datamatrix.NewStacked([]*datamatrix.DataMatrix{tr.Data.View(0)}, []string{"gexp"})
	require.NoError(t, err)

	_, err = Create(context.Background(), filepath.Join(t.TempDir(), "s.db"), one)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestDuplicateGroupIsRejected(t *testing.T) {
	ctx := context.Background()
	tr, err := sfatest.LowRank(6, 2, [2]int{3, 2}, 1, 2)
	require.NoError(t, err)
	w, err := Create(ctx, filepath.Join(t.TempDir(), "s.db"), tr.Data)
	require.NoError(t, err)
	defer w.Close()

	res := fitted(t, tr, grid.Params{K: 2, Alpha: 1, LGexp: 1, LMri: 1})
	require.NoError(t, w.WriteResult(ctx, res))
	assert.Error(t, w.WriteResult(ctx, res))
}

// writeInconsistent builds a store whose only model has factor_value but no
// coefficients or monitor.
func writeInconsistent(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	f, err := container.Create(ctx, path)
	require.NoError(t, err)
	defer f.Close()
	err = f.Update(ctx, func(root *container.Group) error {
		require.NoError(t, root.SetAttr(ctx, AttrViewNames, []string{"gexp", "mri"}))
		for _, d := range []string{SampleDim, Views[0].Dim, Views[1].Dim} {
			require.NoError(t, root.CreateDimension(ctx, d, 2))
			require.NoError(t, root.PutStrings(ctx, d, d, []string{d + "1", d + "2"}))
		}
		models, err := root.CreateGroup(ctx, ModelsGroup)
		require.NoError(t, err)
		g, err := models.CreateGroup(ctx, "M_1_0.5_1.0_1.0")
		require.NoError(t, err)
		require.NoError(t, g.CreateDimension(ctx, FactorDim, 1))
		require.NoError(t, writeParams(ctx, g, grid.Params{K: 1, Alpha: 0.5, LGexp: 1, LMri: 1}))
		return g.PutFloat64(ctx, FactorVar, []string{SampleDim, FactorDim}, []float64{1, 2})
	})
	require.NoError(t, err)
}

func TestModelMissingVariables(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bad.db")
	writeInconsistent(t, path)

	r, err := Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Model(ctx, "M_1_0.5_1.0_1.0")
	var mv *errors.MissingVariableError
	require.True(t, errors.As(err, &mv))
	assert.Contains(t, err.Error(), "coefficient_gexp")
	assert.Contains(t, err.Error(), MonitorGroup)
}

func TestCopyModel(t *testing.T) {
	ctx := context.Background()
	tr, err := sfatest.LowRank(8, 2, [2]int{5, 3}, 1, 5)
	require.NoError(t, err)
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.db")

	w, err := Create(ctx, path, tr.Data)
	require.NoError(t, err)
	a := fitted(t, tr, grid.Params{K: 2, Alpha: 0.5, LGexp: 1, LMri: 1})
	b := fitted(t, tr, grid.Params{K: 1, Alpha: 0.5, LGexp: 2, LMri: 1})
	require.NoError(t, w.Write(ctx, a))
	require.NoError(t, w.Write(ctx, b))
	require.NoError(t, w.Write(ctx, &sweep.FitResult{Params: grid.Params{K: 3, Alpha: 0.5, LGexp: 1, LMri: 1}, Err: errors.New("x")}))
	require.NoError(t, w.Close())

	r, err := Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	out := filepath.Join(dir, "best.db")
	name := b.Params.GroupName()
	require.NoError(t, CopyModel(ctx, r, name, out))

	m, err := ReadStandalone(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, name, m.Name)
	assert.Equal(t, b.Params, m.Params)
	assert.True(t, mat.Equal(b.Outcome.Factors, m.Factors))
	assert.True(t, mat.Equal(b.Outcome.Coefficients[1], m.Coefficients[1]))
	assert.Equal(t, 7, m.Monitor.LastIteration())

	f, err := container.Open(ctx, out)
	require.NoError(t, err)
	defer f.Close()
	groups, err := f.Root().Groups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, MonitorGroup, groups[0].Name())
	for _, v := range []string{SampleDim, "gene", "cad_feature"} {
		has, err := f.Root().HasVariable(ctx, v)
		require.NoError(t, err)
		assert.True(t, has, v)
	}

	assert.Error(t, CopyModel(ctx, r, "M_3_0.5_1.0_1.0", filepath.Join(dir, "failed.db")))
	_, err = r.Group(ctx, "M_9_0.5_1.0_1.0")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCopyModelRemovesPartialFile(t *testing.T) {
	ctx := context.Background()
	tr, err := sfatest.LowRank(4, 1, [2]int{2, 2}, 1, 8)
	require.NoError(t, err)
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.db")

	// The model group redeclares the root's sample dimension, which cannot
	// be copied onto the same root.
	f, err := container.Create(ctx, path)
	require.NoError(t, err)
	name := "M_1_0.5_1.0_1.0"
	err = f.Update(ctx, func(root *container.Group) error {
		require.NoError(t, root.SetAttr(ctx, AttrViewNames, tr.Data.Names()))
		require.NoError(t, root.CreateDimension(ctx, SampleDim, 4))
		require.NoError(t, root.PutStrings(ctx, SampleDim, SampleDim, tr.Data.Samples()))
		for i, v := range Views {
			require.NoError(t, root.CreateDimension(ctx, v.Dim, 2))
			require.NoError(t, root.PutStrings(ctx, v.Dim, v.Dim, tr.Data.View(i).Features))
		}
		models, err := root.CreateGroup(ctx, ModelsGroup)
		require.NoError(t, err)
		g, err := models.CreateGroup(ctx, name)
		require.NoError(t, err)
		require.NoError(t, g.CreateDimension(ctx, SampleDim, 4))
		require.NoError(t, g.CreateDimension(ctx, FactorDim, 1))
		return g.PutDense(ctx, FactorVar, [2]string{SampleDim, FactorDim}, tr.Factors)
	})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(ctx, path)
	require.NoError(t, err)
	defer r.Close()

	out := filepath.Join(dir, "best.db")
	assert.Error(t, CopyModel(ctx, r, name, out))
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "partial output left behind: %v", err)
}
