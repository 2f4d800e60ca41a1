package datamatrix

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

func view(t *testing.T, samples []string, p int, scale float64) *DataMatrix {
	t.Helper()
	n := len(samples)
	data := mat.NewDense(n, p, nil)
	data.Apply(func(i, j int, _ float64) float64 { return scale * float64(i*p+j+1) }, data)
	features := make([]string, p)
	for j := range features {
		features[j] = "f" + string(rune('a'+j))
	}
	d, err := New(data, nil, samples, features)
	require.NoError(t, err)
	return d
}

func TestNewValidates(t *testing.T) {
	data := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	tests := []struct {
		name     string
		weights  *mat.Dense
		samples  []string
		features []string
		check    func(error) bool
	}{
		{"sample count", nil, []string{"a"}, []string{"x", "y"}, isDimension},
		{"feature count", nil, []string{"a", "b"}, []string{"x"}, isDimension},
		{"duplicate feature", nil, []string{"a", "b"}, []string{"x", "x"}, isValidation},
		{"weight shape", mat.NewDense(2, 1, []float64{1, 1}), []string{"a", "b"}, []string{"x", "y"}, isDimension},
		{"zero weight", mat.NewDense(2, 2, []float64{1, 0, 1, 1}), []string{"a", "b"}, []string{"x", "y"}, isValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(data, tt.weights, tt.samples, tt.features)
			require.Error(t, err)
			assert.True(t, tt.check(err), "%v", err)
		})
	}
}

func isDimension(err error) bool {
	var e *errors.DimensionError
	return errors.As(err, &e)
}

func isValidation(err error) bool {
	var e *errors.ValidationError
	return errors.As(err, &e)
}

func TestWeighted(t *testing.T) {
	d, err := New(mat.NewDense(1, 2, []float64{2, 3}), mat.NewDense(1, 2, []float64{0.5, 2}),
		[]string{"s"}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 6}, d.Weighted().RawMatrix().Data)
}

func TestNewStacked(t *testing.T) {
	samples := []string{"c1", "c2", "c3"}
	g := view(t, samples, 4, 1)
	m := view(t, samples, 2, 10)

	s, err := NewStacked([]*DataMatrix{g, m}, []string{"gexp", "mri"})
	require.NoError(t, err)
	assert.Equal(t, []Slice{{0, 4}, {4, 6}}, s.Slices())
	assert.Len(t, s.Features(), 6)
	i, ok := s.Index("mri")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, err = s.ViewByName("rna")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = NewStacked([]*DataMatrix{g, m}, []string{"gexp", "gexp"})
	assert.True(t, isValidation(err))
}

func TestNewStackedSampleMismatch(t *testing.T) {
	g := view(t, []string{"c1", "c2", "c3"}, 2, 1)
	tests := []struct {
		name      string
		other     *DataMatrix
		wantIndex int
	}{
		{"reordered", view(t, []string{"c1", "c3", "c2"}, 2, 1), 1},
		{"shorter", view(t, []string{"c1", "c2"}, 2, 1), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStacked([]*DataMatrix{g, tt.other}, []string{"gexp", "mri"})
			var sm *errors.SampleMismatchError
			require.True(t, errors.As(err, &sm))
			assert.Equal(t, "mri", sm.View)
			assert.Equal(t, tt.wantIndex, sm.Index)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	samples := []string{"c1", "c2", "c3"}
	s, err := NewStacked([]*DataMatrix{view(t, samples, 4, 1), view(t, samples, 2, 0.1)}, []string{"gexp", "mri"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "data.db")
	require.NoError(t, s.Save(ctx, path, []string{"gene", "cad_feature"}))

	got, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, s.Names(), got.Names())
	assert.Equal(t, samples, got.Samples())
	for i := 0; i < s.Len(); i++ {
		assert.True(t, mat.Equal(s.View(i).Data, got.View(i).Data))
		assert.True(t, mat.Equal(s.View(i).Weights, got.View(i).Weights))
		assert.Equal(t, s.View(i).Features, got.View(i).Features)
	}
	dims, err := FeatureDims(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"gene", "cad_feature"}, dims)
}

func TestFromCSVAndStandardize(t *testing.T) {
	in := "case,a,b\ns1,1,4\ns2,2,5\ns3,3,9\n"
	d, err := FromCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3"}, d.Samples)
	assert.Equal(t, []string{"a", "b"}, d.Features)
	assert.Equal(t, 9.0, d.Data.At(2, 1))

	std, err := Standardize(d)
	require.NoError(t, err)
	w := std.Weighted()
	var ss float64
	for _, v := range w.RawMatrix().Data {
		ss += v * v
	}
	assert.InDelta(t, 1.0, ss/6, 1e-12)
	assert.Equal(t, std.Weights.At(0, 0), std.Weights.At(2, 1))

	_, err = FromCSV(strings.NewReader("case,a\ns1,x\n"))
	assert.Error(t, err)
}
