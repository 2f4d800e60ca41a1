package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/scoring"
)

func table() *scoring.Table {
	mk := func(k int, lg, bic float64) scoring.Row {
		return scoring.Row{Model: "m", K: k, Alpha: 0.5, LGexp: lg, LMri: 1, BIC: bic, NIter: 3}
	}
	return &scoring.Table{
		EmptyModelBIC: 500,
		Rows: []scoring.Row{
			mk(3, 1, 30),
			mk(2, 4, 12),
			scoring.MissingRow("failed"),
			mk(2, 0, 20),
			mk(2, 0.5, 10),
			mk(3, 0, 40),
		},
	}
}

func TestBICSeries(t *testing.T) {
	series := BICSeries(table())
	require.Len(t, series, 2)

	assert.Equal(t, 2, series[0].K)
	assert.Equal(t, []float64{0, 0.5, 4}, series[0].LGexp)
	assert.Equal(t, []float64{20, 10, 12}, series[0].BIC)
	assert.Equal(t, "k=2 alpha=0.5 l_mri=1", series[0].Label())

	assert.Equal(t, 3, series[1].K)
	assert.Equal(t, []float64{0, 1}, series[1].LGexp)
}

func TestPalette(t *testing.T) {
	p := Palette(4)
	require.Len(t, p, 4)
	for i, c := range p {
		assert.True(t, c.IsValid(), "color %d", i)
	}
	assert.NotEqual(t, p[0].Hex(), p[1].Hex())
}

func TestPlotBIC(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bic.png", "bic.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, PlotBIC(table(), path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	noEmpty := table()
	noEmpty.EmptyModelBIC = math.NaN()
	assert.NoError(t, PlotBIC(noEmpty, filepath.Join(dir, "no-empty.png")))

	err := PlotBIC(&scoring.Table{Rows: []scoring.Row{scoring.MissingRow("x")}}, filepath.Join(dir, "x.png"))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
