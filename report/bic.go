// Package report draws diagnostic plots of a scored sweep.
package report

import (
	"fmt"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/scoring"
)

// Series is the BIC curve of one (k, alpha, l_mri) combination over l_gexp.
type Series struct {
	K     int
	Alpha float64
	LMri  float64
	// LGexp is ascending; BIC[i] belongs to LGexp[i].
	LGexp []float64
	BIC   []float64
}

// Label names the series in a legend.
func (s Series) Label() string {
	return fmt.Sprintf("k=%d alpha=%g l_mri=%g", s.K, s.Alpha, s.LMri)
}

// BICSeries groups the scored rows of t into curves, ordered by k, alpha
// and l_mri. Unscored rows are dropped.
func BICSeries(t *scoring.Table) []Series {
	type key struct {
		k     int
		alpha float64
		lMri  float64
	}
	byKey := map[key]*Series{}
	var keys []key
	for _, r := range t.Rows {
		if !r.Scored() {
			continue
		}
		k := key{r.K, r.Alpha, r.LMri}
		s, ok := byKey[k]
		if !ok {
			s = &Series{K: r.K, Alpha: r.Alpha, LMri: r.LMri}
			byKey[k] = s
			keys = append(keys, k)
		}
		s.LGexp = append(s.LGexp, r.LGexp)
		s.BIC = append(s.BIC, r.BIC)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.k != b.k {
			return a.k < b.k
		}
		if a.alpha != b.alpha {
			return a.alpha < b.alpha
		}
		return a.lMri < b.lMri
	})

	out := make([]Series, len(keys))
	for i, k := range keys {
		s := byKey[k]
		idx := make([]int, len(s.LGexp))
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool { return s.LGexp[idx[a]] < s.LGexp[idx[b]] })
		sorted := Series{K: s.K, Alpha: s.Alpha, LMri: s.LMri}
		for _, j := range idx {
			sorted.LGexp = append(sorted.LGexp, s.LGexp[j])
			sorted.BIC = append(sorted.BIC, s.BIC[j])
		}
		out[i] = sorted
	}
	return out
}

// Palette returns n evenly spaced hues of equal chroma and lightness.
func Palette(n int) []colorful.Color {
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = colorful.Hcl(360*float64(i)/float64(max(n, 1)), 0.5, 0.55).Clamped()
	}
	return out
}

// PlotBIC draws BIC against log2(l_gexp) with one line per series and a
// dashed line at the empty-model BIC, and saves it to path. The format
// follows the file extension (png, svg, pdf, ...). A zero penalty is drawn
// one unit left of the smallest positive one.
func PlotBIC(t *scoring.Table, path string) error {
	series := BICSeries(t)
	if len(series) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "report: no scored models to plot")
	}

	zeroAt := math.Inf(1)
	for _, s := range series {
		for _, l := range s.LGexp {
			if l > 0 {
				zeroAt = math.Min(zeroAt, math.Log2(l))
			}
		}
	}
	if math.IsInf(zeroAt, 1) {
		zeroAt = 0
	}
	zeroAt--

	p := plot.New()
	p.Title.Text = "Model selection"
	p.X.Label.Text = "log2(l_gexp)"
	p.Y.Label.Text = "BIC"
	p.Legend.Top = true

	colors := Palette(len(series))
	for i, s := range series {
		pts := make(plotter.XYs, len(s.LGexp))
		for j, l := range s.LGexp {
			pts[j].X = zeroAt
			if l > 0 {
				pts[j].X = math.Log2(l)
			}
			pts[j].Y = s.BIC[j]
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return errors.Wrapf(err, "report: series %s", s.Label())
		}
		line.Color = colors[i]
		points.Color = colors[i]
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add(s.Label(), line, points)
	}

	if !math.IsNaN(t.EmptyModelBIC) && !math.IsInf(t.EmptyModelBIC, 0) {
		empty := plotter.NewFunction(func(float64) float64 { return t.EmptyModelBIC })
		empty.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(empty)
		p.Legend.Add("empty model", empty)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "report: save %s", path)
	}
	return nil
}
