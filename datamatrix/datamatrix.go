// Package datamatrix holds the data views a factor model is fitted on.
//
// A DataMatrix is one view (samples × features) with a weight per observation;
// a Stacked groups several views that share the same sample axis.
package datamatrix

import (
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// DataMatrix is one data view with sample and feature identifiers.
type DataMatrix struct {
	Data     *mat.Dense
	Weights  *mat.Dense
	Samples  []string
	Features []string
}

// New validates and builds a DataMatrix. A nil weights matrix means all ones.
func New(data, weights *mat.Dense, samples, features []string) (*DataMatrix, error) {
	if data == nil {
		return nil, errors.NewModelError("datamatrix.New", "empty data", errors.ErrEmptyData)
	}
	r, c := data.Dims()
	if len(samples) != r {
		return nil, errors.NewDimensionError("datamatrix.New(samples)", r, len(samples), 0)
	}
	if len(features) != c {
		return nil, errors.NewDimensionError("datamatrix.New(features)", c, len(features), 1)
	}
	seen := make(map[string]struct{}, c)
	for _, f := range features {
		if _, dup := seen[f]; dup {
			return nil, errors.NewValidationError("features", "feature identifiers must be unique", f)
		}
		seen[f] = struct{}{}
	}

	if weights == nil {
		weights = mat.NewDense(r, c, nil)
		weights.Apply(func(int, int, float64) float64 { return 1 }, weights)
	}
	wr, wc := weights.Dims()
	if wr != r {
		return nil, errors.NewDimensionError("datamatrix.New(weights)", r, wr, 0)
	}
	if wc != c {
		return nil, errors.NewDimensionError("datamatrix.New(weights)", c, wc, 1)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if w := weights.At(i, j); !(w > 0) {
				return nil, errors.NewValidationError("weights", "weights must be strictly positive", w)
			}
		}
	}

	return &DataMatrix{
		Data:     data,
		Weights:  weights,
		Samples:  append([]string(nil), samples...),
		Features: append([]string(nil), features...),
	}, nil
}

// Dims returns the number of samples and features.
func (d *DataMatrix) Dims() (samples, features int) {
	return d.Data.Dims()
}

// Weighted returns data ∘ weights, the matrix the factor model actually fits.
func (d *DataMatrix) Weighted() *mat.Dense {
	r, c := d.Data.Dims()
	out := mat.NewDense(r, c, nil)
	out.MulElem(d.Data, d.Weights)
	return out
}

// Slice is the half-open range of a view's columns in the concatenated feature axis.
type Slice struct {
	Start, End int
}

// Stacked is an ordered set of named views sharing one sample axis.
type Stacked struct {
	views  []*DataMatrix
	names  []string
	index  map[string]int
	slices []Slice
}

// NewStacked checks that every view has the same samples in the same order
// and that view names are unique.
func NewStacked(views []*DataMatrix, names []string) (*Stacked, error) {
	if len(views) == 0 {
		return nil, errors.NewModelError("datamatrix.NewStacked", "no views", errors.ErrEmptyData)
	}
	if len(views) != len(names) {
		return nil, errors.NewDimensionError("datamatrix.NewStacked(names)", len(views), len(names), 0)
	}

	s := &Stacked{
		views:  append([]*DataMatrix(nil), views...),
		names:  append([]string(nil), names...),
		index:  make(map[string]int, len(names)),
		slices: make([]Slice, len(views)),
	}
	ref := views[0].Samples
	offset := 0
	for i, v := range views {
		if _, dup := s.index[names[i]]; dup {
			return nil, errors.NewValidationError("names", "view names must be unique", names[i])
		}
		s.index[names[i]] = i

		if len(v.Samples) != len(ref) {
			return nil, errors.NewSampleMismatchError(names[i], -1,
				strconv.Itoa(len(ref)), strconv.Itoa(len(v.Samples)))
		}
		for j := range ref {
			if v.Samples[j] != ref[j] {
				return nil, errors.NewSampleMismatchError(names[i], j, ref[j], v.Samples[j])
			}
		}

		_, p := v.Dims()
		s.slices[i] = Slice{Start: offset, End: offset + p}
		offset += p
	}
	return s, nil
}

// Len returns the number of views.
func (s *Stacked) Len() int { return len(s.views) }

// View returns the i-th view.
func (s *Stacked) View(i int) *DataMatrix { return s.views[i] }

// Views returns all views in order.
func (s *Stacked) Views() []*DataMatrix { return append([]*DataMatrix(nil), s.views...) }

// ViewByName returns the view registered under name.
func (s *Stacked) ViewByName(name string) (*DataMatrix, error) {
	i, ok := s.index[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "datamatrix: view %q", name)
	}
	return s.views[i], nil
}

// Index returns the position of the named view.
func (s *Stacked) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns the view names in order.
func (s *Stacked) Names() []string { return append([]string(nil), s.names...) }

// Samples returns the shared sample identifiers.
func (s *Stacked) Samples() []string { return append([]string(nil), s.views[0].Samples...) }

// NSamples returns the number of shared samples.
func (s *Stacked) NSamples() int { return len(s.views[0].Samples) }

// Features returns the concatenation of every view's feature identifiers.
func (s *Stacked) Features() []string {
	var out []string
	for _, v := range s.views {
		out = append(out, v.Features...)
	}
	return out
}

// Slices returns the column range of each view in Features.
func (s *Stacked) Slices() []Slice { return append([]Slice(nil), s.slices...) }

// Weighted returns the weighted data of every view.
func (s *Stacked) Weighted() []*mat.Dense {
	out := make([]*mat.Dense, len(s.views))
	for i, v := range s.views {
		out[i] = v.Weighted()
	}
	return out
}
