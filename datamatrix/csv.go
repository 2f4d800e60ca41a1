package datamatrix

import (
	"encoding/csv"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/preprocessing"
)

// FromCSV reads a view from CSV. The header row holds feature identifiers
// after one leading cell; every following row is a sample identifier followed
// by one value per feature. All weights are one.
func FromCSV(r io.Reader) (*DataMatrix, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("datamatrix.FromCSV", "empty input", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "datamatrix: read CSV header")
	}
	if len(header) < 2 {
		return nil, errors.NewValidationError("header", "need a sample column and at least one feature", header)
	}
	features := header[1:]

	var (
		samples []string
		values  []float64
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "datamatrix: read CSV line %d", line)
		}
		samples = append(samples, rec[0])
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "datamatrix: line %d feature %s", line, features[j])
			}
			values = append(values, v)
		}
	}
	if len(samples) == 0 {
		return nil, errors.NewModelError("datamatrix.FromCSV", "no samples", errors.ErrEmptyData)
	}
	return New(mat.NewDense(len(samples), len(features), values), nil, samples, features)
}

// Standardize centres every feature and assigns one uniform weight, the
// inverse of the pooled standard deviation, so the weighted view has unit
// variance.
func Standardize(d *DataMatrix) (*DataMatrix, error) {
	centre := preprocessing.NewStandardScaler(true, false)
	centred, err := centre.FitTransform(d.Data)
	if err != nil {
		return nil, err
	}
	pooled := preprocessing.NewPooledScaler()
	if err := pooled.Fit(centred); err != nil {
		return nil, err
	}

	r, c := centred.Dims()
	w := 1 / pooled.Scale[0]
	weights := mat.NewDense(r, c, nil)
	weights.Apply(func(int, int, float64) float64 { return w }, weights)
	return New(centred, weights, d.Samples, d.Features)
}
