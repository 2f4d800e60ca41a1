package grid

import (
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// Spec holds the four range specifications of a sweep.
type Spec struct {
	K     string
	Alpha string
	LGexp string
	LMri  string
}

// DefaultSpec returns the command-line defaults.
func DefaultSpec() Spec {
	return Spec{K: "2", Alpha: "0.5", LGexp: "1.0", LMri: "1.0"}
}

// Axes is the parsed value list of each hyperparameter.
type Axes struct {
	K     []int
	Alpha []float64
	LGexp []float64
	LMri  []float64
}

// Parse parses every range. The first malformed range aborts with a RangeFormatError.
func (s Spec) Parse() (Axes, error) {
	var (
		a   Axes
		err error
	)
	if a.K, err = ParseIntRange(s.K); err != nil {
		return Axes{}, err
	}
	for _, k := range a.K {
		if k < 1 {
			return Axes{}, errors.NewRangeFormatError("int", s.K, "factor counts must be positive")
		}
	}
	if a.Alpha, err = ParseZeroOneRange(s.Alpha); err != nil {
		return Axes{}, err
	}
	if a.LGexp, err = ParseLog2Range(s.LGexp); err != nil {
		return Axes{}, err
	}
	if a.LMri, err = ParseLog2Range(s.LMri); err != nil {
		return Axes{}, err
	}
	return a, nil
}

// Size returns the number of combinations in the Cartesian product.
func (a Axes) Size() int {
	return len(a.K) * len(a.Alpha) * len(a.LGexp) * len(a.LMri)
}

// Product enumerates the Cartesian product with k outermost, then alpha,
// then l_gexp, then l_mri.
func (a Axes) Product() []Params {
	out := make([]Params, 0, a.Size())
	for _, k := range a.K {
		for _, alpha := range a.Alpha {
			for _, lg := range a.LGexp {
				for _, lm := range a.LMri {
					out = append(out, Params{K: k, Alpha: alpha, LGexp: lg, LMri: lm})
				}
			}
		}
	}
	return out
}

// Generate parses s and returns the full grid.
func (s Spec) Generate() ([]Params, error) {
	a, err := s.Parse()
	if err != nil {
		return nil, err
	}
	return a.Product(), nil
}
