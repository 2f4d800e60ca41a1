// Package grid defines the hyperparameter combination of one factor model fit
// and expands compact range specifications into the full sweep grid.
package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// Params is one hyperparameter combination: the number of factors, the
// elastic-net mixing ratio and one penalty strength per view.
type Params struct {
	K     int
	Alpha float64
	LGexp float64
	LMri  float64
}

// String returns the human-readable form used in log messages.
func (p Params) String() string {
	return fmt.Sprintf("Params(k=%d, alpha=%.2e, l_gexp=%.2e, l_mri=%.2e)", p.K, p.Alpha, p.LGexp, p.LMri)
}

// GroupName returns the storage key M_<k>_<alpha>_<l_gexp>_<l_mri>.
// Floats use the shortest round-trip form with a trailing ".0" for integral
// values, so 1 becomes "1.0" and 2^-20 becomes "9.5367431640625e-07". A
// zero penalty is written "0.0".
func (p Params) GroupName() string {
	return "M_" + strconv.Itoa(p.K) + "_" + formatFloat(p.Alpha) + "_" +
		formatFloat(p.LGexp) + "_" + formatFloat(p.LMri)
}

// Penalties returns the per-view L1 and L2 penalties for this combination:
// l1 = l·alpha and l2 = l2Eps + l·(1−alpha), in view order (gexp, mri).
func (p Params) Penalties(l2Eps float64) (l1, l2 []float64) {
	ls := []float64{p.LGexp, p.LMri}
	l1 = make([]float64, len(ls))
	l2 = make([]float64, len(ls))
	for i, l := range ls {
		l1[i] = l * p.Alpha
		l2[i] = l2Eps + l*(1-p.Alpha)
	}
	return l1, l2
}

// ParseGroupName is the inverse of GroupName. It also accepts integer
// fields such as the "0" older sweeps wrote for an unpenalised view.
func ParseGroupName(name string) (Params, error) {
	parts := strings.Split(name, "_")
	if len(parts) != 5 || parts[0] != "M" {
		return Params{}, errors.NewValidationError("group", "expected M_<k>_<alpha>_<l_gexp>_<l_mri>", name)
	}
	k, err := strconv.Atoi(parts[1])
	if err != nil {
		return Params{}, errors.Wrapf(err, "grid: group %s", name)
	}
	var vals [3]float64
	for i, s := range parts[2:] {
		if vals[i], err = parseFloat(s); err != nil {
			return Params{}, errors.Wrapf(err, "grid: group %s", name)
		}
	}
	return Params{K: k, Alpha: vals[0], LGexp: vals[1], LMri: vals[2]}, nil
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	e := strconv.FormatFloat(v, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if v != 0 && (exp < -4 || exp >= 16) {
		return e
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func parseFloat(s string) (float64, error) {
	switch s {
	case "nan":
		return math.NaN(), nil
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}
