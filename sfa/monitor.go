package sfa

import (
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// Metrics recorded by the ALS solver.
const (
	MaxDiffCoefficients = "max_diff_coefficients"
	MaxDiffFactors      = "max_diff_factors"
	ReconstructionError = "reconstruction_error"
)

// Monitor is the convergence trace of a fit: iteration numbers plus one
// equal-length series per named metric.
type Monitor struct {
	iterations []int
	names      []string
	series     map[string][]float64
}

// NewMonitor creates an empty monitor tracking the given metrics in order.
func NewMonitor(names ...string) *Monitor {
	m := &Monitor{
		names:  append([]string(nil), names...),
		series: make(map[string][]float64, len(names)),
	}
	for _, n := range names {
		m.series[n] = nil
	}
	return m
}

// MonitorFromColumns rebuilds a monitor from stored columns.
func MonitorFromColumns(iterations []int, names []string, columns [][]float64) (*Monitor, error) {
	if len(names) != len(columns) {
		return nil, errors.NewDimensionError("sfa.MonitorFromColumns", len(names), len(columns), 1)
	}
	m := NewMonitor(names...)
	m.iterations = append([]int(nil), iterations...)
	for i, n := range names {
		if len(columns[i]) != len(iterations) {
			return nil, errors.NewDimensionError("sfa.MonitorFromColumns("+n+")", len(iterations), len(columns[i]), 0)
		}
		m.series[n] = append([]float64(nil), columns[i]...)
	}
	return m, nil
}

// Record appends one row; values follow the order of Names.
func (m *Monitor) Record(iteration int, values ...float64) {
	m.iterations = append(m.iterations, iteration)
	for i, n := range m.names {
		v := 0.0
		if i < len(values) {
			v = values[i]
		}
		m.series[n] = append(m.series[n], v)
	}
}

// Len returns the number of recorded iterations.
func (m *Monitor) Len() int { return len(m.iterations) }

// Iterations returns the recorded iteration numbers.
func (m *Monitor) Iterations() []int { return append([]int(nil), m.iterations...) }

// Names returns the metric names in order.
func (m *Monitor) Names() []string { return append([]string(nil), m.names...) }

// Values returns the series of one metric, or nil when it is not tracked.
func (m *Monitor) Values(name string) []float64 {
	return append([]float64(nil), m.series[name]...)
}

// Last returns the final value of a metric.
func (m *Monitor) Last(name string) (float64, bool) {
	s := m.series[name]
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

// LastIteration returns the final iteration number, or 0 for an empty monitor.
func (m *Monitor) LastIteration() int {
	if len(m.iterations) == 0 {
		return 0
	}
	return m.iterations[len(m.iterations)-1]
}
