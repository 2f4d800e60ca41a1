package grid

import (
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// ParseIntRange parses "start[:stop[:step]]", inclusive of stop.
func ParseIntRange(spec string) ([]int, error) {
	parts := strings.Split(spec, ":")
	if len(parts) > 3 {
		return nil, errors.NewRangeFormatError("int", spec, "expected start[:stop[:step]]")
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.NewRangeFormatError("int", spec, "not an integer: "+p)
		}
		nums[i] = n
	}
	start, stop, step := nums[0], nums[0], 1
	if len(nums) > 1 {
		stop = nums[1]
	}
	if len(nums) > 2 {
		step = nums[2]
	}
	if step <= 0 {
		return nil, errors.NewRangeFormatError("int", spec, "step must be positive")
	}
	if stop < start {
		return nil, errors.NewRangeFormatError("int", spec, "stop is below start")
	}

	var out []int
	for v := start; v <= stop; v += step {
		out = append(out, v)
	}
	return out, nil
}

// ParseZeroOneRange parses "value" or "start:stop[:step]" within [0, 1].
// The step must divide stop−start to six decimals.
func ParseZeroOneRange(spec string) ([]float64, error) {
	nums, err := parseFloats("zero-one", spec)
	if err != nil {
		return nil, err
	}
	if len(nums) == 1 {
		if nums[0] < 0 || nums[0] > 1 {
			return nil, errors.NewRangeFormatError("zero-one", spec, "value outside [0, 1]")
		}
		return nums, nil
	}
	start, stop, step := expand3(nums)
	if start < 0 {
		return nil, errors.NewRangeFormatError("zero-one", spec, "range is under 0")
	}
	if stop > 1 {
		return nil, errors.NewRangeFormatError("zero-one", spec, "range is above 1")
	}
	n, err := steps("zero-one", spec, start, stop, step)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n+1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}

// ParseLog2Range parses "z" (literal zero), "exponent" (2^exponent) or
// "start:stop[:step]", which yields 0 followed by 2^(start+i·step) up to stop.
func ParseLog2Range(spec string) ([]float64, error) {
	if strings.TrimSpace(spec) == "z" {
		return []float64{0}, nil
	}
	nums, err := parseFloats("log2", spec)
	if err != nil {
		return nil, err
	}
	if len(nums) == 1 {
		return []float64{math.Exp2(nums[0])}, nil
	}
	start, stop, step := expand3(nums)
	n, err := steps("log2", spec, start, stop, step)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, n+2)
	out = append(out, 0)
	for i := 0; i <= n; i++ {
		out = append(out, math.Exp2(start+float64(i)*step))
	}
	return out, nil
}

func parseFloats(kind, spec string) ([]float64, error) {
	parts := strings.Split(spec, ":")
	if len(parts) > 3 {
		return nil, errors.NewRangeFormatError(kind, spec, "expected value or start:stop[:step]")
	}
	nums := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewRangeFormatError(kind, spec, "not a finite number: "+p)
		}
		nums[i] = v
	}
	return nums, nil
}

// expand3 applies the default step of 1 to a two-part range.
func expand3(nums []float64) (start, stop, step float64) {
	start, stop, step = nums[0], nums[1], 1
	if len(nums) == 3 {
		step = nums[2]
	}
	return start, stop, step
}

// steps returns (stop−start)/step rounded to six decimals, which must be a
// non-negative integer.
func steps(kind, spec string, start, stop, step float64) (int, error) {
	if step <= 0 {
		return 0, errors.NewRangeFormatError(kind, spec, "step must be positive")
	}
	n := math.Round((stop-start)/step*1e6) / 1e6
	if n < 0 {
		return 0, errors.NewRangeFormatError(kind, spec, "stop is below start")
	}
	if n != math.Trunc(n) {
		return 0, errors.NewRangeFormatError(kind, spec, "step does not divide the range")
	}
	return int(n), nil
}
