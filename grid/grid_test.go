package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

func isRangeError(t *testing.T, err error) {
	t.Helper()
	var re *errors.RangeFormatError
	assert.True(t, errors.As(err, &re), "expected RangeFormatError, got %v", err)
}

func TestParseIntRange(t *testing.T) {
	tests := []struct {
		spec    string
		want    []int
		wantErr bool
	}{
		{"2", []int{2}, false},
		{"2:3", []int{2, 3}, false},
		{"1:10:3", []int{1, 4, 7, 10}, false},
		{"1:9:3", []int{1, 4, 7}, false},
		{"3:2", nil, true},
		{"1:5:0", nil, true},
		{"a", nil, true},
		{"1:2:3:4", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseIntRange(tt.spec)
			if tt.wantErr {
				isRangeError(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseZeroOneRange(t *testing.T) {
	tests := []struct {
		spec    string
		want    []float64
		wantErr bool
	}{
		{"0.5", []float64{0.5}, false},
		{"0:1:0.25", []float64{0.0, 0.25, 0.5, 0.75, 1.0}, false},
		{"0:1", []float64{0, 1}, false},
		{"0.1:0.3:0.1", []float64{0.1, 0.2, 0.30000000000000004}, false},
		{"1.5", nil, true},
		{"-0.1", nil, true},
		{"-0.5:1:0.5", nil, true},
		{"0:1.5:0.5", nil, true},
		{"0:1:0.3", nil, true},
		{"x:1:0.5", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseZeroOneRange(tt.spec)
			if tt.wantErr {
				isRangeError(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestParseLog2Range(t *testing.T) {
	tests := []struct {
		spec    string
		want    []float64
		wantErr bool
	}{
		{"z", []float64{0}, false},
		{"-1:1:1", []float64{0, 0.5, 1, 2}, false},
		{"3", []float64{8}, false},
		{"-2:2", []float64{0, 0.25, 0.5, 1, 2, 4}, false},
		{"2:3:0.5", []float64{0, 4, math.Exp2(2.5), 8}, false},
		{"0:1:0.3", nil, true},
		{"1:0:1", nil, true},
		{"zz", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseLog2Range(tt.spec)
			if tt.wantErr {
				isRangeError(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestGenerateIsCartesianProduct(t *testing.T) {
	specs := []Spec{
		DefaultSpec(),
		{K: "2:3", Alpha: "0.5", LGexp: "0", LMri: "0"},
		{K: "1:4", Alpha: "0:1:0.5", LGexp: "-1:1:1", LMri: "z"},
		{K: "2:10:4", Alpha: "0:1:0.25", LGexp: "-2:2", LMri: "-3:0:1"},
	}
	for _, s := range specs {
		a, err := s.Parse()
		require.NoError(t, err)
		ps, err := s.Generate()
		require.NoError(t, err)
		assert.Len(t, ps, len(a.K)*len(a.Alpha)*len(a.LGexp)*len(a.LMri))

		seen := make(map[string]bool)
		for _, p := range ps {
			assert.False(t, seen[p.GroupName()], "duplicate %s", p.GroupName())
			seen[p.GroupName()] = true
		}
	}
}

func TestProductOrder(t *testing.T) {
	ps, err := Spec{K: "1:2", Alpha: "0:1", LGexp: "z", LMri: "0:1:1"}.Generate()
	require.NoError(t, err)
	require.Len(t, ps, 12)
	assert.Equal(t, Params{K: 1, Alpha: 0, LGexp: 0, LMri: 0}, ps[0])
	assert.Equal(t, Params{K: 1, Alpha: 0, LGexp: 0, LMri: 1}, ps[1])
	assert.Equal(t, Params{K: 1, Alpha: 0, LGexp: 0, LMri: 2}, ps[2])
	assert.Equal(t, Params{K: 1, Alpha: 1, LGexp: 0, LMri: 0}, ps[3])
	assert.Equal(t, 2, ps[6].K)
}

func TestGenerateRejectsNonPositiveK(t *testing.T) {
	_, err := Spec{K: "0:2", Alpha: "0.5", LGexp: "z", LMri: "z"}.Generate()
	isRangeError(t, err)
}

func TestGroupName(t *testing.T) {
	tests := []struct {
		p    Params
		want string
	}{
		{Params{K: 2, Alpha: 0.5, LGexp: 1, LMri: 1}, "M_2_0.5_1.0_1.0"},
		{Params{K: 3, Alpha: 0, LGexp: 0, LMri: 0.25}, "M_3_0.0_0.0_0.25"},
		{Params{K: 5, Alpha: 1, LGexp: math.Exp2(-20), LMri: 1024}, "M_5_1.0_9.5367431640625e-07_1024.0"},
		{Params{K: 4, Alpha: 0.75, LGexp: 1e-4, LMri: 1e16}, "M_4_0.75_0.0001_1e+16"},
		{Params{K: 2, Alpha: 0.1, LGexp: 0.30000000000000004, LMri: 6.103515625e-05}, "M_2_0.1_0.30000000000000004_6.103515625e-05"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.GroupName())
			back, err := ParseGroupName(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.p, back)
		})
	}

	_, err := ParseGroupName("M_2_0.5")
	assert.Error(t, err)
}

func TestParseGroupNameAcceptsIntegerZero(t *testing.T) {
	tests := []struct {
		name string
		want Params
	}{
		{"M_2_0.5_0_1.0", Params{K: 2, Alpha: 0.5, LGexp: 0, LMri: 1}},
		{"M_3_1.0_0_0", Params{K: 3, Alpha: 1}},
		{"M_2_0.5_0.0_1.0", Params{K: 2, Alpha: 0.5, LGexp: 0, LMri: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGroupName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "M_2_0.5_0.0_1.0", Params{K: 2, Alpha: 0.5, LMri: 1}.GroupName())
}

func TestPenalties(t *testing.T) {
	l1, l2 := Params{K: 2, Alpha: 0.25, LGexp: 4, LMri: 0}.Penalties(1e-6)
	assert.Equal(t, []float64{1, 0}, l1)
	assert.InDeltaSlice(t, []float64{3 + 1e-6, 1e-6}, l2, 1e-15)

	l1, l2 = Params{K: 2, Alpha: 1, LGexp: 2, LMri: 2}.Penalties(1e-6)
	assert.Equal(t, []float64{2, 2}, l1)
	assert.Equal(t, []float64{1e-6, 1e-6}, l2)
}

func TestParamsString(t *testing.T) {
	assert.Equal(t, "Params(k=3, alpha=5.00e-01, l_gexp=1.00e+00, l_mri=0.00e+00)",
		Params{K: 3, Alpha: 0.5, LGexp: 1}.String())
}
