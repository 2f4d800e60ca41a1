package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/sfasweep/container"
	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/grid"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/sfa"
	"github.com/YuminosukeSato/sfasweep/sfa/sfatest"
	"github.com/YuminosukeSato/sfasweep/store"
)

func execute(t *testing.T, solver sfa.Solver, args ...string) (string, error) {
	t.Helper()
	cmd := newApp(func() sfa.Solver { return solver }).root()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--verbosity", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeCSV(t *testing.T, path string, d *datamatrix.DataMatrix) {
	t.Helper()
	var b strings.Builder
	b.WriteString("sample," + strings.Join(d.Features, ",") + "\n")
	r, c := d.Data.Dims()
	for i := 0; i < r; i++ {
		b.WriteString(d.Samples[i])
		for j := 0; j < c; j++ {
			b.WriteString("," + strconv.FormatFloat(d.Data.At(i, j), 'g', -1, 64))
		}
		b.WriteString("\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

// stackTruth writes the truth's views as CSV and stacks them unstandardized.
func stackTruth(t *testing.T, dir string, tr *sfatest.Truth) string {
	t.Helper()
	gexp := filepath.Join(dir, "gexp.csv")
	mri := filepath.Join(dir, "mri.csv")
	writeCSV(t, gexp, tr.Data.View(0))
	writeCSV(t, mri, tr.Data.View(1))

	data := filepath.Join(dir, "data.db")
	_, err := execute(t, nil, "stack", data, "gexp="+gexp, "mri="+mri, "--standardize=false")
	require.NoError(t, err)
	return data
}

func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	tr, err := sfatest.LowRank(20, 2, [2]int{30, 8}, 10, 77)
	require.NoError(t, err)
	data := stackTruth(t, dir, tr)

	loaded, err := datamatrix.Load(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, []string{"gexp", "mri"}, loaded.Names())
	assert.Equal(t, tr.Data.Samples(), loaded.Samples())

	stub := &sfatest.Stub{Truth: tr, Plan: func(p sfa.Problem) sfatest.Step {
		switch {
		case p.K == 2 && p.L1[0] > 0:
			return sfatest.Step{Scale: 1, Iterations: 4}
		case p.K == 2:
			return sfatest.Step{Scale: 0.7, Iterations: 5}
		case p.L1[0] > 0:
			return sfatest.Step{Err: errors.New("singular system")}
		}
		return sfatest.Step{Scale: 0.5, Iterations: 8}
	}}

	sweepPath := filepath.Join(dir, "sweep.db")
	out, err := execute(t, stub, "sweep", data, sweepPath,
		"--k", "2:3", "--alpha", "0.5", "--l-gexp", "0:0:1", "--l-mri", "0", "--threads", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3 models fitted, 1 failed")
	assert.Equal(t, 4, stub.Calls())

	scores := filepath.Join(dir, "scores.db")
	out, err = execute(t, nil, "score", sweepPath, data, scores, "--threads", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3 of 4 models scored")

	best := filepath.Join(dir, "best.db")
	out, err = execute(t, nil, "select", sweepPath, scores, best)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "M_2_0.5_1.0_1.0 "), out)

	m, err := store.ReadStandalone(context.Background(), best)
	require.NoError(t, err)
	assert.Equal(t, grid.Params{K: 2, Alpha: 0.5, LGexp: 1, LMri: 1}, m.Params)

	png := filepath.Join(dir, "bic.png")
	_, err = execute(t, nil, "plot", scores, png)
	require.NoError(t, err)
	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	out, err = execute(t, nil, "inspect", best)
	require.NoError(t, err)
	var node container.Node
	require.NoError(t, yaml.Unmarshal([]byte(out), &node))
	assert.Equal(t, "/", node.Name)
	assert.Equal(t, "M_2_0.5_1.0_1.0", node.Attributes[store.AttrModel])
	require.Len(t, node.Groups, 1)
	assert.Equal(t, "/"+store.MonitorGroup, node.Groups[0].Name)
}

func TestSweepReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	tr, err := sfatest.LowRank(6, 1, [2]int{4, 3}, 1, 5)
	require.NoError(t, err)
	data := stackTruth(t, dir, tr)

	cfg := filepath.Join(dir, "sfa.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("k: \"1\"\nl-gexp: \"2\"\nl-mri: \"3\"\nmax-iter: 50\n"), 0o644))

	var problems []sfa.Problem
	stub := &sfatest.Stub{Truth: tr, Plan: func(p sfa.Problem) sfatest.Step {
		problems = append(problems, p)
		return sfatest.Step{Scale: 1, Iterations: 2}
	}}
	sweepPath := filepath.Join(dir, "sweep.db")
	_, err = execute(t, stub, "sweep", data, sweepPath, "--config", cfg, "--l-mri", "0")
	require.NoError(t, err)

	require.Len(t, problems, 1)
	assert.Equal(t, 1, problems[0].K)
	assert.Equal(t, 50, problems[0].MaxIter)

	r, err := store.Open(context.Background(), sweepPath)
	require.NoError(t, err)
	defer r.Close()
	names, err := r.ModelNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"M_1_0.5_4.0_1.0"}, names)
}

func TestSweepReadsEnvironment(t *testing.T) {
	dir := t.TempDir()
	tr, err := sfatest.LowRank(6, 1, [2]int{4, 3}, 1, 6)
	require.NoError(t, err)
	data := stackTruth(t, dir, tr)

	t.Setenv("SFA_K", "1")
	t.Setenv("SFA_L_GEXP", "z")
	sweepPath := filepath.Join(dir, "sweep.db")
	_, err = execute(t, &sfatest.Stub{Truth: tr}, "sweep", data, sweepPath, "--l-mri", "z")
	require.NoError(t, err)

	r, err := store.Open(context.Background(), sweepPath)
	require.NoError(t, err)
	defer r.Close()
	names, err := r.ModelNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"M_1_0.5_0.0_0.0"}, names)
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"stack without path", []string{"stack", filepath.Join(dir, "a.db"), "gexp"}},
		{"stack missing csv", []string{"stack", filepath.Join(dir, "b.db"), "gexp=" + filepath.Join(dir, "none.csv")}},
		{"sweep malformed range", []string{"sweep", "data.db", "out.db", "--k", "two"}},
		{"sweep bad max-iter", []string{"sweep", "data.db", "out.db", "--max-iter", "0"}},
		{"sweep missing data", []string{"sweep", filepath.Join(dir, "none.db"), filepath.Join(dir, "out.db")}},
		{"score wrong arity", []string{"score", "sweep.db"}},
		{"inspect missing file", []string{"inspect", filepath.Join(dir, "none.db")}},
		{"missing config", []string{"inspect", "x.db", "--config", filepath.Join(dir, "none.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, nil, tt.args...)
			assert.Error(t, err)
		})
	}
}
