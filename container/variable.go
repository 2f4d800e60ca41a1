package container

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"

	"github.com/kshedden/gonpy"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// DType is the element type of a variable.
type DType string

const (
	Float64 DType = "f8"
	Int64   DType = "i8"
	String  DType = "str"
)

// Variable is a typed n-dimensional array stored in a group. Its shape is the
// sizes of its named dimensions.
type Variable struct {
	Name  string
	DType DType
	Dims  []string
	Shape []int

	raw []byte
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// PutFloat64 stores a float64 variable laid out in row-major order over dims.
func (g *Group) PutFloat64(ctx context.Context, name string, dims []string, data []float64) error {
	return g.put(ctx, name, Float64, dims, len(data), func(shape []int) ([]byte, error) {
		return encodeNpy(shape, func(w *gonpy.NpyWriter) error { return w.WriteFloat64(data) })
	})
}

// PutInt64 stores an int64 variable laid out in row-major order over dims.
func (g *Group) PutInt64(ctx context.Context, name string, dims []string, data []int64) error {
	return g.put(ctx, name, Int64, dims, len(data), func(shape []int) ([]byte, error) {
		return encodeNpy(shape, func(w *gonpy.NpyWriter) error { return w.WriteInt64(data) })
	})
}

// PutStrings stores a one-dimensional string variable.
func (g *Group) PutStrings(ctx context.Context, name, dim string, data []string) error {
	return g.put(ctx, name, String, []string{dim}, len(data), func([]int) ([]byte, error) {
		return json.Marshal(data)
	})
}

// PutDense stores m as a two-dimensional float64 variable over (rows, cols).
func (g *Group) PutDense(ctx context.Context, name string, dims [2]string, m mat.Matrix) error {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return g.PutFloat64(ctx, name, dims[:], data)
}

func (g *Group) put(ctx context.Context, name string, dtype DType, dims []string, n int, encode func(shape []int) ([]byte, error)) error {
	if err := g.requireWritable("container.Put"); err != nil {
		return err
	}
	if len(dims) == 0 {
		return errors.NewValidationError("dims", "variables need at least one dimension", name)
	}
	shape := make([]int, len(dims))
	size := 1
	for i, d := range dims {
		s, err := g.Dimension(ctx, d)
		if err != nil {
			return errors.Wrapf(err, "container: variable %s", name)
		}
		shape[i] = s
		size *= s
	}
	if size != n {
		return errors.NewDimensionError("container.Put("+name+")", size, n, 0)
	}

	payload, err := encode(shape)
	if err != nil {
		return errors.Wrapf(err, "container: encode variable %s", name)
	}
	dimsJSON, _ := json.Marshal(dims)
	shapeJSON, _ := json.Marshal(shape)
	_, err = g.q.ExecContext(ctx,
		`INSERT INTO variables(group_id, name, dtype, dims, shape, data) VALUES (?, ?, ?, ?, ?, ?)`,
		g.id, name, string(dtype), string(dimsJSON), string(shapeJSON), payload)
	return errors.Wrapf(err, "container: write variable %s in %s", name, g.path)
}

func encodeNpy(shape []int, write func(w *gonpy.NpyWriter) error) ([]byte, error) {
	var buf bytes.Buffer
	npw, err := gonpy.NewWriter(nopCloser{&buf})
	if err != nil {
		return nil, err
	}
	npw.Shape = shape
	if err := write(npw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Variable returns the named variable, or an error wrapping errors.ErrNotFound.
func (g *Group) Variable(ctx context.Context, name string) (*Variable, error) {
	var dtype, dims, shape string
	v := &Variable{Name: name}
	err := g.q.QueryRowContext(ctx,
		`SELECT dtype, dims, shape, data FROM variables WHERE group_id = ? AND name = ?`,
		g.id, name).Scan(&dtype, &dims, &shape, &v.raw)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "container: variable %q in %s", name, g.path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "container: read variable %s", name)
	}
	v.DType = DType(dtype)
	if err := json.Unmarshal([]byte(dims), &v.Dims); err != nil {
		return nil, errors.Wrapf(err, "container: decode dims of %s", name)
	}
	if err := json.Unmarshal([]byte(shape), &v.Shape); err != nil {
		return nil, errors.Wrapf(err, "container: decode shape of %s", name)
	}
	return v, nil
}

// HasVariable reports whether the group holds a variable with the given name.
func (g *Group) HasVariable(ctx context.Context, name string) (bool, error) {
	var n int
	err := g.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM variables WHERE group_id = ? AND name = ?`, g.id, name).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "container: look up variable %s", name)
	}
	return n > 0, nil
}

// Variables returns the names of the group's variables in creation order.
func (g *Group) Variables(ctx context.Context) ([]string, error) {
	rows, err := g.q.QueryContext(ctx,
		`SELECT name FROM variables WHERE group_id = ? ORDER BY id`, g.id)
	if err != nil {
		return nil, errors.Wrapf(err, "container: list variables of %s", g.path)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "container: scan variable")
		}
		out = append(out, name)
	}
	return out, errors.Wrap(rows.Err(), "container: list variables")
}

// Len returns the number of elements.
func (v *Variable) Len() int {
	n := 1
	for _, s := range v.Shape {
		n *= s
	}
	return n
}

func (v *Variable) requireType(want DType) error {
	if v.DType != want {
		return errors.NewValueError("container.Variable",
			"variable "+v.Name+" has dtype "+string(v.DType)+", not "+string(want))
	}
	return nil
}

// Float64 decodes a float64 variable in row-major order.
func (v *Variable) Float64() ([]float64, error) {
	if err := v.requireType(Float64); err != nil {
		return nil, err
	}
	if v.Len() == 0 {
		return []float64{}, nil
	}
	r, err := gonpy.NewReader(bytes.NewReader(v.raw))
	if err != nil {
		return nil, errors.Wrapf(err, "container: decode %s", v.Name)
	}
	data, err := r.GetFloat64()
	return data, errors.Wrapf(err, "container: decode %s", v.Name)
}

// Int64 decodes an int64 variable in row-major order.
func (v *Variable) Int64() ([]int64, error) {
	if err := v.requireType(Int64); err != nil {
		return nil, err
	}
	if v.Len() == 0 {
		return []int64{}, nil
	}
	r, err := gonpy.NewReader(bytes.NewReader(v.raw))
	if err != nil {
		return nil, errors.Wrapf(err, "container: decode %s", v.Name)
	}
	data, err := r.GetInt64()
	return data, errors.Wrapf(err, "container: decode %s", v.Name)
}

// Strings decodes a string variable.
func (v *Variable) Strings() ([]string, error) {
	if err := v.requireType(String); err != nil {
		return nil, err
	}
	var out []string
	err := json.Unmarshal(v.raw, &out)
	return out, errors.Wrapf(err, "container: decode %s", v.Name)
}

// Dense decodes a two-dimensional float64 variable as a matrix.
func (v *Variable) Dense() (*mat.Dense, error) {
	if len(v.Shape) != 2 {
		return nil, errors.NewDimensionError("container.Dense("+v.Name+")", 2, len(v.Shape), 0)
	}
	if v.Shape[0] == 0 || v.Shape[1] == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "container: variable %s", v.Name)
	}
	data, err := v.Float64()
	if err != nil {
		return nil, err
	}
	return mat.NewDense(v.Shape[0], v.Shape[1], data), nil
}
