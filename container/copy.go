package container

import (
	"context"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// CopyGroup copies the dimensions, attributes and variables of src into dst.
// With recursive set, child groups are recreated under dst and copied too.
// Variable payloads are copied verbatim.
func CopyGroup(ctx context.Context, dst, src *Group, recursive bool) error {
	dims, err := src.Dimensions(ctx)
	if err != nil {
		return err
	}
	for _, d := range dims {
		if err := dst.CreateDimension(ctx, d.Name, d.Size); err != nil {
			return err
		}
	}

	attrs, err := src.Attrs(ctx)
	if err != nil {
		return err
	}
	for _, a := range attrs {
		if err := dst.SetAttr(ctx, a.Name, a.Value); err != nil {
			return err
		}
	}

	names, err := src.Variables(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		v, err := src.Variable(ctx, name)
		if err != nil {
			return err
		}
		if err := dst.putRaw(ctx, v); err != nil {
			return err
		}
	}

	if !recursive {
		return nil
	}
	children, err := src.Groups(ctx)
	if err != nil {
		return err
	}
	for _, child := range children {
		sub, err := dst.CreateGroup(ctx, child.Name())
		if err != nil {
			return err
		}
		if err := CopyGroup(ctx, sub, child, true); err != nil {
			return errors.Wrapf(err, "container: copy %s", child.Path())
		}
	}
	return nil
}

// putRaw writes an already encoded variable after checking that dst resolves
// its dimensions to the same shape.
func (g *Group) putRaw(ctx context.Context, v *Variable) error {
	return g.put(ctx, v.Name, v.DType, v.Dims, v.Len(), func(shape []int) ([]byte, error) {
		for i := range shape {
			if shape[i] != v.Shape[i] {
				return nil, errors.NewDimensionError("container.Copy("+v.Name+")", v.Shape[i], shape[i], i)
			}
		}
		return v.raw, nil
	})
}

// Node is a structural summary of a group, used to print a container.
type Node struct {
	Name       string            `yaml:"name"`
	Dimensions map[string]int    `yaml:"dimensions,omitempty"`
	Attributes map[string]any    `yaml:"attributes,omitempty"`
	Variables  []VariableSummary `yaml:"variables,omitempty"`
	Groups     []*Node           `yaml:"groups,omitempty"`
}

// VariableSummary describes one variable without its data.
type VariableSummary struct {
	Name  string   `yaml:"name"`
	DType DType    `yaml:"dtype"`
	Dims  []string `yaml:"dims,flow"`
	Shape []int    `yaml:"shape,flow"`
}

// Describe walks the group tree below g. depth < 0 means unlimited.
func Describe(ctx context.Context, g *Group, depth int) (*Node, error) {
	n := &Node{Name: g.Path()}

	dims, err := g.Dimensions(ctx)
	if err != nil {
		return nil, err
	}
	if len(dims) > 0 {
		n.Dimensions = make(map[string]int, len(dims))
		for _, d := range dims {
			n.Dimensions[d.Name] = d.Size
		}
	}

	attrs, err := g.Attrs(ctx)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		n.Attributes = make(map[string]any, len(attrs))
		for _, a := range attrs {
			n.Attributes[a.Name] = a.Value
		}
	}

	names, err := g.Variables(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		v, err := g.Variable(ctx, name)
		if err != nil {
			return nil, err
		}
		n.Variables = append(n.Variables, VariableSummary{Name: v.Name, DType: v.DType, Dims: v.Dims, Shape: v.Shape})
	}

	if depth == 0 {
		return n, nil
	}
	children, err := g.Groups(ctx)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		c, err := Describe(ctx, child, depth-1)
		if err != nil {
			return nil, err
		}
		n.Groups = append(n.Groups, c)
	}
	return n, nil
}
