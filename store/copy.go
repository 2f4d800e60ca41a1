package store

import (
	"context"
	"os"

	"github.com/YuminosukeSato/sfasweep/container"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// AttrModel names the selected group in a standalone model file.
const AttrModel = "model"

// CopyModel writes the named model to a new container at outPath. The
// output root carries the identifiers of r's root followed by the model
// group's own dimensions, attributes, variables and monitor subgroup. On
// failure nothing is left at outPath.
func CopyModel(ctx context.Context, r *Reader, name, outPath string) (err error) {
	src, err := r.Group(ctx, name)
	if err != nil {
		return err
	}
	if ok, err := src.HasVariable(ctx, FactorVar); err != nil {
		return err
	} else if !ok {
		return errors.NewMissingVariableError(src.Path(), FactorVar)
	}

	out, err := container.Create(ctx, outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = errors.Wrapf(cerr, "store: close %s", outPath)
		}
		if err != nil {
			_ = os.Remove(outPath)
		}
	}()

	return out.Update(ctx, func(root *container.Group) error {
		if err := container.CopyGroup(ctx, root, r.Root(), false); err != nil {
			return errors.Wrap(err, "store: copy identifiers")
		}
		if err := container.CopyGroup(ctx, root, src, true); err != nil {
			return errors.Wrapf(err, "store: copy %s", name)
		}
		return root.SetAttr(ctx, AttrModel, name)
	})
}

// ReadStandalone reads a model file written by CopyModel.
func ReadStandalone(ctx context.Context, path string) (*Model, error) {
	f, err := container.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	root := f.Root()

	v, err := root.Attr(ctx, AttrModel)
	if err != nil {
		return nil, errors.Wrapf(err, "store: %s is not a model file", path)
	}
	name, _ := v.(string)
	params, err := readParams(ctx, root)
	if err != nil {
		return nil, err
	}
	m := &Model{Name: name, Params: params, Fitted: true}
	if m.Factors, err = readDense(ctx, root, FactorVar); err != nil {
		return nil, err
	}
	for i := range Views {
		c, err := readDense(ctx, root, CoefficientVar(i))
		if err != nil {
			return nil, err
		}
		m.Coefficients = append(m.Coefficients, c)
	}
	mg, err := root.Group(ctx, MonitorGroup)
	if err != nil {
		return nil, err
	}
	if m.Monitor, err = readMonitor(ctx, mg); err != nil {
		return nil, err
	}
	return m, nil
}
