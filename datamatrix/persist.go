package datamatrix

import (
	"context"

	"github.com/YuminosukeSato/sfasweep/container"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// File layout of a stacked data matrix:
//
//	/                 dim "case", var case(case), attrs view_names, feature_dims
//	/<view>           dim <feature_dim>, vars <feature_dim>, data, weights
const (
	SampleDim       = "case"
	attrViewNames   = "view_names"
	attrFeatureDims = "feature_dims"
	varData         = "data"
	varWeights      = "weights"
)

// DefaultFeatureDims names the feature dimension of each view.
func DefaultFeatureDims(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + "_feature"
	}
	return out
}

// Save writes s to a new container at path. featureDims names each view's
// feature dimension; nil selects DefaultFeatureDims.
func (s *Stacked) Save(ctx context.Context, path string, featureDims []string) error {
	if featureDims == nil {
		featureDims = DefaultFeatureDims(s.names)
	}
	if len(featureDims) != len(s.views) {
		return errors.NewDimensionError("datamatrix.Save(featureDims)", len(s.views), len(featureDims), 0)
	}

	f, err := container.Create(ctx, path)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Update(ctx, func(root *container.Group) error {
		if err := root.CreateDimension(ctx, SampleDim, s.NSamples()); err != nil {
			return err
		}
		if err := root.PutStrings(ctx, SampleDim, SampleDim, s.Samples()); err != nil {
			return err
		}
		if err := root.SetAttr(ctx, attrViewNames, s.names); err != nil {
			return err
		}
		if err := root.SetAttr(ctx, attrFeatureDims, featureDims); err != nil {
			return err
		}
		for i, v := range s.views {
			g, err := root.CreateGroup(ctx, s.names[i])
			if err != nil {
				return err
			}
			dim := featureDims[i]
			if err := g.CreateDimension(ctx, dim, len(v.Features)); err != nil {
				return err
			}
			if err := g.PutStrings(ctx, dim, dim, v.Features); err != nil {
				return err
			}
			if err := g.PutDense(ctx, varData, [2]string{SampleDim, dim}, v.Data); err != nil {
				return err
			}
			if err := g.PutDense(ctx, varWeights, [2]string{SampleDim, dim}, v.Weights); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load reads a stacked data matrix written by Save.
func Load(ctx context.Context, path string) (*Stacked, error) {
	f, err := container.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	root := f.Root()

	names, err := root.AttrStrings(ctx, attrViewNames)
	if err != nil {
		return nil, errors.Wrapf(err, "datamatrix: %s", path)
	}
	dims, err := root.AttrStrings(ctx, attrFeatureDims)
	if err != nil {
		return nil, errors.Wrapf(err, "datamatrix: %s", path)
	}
	samples, err := readStrings(ctx, root, SampleDim)
	if err != nil {
		return nil, err
	}

	views := make([]*DataMatrix, len(names))
	for i, name := range names {
		g, err := root.Group(ctx, name)
		if err != nil {
			return nil, err
		}
		features, err := readStrings(ctx, g, dims[i])
		if err != nil {
			return nil, err
		}
		dv, err := g.Variable(ctx, varData)
		if err != nil {
			return nil, err
		}
		data, err := dv.Dense()
		if err != nil {
			return nil, err
		}
		wv, err := g.Variable(ctx, varWeights)
		if err != nil {
			return nil, err
		}
		weights, err := wv.Dense()
		if err != nil {
			return nil, err
		}
		if views[i], err = New(data, weights, samples, features); err != nil {
			return nil, errors.Wrapf(err, "datamatrix: view %s", name)
		}
	}
	return NewStacked(views, names)
}

// FeatureDims returns the feature dimension names stored in a data matrix file.
func FeatureDims(ctx context.Context, path string) ([]string, error) {
	f, err := container.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Root().AttrStrings(ctx, attrFeatureDims)
}

func readStrings(ctx context.Context, g *container.Group, name string) ([]string, error) {
	v, err := g.Variable(ctx, name)
	if err != nil {
		return nil, err
	}
	return v.Strings()
}
