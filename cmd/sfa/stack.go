package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/sfasweep/datamatrix"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/pkg/log"
	"github.com/YuminosukeSato/sfasweep/store"
)

func (a *app) stackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack <out> name=path.csv ...",
		Short: "Build a stacked data matrix from CSV views",
		Long: `stack reads one CSV per view (header: sample column then feature ids,
rows: sample id then values), centres every feature, weights each view to
unit pooled variance and writes the stacked matrix to <out>.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStack(cmd, args[0], args[1:])
		},
	}
	cmd.Flags().Bool("standardize", true, "centre features and weight each view to unit variance")
	return cmd
}

func (a *app) runStack(cmd *cobra.Command, out string, specs []string) error {
	logger := log.GetLoggerWithName("cmd.stack").With(log.OperationKey, log.OperationStack)
	standardize := a.v.GetBool("standardize")

	names := make([]string, len(specs))
	views := make([]*datamatrix.DataMatrix, len(specs))
	for i, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return errors.NewValidationError("view", "expected name=path.csv", spec)
		}
		d, err := readCSV(path)
		if err != nil {
			return err
		}
		if standardize {
			if d, err = datamatrix.Standardize(d); err != nil {
				return errors.Wrapf(err, "standardize %s", name)
			}
		}
		r, c := d.Data.Dims()
		logger.Info("Read view", log.ViewKey, name, log.SamplesKey, r, log.FeaturesKey, c, log.PathKey, path)
		names[i], views[i] = name, d
	}

	s, err := datamatrix.NewStacked(views, names)
	if err != nil {
		return err
	}
	var dims []string
	if len(names) == len(store.Views) {
		dims = make([]string, len(names))
		for i, v := range store.Views {
			dims[i] = v.Dim
		}
	}
	if err := s.Save(cmd.Context(), out, dims); err != nil {
		return err
	}
	logger.Info("Stacked data written", log.PathKey, out)
	return nil
}

func readCSV(path string) (*datamatrix.DataMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	d, err := datamatrix.FromCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return d, nil
}
