package main

import (
	"encoding"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hephaest/time-series-shapelet/pkg/dataprep"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
	"github.com/Hephaest/time-series-shapelet/pkg/report"
)

type exampleOptions struct {
	dataset     string
	nEstimators int
	seed        int64
	plotPath    string
	modelPath   string
}

func newExampleCmd(root *rootOptions) *cobra.Command {
	var o exampleOptions
	cmd := &cobra.Command{
		Use:   "example",
		Short: "Fit a shapelet forest on GunPoint and report its test accuracy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExample(cmd, root, &o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.dataset, "dataset", "GunPoint", "Archive problem to load")
	f.IntVar(&o.nEstimators, "n-estimators", 100, "Number of trees")
	f.Int64Var(&o.seed, "random-state", 0, "Forest seed")
	f.StringVar(&o.plotPath, "plot", "", "Save a plot of the training series to this file")
	f.StringVar(&o.modelPath, "save-model", "", "Save the fitted forest to this file")
	return cmd
}

func runExample(cmd *cobra.Command, root *rootOptions, o *exampleOptions) error {
	logger := root.logger
	train, test, err := loadSplits(root.dataDir, o.dataset, logger)
	if err != nil {
		return err
	}
	targets, err := dataprep.EncodeTargets(train.Labels, test.Labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}

	clf, err := model.New(model.ShapeletForest, forestParams(o.nEstimators, o.seed))
	if err != nil {
		return err
	}
	start := time.Now()
	if err := clf.Fit(train.X, targets.Train); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	acc, err := model.Score(clf, test.X, targets.Test)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}
	elapsed := time.Since(start)
	logger.Debug("example finished", zap.String("dataset", train.Name), zap.Duration("elapsed", elapsed))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Classes: %v\n", clf.Classes())
	fmt.Fprintf(out, "Num dimensions: %d\n", train.X.NumDims())
	fmt.Fprintf(out, "Num patterns: %d\n", train.Len())
	fmt.Fprintf(out, "Num timepoints: %d\n", train.X.NumTimepoints())
	fmt.Fprintf(out, "Accuracy: %.4f\n", acc)
	fmt.Fprintf(out, "Time spent: %.0fs\n", elapsed.Seconds())

	if o.plotPath != "" {
		if err := report.PlotPanel(train, 0, 5, o.plotPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved plot to %s\n", o.plotPath)
	}
	if o.modelPath != "" {
		m, ok := clf.(encoding.BinaryMarshaler)
		if !ok {
			return fmt.Errorf("%T cannot be saved", clf)
		}
		raw, err := m.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encode model: %w", err)
		}
		if err := os.WriteFile(o.modelPath, raw, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved model to %s\n", o.modelPath)
	}
	return nil
}
