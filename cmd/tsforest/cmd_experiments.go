package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hephaest/time-series-shapelet/pkg/experiment"
	"github.com/Hephaest/time-series-shapelet/pkg/report"
	"github.com/Hephaest/time-series-shapelet/pkg/store"
)

type experimentsOptions struct {
	folds       int
	datasets    []string
	small       bool
	classifiers []string
	parallel    int
	storePath   string
	overwrite   bool
	format      string
}

func newExperimentsCmd(root *rootOptions) *cobra.Command {
	var o experimentsOptions
	cmd := &cobra.Command{
		Use:   "experiments [data_dir] [results_dir]",
		Short: "Run every classifier on every dataset and fold",
		Long: "experiments loops over folds, datasets and classifiers, writing one\n" +
			"results file per combination. Failed combinations are reported at the\n" +
			"end and make the command exit non-zero.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := experimentsConfig(cmd, root, &o, args)
			if err != nil {
				return err
			}
			return runExperiments(cmd, root.logger, cfg, &o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.folds, "folds", 2, "Number of resampled folds")
	f.StringSliceVar(&o.datasets, "datasets", nil, "Datasets to run (default Beef,Coffee)")
	f.BoolVar(&o.small, "small", false, "Run the small UCR problem list")
	f.StringSliceVar(&o.classifiers, "classifiers", nil, "Classifiers with default parameters (default ShapeletForestClassifier)")
	f.IntVar(&o.parallel, "parallel", 1, "Combinations run concurrently")
	f.StringVar(&o.storePath, "store", "", "SQLite ledger to record outcomes in")
	f.BoolVar(&o.overwrite, "overwrite", false, "Recompute combinations whose results file exists")
	f.StringVar(&o.format, "format", "ascii", "Failure table format: ascii or markdown")
	return cmd
}

// experimentsConfig layers, lowest first: defaults, --config, --data-dir,
// explicit flags, positional arguments.
func experimentsConfig(cmd *cobra.Command, root *rootOptions, o *experimentsOptions, args []string) (*experiment.Config, error) {
	cfg := experiment.DefaultConfig()
	if root.configPath != "" {
		var err error
		if cfg, err = experiment.LoadConfig(root.configPath); err != nil {
			return nil, err
		}
	}
	if root.configPath == "" || cmd.Flags().Changed("data-dir") {
		cfg.DataDir = root.dataDir
	}
	f := cmd.Flags()
	if f.Changed("folds") {
		cfg.Folds = o.folds
	}
	if o.small {
		cfg.Datasets = experiment.SmallDatasets
	}
	if f.Changed("datasets") {
		cfg.Datasets = o.datasets
	}
	if f.Changed("classifiers") {
		cfg.Classifiers = nil
		for _, name := range o.classifiers {
			cfg.Classifiers = append(cfg.Classifiers, experiment.ClassifierSpec{Name: name})
		}
	}
	if f.Changed("parallel") {
		cfg.Parallel = o.parallel
	}
	if f.Changed("store") {
		cfg.Store = o.storePath
	}
	if f.Changed("overwrite") {
		cfg.Overwrite = o.overwrite
	}
	if len(args) > 0 {
		cfg.DataDir = args[0]
	}
	if len(args) > 1 {
		cfg.ResultsDir = args[1]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runExperiments(cmd *cobra.Command, logger *zap.Logger, cfg *experiment.Config, o *experimentsOptions) error {
	mode, err := report.ParseMode(o.format)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var rec experiment.Recorder
	if cfg.Store != "" {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		run, err := st.BeginRun(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("recording run", zap.String("run_id", run.ID), zap.String("store", cfg.Store))
		rec = run
	}

	outs, err := experiment.Compare(cmd.Context(), cfg, experiment.NewRunner(logger), rec,
		experiment.WithLogger(logger),
		experiment.WithProgress(out),
	)
	if errors.Is(err, experiment.ErrFailures) {
		fmt.Fprintln(out, report.FailureTable(outs, mode).String())
	}
	return err
}
