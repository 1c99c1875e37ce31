package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hephaest/time-series-shapelet/internal/logging"
	"github.com/Hephaest/time-series-shapelet/pkg/data"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	verbose    bool
	dataDir    string
	configPath string
	logger     *zap.Logger
}

// newRootCmd builds the command tree. A non-nil logger replaces the one
// normally built from --verbose.
func newRootCmd(logger *zap.Logger) *cobra.Command {
	opts := &rootOptions{logger: logger}
	cmd := &cobra.Command{
		Use:           "tsforest",
		Short:         "Random shapelet forests for time-series classification",
		Long:          "tsforest fits random shapelet forests on UCR/UEA archive problems,\nruns resampled fold experiments and summarises their results.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logger != nil {
				return nil
			}
			l, err := logging.New(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	f := cmd.PersistentFlags()
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	f.StringVar(&opts.dataDir, "data-dir", data.DefaultRoot(), "Root of the archive datasets (env "+data.DataDirEnv+")")
	f.StringVar(&opts.configPath, "config", "", "YAML experiment config")

	cmd.AddCommand(
		newExampleCmd(opts),
		newSmokeCmd(opts),
		newExperimentsCmd(opts),
		newSummaryCmd(opts),
		newGenerateCmd(opts),
	)
	return cmd
}
