package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hephaest/time-series-shapelet/pkg/report"
	"github.com/Hephaest/time-series-shapelet/pkg/store"
)

func newSummaryCmd(_ *rootOptions) *cobra.Command {
	var storePath, runID, format string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print mean accuracy per classifier and dataset for a recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := report.ParseMode(format)
			if err != nil {
				return err
			}
			st, err := store.Open(storePath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if runID == "" {
				if runID, err = st.LatestRun(ctx); err != nil {
					return err
				}
			}
			rows, err := st.Summary(ctx, runID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", runID)
			fmt.Fprintln(out, report.SummaryTable(rows, mode).String())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&storePath, "store", "", "SQLite ledger written by experiments --store (required)")
	f.StringVar(&runID, "run", "", "Run id (default: latest run)")
	f.StringVar(&format, "format", "ascii", "Table format: ascii or markdown")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}
