package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
)

func newGenerateCmd(_ *rootOptions) *cobra.Command {
	var nTrain, nTest int
	var seed int64
	cmd := &cobra.Command{
		Use:   "generate <out_dir>",
		Short: "Write synthetic univariate and multivariate problems in .ts format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if nTrain < 1 || nTest < 1 {
				return fmt.Errorf("--n-train and --n-test must be at least 1, got %d and %d", nTrain, nTest)
			}
			dir := args[0]
			sets := []struct {
				train, test *data.Frame
			}{
				{data.CylinderBellFunnel(nTrain, seed), data.CylinderBellFunnel(nTest, seed+1)},
				{data.Motions(nTrain, seed), data.Motions(nTest, seed+1)},
			}
			for _, s := range sets {
				if err := data.WriteDataset(dir, s.train.Name, s.train, s.test); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d train, %d test) to %s\n",
					s.train.Name, s.train.Len(), s.test.Len(), data.Path(dir, s.train.Name, data.Train))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&nTrain, "n-train", 30, "Training series per problem")
	f.IntVar(&nTest, "n-test", 30, "Test series per problem")
	f.Int64Var(&seed, "seed", 1, "Generator seed")
	return cmd
}
