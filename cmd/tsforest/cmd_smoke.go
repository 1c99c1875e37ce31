package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hephaest/time-series-shapelet/pkg/benchmark"
	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
	"github.com/Hephaest/time-series-shapelet/pkg/pipeline"
	"github.com/Hephaest/time-series-shapelet/pkg/report"
)

const smokeSamples = 10

// network is a named classifier factory; every smoke test fits a fresh one.
type network struct {
	name string
	new  func() (model.Classifier, error)
}

type smokeTest struct {
	name string
	run  func(env *smokeEnv, net network) (float64, error)
}

// smokeEnv holds the first smokeSamples rows of each problem.
type smokeEnv struct {
	uniTrain, uniTest     *data.Frame
	multiTrain, multiTest *data.Frame
}

var smokeTests = []smokeTest{
	{"basic_univariate", smokeBasic(false)},
	{"basic_multivariate", smokeBasic(true)},
	{"pipeline", smokePipeline},
	{"high_level", smokeHighLevel},
}

func newSmokeCmd(root *rootOptions) *cobra.Command {
	var nEstimators int
	var format string
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run the four smoke tests for every network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := report.ParseMode(format)
			if err != nil {
				return err
			}
			env, err := loadSmokeEnv(root)
			if err != nil {
				return err
			}
			nets := []network{{
				name: model.ShapeletForest,
				new: func() (model.Classifier, error) {
					return model.New(model.ShapeletForest, model.Params{"n_estimators": nEstimators, "random_state": 0})
				},
			}}
			return allNetworksAllTests(cmd.OutOrStdout(), env, nets, mode, root.logger)
		},
	}
	cmd.Flags().IntVar(&nEstimators, "n-estimators", 100, "Number of trees")
	cmd.Flags().StringVar(&format, "format", "ascii", "Result table format: ascii or markdown")
	return cmd
}

func loadSmokeEnv(root *rootOptions) (*smokeEnv, error) {
	uTr, uTe, err := loadSplits(root.dataDir, "GunPoint", root.logger)
	if err != nil {
		return nil, err
	}
	mTr, mTe, err := loadSplits(root.dataDir, "BasicMotions", root.logger)
	if err != nil {
		return nil, err
	}
	return &smokeEnv{
		uniTrain: uTr.Head(smokeSamples), uniTest: uTe.Head(smokeSamples),
		multiTrain: mTr.Head(smokeSamples), multiTest: mTe.Head(smokeSamples),
	}, nil
}

// allNetworksAllTests runs every smoke test for every network. A failing
// test is reported and the run continues; the returned error counts them.
func allNetworksAllTests(w io.Writer, env *smokeEnv, nets []network, mode report.Mode, logger *zap.Logger) error {
	t := report.NewTable(mode)
	t.Header("Network", "Test", "Score")
	failed := 0
	for _, net := range nets {
		fmt.Fprintf(w, "\n\t%s testing started\n", net.name)
		for _, st := range smokeTests {
			score, err := st.run(env, net)
			if err != nil {
				failed++
				logger.Error("smoke test failed", zap.String("network", net.name), zap.String("test", st.name), zap.Error(err))
				fmt.Fprintf(w, "%s: FAILED: %v\n", st.name, err)
				t.Row(net.name, st.name, "FAILED")
				continue
			}
			fmt.Fprintf(w, "%s: %v\n", st.name, score)
			t.Row(net.name, st.name, fmt.Sprintf("%.4f", score))
		}
		fmt.Fprintf(w, "\t%s testing finished\n", net.name)
	}
	fmt.Fprintln(w, t.String())
	if failed > 0 {
		return fmt.Errorf("%d smoke tests failed", failed)
	}
	return nil
}

func smokeBasic(multivariate bool) func(*smokeEnv, network) (float64, error) {
	return func(env *smokeEnv, net network) (float64, error) {
		train, test := env.uniTrain, env.uniTest
		if multivariate {
			train, test = env.multiTrain, env.multiTest
		}
		ytr, yte, _, err := encodeUnion(train.Labels, test.Labels)
		if err != nil {
			return 0, err
		}
		clf, err := net.new()
		if err != nil {
			return 0, err
		}
		if err := clf.Fit(train.X, ytr); err != nil {
			return 0, err
		}
		return model.Score(clf, test.X, yte)
	}
}

func smokePipeline(env *smokeEnv, net network) (float64, error) {
	ytr, yte, _, err := encodeUnion(env.uniTrain.Labels, env.uniTest.Labels)
	if err != nil {
		return 0, err
	}
	clf, err := net.new()
	if err != nil {
		return 0, err
	}
	p, err := pipeline.New(pipeline.Step{Name: "clf", Estimator: clf})
	if err != nil {
		return 0, err
	}
	if err := p.Fit(env.uniTrain.X, ytr); err != nil {
		return 0, err
	}
	return model.Score(p, env.uniTest.X, yte)
}

func smokeHighLevel(env *smokeEnv, net network) (float64, error) {
	task, err := benchmark.NewTSCTask("class_val", env.uniTrain)
	if err != nil {
		return 0, err
	}
	clf, err := net.new()
	if err != nil {
		return 0, err
	}
	strategy := benchmark.NewTSCStrategy(clf)
	if err := strategy.Fit(task, env.uniTrain); err != nil {
		return 0, err
	}
	pred, err := strategy.Predict(env.uniTest)
	if err != nil {
		return 0, err
	}
	return model.Accuracy(env.uniTest.Labels, pred), nil
}
