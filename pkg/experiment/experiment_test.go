package experiment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/distance"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeCBF(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, data.WriteDataset(root, "CBF", data.CylinderBellFunnel(24, 1), data.CylinderBellFunnel(12, 2)))
	return root
}

func knnSpec() ClassifierSpec {
	return ClassifierSpec{Name: model.KNeighbors, Params: model.Params{"n_neighbors": 1}}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"Beef", "Coffee"}, cfg.Datasets)
	assert.Equal(t, 2, cfg.Folds)
	assert.Equal(t, model.ShapeletForest, cfg.Classifiers[0].Name)
	assert.Equal(t, []string{
		"Beef", "Car", "Coffee", "CricketX", "CricketY", "CricketZ",
		"DiatomSizeReduction", "Fish", "GunPoint", "ItalyPowerDemand",
		"MoteStrain", "OliveOil", "Plane", "SonyAIBORobotSurface1",
		"SonyAIBORobotSurface2", "SyntheticControl", "Trace", "TwoLeadECG",
	}, SmallDatasets)

	var got []string
	for _, s := range cfg.Combinations() {
		got = append(got, s.String())
	}
	want := []string{
		"ShapeletForestClassifier Beef 0",
		"ShapeletForestClassifier Coffee 0",
		"ShapeletForestClassifier Beef 1",
		"ShapeletForestClassifier Coffee 1",
	}
	assert.Equal(t, want, got)
}

func TestConfig_ValidateRejectsBadHyperparameters(t *testing.T) {
	cases := []struct {
		name   string
		params model.Params
		want   error
	}{
		{"unknown metric", model.Params{"metric": "no_such_metric"}, distance.ErrUnknownMetric},
		{"no shapelets", model.Params{"n_shapelets": 0}, model.ErrInvalidParam},
		{"bad criterion", model.Params{"criterion": "bogus"}, model.ErrInvalidParam},
		{"shapelet too long", model.Params{"max_shapelet_size": 5.0}, model.ErrInvalidParam},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Classifiers = []ClassifierSpec{{Name: model.ShapeletForest, Params: tc.params}}
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /data/ucr
folds: 3
datasets: [GunPoint]
classifiers:
  - name: ShapeletForestClassifier
    params:
      n_shapelets: 1
      metric: scaled_dtw
      metric_params: {r: 0.1}
  - name: KNeighborsTimeSeriesClassifier
parallel: 4
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/ucr", cfg.DataDir)
	assert.Equal(t, "results", cfg.ResultsDir, "unset keys keep their defaults")
	assert.Equal(t, 3, cfg.Folds)
	assert.Equal(t, 4, cfg.Parallel)
	require.Len(t, cfg.Classifiers, 2)
	assert.Equal(t, "scaled_dtw", cfg.Classifiers[0].Params["metric"])
	assert.Len(t, cfg.Combinations(), 6)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("classifiers:\n  - name: ShapeletForestClassifier\n    params: {n_shapelet: 1}\n"), 0o644))
	_, err = LoadConfig(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, model.ErrUnknownParam)
}

func TestResults_WriteRead(t *testing.T) {
	in := &Results{
		Dataset: "CBF", Classifier: "KNeighborsTimeSeriesClassifier", Split: "test", Fold: 1,
		Params:   FormatParams(model.Params{"n_neighbors": 1, "metric": "dtw"}),
		Accuracy: 0.5, BuildMS: 3, TestMS: 7, NClasses: 2,
		Actual:    []int{0, 1},
		Predicted: []int{0, 0},
		Proba:     [][]float64{{1, 0}, {0.75, 0.25}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, in))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "CBF,KNeighborsTimeSeriesClassifier,test,1,MILLISECONDS,PREDICTIONS,Generated by tsforest", lines[0])
	assert.Equal(t, "metric=dtw,n_neighbors=1", lines[1])
	assert.Equal(t, "0.5,3,7,-1,-1,2", lines[2])
	assert.Equal(t, "1,0,,0.75,0.25", lines[4])

	out, err := parseResults(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	_, err = parseResults(strings.NewReader("a,b,test,x,MILLISECONDS,PREDICTIONS\n\n1,1,1,-1,-1,2\n"))
	assert.ErrorIs(t, err, ErrBadResults)
}

func TestRunExperiment(t *testing.T) {
	root := writeCBF(t)
	results := t.TempDir()
	spec := Spec{DataDir: root, ResultsDir: results, Classifier: knnSpec(), Dataset: "CBF", Fold: 0}

	res, err := RunExperiment(context.Background(), spec, nil)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.NClasses)
	assert.GreaterOrEqual(t, res.LogLoss, 0.0)
	assert.Equal(t, ResultsPath(results, model.KNeighbors, "CBF", 0), res.Path)

	r, err := ReadResults(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "CBF", r.Dataset)
	assert.Len(t, r.Actual, 12)
	assert.InDelta(t, res.Accuracy, r.Accuracy, 1e-12)
	assert.Equal(t, "n_neighbors=1", r.Params)

	again, err := RunExperiment(context.Background(), spec, nil)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, res.Accuracy, again.Accuracy)

	spec.Overwrite = true
	again, err = RunExperiment(context.Background(), spec, nil)
	require.NoError(t, err)
	assert.False(t, again.Skipped)
}

func TestRunExperiment_ResampledFoldWithForest(t *testing.T) {
	root := writeCBF(t)
	spec := Spec{
		DataDir:    root,
		ResultsDir: t.TempDir(),
		Classifier: ClassifierSpec{Name: model.ShapeletForest, Params: model.Params{"n_estimators": 5, "n_shapelets": 2}},
		Dataset:    "CBF",
		Fold:       1,
	}
	res, err := RunExperiment(context.Background(), spec, zap.NewNop())
	require.NoError(t, err)

	r, err := ReadResults(res.Path)
	require.NoError(t, err)
	assert.Len(t, r.Actual, 12, "resampling keeps the test size")
	for _, p := range r.Proba {
		assert.Len(t, p, 3)
	}
}

func TestRunExperiment_Errors(t *testing.T) {
	root := writeCBF(t)
	spec := Spec{DataDir: root, ResultsDir: t.TempDir(), Classifier: knnSpec(), Dataset: "Nope"}
	_, err := RunExperiment(context.Background(), spec, nil)
	assert.ErrorIs(t, err, data.ErrDatasetNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	spec.Dataset = "CBF"
	_, err = RunExperiment(ctx, spec, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type memRecorder struct {
	mu  sync.Mutex
	got []Outcome
}

func (m *memRecorder) Record(_ context.Context, o Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, o)
	return nil
}

var errBoom = errors.New("boom")

func TestCompare_ContinuesPastFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parallel = 2
	run := func(_ context.Context, s Spec) (*Result, error) {
		if s.Dataset == "Coffee" {
			return nil, errBoom
		}
		return &Result{Accuracy: 1}, nil
	}
	core, logs := observer.New(zap.InfoLevel)
	rec := &memRecorder{}
	var progress bytes.Buffer

	outs, err := Compare(context.Background(), cfg, run, rec, WithLogger(zap.New(core)), WithProgress(&progress))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFailures)
	require.Len(t, outs, 4)

	assert.False(t, outs[0].Failed())
	assert.True(t, outs[1].Failed())
	assert.ErrorIs(t, outs[1].Err, errBoom)
	assert.Contains(t, outs[1].Err.Error(), "ShapeletForestClassifier Coffee 0")
	assert.Len(t, rec.got, 4)

	assert.ElementsMatch(t, []string{
		"ShapeletForestClassifier Beef 0",
		"ShapeletForestClassifier Coffee 0",
		"ShapeletForestClassifier Beef 1",
		"ShapeletForestClassifier Coffee 1",
	}, strings.Split(strings.TrimSpace(progress.String()), "\n"))
	assert.Equal(t, 2, logs.FilterMessage("experiment failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("comparison finished").Len())
}

func TestCompare_ProgressLineAnnouncesRunningCombination(t *testing.T) {
	cfg := DefaultConfig()
	var progress bytes.Buffer
	var seen []string
	run := func(_ context.Context, s Spec) (*Result, error) {
		lines := strings.Split(strings.TrimSpace(progress.String()), "\n")
		seen = append(seen, lines[len(lines)-1])
		assert.Equal(t, s.String(), lines[len(lines)-1])
		return &Result{}, nil
	}
	_, err := Compare(context.Background(), cfg, run, nil, WithProgress(&progress))
	require.NoError(t, err)
	assert.Len(t, seen, 4)
}

func TestCompare_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	run := func(context.Context, Spec) (*Result, error) {
		called = true
		return &Result{}, nil
	}
	outs, err := Compare(ctx, DefaultConfig(), run, nil)
	assert.ErrorIs(t, err, ErrFailures)
	assert.False(t, called)
	for _, o := range outs {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestCompare_EndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = writeCBF(t)
	cfg.ResultsDir = t.TempDir()
	cfg.Datasets = []string{"CBF", "Missing"}
	cfg.Classifiers = []ClassifierSpec{knnSpec()}

	outs, err := Compare(context.Background(), cfg, NewRunner(zap.NewNop()), nil)
	assert.ErrorIs(t, err, ErrFailures)
	require.Len(t, outs, 4)
	for _, o := range outs {
		if o.Spec.Dataset == "Missing" {
			assert.ErrorIs(t, o.Err, data.ErrDatasetNotFound)
		} else {
			require.NoError(t, o.Err)
			assert.FileExists(t, o.Result.Path)
		}
	}
}
