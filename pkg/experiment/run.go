package experiment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/dataprep"
	"github.com/Hephaest/time-series-shapelet/pkg/loader"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

// Spec is a single (classifier, dataset, fold) combination.
type Spec struct {
	DataDir    string
	ResultsDir string
	Classifier ClassifierSpec
	Dataset    string
	Fold       int
	Overwrite  bool
}

func (s Spec) String() string {
	return fmt.Sprintf("%s %s %d", s.Classifier.Name, s.Dataset, s.Fold)
}

// Result summarises one finished combination.
type Result struct {
	Path      string
	Skipped   bool // results file already existed; the fields below are read back from it
	Accuracy  float64
	BuildTime time.Duration
	TestTime  time.Duration
	NClasses  int
	LogLoss   float64 // not stored in the results file; zero when Skipped
}

// ResultsPath is <results>/<classifier>/Predictions/<dataset>/testFold<fold>.csv.
func ResultsPath(resultsDir, classifier, dataset string, fold int) string {
	return filepath.Join(resultsDir, classifier, "Predictions", dataset, fmt.Sprintf("testFold%d.csv", fold))
}

// seeded lists the classifiers that take a random_state.
var seeded = map[string]bool{model.ShapeletForest: true, model.ShapeletTree: true}

// buildClassifier instantiates cs; random_state defaults to the fold so
// that each fold is reproducible on its own.
func buildClassifier(cs ClassifierSpec, fold int) (model.Classifier, error) {
	p := model.Params{}
	maps.Copy(p, cs.Params)
	if _, ok := p["random_state"]; !ok && seeded[cs.Name] {
		p["random_state"] = fold
	}
	return model.New(cs.Name, p)
}

// RunExperiment loads the dataset, resamples fold > 0, fits the classifier,
// predicts the test split and writes the results file. An existing results
// file is left alone unless spec.Overwrite is set.
func RunExperiment(ctx context.Context, spec Spec, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(
		zap.String("classifier", spec.Classifier.Name),
		zap.String("dataset", spec.Dataset),
		zap.Int("fold", spec.Fold),
	)
	path := ResultsPath(spec.ResultsDir, spec.Classifier.Name, spec.Dataset, spec.Fold)
	if !spec.Overwrite {
		if _, err := os.Stat(path); err == nil {
			log.Info("results exist, skipping", zap.String("path", path))
			prev, err := ReadResults(path)
			if err != nil {
				return nil, fmt.Errorf("existing results: %w", err)
			}
			return &Result{
				Path:      path,
				Skipped:   true,
				Accuracy:  prev.Accuracy,
				BuildTime: time.Duration(prev.BuildMS) * time.Millisecond,
				TestTime:  time.Duration(prev.TestMS) * time.Millisecond,
				NClasses:  prev.NClasses,
			}, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	Xtr, ytrRaw, err := data.LoadXY(spec.DataDir, spec.Dataset, data.Train)
	if err != nil {
		return nil, fmt.Errorf("load train: %w", err)
	}
	Xte, yteRaw, err := data.LoadXY(spec.DataDir, spec.Dataset, data.Test)
	if err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	targets, err := dataprep.EncodeTargets(ytrRaw, yteRaw)
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}
	ytr, yte := targets.Train, targets.Test
	if spec.Fold > 0 {
		Xtr, ytr, Xte, yte, err = loader.StratifiedResample(Xtr, ytr, Xte, yte, int64(spec.Fold))
		if err != nil {
			return nil, fmt.Errorf("resample: %w", err)
		}
	}

	clf, err := buildClassifier(spec.Classifier, spec.Fold)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	if err := clf.Fit(Xtr, ytr); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	build := time.Since(start)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	proba, err := clf.PredictProba(Xte)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	test := time.Since(start)

	classes := clf.Classes()
	pred := make([]int, len(proba))
	for i, p := range proba {
		best := 0
		for j := range p {
			if p[j] > p[best] {
				best = j
			}
		}
		pred[i] = classes[best]
	}
	acc := model.Accuracy(yte, pred)
	logLoss := model.LogLoss(yte, proba, classes)

	res := &Results{
		Dataset:    spec.Dataset,
		Classifier: spec.Classifier.Name,
		Split:      "test",
		Fold:       spec.Fold,
		Params:     FormatParams(spec.Classifier.Params),
		Accuracy:   acc,
		BuildMS:    build.Milliseconds(),
		TestMS:     test.Milliseconds(),
		NClasses:   len(classes),
		Actual:     yte,
		Predicted:  pred,
		Proba:      proba,
	}
	if err := WriteResultsFile(path, res); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}
	log.Info("experiment finished",
		zap.Float64("accuracy", acc),
		zap.Float64("log_loss", logLoss),
		zap.Duration("build", build),
		zap.Duration("test", test),
		zap.String("path", path),
	)
	return &Result{
		Path:      path,
		Accuracy:  acc,
		BuildTime: build,
		TestTime:  test,
		NClasses:  len(classes),
		LogLoss:   logLoss,
	}, nil
}
