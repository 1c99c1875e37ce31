// Package benchmark provides the high-level task/strategy interface: a task
// names the target column of a frame, and a strategy fits an estimator to a
// frame for that task and predicts string labels.
package benchmark

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/dataprep"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

var (
	ErrMissingColumn = errors.New("benchmark: column not in frame")
	ErrNotFitted     = errors.New("benchmark: strategy is not fitted")
)

// TSCTask is a time-series classification task.
type TSCTask struct {
	Target   string
	Features []string
}

// NewTSCTask builds a task predicting target from every other column of
// metadata. An empty target means data.DefaultTarget.
func NewTSCTask(target string, metadata *data.Frame) (*TSCTask, error) {
	if target == "" {
		target = data.DefaultTarget
	}
	if metadata == nil {
		return nil, errors.New("benchmark: nil metadata frame")
	}
	if target != metadata.Target {
		return nil, fmt.Errorf("%w: target %q (frame target is %q)", ErrMissingColumn, target, metadata.Target)
	}
	return &TSCTask{Target: target, Features: slices.Clone(metadata.Columns)}, nil
}

// check verifies that f carries every feature column of the task.
func (t *TSCTask) check(f *data.Frame) error {
	for _, c := range t.Features {
		if !f.HasColumn(c) {
			return fmt.Errorf("%w: feature %q", ErrMissingColumn, c)
		}
	}
	return nil
}

// TSCStrategy fits a classifier to a frame. String labels are encoded on
// Fit and decoded on Predict.
type TSCStrategy struct {
	Estimator model.Classifier

	task    *TSCTask
	encoder *dataprep.LabelEncoder
}

func NewTSCStrategy(est model.Classifier) *TSCStrategy {
	return &TSCStrategy{Estimator: est}
}

func (s *TSCStrategy) Fit(task *TSCTask, f *data.Frame) error {
	if err := task.check(f); err != nil {
		return err
	}
	if !f.HasColumn(task.Target) {
		return fmt.Errorf("%w: target %q", ErrMissingColumn, task.Target)
	}
	enc := dataprep.NewLabelEncoder().Fit(f.Labels)
	y, err := enc.Transform(f.Labels)
	if err != nil {
		return err
	}
	if err := s.Estimator.Fit(f.X, y); err != nil {
		return fmt.Errorf("benchmark: fit: %w", err)
	}
	s.task, s.encoder = task, enc
	return nil
}

// Predict returns the predicted class labels of f.
func (s *TSCStrategy) Predict(f *data.Frame) ([]string, error) {
	if s.encoder == nil {
		return nil, ErrNotFitted
	}
	if err := s.task.check(f); err != nil {
		return nil, err
	}
	codes, err := s.Estimator.Predict(f.X)
	if err != nil {
		return nil, fmt.Errorf("benchmark: predict: %w", err)
	}
	return s.encoder.InverseTransform(codes)
}

// Score predicts f and returns the accuracy against its labels.
func (s *TSCStrategy) Score(f *data.Frame) (float64, error) {
	pred, err := s.Predict(f)
	if err != nil {
		return 0, err
	}
	return model.Accuracy(f.Labels, pred), nil
}

