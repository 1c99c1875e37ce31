package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

func TestNewTSCTask(t *testing.T) {
	f := data.Motions(4, 1)
	task, err := NewTSCTask("class_val", f)
	require.NoError(t, err)
	assert.Equal(t, "class_val", task.Target)
	assert.Len(t, task.Features, 6)

	task, err = NewTSCTask("", f)
	require.NoError(t, err)
	assert.Equal(t, data.DefaultTarget, task.Target)

	_, err = NewTSCTask("label", f)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestTSCStrategy_FitPredict(t *testing.T) {
	train := data.CylinderBellFunnel(30, 1)
	test := data.CylinderBellFunnel(15, 2)

	task, err := NewTSCTask("class_val", train)
	require.NoError(t, err)

	s := NewTSCStrategy(model.NewKNeighborsTimeSeriesClassifier(1, "euclidean", nil))
	_, err = s.Predict(test)
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, s.Fit(task, train))
	pred, err := s.Predict(test)
	require.NoError(t, err)
	require.Len(t, pred, test.Len())
	for _, p := range pred {
		assert.Contains(t, []string{"bell", "cylinder", "funnel"}, p)
	}

	acc, err := s.Score(test)
	require.NoError(t, err)
	assert.Equal(t, model.Accuracy(test.Labels, pred), acc)
	assert.Greater(t, acc, 0.5)
}

func TestTSCStrategy_RejectsMissingFeatures(t *testing.T) {
	train := data.Motions(8, 1)
	task, err := NewTSCTask("class_val", train)
	require.NoError(t, err)

	s := NewTSCStrategy(model.NewKNeighborsTimeSeriesClassifier(1, "euclidean", nil))
	require.NoError(t, s.Fit(task, train))

	_, err = s.Predict(data.CylinderBellFunnel(3, 1))
	assert.ErrorIs(t, err, ErrMissingColumn)
}
