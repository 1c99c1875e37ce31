package model

import (
	"testing"

	"github.com/Hephaest/time-series-shapelet/pkg/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ShapeletForestFromParams(t *testing.T) {
	c, err := New(ShapeletForest, Params{
		"n_shapelets":   1,
		"n_estimators":  float64(25),
		"metric":        "scaled_dtw",
		"metric_params": map[string]any{"r": 0.1},
		"bootstrap":     "false",
		"random_state":  int64(3),
	})
	require.NoError(t, err)

	f, ok := c.(*ShapeletForestClassifier)
	require.True(t, ok)
	assert.Equal(t, 1, f.NShapelets)
	assert.Equal(t, 25, f.NEstimators)
	assert.Equal(t, "scaled_dtw", f.Metric)
	assert.Equal(t, distance.Params{"r": 0.1}, f.MetricParams)
	assert.False(t, f.Bootstrap)
	assert.Equal(t, int64(3), f.RandomState)
}

func TestNew_OtherClassifiers(t *testing.T) {
	c, err := New(KNeighbors, Params{"n_neighbors": 3, "metric": "dtw"})
	require.NoError(t, err)
	knn := c.(*KNeighborsTimeSeriesClassifier)
	assert.Equal(t, 3, knn.K)
	assert.Equal(t, "dtw", knn.Metric)

	c, err = New(ShapeletTree, nil)
	require.NoError(t, err)
	assert.IsType(t, &ShapeletTreeClassifier{}, c)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("RocketClassifier", nil)
	assert.ErrorIs(t, err, ErrUnknownClassifier)

	_, err = New(ShapeletForest, Params{"n_shapelet": 1})
	assert.ErrorIs(t, err, ErrUnknownParam)
	assert.Contains(t, err.Error(), "n_shapelet")

	_, err = New(ShapeletForest, Params{"n_estimators": 2.5})
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = New(ShapeletForest, Params{"metric_params": map[string]any{"r": "wide"}})
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, err = New(KNeighbors, Params{"metric": 3})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestNew_RejectsOutOfRangeValues(t *testing.T) {
	cases := []struct {
		name   string
		clf    string
		params Params
		want   error
	}{
		{"forest metric", ShapeletForest, Params{"metric": "no_such_metric"}, distance.ErrUnknownMetric},
		{"forest n_estimators", ShapeletForest, Params{"n_estimators": 0}, ErrInvalidParam},
		{"forest n_shapelets", ShapeletForest, Params{"n_shapelets": 0}, ErrInvalidParam},
		{"forest criterion", ShapeletForest, Params{"criterion": "entropyy"}, ErrInvalidParam},
		{"forest shapelet size", ShapeletForest, Params{"max_shapelet_size": 5.0}, ErrInvalidParam},
		{"tree criterion", ShapeletTree, Params{"criterion": "bogus"}, ErrInvalidParam},
		{"tree size order", ShapeletTree, Params{"min_shapelet_size": 0.8, "max_shapelet_size": 0.2}, ErrInvalidParam},
		{"tree metric", ShapeletTree, Params{"metric": "cosine"}, distance.ErrUnknownMetric},
		{"knn neighbors", KNeighbors, Params{"n_neighbors": 0}, ErrInvalidParam},
		{"knn metric", KNeighbors, Params{"metric": "cosine"}, distance.ErrUnknownMetric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.clf, tc.params)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), tc.clf)
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{KNeighbors, ShapeletForest, ShapeletTree}, Names())
}
