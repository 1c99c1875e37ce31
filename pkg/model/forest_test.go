package model

import (
	"testing"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
	"github.com/Hephaest/time-series-shapelet/pkg/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func smallForest(opts ...ForestOption) *ShapeletForestClassifier {
	base := []ForestOption{
		WithNEstimators(10),
		WithForestRandomState(7),
	}
	return NewShapeletForestClassifier(append(base, opts...)...)
}

func TestShapeletForest_Defaults(t *testing.T) {
	f := NewShapeletForestClassifier()
	assert.Equal(t, 100, f.NEstimators)
	assert.Equal(t, 10, f.NShapelets)
	assert.Equal(t, "euclidean", f.Metric)
	assert.True(t, f.Bootstrap)
	assert.Equal(t, 0.0, f.MinShapeletSize)
	assert.Equal(t, 1.0, f.MaxShapeletSize)
}

func TestShapeletForest_FitPredictUnivariate(t *testing.T) {
	Xtr, ytr := makeBumps(40, 40, 1, 1)
	Xte, yte := makeBumps(30, 40, 1, 2)

	f := smallForest()
	require.NoError(t, f.Fit(Xtr, ytr))
	assert.Equal(t, []int{0, 1}, f.Classes())
	assert.Len(t, f.Trees, 10)

	acc, err := Score(f, Xte, yte)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.9)

	proba, err := f.PredictProba(Xte)
	require.NoError(t, err)
	require.Len(t, proba, len(Xte))
	for _, p := range proba {
		require.Len(t, p, 2)
		assert.InDelta(t, 1.0, p[0]+p[1], 1e-9)
	}
}

func TestShapeletForest_ScaledDTW(t *testing.T) {
	Xtr, ytr := makeBumps(20, 30, 1, 3)
	Xte, yte := makeBumps(20, 30, 1, 4)

	f := smallForest(
		WithForestNShapelets(1),
		WithForestMetric("scaled_dtw", distance.Params{"r": 0.1}),
	)
	require.NoError(t, f.Fit(Xtr, ytr))
	acc, err := Score(f, Xte, yte)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.5)
}

func TestShapeletForest_Multivariate(t *testing.T) {
	Xtr, ytr := makeBumps(30, 30, 3, 5)
	Xte, yte := makeBumps(20, 30, 3, 6)

	f := smallForest()
	require.NoError(t, f.Fit(Xtr, ytr))
	acc, err := Score(f, Xte, yte)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.8)

	_, err = f.Predict(core.Panel{})
	assert.ErrorIs(t, err, core.ErrEmptyPanel)

	wrongDims := core.Panel{{{1, 2, 3}}}
	_, err = f.Predict(wrongDims)
	assert.ErrorIs(t, err, core.ErrDimMismatch)
}

func TestShapeletForest_Deterministic(t *testing.T) {
	Xtr, ytr := makeBumps(20, 25, 1, 8)
	Xte, _ := makeBumps(10, 25, 1, 9)

	a := smallForest(WithNJobs(1))
	b := smallForest(WithNJobs(4))
	require.NoError(t, a.Fit(Xtr, ytr))
	require.NoError(t, b.Fit(Xtr, ytr))

	pa, err := a.PredictProba(Xte)
	require.NoError(t, err)
	pb, err := b.PredictProba(Xte)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestShapeletForest_Errors(t *testing.T) {
	X, y := makeBumps(6, 20, 1, 10)

	f := smallForest()
	_, err := f.Predict(X)
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, f.Fit(X, y[:3]), ErrLengthMismatch)
	assert.ErrorIs(t, f.Fit(nil, nil), core.ErrEmptyPanel)

	bad := smallForest(WithNEstimators(0))
	assert.ErrorIs(t, bad.Fit(X, y), ErrInvalidParam)

	bad = smallForest(WithForestMetric("cosine", nil))
	assert.ErrorIs(t, bad.Fit(X, y), distance.ErrUnknownMetric)

	bad = smallForest(WithForestShapeletSize(0.8, 0.2))
	assert.ErrorIs(t, bad.Fit(X, y), ErrInvalidParam)

	bad = smallForest(WithForestCriterion("bogus"))
	err = bad.Fit(X, y)
	assert.ErrorIs(t, err, ErrInvalidParam)
	assert.Contains(t, err.Error(), `criterion="bogus"`)
}

func TestShapeletForest_MarshalRoundTrip(t *testing.T) {
	Xtr, ytr := makeBumps(20, 25, 1, 11)
	Xte, _ := makeBumps(10, 25, 1, 12)

	f := smallForest(WithForestMetric("dtw", distance.Params{"r": 0.2}))
	require.NoError(t, f.Fit(Xtr, ytr))
	want, err := f.PredictProba(Xte)
	require.NoError(t, err)

	blob, err := f.MarshalBinary()
	require.NoError(t, err)

	var g ShapeletForestClassifier
	require.NoError(t, g.UnmarshalBinary(blob))
	assert.Equal(t, f.Classes(), g.Classes())
	assert.Equal(t, "dtw", g.Metric)

	got, err := g.PredictProba(Xte)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = NewShapeletForestClassifier().MarshalBinary()
	assert.ErrorIs(t, err, ErrNotFitted)
}
