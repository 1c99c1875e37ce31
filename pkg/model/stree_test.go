package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeletTree_FitsTrainingData(t *testing.T) {
	X, y := makeBumps(30, 30, 1, 21)

	tree := NewShapeletTreeClassifier(WithNShapelets(20), WithRandomState(3))
	require.NoError(t, tree.Fit(X, y))

	acc, err := Score(tree, X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.95)
	assert.GreaterOrEqual(t, tree.Depth(), 1)
}

func TestShapeletTree_MaxDepth(t *testing.T) {
	X, y := makeBumps(30, 30, 1, 22)

	stump := NewShapeletTreeClassifier(WithMaxDepth(1), WithRandomState(3))
	require.NoError(t, stump.Fit(X, y))
	assert.LessOrEqual(t, stump.Depth(), 1)

	leaf := NewShapeletTreeClassifier(WithMinSamplesSplit(100), WithRandomState(3))
	require.NoError(t, leaf.Fit(X, y))
	assert.Equal(t, 0, leaf.Depth())
	proba, err := leaf.PredictProba(X[:1])
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, proba[0], 1e-12)
}

func TestShapeletTree_EntropyCriterion(t *testing.T) {
	X, y := makeBumps(20, 30, 1, 23)
	tree := NewShapeletTreeClassifier(WithCriterion("entropy"), WithRandomState(1))
	require.NoError(t, tree.Fit(X, y))
	acc, err := Score(tree, X, y)
	require.NoError(t, err)
	assert.Greater(t, acc, 0.8)
}

func TestShapeletTree_SingleClass(t *testing.T) {
	X, _ := makeBumps(5, 20, 1, 24)
	y := []int{4, 4, 4, 4, 4}
	tree := NewShapeletTreeClassifier(WithRandomState(1))
	require.NoError(t, tree.Fit(X, y))
	pred, err := tree.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred)
	assert.Equal(t, []int{4}, tree.Classes())
}

func TestShapeletTree_PredictProbaDoesNotAliasLeaves(t *testing.T) {
	X, y := makeBumps(10, 20, 1, 25)
	tree := NewShapeletTreeClassifier(WithRandomState(1))
	require.NoError(t, tree.Fit(X, y))

	p1, err := tree.PredictProba(X[:1])
	require.NoError(t, err)
	p1[0][0] = -1
	p2, err := tree.PredictProba(X[:1])
	require.NoError(t, err)
	assert.NotEqual(t, -1.0, p2[0][0])
}

func TestShapeletTree_MarshalRoundTrip(t *testing.T) {
	X, y := makeBumps(16, 20, 2, 26)
	tree := NewShapeletTreeClassifier(WithMetric("scaled_euclidean", nil), WithRandomState(2))
	require.NoError(t, tree.Fit(X, y))

	blob, err := tree.MarshalBinary()
	require.NoError(t, err)
	var back ShapeletTreeClassifier
	require.NoError(t, back.UnmarshalBinary(blob))

	want, err := tree.Predict(X)
	require.NoError(t, err)
	got, err := back.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, tree.Depth(), back.Depth())
}

func TestShapeletBounds(t *testing.T) {
	cases := []struct {
		m        int
		min, max float64
		lo, hi   int
	}{
		{m: 100, min: 0, max: 1, lo: 2, hi: 100},
		{m: 100, min: 0.1, max: 0.3, lo: 10, hi: 30},
		{m: 10, min: 0.5, max: 0.5, lo: 5, hi: 5},
		{m: 1, min: 0, max: 1, lo: 1, hi: 1},
	}
	for _, c := range cases {
		lo, hi := shapeletBounds(c.m, c.min, c.max)
		assert.Equal(t, c.lo, lo, "m=%d", c.m)
		assert.Equal(t, c.hi, hi, "m=%d", c.m)
	}
}

func TestImpurity(t *testing.T) {
	assert.Equal(t, 0.0, giniFromCounts([]int{5, 0}))
	assert.InDelta(t, 0.5, giniFromCounts([]int{5, 5}), 1e-12)
	assert.InDelta(t, 1.0, entropyFromCounts([]int{3, 3}), 1e-12)
	assert.Equal(t, 0.0, entropyFromCounts(nil))
	assert.True(t, isPure([]int{0, 7, 0}))
	assert.False(t, isPure([]int{1, 7, 0}))
	assert.Equal(t, []float64{0.25, 0.75}, countsToProbas([]int{1, 3}))
}
