package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.75, Accuracy([]int{1, 2, 3, 4}, []int{1, 2, 3, 0}))
	assert.Equal(t, 0.5, Accuracy([]string{"a", "b"}, []string{"a", "a"}))
	assert.Equal(t, 0.0, Accuracy([]int{}, []int{}))
	assert.Equal(t, 0.0, Accuracy([]int{1}, []int{1, 2}))
}

func TestConfusionAndBalancedAccuracy(t *testing.T) {
	yTrue := []int{0, 0, 0, 0, 1, 1}
	yPred := []int{0, 0, 0, 0, 0, 1}
	classes := []int{0, 1}

	assert.Equal(t, [][]int{{4, 0}, {1, 1}}, ConfusionMatrix(yTrue, yPred, classes))
	assert.InDelta(t, (1.0+0.5)/2, BalancedAccuracy(yTrue, yPred, classes), 1e-12)
	assert.Equal(t, 0.0, BalancedAccuracy(nil, nil, classes))
}

func TestLogLoss(t *testing.T) {
	classes := []int{0, 1}
	proba := [][]float64{{0.8, 0.2}, {0.4, 0.6}}
	want := -(math.Log(0.8) + math.Log(0.6)) / 2
	assert.InDelta(t, want, LogLoss([]int{0, 1}, proba, classes), 1e-12)

	perfect := LogLoss([]int{0}, [][]float64{{1, 0}}, classes)
	assert.InDelta(t, 0, perfect, 1e-9)

	unseen := LogLoss([]int{7}, [][]float64{{0.5, 0.5}}, classes)
	assert.InDelta(t, -math.Log(probEps), unseen, 1e-9)
	assert.Equal(t, 0.0, LogLoss(nil, nil, classes))
}
