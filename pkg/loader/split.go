package loader

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

var (
	ErrLengthMismatch = errors.New("loader: X and y have different lengths")
	ErrBadRatio       = errors.New("loader: test ratio must be in (0, 1)")
)

// TrainTestSplit shuffles X, y with rnd and holds out testRatio of the samples.
func TrainTestSplit[L any](X core.Panel, y []L, testRatio float64, rnd *rand.Rand) (XTrain, XTest core.Panel, yTrain, yTest []L, err error) {
	if len(X) != len(y) {
		return nil, nil, nil, nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(X), len(y))
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("%w: %v", ErrBadRatio, testRatio)
	}
	n := len(X)
	indices := rnd.Perm(n)
	nTest := int(float64(n) * testRatio)
	for i, idx := range indices {
		if i < nTest {
			XTest = append(XTest, X[idx])
			yTest = append(yTest, y[idx])
		} else {
			XTrain = append(XTrain, X[idx])
			yTrain = append(yTrain, y[idx])
		}
	}
	return XTrain, XTest, yTrain, yTest, nil
}

// StratifiedResample merges the train and test splits and draws a new train
// split with the same per-class counts as the original, seeded by seed. The
// remaining samples form the test split. Seed 0 returns the inputs unchanged
// so that fold 0 always reproduces the published split.
func StratifiedResample[L cmp.Ordered](trainX core.Panel, trainY []L, testX core.Panel, testY []L, seed int64) (XTrain core.Panel, yTrain []L, XTest core.Panel, yTest []L, err error) {
	if len(trainX) != len(trainY) {
		return nil, nil, nil, nil, fmt.Errorf("%w: train %d vs %d", ErrLengthMismatch, len(trainX), len(trainY))
	}
	if len(testX) != len(testY) {
		return nil, nil, nil, nil, fmt.Errorf("%w: test %d vs %d", ErrLengthMismatch, len(testX), len(testY))
	}
	if seed == 0 {
		return trainX, trainY, testX, testY, nil
	}

	allX := slices.Concat(trainX, testX)
	allY := slices.Concat(trainY, testY)

	want := make(map[L]int)
	for _, l := range trainY {
		want[l]++
	}
	byClass := make(map[L][]int)
	for i, l := range allY {
		byClass[l] = append(byClass[l], i)
	}

	classes := make([]L, 0, len(byClass))
	for l := range byClass {
		classes = append(classes, l)
	}
	slices.Sort(classes)

	rnd := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, l := range classes {
		idx := byClass[l]
		rnd.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		k := want[l]
		trainIdx = append(trainIdx, idx[:k]...)
		testIdx = append(testIdx, idx[k:]...)
	}
	slices.Sort(trainIdx)
	slices.Sort(testIdx)

	XTrain, yTrain = gather(allX, allY, trainIdx)
	XTest, yTest = gather(allX, allY, testIdx)
	return XTrain, yTrain, XTest, yTest, nil
}

func gather[L any](X core.Panel, y []L, idx []int) (core.Panel, []L) {
	outX := make(core.Panel, len(idx))
	outY := make([]L, len(idx))
	for k, i := range idx {
		outX[k] = X[i]
		outY[k] = y[i]
	}
	return outX, outY
}
