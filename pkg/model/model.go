package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

var (
	ErrNotFitted      = errors.New("model: estimator is not fitted")
	ErrLengthMismatch = errors.New("model: X and y length mismatch")
	ErrNoClasses      = errors.New("model: no classes in y")
)

// Classifier is the supervised time-series classification interface. Labels
// are integer class codes; see dataprep.LabelEncoder for string targets.
type Classifier interface {
	Fit(X core.Panel, y []int) error
	Predict(X core.Panel) ([]int, error)
	// PredictProba returns one probability vector per sample, aligned with Classes.
	PredictProba(X core.Panel) ([][]float64, error)
	Classes() []int
}

// Score predicts X and returns the accuracy against y.
func Score(c Classifier, X core.Panel, y []int) (float64, error) {
	if len(X) != len(y) {
		return 0, ErrLengthMismatch
	}
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	return Accuracy(y, pred), nil
}

// checkXY validates a training pair.
func checkXY(X core.Panel, y []int) error {
	if err := X.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if len(y) != len(X) {
		return ErrLengthMismatch
	}
	return nil
}

// uniqueClasses returns the sorted distinct labels of y.
func uniqueClasses(y []int) []int {
	out := slices.Clone(y)
	slices.Sort(out)
	return slices.Compact(out)
}

// classIndex returns the position of label in the sorted classes slice, or -1.
func classIndex(label int, classes []int) int {
	i, ok := slices.BinarySearch(classes, label)
	if !ok {
		return -1
	}
	return i
}

func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}

// labelsFromProba maps each probability row to its most likely class.
func labelsFromProba(proba [][]float64, classes []int) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		out[i] = classes[argmaxFloat(p)]
	}
	return out
}
