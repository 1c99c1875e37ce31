package main

import (
	"fmt"
	"time"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/dataprep"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

func main() {
	seed := time.Now().UnixNano()

	// Generate a multivariate dataset: 6 sensor channels, 4 activities
	train := data.Motions(80, seed)
	test := data.Motions(40, seed+1)
	targets, err := dataprep.EncodeTargets(train.Labels, test.Labels)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Train: %d series, %d dimensions, %d timepoints\n",
		train.Len(), train.X.NumDims(), train.X.NumTimepoints())

	classifiers := []struct {
		name string
		clf  model.Classifier
	}{
		{"Shapelet Tree", model.NewShapeletTreeClassifier(
			model.WithMaxDepth(8), model.WithNShapelets(10), model.WithRandomState(seed))},
		{"Shapelet Forest", model.NewShapeletForestClassifier(
			model.WithNEstimators(25), model.WithForestMaxDepth(8), model.WithForestRandomState(seed))},
		{"1-NN (euclidean)", model.NewKNeighborsTimeSeriesClassifier(1, "euclidean", nil)},
	}

	for _, c := range classifiers {
		start := time.Now()
		if err := c.clf.Fit(train.X, targets.Train); err != nil {
			panic(fmt.Sprintf("%s: %v", c.name, err))
		}
		pred, err := c.clf.Predict(test.X)
		if err != nil {
			panic(fmt.Sprintf("%s: %v", c.name, err))
		}
		fmt.Printf("%-18s accuracy=%.3f balanced=%.3f (%v)\n", c.name,
			model.Accuracy(targets.Test, pred),
			model.BalancedAccuracy(targets.Test, pred, c.clf.Classes()),
			time.Since(start).Round(time.Millisecond))
	}

	// Test predictions of the single tree on the first 10 samples
	tree := classifiers[0].clf.(*model.ShapeletTreeClassifier)
	fmt.Printf("\nTesting Shapelet Tree (depth %d) on the first 10 test series:\n", tree.Depth())
	pred, _ := tree.Predict(test.X.Head(10))
	names, _ := targets.Encoder.InverseTransform(pred)
	for i := range names {
		fmt.Printf("Sample %d, True Label: %s, Predicted: %s\n", i, test.Labels[i], names[i])
	}
}
