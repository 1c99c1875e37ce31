package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/dataprep"
	"github.com/Hephaest/time-series-shapelet/pkg/loader"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

func main() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	fmt.Println("=== Shapelet Forest Demo with Train/Test Split ===")

	// Step 1. Generate dataset
	f := data.CylinderBellFunnel(300, rnd.Int63())
	fmt.Printf("Generated %d series of length %d.\n", f.Len(), f.X.NumTimepoints())
	fmt.Println("First 5 labels:", f.Labels[:5])

	enc := dataprep.NewLabelEncoder()
	y := enc.FitTransform(f.Labels)

	// Step 2. Split into train/test sets
	XTrain, XTest, yTrain, yTest, err := loader.TrainTestSplit(f.X, y, 0.3, rnd)
	if err != nil {
		panic(err)
	}
	fmt.Printf("\nTrain size: %d, Test size: %d\n", len(XTrain), len(XTest))

	// Step 3. Initialize Shapelet Forest
	rf := model.NewShapeletForestClassifier(
		model.WithNEstimators(50),
		model.WithBootstrap(true),
		model.WithForestNShapelets(5),
		model.WithForestMetric("scaled_euclidean", nil),
	)
	fmt.Println("\nInitialized Shapelet Forest with 50 trees, 5 shapelets per node, scaled euclidean distance.")

	// Step 4. Train on training data
	fmt.Println("Training Shapelet Forest...")
	start := time.Now()
	if err := rf.Fit(XTrain, yTrain); err != nil {
		panic(fmt.Sprintf("training failed: %v", err))
	}
	fmt.Printf("Training complete in %v.\n", time.Since(start).Round(time.Millisecond))

	// Step 5. Predict on test data
	fmt.Println("\nMaking predictions on test data...")
	testPreds, err := rf.Predict(XTest)
	if err != nil {
		panic(err)
	}

	// Step 6. Show some example predictions
	names, _ := enc.InverseTransform(testPreds)
	truth, _ := enc.InverseTransform(yTest)
	fmt.Println("First 10 test predictions (Pred vs True):")
	for i := 0; i < 10 && i < len(XTest); i++ {
		fmt.Printf("  #%d → Pred=%s, True=%s\n", i, names[i], truth[i])
	}

	// Step 7. Compute accuracy
	acc := model.Accuracy(yTest, testPreds)
	fmt.Printf("\nFinal Accuracy on test data: %.2f%%\n", acc*100)
	fmt.Println("Confusion matrix (rows = true, cols = predicted):", enc.Classes())
	for _, row := range model.ConfusionMatrix(yTest, testPreds, rf.Classes()) {
		fmt.Println(" ", row)
	}
}
