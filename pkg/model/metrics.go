package model

import "math"

// Accuracy is the fraction of positions where yPred equals yTrue.
func Accuracy[T comparable](yTrue, yPred []T) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// ConfusionMatrix counts (true, predicted) pairs. Rows and columns follow classes.
// Labels not present in classes are ignored.
func ConfusionMatrix(yTrue, yPred, classes []int) [][]int {
	cm := make([][]int, len(classes))
	for i := range cm {
		cm[i] = make([]int, len(classes))
	}
	pos := make(map[int]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	for i := range yTrue {
		if i >= len(yPred) {
			break
		}
		t, okT := pos[yTrue[i]]
		p, okP := pos[yPred[i]]
		if okT && okP {
			cm[t][p]++
		}
	}
	return cm
}

// BalancedAccuracy is the mean per-class recall over the classes present in yTrue.
func BalancedAccuracy(yTrue, yPred, classes []int) float64 {
	cm := ConfusionMatrix(yTrue, yPred, classes)
	sum, n := 0.0, 0
	for i := range cm {
		support := 0
		for _, v := range cm[i] {
			support += v
		}
		if support == 0 {
			continue
		}
		sum += float64(cm[i][i]) / float64(support)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// probEps clips probabilities away from 0 and 1 before taking logs.
const probEps = 1e-12

// LogLoss is the mean cross-entropy of the probability rows in proba
// (columns aligned with classes) against yTrue. A label missing from
// classes counts as probability probEps.
func LogLoss(yTrue []int, proba [][]float64, classes []int) float64 {
	n := min(len(yTrue), len(proba))
	if n == 0 {
		return 0
	}
	s := 0.0
	for i := range n {
		p := probEps
		if j := classIndex(yTrue[i], classes); j >= 0 && j < len(proba[i]) {
			p = math.Min(math.Max(proba[i][j], probEps), 1-probEps)
		}
		s -= math.Log(p)
	}
	return s / float64(n)
}
