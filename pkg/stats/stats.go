package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// normEps is the smallest standard deviation treated as non-constant.
const normEps = 1e-8

// Mean computes the average of a slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Variance computes the population variance of a slice.
func Variance(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	_, v := stat.PopMeanVariance(x, nil)
	return v
}

// Std computes the population standard deviation of a slice.
func Std(x []float64) float64 {
	return math.Sqrt(Variance(x))
}

// MeanStd returns mean and population standard deviation in one call.
func MeanStd(x []float64) (mean, std float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(x, nil)
}

// NormalizeInPlace normalizes the slice to zero mean and unit variance.
// A constant slice becomes all zeros.
func NormalizeInPlace(x []float64) {
	if len(x) == 0 {
		return
	}
	mean, std := MeanStd(x)
	if std < normEps {
		for i := range x {
			x[i] = 0
		}
		return
	}
	for i := range x {
		x[i] = (x[i] - mean) / std
	}
}

// ZNormalize returns a z-normalized copy of x.
func ZNormalize(x []float64) []float64 {
	out := append([]float64(nil), x...)
	NormalizeInPlace(out)
	return out
}

// SafeStd maps near-zero deviations to 1 so callers can divide unconditionally.
func SafeStd(std float64) float64 {
	if std < normEps || math.IsNaN(std) {
		return 1
	}
	return std
}

// MinMax returns the minimum and maximum values in the slice.
func MinMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	min, max := x[0], x[0]
	for i := 1; i < len(x); i++ {
		if x[i] < min {
			min = x[i]
		} else if x[i] > max {
			max = x[i]
		}
	}
	return min, max
}

// WindowMoments keeps cumulative sums of a series so the mean and standard
// deviation of any window can be read in O(1).
type WindowMoments struct {
	sum   []float64
	sumSq []float64
}

// NewWindowMoments precomputes prefix sums over x.
func NewWindowMoments(x []float64) *WindowMoments {
	w := &WindowMoments{
		sum:   make([]float64, len(x)+1),
		sumSq: make([]float64, len(x)+1),
	}
	for i, v := range x {
		w.sum[i+1] = w.sum[i] + v
		w.sumSq[i+1] = w.sumSq[i] + v*v
	}
	return w
}

// At returns the mean and standard deviation of x[start:start+length].
func (w *WindowMoments) At(start, length int) (mean, std float64) {
	n := float64(length)
	s := w.sum[start+length] - w.sum[start]
	sq := w.sumSq[start+length] - w.sumSq[start]
	mean = s / n
	v := sq/n - mean*mean
	if v < 0 {
		v = 0
	}
	return mean, math.Sqrt(v)
}
