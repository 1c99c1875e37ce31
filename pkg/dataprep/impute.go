package dataprep

import (
	"math"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

// Interpolator fills missing (NaN) observations inside each series by linear
// interpolation between the nearest observed neighbours. Leading and trailing
// gaps take the nearest observed value; a series with no observations becomes
// all zeros.
type Interpolator struct{}

func NewInterpolator() *Interpolator { return &Interpolator{} }

func (ip *Interpolator) Fit(X core.Panel) error { return X.Validate() }

// Transform returns a gap-free copy of X.
func (ip *Interpolator) Transform(X core.Panel) (core.Panel, error) {
	if err := X.Validate(); err != nil {
		return nil, err
	}
	out := X.Clone()
	for i := range out {
		for d := range out[i] {
			InterpolateInPlace(out[i][d])
		}
	}
	return out, nil
}

// InterpolateInPlace fills NaN values of x as described on Interpolator.
func InterpolateInPlace(x []float64) {
	prev := -1
	for i := 0; i <= len(x); i++ {
		if i < len(x) && math.IsNaN(x[i]) {
			continue
		}
		// x[prev+1:i] is a gap bounded by prev and i.
		switch {
		case prev < 0 && i == len(x):
			for j := range x {
				x[j] = 0
			}
		case prev < 0:
			for j := 0; j < i; j++ {
				x[j] = x[i]
			}
		case i == len(x):
			for j := prev + 1; j < i; j++ {
				x[j] = x[prev]
			}
		default:
			step := (x[i] - x[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				x[j] = x[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
}
