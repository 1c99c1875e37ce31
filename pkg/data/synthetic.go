package data

import (
	"math"
	"math/rand"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

// CylinderBellFunnel generates n series of the classic univariate
// Cylinder-Bell-Funnel problem (length 128, classes "cylinder", "bell",
// "funnel" in rotation).
func CylinderBellFunnel(n int, seed int64) *Frame {
	const length = 128
	classes := []string{"cylinder", "bell", "funnel"}
	rnd := rand.New(rand.NewSource(seed))

	series := make([][]float64, n)
	labels := make([]string, n)
	for i := range n {
		cls := i % len(classes)
		a := 16 + rnd.Intn(17)
		b := a + 32 + rnd.Intn(65)
		amp := 6 + rnd.NormFloat64()
		s := make([]float64, length)
		for t := range s {
			v := 0.0
			if t >= a && t <= b {
				switch cls {
				case 0:
					v = amp
				case 1:
					v = amp * float64(t-a) / float64(b-a)
				case 2:
					v = amp * float64(b-t) / float64(b-a)
				}
			}
			s[t] = v + rnd.NormFloat64()
		}
		series[i] = s
		labels[i] = classes[cls]
	}
	f, _ := NewFrame("CBF", core.FromUnivariate(series), labels)
	return f
}

// Motions generates a six-dimensional, four-class problem shaped after
// accelerometer/gyroscope activity recordings (length 100).
func Motions(n int, seed int64) *Frame {
	const (
		length = 100
		dims   = 6
	)
	classes := []string{"badminton", "running", "standing", "walking"}
	rnd := rand.New(rand.NewSource(seed))

	X := make(core.Panel, n)
	labels := make([]string, n)
	for i := range n {
		cls := i % len(classes)
		sample := make([][]float64, dims)
		phase := rnd.Float64() * 2 * math.Pi
		for d := range sample {
			s := make([]float64, length)
			for t := range s {
				x := float64(t) / length * 2 * math.Pi
				var v float64
				switch classes[cls] {
				case "standing":
					v = 0.05 * rnd.NormFloat64()
				case "walking":
					v = math.Sin(2*x+phase+float64(d)) + 0.2*rnd.NormFloat64()
				case "running":
					v = 2.5*math.Sin(5*x+phase+float64(d)) + 0.3*rnd.NormFloat64()
				case "badminton":
					// short swings separated by rest
					if math.Sin(1.5*x+phase) > 0.7 {
						v = 4 * math.Sin(12*x+float64(d))
					}
					v += 0.2 * rnd.NormFloat64()
				}
				s[t] = v
			}
			sample[d] = s
		}
		X[i] = sample
		labels[i] = classes[cls]
	}
	f, _ := NewFrame("SyntheticMotions", X, labels)
	return f
}
