package distance

import (
	"math"

	"github.com/Hephaest/time-series-shapelet/pkg/stats"
)

// Euclidean is the sliding-window Euclidean distance. With Scaled set, the
// shapelet and every window are z-normalized before comparison.
type Euclidean struct {
	Scaled bool
}

func (e Euclidean) Distance(s, x []float64) float64 {
	s, x = orient(s, x)
	if len(s) == 0 {
		return math.Inf(1)
	}
	if e.Scaled {
		return scaledEuclidean(s, x)
	}
	L := len(s)
	best := math.Inf(1)
	for i := 0; i+L <= len(x); i++ {
		sum := 0.0
		for j := 0; j < L; j++ {
			d := s[j] - x[i+j]
			sum += d * d
			if sum >= best {
				break
			}
		}
		if sum < best {
			best = sum
		}
	}
	return math.Sqrt(best)
}

func scaledEuclidean(s, x []float64) float64 {
	zs := stats.ZNormalize(s)
	mom := stats.NewWindowMoments(x)
	L := len(zs)
	best := math.Inf(1)
	for i := 0; i+L <= len(x); i++ {
		mu, sd := mom.At(i, L)
		sd = stats.SafeStd(sd)
		sum := 0.0
		for j := 0; j < L; j++ {
			d := zs[j] - (x[i+j]-mu)/sd
			sum += d * d
			if sum >= best {
				break
			}
		}
		if sum < best {
			best = sum
		}
	}
	return math.Sqrt(best)
}
