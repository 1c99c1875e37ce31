package distance

import (
	"math"

	"github.com/Hephaest/time-series-shapelet/pkg/stats"
)

// DTW is the sliding-window dynamic time warping distance with a
// Sakoe–Chiba band. R is the band width as a fraction of the shapelet length
// when R <= 1, or as an absolute number of points otherwise. Point cost is the
// squared difference and the returned distance is its square root, so R = 0
// matches Euclidean.
type DTW struct {
	R      float64
	Scaled bool
}

func (m DTW) Distance(s, x []float64) float64 {
	s, x = orient(s, x)
	L := len(s)
	if L == 0 {
		return math.Inf(1)
	}
	w := bandWidth(m.R, L)

	prev := make([]float64, L+1)
	curr := make([]float64, L+1)

	var mom *stats.WindowMoments
	var window []float64
	if m.Scaled {
		s = stats.ZNormalize(s)
		mom = stats.NewWindowMoments(x)
		window = make([]float64, L)
	}

	best := math.Inf(1)
	for i := 0; i+L <= len(x); i++ {
		cand := x[i : i+L]
		if m.Scaled {
			mu, sd := mom.At(i, L)
			sd = stats.SafeStd(sd)
			for j := range window {
				window[j] = (cand[j] - mu) / sd
			}
			cand = window
		}
		if d := warp(s, cand, w, prev, curr, best); d < best {
			best = d
		}
	}
	return math.Sqrt(best)
}

func bandWidth(r float64, n int) int {
	var w int
	if r <= 1 {
		w = int(math.Floor(r * float64(n)))
	} else {
		w = int(math.Floor(r))
	}
	if w > n {
		w = n
	}
	return w
}

// warp fills a rolling two-row DP table for equal-length a and b and abandons
// as soon as every cell of a row is at least best.
func warp(a, b []float64, w int, prev, curr []float64, best float64) float64 {
	n := len(a)
	inf := math.Inf(1)
	for j := range prev {
		prev[j] = inf
	}
	prev[0] = 0
	for i := 1; i <= n; i++ {
		for j := range curr {
			curr[j] = inf
		}
		lo, hi := max(1, i-w), min(n, i+w)
		rowMin := inf
		for j := lo; j <= hi; j++ {
			d := a[i-1] - b[j-1]
			c := d*d + min(prev[j], curr[j-1], prev[j-1])
			curr[j] = c
			if c < rowMin {
				rowMin = c
			}
		}
		if rowMin >= best {
			return inf
		}
		prev, curr = curr, prev
	}
	return prev[n]
}
