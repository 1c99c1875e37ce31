package model

import (
	"math/rand"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

// makeBumps returns n noisy series where class 0 carries a short peak and
// class 1 a short trough at a random position. With dims > 1 the pattern is
// placed in the last dimension and the others are pure noise.
func makeBumps(n, length, dims int, seed int64) (core.Panel, []int) {
	rnd := rand.New(rand.NewSource(seed))
	X := make(core.Panel, n)
	y := make([]int, n)
	for i := range n {
		cls := i % 2
		sample := make([][]float64, dims)
		for d := range sample {
			s := make([]float64, length)
			for j := range s {
				s[j] = rnd.NormFloat64() * 0.1
			}
			sample[d] = s
		}
		pos := 3 + rnd.Intn(length-10)
		for j := range 5 {
			if cls == 0 {
				sample[dims-1][pos+j] += 2
			} else {
				sample[dims-1][pos+j] -= 2
			}
		}
		X[i] = sample
		y[i] = cls
	}
	return X, y
}
