// Package distance implements the subsequence distances used to compare a
// shapelet against a time series.
//
// Every Metric answers the same question: what is the smallest distance between
// the shorter input and any equally long window of the longer one. When both
// inputs have the same length this collapses to an ordinary whole-series
// distance, which is what the nearest-neighbour classifier relies on.
package distance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownMetric is returned by New for names it does not recognise.
	ErrUnknownMetric = errors.New("distance: unknown metric")
	// ErrBadParam indicates an invalid metric parameter value.
	ErrBadParam = errors.New("distance: invalid metric parameter")
)

// Metric computes the minimum distance between s and all windows of x of length len(s).
// Implementations must be safe for concurrent use.
type Metric interface {
	Distance(s, x []float64) float64
}

// Params holds metric parameters such as the DTW band "r".
type Params map[string]float64

type factory func(Params) (Metric, error)

var registry = map[string]factory{
	"euclidean": func(Params) (Metric, error) { return Euclidean{}, nil },
	"scaled_euclidean": func(Params) (Metric, error) {
		return Euclidean{Scaled: true}, nil
	},
	"dtw": func(p Params) (Metric, error) {
		r, err := bandParam(p)
		if err != nil {
			return nil, err
		}
		return DTW{R: r}, nil
	},
	"scaled_dtw": func(p Params) (Metric, error) {
		r, err := bandParam(p)
		if err != nil {
			return nil, err
		}
		return DTW{R: r, Scaled: true}, nil
	},
}

// New returns the metric registered under name. An empty name selects euclidean.
func New(name string, params Params) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "euclidean"
	}
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return f(params)
}

// Names lists the registered metric names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func bandParam(p Params) (float64, error) {
	r, ok := p["r"]
	if !ok {
		return 1, nil
	}
	if r < 0 {
		return 0, fmt.Errorf("%w: r=%v must be >= 0", ErrBadParam, r)
	}
	return r, nil
}

// orient makes s the shorter of the two inputs.
func orient(s, x []float64) ([]float64, []float64) {
	if len(s) > len(x) {
		return x, s
	}
	return s, x
}
