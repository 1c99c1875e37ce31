package model

import (
	"fmt"
	"runtime"
	"slices"
	"sort"
	"sync"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
	"github.com/Hephaest/time-series-shapelet/pkg/distance"
)

// KNeighborsTimeSeriesClassifier is the lazy k-nearest-neighbour baseline.
// The distance between two multivariate series is the sum of the per-dimension
// distances under Metric.
type KNeighborsTimeSeriesClassifier struct {
	K            int
	Metric       string
	MetricParams distance.Params

	metric  distance.Metric
	X       core.Panel
	y       []int
	classes []int
}

// NewKNeighborsTimeSeriesClassifier creates a classifier; an empty metric means euclidean.
func NewKNeighborsTimeSeriesClassifier(k int, metric string, params distance.Params) *KNeighborsTimeSeriesClassifier {
	return &KNeighborsTimeSeriesClassifier{K: k, Metric: metric, MetricParams: params}
}

func (m *KNeighborsTimeSeriesClassifier) validate() (distance.Metric, error) {
	if m.K < 1 {
		return nil, fmt.Errorf("%w: n_neighbors=%d", ErrInvalidParam, m.K)
	}
	return distance.New(m.Metric, m.MetricParams)
}

// Fit stores the training data and labels.
func (m *KNeighborsTimeSeriesClassifier) Fit(X core.Panel, y []int) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	metric, err := m.validate()
	if err != nil {
		return err
	}
	m.metric = metric
	m.X = X
	m.y = y
	m.classes = uniqueClasses(y)
	return nil
}

func (m *KNeighborsTimeSeriesClassifier) Classes() []int { return slices.Clone(m.classes) }

func (m *KNeighborsTimeSeriesClassifier) Predict(X core.Panel) ([]int, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba, m.classes), nil
}

// PredictProba returns neighbour vote fractions. Rows are split across
// GOMAXPROCS workers.
func (m *KNeighborsTimeSeriesClassifier) PredictProba(X core.Panel) ([][]float64, error) {
	if m.metric == nil {
		return nil, ErrNotFitted
	}
	if err := checkDims(X, m.X.NumDims()); err != nil {
		return nil, err
	}

	out := make([][]float64, len(X))
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, len(X))
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				out[i] = m.predictSingle(X[i])
			}
		}(start, end)
	}
	wg.Wait()
	return out, nil
}

// predictSingle keeps a small sorted slice of the K nearest training series.
func (m *KNeighborsTimeSeriesClassifier) predictSingle(x [][]float64) []float64 {
	type neighbor struct {
		d     float64
		label int
	}
	k := min(m.K, len(m.X))
	nbrs := make([]neighbor, 0, k+1)

	for j, xj := range m.X {
		d := 0.0
		for dim := range x {
			d += m.metric.Distance(xj[dim], x[dim])
		}
		nb := neighbor{d: d, label: m.y[j]}
		if len(nbrs) < k {
			nbrs = append(nbrs, nb)
			sort.SliceStable(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		} else if d < nbrs[len(nbrs)-1].d {
			nbrs[len(nbrs)-1] = nb
			sort.SliceStable(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })
		}
	}

	proba := make([]float64, len(m.classes))
	for _, nb := range nbrs {
		proba[classIndex(nb.label, m.classes)] += 1 / float64(len(nbrs))
	}
	return proba
}
