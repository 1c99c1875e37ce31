package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"
	"runtime"
	"slices"
	"time"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
	"github.com/Hephaest/time-series-shapelet/pkg/distance"
	"golang.org/x/sync/errgroup"
)

// ShapeletForestClassifier is a bagged ensemble of randomized shapelet trees.
type ShapeletForestClassifier struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	NShapelets      int
	MinShapeletSize float64
	MaxShapeletSize float64
	Criterion       string
	Metric          string
	MetricParams    distance.Params
	Bootstrap       bool
	RandomState     int64
	NJobs           int // concurrent trees; <= 0 means GOMAXPROCS

	// Internal state
	Trees   []*ShapeletTreeClassifier
	classes []int
	nDims   int
}

// ForestOption functional config for ShapeletForestClassifier.
type ForestOption func(*ShapeletForestClassifier)

func WithNEstimators(n int) ForestOption {
	return func(f *ShapeletForestClassifier) { f.NEstimators = n }
}
func WithBootstrap(b bool) ForestOption { return func(f *ShapeletForestClassifier) { f.Bootstrap = b } }
func WithForestMaxDepth(d int) ForestOption {
	return func(f *ShapeletForestClassifier) { f.MaxDepth = d }
}
func WithForestMinSamplesSplit(n int) ForestOption {
	return func(f *ShapeletForestClassifier) { f.MinSamplesSplit = n }
}
func WithForestNShapelets(n int) ForestOption {
	return func(f *ShapeletForestClassifier) { f.NShapelets = n }
}
func WithForestShapeletSize(lo, hi float64) ForestOption {
	return func(f *ShapeletForestClassifier) { f.MinShapeletSize, f.MaxShapeletSize = lo, hi }
}
func WithForestCriterion(c string) ForestOption {
	return func(f *ShapeletForestClassifier) { f.Criterion = c }
}
func WithForestMetric(name string, params distance.Params) ForestOption {
	return func(f *ShapeletForestClassifier) { f.Metric, f.MetricParams = name, params }
}
func WithForestRandomState(seed int64) ForestOption {
	return func(f *ShapeletForestClassifier) { f.RandomState = seed }
}
func WithNJobs(n int) ForestOption { return func(f *ShapeletForestClassifier) { f.NJobs = n } }

// NewShapeletForestClassifier initializes the forest with sensible defaults.
func NewShapeletForestClassifier(opts ...ForestOption) *ShapeletForestClassifier {
	f := &ShapeletForestClassifier{
		NEstimators:     100,
		MinSamplesSplit: 2,
		NShapelets:      10,
		MinShapeletSize: 0,
		MaxShapeletSize: 1,
		Criterion:       "gini",
		Metric:          "euclidean",
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *ShapeletForestClassifier) jobs() int {
	if f.NJobs > 0 {
		return f.NJobs
	}
	return runtime.GOMAXPROCS(0)
}

// validate checks the forest size and the hyperparameters handed to each tree.
func (f *ShapeletForestClassifier) validate() error {
	if f.NEstimators < 1 {
		return fmt.Errorf("%w: n_estimators=%d", ErrInvalidParam, f.NEstimators)
	}
	tree := NewShapeletTreeClassifier(
		WithMaxDepth(f.MaxDepth),
		WithMinSamplesSplit(f.MinSamplesSplit),
		WithNShapelets(f.NShapelets),
		WithShapeletSize(f.MinShapeletSize, f.MaxShapeletSize),
		WithCriterion(f.Criterion),
		WithMetric(f.Metric, f.MetricParams),
	)
	_, _, err := tree.validate()
	return err
}

// Fit trains NEstimators trees concurrently. Tree i draws its bootstrap
// sample and shapelets from a source seeded with RandomState+i, so the fitted
// forest does not depend on scheduling.
func (f *ShapeletForestClassifier) Fit(X core.Panel, y []int) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	if err := f.validate(); err != nil {
		return err
	}

	n := len(X)
	classes := uniqueClasses(y)
	trees := make([]*ShapeletTreeClassifier, f.NEstimators)

	var g errgroup.Group
	g.SetLimit(f.jobs())
	for i := range f.NEstimators {
		g.Go(func() error {
			seed := f.RandomState + int64(i)
			treeRand := rand.New(rand.NewSource(seed))

			// Bootstrap sampling: an index slice, not a copy of the data.
			sampleIndices := make([]int, n)
			for j := range sampleIndices {
				if f.Bootstrap {
					sampleIndices[j] = treeRand.Intn(n)
				} else {
					sampleIndices[j] = j
				}
			}

			tree := NewShapeletTreeClassifier(
				WithMaxDepth(f.MaxDepth),
				WithMinSamplesSplit(f.MinSamplesSplit),
				WithNShapelets(f.NShapelets),
				WithShapeletSize(f.MinShapeletSize, f.MaxShapeletSize),
				WithCriterion(f.Criterion),
				WithMetric(f.Metric, f.MetricParams),
				WithRandomState(seed),
			)
			if err := tree.fit(X, y, classes, sampleIndices, treeRand); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.Trees = trees
	f.classes = classes
	f.nDims = X.NumDims()
	return nil
}

// Classes returns the sorted class codes seen during fit.
func (f *ShapeletForestClassifier) Classes() []int { return slices.Clone(f.classes) }

// Predict returns the class with the highest averaged probability.
func (f *ShapeletForestClassifier) Predict(X core.Panel) ([]int, error) {
	proba, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba, f.classes), nil
}

// PredictProba averages the leaf distributions of all trees.
func (f *ShapeletForestClassifier) PredictProba(X core.Panel) ([][]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkDims(X, f.nDims); err != nil {
		return nil, err
	}

	perTree := make([][][]float64, len(f.Trees))
	var g errgroup.Group
	g.SetLimit(f.jobs())
	for i, tree := range f.Trees {
		g.Go(func() error {
			p, err := tree.PredictProba(X)
			if err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			perTree[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]float64, len(X))
	scale := 1 / float64(len(f.Trees))
	for s := range out {
		out[s] = make([]float64, len(f.classes))
		for _, p := range perTree {
			for c, v := range p[s] {
				out[s][c] += v * scale
			}
		}
	}
	return out, nil
}

type forestState struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	NShapelets      int
	MinShapeletSize float64
	MaxShapeletSize float64
	Criterion       string
	Metric          string
	MetricParams    distance.Params
	Bootstrap       bool
	RandomState     int64
	Classes         []int
	NDims           int
	Trees           [][]byte
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (f *ShapeletForestClassifier) MarshalBinary() ([]byte, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	st := forestState{
		NEstimators:     f.NEstimators,
		MaxDepth:        f.MaxDepth,
		MinSamplesSplit: f.MinSamplesSplit,
		NShapelets:      f.NShapelets,
		MinShapeletSize: f.MinShapeletSize,
		MaxShapeletSize: f.MaxShapeletSize,
		Criterion:       f.Criterion,
		Metric:          f.Metric,
		MetricParams:    f.MetricParams,
		Bootstrap:       f.Bootstrap,
		RandomState:     f.RandomState,
		Classes:         f.classes,
		NDims:           f.nDims,
		Trees:           make([][]byte, len(f.Trees)),
	}
	for i, t := range f.Trees {
		b, err := t.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		st.Trees[i] = b
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(st); err != nil {
		return nil, fmt.Errorf("model: encode forest: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (f *ShapeletForestClassifier) UnmarshalBinary(data []byte) error {
	var st forestState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return fmt.Errorf("model: decode forest: %w", err)
	}
	trees := make([]*ShapeletTreeClassifier, len(st.Trees))
	for i, b := range st.Trees {
		trees[i] = &ShapeletTreeClassifier{}
		if err := trees[i].UnmarshalBinary(b); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	*f = ShapeletForestClassifier{
		NEstimators:     st.NEstimators,
		MaxDepth:        st.MaxDepth,
		MinSamplesSplit: st.MinSamplesSplit,
		NShapelets:      st.NShapelets,
		MinShapeletSize: st.MinShapeletSize,
		MaxShapeletSize: st.MaxShapeletSize,
		Criterion:       st.Criterion,
		Metric:          st.Metric,
		MetricParams:    st.MetricParams,
		Bootstrap:       st.Bootstrap,
		RandomState:     st.RandomState,
		Trees:           trees,
		classes:         st.Classes,
		nDims:           st.NDims,
	}
	return nil
}
