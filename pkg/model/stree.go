package model

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
	"github.com/Hephaest/time-series-shapelet/pkg/distance"
)

// ErrInvalidParam reports an out-of-range hyperparameter.
var ErrInvalidParam = errors.New("model: invalid parameter")

// ---------------------------
// Types & options
// ---------------------------

// Shapelet is a subsequence cut from one dimension of a training series.
type Shapelet struct {
	Sample int // index of the training series it was drawn from
	Dim    int
	Start  int
	Values []float64
}

// ShapeletTreeClassifier is a randomized shapelet tree: every internal node
// tests whether the distance from a sampled shapelet to the series is below a
// threshold.
type ShapeletTreeClassifier struct {
	MaxDepth            int     // 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each child
	NShapelets          int     // candidate shapelets sampled per node
	MinShapeletSize     float64 // lower bound of shapelet length as a fraction of the series length
	MaxShapeletSize     float64 // upper bound of shapelet length as a fraction of the series length
	Criterion           string  // "gini" (default) or "entropy"
	Metric              string  // see distance.Names
	MetricParams        distance.Params
	MinImpurityDecrease float64
	RandomState         int64

	metric  distance.Metric
	root    *stNode
	classes []int
	nDims   int
}

// stNode fields are exported for gob.
type stNode struct {
	Leaf      bool
	Shapelet  *Shapelet
	Threshold float64 // dist <= Threshold => Left
	Left      *stNode
	Right     *stNode

	N      int
	Probas []float64 // aligned with the tree's classes
}

// Option configures a ShapeletTreeClassifier.
type Option func(*ShapeletTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *ShapeletTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *ShapeletTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *ShapeletTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithNShapelets(n int) Option { return func(t *ShapeletTreeClassifier) { t.NShapelets = n } }
func WithShapeletSize(lo, hi float64) Option {
	return func(t *ShapeletTreeClassifier) { t.MinShapeletSize, t.MaxShapeletSize = lo, hi }
}
func WithCriterion(c string) Option { return func(t *ShapeletTreeClassifier) { t.Criterion = c } }
func WithMetric(name string, params distance.Params) Option {
	return func(t *ShapeletTreeClassifier) { t.Metric, t.MetricParams = name, params }
}
func WithRandomState(seed int64) Option {
	return func(t *ShapeletTreeClassifier) { t.RandomState = seed }
}

// NewShapeletTreeClassifier returns a tree with the usual defaults.
func NewShapeletTreeClassifier(opts ...Option) *ShapeletTreeClassifier {
	t := &ShapeletTreeClassifier{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		NShapelets:      10,
		MinShapeletSize: 0,
		MaxShapeletSize: 1,
		Criterion:       "gini",
		Metric:          "euclidean",
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ---------------------------
// Public API
// ---------------------------

// Fit grows the tree on every sample of X.
func (t *ShapeletTreeClassifier) Fit(X core.Panel, y []int) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.fit(X, y, uniqueClasses(y), idx, rand.New(rand.NewSource(t.RandomState)))
}

// Classes returns the sorted class codes seen during fit.
func (t *ShapeletTreeClassifier) Classes() []int { return slices.Clone(t.classes) }

// Predict returns the most probable class of each sample.
func (t *ShapeletTreeClassifier) Predict(X core.Panel) ([]int, error) {
	proba, err := t.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return labelsFromProba(proba, t.classes), nil
}

// PredictProba returns the leaf class distribution reached by each sample.
func (t *ShapeletTreeClassifier) PredictProba(X core.Panel) ([][]float64, error) {
	if t.root == nil {
		return nil, ErrNotFitted
	}
	if err := checkDims(X, t.nDims); err != nil {
		return nil, err
	}
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = slices.Clone(t.predictProbaSingle(X[i]))
	}
	return out, nil
}

// Depth returns the length of the longest root-to-leaf path (0 for a single leaf).
func (t *ShapeletTreeClassifier) Depth() int { return nodeDepth(t.root) }

// ---------------------------
// Internal builders & helpers
// ---------------------------

// fit grows the tree on the samples listed in idx (duplicates allowed, as
// produced by bootstrap sampling). classes is the full label set so leaf
// probabilities line up across the trees of a forest.
func (t *ShapeletTreeClassifier) fit(X core.Panel, y []int, classes []int, idx []int, rnd *rand.Rand) error {
	if len(classes) == 0 {
		return ErrNoClasses
	}
	m, impurity, err := t.validate()
	if err != nil {
		return err
	}
	t.metric = m
	t.classes = classes
	t.nDims = X.NumDims()

	t.root = t.buildNode(X, y, idx, 0, impurity, rnd)
	return nil
}

// validate checks the hyperparameters and resolves the metric and the
// impurity function they name.
func (t *ShapeletTreeClassifier) validate() (distance.Metric, func([]int) float64, error) {
	if t.NShapelets < 1 {
		return nil, nil, fmt.Errorf("%w: n_shapelets=%d", ErrInvalidParam, t.NShapelets)
	}
	if t.MinShapeletSize < 0 || t.MaxShapeletSize > 1 || t.MinShapeletSize > t.MaxShapeletSize {
		return nil, nil, fmt.Errorf("%w: shapelet size [%v, %v] must satisfy 0 <= min <= max <= 1",
			ErrInvalidParam, t.MinShapeletSize, t.MaxShapeletSize)
	}
	if t.MinSamplesSplit < 2 || t.MinSamplesLeaf < 1 || t.MaxDepth < 0 {
		return nil, nil, fmt.Errorf("%w: max_depth=%d min_samples_split=%d min_samples_leaf=%d",
			ErrInvalidParam, t.MaxDepth, t.MinSamplesSplit, t.MinSamplesLeaf)
	}
	var impurity func([]int) float64
	switch t.Criterion {
	case "gini":
		impurity = giniFromCounts
	case "entropy":
		impurity = entropyFromCounts
	default:
		return nil, nil, fmt.Errorf("%w: criterion=%q", ErrInvalidParam, t.Criterion)
	}
	m, err := distance.New(t.Metric, t.MetricParams)
	if err != nil {
		return nil, nil, err
	}
	return m, impurity, nil
}

// splitResult holds the outcome of evaluating one candidate shapelet.
type splitResult struct {
	ok        bool
	gain      float64
	threshold float64
	leftIdx   []int
	rightIdx  []int
}

// pair is a distance and the sample it belongs to.
type pair struct {
	v float64
	i int
}

func (t *ShapeletTreeClassifier) buildNode(X core.Panel, y []int, idx []int, depth int, impurity func([]int) float64, rnd *rand.Rand) *stNode {
	node := &stNode{N: len(idx)}
	counts := t.countClasses(y, idx)

	if isPure(counts) || len(idx) < t.MinSamplesSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return t.makeLeaf(node, counts)
	}

	// Draw every candidate before evaluating so the random stream does not
	// depend on goroutine scheduling.
	candidates := make([]*Shapelet, t.NShapelets)
	for k := range candidates {
		candidates[k] = sampleShapelet(X, idx, t.MinShapeletSize, t.MaxShapeletSize, rnd)
	}

	parentImpurity := impurity(counts)
	results := make([]splitResult, len(candidates))
	var wg sync.WaitGroup
	for k, s := range candidates {
		wg.Add(1)
		go func(k int, s *Shapelet) {
			defer wg.Done()
			results[k] = t.evaluateShapelet(X, y, idx, s, counts, parentImpurity, impurity)
		}(k, s)
	}
	wg.Wait()

	bestK := -1
	for k, r := range results {
		if r.ok && (bestK < 0 || r.gain > results[bestK].gain) {
			bestK = k
		}
	}
	if bestK < 0 || results[bestK].gain <= t.MinImpurityDecrease {
		return t.makeLeaf(node, counts)
	}

	best := results[bestK]
	node.Shapelet = candidates[bestK]
	node.Threshold = best.threshold
	node.Left = t.buildNode(X, y, best.leftIdx, depth+1, impurity, rnd)
	node.Right = t.buildNode(X, y, best.rightIdx, depth+1, impurity, rnd)
	return node
}

func (t *ShapeletTreeClassifier) makeLeaf(node *stNode, counts []int) *stNode {
	node.Leaf = true
	node.Probas = countsToProbas(counts)
	return node
}

// evaluateShapelet sorts the node samples by their distance to s and scans
// every midpoint between distinct distances for the best impurity decrease.
func (t *ShapeletTreeClassifier) evaluateShapelet(X core.Panel, y []int, idx []int, s *Shapelet, counts []int, parentImpurity float64, impurity func([]int) float64) splitResult {
	pairs := make([]pair, len(idx))
	for k, i := range idx {
		pairs[k] = pair{v: t.metric.Distance(s.Values, X[i][s.Dim]), i: i}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

	n := len(pairs)
	left := make([]int, len(counts))
	right := slices.Clone(counts)
	result := splitResult{}
	split := 0
	for k := 1; k < n; k++ {
		ci := classIndex(y[pairs[k-1].i], t.classes)
		left[ci]++
		right[ci]--
		if pairs[k].v == pairs[k-1].v {
			continue
		}
		if k < t.MinSamplesLeaf || n-k < t.MinSamplesLeaf {
			continue
		}
		weighted := float64(k)/float64(n)*impurity(left) + float64(n-k)/float64(n)*impurity(right)
		gain := parentImpurity - weighted
		if !result.ok || gain > result.gain {
			result.ok = true
			result.gain = gain
			result.threshold = (pairs[k-1].v + pairs[k].v) / 2
			split = k
		}
	}
	if !result.ok {
		return result
	}
	result.leftIdx = indicesFromPairs(pairs[:split])
	result.rightIdx = indicesFromPairs(pairs[split:])
	return result
}

func (t *ShapeletTreeClassifier) countClasses(y []int, idx []int) []int {
	counts := make([]int, len(t.classes))
	for _, i := range idx {
		counts[classIndex(y[i], t.classes)]++
	}
	return counts
}

// sampleShapelet draws a random subsequence from a random sample and
// dimension among idx.
func sampleShapelet(X core.Panel, idx []int, minSize, maxSize float64, rnd *rand.Rand) *Shapelet {
	sample := idx[rnd.Intn(len(idx))]
	dim := rnd.Intn(len(X[sample]))
	series := X[sample][dim]
	lo, hi := shapeletBounds(len(series), minSize, maxSize)
	length := lo + rnd.Intn(hi-lo+1)
	start := rnd.Intn(len(series) - length + 1)
	return &Shapelet{
		Sample: sample,
		Dim:    dim,
		Start:  start,
		Values: slices.Clone(series[start : start+length]),
	}
}

// shapeletBounds converts fractional size limits into lengths in [2, m].
func shapeletBounds(m int, minSize, maxSize float64) (lo, hi int) {
	lo = max(2, int(minSize*float64(m)))
	hi = max(lo, int(maxSize*float64(m)))
	lo, hi = min(lo, m), min(hi, m)
	return lo, hi
}

func indicesFromPairs(pairs []pair) []int {
	out := make([]int, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.i)
	}
	return out
}

func checkDims(X core.Panel, nDims int) error {
	if err := X.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if X.NumDims() != nDims {
		return fmt.Errorf("model: %w: got %d dimensions, fitted on %d", core.ErrDimMismatch, X.NumDims(), nDims)
	}
	return nil
}

// ---------------------------
// Prediction helper
// ---------------------------

func (t *ShapeletTreeClassifier) predictProbaSingle(x [][]float64) []float64 {
	node := t.root
	for !node.Leaf {
		d := t.metric.Distance(node.Shapelet.Values, x[node.Shapelet.Dim])
		if d <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Probas
}

func nodeDepth(n *stNode) int {
	if n == nil || n.Leaf {
		return 0
	}
	return 1 + max(nodeDepth(n.Left), nodeDepth(n.Right))
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

// ---------------------------
// Persistence
// ---------------------------

type treeState struct {
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesLeaf      int
	NShapelets          int
	MinShapeletSize     float64
	MaxShapeletSize     float64
	Criterion           string
	Metric              string
	MetricParams        distance.Params
	MinImpurityDecrease float64
	RandomState         int64
	Classes             []int
	NDims               int
	Root                *stNode
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (t *ShapeletTreeClassifier) MarshalBinary() ([]byte, error) {
	if t.root == nil {
		return nil, ErrNotFitted
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(treeState{
		MaxDepth:            t.MaxDepth,
		MinSamplesSplit:     t.MinSamplesSplit,
		MinSamplesLeaf:      t.MinSamplesLeaf,
		NShapelets:          t.NShapelets,
		MinShapeletSize:     t.MinShapeletSize,
		MaxShapeletSize:     t.MaxShapeletSize,
		Criterion:           t.Criterion,
		Metric:              t.Metric,
		MetricParams:        t.MetricParams,
		MinImpurityDecrease: t.MinImpurityDecrease,
		RandomState:         t.RandomState,
		Classes:             t.classes,
		NDims:               t.nDims,
		Root:                t.root,
	})
	if err != nil {
		return nil, fmt.Errorf("model: encode tree: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob. The
// distance metric is rebuilt from its name and parameters.
func (t *ShapeletTreeClassifier) UnmarshalBinary(data []byte) error {
	var st treeState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return fmt.Errorf("model: decode tree: %w", err)
	}
	m, err := distance.New(st.Metric, st.MetricParams)
	if err != nil {
		return err
	}
	*t = ShapeletTreeClassifier{
		MaxDepth:            st.MaxDepth,
		MinSamplesSplit:     st.MinSamplesSplit,
		MinSamplesLeaf:      st.MinSamplesLeaf,
		NShapelets:          st.NShapelets,
		MinShapeletSize:     st.MinShapeletSize,
		MaxShapeletSize:     st.MaxShapeletSize,
		Criterion:           st.Criterion,
		Metric:              st.Metric,
		MetricParams:        st.MetricParams,
		MinImpurityDecrease: st.MinImpurityDecrease,
		RandomState:         st.RandomState,
		metric:              m,
		root:                st.Root,
		classes:             st.Classes,
		nDims:               st.NDims,
	}
	return nil
}
