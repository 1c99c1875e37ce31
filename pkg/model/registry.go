package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Hephaest/time-series-shapelet/pkg/distance"
)

var (
	ErrUnknownClassifier = errors.New("model: unknown classifier")
	ErrUnknownParam      = errors.New("model: unknown parameter")
)

// Params are snake_case hyperparameters as they appear in YAML configs and
// on the command line, e.g. {"n_shapelets": 1, "metric": "scaled_dtw",
// "metric_params": {"r": 0.1}}.
type Params map[string]any

const (
	ShapeletForest = "ShapeletForestClassifier"
	ShapeletTree   = "ShapeletTreeClassifier"
	KNeighbors     = "KNeighborsTimeSeriesClassifier"
)

// Names lists the classifiers New can build.
func Names() []string {
	out := []string{ShapeletForest, ShapeletTree, KNeighbors}
	sort.Strings(out)
	return out
}

// New builds the named classifier. Unrecognised parameter keys and
// out-of-range values are rejected here rather than at Fit.
func New(name string, p Params) (Classifier, error) {
	r := &paramReader{p: p, used: map[string]bool{}}
	var c Classifier
	switch name {
	case ShapeletForest:
		f := NewShapeletForestClassifier()
		r.getInt("n_estimators", &f.NEstimators)
		r.getInt("max_depth", &f.MaxDepth)
		r.getInt("min_samples_split", &f.MinSamplesSplit)
		r.getInt("n_shapelets", &f.NShapelets)
		r.getFloat("min_shapelet_size", &f.MinShapeletSize)
		r.getFloat("max_shapelet_size", &f.MaxShapeletSize)
		r.getString("criterion", &f.Criterion)
		r.getString("metric", &f.Metric)
		r.getMetricParams("metric_params", &f.MetricParams)
		r.getBool("bootstrap", &f.Bootstrap)
		r.getInt64("random_state", &f.RandomState)
		r.getInt("n_jobs", &f.NJobs)
		c = f
	case ShapeletTree:
		t := NewShapeletTreeClassifier()
		r.getInt("max_depth", &t.MaxDepth)
		r.getInt("min_samples_split", &t.MinSamplesSplit)
		r.getInt("min_samples_leaf", &t.MinSamplesLeaf)
		r.getInt("n_shapelets", &t.NShapelets)
		r.getFloat("min_shapelet_size", &t.MinShapeletSize)
		r.getFloat("max_shapelet_size", &t.MaxShapeletSize)
		r.getString("criterion", &t.Criterion)
		r.getString("metric", &t.Metric)
		r.getMetricParams("metric_params", &t.MetricParams)
		r.getInt64("random_state", &t.RandomState)
		c = t
	case KNeighbors:
		k := NewKNeighborsTimeSeriesClassifier(1, "euclidean", nil)
		r.getInt("n_neighbors", &k.K)
		r.getString("metric", &k.Metric)
		r.getMetricParams("metric_params", &k.MetricParams)
		c = k
	default:
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownClassifier, name, strings.Join(Names(), ", "))
	}
	if err := r.finish(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := validateClassifier(c); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

func validateClassifier(c Classifier) error {
	switch c := c.(type) {
	case *ShapeletForestClassifier:
		return c.validate()
	case *ShapeletTreeClassifier:
		_, _, err := c.validate()
		return err
	case *KNeighborsTimeSeriesClassifier:
		_, err := c.validate()
		return err
	}
	return nil
}

// paramReader copies typed values out of Params, remembering the first error.
type paramReader struct {
	p    Params
	used map[string]bool
	err  error
}

func (r *paramReader) lookup(key string) (any, bool) {
	r.used[key] = true
	v, ok := r.p[key]
	return v, ok && r.err == nil
}

func (r *paramReader) fail(key string, v any, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s=%v is not %s", ErrInvalidParam, key, v, want)
	}
}

func (r *paramReader) getInt(key string, dst *int) {
	var v64 int64
	if r.getInt64(key, &v64) {
		*dst = int(v64)
	}
}

func (r *paramReader) getInt64(key string, dst *int64) bool {
	v, ok := r.lookup(key)
	if !ok {
		return false
	}
	switch x := v.(type) {
	case int:
		*dst = int64(x)
	case int64:
		*dst = x
	case float64:
		if x != math.Trunc(x) {
			r.fail(key, v, "an integer")
			return false
		}
		*dst = int64(x)
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			r.fail(key, v, "an integer")
			return false
		}
		*dst = n
	default:
		r.fail(key, v, "an integer")
		return false
	}
	return true
}

func (r *paramReader) getFloat(key string, dst *float64) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	f, good := toFloat(v)
	if !good {
		r.fail(key, v, "a number")
		return
	}
	*dst = f
}

func (r *paramReader) getString(key string, dst *string) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	s, good := v.(string)
	if !good {
		r.fail(key, v, "a string")
		return
	}
	*dst = s
}

func (r *paramReader) getBool(key string, dst *bool) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	switch x := v.(type) {
	case bool:
		*dst = x
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			r.fail(key, v, "a boolean")
			return
		}
		*dst = b
	default:
		r.fail(key, v, "a boolean")
	}
}

func (r *paramReader) getMetricParams(key string, dst *distance.Params) {
	v, ok := r.lookup(key)
	if !ok || v == nil {
		return
	}
	out := distance.Params{}
	switch x := v.(type) {
	case distance.Params:
		for k, f := range x {
			out[k] = f
		}
	case map[string]float64:
		for k, f := range x {
			out[k] = f
		}
	case map[string]any:
		for k, raw := range x {
			f, good := toFloat(raw)
			if !good {
				r.fail(key+"."+k, raw, "a number")
				return
			}
			out[k] = f
		}
	default:
		r.fail(key, v, "a mapping")
		return
	}
	*dst = out
}

func (r *paramReader) finish() error {
	if r.err != nil {
		return r.err
	}
	var unknown []string
	for k := range r.p {
		if !r.used[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", ErrUnknownParam, strings.Join(unknown, ", "))
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
