package pipeline

import (
	"errors"
	"fmt"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

var (
	ErrNoSteps     = errors.New("pipeline: no steps")
	ErrBadStep     = errors.New("pipeline: invalid step")
	ErrNotFitted   = errors.New("pipeline: not fitted")
	ErrSchemaDrift = errors.New("pipeline: input does not match the fitted schema")
)

// Transformer interface for the fit/transform pattern.
type Transformer interface {
	Fit(X core.Panel) error
	Transform(X core.Panel) (core.Panel, error)
}

// Step is a named pipeline stage.
type Step struct {
	Name      string
	Estimator any
}

// Pipeline chains transformers and ends in a classifier. It satisfies
// model.Classifier itself.
type Pipeline struct {
	steps  []Step
	transf []Transformer
	clf    model.Classifier
	schema *Schema
}

// New checks that every step but the last is a Transformer and that the last
// is a model.Classifier.
func New(steps ...Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	p := &Pipeline{steps: steps}
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: step %d has no name", ErrBadStep, i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: duplicate step name %q", ErrBadStep, s.Name)
		}
		seen[s.Name] = true

		if i == len(steps)-1 {
			clf, ok := s.Estimator.(model.Classifier)
			if !ok {
				return nil, fmt.Errorf("%w: final step %q (%T) is not a classifier", ErrBadStep, s.Name, s.Estimator)
			}
			p.clf = clf
			break
		}
		t, ok := s.Estimator.(Transformer)
		if !ok {
			return nil, fmt.Errorf("%w: step %q (%T) is not a transformer", ErrBadStep, s.Name, s.Estimator)
		}
		p.transf = append(p.transf, t)
	}
	return p, nil
}

// Steps returns the step names in order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Named returns the estimator of the step called name.
func (p *Pipeline) Named(name string) (any, bool) {
	for _, s := range p.steps {
		if s.Name == name {
			return s.Estimator, true
		}
	}
	return nil, false
}

// Schema returns the input layout seen at fit time, or nil before Fit.
func (p *Pipeline) Schema() *Schema { return p.schema }

func (p *Pipeline) Fit(X core.Panel, y []int) error {
	schema, err := SchemaOf(X)
	if err != nil {
		return err
	}
	for i, t := range p.transf {
		if err := t.Fit(X); err != nil {
			return fmt.Errorf("pipeline: fit %s: %w", p.steps[i].Name, err)
		}
		if X, err = t.Transform(X); err != nil {
			return fmt.Errorf("pipeline: transform %s: %w", p.steps[i].Name, err)
		}
	}
	if err := p.clf.Fit(X, y); err != nil {
		return fmt.Errorf("pipeline: fit %s: %w", p.steps[len(p.steps)-1].Name, err)
	}
	p.schema = schema
	return nil
}

// Transform runs X through every transformer step.
func (p *Pipeline) Transform(X core.Panel) (core.Panel, error) {
	if p.schema == nil {
		return nil, ErrNotFitted
	}
	if err := p.schema.Check(X); err != nil {
		return nil, err
	}
	var err error
	for i, t := range p.transf {
		if X, err = t.Transform(X); err != nil {
			return nil, fmt.Errorf("pipeline: transform %s: %w", p.steps[i].Name, err)
		}
	}
	return X, nil
}

func (p *Pipeline) Predict(X core.Panel) ([]int, error) {
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.clf.Predict(Xt)
}

func (p *Pipeline) PredictProba(X core.Panel) ([][]float64, error) {
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.clf.PredictProba(Xt)
}

func (p *Pipeline) Classes() []int { return p.clf.Classes() }
