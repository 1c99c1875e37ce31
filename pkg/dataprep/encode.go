package dataprep

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrUnseenLabel   = errors.New("dataprep: label not seen during fit")
	ErrEncoderNotFit = errors.New("dataprep: label encoder is not fitted")
)

// LabelEncoder maps string labels onto 0..k-1 in sorted label order.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder() *LabelEncoder { return &LabelEncoder{} }

// Fit learns the sorted set of distinct labels.
func (e *LabelEncoder) Fit(labels []string) *LabelEncoder {
	classes := slices.Clone(labels)
	slices.Sort(classes)
	e.classes = slices.Compact(classes)
	e.index = make(map[string]int, len(e.classes))
	for i, c := range e.classes {
		e.index[c] = i
	}
	return e
}

// Classes returns the learned labels; position i is the label encoded as i.
func (e *LabelEncoder) Classes() []string { return slices.Clone(e.classes) }

// Transform encodes labels. A label that was not seen during Fit is an error.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	if e.index == nil {
		return nil, ErrEncoderNotFit
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		code, ok := e.index[l]
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrUnseenLabel, l, i)
		}
		out[i] = code
	}
	return out, nil
}

// FitTransform is Fit followed by Transform on the same labels.
func (e *LabelEncoder) FitTransform(labels []string) []int {
	out, _ := e.Fit(labels).Transform(labels)
	return out
}

// InverseTransform decodes class codes back to labels.
func (e *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if e.index == nil {
		return nil, ErrEncoderNotFit
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(e.classes) {
			return nil, fmt.Errorf("%w: code %d at position %d", ErrUnseenLabel, c, i)
		}
		out[i] = e.classes[c]
	}
	return out, nil
}

// Targets is the result of EncodeTargets. Encoder is nil when the labels
// were already integers.
type Targets struct {
	Train   []int
	Test    []int
	Encoder *LabelEncoder
}

// EncodeTargets converts string class labels to integer codes. When every
// label parses as an integer, the integers are used as-is. Otherwise a
// LabelEncoder is fitted on the training labels and applied to both splits.
func EncodeTargets(train, test []string) (*Targets, error) {
	if tr, ok := parseInts(train); ok {
		if te, ok := parseInts(test); ok {
			return &Targets{Train: tr, Test: te}, nil
		}
	}
	enc := NewLabelEncoder().Fit(train)
	tr, err := enc.Transform(train)
	if err != nil {
		return nil, err
	}
	te, err := enc.Transform(test)
	if err != nil {
		return nil, fmt.Errorf("test labels: %w", err)
	}
	return &Targets{Train: tr, Test: te, Encoder: enc}, nil
}

func parseInts(labels []string) ([]int, bool) {
	out := make([]int, len(labels))
	for i, l := range labels {
		v, err := strconv.Atoi(strings.TrimSpace(l))
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
