package data

import (
	"fmt"
	"slices"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

// DefaultTarget is the name of the label column in loaded frames.
const DefaultTarget = "class_val"

// Frame is a nested table: one column per dimension, each cell holding a whole
// series, plus a string target column.
type Frame struct {
	Name    string
	Columns []string // dim_0 .. dim_{d-1}
	Target  string
	X       core.Panel
	Labels  []string
}

// NewFrame builds a frame with generated column names and the default target.
func NewFrame(name string, X core.Panel, labels []string) (*Frame, error) {
	if len(X) != len(labels) {
		return nil, fmt.Errorf("data: %d series but %d labels", len(X), len(labels))
	}
	cols := make([]string, X.NumDims())
	for d := range cols {
		cols[d] = fmt.Sprintf("dim_%d", d)
	}
	return &Frame{Name: name, Columns: cols, Target: DefaultTarget, X: X, Labels: labels}, nil
}

func (f *Frame) Len() int { return len(f.X) }

// Head returns a frame over the first n rows. Rows are shared with f.
func (f *Frame) Head(n int) *Frame {
	n = max(0, min(n, f.Len()))
	return &Frame{
		Name:    f.Name,
		Columns: f.Columns,
		Target:  f.Target,
		X:       f.X[:n],
		Labels:  f.Labels[:n],
	}
}

// HasColumn reports whether name is a feature column or the target.
func (f *Frame) HasColumn(name string) bool {
	return name == f.Target || slices.Contains(f.Columns, name)
}

// XY splits the frame into features and labels.
func (f *Frame) XY() (core.Panel, []string) { return f.X, f.Labels }

// ClassLabels returns the distinct labels in sorted order.
func (f *Frame) ClassLabels() []string {
	out := slices.Clone(f.Labels)
	slices.Sort(out)
	return slices.Compact(out)
}
