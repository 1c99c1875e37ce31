package core

import (
	"errors"
	"fmt"
)

// Panel holds a collection of (possibly multivariate) time series laid out as
// [sample][dimension][timepoint]. Missing observations are math.NaN().
type Panel [][][]float64

var (
	ErrEmptyPanel       = errors.New("core: empty panel")
	ErrDimMismatch      = errors.New("core: inconsistent number of dimensions")
	ErrEmptySeries      = errors.New("core: empty series")
	ErrIndexOutOfBounds = errors.New("core: index out of bounds")
)

// FromUnivariate wraps [sample][timepoint] data as a one-dimensional Panel.
// The inner slices are shared, not copied.
func FromUnivariate(x [][]float64) Panel {
	p := make(Panel, len(x))
	for i := range x {
		p[i] = [][]float64{x[i]}
	}
	return p
}

// NumSamples returns the number of series in the panel.
func (p Panel) NumSamples() int { return len(p) }

// NumDims returns the number of dimensions of the first sample.
func (p Panel) NumDims() int {
	if len(p) == 0 {
		return 0
	}
	return len(p[0])
}

// NumTimepoints returns the length of the first dimension of the first sample.
func (p Panel) NumTimepoints() int {
	if len(p) == 0 || len(p[0]) == 0 {
		return 0
	}
	return len(p[0][0])
}

// EqualLength reports whether every series in every dimension has the same length.
func (p Panel) EqualLength() bool {
	m := p.NumTimepoints()
	for i := range p {
		for d := range p[i] {
			if len(p[i][d]) != m {
				return false
			}
		}
	}
	return true
}

// Validate checks that the panel is non-empty, every sample has the same
// number of dimensions and no series is empty.
func (p Panel) Validate() error {
	if len(p) == 0 {
		return ErrEmptyPanel
	}
	d := len(p[0])
	if d == 0 {
		return fmt.Errorf("%w: sample 0 has no dimensions", ErrDimMismatch)
	}
	for i := range p {
		if len(p[i]) != d {
			return fmt.Errorf("%w: sample %d has %d, want %d", ErrDimMismatch, i, len(p[i]), d)
		}
		for j := range p[i] {
			if len(p[i][j]) == 0 {
				return fmt.Errorf("%w: sample %d dimension %d", ErrEmptySeries, i, j)
			}
		}
	}
	return nil
}

// Subset returns the samples at idx. Series are shared with p.
func (p Panel) Subset(idx []int) (Panel, error) {
	out := make(Panel, len(idx))
	for k, i := range idx {
		if i < 0 || i >= len(p) {
			return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfBounds, i, len(p))
		}
		out[k] = p[i]
	}
	return out, nil
}

// Head returns the first n samples (or all of them when n exceeds the length).
func (p Panel) Head(n int) Panel {
	if n < 0 {
		n = 0
	}
	if n > len(p) {
		n = len(p)
	}
	return p[:n]
}

// Clone deep copies the panel.
func (p Panel) Clone() Panel {
	out := make(Panel, len(p))
	for i := range p {
		out[i] = make([][]float64, len(p[i]))
		for d := range p[i] {
			out[i][d] = append([]float64(nil), p[i][d]...)
		}
	}
	return out
}
