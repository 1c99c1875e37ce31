package pipeline

import (
	"fmt"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

// Schema describes the structure of a panel seen at fit time.
type Schema struct {
	Dimensions  int
	Timepoints  int // length of the first series; 0 for unequal-length panels
	EqualLength bool
}

// SchemaOf validates X and records its layout.
func SchemaOf(X core.Panel) (*Schema, error) {
	if err := X.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	s := &Schema{Dimensions: X.NumDims(), EqualLength: X.EqualLength()}
	if s.EqualLength {
		s.Timepoints = X.NumTimepoints()
	}
	return s, nil
}

// Check rejects panels whose dimension count differs from the schema.
// Series length may differ since every metric handles it.
func (s *Schema) Check(X core.Panel) error {
	got, err := SchemaOf(X)
	if err != nil {
		return err
	}
	if got.Dimensions != s.Dimensions {
		return fmt.Errorf("%w: %d dimensions, fitted on %d", ErrSchemaDrift, got.Dimensions, s.Dimensions)
	}
	return nil
}
