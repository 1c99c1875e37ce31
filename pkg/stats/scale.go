package stats

import (
	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

// ZNormalizer rescales every series of every sample to zero mean and unit
// variance. It is stateless, so Fit only validates the input.
type ZNormalizer struct{}

func NewZNormalizer() *ZNormalizer { return &ZNormalizer{} }

func (z *ZNormalizer) Fit(X core.Panel) error { return X.Validate() }

// Transform returns a normalized copy of X; the input is left untouched.
func (z *ZNormalizer) Transform(X core.Panel) (core.Panel, error) {
	if err := X.Validate(); err != nil {
		return nil, err
	}
	out := X.Clone()
	for i := range out {
		for d := range out[i] {
			NormalizeInPlace(out[i][d])
		}
	}
	return out, nil
}

// MinMaxScaler rescales each series to [0, 1]. Constant series become zeros.
type MinMaxScaler struct{}

func NewMinMaxScaler() *MinMaxScaler { return &MinMaxScaler{} }

func (s *MinMaxScaler) Fit(X core.Panel) error { return X.Validate() }

func (s *MinMaxScaler) Transform(X core.Panel) (core.Panel, error) {
	if err := X.Validate(); err != nil {
		return nil, err
	}
	out := X.Clone()
	for i := range out {
		for d := range out[i] {
			row := out[i][d]
			lo, hi := MinMax(row)
			for j := range row {
				if hi != lo {
					row[j] = (row[j] - lo) / (hi - lo)
				} else {
					row[j] = 0
				}
			}
		}
	}
	return out, nil
}
