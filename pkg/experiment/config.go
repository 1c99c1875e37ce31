// Package experiment runs classifiers over archive datasets and resampled
// folds and writes one UEA-format results file per combination.
package experiment

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

var ErrInvalidConfig = errors.New("experiment: invalid config")

// SmallDatasets are the UCR problems small enough for a quick sweep.
var SmallDatasets = []string{
	"Beef", "Car", "Coffee", "CricketX", "CricketY", "CricketZ",
	"DiatomSizeReduction", "Fish", "GunPoint", "ItalyPowerDemand",
	"MoteStrain", "OliveOil", "Plane", "SonyAIBORobotSurface1",
	"SonyAIBORobotSurface2", "SyntheticControl", "Trace", "TwoLeadECG",
}

// ClassifierSpec names a registered classifier and its hyperparameters.
type ClassifierSpec struct {
	Name   string       `yaml:"name"`
	Params model.Params `yaml:"params,omitempty"`
}

// Config drives Compare. Zero values are filled from DefaultConfig by LoadConfig.
type Config struct {
	DataDir     string           `yaml:"data_dir"`
	ResultsDir  string           `yaml:"results_dir"`
	Folds       int              `yaml:"folds"`
	Datasets    []string         `yaml:"datasets"`
	Classifiers []ClassifierSpec `yaml:"classifiers"`
	Parallel    int              `yaml:"parallel"`
	Overwrite   bool             `yaml:"overwrite"`
	Store       string           `yaml:"store,omitempty"` // sqlite path; empty disables the ledger
}

// DefaultConfig returns two folds of the shapelet forest over Beef and Coffee.
func DefaultConfig() *Config {
	return &Config{
		DataDir:     "data",
		ResultsDir:  "results",
		Folds:       2,
		Datasets:    []string{"Beef", "Coffee"},
		Classifiers: []ClassifierSpec{{Name: model.ShapeletForest}},
		Parallel:    1,
	}
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config and builds every classifier once, which rejects
// unknown names, unknown keys and out-of-range hyperparameters.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir is empty", ErrInvalidConfig)
	case c.ResultsDir == "":
		return fmt.Errorf("%w: results_dir is empty", ErrInvalidConfig)
	case c.Folds < 1:
		return fmt.Errorf("%w: folds=%d", ErrInvalidConfig, c.Folds)
	case len(c.Datasets) == 0:
		return fmt.Errorf("%w: no datasets", ErrInvalidConfig)
	case len(c.Classifiers) == 0:
		return fmt.Errorf("%w: no classifiers", ErrInvalidConfig)
	case c.Parallel < 0:
		return fmt.Errorf("%w: parallel=%d", ErrInvalidConfig, c.Parallel)
	}
	for _, cs := range c.Classifiers {
		if _, err := buildClassifier(cs, 0); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Combinations returns one Spec per (fold, dataset, classifier) in that
// nesting order.
func (c *Config) Combinations() []Spec {
	out := make([]Spec, 0, c.Folds*len(c.Datasets)*len(c.Classifiers))
	for fold := range c.Folds {
		for _, ds := range c.Datasets {
			for _, cs := range c.Classifiers {
				out = append(out, Spec{
					DataDir:    c.DataDir,
					ResultsDir: c.ResultsDir,
					Classifier: cs,
					Dataset:    ds,
					Fold:       fold,
					Overwrite:  c.Overwrite,
				})
			}
		}
	}
	return out
}
