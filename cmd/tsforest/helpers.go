package main

import (
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/dataprep"
	"github.com/Hephaest/time-series-shapelet/pkg/distance"
	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

// archiveProblem is a problem the drivers know by name: its loader and a
// generated stand-in used when the archive is not on disk.
type archiveProblem struct {
	load      func(root string, split data.Split) (*data.Frame, error)
	synthetic func(seed int64) *data.Frame
}

var archiveProblems = map[string]archiveProblem{
	"GunPoint": {
		load:      data.LoadGunPoint,
		synthetic: func(seed int64) *data.Frame { return data.CylinderBellFunnel(60, seed) },
	},
	"BasicMotions": {
		load:      data.LoadBasicMotions,
		synthetic: func(seed int64) *data.Frame { return data.Motions(40, seed) },
	},
}

// loadSplits loads train and test of name under root. When a known problem
// is missing, its synthetic stand-in is returned instead.
func loadSplits(root, name string, logger *zap.Logger) (train, test *data.Frame, err error) {
	p, known := archiveProblems[name]
	load := p.load
	if !known {
		load = func(root string, split data.Split) (*data.Frame, error) { return data.Load(root, name, split) }
	}
	train, err = load(root, data.Train)
	if err == nil {
		test, err = load(root, data.Test)
	}
	if err == nil {
		return train, test, nil
	}
	if !known || !errors.Is(err, data.ErrDatasetNotFound) {
		return nil, nil, err
	}
	train, test = p.synthetic(1), p.synthetic(2)
	logger.Warn("dataset not found, using synthetic stand-in",
		zap.String("dataset", name),
		zap.String("substitute", train.Name),
		zap.Error(err),
	)
	return train, test, nil
}

// encodeUnion encodes both splits with one encoder fitted on all labels, so
// that a short slice of the test split may hold classes unseen in training.
func encodeUnion(train, test []string) (ytr, yte []int, enc *dataprep.LabelEncoder, err error) {
	enc = dataprep.NewLabelEncoder().Fit(slices.Concat(train, test))
	if ytr, err = enc.Transform(train); err != nil {
		return nil, nil, nil, err
	}
	if yte, err = enc.Transform(test); err != nil {
		return nil, nil, nil, err
	}
	return ytr, yte, enc, nil
}

// forestParams are the example-script hyperparameters.
func forestParams(nEstimators int, seed int64) model.Params {
	return model.Params{
		"n_estimators":  nEstimators,
		"n_shapelets":   1,
		"metric":        "scaled_dtw",
		"metric_params": distance.Params{"r": 0.1},
		"random_state":  seed,
	}
}
