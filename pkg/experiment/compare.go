package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrFailures is returned by Compare when at least one combination failed.
var ErrFailures = errors.New("experiment: some combinations failed")

// Runner executes one combination. RunExperiment is the production runner.
type Runner func(ctx context.Context, spec Spec) (*Result, error)

// Recorder persists outcomes as they complete. It must be safe for
// concurrent use when Config.Parallel > 1.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Outcome is the result of one combination; Err carries the full chain for
// failures.
type Outcome struct {
	Spec   Spec
	Result *Result
	Err    error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// NewRunner adapts RunExperiment to the Runner signature.
func NewRunner(logger *zap.Logger) Runner {
	return func(ctx context.Context, spec Spec) (*Result, error) {
		return RunExperiment(ctx, spec, logger)
	}
}

type compareOptions struct {
	logger   *zap.Logger
	progress io.Writer
}

type CompareOption func(*compareOptions)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) CompareOption {
	return func(o *compareOptions) { o.logger = l }
}

// WithProgress prints "classifier dataset fold" to w as each combination starts.
func WithProgress(w io.Writer) CompareOption {
	return func(o *compareOptions) { o.progress = w }
}

// Compare runs every combination of cfg, fold by fold, dataset by dataset,
// classifier by classifier, with at most cfg.Parallel in flight. A failing
// combination is recorded and the loop moves on. Once ctx is done the
// combinations not yet started are marked failed with ctx.Err(). The
// returned error wraps ErrFailures when any outcome failed.
func Compare(ctx context.Context, cfg *Config, run Runner, rec Recorder, opts ...CompareOption) ([]Outcome, error) {
	o := compareOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	specs := cfg.Combinations()
	outcomes := make([]Outcome, len(specs))
	limit := cfg.Parallel
	if limit < 1 {
		limit = 1
	}

	var (
		g          errgroup.Group
		progressMu sync.Mutex
	)
	g.SetLimit(limit)
	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			outcomes[i] = Outcome{Spec: spec, Err: fmt.Errorf("%s: %w", spec, err)}
			continue
		}
		g.Go(func() error {
			if o.progress != nil {
				progressMu.Lock()
				fmt.Fprintln(o.progress, spec)
				progressMu.Unlock()
			}
			outcomes[i] = runOne(ctx, spec, run, rec, o.logger)
			return nil
		})
	}
	_ = g.Wait() // errors captured in Outcome.Err

	failed := 0
	for _, out := range outcomes {
		if out.Failed() {
			failed++
		}
	}
	o.logger.Info("comparison finished", zap.Int("combinations", len(specs)), zap.Int("failed", failed))
	if failed > 0 {
		return outcomes, fmt.Errorf("%w: %d of %d", ErrFailures, failed, len(specs))
	}
	return outcomes, nil
}

func runOne(ctx context.Context, spec Spec, run Runner, rec Recorder, logger *zap.Logger) Outcome {
	out := Outcome{Spec: spec}
	if err := ctx.Err(); err != nil {
		out.Err = fmt.Errorf("%s: %w", spec, err)
	} else if res, err := run(ctx, spec); err != nil {
		out.Err = fmt.Errorf("%s: %w", spec, err)
	} else {
		out.Result = res
	}
	if out.Err != nil {
		logger.Error("experiment failed",
			zap.String("classifier", spec.Classifier.Name),
			zap.String("dataset", spec.Dataset),
			zap.Int("fold", spec.Fold),
			zap.Error(out.Err),
		)
	}
	if rec != nil {
		if err := rec.Record(context.WithoutCancel(ctx), out); err != nil {
			logger.Warn("record outcome", zap.Stringer("spec", spec), zap.Error(err))
			out.Err = errors.Join(out.Err, fmt.Errorf("%s: record: %w", spec, err))
		}
	}
	return out
}
