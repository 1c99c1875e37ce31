// Package store keeps a SQLite ledger of experiment runs and their
// per-combination outcomes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Hephaest/time-series-shapelet/pkg/experiment"
)

// Outcome status values.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

var ErrNoRuns = errors.New("store: no runs recorded")

// nowUTC returns the current UTC time as an RFC 3339 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullFloat(nf sql.NullFloat64) float64 {
	if nf.Valid {
		return nf.Float64
	}
	return 0
}

// SqlStore is the SQLite-backed ledger.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory if it does not exist.
func Open(path string) (*SqlStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; concurrent recorders would otherwise hit SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v != schemaVersion:
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

func (s *SqlStore) Close() error { return s.db.Close() }

// Run is one invocation of the experiment driver. It implements
// experiment.Recorder.
type Run struct {
	ID        string
	StartedAt time.Time
	store     *SqlStore
}

var _ experiment.Recorder = (*Run)(nil)

// BeginRun registers a new run with a fresh UUID.
func (s *SqlStore) BeginRun(ctx context.Context) (*Run, error) {
	r := &Run{ID: uuid.NewString(), StartedAt: time.Now().UTC(), store: s}
	_, err := s.db.ExecContext(ctx, "INSERT INTO runs(id, started_at) VALUES(?, ?)",
		r.ID, r.StartedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return r, nil
}

// Record stores one outcome under the run.
func (r *Run) Record(ctx context.Context, o experiment.Outcome) error {
	status := StatusOK
	var acc sql.NullFloat64
	var build, test sql.NullInt64
	var msg sql.NullString
	switch {
	case o.Err != nil:
		status = StatusFailed
		msg = sql.NullString{String: o.Err.Error(), Valid: true}
	case o.Result != nil:
		if o.Result.Skipped {
			status = StatusSkipped
		}
		acc = sql.NullFloat64{Float64: o.Result.Accuracy, Valid: true}
		build = sql.NullInt64{Int64: o.Result.BuildTime.Milliseconds(), Valid: true}
		test = sql.NullInt64{Int64: o.Result.TestTime.Milliseconds(), Valid: true}
	}
	_, err := r.store.db.ExecContext(ctx, `INSERT INTO outcomes
		(run_id, classifier, dataset, fold, accuracy, build_ms, test_ms, status, error, recorded_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, o.Spec.Classifier.Name, o.Spec.Dataset, o.Spec.Fold, acc, build, test, status, msg, nowUTC())
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// OutcomeRow is a stored outcome.
type OutcomeRow struct {
	RunID      string
	Classifier string
	Dataset    string
	Fold       int
	Accuracy   float64
	BuildMS    int64
	TestMS     int64
	Status     string
	Error      string
	RecordedAt time.Time
}

// Outcomes lists the outcomes of runID ordered by fold, dataset, classifier.
func (s *SqlStore) Outcomes(ctx context.Context, runID string) ([]OutcomeRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, classifier, dataset, fold, accuracy,
		build_ms, test_ms, status, error, recorded_at
		FROM outcomes WHERE run_id = ? ORDER BY fold, dataset, classifier, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var o OutcomeRow
		var acc sql.NullFloat64
		var build, test sql.NullInt64
		var msg sql.NullString
		var at string
		if err := rows.Scan(&o.RunID, &o.Classifier, &o.Dataset, &o.Fold, &acc, &build, &test, &o.Status, &msg, &at); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Accuracy = nullFloat(acc)
		o.BuildMS, o.TestMS = build.Int64, test.Int64
		o.Error = nullStr(msg)
		if o.RecordedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", at, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// LatestRun returns the id of the most recently started run.
func (s *SqlStore) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM runs ORDER BY seq DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRuns
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}

// SummaryRow aggregates one classifier on one dataset across folds.
type SummaryRow struct {
	Classifier   string
	Dataset      string
	Folds        int // folds with an accuracy (ok or skipped)
	Failed       int
	MeanAccuracy float64
}

// Summary returns the mean accuracy per classifier and dataset for runID.
func (s *SqlStore) Summary(ctx context.Context, runID string) ([]SummaryRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT classifier, dataset,
		COUNT(accuracy),
		SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
		AVG(accuracy)
		FROM outcomes WHERE run_id = ?
		GROUP BY classifier, dataset
		ORDER BY classifier, dataset`, StatusFailed, runID)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var r SummaryRow
		var mean sql.NullFloat64
		if err := rows.Scan(&r.Classifier, &r.Dataset, &r.Folds, &r.Failed, &mean); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		r.MeanAccuracy = nullFloat(mean)
		out = append(out, r)
	}
	return out, rows.Err()
}
