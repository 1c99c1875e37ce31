package experiment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/Hephaest/time-series-shapelet/pkg/model"
)

const generatedBy = "Generated by tsforest"

var ErrBadResults = errors.New("experiment: malformed results file")

// Results is the content of a UEA-format results file.
type Results struct {
	Dataset    string
	Classifier string
	Split      string
	Fold       int
	Params     string
	Accuracy   float64
	BuildMS    int64
	TestMS     int64
	NClasses   int
	Actual     []int
	Predicted  []int
	Proba      [][]float64
}

// FormatParams renders params as sorted key=value pairs.
func FormatParams(p model.Params) string {
	if len(p) == 0 {
		return "default"
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return strings.Join(parts, ",")
}

// WriteResults writes r in the UEA format:
//
//	dataset,classifier,split,fold,MILLISECONDS,PREDICTIONS,<generator>
//	<params>
//	accuracy,build_ms,test_ms,-1,-1,n_classes
//	actual,predicted,,p_0,...,p_{c-1}
func WriteResults(w io.Writer, r *Results) error {
	if len(r.Actual) != len(r.Predicted) || len(r.Actual) != len(r.Proba) {
		return fmt.Errorf("experiment: %d actual, %d predicted, %d probability rows",
			len(r.Actual), len(r.Predicted), len(r.Proba))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s,%s,%s,%d,MILLISECONDS,PREDICTIONS,%s\n", r.Dataset, r.Classifier, r.Split, r.Fold, generatedBy)
	fmt.Fprintln(bw, r.Params)
	fmt.Fprintf(bw, "%s,%d,%d,-1,-1,%d\n", strconv.FormatFloat(r.Accuracy, 'g', -1, 64), r.BuildMS, r.TestMS, r.NClasses)
	for i := range r.Actual {
		fmt.Fprintf(bw, "%d,%d,", r.Actual[i], r.Predicted[i])
		for _, p := range r.Proba[i] {
			bw.WriteByte(',')
			bw.WriteString(strconv.FormatFloat(p, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteResultsFile writes r to path through a temporary file so that a
// crashed run never leaves a half-written file that would later be skipped.
func WriteResultsFile(path string, r *Results) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".testFold*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := WriteResults(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadResults parses a results file written by WriteResults.
func ReadResults(path string) (*Results, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := parseResults(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func parseResults(in io.Reader) (*Results, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: %d lines, want at least 3", ErrBadResults, len(lines))
	}

	head := strings.Split(lines[0], ",")
	if len(head) < 6 {
		return nil, fmt.Errorf("%w: line 1 has %d fields", ErrBadResults, len(head))
	}
	fold, err := strconv.Atoi(head[3])
	if err != nil {
		return nil, fmt.Errorf("%w: line 1: fold %q", ErrBadResults, head[3])
	}
	r := &Results{Dataset: head[0], Classifier: head[1], Split: head[2], Fold: fold, Params: lines[1]}

	summary := strings.Split(lines[2], ",")
	if len(summary) < 6 {
		return nil, fmt.Errorf("%w: line 3 has %d fields", ErrBadResults, len(summary))
	}
	if r.Accuracy, err = strconv.ParseFloat(summary[0], 64); err != nil {
		return nil, fmt.Errorf("%w: line 3: accuracy %q", ErrBadResults, summary[0])
	}
	if r.BuildMS, err = strconv.ParseInt(summary[1], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: line 3: build time %q", ErrBadResults, summary[1])
	}
	if r.TestMS, err = strconv.ParseInt(summary[2], 10, 64); err != nil {
		return nil, fmt.Errorf("%w: line 3: test time %q", ErrBadResults, summary[2])
	}
	if r.NClasses, err = strconv.Atoi(summary[5]); err != nil {
		return nil, fmt.Errorf("%w: line 3: n_classes %q", ErrBadResults, summary[5])
	}

	for n, line := range lines[3:] {
		if line == "" {
			continue
		}
		lineNo := n + 4
		fields := strings.Split(line, ",")
		if len(fields) < 3 || fields[2] != "" {
			return nil, fmt.Errorf("%w: line %d: want actual,predicted,,probabilities", ErrBadResults, lineNo)
		}
		actual, err1 := strconv.Atoi(fields[0])
		pred, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: line %d: class values", ErrBadResults, lineNo)
		}
		proba := make([]float64, len(fields)-3)
		for j, s := range fields[3:] {
			if proba[j], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("%w: line %d: probability %q", ErrBadResults, lineNo, s)
			}
		}
		r.Actual = append(r.Actual, actual)
		r.Predicted = append(r.Predicted, pred)
		r.Proba = append(r.Proba, proba)
	}
	return r, nil
}
