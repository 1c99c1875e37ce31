package data

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

// Sample is one row of a UCR archive file. Err is set instead of Values when
// the row could not be parsed.
type Sample struct {
	Line   int
	Label  string
	Values []float64
	Err    error
}

// StreamUCR streams the rows of a UCR file (label first, then the values,
// separated by tabs, commas or spaces) through out. The channel is closed at
// EOF. Close the returned done chan to stop early.
func StreamUCR(path string, out chan<- Sample) (done chan struct{}, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<28)
	done = make(chan struct{})

	go func() {
		defer file.Close()
		defer close(out)
		line := 0
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			s := parseUCRRow(text)
			s.Line = line
			select {
			case out <- s:
			case <-done:
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case out <- Sample{Line: line, Err: err}:
			case <-done:
			}
		}
	}()
	return done, nil
}

func parseUCRRow(text string) Sample {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\t' || r == ',' || r == ' '
	})
	if len(fields) < 2 {
		return Sample{Err: fmt.Errorf("%w: row needs a label and at least one value", ErrMalformed)}
	}
	values := make([]float64, len(fields)-1)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Sample{Err: fmt.Errorf("%w: value %d: %q is not a number", ErrMalformed, i, f)}
		}
		values[i] = v
	}
	// Variable-length problems are right-padded with NaN.
	end := len(values)
	for end > 0 && math.IsNaN(values[end-1]) {
		end--
	}
	if end == 0 {
		return Sample{Err: fmt.Errorf("%w: row has no observed values", ErrMalformed)}
	}
	return Sample{Label: normalizeLabel(fields[0]), Values: values[:end]}
}

// normalizeLabel turns labels written as floats ("1.0000000e+00") into
// their integer spelling so both archive generations agree.
func normalizeLabel(s string) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.IsInf(v, 0) {
		return s
	}
	return strconv.FormatInt(int64(v), 10)
}

// LoadUCRFile reads a whole UCR file into a univariate frame named name.
func LoadUCRFile(path, name string) (*Frame, error) {
	rows := make(chan Sample, 64)
	done, err := StreamUCR(path, rows)
	if err != nil {
		return nil, err
	}
	defer close(done)

	var series [][]float64
	var labels []string
	for s := range rows {
		if s.Err != nil {
			return nil, fmt.Errorf("%s: %w", path, &ParseError{Line: s.Line, Err: s.Err})
		}
		series = append(series, s.Values)
		labels = append(labels, s.Label)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%s: %w: no data rows", path, ErrMalformed)
	}
	return NewFrame(name, core.FromUnivariate(series), labels)
}
