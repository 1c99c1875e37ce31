package data

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

// ErrMalformed marks content that does not follow the .ts format.
var ErrMalformed = errors.New("data: malformed .ts content")

// ParseError locates a problem in a .ts file.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// TSHeader carries the @-tags of a .ts file.
type TSHeader struct {
	ProblemName  string
	TimeStamps   bool
	Missing      bool
	Univariate   bool
	Dimensions   int // 0 when not declared
	EqualLength  bool
	SeriesLength int // 0 when not declared
	ClassLabel   bool
	ClassLabels  []string
}

// LoadTSFile reads a .ts file from disk.
func LoadTSFile(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fr, err := ReadTS(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fr, nil
}

// ReadTS parses the sktime/UEA .ts format. Timestamped data is not supported.
func ReadTS(r io.Reader) (*Frame, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<28)

	var h TSHeader
	var X core.Panel
	var labels []string
	inData := false
	lineNo := 0
	fail := func(format string, args ...any) error {
		return &ParseError{Line: lineNo, Err: fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)}
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !inData {
			if !strings.HasPrefix(line, "@") {
				return nil, fail("expected a header tag, got %q", truncate(line))
			}
			done, err := h.parseTag(line)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			inData = done
			continue
		}

		sample, label, err := h.parseRow(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Err: err}
		}
		if len(X) > 0 && len(sample) != len(X[0]) {
			return nil, fail("row has %d dimensions, previous rows have %d", len(sample), len(X[0]))
		}
		X = append(X, sample)
		labels = append(labels, label)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !inData {
		return nil, &ParseError{Line: lineNo, Err: fmt.Errorf("%w: missing @data section", ErrMalformed)}
	}
	if len(X) == 0 {
		return nil, &ParseError{Line: lineNo, Err: fmt.Errorf("%w: no data rows", ErrMalformed)}
	}

	fr, err := NewFrame(h.ProblemName, X, labels)
	if err != nil {
		return nil, err
	}
	return fr, nil
}

// parseTag consumes one header line and reports whether it was @data.
func (h *TSHeader) parseTag(line string) (bool, error) {
	fields := strings.Fields(line)
	tag := strings.ToLower(fields[0])
	args := fields[1:]
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	var err error
	switch tag {
	case "@data":
		if h.TimeStamps {
			return false, fmt.Errorf("%w: timestamped series are not supported", ErrMalformed)
		}
		return true, nil
	case "@problemname":
		h.ProblemName = strings.Join(args, " ")
	case "@timestamps":
		h.TimeStamps, err = parseBoolTag(tag, arg)
	case "@missing":
		h.Missing, err = parseBoolTag(tag, arg)
	case "@univariate":
		h.Univariate, err = parseBoolTag(tag, arg)
	case "@equallength":
		h.EqualLength, err = parseBoolTag(tag, arg)
	case "@dimensions":
		h.Dimensions, err = strconv.Atoi(arg)
	case "@serieslength":
		h.SeriesLength, err = strconv.Atoi(arg)
	case "@classlabel":
		h.ClassLabel, err = parseBoolTag(tag, arg)
		if err == nil && h.ClassLabel {
			if len(args) < 2 {
				return false, fmt.Errorf("%w: @classLabel true needs at least one label", ErrMalformed)
			}
			h.ClassLabels = slices.Clone(args[1:])
		}
	case "@targetlabel":
		return false, fmt.Errorf("%w: regression targets are not supported", ErrMalformed)
	default:
		// unknown tags are tolerated
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformed, tag, err)
	}
	return false, nil
}

func parseBoolTag(tag, v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("%s expects true or false, got %q", tag, v)
}

func (h *TSHeader) parseRow(line string) ([][]float64, string, error) {
	parts := strings.Split(line, ":")
	label := ""
	if h.ClassLabel {
		if len(parts) < 2 {
			return nil, "", fmt.Errorf("%w: row has no class label", ErrMalformed)
		}
		label = strings.TrimSpace(parts[len(parts)-1])
		parts = parts[:len(parts)-1]
		if len(h.ClassLabels) > 0 && !slices.Contains(h.ClassLabels, label) {
			return nil, "", fmt.Errorf("%w: label %q not declared in @classLabel", ErrMalformed, label)
		}
	}
	if h.Dimensions > 0 && len(parts) != h.Dimensions {
		return nil, "", fmt.Errorf("%w: row has %d dimensions, header declares %d", ErrMalformed, len(parts), h.Dimensions)
	}
	if h.Univariate && len(parts) != 1 {
		return nil, "", fmt.Errorf("%w: univariate problem but row has %d dimensions", ErrMalformed, len(parts))
	}
	sample := make([][]float64, len(parts))
	for d, p := range parts {
		vals, err := parseSeries(p)
		if err != nil {
			return nil, "", fmt.Errorf("dimension %d: %w", d, err)
		}
		if h.EqualLength && h.SeriesLength > 0 && len(vals) != h.SeriesLength {
			return nil, "", fmt.Errorf("%w: dimension %d has %d points, @seriesLength is %d", ErrMalformed, d, len(vals), h.SeriesLength)
		}
		sample[d] = vals
	}
	return sample, label, nil
}

func parseSeries(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty series", ErrMalformed)
	}
	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "?" || strings.EqualFold(f, "nan") {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d: %q is not a number", ErrMalformed, i, f)
		}
		out[i] = v
	}
	return out, nil
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

// WriteTS writes f in the .ts format.
func WriteTS(w io.Writer, f *Frame) error {
	if err := f.X.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	missing := false
	for _, s := range f.X {
		for _, dim := range s {
			if slices.ContainsFunc(dim, math.IsNaN) {
				missing = true
			}
		}
	}
	equal := f.X.EqualLength()
	dims := f.X.NumDims()

	name := f.Name
	if name == "" {
		name = "unnamed"
	}
	fmt.Fprintf(bw, "@problemName %s\n", name)
	fmt.Fprintf(bw, "@timeStamps false\n")
	fmt.Fprintf(bw, "@missing %t\n", missing)
	fmt.Fprintf(bw, "@univariate %t\n", dims == 1)
	if dims > 1 {
		fmt.Fprintf(bw, "@dimensions %d\n", dims)
	}
	fmt.Fprintf(bw, "@equalLength %t\n", equal)
	if equal {
		fmt.Fprintf(bw, "@seriesLength %d\n", f.X.NumTimepoints())
	}
	fmt.Fprintf(bw, "@classLabel true %s\n", strings.Join(f.ClassLabels(), " "))
	fmt.Fprintf(bw, "@data\n")

	for i, s := range f.X {
		for d, dim := range s {
			if d > 0 {
				bw.WriteByte(':')
			}
			for j, v := range dim {
				if j > 0 {
					bw.WriteByte(',')
				}
				if math.IsNaN(v) {
					bw.WriteByte('?')
				} else {
					bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
				}
			}
		}
		bw.WriteByte(':')
		bw.WriteString(f.Labels[i])
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
