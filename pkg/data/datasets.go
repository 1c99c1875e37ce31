package data

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hephaest/time-series-shapelet/pkg/core"
)

// Split selects the train or test part of an archive problem.
type Split string

const (
	Train Split = "TRAIN"
	Test  Split = "TEST"
)

// DataDirEnv names the environment variable consulted by DefaultRoot.
const DataDirEnv = "TSFOREST_DATA_DIR"

// ErrDatasetNotFound is returned when none of the candidate files exist.
var ErrDatasetNotFound = errors.New("data: dataset not found")

// ParseSplit accepts "train"/"test" in any case.
func ParseSplit(s string) (Split, error) {
	switch Split(strings.ToUpper(s)) {
	case Train:
		return Train, nil
	case Test:
		return Test, nil
	}
	return "", fmt.Errorf("data: unknown split %q", s)
}

// DefaultRoot returns $TSFOREST_DATA_DIR, or "data" when it is unset.
func DefaultRoot() string {
	if v := os.Getenv(DataDirEnv); v != "" {
		return v
	}
	return "data"
}

// Path returns the .ts path of a problem split under root.
func Path(root, name string, split Split) string {
	return filepath.Join(root, name, fmt.Sprintf("%s_%s.ts", name, split))
}

// Load reads <root>/<name>/<name>_<split> trying the .ts, .tsv and .txt
// archive layouts in that order.
func Load(root, name string, split Split) (*Frame, error) {
	base := filepath.Join(root, name, fmt.Sprintf("%s_%s", name, split))
	tried := make([]string, 0, 3)
	for _, ext := range []string{".ts", ".tsv", ".txt"} {
		path := base + ext
		tried = append(tried, path)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		var f *Frame
		var err error
		if ext == ".ts" {
			f, err = LoadTSFile(path)
		} else {
			f, err = LoadUCRFile(path, name)
		}
		if err != nil {
			return nil, err
		}
		if f.Name == "" {
			f.Name = name
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s (tried %s)", ErrDatasetNotFound, name, strings.Join(tried, ", "))
}

// LoadXY is Load returning the panel and labels directly.
func LoadXY(root, name string, split Split) (core.Panel, []string, error) {
	f, err := Load(root, name, split)
	if err != nil {
		return nil, nil, err
	}
	X, y := f.XY()
	return X, y, nil
}

// LoadGunPoint loads the univariate GunPoint problem.
func LoadGunPoint(root string, split Split) (*Frame, error) { return Load(root, "GunPoint", split) }

// LoadBasicMotions loads the multivariate BasicMotions problem.
func LoadBasicMotions(root string, split Split) (*Frame, error) {
	return Load(root, "BasicMotions", split)
}

// WriteDataset stores train and test under <root>/<name>/ in .ts format.
func WriteDataset(root, name string, train, test *Frame) error {
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	for split, f := range map[Split]*Frame{Train: train, Test: test} {
		if err := writeTSFile(Path(root, name, split), f); err != nil {
			return err
		}
	}
	return nil
}

func writeTSFile(path string, f *Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTS(out, f); err != nil {
		_ = out.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return out.Close()
}
