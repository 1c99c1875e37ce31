package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/dataprep"
	"github.com/Hephaest/time-series-shapelet/pkg/pipeline"
	"github.com/Hephaest/time-series-shapelet/pkg/report"
	"github.com/Hephaest/time-series-shapelet/pkg/stats"
)

//
// ---------------------- CLI FLAGS DOCUMENTATION ----------------------
//
// --input    : Path to a .ts, .tsv or .txt archive file (required)
// --preview  : Number of series to preview in console
// --impute   : Fill missing values by linear interpolation
// --scale    : Per-series scaling: "none", "znorm" or "minmax"
// --output   : Save the processed data as .ts to this path
// --plot     : Save a plot of the first dimension to this image file
//
// Example:
//   go run main.go --input GunPoint_TRAIN.tsv --impute --scale znorm --output gunpoint_z.ts
//
// ---------------------------------------------------------------------
//

// previewData prints the first values of the first n series of every dimension.
func previewData(f *data.Frame, n, width int) {
	n = min(n, f.Len())
	fmt.Printf("%-8s%-12s", "Row", "Label")
	for _, c := range f.Columns {
		fmt.Printf("%-*s", width*10, c)
	}
	fmt.Println()
	for i := 0; i < n; i++ {
		fmt.Printf("%-8d%-12s", i, f.Labels[i])
		for _, dim := range f.X[i] {
			var sb strings.Builder
			for j := 0; j < width && j < len(dim); j++ {
				fmt.Fprintf(&sb, "%-10.4f", dim[j])
			}
			fmt.Printf("%-*s", width*10, sb.String())
		}
		fmt.Println()
	}
}

func load(path string) (*data.Frame, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(filepath.Ext(path), ".ts") {
		return data.LoadTSFile(path)
	}
	return data.LoadUCRFile(path, name)
}

func main() {
	// ---- CLI Flags ----
	inputPath := flag.String("input", "", "Path to a .ts, .tsv or .txt file")
	previewRows := flag.Int("preview", 5, "Number of series to preview in console")
	impute := flag.Bool("impute", false, "Interpolate missing values")
	scale := flag.String("scale", "none", "Scaling: none, znorm or minmax")
	outputPath := flag.String("output", "", "Path to save processed .ts file")
	plotPath := flag.String("plot", "", "Path to save a plot of dimension 0")
	flag.Parse()

	if *inputPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	// ---- Load ----
	f, err := load(*inputPath)
	if err != nil {
		log.Fatalf("Error loading %s: %v", *inputPath, err)
	}
	fmt.Printf("Loaded %s: %d series, %d dimensions, equal length: %t\n",
		f.Name, f.Len(), f.X.NumDims(), f.X.EqualLength())
	fmt.Println("Classes:", f.ClassLabels())

	// ---- Transform ----
	var steps []pipeline.Transformer
	if *impute {
		steps = append(steps, dataprep.NewInterpolator())
	}
	switch *scale {
	case "none", "":
	case "znorm":
		steps = append(steps, stats.NewZNormalizer())
	case "minmax":
		steps = append(steps, stats.NewMinMaxScaler())
	default:
		log.Fatalf("Unknown scaling %q", *scale)
	}
	for _, step := range steps {
		if err := step.Fit(f.X); err != nil {
			log.Fatalf("Fit %T: %v", step, err)
		}
		if f.X, err = step.Transform(f.X); err != nil {
			log.Fatalf("Transform %T: %v", step, err)
		}
	}

	// ---- Output ----
	fmt.Println("\nPreview of processed data:")
	previewData(f, *previewRows, 4)

	if *plotPath != "" {
		if err := report.PlotPanel(f, 0, 3, *plotPath); err != nil {
			log.Fatalf("Error plotting: %v", err)
		}
		fmt.Println("Plot saved to:", *plotPath)
	}
	if *outputPath != "" {
		out, err := os.Create(*outputPath)
		if err != nil {
			log.Fatalf("Error creating output file: %v", err)
		}
		defer out.Close()
		if err := data.WriteTS(out, f); err != nil {
			log.Fatalf("Error writing .ts: %v", err)
		}
		fmt.Println("Processed data saved to:", *outputPath)
	}
}
