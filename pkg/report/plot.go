package report

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Hephaest/time-series-shapelet/pkg/data"
	"github.com/Hephaest/time-series-shapelet/pkg/dataprep"
)

var palette = []color.RGBA{
	{R: 228, G: 26, B: 28, A: 255},
	{R: 55, G: 126, B: 184, A: 255},
	{R: 77, G: 175, B: 74, A: 255},
	{R: 152, G: 78, B: 163, A: 255},
	{R: 255, G: 127, B: 0, A: 255},
	{R: 166, G: 86, B: 40, A: 255},
}

// PlotPanel draws up to perClass series of dimension dim for every class
// of f, one colour per class, and saves the figure to path. The image type
// follows the file extension (.png, .svg, .pdf).
func PlotPanel(f *data.Frame, dim, perClass int, path string) error {
	if f.Len() == 0 {
		return errors.New("report: empty frame")
	}
	if dim < 0 || dim >= f.X.NumDims() {
		return fmt.Errorf("report: dimension %d out of range [0, %d)", dim, f.X.NumDims())
	}
	if perClass < 1 {
		perClass = 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (dimension %d)", f.Name, dim)
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Value"
	p.Legend.Top = true

	classes := f.ClassLabels()
	drawn := make(map[string]int, len(classes))
	for i, label := range f.Labels {
		if drawn[label] >= perClass {
			continue
		}
		series := slices.Clone(f.X[i][dim])
		dataprep.InterpolateInPlace(series)
		pts := make(plotter.XYs, len(series))
		for t, v := range series {
			pts[t] = plotter.XY{X: float64(t), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("report: series %d: %w", i, err)
		}
		line.Color = palette[slices.Index(classes, label)%len(palette)]
		p.Add(line)
		if drawn[label] == 0 {
			p.Legend.Add(label, line)
		}
		drawn[label]++
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("report: save plot: %w", err)
	}
	return nil
}
