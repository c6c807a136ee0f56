package render

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/heat-tiles/server/internal/heatmap"
)

// CalibrationPlot renders the per-zoom max intensity table as a line plot
// PNG. The flat line of a fixed override is plotted the same way.
func CalibrationPlot(table heatmap.MaxIntensityTable, radius int) ([]byte, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Max intensity calibration (radius %d px)", radius)
	p.X.Label.Text = "zoom"
	p.Y.Label.Text = "max intensity"
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(table))
	for z, v := range table {
		pts[z].X = float64(z)
		pts[z].Y = v
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("calibration plot: %w", err)
	}
	line.Color = color.RGBA{R: 0xE5, A: 255}
	points.Color = color.RGBA{R: 0xE5, A: 255}
	p.Add(line, points)

	wt, err := p.WriterTo(5*vg.Inch, 3*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("calibration plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("calibration plot: %w", err)
	}
	return buf.Bytes(), nil
}
