package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ScatterOptions configures XY.
type ScatterOptions struct {
	Title  string
	XLabel string
	YLabel string
	Color  color.Color // blue when nil
}

// XY draws y against x as a scatter plot.
func XY(fig *Figure, x, y []float64, o ScatterOptions) error {
	pts, err := xyPoints(x, y)
	if err != nil {
		return err
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = colorOr(o.Color, defaultColor)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(1.5)

	fig.Plot.Add(s)
	fig.setLabels(o.Title, o.XLabel, o.YLabel)
	return nil
}

func xyPoints(x, y []float64) (plotter.XYs, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("length mismatch: %d x values, %d y values", len(x), len(y))
	}
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts, nil
}
