package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/banshee-data/trackml.viz/internal/geometry"
	"github.com/banshee-data/trackml.viz/internal/trackml"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// View selects the 2D projection of 3D detector data.
type View int

const (
	// Transverse projects onto the x-y plane.
	Transverse View = iota
	// Longitudinal projects onto the z-r plane, r = sqrt(x²+y²).
	Longitudinal
)

func (v View) String() string {
	if v == Longitudinal {
		return "rz"
	}
	return "xy"
}

func (v View) project(p r3.Vec) (float64, float64) {
	if v == Longitudinal {
		return p.Z, math.Hypot(p.X, p.Y)
	}
	return p.X, p.Y
}

func (v View) axisLabels() (string, string) {
	if v == Longitudinal {
		return "z [mm]", "r [mm]"
	}
	return "x [mm]", "y [mm]"
}

func (v View) points(ps []r3.Vec) plotter.XYs {
	xys := make(plotter.XYs, len(ps))
	for i, p := range ps {
		xys[i].X, xys[i].Y = v.project(p)
	}
	return xys
}

// setLimits fixes the axes to the projected extent of centres.
func (v View) setLimits(fig *Figure, centres []r3.Vec) {
	if len(centres) == 0 {
		return
	}
	xys := v.points(centres)
	fig.Plot.X.Min, fig.Plot.X.Max = xys[0].X, xys[0].X
	fig.Plot.Y.Min, fig.Plot.Y.Max = xys[0].Y, xys[0].Y
	for _, p := range xys[1:] {
		fig.Plot.X.Min = math.Min(fig.Plot.X.Min, p.X)
		fig.Plot.X.Max = math.Max(fig.Plot.X.Max, p.X)
		fig.Plot.Y.Min = math.Min(fig.Plot.Y.Min, p.Y)
		fig.Plot.Y.Max = math.Max(fig.Plot.Y.Max, p.Y)
	}
}

// ModulePolygons draws module outlines as filled silver polygons with black
// edges.
func ModulePolygons(fig *Figure, polys []geometry.Polygon, v View) error {
	for _, p := range polys {
		poly, err := plotter.NewPolygon(v.points(p[:]))
		if err != nil {
			return err
		}
		poly.Color = moduleFill
		poly.LineStyle.Color = moduleEdge
		poly.LineStyle.Width = vg.Points(0.5)
		fig.Plot.Add(poly)
	}
	x, y := v.axisLabels()
	fig.setLabels("", x, y)
	return nil
}

// LayerCentres draws the module centres of each layer group as small
// markers, labelling each group with its index at its first centre.
func LayerCentres(fig *Figure, layers []geometry.LayerGroup, v View) error {
	labels := plotter.XYLabels{}
	for i, l := range layers {
		if len(l.Centers) == 0 {
			continue
		}
		s, err := plotter.NewScatter(v.points(l.Centers))
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = withAlpha(layerColor, 0x80)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(0.5)
		fig.Plot.Add(s)

		x, y := v.project(l.Centers[0])
		labels.XYs = append(labels.XYs, plotter.XY{X: x, Y: y})
		labels.Labels = append(labels.Labels, fmt.Sprintf("%d", i))
	}
	if len(labels.XYs) > 0 {
		lbl, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		fig.Plot.Add(lbl)
	}
	return nil
}

// TrackPath draws a track as a thin line through its points with markers
// coloured by cylindrical radius.
func TrackPath(fig *Figure, track trackml.Track, v View) error {
	if track.Len() == 0 {
		return nil
	}
	_, _, _, r := track.Coords()
	xys := v.points(trackPoints(track))

	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.LineStyle.Color = trackColor
	line.LineStyle.Width = vg.Points(0.5)

	marks, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	colors := radiusColors(r)
	marks.GlyphStyle.Shape = draw.CircleGlyph{}
	marks.GlyphStyle.Radius = vg.Points(3)
	marks.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		gs := marks.GlyphStyle
		gs.Color = colors[i]
		return gs
	}

	fig.Plot.Add(line, marks)
	x, y := v.axisLabels()
	fig.setLabels("", x, y)
	return nil
}

// radiusColors maps each radius onto a perceptual colour map spanning the
// radius range.
func radiusColors(r []float64) []color.Color {
	out := make([]color.Color, len(r))
	if len(r) == 0 {
		return out
	}
	lo, hi := floats.Min(r), floats.Max(r)
	if lo == hi {
		hi = lo + 1
	}
	cm := moreland.Kindlmann()
	cm.SetMin(lo)
	cm.SetMax(hi)
	for i, v := range r {
		c, err := cm.At(v)
		if err != nil {
			c = color.Black
		}
		out[i] = c
	}
	return out
}

func withAlpha(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}
