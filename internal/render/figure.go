// Package render draws hit, track and detector data.
//
// Every renderer takes an explicit handle: a Figure (gonum plot, optionally
// with a colour bar) for 2D output, or a Scene (go-echarts page) for 3D
// output. Nothing is drawn into shared state.
package render

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/banshee-data/trackml.viz/internal/fsutil"
	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default figure size, matching the grid plots of the monitoring tools.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 7 * vg.Inch
)

const (
	colorBarWidth = 60
	colorBarGap   = 20
)

// Figure is one 2D drawing surface.
type Figure struct {
	Plot *plot.Plot

	colorBar *plot.Plot
}

// NewFigure creates an empty figure.
func NewFigure() *Figure {
	return &Figure{Plot: plot.New()}
}

// HasColorBar reports whether a renderer attached a colour bar.
func (f *Figure) HasColorBar() bool {
	return f.colorBar != nil
}

func (f *Figure) setLabels(title, xLabel, yLabel string) {
	if title != "" {
		f.Plot.Title.Text = title
	}
	if xLabel != "" {
		f.Plot.X.Label.Text = xLabel
	}
	if yLabel != "" {
		f.Plot.Y.Label.Text = yLabel
	}
}

// Save writes the figure to path. The format comes from the extension
// (png, svg, pdf, eps, jpg, tif). Parent directories are created.
func (f *Figure) Save(fsys fsutil.FileSystem, path string, width, height vg.Length) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	c, err := draw.NewFormattedCanvas(width, height, format)
	if err != nil {
		return fmt.Errorf("canvas for %s: %w", path, err)
	}

	dc := draw.New(c)
	if f.colorBar != nil {
		// Same split as a heat map with a side colour bar: plot on the left,
		// bar in a fixed-width strip on the right.
		f.Plot.Draw(draw.Crop(dc, 0, -(colorBarWidth + colorBarGap), 0, 0))
		f.colorBar.Draw(draw.Crop(dc, width-colorBarWidth, 0, 0, 0))
	} else {
		f.Plot.Draw(dc)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := c.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return w.Close()
}

// colorOr returns c, or def when c is nil.
func colorOr(c color.Color, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

// Named colours used across the renderers.
var (
	defaultColor = colornames.Blue
	trackColor   = colornames.Skyblue
	moduleFill   = colornames.Silver
	moduleEdge   = colornames.Black
	layerColor   = colornames.Mediumslateblue
)

// hexColor formats c as #rrggbb for HTML charts.
func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
