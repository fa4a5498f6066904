package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"path/filepath"

	"github.com/banshee-data/trackml.viz/internal/fsutil"
	"github.com/banshee-data/trackml.viz/internal/geometry"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"
)

// Scene is an HTML page holding two 3D charts that share axes: one for
// polylines (tracks, module outlines) and one for markers (hits, layer
// centres). go-echarts cannot overlay 3D series of different types in one
// chart.
type Scene struct {
	title      string
	assetsHost string

	lines  *charts.Line3D
	points *charts.Scatter3D

	nLines  int
	nPoints int
}

// NewScene creates an empty scene.
func NewScene(title string) *Scene {
	s := &Scene{
		title:  title,
		lines:  charts.NewLine3D(),
		points: charts.NewScatter3D(),
	}
	common := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "800px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "x [mm]"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "y [mm]"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "z [mm]"}),
	}
	s.lines.SetGlobalOptions(append(common, charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "paths"}))...)
	s.points.SetGlobalOptions(append(common, charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "points"}))...)
	return s
}

// SetAssetsHost serves the echarts scripts from host instead of the
// go-echarts default CDN.
func (s *Scene) SetAssetsHost(host string) {
	s.assetsHost = host
}

// SetBounds fixes the axis ranges of both charts.
func (s *Scene) SetBounds(b geometry.Box) {
	axes := []charts.GlobalOpts{
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "x [mm]", Min: b.Min.X, Max: b.Max.X}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "y [mm]", Min: b.Min.Y, Max: b.Max.Y}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "z [mm]", Min: b.Min.Z, Max: b.Max.Z}),
	}
	s.lines.SetGlobalOptions(axes...)
	s.points.SetGlobalOptions(axes...)
}

// AddPath adds a polyline.
func (s *Scene) AddPath(name string, pts []r3.Vec, c color.Color) {
	data := make([]opts.Chart3DData, len(pts))
	for i, p := range pts {
		data[i] = opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}}
	}
	s.lines.AddSeries(name, data,
		charts.WithLineStyleOpts(opts.LineStyle{Color: hexColor(c), Width: 1}),
	)
	s.nLines++
}

// AddPolygon adds a closed module outline.
func (s *Scene) AddPolygon(name string, p geometry.Polygon) {
	s.AddPath(name, p.Closed(), moduleEdge)
}

// AddPoints adds markers. colors and labels are optional and, when given,
// must be parallel to pts; a labelled point shows its label in the chart.
// Large markers are used for hits, small ones for module centres.
func (s *Scene) AddPoints(name string, pts []r3.Vec, colors []color.Color, labels []string, large bool) error {
	if colors != nil && len(colors) != len(pts) {
		return fmt.Errorf("scene: %d colours for %d points", len(colors), len(pts))
	}
	if labels != nil && len(labels) != len(pts) {
		return fmt.Errorf("scene: %d labels for %d points", len(labels), len(pts))
	}

	data := make([]opts.Chart3DData, len(pts))
	for i, p := range pts {
		d := opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}}
		if colors != nil {
			d.ItemStyle = &opts.ItemStyle{Color: hexColor(colors[i])}
		}
		if labels != nil && labels[i] != "" {
			d.Name = labels[i]
			d.Label = &opts.Label{Show: opts.Bool(true), Formatter: "{b}"}
		}
		data[i] = d
	}
	size := charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2})
	if large {
		size = charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8})
	}
	s.points.AddSeries(name, data, size)
	s.nPoints++
	return nil
}

// Series returns the number of path and point series in the scene.
func (s *Scene) Series() (paths, points int) {
	return s.nLines, s.nPoints
}

// Render writes the scene as a standalone HTML page. Charts without series
// are left out.
func (s *Scene) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetPageTitle(s.title)
	if s.assetsHost != "" {
		page.SetAssetsHost(s.assetsHost)
	}
	if s.nLines > 0 {
		page.AddCharts(s.lines)
	}
	if s.nPoints > 0 {
		page.AddCharts(s.points)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("failed to render scene: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Save renders the scene to path, creating parent directories.
func (s *Scene) Save(fsys fsutil.FileSystem, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := s.Render(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
