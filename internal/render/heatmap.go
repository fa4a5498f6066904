package render

import (
	"math"

	"github.com/banshee-data/trackml.viz/internal/binning"
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
)

// DefaultZLabel labels the colour bar of a heat map.
const DefaultZLabel = "Normalized P_T"

// HeatMapOptions configures HeatMap.
type HeatMapOptions struct {
	XBins  int
	YBins  int
	Title  string
	XLabel string
	YLabel string
	ZLabel string // colour bar label, DefaultZLabel when empty
}

// HeatMap draws the weighted 2D histogram of (x, y) with a colour bar. A nil
// weights slice counts entries.
func HeatMap(fig *Figure, x, y, weights []float64, o HeatMapOptions) (*hbook.H2D, error) {
	h, err := binning.NewH2D(x, y, weights, o.XBins, o.YBins)
	if err != nil {
		return nil, err
	}

	grid := h.GridXYZ()
	zmin, zmax := gridRange(grid)

	cm := moreland.ExtendedBlackBody()
	cm.SetMin(zmin)
	cm.SetMax(zmax)

	heat := plotter.NewHeatMap(grid, cm.Palette(255))
	heat.Min = zmin
	heat.Max = zmax
	fig.Plot.Add(heat)
	fig.setLabels(o.Title, o.XLabel, o.YLabel)

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	bar.HideX()
	bar.Y.Padding = 0
	bar.Y.Label.Text = o.ZLabel
	if o.ZLabel == "" {
		bar.Y.Label.Text = DefaultZLabel
	}
	fig.colorBar = bar

	return h, nil
}

// gridRange returns the finite z range of a grid. A flat or empty grid gets a
// unit range so colour maps stay valid.
func gridRange(g plotter.GridXYZ) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	c, r := g.Dims()
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			z := g.Z(i, j)
			if math.IsNaN(z) || math.IsInf(z, 0) {
				continue
			}
			lo = math.Min(lo, z)
			hi = math.Max(hi, z)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}
