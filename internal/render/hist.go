package render

import (
	"image/color"

	"github.com/banshee-data/trackml.viz/internal/binning"
	"github.com/banshee-data/trackml.viz/internal/monitoring"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
)

// HistOptions configures SingleHist.
type HistOptions struct {
	Bins   int
	Title  string
	XLabel string
	YLabel string
	Color  color.Color // fill colour, blue when nil
}

// SingleHist histograms data (optionally weighted) into fig and logs the bin
// heights and centres.
func SingleHist(fig *Figure, data, weights []float64, o HistOptions) (*hbook.H1D, error) {
	h, err := binning.NewH1D(data, weights, o.Bins)
	if err != nil {
		return nil, err
	}

	hh := hplot.NewH1D(h)
	hh.FillColor = colorOr(o.Color, defaultColor)
	hh.LineStyle.Color = colorOr(o.Color, defaultColor)
	fig.Plot.Add(hh)
	fig.setLabels(o.Title, o.XLabel, o.YLabel)

	heights, centers := binHeights(h)
	monitoring.Logf("bin heights: %v", heights)
	monitoring.Logf("bin centers: %v", centers)
	return h, nil
}

// binHeights returns the summed weight and midpoint of every bin.
func binHeights(h *hbook.H1D) (heights, centers []float64) {
	heights = make([]float64, len(h.Binning.Bins))
	centers = make([]float64, len(h.Binning.Bins))
	for i := range h.Binning.Bins {
		b := &h.Binning.Bins[i]
		heights[i] = b.SumW()
		centers[i] = b.XMid()
	}
	return heights, centers
}
