package render

import (
	"image/color"

	"github.com/banshee-data/trackml.viz/internal/binning"
	"github.com/banshee-data/trackml.viz/internal/monitoring"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ProfileOptions configures Profile.
type ProfileOptions struct {
	Bins   int
	Title  string
	XLabel string
	YLabel string
	Color  color.Color // blue when nil
}

// errorPoints pairs bin centres and means with their standard errors.
type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

// Profile draws the binned mean of y against x with standard-error bars,
// one point per bin centre.
//
// Empty bins have NaN statistics, which gonum plotters reject; they are left
// out of the drawing but kept in the returned profile.
func Profile(fig *Figure, x, y []float64, o ProfileOptions) (*binning.Profile, error) {
	prof, err := binning.Compute(x, y, o.Bins)
	if err != nil {
		return nil, err
	}

	bins := prof.Populated()
	if dropped := len(prof.Bins) - len(bins); dropped > 0 {
		monitoring.Logf("profile: %d of %d bins are empty and not drawn", dropped, len(prof.Bins))
	}

	pts := errorPoints{
		XYs:     make(plotter.XYs, len(bins)),
		YErrors: make(plotter.YErrors, len(bins)),
	}
	for i, b := range bins {
		pts.XYs[i].X = b.Center
		pts.XYs[i].Y = b.Mean
		pts.YErrors[i].Low = b.StdErr
		pts.YErrors[i].High = b.StdErr
	}

	c := colorOr(o.Color, defaultColor)
	if len(bins) > 0 {
		bars, err := plotter.NewYErrorBars(pts)
		if err != nil {
			return nil, err
		}
		bars.LineStyle.Color = c

		marks, err := plotter.NewScatter(pts.XYs)
		if err != nil {
			return nil, err
		}
		marks.GlyphStyle.Color = c
		marks.GlyphStyle.Shape = draw.CircleGlyph{}
		marks.GlyphStyle.Radius = vg.Points(2)

		fig.Plot.Add(bars, marks)
	}
	fig.setLabels(o.Title, o.XLabel, o.YLabel)
	return prof, nil
}
