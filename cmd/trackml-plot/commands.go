package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/trackml.viz/internal/render"
	"github.com/banshee-data/trackml.viz/internal/security"
	"github.com/banshee-data/trackml.viz/internal/trackml"
	"github.com/banshee-data/trackml.viz/internal/units"
	"gonum.org/v1/gonum/floats"
)

// eventFlags are the flags shared by commands that read an event.
type eventFlags struct {
	fs     *flag.FlagSet
	event  *string
	name   *string
	title  *string
	xLabel *string
	yLabel *string
}

func newEventFlags(cmd string) *eventFlags {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	return &eventFlags{
		fs:     fs,
		event:  fs.String("event", "", "Event path prefix, e.g. train_100_events/event000001000 (required)"),
		name:   fs.String("name", "", "Output file name without extension"),
		title:  fs.String("title", "", "Plot title"),
		xLabel: fs.String("xlabel", "", "X axis label (defaults to the column name)"),
		yLabel: fs.String("ylabel", "", "Y axis label (defaults to the column name)"),
	}
}

func (f *eventFlags) parse(args []string) error {
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if *f.event == "" {
		return errors.New("-event is required")
	}
	return nil
}

// outputName returns the sanitised -name, or def.
func (f *eventFlags) outputName(def string) string {
	if *f.name != "" {
		return security.SanitizeFilename(*f.name)
	}
	return def
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func (a *app) loadEvent(prefix string) (*trackml.Event, error) {
	return trackml.LoadEvent(a.fsys, prefix)
}

// columns reads the named event columns and keeps only the rows where every
// column is finite. Hits without truth are NaN in truth columns.
func columns(ev *trackml.Event, names ...string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for i, name := range names {
		c, err := ev.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	n := len(ev.Hits)
	keep := make([]int, 0, n)
	for row := 0; row < n; row++ {
		ok := true
		for _, c := range cols {
			if math.IsNaN(c[row]) || math.IsInf(c[row], 0) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, row)
		}
	}
	if dropped := n - len(keep); dropped > 0 {
		log.Printf("Dropped %d of %d rows without finite %s", dropped, n, strings.Join(names, "/"))
	}

	out := make([][]float64, len(cols))
	for i, c := range cols {
		out[i] = make([]float64, len(keep))
		for j, row := range keep {
			out[i][j] = c[row]
		}
	}
	return out, nil
}

func (a *app) saveFigure(fig *render.Figure, name string) ([]string, error) {
	path := filepath.Join(a.out, name+"."+a.cfg.GetFormat())
	if err := fig.Save(a.fsys, path, a.cfg.GetWidth(), a.cfg.GetHeight()); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (a *app) saveViews(v *render.Views, name string) ([]string, error) {
	v.Scene.SetAssetsHost(a.cfg.GetEChartsAssetsHost())
	return v.Save(a.fsys, a.out, name, a.cfg.GetFormat(), a.cfg.GetWidth(), a.cfg.GetHeight())
}

func runHist(a *app, args []string) ([]string, error) {
	f := newEventFlags("hist")
	column := f.fs.String("column", "r", "Column to histogram")
	weights := f.fs.String("weights", "", "Optional weight column")
	bins := f.fs.Int("bins", a.cfg.GetHistBins(), "Number of bins")
	if err := f.parse(args); err != nil {
		return nil, err
	}

	ev, err := a.loadEvent(*f.event)
	if err != nil {
		return nil, err
	}
	names := []string{*column}
	if *weights != "" {
		names = append(names, *weights)
	}
	cols, err := columns(ev, names...)
	if err != nil {
		return nil, err
	}
	var w []float64
	if *weights != "" {
		w = cols[1]
	}

	fig := render.NewFigure()
	_, err = render.SingleHist(fig, cols[0], w, render.HistOptions{
		Bins:   *bins,
		Title:  *f.title,
		XLabel: orDefault(*f.xLabel, units.Label(*column)),
		YLabel: orDefault(*f.yLabel, "entries"),
	})
	if err != nil {
		return nil, err
	}
	return a.saveFigure(fig, f.outputName("hist_"+*column))
}

func runXY(a *app, args []string) ([]string, error) {
	f := newEventFlags("xy")
	x := f.fs.String("x", "x", "X column")
	y := f.fs.String("y", "y", "Y column")
	if err := f.parse(args); err != nil {
		return nil, err
	}

	ev, err := a.loadEvent(*f.event)
	if err != nil {
		return nil, err
	}
	cols, err := columns(ev, *x, *y)
	if err != nil {
		return nil, err
	}

	fig := render.NewFigure()
	err = render.XY(fig, cols[0], cols[1], render.ScatterOptions{
		Title:  *f.title,
		XLabel: orDefault(*f.xLabel, units.Label(*x)),
		YLabel: orDefault(*f.yLabel, units.Label(*y)),
	})
	if err != nil {
		return nil, err
	}
	return a.saveFigure(fig, f.outputName(fmt.Sprintf("xy_%s_%s", *x, *y)))
}

func runProfile(a *app, args []string) ([]string, error) {
	f := newEventFlags("profile")
	x := f.fs.String("x", "eta", "Binned column")
	y := f.fs.String("y", "tpt", "Averaged column")
	bins := f.fs.Int("bins", a.cfg.GetProfileBins(), "Number of bins")
	if err := f.parse(args); err != nil {
		return nil, err
	}

	ev, err := a.loadEvent(*f.event)
	if err != nil {
		return nil, err
	}
	cols, err := columns(ev, *x, *y)
	if err != nil {
		return nil, err
	}

	fig := render.NewFigure()
	prof, err := render.Profile(fig, cols[0], cols[1], render.ProfileOptions{
		Bins:   *bins,
		Title:  *f.title,
		XLabel: orDefault(*f.xLabel, units.Label(*x)),
		YLabel: orDefault(*f.yLabel, "mean "+units.Label(*y)),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Profile of %s over %s: %d entries in %d bins", *y, *x, prof.TotalCount(), len(prof.Bins))
	return a.saveFigure(fig, f.outputName(fmt.Sprintf("profile_%s_%s", *y, *x)))
}

func runHeatMap(a *app, args []string) ([]string, error) {
	nx, ny := a.cfg.GetHeatMapBins()
	f := newEventFlags("heatmap")
	x := f.fs.String("x", "z", "X column")
	y := f.fs.String("y", "r", "Y column")
	weights := f.fs.String("weights", "tpt", "Weight column; empty counts hits")
	normalize := f.fs.Bool("normalize", true, "Scale weights to sum to one")
	xBins := f.fs.Int("xbins", nx, "Number of x bins")
	yBins := f.fs.Int("ybins", ny, "Number of y bins")
	zLabel := f.fs.String("zlabel", "", "Colour bar label")
	if err := f.parse(args); err != nil {
		return nil, err
	}

	ev, err := a.loadEvent(*f.event)
	if err != nil {
		return nil, err
	}
	names := []string{*x, *y}
	if *weights != "" {
		names = append(names, *weights)
	}
	cols, err := columns(ev, names...)
	if err != nil {
		return nil, err
	}

	var w []float64
	if *weights != "" {
		w = cols[2]
		if *normalize {
			if sum := floats.Sum(w); sum != 0 {
				floats.Scale(1/sum, w)
			}
		}
	}

	label := *zLabel
	if label == "" && *weights == "" {
		label = "hits"
	}

	fig := render.NewFigure()
	_, err = render.HeatMap(fig, cols[0], cols[1], w, render.HeatMapOptions{
		XBins:  *xBins,
		YBins:  *yBins,
		Title:  *f.title,
		XLabel: orDefault(*f.xLabel, units.Label(*x)),
		YLabel: orDefault(*f.yLabel, units.Label(*y)),
		ZLabel: label,
	})
	if err != nil {
		return nil, err
	}
	return a.saveFigure(fig, f.outputName(fmt.Sprintf("heatmap_%s_%s", *x, *y)))
}

// selectTrack returns the requested particle's track, or the first track
// with enough hits when particle is zero.
func (a *app) selectTrack(ev *trackml.Event, particle uint64) (trackml.Track, error) {
	if particle != 0 {
		return ev.Track(particle)
	}
	tracks := ev.Tracks(a.cfg.GetMinTrackHits())
	if len(tracks) == 0 {
		return trackml.Track{}, fmt.Errorf("%w: no track with at least %d hits", trackml.ErrNoSuchParticle, a.cfg.GetMinTrackHits())
	}
	log.Printf("Selected particle %d (%d hits) of %d candidate tracks", tracks[0].ParticleID, tracks[0].Len(), len(tracks))
	return tracks[0], nil
}

func runTrack(a *app, args []string) ([]string, error) {
	f := newEventFlags("track")
	particle := f.fs.Uint64("particle", 0, "Particle id; 0 picks the first track with min_track_hits hits")
	if err := f.parse(args); err != nil {
		return nil, err
	}

	ev, err := a.loadEvent(*f.event)
	if err != nil {
		return nil, err
	}
	track, err := a.selectTrack(ev, *particle)
	if err != nil {
		return nil, err
	}

	v := render.NewViews(orDefault(*f.title, fmt.Sprintf("particle %d", track.ParticleID)))
	if err := render.Track3D(v.Scene, track); err != nil {
		return nil, err
	}
	if err := render.TrackPath(v.Transverse, track, render.Transverse); err != nil {
		return nil, err
	}
	if err := render.TrackPath(v.Longitudinal, track, render.Longitudinal); err != nil {
		return nil, err
	}
	return a.saveViews(v, f.outputName(fmt.Sprintf("track_%d", track.ParticleID)))
}

func runLayers(a *app, args []string) ([]string, error) {
	f := newEventFlags("layers")
	particle := f.fs.Uint64("particle", 0, "Particle id; 0 picks the first track with min_track_hits hits")
	modules := f.fs.Bool("modules", false, "Draw the module outline of every hit on the track")
	volumes := f.fs.String("volumes", "", "Comma-separated volume ids (defaults to pixel_volumes)")
	if err := f.parse(args); err != nil {
		return nil, err
	}
	vols, err := a.volumes(*volumes)
	if err != nil {
		return nil, err
	}

	det, err := a.detector()
	if err != nil {
		return nil, err
	}
	ev, err := a.loadEvent(*f.event)
	if err != nil {
		return nil, err
	}
	track, err := a.selectTrack(ev, *particle)
	if err != nil {
		return nil, err
	}

	v := render.NewViews(orDefault(*f.title, fmt.Sprintf("particle %d over layers", track.ParticleID)))
	err = render.TrackOverLayers(v, det, track, *modules, render.TrackOverLayersOptions{Volumes: vols})
	if err != nil {
		return nil, err
	}
	return a.saveViews(v, f.outputName(fmt.Sprintf("layers_%d", track.ParticleID)))
}

func runDetector(a *app, args []string) ([]string, error) {
	fs := flag.NewFlagSet("detector", flag.ContinueOnError)
	volumes := fs.String("volumes", "", "Comma-separated volume ids (defaults to pixel_volumes)")
	name := fs.String("name", "detector", "Output file name without extension")
	title := fs.String("title", "pixel detector", "Plot title")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	vols, err := a.volumes(*volumes)
	if err != nil {
		return nil, err
	}

	det, err := a.detector()
	if err != nil {
		return nil, err
	}
	v := render.NewViews(*title)
	if err := render.WholeDetector(v, det, render.WholeDetectorOptions{Volumes: vols}); err != nil {
		return nil, err
	}
	return a.saveViews(v, security.SanitizeFilename(*name))
}

// volumes parses a comma-separated volume list, falling back to the
// configured pixel volumes.
func (a *app) volumes(list string) ([]int, error) {
	if strings.TrimSpace(list) == "" {
		return a.cfg.GetPixelVolumes(), nil
	}
	var out []int
	for _, s := range strings.Split(list, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid volume %q: %w", s, err)
		}
		out = append(out, v)
	}
	return out, nil
}
