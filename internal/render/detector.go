package render

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/banshee-data/trackml.viz/internal/fsutil"
	"github.com/banshee-data/trackml.viz/internal/geometry"
	"github.com/banshee-data/trackml.viz/internal/monitoring"
	"github.com/banshee-data/trackml.viz/internal/trackml"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/vg"
)

// PixelVolumes are the volume ids of the pixel detector.
var PixelVolumes = []int{7, 8, 9}

// Views holds a 3D scene and its two 2D projections.
type Views struct {
	Scene        *Scene
	Transverse   *Figure
	Longitudinal *Figure
}

// NewViews creates empty views titled title.
func NewViews(title string) *Views {
	v := &Views{
		Scene:        NewScene(title),
		Transverse:   NewFigure(),
		Longitudinal: NewFigure(),
	}
	v.Transverse.Plot.Title.Text = title + " (x-y)"
	v.Longitudinal.Plot.Title.Text = title + " (z-r)"
	return v
}

func (v *Views) figure(view View) *Figure {
	if view == Longitudinal {
		return v.Longitudinal
	}
	return v.Transverse
}

// Save writes <base>_xy.<format>, <base>_rz.<format> and <base>_3d.html into
// dir and returns the paths written.
func (v *Views) Save(fsys fsutil.FileSystem, dir, base, format string, width, height vg.Length) ([]string, error) {
	var written []string
	for _, view := range []View{Transverse, Longitudinal} {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", base, view, format))
		if err := v.figure(view).Save(fsys, path, width, height); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	path := filepath.Join(dir, base+"_3d.html")
	if err := v.Scene.Save(fsys, path); err != nil {
		return written, err
	}
	return append(written, path), nil
}

// Track3D adds a track to a scene: a skyblue line through its points and
// markers coloured by cylindrical radius.
func Track3D(scene *Scene, track trackml.Track) error {
	if track.Len() == 0 {
		return nil
	}
	pts := trackPoints(track)
	_, _, _, r := track.Coords()
	name := fmt.Sprintf("particle %d", track.ParticleID)

	scene.AddPath(name, pts, trackColor)
	return scene.AddPoints(name+" hits", pts, radiusColors(r), nil, true)
}

// TrackOverLayersOptions configures TrackOverLayers.
type TrackOverLayersOptions struct {
	// Volumes whose layers are drawn and whose module centres bound the axes.
	// PixelVolumes when empty.
	Volumes []int
}

// TrackOverLayers draws a track over the detector layers it crosses: the
// module centres of every (volume, layer) group of the selected volumes with
// the group index, the track, and, when plotModules is set, the outline of
// every module hit by the track. A hit on an unknown or ambiguous module is
// an error.
func TrackOverLayers(v *Views, det *geometry.Detector, track trackml.Track, plotModules bool, o TrackOverLayersOptions) error {
	volumes := o.Volumes
	if len(volumes) == 0 {
		volumes = PixelVolumes
	}
	accepted := det.Select(volumes...)
	layers := geometry.Layers(accepted)

	if plotModules {
		var polys []geometry.Polygon
		for _, h := range track.Hits() {
			p, err := det.ModulePolygon(h.ModuleKey())
			if err != nil {
				return fmt.Errorf("hit %d: %w", h.ID, err)
			}
			polys = append(polys, p)
		}
		if err := drawModules(v, polys); err != nil {
			return err
		}
	}

	if err := drawLayers(v, layers); err != nil {
		return err
	}
	if err := Track3D(v.Scene, track); err != nil {
		return err
	}
	for _, view := range []View{Transverse, Longitudinal} {
		if err := TrackPath(v.figure(view), track, view); err != nil {
			return err
		}
	}

	setBounds(v, accepted)
	return nil
}

// WholeDetectorOptions configures WholeDetector.
type WholeDetectorOptions struct {
	// Volumes to draw. PixelVolumes when empty.
	Volumes []int
}

// WholeDetector draws the outline of every module of the selected volumes.
func WholeDetector(v *Views, det *geometry.Detector, o WholeDetectorOptions) error {
	volumes := o.Volumes
	if len(volumes) == 0 {
		volumes = PixelVolumes
	}
	accepted := det.Select(volumes...)

	polys := make([]geometry.Polygon, 0, len(accepted))
	for i, e := range accepted {
		monitoring.Debugf("module %d/%d: %s", i+1, len(accepted), e.Key)
		polys = append(polys, e.Corners())
	}
	if err := drawModules(v, polys); err != nil {
		return err
	}

	setBounds(v, accepted)
	monitoring.Logf("drew %d modules from volumes %v", len(polys), volumes)
	return nil
}

func drawModules(v *Views, polys []geometry.Polygon) error {
	for i, p := range polys {
		v.Scene.AddPolygon(fmt.Sprintf("module %d", i), p)
	}
	for _, view := range []View{Transverse, Longitudinal} {
		if err := ModulePolygons(v.figure(view), polys, view); err != nil {
			return err
		}
	}
	return nil
}

func drawLayers(v *Views, layers []geometry.LayerGroup) error {
	for i, l := range layers {
		labels := make([]string, len(l.Centers))
		if len(labels) > 0 {
			labels[0] = fmt.Sprintf("%d", i)
		}
		colors := make([]color.Color, len(l.Centers))
		for j := range colors {
			colors[j] = layerColor
		}
		name := fmt.Sprintf("volume %d layer %d", l.Volume, l.Layer)
		if err := v.Scene.AddPoints(name, l.Centers, colors, labels, false); err != nil {
			return err
		}
	}
	for _, view := range []View{Transverse, Longitudinal} {
		if err := LayerCentres(v.figure(view), layers, view); err != nil {
			return err
		}
	}
	return nil
}

// setBounds fixes every view's axes to the extent of the module centres.
func setBounds(v *Views, elements []geometry.Element) {
	if len(elements) == 0 {
		return
	}
	v.Scene.SetBounds(geometry.Bounds(elements))

	centres := make([]r3.Vec, len(elements))
	for i, e := range elements {
		centres[i] = e.Center
	}
	for _, view := range []View{Transverse, Longitudinal} {
		view.setLimits(v.figure(view), centres)
	}
}

func trackPoints(track trackml.Track) []r3.Vec {
	pts := make([]r3.Vec, track.Len())
	for i, p := range track.Points {
		pts[i] = r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
	}
	return pts
}
