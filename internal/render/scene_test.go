package render

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/banshee-data/trackml.viz/internal/fsutil"
	"github.com/banshee-data/trackml.viz/internal/geometry"
	"github.com/banshee-data/trackml.viz/internal/monitoring"
	"github.com/banshee-data/trackml.viz/internal/trackml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func render(t *testing.T, s *Scene) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
	return buf.String()
}

func TestScene_Render(t *testing.T) {
	s := NewScene("event 1000")
	s.SetAssetsHost("http://localhost:8080/assets/")

	s.AddPath("trackpath", []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 2, Z: 3}}, trackColor)
	require.NoError(t, s.AddPoints("hitmarks", []r3.Vec{{X: 1, Y: 2, Z: 3}}, []color.Color{layerColor}, []string{"7"}, true))

	paths, points := s.Series()
	assert.Equal(t, 1, paths)
	assert.Equal(t, 1, points)

	html := render(t, s)
	assert.Contains(t, html, "<title>event 1000</title>")
	assert.Contains(t, html, "trackpath")
	assert.Contains(t, html, "hitmarks")
	assert.Contains(t, html, "#87ceeb")
	assert.Contains(t, html, "http://localhost:8080/assets/")
}

func TestScene_EmptyChartsLeftOut(t *testing.T) {
	s := NewScene("outlines")
	s.AddPolygon("modulebox", geometry.Polygon{{X: 0}, {X: 1}, {X: 1, Y: 1}, {Y: 1}})

	html := render(t, s)
	assert.Contains(t, html, "modulebox")
	assert.NotContains(t, html, "scatter3D")
}

func TestScene_AddPointsLengthMismatch(t *testing.T) {
	s := NewScene("bad")
	pts := []r3.Vec{{X: 1}, {X: 2}}

	assert.Error(t, s.AddPoints("c", pts, []color.Color{layerColor}, nil, false))
	assert.Error(t, s.AddPoints("l", pts, nil, []string{"a"}, false))

	_, points := s.Series()
	assert.Zero(t, points)
}

func TestScene_Save(t *testing.T) {
	s := NewScene("saved")
	s.AddPath("p", []r3.Vec{{X: 1}, {Y: 1}}, trackColor)

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, s.Save(mfs, "out/scene.html"))
	assert.Contains(t, string(readFile(t, mfs, "out/scene.html")), "<html")
}

func TestTrack3D(t *testing.T) {
	s := NewScene("track")
	require.NoError(t, Track3D(s, fixtureTrack()))

	paths, points := s.Series()
	assert.Equal(t, 1, paths)
	assert.Equal(t, 1, points)
	assert.Contains(t, render(t, s), "particle 42")

	empty := NewScene("empty")
	require.NoError(t, Track3D(empty, trackml.Track{ParticleID: 7}))
	paths, points = empty.Series()
	assert.Zero(t, paths+points)
}

func TestTrackOverLayers(t *testing.T) {
	capture(t)
	det := fixtureDetector(t)
	v := NewViews("event 1000")

	require.NoError(t, TrackOverLayers(v, det, fixtureTrack(), true, TrackOverLayersOptions{}))

	// 3 module outlines and the track line; 4 layer groups in volumes 7-9
	// and the track hits.
	paths, points := v.Scene.Series()
	assert.Equal(t, 4, paths)
	assert.Equal(t, 5, points)

	// Axes span the pixel module centres only; volume 12 is excluded.
	assert.Equal(t, -80.0, v.Transverse.Plot.X.Min)
	assert.Equal(t, 30.0, v.Transverse.Plot.X.Max)
	assert.Equal(t, -1500.0, v.Longitudinal.Plot.X.Min)
	assert.Equal(t, 1500.0, v.Longitudinal.Plot.X.Max)
}

func TestTrackOverLayers_WithoutModules(t *testing.T) {
	det := fixtureDetector(t)
	v := NewViews("layers")

	require.NoError(t, TrackOverLayers(v, det, fixtureTrack(), false, TrackOverLayersOptions{Volumes: []int{8}}))

	paths, points := v.Scene.Series()
	assert.Equal(t, 1, paths)
	assert.Equal(t, 3, points)
}

func TestTrackOverLayers_UnresolvedModule(t *testing.T) {
	det := fixtureDetector(t)

	tests := []struct {
		name string
		hit  trackml.Hit
		want error
	}{
		{"missing", trackml.Hit{ID: 9, X: 1, Volume: 14, Layer: 2, Module: 1}, geometry.ErrModuleNotFound},
		{"ambiguous", trackml.Hit{ID: 9, X: 1, Volume: 9, Layer: 2, Module: 3}, geometry.ErrAmbiguousModule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TrackOverLayers(NewViews(tt.name), det, track(tt.hit), true, TrackOverLayersOptions{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			err = TrackOverLayers(NewViews(tt.name), det, track(tt.hit), false, TrackOverLayersOptions{})
			assert.NoError(t, err)
		})
	}
}

func TestWholeDetector(t *testing.T) {
	logs := capture(t)
	monitoring.SetDebug(true)
	t.Cleanup(func() { monitoring.SetDebug(false) })

	det := fixtureDetector(t)
	v := NewViews("pixels")
	require.NoError(t, WholeDetector(v, det, WholeDetectorOptions{}))

	paths, points := v.Scene.Series()
	assert.Equal(t, 6, paths)
	assert.Zero(t, points)
	assert.Contains(t, logs.String(), "module 6/6: volume=9 layer=2 module=3")
	assert.Contains(t, logs.String(), "drew 6 modules from volumes [7 8 9]")
}

func TestViewsSave(t *testing.T) {
	capture(t)
	det := fixtureDetector(t)
	v := NewViews("event 1000")
	require.NoError(t, TrackOverLayers(v, det, fixtureTrack(), true, TrackOverLayersOptions{}))

	mfs := fsutil.NewMemoryFileSystem()
	written, err := v.Save(mfs, "plots", "track42", "png", DefaultWidth, DefaultHeight)
	require.NoError(t, err)

	assert.Equal(t, []string{"plots/track42_xy.png", "plots/track42_rz.png", "plots/track42_3d.html"}, written)
	assert.True(t, bytes.HasPrefix(readFile(t, mfs, "plots/track42_xy.png"), pngMagic))
	assert.True(t, bytes.HasPrefix(readFile(t, mfs, "plots/track42_rz.png"), pngMagic))
	assert.Contains(t, string(readFile(t, mfs, "plots/track42_3d.html")), "particle 42")
}
