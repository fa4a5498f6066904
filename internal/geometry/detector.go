// Package geometry resolves detector modules to their physical outline.
//
// The detectors table is loaded once into an immutable Detector keyed by
// (volume, layer, module). Lookups report whether a key matched exactly one
// module, none, or several, instead of silently taking the first row.
package geometry

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/banshee-data/trackml.viz/internal/csvtable"
	"github.com/banshee-data/trackml.viz/internal/fsutil"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrModuleNotFound is returned when no module matches a key.
	ErrModuleNotFound = errors.New("module not found")
	// ErrAmbiguousModule is returned when more than one module matches a key.
	ErrAmbiguousModule = errors.New("module key is ambiguous")
)

// Key identifies a module.
type Key struct {
	Volume int
	Layer  int
	Module int
}

func (k Key) String() string {
	return fmt.Sprintf("volume=%d layer=%d module=%d", k.Volume, k.Layer, k.Module)
}

// Element describes one detector module.
type Element struct {
	Key
	Center    r3.Vec
	HU        float64 // module_maxhu
	HV        float64 // module_hv
	MinHU     float64 // module_minhu, zero when absent
	Thickness float64 // module_t, zero when absent
	Rotation  Rotation
}

// Corners returns the module outline in global coordinates: the local offsets
// (-hu,-hv,0), (hu,-hv,0), (hu,hv,0), (-hu,hv,0) rotated into the global
// frame and translated by the centre.
func (e Element) Corners() Polygon {
	local := [4]r3.Vec{
		{X: -e.HU, Y: -e.HV},
		{X: e.HU, Y: -e.HV},
		{X: e.HU, Y: e.HV},
		{X: -e.HU, Y: e.HV},
	}
	var p Polygon
	for i, off := range local {
		p[i] = r3.Add(e.Rotation.Apply(off), e.Center)
	}
	return p
}

// Polygon is an ordered quadrilateral in 3D.
type Polygon [4]r3.Vec

// Centroid returns the mean of the corners.
func (p Polygon) Centroid() r3.Vec {
	var sum r3.Vec
	for _, c := range p {
		sum = r3.Add(sum, c)
	}
	return r3.Scale(0.25, sum)
}

// Closed returns the corners with the first repeated at the end, for line
// renderers that do not close paths themselves.
func (p Polygon) Closed() []r3.Vec {
	return append(p[:], p[0])
}

// Match is the outcome of a module lookup.
type Match int

const (
	NotFound Match = iota
	Found
	Ambiguous
)

func (m Match) String() string {
	switch m {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not found"
	}
}

// Detector is an immutable module table.
type Detector struct {
	elements []Element
	index    map[Key][]int
}

// New builds a Detector from elements. Duplicate keys are kept so lookups
// can report them as ambiguous.
func New(elements []Element) *Detector {
	d := &Detector{
		elements: append([]Element(nil), elements...),
		index:    make(map[Key][]int, len(elements)),
	}
	for i, e := range d.elements {
		d.index[e.Key] = append(d.index[e.Key], i)
	}
	return d
}

var requiredColumns = []string{
	"volume_id", "layer_id", "module_id",
	"cx", "cy", "cz",
	"rot_xu", "rot_xv", "rot_xw",
	"rot_yu", "rot_yv", "rot_yw",
	"rot_zu", "rot_zv", "rot_zw",
	"module_maxhu", "module_hv",
}

// Parse reads a detectors table.
func Parse(r io.Reader) (*Detector, error) {
	tbl, err := csvtable.Read(r)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require(requiredColumns...); err != nil {
		return nil, err
	}

	ints := make(map[string][]int, 3)
	for _, name := range requiredColumns[:3] {
		if ints[name], err = tbl.Ints(name); err != nil {
			return nil, err
		}
	}
	floats := make(map[string][]float64, len(requiredColumns))
	for _, name := range requiredColumns[3:] {
		if floats[name], err = tbl.Floats(name); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{"module_minhu", "module_t"} {
		if !tbl.Has(name) {
			continue
		}
		if floats[name], err = tbl.Floats(name); err != nil {
			return nil, err
		}
	}
	optional := func(name string, i int) float64 {
		if col, ok := floats[name]; ok {
			return col[i]
		}
		return 0
	}

	elements := make([]Element, tbl.Len())
	for i := range elements {
		e := Element{
			Key: Key{
				Volume: ints["volume_id"][i],
				Layer:  ints["layer_id"][i],
				Module: ints["module_id"][i],
			},
			Center:    r3.Vec{X: floats["cx"][i], Y: floats["cy"][i], Z: floats["cz"][i]},
			HU:        floats["module_maxhu"][i],
			HV:        floats["module_hv"][i],
			MinHU:     optional("module_minhu", i),
			Thickness: optional("module_t", i),
		}
		for j, name := range requiredColumns[6:15] {
			e.Rotation[j] = floats[name][i]
		}
		elements[i] = e
	}
	return New(elements), nil
}

// Load reads the detectors table at path.
func Load(fsys fsutil.FileSystem, path string) (*Detector, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open detectors file: %w", err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return d, nil
}

// Len returns the number of modules.
func (d *Detector) Len() int {
	return len(d.elements)
}

// Elements returns a copy of every module in file order.
func (d *Detector) Elements() []Element {
	return append([]Element(nil), d.elements...)
}

// Find looks up the module for k.
func (d *Detector) Find(k Key) (Element, Match) {
	rows := d.index[k]
	switch len(rows) {
	case 0:
		return Element{}, NotFound
	case 1:
		return d.elements[rows[0]], Found
	default:
		return Element{}, Ambiguous
	}
}

// Lookup is Find with the non-unique outcomes reported as errors.
func (d *Detector) Lookup(k Key) (Element, error) {
	e, m := d.Find(k)
	switch m {
	case Found:
		return e, nil
	case Ambiguous:
		return Element{}, fmt.Errorf("%w: %s (%d rows)", ErrAmbiguousModule, k, len(d.index[k]))
	default:
		return Element{}, fmt.Errorf("%w: %s", ErrModuleNotFound, k)
	}
}

// ModulePolygon resolves k and returns its outline.
func (d *Detector) ModulePolygon(k Key) (Polygon, error) {
	e, err := d.Lookup(k)
	if err != nil {
		return Polygon{}, err
	}
	return e.Corners(), nil
}

// Select returns the modules of the given volumes in file order, or every
// module when no volume is given.
func (d *Detector) Select(volumes ...int) []Element {
	if len(volumes) == 0 {
		return d.Elements()
	}
	want := make(map[int]bool, len(volumes))
	for _, v := range volumes {
		want[v] = true
	}
	var out []Element
	for _, e := range d.elements {
		if want[e.Volume] {
			out = append(out, e)
		}
	}
	return out
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max r3.Vec
}

// Bounds returns the bounding box of the module centres. The zero Box is
// returned for no elements.
func Bounds(elements []Element) Box {
	if len(elements) == 0 {
		return Box{}
	}
	b := Box{Min: elements[0].Center, Max: elements[0].Center}
	for _, e := range elements[1:] {
		c := e.Center
		b.Min = r3.Vec{X: min(b.Min.X, c.X), Y: min(b.Min.Y, c.Y), Z: min(b.Min.Z, c.Z)}
		b.Max = r3.Vec{X: max(b.Max.X, c.X), Y: max(b.Max.Y, c.Y), Z: max(b.Max.Z, c.Z)}
	}
	return b
}

// LayerGroup holds the module centres of one (volume, layer).
type LayerGroup struct {
	Volume  int
	Layer   int
	Centers []r3.Vec
}

// Layers groups module centres by (volume, layer), ordered by volume then
// layer. Centres keep file order within a group.
func Layers(elements []Element) []LayerGroup {
	type vl struct{ volume, layer int }
	groups := make(map[vl]*LayerGroup)
	var keys []vl
	for _, e := range elements {
		k := vl{e.Volume, e.Layer}
		g, ok := groups[k]
		if !ok {
			g = &LayerGroup{Volume: e.Volume, Layer: e.Layer}
			groups[k] = g
			keys = append(keys, k)
		}
		g.Centers = append(g.Centers, e.Center)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].volume != keys[j].volume {
			return keys[i].volume < keys[j].volume
		}
		return keys[i].layer < keys[j].layer
	})

	out := make([]LayerGroup, len(keys))
	for i, k := range keys {
		out[i] = *groups[k]
	}
	return out
}
