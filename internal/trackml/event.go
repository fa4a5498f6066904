// Package trackml loads TrackML events (hits, truth and particles tables)
// and assembles truth tracks from them.
package trackml

import (
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/trackml.viz/internal/csvtable"
	"github.com/banshee-data/trackml.viz/internal/fsutil"
	"github.com/banshee-data/trackml.viz/internal/geometry"
	"github.com/banshee-data/trackml.viz/internal/monitoring"
)

// Hit is one row of the hits table.
type Hit struct {
	ID      int
	X, Y, Z float64
	Volume  int
	Layer   int
	Module  int
}

// R returns the cylindrical radius.
func (h Hit) R() float64 { return math.Hypot(h.X, h.Y) }

// Phi returns the azimuth in radians.
func (h Hit) Phi() float64 { return math.Atan2(h.Y, h.X) }

// Eta returns the pseudorapidity of the hit position seen from the origin.
func (h Hit) Eta() float64 {
	r := math.Sqrt(h.X*h.X + h.Y*h.Y + h.Z*h.Z)
	return math.Atanh(h.Z / r)
}

// ModuleKey returns the detector module the hit is on.
func (h Hit) ModuleKey() geometry.Key {
	return geometry.Key{Volume: h.Volume, Layer: h.Layer, Module: h.Module}
}

// TruthHit is one row of the truth table: the true intersection of a
// particle with a module.
type TruthHit struct {
	HitID         int
	ParticleID    uint64
	TX, TY, TZ    float64
	TPX, TPY, TPZ float64
	Weight        float64
}

// TR returns the true cylindrical radius.
func (t TruthHit) TR() float64 { return math.Hypot(t.TX, t.TY) }

// TPT returns the true transverse momentum.
func (t TruthHit) TPT() float64 { return math.Hypot(t.TPX, t.TPY) }

// Particle is one row of the particles table.
type Particle struct {
	ID         uint64
	VX, VY, VZ float64
	PX, PY, PZ float64
	Q          int
	NHits      int
}

// PT returns the transverse momentum.
func (p Particle) PT() float64 { return math.Hypot(p.PX, p.PY) }

// Event holds the tables of one event.
type Event struct {
	Hits      []Hit
	Truth     []TruthHit
	Particles []Particle

	hitIndex   map[int]int
	truthIndex map[int]int
}

// NewEvent builds an Event and its hit-id indexes.
func NewEvent(hits []Hit, truth []TruthHit, particles []Particle) *Event {
	ev := &Event{
		Hits:       hits,
		Truth:      truth,
		Particles:  particles,
		hitIndex:   make(map[int]int, len(hits)),
		truthIndex: make(map[int]int, len(truth)),
	}
	for i, h := range hits {
		ev.hitIndex[h.ID] = i
	}
	for i, t := range truth {
		ev.truthIndex[t.HitID] = i
	}
	return ev
}

// Hit returns the hit with the given id.
func (ev *Event) Hit(id int) (Hit, bool) {
	i, ok := ev.hitIndex[id]
	if !ok {
		return Hit{}, false
	}
	return ev.Hits[i], true
}

// TruthFor returns the truth row of a hit.
func (ev *Event) TruthFor(hitID int) (TruthHit, bool) {
	i, ok := ev.truthIndex[hitID]
	if !ok {
		return TruthHit{}, false
	}
	return ev.Truth[i], true
}

// LoadEvent reads <prefix>-hits.csv and <prefix>-truth.csv, and
// <prefix>-particles.csv when it exists.
func LoadEvent(fsys fsutil.FileSystem, prefix string) (*Event, error) {
	var hits []Hit
	if err := parseFile(fsys, prefix+"-hits.csv", func(r io.Reader) (err error) {
		hits, err = ParseHits(r)
		return err
	}); err != nil {
		return nil, err
	}

	var truth []TruthHit
	if err := parseFile(fsys, prefix+"-truth.csv", func(r io.Reader) (err error) {
		truth, err = ParseTruth(r)
		return err
	}); err != nil {
		return nil, err
	}

	var particles []Particle
	if name := prefix + "-particles.csv"; fsys.Exists(name) {
		if err := parseFile(fsys, name, func(r io.Reader) (err error) {
			particles, err = ParseParticles(r)
			return err
		}); err != nil {
			return nil, err
		}
	}

	monitoring.Logf("loaded event %s: %d hits, %d truth rows, %d particles", prefix, len(hits), len(truth), len(particles))
	return NewEvent(hits, truth, particles), nil
}

func parseFile(fsys fsutil.FileSystem, name string, parse func(io.Reader) error) error {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	if err := parse(f); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// ParseHits reads a hits table.
func ParseHits(r io.Reader) ([]Hit, error) {
	tbl, err := csvtable.Read(r)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require("hit_id", "x", "y", "z", "volume_id", "layer_id", "module_id"); err != nil {
		return nil, err
	}

	var cols columns
	ids := cols.ints(tbl, "hit_id")
	x, y, z := cols.floats(tbl, "x"), cols.floats(tbl, "y"), cols.floats(tbl, "z")
	vol, lay, mod := cols.ints(tbl, "volume_id"), cols.ints(tbl, "layer_id"), cols.ints(tbl, "module_id")
	if cols.err != nil {
		return nil, cols.err
	}

	hits := make([]Hit, tbl.Len())
	for i := range hits {
		hits[i] = Hit{ID: ids[i], X: x[i], Y: y[i], Z: z[i], Volume: vol[i], Layer: lay[i], Module: mod[i]}
	}
	return hits, nil
}

// ParseTruth reads a truth table.
func ParseTruth(r io.Reader) ([]TruthHit, error) {
	tbl, err := csvtable.Read(r)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require("hit_id", "particle_id", "tx", "ty", "tz", "tpx", "tpy", "tpz", "weight"); err != nil {
		return nil, err
	}

	var cols columns
	ids := cols.ints(tbl, "hit_id")
	pids := cols.uints(tbl, "particle_id")
	tx, ty, tz := cols.floats(tbl, "tx"), cols.floats(tbl, "ty"), cols.floats(tbl, "tz")
	tpx, tpy, tpz := cols.floats(tbl, "tpx"), cols.floats(tbl, "tpy"), cols.floats(tbl, "tpz")
	w := cols.floats(tbl, "weight")
	if cols.err != nil {
		return nil, cols.err
	}

	truth := make([]TruthHit, tbl.Len())
	for i := range truth {
		truth[i] = TruthHit{
			HitID:      ids[i],
			ParticleID: pids[i],
			TX:         tx[i],
			TY:         ty[i],
			TZ:         tz[i],
			TPX:        tpx[i],
			TPY:        tpy[i],
			TPZ:        tpz[i],
			Weight:     w[i],
		}
	}
	return truth, nil
}

// ParseParticles reads a particles table.
func ParseParticles(r io.Reader) ([]Particle, error) {
	tbl, err := csvtable.Read(r)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require("particle_id", "vx", "vy", "vz", "px", "py", "pz", "q", "nhits"); err != nil {
		return nil, err
	}

	var cols columns
	ids := cols.uints(tbl, "particle_id")
	vx, vy, vz := cols.floats(tbl, "vx"), cols.floats(tbl, "vy"), cols.floats(tbl, "vz")
	px, py, pz := cols.floats(tbl, "px"), cols.floats(tbl, "py"), cols.floats(tbl, "pz")
	q, n := cols.ints(tbl, "q"), cols.ints(tbl, "nhits")
	if cols.err != nil {
		return nil, cols.err
	}

	particles := make([]Particle, tbl.Len())
	for i := range particles {
		particles[i] = Particle{
			ID:    ids[i],
			VX:    vx[i],
			VY:    vy[i],
			VZ:    vz[i],
			PX:    px[i],
			PY:    py[i],
			PZ:    pz[i],
			Q:     q[i],
			NHits: n[i],
		}
	}
	return particles, nil
}

// columns reads typed columns and keeps the first error.
type columns struct {
	err error
}

func (c *columns) floats(tbl *csvtable.Table, name string) []float64 {
	if c.err != nil {
		return nil
	}
	var v []float64
	v, c.err = tbl.Floats(name)
	return v
}

func (c *columns) ints(tbl *csvtable.Table, name string) []int {
	if c.err != nil {
		return nil
	}
	var v []int
	v, c.err = tbl.Ints(name)
	return v
}

func (c *columns) uints(tbl *csvtable.Table, name string) []uint64 {
	if c.err != nil {
		return nil
	}
	var v []uint64
	v, c.err = tbl.Uints(name)
	return v
}
