package trackml

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoSuchParticle is returned when a particle has no truth hits.
var ErrNoSuchParticle = errors.New("particle has no truth hits")

// TrackPoint is one true position on a track with the hit it produced.
type TrackPoint struct {
	X, Y, Z float64
	R       float64 // cylindrical radius
	Hit     Hit
	HasHit  bool // false when the truth row references an unknown hit
}

// Track is the ordered truth trajectory of one particle.
type Track struct {
	ParticleID uint64
	Points     []TrackPoint
}

// Len returns the number of points.
func (t Track) Len() int { return len(t.Points) }

// Coords returns the x, y, z and radius columns of the track.
func (t Track) Coords() (x, y, z, r []float64) {
	n := len(t.Points)
	x, y, z, r = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, p := range t.Points {
		x[i], y[i], z[i], r[i] = p.X, p.Y, p.Z, p.R
	}
	return x, y, z, r
}

// Hits returns the hits of the track in point order.
func (t Track) Hits() []Hit {
	hits := make([]Hit, 0, len(t.Points))
	for _, p := range t.Points {
		if p.HasHit {
			hits = append(hits, p.Hit)
		}
	}
	return hits
}

// Track assembles the track of a particle. Points are ordered by increasing
// distance from the origin, ties broken by hit id.
func (ev *Event) Track(particleID uint64) (Track, error) {
	var rows []TruthHit
	for _, t := range ev.Truth {
		if t.ParticleID == particleID {
			rows = append(rows, t)
		}
	}
	if len(rows) == 0 {
		return Track{}, fmt.Errorf("%w: %d", ErrNoSuchParticle, particleID)
	}
	return ev.buildTrack(particleID, rows), nil
}

// Tracks returns every particle's track with at least minHits points,
// ordered by particle id. Particle id 0 marks noise hits and is skipped.
func (ev *Event) Tracks(minHits int) []Track {
	byParticle := make(map[uint64][]TruthHit)
	for _, t := range ev.Truth {
		if t.ParticleID == 0 {
			continue
		}
		byParticle[t.ParticleID] = append(byParticle[t.ParticleID], t)
	}

	ids := make([]uint64, 0, len(byParticle))
	for id, rows := range byParticle {
		if len(rows) >= minHits {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tracks := make([]Track, len(ids))
	for i, id := range ids {
		tracks[i] = ev.buildTrack(id, byParticle[id])
	}
	return tracks
}

func (ev *Event) buildTrack(particleID uint64, rows []TruthHit) Track {
	sort.Slice(rows, func(i, j int) bool {
		di, dj := distance(rows[i]), distance(rows[j])
		if di != dj {
			return di < dj
		}
		return rows[i].HitID < rows[j].HitID
	})

	track := Track{ParticleID: particleID, Points: make([]TrackPoint, len(rows))}
	for i, t := range rows {
		hit, ok := ev.Hit(t.HitID)
		track.Points[i] = TrackPoint{X: t.TX, Y: t.TY, Z: t.TZ, R: t.TR(), Hit: hit, HasHit: ok}
	}
	return track
}

func distance(t TruthHit) float64 {
	return math.Sqrt(t.TX*t.TX + t.TY*t.TY + t.TZ*t.TZ)
}
