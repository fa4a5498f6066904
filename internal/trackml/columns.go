package trackml

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownColumn is returned by Column for an unsupported name.
var ErrUnknownColumn = errors.New("unknown column")

var hitColumns = map[string]func(Hit) float64{
	"x":         func(h Hit) float64 { return h.X },
	"y":         func(h Hit) float64 { return h.Y },
	"z":         func(h Hit) float64 { return h.Z },
	"r":         Hit.R,
	"phi":       Hit.Phi,
	"eta":       Hit.Eta,
	"volume_id": func(h Hit) float64 { return float64(h.Volume) },
	"layer_id":  func(h Hit) float64 { return float64(h.Layer) },
	"module_id": func(h Hit) float64 { return float64(h.Module) },
}

var truthColumns = map[string]func(TruthHit) float64{
	"tx":     func(t TruthHit) float64 { return t.TX },
	"ty":     func(t TruthHit) float64 { return t.TY },
	"tz":     func(t TruthHit) float64 { return t.TZ },
	"tR":     TruthHit.TR,
	"tpx":    func(t TruthHit) float64 { return t.TPX },
	"tpy":    func(t TruthHit) float64 { return t.TPY },
	"tpz":    func(t TruthHit) float64 { return t.TPZ },
	"tpt":    TruthHit.TPT,
	"weight": func(t TruthHit) float64 { return t.Weight },
}

// Column returns one value per hit, in hit order. Truth columns are joined
// by hit id; hits without a truth row get NaN.
func (ev *Event) Column(name string) ([]float64, error) {
	out := make([]float64, len(ev.Hits))

	if f, ok := hitColumns[name]; ok {
		for i, h := range ev.Hits {
			out[i] = f(h)
		}
		return out, nil
	}

	if f, ok := truthColumns[name]; ok {
		for i, h := range ev.Hits {
			t, found := ev.TruthFor(h.ID)
			if !found {
				out[i] = math.NaN()
				continue
			}
			out[i] = f(t)
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}
