// Package binning computes equal-width histograms and profile histograms
// (per-bin mean and standard error of a dependent variable).
//
// Bins are left-closed and right-open except the last, which is closed on
// both ends: a value equal to the upper edge of the range belongs to the last
// bin. The range of a variable is [min, max] of its values; a degenerate range
// (all values equal to v) is widened to [v-0.5, v+0.5], or by a relative
// margin when |v| is too large for 0.5 to register. Infinite values and ranges
// wider than the largest float64 are rejected.
package binning

import (
	"errors"
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmpty is returned when there is nothing to bin.
	ErrEmpty = errors.New("binning: no values")
	// ErrBinCount is returned for a bin count below one.
	ErrBinCount = errors.New("binning: bin count must be positive")
	// ErrLengthMismatch is returned when paired slices differ in length.
	ErrLengthMismatch = errors.New("binning: length mismatch")
	// ErrNaN is returned when a binned variable contains NaN.
	ErrNaN = errors.New("binning: NaN value")
	// ErrInfinite is returned when a binned variable contains ±Inf.
	ErrInfinite = errors.New("binning: infinite value")
	// ErrRange is returned when the value range is too wide or too narrow to
	// split into bins.
	ErrRange = errors.New("binning: range cannot be binned")
)

// Range returns the binning range of x. A range whose width is not a finite
// positive number is an error.
func Range(x []float64) (lo, hi float64, err error) {
	if len(x) == 0 {
		return 0, 0, ErrEmpty
	}
	if floats.HasNaN(x) {
		return 0, 0, ErrNaN
	}
	lo, hi = floats.Min(x), floats.Max(x)
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 0, ErrInfinite
	}
	if lo == hi {
		// ±0.5 vanishes in rounding for large |v|
		d := math.Max(0.5, math.Abs(lo)*1e-9)
		lo, hi = lo-d, hi+d
	}
	if width := hi - lo; !(width > 0) || math.IsInf(width, 0) {
		return 0, 0, fmt.Errorf("%w: [%g, %g]", ErrRange, lo, hi)
	}
	return lo, hi, nil
}

// Edge returns the lower edge of bin i among n equal-width bins over
// [lo, hi]; Edge(n) is hi.
func Edge(i int, lo, hi float64, n int) float64 {
	if i >= n {
		return hi
	}
	return lo + (hi-lo)*float64(i)/float64(n)
}

// Index returns the bin of v among n equal-width bins over [lo, hi], so that
// Edge(i) <= v < Edge(i+1), with hi in the last bin. Values outside the range
// return -1.
func Index(v, lo, hi float64, n int) int {
	if v < lo || v > hi {
		return -1
	}
	i := int((v - lo) / (hi - lo) * float64(n))
	if i >= n {
		i = n - 1
	}
	for i > 0 && v < Edge(i, lo, hi, n) {
		i--
	}
	for i < n-1 && v >= Edge(i+1, lo, hi, n) {
		i++
	}
	return i
}

// center returns the midpoint of bin i.
func center(i int, lo, hi float64, n int) float64 {
	low, high := Edge(i, lo, hi, n), Edge(i+1, lo, hi, n)
	return low + (high-low)/2
}

func checkWeights(x, w []float64) error {
	if w != nil && len(w) != len(x) {
		return fmt.Errorf("%w: %d values, %d weights", ErrLengthMismatch, len(x), len(w))
	}
	return nil
}

func weight(w []float64, i int) float64 {
	if w == nil {
		return 1
	}
	return w[i]
}

// NewH1D fills an n-bin histogram over Range(x). A nil w means unit weights.
//
// Each value is filled at the centre of the bin chosen by Index, so the
// upper-edge convention holds regardless of hbook's own edge arithmetic.
func NewH1D(x, w []float64, n int) (*hbook.H1D, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBinCount, n)
	}
	if err := checkWeights(x, w); err != nil {
		return nil, err
	}
	lo, hi, err := Range(x)
	if err != nil {
		return nil, err
	}

	h := hbook.NewH1D(n, lo, hi)
	for i, v := range x {
		h.Fill(center(Index(v, lo, hi, n), lo, hi, n), weight(w, i))
	}
	return h, nil
}

// NewH2D fills an nx by ny histogram over Range(x) and Range(y).
func NewH2D(x, y, w []float64, nx, ny int) (*hbook.H2D, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBinCount, nx, ny)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d x values, %d y values", ErrLengthMismatch, len(x), len(y))
	}
	if err := checkWeights(x, w); err != nil {
		return nil, err
	}
	xlo, xhi, err := Range(x)
	if err != nil {
		return nil, fmt.Errorf("x: %w", err)
	}
	ylo, yhi, err := Range(y)
	if err != nil {
		return nil, fmt.Errorf("y: %w", err)
	}

	h := hbook.NewH2D(nx, xlo, xhi, ny, ylo, yhi)
	for i := range x {
		cx := center(Index(x[i], xlo, xhi, nx), xlo, xhi, nx)
		cy := center(Index(y[i], ylo, yhi, ny), ylo, yhi, ny)
		h.Fill(cx, cy, weight(w, i))
	}
	return h, nil
}

// Bin is one bin of a profile histogram.
type Bin struct {
	Low    float64
	High   float64
	Center float64
	Count  int64
	Mean   float64 // NaN when Count is zero
	StdErr float64 // NaN when Count is zero
}

// Profile is the per-bin mean and standard error of y binned in x.
type Profile struct {
	Lo, Hi float64
	Bins   []Bin
}

// Compute builds the profile of y against x with n bins.
//
// Count, Σy and Σy² are accumulated in a single histogram filled with weight
// y: its bins carry entries, SumW and SumW2. Then
//
//	mean   = Σy / count
//	stderr = sqrt(Σy²/count - mean²) / sqrt(count)
//
// Empty bins are not guarded and come out as NaN.
func Compute(x, y []float64, n int) (*Profile, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d x values, %d y values", ErrLengthMismatch, len(x), len(y))
	}
	h, err := NewH1D(x, y, n)
	if err != nil {
		return nil, err
	}

	lo, hi, _ := Range(x)
	p := &Profile{Lo: lo, Hi: hi, Bins: make([]Bin, n)}
	for i := range h.Binning.Bins {
		b := &h.Binning.Bins[i]
		count := float64(b.Entries())
		mean := b.SumW() / count
		// rounding can push a zero variance slightly negative
		variance := math.Max(b.SumW2()/count-mean*mean, 0)
		if count == 0 {
			variance = math.NaN()
		}
		p.Bins[i] = Bin{
			Low:    Edge(i, lo, hi, n),
			High:   Edge(i+1, lo, hi, n),
			Center: center(i, lo, hi, n),
			Count:  b.Entries(),
			Mean:   mean,
			StdErr: math.Sqrt(variance) / math.Sqrt(count),
		}
	}
	return p, nil
}

// TotalCount returns the number of binned values.
func (p *Profile) TotalCount() int64 {
	var total int64
	for _, b := range p.Bins {
		total += b.Count
	}
	return total
}

// Populated returns the bins holding at least one value.
func (p *Profile) Populated() []Bin {
	out := make([]Bin, 0, len(p.Bins))
	for _, b := range p.Bins {
		if b.Count > 0 {
			out = append(out, b)
		}
	}
	return out
}
