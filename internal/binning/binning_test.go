package binning

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestCompute_TwoBinExample(t *testing.T) {
	t.Parallel()

	x := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	y := []float64{0, 1, 0, 1, 0, 1, 0, 1, 0, 1}

	p, err := Compute(x, y, 2)
	require.NoError(t, err)
	require.Len(t, p.Bins, 2)

	// Range is [0, 9]: bin 0 is [0, 4.5), bin 1 is [4.5, 9] and owns x=9.
	assert.Equal(t, int64(5), p.Bins[0].Count)
	assert.Equal(t, int64(5), p.Bins[1].Count)
	assert.InDelta(t, 0.4, p.Bins[0].Mean, 1e-12)
	assert.InDelta(t, 0.6, p.Bins[1].Mean, 1e-12)
	assert.InDelta(t, 0.0, p.Bins[0].Low, 1e-12)
	assert.InDelta(t, 4.5, p.Bins[0].High, 1e-12)
	assert.InDelta(t, 2.25, p.Bins[0].Center, 1e-12)
	assert.InDelta(t, 6.75, p.Bins[1].Center, 1e-12)

	// stderr = sqrt(E[y²]-E[y]²)/sqrt(n) = sqrt(0.4-0.16)/sqrt(5)
	assert.InDelta(t, math.Sqrt(0.24)/math.Sqrt(5), p.Bins[0].StdErr, 1e-12)
}

func TestCompute_SingleBinIsOverallMean(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	x := make([]float64, 500)
	y := make([]float64, 500)
	for i := range x {
		x[i] = rng.Float64() * 1000
		y[i] = rng.NormFloat64()*3 + 10
	}

	p, err := Compute(x, y, 1)
	require.NoError(t, err)
	require.Len(t, p.Bins, 1)
	assert.Equal(t, int64(len(x)), p.Bins[0].Count)
	assert.InDelta(t, stat.Mean(y, nil), p.Bins[0].Mean, 1e-9)
}

func TestCompute_Properties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 5, 17, 100} {
		x := make([]float64, 1000)
		y := make([]float64, 1000)
		for i := range x {
			x[i] = rng.NormFloat64() * 50
			y[i] = rng.Float64()*20 - 10
		}

		p, err := Compute(x, y, n)
		require.NoError(t, err)
		require.Len(t, p.Bins, n)

		// counts sum to len(x)
		assert.Equal(t, int64(len(x)), p.TotalCount(), "n=%d", n)

		// each populated mean lies within the y range of its bin
		for i, b := range p.Bins {
			if b.Count == 0 {
				continue
			}
			lo, hi := math.Inf(1), math.Inf(-1)
			for j := range x {
				if Index(x[j], p.Lo, p.Hi, n) == i {
					lo = math.Min(lo, y[j])
					hi = math.Max(hi, y[j])
				}
			}
			assert.GreaterOrEqual(t, b.Mean, lo-1e-9, "n=%d bin=%d", n, i)
			assert.LessOrEqual(t, b.Mean, hi+1e-9, "n=%d bin=%d", n, i)
			assert.False(t, math.IsNaN(b.StdErr), "n=%d bin=%d", n, i)
		}
	}
}

func TestCompute_EmptyBinIsNaN(t *testing.T) {
	t.Parallel()

	// Nothing falls between 1 and 9, so the middle bins are empty.
	x := []float64{0, 0.5, 1, 9, 10}
	y := []float64{1, 2, 3, 4, 5}

	p, err := Compute(x, y, 5)
	require.NoError(t, err)

	for _, i := range []int{1, 2, 3} {
		assert.Equal(t, int64(0), p.Bins[i].Count)
		assert.True(t, math.IsNaN(p.Bins[i].Mean), "bin %d mean", i)
		assert.True(t, math.IsNaN(p.Bins[i].StdErr), "bin %d stderr", i)
	}
	assert.Len(t, p.Populated(), 2)
	assert.Equal(t, int64(5), p.TotalCount())
}

func TestCompute_ConstantYHasZeroError(t *testing.T) {
	t.Parallel()

	x := []float64{1, 2, 3}
	y := []float64{0.1, 0.1, 0.1}

	p, err := Compute(x, y, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, p.Bins[0].Mean, 1e-12)
	assert.Equal(t, 0.0, p.Bins[0].StdErr)
}

func TestCompute_Errors(t *testing.T) {
	t.Parallel()

	_, err := Compute([]float64{1, 2}, []float64{1}, 2)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Compute([]float64{1, 2}, []float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrBinCount)

	_, err = Compute(nil, nil, 3)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Compute([]float64{1, math.NaN()}, []float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrNaN)
}

func TestRange(t *testing.T) {
	t.Parallel()

	lo, hi, err := Range([]float64{3, -1, 7})
	require.NoError(t, err)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)

	lo, hi, err = Range([]float64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 1.5, lo)
	assert.Equal(t, 2.5, hi)

	lo, hi, err = Range([]float64{1e17, 1e17})
	require.NoError(t, err)
	assert.Less(t, lo, 1e17)
	assert.Greater(t, hi, 1e17)

	_, _, err = Range([]float64{0, 1, math.Inf(1)})
	assert.ErrorIs(t, err, ErrInfinite)

	_, _, err = Range([]float64{math.Inf(-1), 0})
	assert.ErrorIs(t, err, ErrInfinite)

	_, _, err = Range([]float64{-math.MaxFloat64, math.MaxFloat64})
	assert.ErrorIs(t, err, ErrRange)

	_, _, err = Range([]float64{math.MaxFloat64, math.MaxFloat64})
	assert.ErrorIs(t, err, ErrRange)
}

func TestCompute_LargeConstantValues(t *testing.T) {
	t.Parallel()

	x := []float64{1e17, 1e17, 1e17}
	p, err := Compute(x, []float64{1, 2, 3}, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(len(x)), p.TotalCount())
}

func TestCompute_InfiniteValues(t *testing.T) {
	t.Parallel()

	_, err := Compute([]float64{0, 1, math.Inf(1)}, []float64{1, 2, 3}, 2)
	assert.ErrorIs(t, err, ErrInfinite)

	_, err = NewH2D([]float64{0, 1}, []float64{math.Inf(-1), 1}, nil, 2, 2)
	assert.ErrorIs(t, err, ErrInfinite)
}

func TestCompute_EdgesAgreeWithIndex(t *testing.T) {
	t.Parallel()

	x := make([]float64, 0, 101)
	for i := 0; i <= 100; i++ {
		x = append(x, float64(i)/100)
	}
	p, err := Compute(x, x, 10)
	require.NoError(t, err)

	for i, b := range p.Bins {
		if i > 0 {
			assert.Equal(t, p.Bins[i-1].High, b.Low, "bins %d and %d share an edge", i-1, i)
		}
		assert.LessOrEqual(t, b.Low, b.Mean, "bin %d", i)
	}
	for _, v := range x {
		b := p.Bins[Index(v, p.Lo, p.Hi, 10)]
		assert.LessOrEqual(t, b.Low, v, "v=%v", v)
		if v < p.Hi {
			assert.Less(t, v, b.High, "v=%v", v)
		}
	}
	assert.Equal(t, 3, Index(0.3, 0, 1, 10))
	assert.Equal(t, 0.3, p.Bins[3].Low)
}

func TestIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v    float64
		want int
	}{
		{v: 0, want: 0},
		{v: 4.49, want: 0},
		{v: 4.5, want: 1},
		{v: 9, want: 1}, // upper edge closed
		{v: -0.1, want: -1},
		{v: 9.1, want: -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Index(tt.v, 0, 9, 2), "v=%v", tt.v)
	}
}

func TestNewH1D(t *testing.T) {
	t.Parallel()

	x := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	h, err := NewH1D(x, nil, 3)
	require.NoError(t, err)

	var total int64
	for i := range h.Binning.Bins {
		total += h.Binning.Bins[i].Entries()
	}
	// nothing lands in overflow: the maximum value belongs to the last bin
	assert.Equal(t, int64(len(x)), total)
	assert.Equal(t, int64(4), h.Binning.Bins[2].Entries())

	w := []float64{1, 1, 1, 1, 1, 2, 2, 2, 2, 2}
	h, err = NewH1D(x, w, 2)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, h.Binning.Bins[0].SumW(), 1e-12)
	assert.InDelta(t, 10.0, h.Binning.Bins[1].SumW(), 1e-12)

	_, err = NewH1D(x, []float64{1}, 2)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestNewH2D(t *testing.T) {
	t.Parallel()

	x := []float64{0, 1, 0, 1}
	y := []float64{0, 0, 1, 1}
	w := []float64{1, 2, 3, 4}

	h, err := NewH2D(x, y, w, 2, 2)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, h.SumW(), 1e-12)

	grid := h.GridXYZ()
	c, r := grid.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	assert.InDelta(t, 1.0, grid.Z(0, 0), 1e-12)
	assert.InDelta(t, 4.0, grid.Z(1, 1), 1e-12)

	_, err = NewH2D(x, y[:3], nil, 2, 2)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = NewH2D(x, y, nil, 2, 0)
	assert.ErrorIs(t, err, ErrBinCount)
}
