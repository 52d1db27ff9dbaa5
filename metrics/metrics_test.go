package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 99})
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 0.10, got[1], 1e-12)
	assert.InDelta(t, -0.10, got[2], 1e-12)

	assert.Empty(t, Returns(nil))
}

func TestSharpe(t *testing.T) {
	t.Run("known value", func(t *testing.T) {
		r := []float64{0.01, -0.01, 0.02, 0.0}
		// mean 0.005, sample sd 0.0129099...
		want := 0.005 / 0.012909944487358056 * math.Sqrt(HoursPerYear)
		assert.InDelta(t, want, Sharpe(r), 1e-9)
	})

	t.Run("undefined", func(t *testing.T) {
		assert.True(t, math.IsNaN(Sharpe(nil)))
		assert.True(t, math.IsNaN(Sharpe([]float64{0.1})))
		assert.True(t, math.IsNaN(Sharpe([]float64{0, 0, 0})))
	})
}

func TestRollingSharpe(t *testing.T) {
	r := []float64{0, 0.01, -0.01, 0.02, 0.0}
	got := RollingSharpe(r, 3)
	require.Len(t, got, len(r))

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, Sharpe(r[0:3]), got[2], 1e-12)
	assert.InDelta(t, Sharpe(r[2:5]), got[4], 1e-12)

	for _, v := range RollingSharpe(r, 1) {
		assert.True(t, math.IsNaN(v), "window of one has no dispersion")
	}
}

func TestTotalAndAnnualizedReturn(t *testing.T) {
	eq := []float64{10_000, 10_500, 11_000}
	assert.InDelta(t, 0.10, TotalReturn(eq), 1e-12)

	// two hourly steps: (1.1)^(8760/2) - 1 is huge but finite
	want := math.Pow(1.1, HoursPerYear/2.0) - 1
	assert.InEpsilon(t, want, AnnualizedReturn(eq), 1e-9)

	flat := make([]float64, HoursPerYear+1)
	for i := range flat {
		flat[i] = 100
	}
	flat[len(flat)-1] = 110
	assert.InDelta(t, 0.10, AnnualizedReturn(flat), 1e-9)

	assert.True(t, math.IsNaN(TotalReturn(nil)))
	assert.True(t, math.IsNaN(AnnualizedReturn([]float64{1})))
}

func TestWinRate(t *testing.T) {
	assert.Equal(t, 0.0, WinRate(nil))
	assert.InDelta(t, 0.5, WinRate([]float64{10, -5, 0, 3}), 1e-12)
}

func TestUnrealizedDrawdownSeries(t *testing.T) {
	eq := []float64{100, 120, 90, 130, 117}
	got := UnrealizedDrawdownSeries(eq)
	want := []float64{0, 0, -0.25, 0, -0.1}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "index %d", i)
		assert.LessOrEqual(t, got[i], 0.0)
		assert.GreaterOrEqual(t, got[i], -1.0)
	}

	assert.InDelta(t, -0.25, MaxDrawdown(eq), 1e-12)
	assert.True(t, math.IsNaN(MaxDrawdown(nil)))
}

func TestRealizedDrawdownSeries(t *testing.T) {
	// Trades close at samples 2 and 4; the dip at sample 3 is intra-trade.
	eq := []float64{100, 80, 110, 50, 99}
	got := RealizedDrawdownSeries(eq, []int{2, 4})
	want := []float64{0, 0, 0, 0, -0.1}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "index %d", i)
	}

	none := RealizedDrawdownSeries(eq, nil)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, none)

	assert.Empty(t, RealizedDrawdownSeries(nil, []int{1}))
}
