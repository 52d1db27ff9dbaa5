package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/strategies"
)

func vcfg(fast, slow int, fee float64) VectorConfig {
	return VectorConfig{Fast: fast, Slow: slow, InitialCapital: 10_000, Fee: fee}
}

func TestVectorized_HandComputed(t *testing.T) {
	t.Parallel()

	// slow mean (2): NaN, 10.5, 11.5, 11.5, 10.5, 10.5
	// position:      0,   0,    1,    1,    0,    0
	closes := []float64{10, 11, 12, 11, 10, 11}

	res, err := Vectorized(mkBars(closes...), vcfg(1, 2, 0))
	require.NoError(t, err)

	assertCurve(t, []float64{
		10_000,
		10_000,
		10_000 * 12 / 11,
		10_000 * 12 / 11 * 11 / 12,
		10_000,
		10_000,
	}, res.EquityCurve)
	assert.Equal(t, 1, res.NTrades)
	assert.True(t, res.TradesApproximate)
	assert.Empty(t, res.Trades)
	assert.NotNil(t, res.Trades)
	assert.Equal(t, 0.0, res.WinRate)
	assert.InDelta(t, 0, res.TotalReturn, 1e-12)
	assert.Equal(t, "vectorized", res.Engine)
	assert.Equal(t, "SMA_CROSS(1,2)", res.Strategy)
	assert.Equal(t, len(closes), res.Bars)
	assert.Len(t, res.RealizedDrawdown, len(closes))
}

func TestVectorized_FeesOnPositionChanges(t *testing.T) {
	t.Parallel()

	closes := []float64{10, 11, 12, 11, 10, 11}
	res, err := Vectorized(mkBars(closes...), vcfg(1, 2, 0.01))
	require.NoError(t, err)

	growth := (1 + 1.0/11 - 0.01) * (1 - 1.0/12) * (1 - 0.01)
	assert.InDelta(t, 10_000*growth, res.FinalEquity, 1e-9)
}

func TestVectorized_WarmupStaysFlat(t *testing.T) {
	t.Parallel()

	// the slow window never fills, so there is never a position
	res, err := Vectorized(mkBars(1, 2, 3, 4), vcfg(2, 10, 0.01))
	require.NoError(t, err)
	for _, v := range res.EquityCurve {
		assert.Equal(t, 10_000.0, v)
	}
	assert.Equal(t, 0, res.NTrades)
}

func TestVectorized_MatchesEventEngineOnTrend(t *testing.T) {
	t.Parallel()

	closes := []float64{10, 11, 12, 11, 10, 11}
	vec, err := Vectorized(mkBars(closes...), vcfg(1, 2, 0))
	require.NoError(t, err)

	factory, err := strategies.ByName("sma-cross", strategies.Params{Fast: 1, Slow: 2})
	require.NoError(t, err)
	ev, err := Run(factory, mkBars(closes...), DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, ev.TotalReturn, vec.TotalReturn, 1e-9)
	assert.Equal(t, ev.NTrades, vec.NTrades)
}

func TestVectorized_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  VectorConfig
	}{
		{"zero fast", vcfg(0, 2, 0)},
		{"zero slow", vcfg(1, 0, 0)},
		{"fee too large", vcfg(1, 2, 1)},
		{"no capital", VectorConfig{Fast: 1, Slow: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Vectorized(mkBars(1, 2, 3), tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := Vectorized(nil, vcfg(1, 2, 0))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
