package strategies

import (
	"testing"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(s Strategy, closes ...float64) []Signal {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Signal, 0, len(closes))
	for i, c := range closes {
		s.ProcessBar(market.Bar{Time: base.Add(time.Duration(i) * time.Hour), Close: c})
		out = append(out, s.Signal())
	}
	return out
}

func TestParseSignal(t *testing.T) {
	tests := []struct {
		in      string
		want    Signal
		wantErr bool
	}{
		{"buy", Buy, false},
		{"BUY", Buy, false},
		{" sell ", Sell, false},
		{"hold", Hold, false},
		{"", Hold, false},
		{"short", Hold, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSignal(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownSignal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, "buy", Buy.String())
	assert.Equal(t, "sell", Sell.String())
	assert.Equal(t, "hold", Hold.String())
	assert.Equal(t, "signal(9)", Signal(9).String())
	assert.True(t, Sell.Valid())
	assert.False(t, Signal(-1).Valid())
	assert.Equal(t, "LONG", Long.String())
	assert.Equal(t, "FLAT", Flat.String())
}

func TestByName(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		params   Params
		wantName string
		wantErr  bool
	}{
		{"noop", "noop", Params{}, "noop", false},
		{"noop mixed case", "  NoOp ", Params{}, "noop", false},
		{"sma cross", "sma-cross", Params{Fast: 2, Slow: 5}, "SMA_CROSS(2,5)", false},
		{"ema cross", "ema-cross", Params{Fast: 3, Slow: 8}, "EMA_CROSS(3,8)", false},
		{"script", "script", Params{Signals: []string{"buy", "sell"}}, "script", false},
		{"bad periods", "sma-cross", Params{Fast: 5, Slow: 5}, "", true},
		{"zero period", "ema-cross", Params{Fast: 0, Slow: 5}, "", true},
		{"bad script", "script", Params{Signals: []string{"buy", "moon"}}, "", true},
		{"unknown", "martingale", Params{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ByName(tt.key, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			s := f(10_000)
			require.NotNil(t, s)
			assert.Equal(t, tt.wantName, s.Name())
		})
	}
}

func TestFactoryReturnsFreshInstances(t *testing.T) {
	f, err := ByName("script", Params{Signals: []string{"buy"}})
	require.NoError(t, err)

	a := f(1).(*Scripted)
	b := f(1).(*Scripted)
	feed(a, 1, 2)
	assert.Equal(t, 2, a.bars)
	assert.Equal(t, 0, b.bars)
}

func TestRegister(t *testing.T) {
	Register("Test-Custom", func(Params) (Factory, error) {
		return func(float64) Strategy { return NoopStrategy{} }, nil
	})
	t.Cleanup(func() { delete(registry, "test-custom") })

	_, ok := Lookup("test-custom")
	assert.True(t, ok)
	assert.Contains(t, Names(), "test-custom")
}

func TestNoopStrategy(t *testing.T) {
	got := feed(NoopStrategy{}, 1, 2, 3)
	assert.Equal(t, []Signal{Hold, Hold, Hold}, got)
}

func TestScripted(t *testing.T) {
	s := NewScripted(Hold, Buy, Sell)
	assert.Equal(t, Hold, s.Signal(), "no bar seen yet")

	got := feed(s, 1, 2, 3, 4, 5)
	assert.Equal(t, []Signal{Hold, Buy, Sell, Hold, Hold}, got)

	s.SetPosition(Long)
	assert.Equal(t, Long, s.Position)
	s.OnTradeClosed(2, 12.5)
	assert.Equal(t, []ClosedTrade{{ExitIndex: 2, PnL: 12.5}}, s.Closed)
}

func TestParseSignals(t *testing.T) {
	got, err := ParseSignals([]string{"hold", "Buy", "SELL"})
	require.NoError(t, err)
	assert.Equal(t, []Signal{Hold, Buy, Sell}, got)

	_, err = ParseSignals([]string{"buy", "x"})
	assert.ErrorIs(t, err, ErrUnknownSignal)
}
