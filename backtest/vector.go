package backtest

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// VectorConfig parameterizes the vectorized SMA crossover.
type VectorConfig struct {
	Fast           int
	Slow           int
	InitialCapital float64
	Fee            float64
	RollingWindow  int
}

func (c VectorConfig) Validate() error {
	if c.Fast <= 0 || c.Slow <= 0 {
		return fmt.Errorf("%w: windows must be > 0 (fast=%d slow=%d)", ErrInvalidInput, c.Fast, c.Slow)
	}
	if !(c.InitialCapital > 0) {
		return fmt.Errorf("%w: initial capital %v must be positive", ErrInvalidInput, c.InitialCapital)
	}
	return FeeModel{Rate: c.Fee}.Validate()
}

// Vectorized approximates a long-only SMA crossover run without the per-bar
// state machine. The position on bar i is decided by the fast/slow
// relationship at bar i-1, equity compounds bar returns from the initial
// capital, and the fee rate is subtracted from the return of every bar on
// which the position changes.
//
// There is no trade ledger: NTrades is half the number of position changes
// and is flagged as approximate, and WinRate is zero. The equity curve has
// one sample per bar.
func Vectorized(bars []market.Bar, cfg VectorConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	feed := market.Normalize(bars)
	if err := market.Validate(feed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	closes := market.Closes(feed)
	fast := indicators.RollingMean(closes, cfg.Fast)
	slow := indicators.RollingMean(closes, cfg.Slow)

	equity := make([]float64, len(closes))
	growth := 1.0
	prevPos, changes := 0.0, 0
	for i := range closes {
		pos, ret := 0.0, 0.0
		if i > 0 {
			// NaN compares false, so warmup bars stay flat
			if fast[i-1] > slow[i-1] {
				pos = 1
			}
			ret = closes[i]/closes[i-1] - 1
		}

		stratRet := pos * ret
		if i > 0 && pos != prevPos {
			stratRet -= cfg.Fee
			changes++
		}
		prevPos = pos

		growth *= 1 + stratRet
		equity[i] = growth * cfg.InitialCapital
	}

	window := cfg.RollingWindow
	if window <= 0 {
		window = DefaultRollingWindow
	}
	res := assemble(equity, []Trade{}, window)
	res.InitialCapital = cfg.InitialCapital
	res.NTrades = changes / 2
	res.TradesApproximate = true
	res.Strategy = fmt.Sprintf("SMA_CROSS(%d,%d)", cfg.Fast, cfg.Slow)
	res.Engine = "vectorized"
	res.Bars = len(feed)
	res.Start = feed[0].Time
	res.End = feed[len(feed)-1].Time
	return res, nil
}
