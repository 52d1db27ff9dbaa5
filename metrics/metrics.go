// Package metrics computes risk and return statistics from an equity curve
// and a trade ledger. Every function is pure: no state, no side effects, the
// same input always gives the same output. Undefined values come back as NaN
// rather than errors so one bad statistic never hides the others.
package metrics

import (
	"math"

	"github.com/montanaflynn/stats"
)

// HoursPerYear is the number of hourly samples in a year. Crypto markets
// trade around the clock, so there is no session calendar to account for.
const HoursPerYear = 24 * 365

var nan = math.NaN()

// Returns is the simple per-sample return of equity. The first sample has
// no predecessor and is reported as zero.
func Returns(equity []float64) []float64 {
	out := make([]float64, len(equity))
	for i := 1; i < len(equity); i++ {
		out[i] = equity[i]/equity[i-1] - 1
	}
	return out
}

// Sharpe is the annualised Sharpe ratio of hourly returns with a zero risk
// free rate. It is NaN with fewer than two returns or zero dispersion.
func Sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return nan
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return nan
	}
	sd, err := stats.StandardDeviationSample(returns)
	if err != nil || sd == 0 {
		return nan
	}
	return mean / sd * math.Sqrt(HoursPerYear)
}

// RollingSharpe computes Sharpe over a trailing window of returns, one value
// per return. Entries whose window is not yet full are NaN.
func RollingSharpe(returns []float64, window int) []float64 {
	out := make([]float64, len(returns))
	for i := range out {
		if window < 2 || i+1 < window {
			out[i] = nan
			continue
		}
		out[i] = Sharpe(returns[i+1-window : i+1])
	}
	return out
}

// TotalReturn is final equity over initial equity, minus one.
func TotalReturn(equity []float64) float64 {
	if len(equity) == 0 || equity[0] == 0 {
		return nan
	}
	return equity[len(equity)-1]/equity[0] - 1
}

// AnnualizedReturn compounds TotalReturn to a yearly rate assuming one sample
// per hour.
func AnnualizedReturn(equity []float64) float64 {
	if len(equity) < 2 || equity[0] <= 0 {
		return nan
	}
	growth := equity[len(equity)-1] / equity[0]
	years := float64(len(equity)-1) / HoursPerYear
	return math.Pow(growth, 1/years) - 1
}

// WinRate is the fraction of trades with a strictly positive PnL. With no
// trades it is zero.
func WinRate(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}
	wins := 0
	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(pnls))
}

// UnrealizedDrawdownSeries is the fractional distance of every sample from
// the running peak: 0 at a new high, -0.25 when 25% below it.
func UnrealizedDrawdownSeries(equity []float64) []float64 {
	out := make([]float64, len(equity))
	if len(equity) == 0 {
		return out
	}
	peak := equity[0]
	for i, v := range equity {
		peak = math.Max(peak, v)
		out[i] = drawdown(v, peak)
	}
	return out
}

// RealizedDrawdownSeries measures drawdown only on realized equity: the
// initial sample and the samples at closeIdx, which must be ascending.
// Between closes the last realized drawdown is carried forward, so the series
// has one value per equity sample and ignores intra-trade swings.
func RealizedDrawdownSeries(equity []float64, closeIdx []int) []float64 {
	out := make([]float64, len(equity))
	if len(equity) == 0 {
		return out
	}

	peak := equity[0]
	cur := drawdown(equity[0], peak)
	next := 0
	for i, v := range equity {
		for next < len(closeIdx) && closeIdx[next] < i {
			next++
		}
		if next < len(closeIdx) && closeIdx[next] == i {
			peak = math.Max(peak, v)
			cur = drawdown(v, peak)
		}
		out[i] = cur
	}
	return out
}

// MaxDrawdown is the deepest (most negative) value of the unrealized
// drawdown series.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return nan
	}
	dd, _ := stats.Min(UnrealizedDrawdownSeries(equity))
	return dd
}

func drawdown(v, peak float64) float64 {
	if peak <= 0 {
		return nan
	}
	return (v - peak) / peak
}
