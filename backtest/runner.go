package backtest

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// DefaultRollingWindow is one week of hourly samples.
const DefaultRollingWindow = 24 * 7

// Options controls a Run.
type Options struct {
	InitialCapital float64
	Fee            float64 // fractional cost per side, 0.001 == 0.1%
	FeeBasis       FeeBasis
	Sampling       Sampling
	RollingWindow  int

	// Verbose logs trade events through Logger.
	Verbose bool
	Logger  *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		InitialCapital: 10_000,
		RollingWindow:  DefaultRollingWindow,
	}
}

func (o Options) engineConfig() EngineConfig {
	return EngineConfig{
		InitialCapital: o.InitialCapital,
		Fee:            FeeModel{Rate: o.Fee, Basis: o.FeeBasis},
		Sampling:       o.Sampling,
		Verbose:        o.Verbose,
		Logger:         o.Logger,
	}
}

func (o Options) rollingWindow() int {
	if o.RollingWindow <= 0 {
		return DefaultRollingWindow
	}
	return o.RollingWindow
}

// Run executes an hourly, long-only, single-asset backtest:
//  1. copy and sort bars by time
//  2. build a fresh strategy from factory
//  3. simulate bar by bar
//  4. derive the statistics
//
// The caller's slice is never modified.
func Run(factory strategies.Factory, bars []market.Bar, opts Options) (*Result, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil strategy factory", ErrInvalidInput)
	}
	cfg := opts.engineConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	feed := market.Normalize(bars)
	if err := market.Validate(feed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	strat := factory(opts.InitialCapital)
	if strat == nil {
		return nil, fmt.Errorf("%w: factory returned nil strategy", ErrStrategyContract)
	}

	sim, err := NewEngine(cfg).Run(feed, strat)
	if err != nil {
		return nil, err
	}

	res := assemble(sim.EquityCurve, sim.Trades, opts.rollingWindow())
	res.Strategy = strat.Name()
	res.Engine = "event"
	res.Bars = len(feed)
	res.Start = feed[0].Time
	res.End = feed[len(feed)-1].Time
	return res, nil
}

// RunFile loads the feed at path (CSV or Parquet) and runs it.
func RunFile(factory strategies.Factory, path string, opts Options) (*Result, error) {
	bs, err := market.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return Run(factory, bs.Bars, opts)
}
