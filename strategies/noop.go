package strategies

import "github.com/rustyeddy/backtester/market"

// NoopStrategy never trades.
type NoopStrategy struct{}

func (NoopStrategy) Name() string           { return "noop" }
func (NoopStrategy) ProcessBar(market.Bar) {}
func (NoopStrategy) Signal() Signal         { return Hold }
