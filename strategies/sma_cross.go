package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// SMACross is long while the fast SMA is above the slow SMA and flat
// otherwise. It signals the desired state on every bar; the engine ignores a
// buy while long and a sell while flat. This is the event-driven twin of the
// vectorized crossover.
type SMACross struct {
	fast *indicators.SMA
	slow *indicators.SMA
	name string

	signal Signal
}

func NewSMACross(fast, slow int) *SMACross {
	return &SMACross{
		fast: indicators.NewSMA(fast),
		slow: indicators.NewSMA(slow),
		name: fmt.Sprintf("SMA_CROSS(%d,%d)", fast, slow),
	}
}

func (x *SMACross) Name() string { return x.name }

func (x *SMACross) Signal() Signal { return x.signal }

func (x *SMACross) ProcessBar(b market.Bar) {
	x.fast.Update(b.Close)
	x.slow.Update(b.Close)

	switch {
	case !x.fast.Ready() || !x.slow.Ready():
		x.signal = Hold
	case x.fast.Value() > x.slow.Value():
		x.signal = Buy
	default:
		x.signal = Sell
	}
}
