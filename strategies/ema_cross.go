package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// EMACross generates signals when a fast EMA crosses a slow EMA.
// It uses a small state machine to avoid repeated signals while EMAs stay crossed.
type EMACross struct {
	fast *indicators.EMA
	slow *indicators.EMA

	// previous relationship between fast and slow
	// -1 => fast below slow, 0 => unknown/not-ready, +1 => fast above slow
	prevRel int
	name    string

	signal Signal
	reason string
}

func NewEMACross(fast, slow int) *EMACross {
	return &EMACross{
		fast: indicators.NewEMA(fast),
		slow: indicators.NewEMA(slow),
		name: fmt.Sprintf("EMA_CROSS(%d,%d)", fast, slow),
	}
}

func (x *EMACross) Name() string { return x.name }

func (x *EMACross) Ready() bool {
	return x.fast.Ready() && x.slow.Ready()
}

func (x *EMACross) Signal() Signal { return x.signal }

func (x *EMACross) Reason() string { return x.reason }

// ProcessBar emits a signal only on the cross event (state transition), not
// on every bar while the EMAs remain crossed.
func (x *EMACross) ProcessBar(b market.Bar) {
	x.fast.Update(b.Close)
	x.slow.Update(b.Close)

	if !x.Ready() {
		x.signal, x.reason = Hold, "warming up"
		return
	}

	rel := 0
	if diff := x.fast.Value() - x.slow.Value(); diff > 0 {
		rel = +1
	} else if diff < 0 {
		rel = -1
	}

	switch {
	case x.prevRel == 0:
		// First time ready: establish baseline relationship, don't fire.
		x.signal, x.reason = Hold, "baseline set"
	case x.prevRel == -1 && rel == +1:
		x.signal, x.reason = Buy, "fast EMA crossed above slow EMA"
	case x.prevRel == +1 && rel == -1:
		x.signal, x.reason = Sell, "fast EMA crossed below slow EMA"
	default:
		x.signal, x.reason = Hold, "no cross"
	}

	if rel != 0 {
		x.prevRel = rel
	}
}
