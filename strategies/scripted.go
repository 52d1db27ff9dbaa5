package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// Scripted replays a fixed list of signals, one per bar. Bars past the end of
// the script hold. It records what the engine tells it, which makes it handy
// for checking engine bookkeeping.
type Scripted struct {
	signals []Signal
	bars    int

	Position Position
	Closed   []ClosedTrade
}

// ClosedTrade is what Scripted hears through OnTradeClosed.
type ClosedTrade struct {
	ExitIndex int
	PnL       float64
}

func NewScripted(signals ...Signal) *Scripted {
	return &Scripted{signals: signals}
}

// ParseSignals converts textual signals, failing on the first unknown one.
func ParseSignals(in []string) ([]Signal, error) {
	out := make([]Signal, len(in))
	for i, s := range in {
		sig, err := ParseSignal(s)
		if err != nil {
			return nil, fmt.Errorf("signal %d: %w", i, err)
		}
		out[i] = sig
	}
	return out, nil
}

func (s *Scripted) Name() string { return "script" }

func (s *Scripted) ProcessBar(market.Bar) { s.bars++ }

func (s *Scripted) Signal() Signal {
	i := s.bars - 1
	if i < 0 || i >= len(s.signals) {
		return Hold
	}
	return s.signals[i]
}

func (s *Scripted) SetPosition(p Position) { s.Position = p }

func (s *Scripted) OnTradeClosed(exitIndex int, pnl float64) {
	s.Closed = append(s.Closed, ClosedTrade{ExitIndex: exitIndex, PnL: pnl})
}

var (
	_ Strategy            = (*Scripted)(nil)
	_ PositionAware       = (*Scripted)(nil)
	_ TradeClosedListener = (*Scripted)(nil)
	_ Strategy            = (*SMACross)(nil)
	_ Strategy            = (*EMACross)(nil)
	_ Strategy            = NoopStrategy{}
)
