package strategies

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

// ErrUnknownSignal is returned when a textual signal is not buy, sell or hold.
var ErrUnknownSignal = errors.New("unknown signal")

type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Hold:
		return "hold"
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Valid reports whether s is one of Hold, Buy or Sell.
func (s Signal) Valid() bool {
	return s == Hold || s == Buy || s == Sell
}

// ParseSignal converts "buy", "sell" or "hold" (any case) into a Signal.
func ParseSignal(s string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	case "hold", "":
		return Hold, nil
	default:
		return Hold, fmt.Errorf("%w %q", ErrUnknownSignal, s)
	}
}

// Position mirrors the engine's position state for strategies that want it.
type Position int

const (
	Flat Position = iota
	Long
)

func (p Position) String() string {
	if p == Long {
		return "LONG"
	}
	return "FLAT"
}

// Strategy is the signal source driven by the backtest engine. ProcessBar is
// called exactly once per bar, in feed order, followed by Signal.
// Implementations must only look at bars they have already been given.
type Strategy interface {
	Name() string
	ProcessBar(b market.Bar)
	Signal() Signal
}

// PositionAware is an optional interface. The engine calls SetPosition after
// every transition so the strategy can see whether it is in the market.
type PositionAware interface {
	SetPosition(p Position)
}

// TradeClosedListener is an optional interface that strategies can implement
// to be notified when the engine closes a trade, including the forced close
// at the end of the feed.
type TradeClosedListener interface {
	OnTradeClosed(exitIndex int, pnl float64)
}

// Reasoner is an optional interface. When the engine runs verbose it logs the
// reason alongside each trade event.
type Reasoner interface {
	Reason() string
}

// Factory builds a fresh strategy for one run. Every run must get its own
// instance; strategies are never shared between runs.
type Factory func(initialCapital float64) Strategy

// Params carries the knobs the built-in strategies understand.
type Params struct {
	Fast    int      `json:"fast" yaml:"fast"`
	Slow    int      `json:"slow" yaml:"slow"`
	Signals []string `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// Builder validates params and returns a Factory.
type Builder func(p Params) (Factory, error)

var registry = make(map[string]Builder)

func Register(name string, b Builder) {
	registry[normalizeName(name)] = b
}

func Lookup(name string) (Builder, bool) {
	b, ok := registry[normalizeName(name)]
	return b, ok
}

// ByName returns a Factory for a registered strategy.
func ByName(name string, p Params) (Factory, error) {
	b, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return b(p)
}

// Names lists registered strategies in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func init() {
	Register("noop", func(Params) (Factory, error) {
		return func(float64) Strategy { return NoopStrategy{} }, nil
	})
	Register("sma-cross", func(p Params) (Factory, error) {
		if err := checkPeriods(p.Fast, p.Slow); err != nil {
			return nil, fmt.Errorf("sma-cross: %w", err)
		}
		return func(float64) Strategy { return NewSMACross(p.Fast, p.Slow) }, nil
	})
	Register("ema-cross", func(p Params) (Factory, error) {
		if err := checkPeriods(p.Fast, p.Slow); err != nil {
			return nil, fmt.Errorf("ema-cross: %w", err)
		}
		return func(float64) Strategy { return NewEMACross(p.Fast, p.Slow) }, nil
	})
	Register("script", func(p Params) (Factory, error) {
		sigs, err := ParseSignals(p.Signals)
		if err != nil {
			return nil, fmt.Errorf("script: %w", err)
		}
		return func(float64) Strategy { return NewScripted(sigs...) }, nil
	})
}

func checkPeriods(fast, slow int) error {
	if fast <= 0 || slow <= 0 {
		return fmt.Errorf("periods must be > 0 (fast=%d slow=%d)", fast, slow)
	}
	if fast >= slow {
		return fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
	}
	return nil
}
