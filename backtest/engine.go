package backtest

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// PositionState is FLAT or LONG; the engine is always in exactly one.
type PositionState = strategies.Position

const (
	Flat = strategies.Flat
	Long = strategies.Long
)

// Sampling selects how many equity samples a bar contributes.
type Sampling int

const (
	// PerBar appends exactly one sample per bar. A position still open at
	// the end of the feed is closed on the last bar, whose sample then holds
	// the realized value.
	PerBar Sampling = iota

	// Legacy keeps the historical output shape: a buy bar appends the
	// fee-adjusted equity and then a mark-to-market sample, and the forced
	// close at the end of the feed appends one extra sample.
	Legacy
)

func (s Sampling) String() string {
	switch s {
	case PerBar:
		return "per-bar"
	case Legacy:
		return "legacy"
	default:
		return fmt.Sprintf("Sampling(%d)", int(s))
	}
}

func ParseSampling(s string) (Sampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-bar", "perbar":
		return PerBar, nil
	case "legacy":
		return Legacy, nil
	default:
		return PerBar, fmt.Errorf("unknown sampling %q (supported: per-bar, legacy)", s)
	}
}

// OpenPosition exists only while the engine is LONG.
type OpenPosition struct {
	EntryIndex int
	EntryPrice float64
	EntryTime  time.Time
}

// Trade is one closed round trip. PnL is net of the exit fee; the entry fee
// was already taken from equity when the position opened.
type Trade struct {
	EntryIndex int       `json:"entry_idx"`
	ExitIndex  int       `json:"exit_idx"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	PnL        float64   `json:"pnl"`

	// EquityIndex is the equity sample holding the equity realized by
	// this trade.
	EquityIndex int `json:"equity_idx"`
	// Forced is set when the feed ended with the position still open.
	Forced bool `json:"forced,omitempty"`
}

// EngineConfig holds the parameters of a single simulation.
type EngineConfig struct {
	InitialCapital float64
	Fee            FeeModel
	Sampling       Sampling

	// Verbose logs every trade event. It never changes results.
	Verbose bool
	Logger  *zap.Logger
}

func (c EngineConfig) Validate() error {
	if !(c.InitialCapital > 0) || math.IsInf(c.InitialCapital, 0) {
		return fmt.Errorf("%w: initial capital %v must be positive", ErrInvalidInput, c.InitialCapital)
	}
	if c.Sampling != PerBar && c.Sampling != Legacy {
		return fmt.Errorf("%w: sampling %v", ErrInvalidInput, c.Sampling)
	}
	return c.Fee.Validate()
}

// Simulation is the raw output of one engine run.
type Simulation struct {
	EquityCurve []float64
	Trades      []Trade
}

// Engine is the bar-by-bar state machine. An Engine holds the state of
// exactly one run; create a new one for every run.
type Engine struct {
	cfg EngineConfig
	log *zap.Logger

	state    PositionState
	pos      OpenPosition
	realized float64 // equity with every closed trade and paid fee applied

	equity []float64
	trades []Trade

	strat    strategies.Strategy
	aware    strategies.PositionAware
	listener strategies.TradeClosedListener

	used bool
}

func NewEngine(cfg EngineConfig) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, log: log}
}

// State reports the current position state.
func (e *Engine) State() PositionState { return e.state }

// Run feeds bars to strat one at a time and returns the equity curve and the
// trade ledger. bars must already be normalized (time-ascending).
func (e *Engine) Run(bars []market.Bar, strat strategies.Strategy) (*Simulation, error) {
	if e.used {
		return nil, errors.New("backtest: engine already used; create a new one per run")
	}
	e.used = true

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := market.Validate(bars); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if strat == nil {
		return nil, fmt.Errorf("%w: nil strategy", ErrInvalidInput)
	}

	e.strat = strat
	e.aware, _ = strat.(strategies.PositionAware)
	e.listener, _ = strat.(strategies.TradeClosedListener)

	capital := e.cfg.InitialCapital
	e.state = Flat
	e.realized = capital
	e.equity = make([]float64, 1, len(bars)+2)
	e.equity[0] = capital
	e.notifyPosition()

	last := len(bars) - 1
	for i, b := range bars {
		strat.ProcessBar(b)
		sig := strat.Signal()
		if !sig.Valid() {
			return nil, fmt.Errorf("%w: %s returned %v at bar %d", ErrStrategyContract, strat.Name(), sig, i)
		}

		switch {
		case sig == strategies.Buy && e.state == Flat:
			if i == last {
				// A position opened on the final bar could only be closed on
				// the same bar, so there is nothing to hold.
				e.logEvent("buy ignored on final bar", i, b)
				break
			}
			e.open(i, b)

		case sig == strategies.Sell && e.state == Long:
			e.close(i, b, false)
			continue // this bar's sample is the realized equity
		}

		e.equity = append(e.equity, e.mark(b.Close))
	}

	if e.state == Long {
		e.close(last, bars[last], true)
	}

	return &Simulation{EquityCurve: e.equity, Trades: e.trades}, nil
}

// mark values the account at price: realized equity plus the unrealized PnL
// of the open position, if any.
func (e *Engine) mark(price float64) float64 {
	if e.state != Long {
		return e.realized
	}
	return e.realized + e.pnl(price)
}

// pnl is the gross PnL of the open position at price. Positions are sized
// on the initial capital, not on current equity.
func (e *Engine) pnl(price float64) float64 {
	return (price - e.pos.EntryPrice) / e.pos.EntryPrice * e.cfg.InitialCapital
}

func (e *Engine) open(i int, b market.Bar) {
	fee := e.cfg.Fee.Charge(e.cfg.InitialCapital, e.realized)
	e.realized -= fee

	e.state = Long
	e.pos = OpenPosition{EntryIndex: i, EntryPrice: b.Close, EntryTime: b.Time}

	if e.cfg.Sampling == Legacy {
		e.equity = append(e.equity, e.realized)
	}

	e.notifyPosition()
	e.logEvent("buy", i, b, zap.Float64("fee", fee), zap.Float64("equity", e.realized))
}

func (e *Engine) close(i int, b market.Bar, forced bool) {
	gross := e.pnl(b.Close)
	fee := e.cfg.Fee.Charge(e.cfg.InitialCapital, e.realized+gross)
	net := gross - fee
	e.realized += net

	// A forced close in PerBar mode replaces the last bar's mark-to-market
	// sample so every bar still owns exactly one sample.
	if forced && e.cfg.Sampling == PerBar {
		e.equity[len(e.equity)-1] = e.realized
	} else {
		e.equity = append(e.equity, e.realized)
	}

	e.trades = append(e.trades, Trade{
		EntryIndex:  e.pos.EntryIndex,
		ExitIndex:   i,
		EntryTime:   e.pos.EntryTime,
		ExitTime:    b.Time,
		EntryPrice:  e.pos.EntryPrice,
		ExitPrice:   b.Close,
		PnL:         net,
		EquityIndex: len(e.equity) - 1,
		Forced:      forced,
	})

	e.state = Flat
	e.pos = OpenPosition{}

	e.notifyPosition()
	if e.listener != nil {
		e.listener.OnTradeClosed(i, net)
	}

	event := "sell"
	if forced {
		event = "close at end of feed"
	}
	e.logEvent(event, i, b, zap.Float64("pnl", net), zap.Float64("fee", fee), zap.Float64("equity", e.realized))
}

func (e *Engine) notifyPosition() {
	if e.aware != nil {
		e.aware.SetPosition(e.state)
	}
}

func (e *Engine) logEvent(msg string, i int, b market.Bar, fields ...zap.Field) {
	if !e.cfg.Verbose {
		return
	}
	fields = append(fields,
		zap.String("strategy", e.strat.Name()),
		zap.Int("idx", i),
		zap.Time("time", b.Time),
		zap.Float64("price", b.Close),
	)
	if r, ok := e.strat.(strategies.Reasoner); ok {
		fields = append(fields, zap.String("reason", r.Reason()))
	}
	e.log.Info(msg, fields...)
}
