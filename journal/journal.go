package journal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/strategies"
)

var ErrRunNotFound = errors.New("run not found")

// BacktestRun is the summary row of one journaled run.
type BacktestRun struct {
	RunID    string
	Created  time.Time
	Strategy string
	Engine   string
	Dataset  string
	Config   []byte // JSON of the strategy params and run options

	Start time.Time
	End   time.Time
	Bars  int

	Fee      float64
	FeeBasis string
	Sampling string

	InitialCapital float64
	FinalEquity    float64

	// Sharpe and AnnualizedReturn may be NaN.
	Sharpe           float64
	TotalReturn      float64
	AnnualizedReturn float64
	WinRate          float64
	MaxDrawdown      float64

	Trades            int
	Wins              int
	Losses            int
	TradesApproximate bool

	Notes []string
}

// TradeRecord is one closed trade of a run.
type TradeRecord struct {
	RunID      string
	Seq        int
	EntryIndex int
	ExitIndex  int
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	Forced     bool
}

// EquityPoint is one equity sample with its drawdowns.
type EquityPoint struct {
	RunID              string
	Idx                int
	Equity             float64
	UnrealizedDrawdown float64
	RealizedDrawdown   float64
}

// Journal persists completed runs.
type Journal interface {
	RecordRun(ctx context.Context, run BacktestRun, trades []TradeRecord, equity []EquityPoint) error
	Close() error
}

type runConfig struct {
	Params        strategies.Params `json:"params"`
	Fee           float64           `json:"fee"`
	FeeBasis      string            `json:"fee_basis"`
	Sampling      string            `json:"sampling"`
	RollingWindow int               `json:"rolling_window"`
}

// NewBacktestRun builds the summary row for r.
func NewBacktestRun(id, dataset string, params strategies.Params, opts backtest.Options, r *backtest.Result) BacktestRun {
	cfg, _ := json.Marshal(runConfig{
		Params:        params,
		Fee:           opts.Fee,
		FeeBasis:      opts.FeeBasis.String(),
		Sampling:      opts.Sampling.String(),
		RollingWindow: opts.RollingWindow,
	})
	wins, losses := r.Wins()

	return BacktestRun{
		RunID:             id,
		Created:           time.Now().UTC(),
		Strategy:          r.Strategy,
		Engine:            r.Engine,
		Dataset:           dataset,
		Config:            cfg,
		Start:             r.Start,
		End:               r.End,
		Bars:              r.Bars,
		Fee:               opts.Fee,
		FeeBasis:          opts.FeeBasis.String(),
		Sampling:          opts.Sampling.String(),
		InitialCapital:    r.InitialCapital,
		FinalEquity:       r.FinalEquity,
		Sharpe:            r.Sharpe,
		TotalReturn:       r.TotalReturn,
		AnnualizedReturn:  r.AnnualizedReturn,
		WinRate:           r.WinRate,
		MaxDrawdown:       r.MaxDrawdown,
		Trades:            r.NTrades,
		Wins:              wins,
		Losses:            losses,
		TradesApproximate: r.TradesApproximate,
	}
}

// TradeRecords flattens the ledger of r for storage.
func TradeRecords(runID string, r *backtest.Result) []TradeRecord {
	out := make([]TradeRecord, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = TradeRecord{
			RunID:      runID,
			Seq:        i,
			EntryIndex: t.EntryIndex,
			ExitIndex:  t.ExitIndex,
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			PnL:        t.PnL,
			Forced:     t.Forced,
		}
	}
	return out
}

// EquityPoints zips the equity curve of r with its drawdown series.
func EquityPoints(runID string, r *backtest.Result) []EquityPoint {
	out := make([]EquityPoint, len(r.EquityCurve))
	for i, v := range r.EquityCurve {
		p := EquityPoint{RunID: runID, Idx: i, Equity: v}
		if i < len(r.UnrealizedDrawdown) {
			p.UnrealizedDrawdown = r.UnrealizedDrawdown[i]
		}
		if i < len(r.RealizedDrawdown) {
			p.RealizedDrawdown = r.RealizedDrawdown[i]
		}
		out[i] = p
	}
	return out
}
