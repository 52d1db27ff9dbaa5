package backtest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/metrics"
)

// Result is the full output of a run: summary statistics, the equity curve,
// the trade ledger and the time-indexed risk series. All series have one
// value per equity sample.
type Result struct {
	Strategy string
	Engine   string // "event" or "vectorized"
	Start    time.Time
	End      time.Time
	Bars     int

	InitialCapital float64
	FinalEquity    float64

	Sharpe           float64
	TotalReturn      float64
	NTrades          int
	WinRate          float64
	MaxDrawdown      float64
	AnnualizedReturn float64

	// TradesApproximate is set when NTrades is estimated from position
	// changes rather than counted from a ledger.
	TradesApproximate bool

	EquityCurve        []float64
	Returns            []float64
	Trades             []Trade
	RollingSharpe      []float64
	UnrealizedDrawdown []float64
	RealizedDrawdown   []float64
}

// assemble derives every statistic from an equity curve and trade ledger.
func assemble(equity []float64, trades []Trade, rollingWindow int) *Result {
	returns := metrics.Returns(equity)

	pnls := make([]float64, len(trades))
	closeIdx := make([]int, len(trades))
	for i, t := range trades {
		pnls[i] = t.PnL
		closeIdx[i] = t.EquityIndex
	}

	r := &Result{
		Sharpe:             metrics.Sharpe(returns),
		TotalReturn:        metrics.TotalReturn(equity),
		NTrades:            len(trades),
		WinRate:            metrics.WinRate(pnls),
		MaxDrawdown:        metrics.MaxDrawdown(equity),
		AnnualizedReturn:   metrics.AnnualizedReturn(equity),
		EquityCurve:        equity,
		Returns:            returns,
		Trades:             trades,
		RollingSharpe:      metrics.RollingSharpe(returns, rollingWindow),
		UnrealizedDrawdown: metrics.UnrealizedDrawdownSeries(equity),
		RealizedDrawdown:   metrics.RealizedDrawdownSeries(equity, closeIdx),
	}
	if len(equity) > 0 {
		r.InitialCapital = equity[0]
		r.FinalEquity = equity[len(equity)-1]
	}
	return r
}

// Map returns the result keyed the way downstream tooling expects.
func (r *Result) Map() map[string]any {
	return map[string]any{
		"sharpe":              r.Sharpe,
		"total_return":        r.TotalReturn,
		"n_trades":            r.NTrades,
		"win_rate":            r.WinRate,
		"max_drawdown":        r.MaxDrawdown,
		"annualized_return":   r.AnnualizedReturn,
		"equity_curve":        r.EquityCurve,
		"trades":              r.Trades,
		"rolling_sharpe":      r.RollingSharpe,
		"unrealized_drawdown": r.UnrealizedDrawdown,
		"realized_drawdown":   r.RealizedDrawdown,
	}
}

// Wins and Losses count trades with positive and negative PnL.
func (r *Result) Wins() (wins, losses int) {
	for _, t := range r.Trades {
		if t.PnL > 0 {
			wins++
		} else if t.PnL < 0 {
			losses++
		}
	}
	return wins, losses
}

func money(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprint(x)
	}
	return decimal.NewFromFloat(x).StringFixed(2)
}

func pct(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprint(x)
	}
	return fmt.Sprintf("%.2f%%", x*100)
}

func PrintResult(w io.Writer, r *Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Engine:        %s\n", r.Engine)
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	if r.TradesApproximate {
		fmt.Fprintf(w, "Trades:        ~%d (estimated from position changes)\n", r.NTrades)
	} else {
		wins, losses := r.Wins()
		fmt.Fprintf(w, "Trades:        %d\n", r.NTrades)
		fmt.Fprintf(w, "Wins:          %d\n", wins)
		fmt.Fprintf(w, "Losses:        %d\n", losses)
		fmt.Fprintf(w, "Win Rate:      %s\n", pct(r.WinRate))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:  %s\n", money(r.InitialCapital))
	fmt.Fprintf(w, "End Equity:    %s\n", money(r.FinalEquity))
	fmt.Fprintf(w, "Net P/L:       %s\n", money(r.FinalEquity-r.InitialCapital))
	fmt.Fprintf(w, "Return:        %s\n", pct(r.TotalReturn))
	fmt.Fprintf(w, "Annualized:    %s\n", pct(r.AnnualizedReturn))
	fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Sharpe)
	fmt.Fprintf(w, "Max Drawdown:  %s\n", pct(r.MaxDrawdown))

	fmt.Fprintln(w)
}
