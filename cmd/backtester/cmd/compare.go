package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/strategies"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the event-driven and vectorized SMA crossover",
	Long: `Compare runs the same SMA crossover through the event-driven engine and
the vectorized engine and prints their headline statistics side by side.

Example:
  backtester compare -f data/btc_usd_1h.csv --fast 24 --slow 168`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	addRunFlags(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	vc, cfg, err := vectorConfig(cmd)
	if err != nil {
		return err
	}
	bs, err := loadBars(cfg.Data.Path, cfg.Data.Timeframe)
	if err != nil {
		return err
	}

	factory, err := strategies.ByName("sma-cross", strategies.Params{Fast: vc.Fast, Slow: vc.Slow})
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	opts := backtest.DefaultOptions()
	opts.InitialCapital = vc.InitialCapital
	opts.Fee = vc.Fee
	if vc.RollingWindow > 0 {
		opts.RollingWindow = vc.RollingWindow
	}
	opts.Logger = logger

	ev, err := backtest.Run(factory, bs.Bars, opts)
	if err != nil {
		return fmt.Errorf("event-driven: %w", err)
	}
	vec, err := backtest.Vectorized(bs.Bars, vc)
	if err != nil {
		return fmt.Errorf("vectorized: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-18s %14s %14s\n", "", "event", "vectorized")
	row := func(name, format string, a, b any) {
		fmt.Fprintf(out, "%-18s "+format+" "+format+"\n", name, a, b)
	}
	row("Sharpe", "%14.4f", ev.Sharpe, vec.Sharpe)
	row("Total return", "%14.4f", ev.TotalReturn, vec.TotalReturn)
	row("Annualized", "%14.4f", ev.AnnualizedReturn, vec.AnnualizedReturn)
	row("Max drawdown", "%14.4f", ev.MaxDrawdown, vec.MaxDrawdown)
	row("Final equity", "%14.2f", ev.FinalEquity, vec.FinalEquity)
	fmt.Fprintf(out, "%-18s %14d %13s%d\n", "Trades", ev.NTrades, "~", vec.NTrades)
	row("Win rate", "%14.4f", ev.WinRate, vec.WinRate)
	return nil
}
