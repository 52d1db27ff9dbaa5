package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/backtest"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a parallel fast/slow parameter grid",
	Long: `Sweep runs one event-driven backtest per (fast, slow) pair with fast < slow
and ranks the runs by Sharpe ratio.

Example:
  backtester sweep -f data/btc_usd_1h.csv -s ema-cross --fasts 6,12,24 --slows 48,96,168 -w 8`,
	RunE: runSweep,
}

var (
	swStrategy string
	swFasts    []int
	swSlows    []int
	swWorkers  int
	swTop      int
)

func init() {
	rootCmd.AddCommand(sweepCmd)
	addRunFlags(sweepCmd)

	sweepCmd.Flags().StringVarP(&swStrategy, "strategy", "s", "sma-cross", "crossover strategy (sma-cross, ema-cross)")
	sweepCmd.Flags().IntSliceVar(&swFasts, "fasts", []int{6, 12, 24}, "fast periods")
	sweepCmd.Flags().IntSliceVar(&swSlows, "slows", []int{48, 96, 168}, "slow periods")
	sweepCmd.Flags().IntVarP(&swWorkers, "workers", "w", 0, "parallel runs (0 = GOMAXPROCS)")
	sweepCmd.Flags().IntVar(&swTop, "top", 10, "print only the best N runs (0 = all)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	bs, err := loadBars(cfg.Data.Path, cfg.Data.Timeframe)
	if err != nil {
		return err
	}

	name := swStrategy
	if !cmd.Flags().Changed("strategy") && btConfigPath != "" {
		name = cfg.Strategy.Name
	}

	grid := backtest.Grid(swFasts, swSlows)
	workers := swWorkers
	if !cmd.Flags().Changed("workers") && cfg.Backtest.Workers > 0 {
		workers = cfg.Backtest.Workers
	}

	opts := cfg.Options()
	opts.Logger = logger
	opts.Verbose = false

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Info("sweep starting", zap.String("strategy", name), zap.Int("runs", len(grid)), zap.Int("workers", workers))
	results, err := backtest.Sweep(ctx, name, grid, bs.Bars, opts, workers)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-5s %-5s %10s %10s %10s %7s %9s\n", "FAST", "SLOW", "SHARPE", "RETURN", "MAX DD", "TRADES", "WIN RATE")
	for i, r := range results {
		if swTop > 0 && i >= swTop {
			break
		}
		res := r.Result
		fmt.Fprintf(out, "%-5d %-5d %10.2f %9.2f%% %9.2f%% %7d %8.2f%%\n",
			r.Params.Fast, r.Params.Slow, res.Sharpe,
			res.TotalReturn*100, res.MaxDrawdown*100, res.NTrades, res.WinRate*100)
	}
	return nil
}
