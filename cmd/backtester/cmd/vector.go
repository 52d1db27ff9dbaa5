package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
)

var vectorCmd = &cobra.Command{
	Use:   "vector",
	Short: "Run the vectorized SMA crossover",
	Long: `Vector computes an SMA crossover over the whole feed at once. The trade
count is estimated from position changes and there is no trade ledger.

Example:
  backtester vector -f data/btc_usd_1h.csv --fast 24 --slow 168`,
	RunE: runVector,
}

func init() {
	rootCmd.AddCommand(vectorCmd)
	addRunFlags(vectorCmd)
}

func vectorConfig(cmd *cobra.Command) (backtest.VectorConfig, *config.Config, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return backtest.VectorConfig{}, nil, err
	}
	return backtest.VectorConfig{
		Fast:           cfg.Strategy.Fast,
		Slow:           cfg.Strategy.Slow,
		InitialCapital: cfg.Backtest.InitialCapital,
		Fee:            cfg.Backtest.Fee,
		RollingWindow:  cfg.Backtest.RollingWindow,
	}, cfg, nil
}

func runVector(cmd *cobra.Command, args []string) error {
	vc, cfg, err := vectorConfig(cmd)
	if err != nil {
		return err
	}
	bs, err := loadBars(cfg.Data.Path, cfg.Data.Timeframe)
	if err != nil {
		return err
	}

	res, err := backtest.Vectorized(bs.Bars, vc)
	if err != nil {
		return fmt.Errorf("vectorized: %w", err)
	}
	backtest.PrintResult(cmd.OutOrStdout(), res)
	return nil
}
