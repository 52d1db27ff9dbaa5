package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/market"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Hourly long-only crypto strategy backtester",
	Long: `Backtester replays hourly close prices through a trading strategy and
reports risk-adjusted performance.

It provides tools for:
  - Event-driven backtests of SMA, EMA and scripted strategies
  - A vectorized SMA crossover for fast comparisons
  - Parallel parameter sweeps
  - Journaling runs to SQLite or CSV and exporting Org reports`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var (
	debug  bool
	logger = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "development logging at debug level")
}

func setupLogger() error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	logger = l
	return nil
}

// loadBars reads a feed and logs what the loader skipped or collapsed and
// how well the feed covers its timeframe grid.
func loadBars(path, timeframe string) (*market.BarSet, error) {
	bs, err := market.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	st := bs.Stats()
	logger.Info("loaded bars",
		zap.String("path", path),
		zap.String("source", bs.Source),
		zap.Int("rows", st.Rows),
		zap.Int("duplicates", st.Duplicates),
		zap.Int("bad_lines", st.BadLines),
		zap.Time("start", st.Start),
		zap.Time("end", st.End),
	)
	if st.Duplicates > 0 {
		logger.Warn("duplicate timestamps kept in input order", zap.Int("count", st.Duplicates))
	}

	step, err := market.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	gs := bs.Gaps(step)
	if gs.GapCount > 0 {
		logger.Warn("feed has gaps",
			zap.Int("expected", gs.Expected),
			zap.Int("missing", gs.Missing),
			zap.Int("gaps", gs.GapCount),
			zap.Int("suspicious", gs.SuspiciousGaps),
			zap.Int("outages", gs.Outages),
			zap.Int("longest", gs.LongestGap),
		)
	}
	return bs, nil
}
