package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run an event-driven backtest",
	Long: `Backtest feeds hourly bars to a strategy one at a time and simulates a
long-only, all-in position with a per-side fee.

Supported strategies:
  - noop: never trades (baseline)
  - sma-cross: long while the fast SMA is above the slow SMA
  - ema-cross: enter and exit on EMA crossovers
  - script: replay a fixed list of signals (--signals buy,hold,sell)

Flags override values from --config.

Example:
  backtester backtest -f data/btc_usd_1h.csv -s sma-cross --fast 24 --slow 168 --fee 0.001`,
	RunE: runBacktest,
}

var (
	btConfigPath string
	btDataPath   string
	btTimeframe  string
	btStrategy   string
	btFast       int
	btSlow       int
	btSignals    []string
	btCapital    float64
	btFee        float64
	btFeeBasis   string
	btSampling   string
	btWindow     int
	btVerbose    bool
	btJournal    string
	btJournalDir string
	btDBPath     string
	btOrgDir     string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	addRunFlags(backtestCmd)
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "sma-cross", "strategy name ("+strings.Join(strategies.Names(), ", ")+")")
	backtestCmd.Flags().StringSliceVar(&btSignals, "signals", nil, "script: comma separated buy/sell/hold per bar")
	backtestCmd.Flags().StringVar(&btFeeBasis, "fee-basis", "notional", "fee basis (notional, current-equity)")
	backtestCmd.Flags().StringVar(&btSampling, "sampling", "per-bar", "equity sampling (per-bar, legacy)")
	backtestCmd.Flags().BoolVarP(&btVerbose, "verbose", "v", false, "log every trade event")
	backtestCmd.Flags().StringVarP(&btJournal, "journal", "j", "none", "journal type (none, csv, sqlite)")
	backtestCmd.Flags().StringVar(&btJournalDir, "journal-dir", "./runs", "csv journal: output directory")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "./backtest.sqlite", "sqlite journal: database path")
	backtestCmd.Flags().StringVar(&btOrgDir, "org", "", "write an Org report for the run into this directory")
}

// addRunFlags registers the flags shared by backtest, vector and sweep.
func addRunFlags(c *cobra.Command) {
	c.Flags().StringVarP(&btConfigPath, "config", "c", "", "config file (YAML or JSON)")
	c.Flags().StringVarP(&btDataPath, "data", "f", "", "bar feed (CSV or .parquet)")
	c.Flags().StringVar(&btTimeframe, "timeframe", "H1", "bar spacing used for gap checks")
	c.Flags().IntVar(&btFast, "fast", 24, "fast moving average period")
	c.Flags().IntVar(&btSlow, "slow", 168, "slow moving average period")
	c.Flags().Float64VarP(&btCapital, "capital", "k", 10_000, "initial capital")
	c.Flags().Float64Var(&btFee, "fee", 0.001, "fee per side as a fraction (0.001 = 0.1%)")
	c.Flags().IntVar(&btWindow, "window", backtest.DefaultRollingWindow, "rolling Sharpe window in bars")
}

// resolveConfig starts from --config (or the defaults) and applies every
// flag the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if btConfigPath != "" {
		loaded, err := config.LoadFromFile(btConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := func(name string, apply func()) {
		if f := cmd.Flags().Lookup(name); f != nil && (f.Changed || btConfigPath == "") {
			apply()
		}
	}
	set("data", func() { cfg.Data.Path = btDataPath })
	set("timeframe", func() { cfg.Data.Timeframe = btTimeframe })
	set("strategy", func() { cfg.Strategy.Name = btStrategy })
	set("fast", func() { cfg.Strategy.Fast = btFast })
	set("slow", func() { cfg.Strategy.Slow = btSlow })
	set("signals", func() { cfg.Strategy.Signals = btSignals })
	set("capital", func() { cfg.Backtest.InitialCapital = btCapital })
	set("fee", func() { cfg.Backtest.Fee = btFee })
	set("fee-basis", func() { cfg.Backtest.FeeBasis = btFeeBasis })
	set("sampling", func() { cfg.Backtest.Sampling = btSampling })
	set("window", func() { cfg.Backtest.RollingWindow = btWindow })
	set("verbose", func() { cfg.Backtest.Verbose = btVerbose })
	set("journal", func() { cfg.Journal.Type = btJournal })
	set("journal-dir", func() { cfg.Journal.Dir = btJournalDir })
	set("db", func() { cfg.Journal.DBPath = btDBPath })
	set("org", func() { cfg.Journal.OrgDir = btOrgDir })

	if cfg.Data.Path == "" {
		return nil, fmt.Errorf("no bar feed: pass --data or set data.path in --config")
	}
	return cfg, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	factory, err := cfg.Factory()
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	bs, err := loadBars(cfg.Data.Path, cfg.Data.Timeframe)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	opts.Logger = logger

	res, err := backtest.Run(factory, bs.Bars, opts)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	runID := id.New()
	out := cmd.OutOrStdout()
	backtest.PrintResult(out, res)
	fmt.Fprintf(out, "Run ID:        %s\n", runID)

	return journalRun(cmd.Context(), cfg, runID, cfg.Params(), opts, res)
}

// journalRun persists res according to the journal section of cfg.
func journalRun(ctx context.Context, cfg *config.Config, runID string, params strategies.Params, opts backtest.Options, res *backtest.Result) error {
	if ctx == nil {
		ctx = context.Background()
	}
	run := journal.NewBacktestRun(runID, filepath.Base(cfg.Data.Path), params, opts, res)
	trades := journal.TradeRecords(runID, res)

	var j journal.Journal
	switch cfg.Journal.Type {
	case "sqlite":
		sq, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		j = sq
	case "csv":
		c, err := journal.NewCSV(cfg.Journal.Dir)
		if err != nil {
			return fmt.Errorf("open csv journal: %w", err)
		}
		j = c
	}

	if j != nil {
		defer j.Close()
		if err := j.RecordRun(ctx, run, trades, journal.EquityPoints(runID, res)); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		logger.Info("run journaled", zap.String("run_id", runID), zap.String("journal", cfg.Journal.Type))
	}

	if cfg.Journal.OrgDir != "" {
		path := filepath.Join(cfg.Journal.OrgDir, runID+".org")
		if err := journal.WriteOrg(path, run, trades); err != nil {
			return fmt.Errorf("org report: %w", err)
		}
		logger.Info("org report written", zap.String("path", path))
	}
	return nil
}
