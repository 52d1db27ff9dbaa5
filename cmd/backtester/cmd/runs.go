package cmd

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/pkg/id"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query journaled backtest runs",
	Long: `Query runs recorded in a SQLite journal.

Subcommands:
  list - List recent runs
  show - Print one run as an Org report, optionally exporting CSVs

Examples:
  backtester runs list -d backtest.sqlite -n 20
  backtester runs show 01HZX3J6N9QK5R2M8VZ7T4W1BC --trades-csv trades.csv`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var (
	runsDBPath    string
	runsLimit     int
	runsStrategy  string
	runsTradesCSV string
	runsEquityCSV string
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.PersistentFlags().StringVarP(&runsDBPath, "db", "d", "./backtest.sqlite", "path to SQLite journal DB")
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs (0 = all)")
	runsListCmd.Flags().StringVarP(&runsStrategy, "strategy", "s", "", "only runs whose strategy starts with this prefix")
	runsShowCmd.Flags().StringVar(&runsTradesCSV, "trades-csv", "", "export the trade ledger to this CSV file")
	runsShowCmd.Flags().StringVar(&runsEquityCSV, "equity-csv", "", "export the equity curve to this CSV file")
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runRunsList(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmdContext(cmd), runsStrategy, runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found")
		return nil
	}

	fmt.Fprintf(out, "%-26s  %-16s  %-20s  %-10s  %8s  %9s  %6s\n", "RUN ID", "CREATED", "STRATEGY", "ENGINE", "SHARPE", "RETURN", "TRADES")
	for _, r := range runs {
		created := r.Created
		if t, err := id.Time(r.RunID); err == nil && created.IsZero() {
			created = t
		}
		sharpe := "n/a"
		if !math.IsNaN(r.Sharpe) {
			sharpe = fmt.Sprintf("%.2f", r.Sharpe)
		}
		fmt.Fprintf(out, "%-26s  %-16s  %-20s  %-10s  %8s  %8.2f%%  %6d\n",
			r.RunID, created.Format("2006-01-02 15:04"), r.Strategy, r.Engine, sharpe, r.TotalReturn*100, r.Trades)
	}
	fmt.Fprintf(out, "\nTotal: %d run(s)\n", len(runs))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmdContext(cmd)
	runID := args[0]

	org, err := j.ExportOrg(ctx, runID)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), org)

	if runsTradesCSV != "" {
		trades, err := j.ListTradesByRunID(ctx, runID)
		if err != nil {
			return fmt.Errorf("list trades: %w", err)
		}
		if err := journal.WriteTradesCSV(runsTradesCSV, trades); err != nil {
			return fmt.Errorf("export trades: %w", err)
		}
	}
	if runsEquityCSV != "" {
		equity, err := j.ListEquityByRunID(ctx, runID)
		if err != nil {
			return fmt.Errorf("list equity: %w", err)
		}
		if err := journal.WriteEquityCSV(runsEquityCSV, equity); err != nil {
			return fmt.Errorf("export equity: %w", err)
		}
	}
	return nil
}
