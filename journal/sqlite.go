package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordRun stores the run row, its trades and its equity samples in one
// transaction.
func (j *SQLite) RecordRun(ctx context.Context, run BacktestRun, trades []TradeRecord, equity []EquityPoint) (err error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, strategy, engine, dataset, config, start_time, end_time, bars,
		 fee, fee_basis, sampling, initial_capital, final_equity,
		 sharpe, total_return, annualized_return, win_rate, max_drawdown,
		 n_trades, wins, losses, trades_approximate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created, run.Strategy, run.Engine, run.Dataset, string(run.Config),
		run.Start, run.End, run.Bars,
		run.Fee, run.FeeBasis, run.Sampling, run.InitialCapital, run.FinalEquity,
		nullable(run.Sharpe), nullable(run.TotalReturn), nullable(run.AnnualizedReturn),
		nullable(run.WinRate), nullable(run.MaxDrawdown),
		run.Trades, run.Wins, run.Losses, run.TradesApproximate,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	ts, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
		(run_id, seq, entry_idx, exit_idx, entry_time, exit_time, entry_price, exit_price, pnl, forced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ts.Close()
	for _, t := range trades {
		if _, err = ts.ExecContext(ctx,
			run.RunID, t.Seq, t.EntryIndex, t.ExitIndex, t.EntryTime, t.ExitTime,
			t.EntryPrice, t.ExitPrice, t.PnL, t.Forced,
		); err != nil {
			return fmt.Errorf("insert trade %d: %w", t.Seq, err)
		}
	}

	es, err := tx.PrepareContext(ctx, `
		INSERT INTO equity (run_id, idx, equity, unrealized_dd, realized_dd)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer es.Close()
	for _, e := range equity {
		if _, err = es.ExecContext(ctx, run.RunID, e.Idx, e.Equity, e.UnrealizedDrawdown, e.RealizedDrawdown); err != nil {
			return fmt.Errorf("insert equity %d: %w", e.Idx, err)
		}
	}

	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// nullable stores NaN and infinities as NULL.
func nullable(x float64) sql.NullFloat64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: x, Valid: true}
}

func fromNull(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}
