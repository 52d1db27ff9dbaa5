package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const runColumns = `run_id, created, strategy, engine, dataset, config, start_time, end_time, bars,
	fee, fee_basis, sampling, initial_capital, final_equity,
	sharpe, total_return, annualized_return, win_rate, max_drawdown,
	n_trades, wins, losses, trades_approximate`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (BacktestRun, error) {
	var (
		run                                  BacktestRun
		config                               string
		sharpe, ret, annual, winRate, maxDD sql.NullFloat64
	)
	err := s.Scan(
		&run.RunID, &run.Created, &run.Strategy, &run.Engine, &run.Dataset, &config,
		&run.Start, &run.End, &run.Bars,
		&run.Fee, &run.FeeBasis, &run.Sampling, &run.InitialCapital, &run.FinalEquity,
		&sharpe, &ret, &annual, &winRate, &maxDD,
		&run.Trades, &run.Wins, &run.Losses, &run.TradesApproximate,
	)
	if err != nil {
		return BacktestRun{}, err
	}
	run.Config = []byte(config)
	run.Sharpe = fromNull(sharpe)
	run.TotalReturn = fromNull(ret)
	run.AnnualizedReturn = fromNull(annual)
	run.WinRate = fromNull(winRate)
	run.MaxDrawdown = fromNull(maxDD)
	return run, nil
}

// GetRun returns the run row for runID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (BacktestRun, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BacktestRun{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return run, err
}

// ListRuns returns the most recent runs first. limit <= 0 returns all of them.
// A non-empty strategy filters by strategy name prefix.
func (j *SQLite) ListRuns(ctx context.Context, strategy string, limit int) ([]BacktestRun, error) {
	var (
		q    strings.Builder
		args []any
	)
	q.WriteString(`SELECT ` + runColumns + ` FROM runs`)
	if strategy != "" {
		q.WriteString(` WHERE strategy LIKE ?`)
		args = append(args, strategy+"%")
	}
	q.WriteString(` ORDER BY created DESC, run_id DESC`)
	if limit > 0 {
		q.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesByRunID returns the trades of a run in ledger order.
func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, entry_idx, exit_idx, entry_time, exit_time, entry_price, exit_price, pnl, forced
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.Seq,
			&rec.EntryIndex,
			&rec.ExitIndex,
			&rec.EntryTime,
			&rec.ExitTime,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.PnL,
			&rec.Forced,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityByRunID returns the equity samples of a run in curve order.
func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquityPoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, idx, equity, unrealized_dd, realized_dd
		FROM equity
		WHERE run_id = ?
		ORDER BY idx ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var p EquityPoint
		if err := rows.Scan(&p.RunID, &p.Idx, &p.Equity, &p.UnrealizedDrawdown, &p.RealizedDrawdown); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportOrg loads a run with its trades and renders the Org report.
func (j *SQLite) ExportOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := RenderOrg(&sb, run, trades); err != nil {
		return "", err
	}
	return sb.String(), nil
}
