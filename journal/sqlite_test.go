package journal

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

var t0 = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func sampleResult(t *testing.T) (strategies.Params, backtest.Options, *backtest.Result) {
	t.Helper()

	closes := []float64{100, 102, 101, 105, 103, 104}
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Time: t0.Add(time.Duration(i) * time.Hour), Close: c, Volume: 1}
	}

	params := strategies.Params{Signals: []string{"hold", "buy", "hold", "sell", "buy"}}
	factory, err := strategies.ByName("script", params)
	require.NoError(t, err)

	opts := backtest.DefaultOptions()
	opts.Fee = 0.001
	res, err := backtest.Run(factory, bars, opts)
	require.NoError(t, err)
	return params, opts, res
}

func record(t *testing.T, j Journal, id string, created time.Time) (BacktestRun, *backtest.Result) {
	t.Helper()

	params, opts, res := sampleResult(t)
	run := NewBacktestRun(id, "btc-1h.csv", params, opts, res)
	run.Created = created
	require.NoError(t, j.RecordRun(context.Background(), run, TradeRecords(id, res), EquityPoints(id, res)))
	return run, res
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteRecordAndGetRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()
	want, res := record(t, j, "RUN1", t0)

	got, err := j.GetRun(ctx, "RUN1")
	require.NoError(t, err)

	assert.Equal(t, "RUN1", got.RunID)
	assert.Equal(t, "script", got.Strategy)
	assert.Equal(t, "event", got.Engine)
	assert.Equal(t, "btc-1h.csv", got.Dataset)
	assert.JSONEq(t, string(want.Config), string(got.Config))
	assert.True(t, got.Created.Equal(t0))
	assert.True(t, got.Start.Equal(res.Start))
	assert.True(t, got.End.Equal(res.End))
	assert.Equal(t, 6, got.Bars)
	assert.Equal(t, "notional", got.FeeBasis)
	assert.Equal(t, "per-bar", got.Sampling)
	assert.InDelta(t, res.FinalEquity, got.FinalEquity, 1e-9)
	assert.InDelta(t, res.TotalReturn, got.TotalReturn, 1e-12)
	assert.Equal(t, res.NTrades, got.Trades)
	assert.Equal(t, want.Wins, got.Wins)
	assert.Equal(t, want.Losses, got.Losses)
	assert.False(t, got.TradesApproximate)

	// the rolling window never fills, but the whole-run Sharpe is defined
	assert.False(t, math.IsNaN(got.Sharpe))
	assert.InDelta(t, res.Sharpe, got.Sharpe, 1e-9)
}

func TestSQLiteNaNStoredAsNull(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	ctx := context.Background()

	run := BacktestRun{
		RunID:       "FLAT",
		Created:     t0,
		Strategy:    "noop",
		Engine:      "event",
		Config:      []byte("{}"),
		Start:       t0,
		End:         t0,
		Bars:        1,
		Sharpe:      math.NaN(),
		FinalEquity: 10_000,
	}
	require.NoError(t, j.RecordRun(ctx, run, nil, nil))

	got, err := j.GetRun(ctx, "FLAT")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.Sharpe))
	assert.Equal(t, 0.0, got.TotalReturn)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var sharpe sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT sharpe FROM runs WHERE run_id = 'FLAT'`).Scan(&sharpe))
	assert.False(t, sharpe.Valid)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	_, err := j.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteDuplicateRunRollsBack(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()
	record(t, j, "DUP", t0)

	params, opts, res := sampleResult(t)
	run := NewBacktestRun("DUP", "other.csv", params, opts, res)
	err := j.RecordRun(ctx, run, TradeRecords("DUP", res), EquityPoints("DUP", res))
	require.Error(t, err)

	got, err := j.GetRun(ctx, "DUP")
	require.NoError(t, err)
	assert.Equal(t, "btc-1h.csv", got.Dataset)

	eq, err := j.ListEquityByRunID(ctx, "DUP")
	require.NoError(t, err)
	assert.Len(t, eq, len(res.EquityCurve))
}

func TestSQLiteListTradesAndEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()
	_, res := record(t, j, "RUN2", t0)

	trades, err := j.ListTradesByRunID(ctx, "RUN2")
	require.NoError(t, err)
	require.Len(t, trades, len(res.Trades))
	for i, tr := range trades {
		want := res.Trades[i]
		assert.Equal(t, i, tr.Seq)
		assert.Equal(t, "RUN2", tr.RunID)
		assert.Equal(t, want.EntryIndex, tr.EntryIndex)
		assert.Equal(t, want.ExitIndex, tr.ExitIndex)
		assert.True(t, tr.EntryTime.Equal(want.EntryTime))
		assert.True(t, tr.ExitTime.Equal(want.ExitTime))
		assert.InDelta(t, want.PnL, tr.PnL, 1e-9)
		assert.Equal(t, want.Forced, tr.Forced)
	}
	// the second entry is still open at the end of the feed
	assert.True(t, trades[len(trades)-1].Forced)

	eq, err := j.ListEquityByRunID(ctx, "RUN2")
	require.NoError(t, err)
	require.Len(t, eq, len(res.EquityCurve))
	for i, p := range eq {
		assert.Equal(t, i, p.Idx)
		assert.InDelta(t, res.EquityCurve[i], p.Equity, 1e-9)
		assert.InDelta(t, res.UnrealizedDrawdown[i], p.UnrealizedDrawdown, 1e-12)
		assert.InDelta(t, res.RealizedDrawdown[i], p.RealizedDrawdown, 1e-12)
	}

	none, err := j.ListTradesByRunID(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteListRuns(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()
	record(t, j, "A", t0)
	record(t, j, "B", t0.Add(time.Hour))
	record(t, j, "C", t0.Add(2*time.Hour))

	runs, err := j.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "C", runs[0].RunID)
	assert.Equal(t, "A", runs[2].RunID)

	runs, err = j.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = j.ListRuns(ctx, "scr", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = j.ListRuns(ctx, "sma", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSQLiteExportOrg(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	record(t, j, "ORG1", t0)

	out, err := j.ExportOrg(context.Background(), "ORG1")
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      ORG1")
	assert.Contains(t, out, "** Trades")

	_, err = j.ExportOrg(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
