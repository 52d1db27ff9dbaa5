package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	tradesHeader = []string{"seq", "entry_idx", "exit_idx", "entry_time", "exit_time", "entry_price", "exit_price", "pnl", "forced"}
	equityHeader = []string{"idx", "equity", "unrealized_dd", "realized_dd"}
)

// CSVJournal writes every run as <dir>/<run_id>-trades.csv and
// <dir>/<run_id>-equity.csv.
type CSVJournal struct {
	dir string
}

var _ Journal = (*CSVJournal)(nil)

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &CSVJournal{dir: dir}, nil
}

func (j *CSVJournal) TradesPath(runID string) string {
	return filepath.Join(j.dir, runID+"-trades.csv")
}

func (j *CSVJournal) EquityPath(runID string) string {
	return filepath.Join(j.dir, runID+"-equity.csv")
}

func (j *CSVJournal) RecordRun(_ context.Context, run BacktestRun, trades []TradeRecord, equity []EquityPoint) error {
	if err := WriteTradesCSV(j.TradesPath(run.RunID), trades); err != nil {
		return err
	}
	return WriteEquityCSV(j.EquityPath(run.RunID), equity)
}

func (j *CSVJournal) Close() error { return nil }

// WriteTradesCSV writes the trade ledger to path, replacing any existing file.
func WriteTradesCSV(path string, trades []TradeRecord) error {
	return writeCSV(path, tradesHeader, len(trades), func(i int) []string {
		t := trades[i]
		return []string{
			strconv.Itoa(t.Seq),
			strconv.Itoa(t.EntryIndex),
			strconv.Itoa(t.ExitIndex),
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			num(t.EntryPrice, 8),
			num(t.ExitPrice, 8),
			num(t.PnL, 6),
			strconv.FormatBool(t.Forced),
		}
	})
}

// WriteEquityCSV writes the equity samples and their drawdowns to path.
func WriteEquityCSV(path string, equity []EquityPoint) error {
	return writeCSV(path, equityHeader, len(equity), func(i int) []string {
		e := equity[i]
		return []string{
			strconv.Itoa(e.Idx),
			num(e.Equity, 6),
			num(e.UnrealizedDrawdown, 8),
			num(e.RealizedDrawdown, 8),
		}
	})
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			f.Close()
			return fmt.Errorf("%s row %d: %w", path, i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// num renders x with a fixed number of places. NaN and infinities are
// written as empty fields.
func num(x float64, places int32) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ""
	}
	return decimal.NewFromFloat(x).StringFixed(places)
}
