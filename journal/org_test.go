package journal

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOrg(t *testing.T) {
	t.Parallel()

	params, opts, res := sampleResult(t)
	run := NewBacktestRun("01HZX", "btc-1h.csv", params, opts, res)
	run.Notes = []string{"entry fee dominates short holds"}

	var sb strings.Builder
	require.NoError(t, RenderOrg(&sb, run, TradeRecords(run.RunID, res)))
	out := sb.String()

	assert.Contains(t, out, "* BACKTEST: script btc-1h.csv")
	assert.Contains(t, out, ":PROPERTIES:")
	assert.Contains(t, out, ":RUN_ID:      01HZX")
	assert.Contains(t, out, ":ENGINE:      event")
	assert.Contains(t, out, ":START_BAL:   10000.00")
	assert.Contains(t, out, ":TRADES:      2")
	assert.Contains(t, out, ":WIN_RATE:    100.00%")
	assert.Contains(t, out, ":END:")
	assert.Contains(t, out, "| Fee       | 0.10% (notional) |")
	assert.Contains(t, out, "** Trades")
	assert.Contains(t, out, "(end)")
	assert.Contains(t, out, "** Observations")
	assert.Contains(t, out, "- entry fee dominates short holds")
}

func TestRenderOrgUndefinedMetrics(t *testing.T) {
	t.Parallel()

	run := BacktestRun{
		RunID:             "V1",
		Strategy:          "SMA_CROSS(1,2)",
		Engine:            "vectorized",
		Sharpe:            math.NaN(),
		Trades:            3,
		TradesApproximate: true,
	}

	var sb strings.Builder
	require.NoError(t, RenderOrg(&sb, run, nil))
	out := sb.String()

	assert.Contains(t, out, ":SHARPE:      n/a")
	assert.Contains(t, out, ":TRADES:      ~3")
	assert.Contains(t, out, "(dataset?)")
	assert.NotContains(t, out, "** Trades")
	assert.NotContains(t, out, "** Observations")
}

func TestWriteOrg(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, WriteOrg(path, BacktestRun{RunID: "W1", Strategy: "noop"}, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ":RUN_ID:      W1")
}
