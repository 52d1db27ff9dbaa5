package journal

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"pct": func(x float64) string {
		if math.IsNaN(x) {
			return "n/a"
		}
		return fmt.Sprintf("%.2f%%", x*100)
	},
	"f2": func(x float64) string {
		if math.IsNaN(x) {
			return "n/a"
		}
		return fmt.Sprintf("%.2f", x)
	},
	"money": num2,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

func num2(x float64) string { return num(x, 2) }

var orgTemplate = template.Must(template.New("backtest").Funcs(orgFuncs).Parse(BacktestOrgTemplate))

type orgView struct {
	BacktestRun
	NetPL     float64
	TradeRows []TradeRecord
}

// RenderOrg writes the Org-mode report for run to w.
func RenderOrg(w io.Writer, run BacktestRun, trades []TradeRecord) error {
	return orgTemplate.Execute(w, orgView{
		BacktestRun: run,
		NetPL:       run.FinalEquity - run.InitialCapital,
		TradeRows:   trades,
	})
}

// WriteOrg renders the report for run into path.
func WriteOrg(path string, run BacktestRun, trades []TradeRecord) error {
	buf := new(bytes.Buffer)
	if err := RenderOrg(buf, run, trades); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

const BacktestOrgTemplate = `
* BACKTEST: {{.Strategy}} {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:ENGINE:      {{.Engine}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02 15:04"}}
:END_DATE:    {{.End.Format "2006-01-02 15:04"}}
:BARS:        {{.Bars}}
:START_BAL:   {{money .InitialCapital}}
:END_BAL:     {{money .FinalEquity}}
:NET_PL:      {{money .NetPL}}
:RETURN:      {{pct .TotalReturn}}
:ANNUALIZED:  {{pct .AnnualizedReturn}}
:SHARPE:      {{f2 .Sharpe}}
:MAX_DD:      {{pct .MaxDrawdown}}
:TRADES:      {{if .TradesApproximate}}~{{end}}{{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{pct .WinRate}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Run Parameters
| Parameter | Value |
|-----------+-------|
| Config    | {{printf "%s" .Config}} |
| Fee       | {{pct .Fee}} ({{.FeeBasis}}) |
| Sampling  | {{.Sampling}} |

** Performance Summary
- Net P/L:       *{{money .NetPL}}*
- Return:        *{{pct .TotalReturn}}*
- Sharpe:        *{{f2 .Sharpe}}*
- Max Drawdown:  *{{pct .MaxDrawdown}}*
- Win Rate:      *{{pct .WinRate}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

{{- if .TradeRows }}

** Trades
| # | Entry | Exit | Entry Price | Exit Price | P/L |
|---+-------+------+-------------+------------+-----|
{{- range .TradeRows }}
| {{.Seq}} | {{.EntryTime.Format "2006-01-02 15:04"}} | {{.ExitTime.Format "2006-01-02 15:04"}}{{if .Forced}} (end){{end}} | {{.EntryPrice}} | {{.ExitPrice}} | {{money .PnL}} |
{{- end }}
{{- end }}

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
