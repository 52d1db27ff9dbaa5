package backtest

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// SweepResult pairs one parameter set with its run.
type SweepResult struct {
	Params strategies.Params
	Result *Result
}

// Grid returns every (fast, slow) combination with fast < slow.
func Grid(fasts, slows []int) []strategies.Params {
	var out []strategies.Params
	for _, f := range fasts {
		for _, s := range slows {
			if f > 0 && f < s {
				out = append(out, strategies.Params{Fast: f, Slow: s})
			}
		}
	}
	return out
}

// Sweep runs the named strategy once per parameter set using up to workers
// goroutines (GOMAXPROCS when workers <= 0). Each run gets its own engine
// and its own strategy instance; only the read-only bars are shared. The
// first failure cancels the remaining runs. Results are ordered by Sharpe,
// best first, with undefined Sharpe ratios last.
func Sweep(ctx context.Context, name string, grid []strategies.Params, bars []market.Bar, opts Options, workers int) ([]SweepResult, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: empty parameter grid", ErrInvalidInput)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Normalize once so workers never sort the same data concurrently.
	feed := market.Normalize(bars)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	out := make([]SweepResult, len(grid))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range grid {
		i, p := i, p // per-iteration copy (module targets go 1.21 loop semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			factory, err := strategies.ByName(name, p)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
			res, err := Run(factory, feed, opts)
			if err != nil {
				return fmt.Errorf("%s fast=%d slow=%d: %w", name, p.Fast, p.Slow, err)
			}
			log.Debug("sweep run complete",
				zap.String("strategy", res.Strategy),
				zap.Float64("sharpe", res.Sharpe),
				zap.Float64("total_return", res.TotalReturn))
			out[i] = SweepResult{Params: p, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Result.Sharpe, out[j].Result.Sharpe
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
	return out, nil
}
