package analysis

import (
	"context"
	"sort"

	"arima-backtest/internal/evaluation"
	"arima-backtest/internal/forecast"
	"arima-backtest/internal/model"
	"arima-backtest/internal/series"
	"arima-backtest/internal/walkforward"
)

// SweepEntry is one candidate order's complete outcome. Exactly one of
// Report and Err is set.
type SweepEntry struct {
	Order  forecast.Order
	Report *model.PerformanceReport
	Err    error
}

type SweepConfig struct {
	RefitEvery int
	Eval       evaluation.Config
}

// Sweep runs one independent walk-forward evaluation per candidate order
// and returns the entries sorted by Sharpe, best first. The engine gives
// every run its own history buffer and the split segments are only read, so
// candidates cannot contaminate each other.
//
// A candidate that fails to estimate keeps its slot with the error recorded
// and sinks to the bottom of the ranking; the sweep itself fails only on
// cancellation.
func Sweep(ctx context.Context, fitter forecast.Fitter, split series.Split, candidates []forecast.Order, cfg SweepConfig) ([]SweepEntry, error) {
	out := make([]SweepEntry, 0, len(candidates))
	for _, ord := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		eng := walkforward.New(fitter, walkforward.Config{
			Order:      ord,
			RefitEvery: cfg.RefitEvery,
		})
		res, err := eng.Run(ctx, split.Train, split.Test)
		if err != nil {
			out = append(out, SweepEntry{Order: ord, Err: err})
			continue
		}
		out = append(out, SweepEntry{
			Order:  ord,
			Report: evaluation.Evaluate(res.Records, cfg.Eval),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if (out[i].Report == nil) != (out[j].Report == nil) {
			return out[j].Report == nil
		}
		if out[i].Report == nil {
			return false
		}
		return out[i].Report.Sharpe > out[j].Report.Sharpe
	})
	return out, nil
}
