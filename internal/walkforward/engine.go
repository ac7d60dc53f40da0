// Package walkforward drives a one-step forecaster across the test segment
// of a return series, re-estimating on expanding history at a fixed cadence.
package walkforward

import (
	"context"
	"fmt"

	"arima-backtest/internal/forecast"
	"arima-backtest/internal/model"
)

// DefaultRefitEvery re-estimates after every 21 test steps, roughly one
// trading month of daily bars.
const DefaultRefitEvery = 21

// Config selects the model family and the re-estimation cadence.
type Config struct {
	Order      forecast.Order
	RefitEvery int
}

// Engine walks a forecaster forward across a train/test split. Each Run
// owns its history buffer and fitted model exclusively, so a single Engine
// may serve concurrent runs as long as its Fitter is stateless.
type Engine struct {
	fitter forecast.Fitter
	cfg    Config
}

func New(fitter forecast.Fitter, cfg Config) *Engine {
	if cfg.RefitEvery <= 0 {
		cfg.RefitEvery = DefaultRefitEvery
	}
	return &Engine{fitter: fitter, cfg: cfg}
}

// Result is the complete outcome of one walk-forward run.
type Result struct {
	Records []model.PredictionRecord

	// RefitSteps lists the 1-based test steps after which the model was
	// re-estimated, in order.
	RefitSteps []int
}

// Run fits the model on train alone, then for each test step t forecasts
// the next return from everything strictly before t, records the
// directional call against the realized value, appends that value to
// history, and refits every RefitEvery steps on the grown history.
//
// The loop is strictly sequential. Any estimation or forecasting failure
// aborts the whole run with the failing step in the error; there is no
// partial result.
func (e *Engine) Run(ctx context.Context, train, test []float64) (*Result, error) {
	if e.fitter == nil {
		return nil, fmt.Errorf("fitter is nil")
	}
	if len(train) == 0 {
		return nil, fmt.Errorf("empty training segment")
	}
	if len(test) == 0 {
		return nil, fmt.Errorf("empty test segment")
	}

	history := make([]float64, len(train), len(train)+len(test))
	copy(history, train)

	mdl, err := e.fitter.Fit(history, e.cfg.Order)
	if err != nil {
		return nil, fmt.Errorf("initial fit: %w", err)
	}

	res := &Result{Records: make([]model.PredictionRecord, 0, len(test))}

	for t := 1; t <= len(test); t++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}

		// history holds train plus test values before t, never test[t-1]
		// itself. The forecast cannot see the value it is judged against.
		pred, err := mdl.ForecastOne(history)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}

		realized := test[t-1]
		res.Records = append(res.Records, model.PredictionRecord{
			Step:      t,
			Predicted: model.DirectionOf(pred),
			Actual:    model.DirectionOf(realized),
			Realized:  realized,
		})

		history = append(history, realized)

		if t%e.cfg.RefitEvery == 0 {
			mdl, err = e.fitter.Fit(history, e.cfg.Order)
			if err != nil {
				return nil, fmt.Errorf("step %d: refit: %w", t, err)
			}
			res.RefitSteps = append(res.RefitSteps, t)
		}
	}

	return res, nil
}
