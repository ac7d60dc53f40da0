// Package evaluation prices a walk-forward prediction sequence and
// summarizes it with standard trading-performance statistics.
package evaluation

import (
	"math"

	"arima-backtest/internal/model"
	"arima-backtest/internal/stat"
)

const (
	// DefaultUnitCost is the per-trade friction charged whenever the
	// strategy holds a non-flat position, in return units.
	DefaultUnitCost = 0.0005

	// DefaultPeriodsPerYear annualizes daily bars.
	DefaultPeriodsPerYear = 252
)

// Config prices the prediction stream. The zero value charges no costs and
// annualizes at the default daily rate.
type Config struct {
	UnitCost       float64
	PeriodsPerYear int
}

// StrategyReturn prices one step: take the predicted position for the
// period, pay the unit cost for being in the market at all.
func StrategyReturn(r model.PredictionRecord, unitCost float64) float64 {
	pos := float64(r.Predicted)
	return r.Realized*pos - unitCost*math.Abs(pos)
}

// Evaluate summarizes a completed run. It is pure and never fails: every
// statistic whose inputs degenerate (no records, no valid returns, zero
// variance, no losses) reports 0 rather than NaN or an error, so reports
// stay JSON-safe end to end.
//
// Accuracy and the confusion matrix cover every record. The return-based
// statistics cover only valid steps, meaning those whose priced return is
// finite; non-finite returns are excluded from the curve and every ratio.
func Evaluate(records []model.PredictionRecord, cfg Config) *model.PerformanceReport {
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = DefaultPeriodsPerYear
	}

	rep := &model.PerformanceReport{Steps: len(records)}
	if len(records) == 0 {
		return rep
	}

	hits := 0
	valid := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Predicted == r.Actual {
			hits++
		}
		rep.Confusion.Add(r.Actual, r.Predicted)

		sr := StrategyReturn(r, cfg.UnitCost)
		if math.IsNaN(sr) || math.IsInf(sr, 0) {
			continue
		}
		valid = append(valid, sr)
	}
	rep.Accuracy = float64(hits) / float64(len(records))
	rep.ValidSteps = len(valid)
	if len(valid) == 0 {
		return rep
	}

	cum := make([]float64, len(valid))
	sum := 0.0
	for i, v := range valid {
		sum += v
		cum[i] = sum
	}
	rep.CumReturns = cum
	rep.TotalReturn = sum

	annual := math.Sqrt(float64(cfg.PeriodsPerYear))
	if sd := stat.StdDev(valid); sd > 0 {
		rep.Sharpe = stat.Mean(valid) / sd * annual
	}

	var losses []float64
	wins := 0
	sumPos, sumNeg := 0.0, 0.0
	for _, v := range valid {
		switch {
		case v > 0:
			wins++
			sumPos += v
		case v < 0:
			losses = append(losses, v)
			sumNeg += v
		}
	}
	// Downside deviation here is the sample spread of the losing steps
	// alone; with no losses (or a single one) Sortino reports 0.
	if dd := stat.StdDev(losses); dd > 0 {
		rep.Sortino = stat.Mean(valid) / dd * annual
	}
	rep.WinRate = float64(wins) / float64(len(valid))
	if sumNeg < 0 {
		rep.ProfitFactor = sumPos / -sumNeg
	}

	rep.MaxDrawdown = maxDrawdown(cum)
	return rep
}

// maxDrawdown measures peak-to-trough decline over the cumulative curve,
// normalized by the running peak. The curve is an additive return sum, so
// the normalization is a unitless convention rather than a loss fraction;
// it misbehaves near zero or negative peaks, which is why peaks at exactly
// zero contribute nothing and the result is floored at zero.
func maxDrawdown(cum []float64) float64 {
	maxDD := 0.0
	runMax := math.Inf(-1)
	for _, c := range cum {
		if c > runMax {
			runMax = c
		}
		if runMax == 0 {
			continue
		}
		dd := (runMax - c) / runMax
		if !math.IsNaN(dd) && dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
