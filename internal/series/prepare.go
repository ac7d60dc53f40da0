// Package series turns raw price observations into the stationary return
// series the forecaster trains on.
package series

import (
	"errors"
	"fmt"
	"math"

	"arima-backtest/internal/stat"
)

// ErrInsufficientData reports that too few usable observations survived
// cleaning to support estimation.
var ErrInsufficientData = errors.New("insufficient data")

const (
	// DefaultMinObservations is the smallest cleaned price count the
	// pipeline will work with.
	DefaultMinObservations = 30

	// DefaultSignificance is the p-value threshold for the unit-root
	// differencing decision.
	DefaultSignificance = 0.05
)

// Options tune Prepare. The zero value selects the defaults.
type Options struct {
	MinObservations int
	Significance    float64
}

// Prepared carries the model-ready return series plus the facts behind the
// cleaning and stationarity decisions so callers can log them. Prepare
// itself never logs and never mutates its input.
type Prepared struct {
	Returns []float64

	Dropped     int            // raw observations removed by cleaning
	ADF         stat.ADFResult // unit-root test on the log returns
	ADFErr      error          // set when the test could not run; series left as is
	Differenced bool
}

// Prepare cleans prices, converts them to log returns, and applies at most
// one differencing pass when the unit-root test cannot reject
// non-stationarity at the configured significance. Cleaning keeps strictly
// positive finite values and preserves their order; everything else is
// dropped without complaint.
func Prepare(prices []float64, opts Options) (*Prepared, error) {
	minObs := opts.MinObservations
	if minObs <= 0 {
		minObs = DefaultMinObservations
	}
	alpha := opts.Significance
	if alpha <= 0 {
		alpha = DefaultSignificance
	}

	clean := make([]float64, 0, len(prices))
	for _, p := range prices {
		// p > 0 is false for NaN, so this drops NaN, zeros and negatives.
		if p > 0 && !math.IsInf(p, 1) {
			clean = append(clean, p)
		}
	}
	if len(clean) < minObs {
		return nil, fmt.Errorf("%w: %d usable prices, need at least %d",
			ErrInsufficientData, len(clean), minObs)
	}

	prep := &Prepared{
		Returns: LogReturns(clean),
		Dropped: len(prices) - len(clean),
	}

	res, err := stat.ADF(prep.Returns, -1)
	if err != nil {
		// Inconclusive test. Leave the series alone; a series degenerate
		// enough to break the regression will fail estimation anyway.
		prep.ADFErr = err
		return prep, nil
	}
	prep.ADF = res
	if res.PValue > alpha {
		// One pass only. A series still non-stationary after differencing
		// once is a data problem, not something to difference away.
		prep.Returns = Difference(prep.Returns)
		prep.Differenced = true
	}
	return prep, nil
}

// LogReturns maps n prices to n-1 continuously compounded returns.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return out
}

// Difference replaces a series with its first differences, one shorter.
func Difference(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}
