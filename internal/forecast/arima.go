package forecast

import (
	"fmt"
	"math"

	"arima-backtest/internal/stat"
)

const (
	// DefaultLongAR is the stage-one autoregression order used to proxy
	// innovations before the MA terms can be estimated.
	DefaultLongAR = 10

	// DefaultMaxCoef bounds estimated coefficient magnitudes; larger fits
	// are rescaled rather than rejected.
	DefaultMaxCoef = 2.0
)

// Config tunes ARIMA estimation. The zero value selects the defaults.
type Config struct {
	LongAR  int
	MaxCoef float64
}

// ARIMA estimates models by two-stage conditional least squares in the
// Hannan-Rissanen manner:
//   - stage one fits a long autoregression and keeps its residuals as a
//     proxy for the unobserved innovations,
//   - stage two regresses the series on its own lags and the lagged
//     residual proxies to get the AR and MA coefficients in one solve.
//
// Estimation is deterministic and keeps no state between fits, so a single
// ARIMA value is safe to share across concurrent runs.
type ARIMA struct {
	cfg Config
}

func NewARIMA(cfg Config) *ARIMA {
	if cfg.LongAR <= 0 {
		cfg.LongAR = DefaultLongAR
	}
	if cfg.MaxCoef <= 0 {
		cfg.MaxCoef = DefaultMaxCoef
	}
	return &ARIMA{cfg: cfg}
}

func (a *ARIMA) Fit(history []float64, order Order) (Model, error) {
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEstimation, err)
	}
	if len(history) < order.P+order.Q+1 {
		return nil, fmt.Errorf("%w: %d observations cannot identify %s",
			ErrEstimation, len(history), order)
	}

	work := difference(history, order.D)
	if len(work) < order.P+order.Q+1 {
		return nil, fmt.Errorf("%w: %d observations after differencing cannot identify %s",
			ErrEstimation, len(work), order)
	}

	var resid []float64
	start := order.P
	if order.Q > 0 {
		m := a.cfg.LongAR
		if m < order.P+order.Q {
			m = order.P + order.Q
		}
		if maxM := (len(work) - 1) / 3; m > maxM {
			m = maxM
		}
		if m < 1 {
			m = 1
		}
		var err error
		resid, err = longARResiduals(work, m)
		if err != nil {
			return nil, fmt.Errorf("%w: stage-one residuals for %s: %v", ErrEstimation, order, err)
		}
		// Start past the proxy warm-up so every MA regressor is a real
		// stage-one residual, not pre-sample filler.
		if s := m + order.Q; s > start {
			start = s
		}
	}

	params := 1 + order.P + order.Q
	rows := len(work) - start
	if rows < params {
		return nil, fmt.Errorf("%w: %d regression rows for %d coefficients (%s)",
			ErrEstimation, rows, params, order)
	}

	x := make([][]float64, rows)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		i := start + r
		row := make([]float64, params)
		row[0] = 1
		for j := 1; j <= order.P; j++ {
			row[j] = work[i-j]
		}
		for k := 1; k <= order.Q; k++ {
			row[order.P+k] = resid[i-k]
		}
		x[r] = row
		y[r] = work[i]
	}

	coef, err := stat.OLS(x, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEstimation, order, err)
	}

	m := &arimaModel{
		order: order,
		c:     coef[0],
		ar:    append([]float64(nil), coef[1:1+order.P]...),
		ma:    append([]float64(nil), coef[1+order.P:]...),
	}
	m.clip(a.cfg.MaxCoef)
	return m, nil
}

// longARResiduals fits an AR(m) and returns its residual series, zero-filled
// over the first m positions.
func longARResiduals(work []float64, m int) ([]float64, error) {
	rows := len(work) - m
	if rows < m+1 {
		return nil, fmt.Errorf("%d rows for AR(%d)", rows, m)
	}
	x := make([][]float64, rows)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		i := m + r
		row := make([]float64, m+1)
		row[0] = 1
		for j := 1; j <= m; j++ {
			row[j] = work[i-j]
		}
		x[r] = row
		y[r] = work[i]
	}
	coef, err := stat.OLS(x, y)
	if err != nil {
		return nil, err
	}
	resid := make([]float64, len(work))
	for i := m; i < len(work); i++ {
		fit := coef[0]
		for j := 1; j <= m; j++ {
			fit += coef[j] * work[i-j]
		}
		resid[i] = work[i] - fit
	}
	return resid, nil
}

// arimaModel is a frozen fit. It carries no mutable state; every ForecastOne
// call re-derives the innovation sequence from the history it is given.
type arimaModel struct {
	order Order
	c     float64
	ar    []float64
	ma    []float64
}

// clip rescales all coefficients when the largest magnitude exceeds the
// bound, keeping their ratios intact.
func (m *arimaModel) clip(maxCoef float64) {
	maxAbs := 0.0
	for _, c := range m.ar {
		if math.Abs(c) > maxAbs {
			maxAbs = math.Abs(c)
		}
	}
	for _, c := range m.ma {
		if math.Abs(c) > maxAbs {
			maxAbs = math.Abs(c)
		}
	}
	if maxAbs > maxCoef {
		factor := maxCoef / maxAbs
		for i := range m.ar {
			m.ar[i] *= factor
		}
		for i := range m.ma {
			m.ma[i] *= factor
		}
		m.c *= factor
	}
}

func (m *arimaModel) ForecastOne(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, fmt.Errorf("%w: empty history", ErrForecast)
	}

	work := difference(history, m.order.D)

	// Replay the innovation recursion over the supplied history with the
	// frozen coefficients. Lags that reach before the first observation
	// contribute zero (conditional-sum-of-squares convention), so any
	// non-empty history produces a deterministic forecast.
	resid := make([]float64, len(work))
	for i := range work {
		resid[i] = work[i] - m.predictAt(work, resid, i)
	}
	next := m.predictAt(work, resid, len(work))

	if m.order.D == 0 {
		return next, nil
	}
	return undifference(next, history, m.order.D), nil
}

// predictAt evaluates the fitted equation for position i, zero-padding lags
// that fall before the series start.
func (m *arimaModel) predictAt(work, resid []float64, i int) float64 {
	v := m.c
	for j := 1; j <= len(m.ar); j++ {
		if i-j >= 0 {
			v += m.ar[j-1] * work[i-j]
		}
	}
	for k := 1; k <= len(m.ma); k++ {
		if i-k >= 0 {
			v += m.ma[k-1] * resid[i-k]
		}
	}
	return v
}

// difference applies first differencing order times.
func difference(data []float64, order int) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	for d := 0; d < order; d++ {
		if len(out) < 2 {
			return nil
		}
		next := make([]float64, len(out)-1)
		for i := 1; i < len(out); i++ {
			next[i-1] = out[i] - out[i-1]
		}
		out = next
	}
	return out
}

// undifference rebuilds a level forecast from a forecast of the d-th
// difference and the tail of the original series. When the history is too
// short to recover every intermediate difference it degrades to adding the
// forecast onto the last observed level.
func undifference(stationaryForecast float64, original []float64, order int) float64 {
	if order <= 0 || len(original) == 0 {
		return stationaryForecast
	}
	lastY := original[len(original)-1]

	lastDiffs := make([]float64, order)
	tail := make([]float64, len(original))
	copy(tail, original)
	for d := 1; d < order; d++ {
		if len(tail) < 2 {
			return lastY + stationaryForecast
		}
		next := make([]float64, len(tail)-1)
		for i := 1; i < len(tail); i++ {
			next[i-1] = tail[i] - tail[i-1]
		}
		tail = next
		lastDiffs[d] = tail[len(tail)-1]
	}

	acc := stationaryForecast
	for k := order - 1; k >= 1; k-- {
		acc += lastDiffs[k]
	}
	return lastY + acc
}
