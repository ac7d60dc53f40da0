package forecast

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ar2Series simulates y_t = 0.5·y_{t-1} - 0.3·y_{t-2} + ε_t.
func ar2Series(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	series := make([]float64, n)
	var y1, y2 float64
	for i := 0; i < n; i++ {
		v := 0.5*y1 - 0.3*y2 + rng.NormFloat64()
		series[i] = v
		y2, y1 = y1, v
	}
	return series
}

func TestFitRejectsInvalidOrder(t *testing.T) {
	f := NewARIMA(Config{})
	_, err := f.Fit(ar2Series(50, 1), Order{})
	require.ErrorIs(t, err, ErrEstimation)

	_, err = f.Fit(ar2Series(50, 1), Order{P: -1, Q: 1})
	require.ErrorIs(t, err, ErrEstimation)
}

func TestFitRejectsShortHistory(t *testing.T) {
	f := NewARIMA(Config{})

	// ARIMA(2,0,1) needs at least four observations outright.
	_, err := f.Fit([]float64{1, 2, 3}, Order{P: 2, Q: 1})
	require.ErrorIs(t, err, ErrEstimation)

	// Four clears the raw floor but leaves too few regression rows once
	// the stage-one warm-up is cut off.
	_, err = f.Fit([]float64{1, 2, 4, 7}, Order{P: 2, Q: 1})
	require.ErrorIs(t, err, ErrEstimation)
}

func TestFitRecoversARCoefficients(t *testing.T) {
	series := ar2Series(2000, 5)

	f := NewARIMA(Config{})
	mdl, err := f.Fit(series, Order{P: 2})
	require.NoError(t, err)

	am, ok := mdl.(*arimaModel)
	require.True(t, ok)
	assert.InDelta(t, 0.5, am.ar[0], 0.1)
	assert.InDelta(t, -0.3, am.ar[1], 0.1)
	assert.InDelta(t, 0, am.c, 0.1)
	assert.Empty(t, am.ma)
}

func TestFitRecoversMACoefficient(t *testing.T) {
	// y_t = ε_t + 0.4·ε_{t-1}
	rng := rand.New(rand.NewSource(9))
	n := 1000
	series := make([]float64, n)
	prev := 0.0
	for i := 0; i < n; i++ {
		e := rng.NormFloat64()
		series[i] = e + 0.4*prev
		prev = e
	}

	f := NewARIMA(Config{})
	mdl, err := f.Fit(series, Order{Q: 1})
	require.NoError(t, err)

	am, ok := mdl.(*arimaModel)
	require.True(t, ok)
	assert.InDelta(t, 0.4, am.ma[0], 0.15)

	next, err := mdl.ForecastOne(series)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(next))
}

func TestForecastOneRampWithDifferencing(t *testing.T) {
	// A pure I(1) fit on a straight ramp learns a constant step of one, so
	// the next level is exactly the last plus one.
	ramp := make([]float64, 50)
	for i := range ramp {
		ramp[i] = float64(i + 1)
	}

	f := NewARIMA(Config{})
	mdl, err := f.Fit(ramp, Order{D: 1})
	require.NoError(t, err)

	next, err := mdl.ForecastOne(ramp)
	require.NoError(t, err)
	assert.InDelta(t, 51, next, 1e-9)
}

func TestForecastDeterminism(t *testing.T) {
	series := ar2Series(400, 13)
	f := NewARIMA(Config{})

	first, err := f.Fit(series, DefaultOrder())
	require.NoError(t, err)
	second, err := f.Fit(series, DefaultOrder())
	require.NoError(t, err)

	a, err := first.ForecastOne(series)
	require.NoError(t, err)
	b, err := second.ForecastOne(series)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestForecastOneEmptyHistory(t *testing.T) {
	f := NewARIMA(Config{})
	mdl, err := f.Fit(ar2Series(100, 2), DefaultOrder())
	require.NoError(t, err)

	_, err = mdl.ForecastOne(nil)
	require.ErrorIs(t, err, ErrForecast)
}

func TestForecastOneExtendsPastFit(t *testing.T) {
	// The engine forecasts from histories longer than the fitted one; the
	// frozen model must keep producing finite values on them.
	series := ar2Series(300, 17)
	f := NewARIMA(Config{})
	mdl, err := f.Fit(series[:200], DefaultOrder())
	require.NoError(t, err)

	next, err := mdl.ForecastOne(series)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(next))
	assert.False(t, math.IsInf(next, 0))
}

func TestClipRescalesProportionally(t *testing.T) {
	m := &arimaModel{c: 1, ar: []float64{4, 2}, ma: []float64{-1}}
	m.clip(2.0)

	assert.Equal(t, []float64{2, 1}, m.ar)
	assert.Equal(t, []float64{-0.5}, m.ma)
	assert.Equal(t, 0.5, m.c)
}

func TestClipLeavesSmallCoefficientsAlone(t *testing.T) {
	m := &arimaModel{c: 3, ar: []float64{0.5}, ma: []float64{-0.2}}
	m.clip(2.0)

	assert.Equal(t, []float64{0.5}, m.ar)
	assert.Equal(t, []float64{-0.2}, m.ma)
	assert.Equal(t, 3.0, m.c)
}
