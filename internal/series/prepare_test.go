package series

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// iidPrices builds a geometric walk whose log returns are iid noise, so the
// return series is stationary and Prepare leaves it undifferenced.
func iidPrices(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	prices := make([]float64, n)
	prices[0] = 100
	for i := 1; i < n; i++ {
		prices[i] = prices[i-1] * math.Exp(0.01*rng.NormFloat64())
	}
	return prices
}

func TestLogReturns(t *testing.T) {
	assert.Nil(t, LogReturns(nil))
	assert.Nil(t, LogReturns([]float64{100}))

	rets := LogReturns([]float64{100, 110, 99})
	require.Len(t, rets, 2)
	assert.InDelta(t, math.Log(1.1), rets[0], 1e-12)
	assert.InDelta(t, math.Log(0.9), rets[1], 1e-12)
}

func TestDifference(t *testing.T) {
	assert.Nil(t, Difference(nil))
	assert.Nil(t, Difference([]float64{1}))
	assert.Equal(t, []float64{1, 2}, Difference([]float64{0, 1, 3}))
}

func TestPrepareDropsUnusablePrices(t *testing.T) {
	clean := iidPrices(120, 1)
	raw := append([]float64{math.NaN(), -5, 0, math.Inf(1)}, clean...)

	prep, err := Prepare(raw, Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, prep.Dropped)
	assert.False(t, prep.Differenced)
	assert.Len(t, prep.Returns, len(clean)-1)
}

func TestPrepareInsufficientData(t *testing.T) {
	_, err := Prepare(iidPrices(29, 2), Options{})
	require.ErrorIs(t, err, ErrInsufficientData)

	// The threshold counts usable prices, not raw ones.
	raw := append(make([]float64, 10), iidPrices(25, 2)...)
	_, err = Prepare(raw, Options{})
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestPrepareStationaryReturnsStayUndifferenced(t *testing.T) {
	prep, err := Prepare(iidPrices(300, 4), Options{})
	require.NoError(t, err)
	require.NoError(t, prep.ADFErr)
	assert.False(t, prep.Differenced)
	assert.LessOrEqual(t, prep.ADF.PValue, 0.05)
	assert.Len(t, prep.Returns, 299)
}

func TestPrepareDifferencesNonStationaryReturns(t *testing.T) {
	// Returns that follow a drifting random walk keep their unit root, so
	// the preprocessor differences once and the series shrinks by one.
	rng := rand.New(rand.NewSource(3))
	n := 300
	prices := make([]float64, n)
	prices[0] = 100
	ret := 0.0
	for i := 1; i < n; i++ {
		ret += 0.001 + 0.002*rng.NormFloat64()
		prices[i] = prices[i-1] * math.Exp(ret)
	}

	prep, err := Prepare(prices, Options{})
	require.NoError(t, err)
	assert.True(t, prep.Differenced)
	assert.Greater(t, prep.ADF.PValue, 0.05)
	assert.Len(t, prep.Returns, n-2)
}

func TestPrepareSurvivesInconclusiveADF(t *testing.T) {
	// 12 prices clear a relaxed observation floor but leave only 11
	// returns, too few for the unit-root regression.
	prices := make([]float64, 12)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	prep, err := Prepare(prices, Options{MinObservations: 12})
	require.NoError(t, err)
	require.Error(t, prep.ADFErr)
	assert.False(t, prep.Differenced)
	assert.Len(t, prep.Returns, 11)
}

func TestPrepareDoesNotMutateInput(t *testing.T) {
	prices := iidPrices(60, 5)
	orig := append([]float64(nil), prices...)

	_, err := Prepare(prices, Options{})
	require.NoError(t, err)
	assert.Equal(t, orig, prices)
}
