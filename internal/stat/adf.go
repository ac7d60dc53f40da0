package stat

import (
	"errors"
	"math"
)

// ADFResult is the outcome of an augmented Dickey-Fuller unit-root test run
// with a constant term.
type ADFResult struct {
	Stat   float64 // t-statistic on the lagged level coefficient
	PValue float64 // interpolated from the asymptotic tau distribution
	Lags   int     // augmentation lags actually used
	Obs    int     // observations entering the regression
}

// dfTau holds asymptotic quantiles of the Dickey-Fuller tau distribution for
// the constant-only regression (Fuller 1996, table 10.A.2). Probabilities
// outside the table clamp to its ends; precision is concentrated around the
// usual rejection thresholds, which is where decisions get made.
var dfTau = []struct{ p, stat float64 }{
	{0.010, -3.43},
	{0.025, -3.12},
	{0.050, -2.86},
	{0.100, -2.57},
	{0.900, -0.44},
	{0.950, -0.07},
	{0.975, 0.23},
	{0.990, 0.60},
}

// MaxLagSchwert is the usual rule of thumb for the augmentation order,
// floor(12·(n/100)^(1/4)).
func MaxLagSchwert(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Floor(12 * math.Pow(float64(n)/100, 0.25)))
}

// ADF runs the augmented Dickey-Fuller regression
//
//	Δy_t = α + β·y_{t-1} + Σ γ_i·Δy_{t-i} + ε_t
//
// and returns the t-statistic on β together with an interpolated p-value.
// Passing lags < 0 selects the Schwert rule. The lag order is capped so the
// regression keeps a handful of residual degrees of freedom.
func ADF(series []float64, lags int) (ADFResult, error) {
	n := len(series)
	if n < 12 {
		return ADFResult{}, errors.New("adf: series too short")
	}
	if lags < 0 {
		lags = MaxLagSchwert(n)
	}
	// Keep rows-params >= 8: rows = n-1-lags, params = 2+lags.
	if most := (n - 11) / 2; lags > most {
		lags = most
	}
	if lags < 0 {
		lags = 0
	}

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = series[i] - series[i-1]
	}

	rows := len(diff) - lags
	params := 2 + lags
	x := make([][]float64, rows)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := lags + r
		row := make([]float64, params)
		row[0] = 1
		row[1] = series[t] // level one step before diff[t]
		for j := 1; j <= lags; j++ {
			row[1+j] = diff[t-j]
		}
		x[r] = row
		y[r] = diff[t]
	}

	xtx, xty := normalEquations(x, y)
	coef, err := SolveLinear(xtx, xty)
	if err != nil {
		return ADFResult{}, err
	}

	// Residual variance, then the standard error of the level coefficient
	// via the corresponding diagonal entry of (XᵀX)⁻¹.
	ssr := 0.0
	for r := 0; r < rows; r++ {
		fit := 0.0
		for j := 0; j < params; j++ {
			fit += x[r][j] * coef[j]
		}
		e := y[r] - fit
		ssr += e * e
	}
	sigma2 := ssr / float64(rows-params)

	unit := make([]float64, params)
	unit[1] = 1
	inv, err := SolveLinear(xtx, unit)
	if err != nil {
		return ADFResult{}, err
	}
	se := math.Sqrt(sigma2 * inv[1])
	if se == 0 || math.IsNaN(se) {
		return ADFResult{}, ErrSingular
	}

	stat := coef[1] / se
	return ADFResult{
		Stat:   stat,
		PValue: dfPValue(stat),
		Lags:   lags,
		Obs:    rows,
	}, nil
}

func dfPValue(stat float64) float64 {
	if stat <= dfTau[0].stat {
		return dfTau[0].p
	}
	last := dfTau[len(dfTau)-1]
	if stat >= last.stat {
		return last.p
	}
	for i := 1; i < len(dfTau); i++ {
		if stat <= dfTau[i].stat {
			lo, hi := dfTau[i-1], dfTau[i]
			frac := (stat - lo.stat) / (hi.stat - lo.stat)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return last.p
}
