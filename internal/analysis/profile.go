// Package analysis provides series diagnostics and model-order sweeps on
// top of the core pipeline. Nothing here feeds back into estimation.
package analysis

import (
	"math"
	"sort"

	"arima-backtest/internal/stat"
)

// SeriesProfile is a return-series summary used by the describe command and
// the datasets API. It intentionally does not depend on any fitted model;
// OracleReturn is the cost-adjusted return of a perfect direction caller,
// which bounds what any forecaster could have earned on the same steps.
type SeriesProfile struct {
	Count int `json:"count"`

	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	ADFStat    float64 `json:"adf_stat"`
	ADFPValue  float64 `json:"adf_p_value"`
	Stationary bool    `json:"stationary"`

	OracleReturn float64 `json:"oracle_return"`
}

// Profile summarizes a return series. significance gates the Stationary
// verdict; unitCost prices the oracle bound.
func Profile(returns []float64, significance, unitCost float64) SeriesProfile {
	p := SeriesProfile{}
	if len(returns) == 0 {
		return p
	}
	p.Count = len(returns)

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(returns))
	for _, v := range returns {
		vals = append(vals, v)
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	sort.Float64s(vals)
	p.Min = minv
	p.Max = maxv
	p.Mean = sum / float64(len(vals))
	p.StdDev = stat.StdDev(returns)
	p.P05 = stat.PercentileSorted(vals, 0.05)
	p.P95 = stat.PercentileSorted(vals, 0.95)
	p.SpreadP95P05 = p.P95 - p.P05

	if res, err := stat.ADF(returns, -1); err == nil {
		p.ADFStat = res.Stat
		p.ADFPValue = res.PValue
		p.Stationary = res.PValue <= significance
	}

	p.OracleReturn = oracleReturn(returns, unitCost)
	return p
}

// oracleReturn prices perfect foresight: always hold the realized
// direction, paying the unit cost on every non-flat step. It is an upper
// bound for ranking, not an achievable number.
func oracleReturn(returns []float64, unitCost float64) float64 {
	total := 0.0
	for _, r := range returns {
		if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		total += math.Abs(r) - unitCost
	}
	return total
}
