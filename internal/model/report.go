package model

// PerformanceReport is the immutable summary of one evaluated run.
//
// Every ratio defaults to zero when its denominator degenerates (no valid
// steps, zero variance, no losses), so consumers can rely on all fields
// being finite and JSON-safe.
type PerformanceReport struct {
	Steps      int     `json:"steps"`
	ValidSteps int     `json:"valid_steps"`
	Accuracy   float64 `json:"accuracy"`

	Confusion ConfusionMatrix `json:"confusion"`

	// TotalReturn is the final value of the cumulative curve.
	TotalReturn float64 `json:"total_return"`
	// CumReturns is the running sum of valid per-step strategy returns,
	// in step order. Omitted from API summaries unless requested.
	CumReturns []float64 `json:"cum_returns,omitempty"`

	Sharpe       float64 `json:"sharpe"`
	Sortino      float64 `json:"sortino"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	MaxDrawdown  float64 `json:"max_drawdown"`
}
