// Package forecast defines the one-step forecaster contract the walk-forward
// engine drives, plus the ARIMA implementation behind it.
package forecast

import (
	"errors"
	"fmt"
)

// Failures are sentinel-wrapped so the engine can abort a run with step
// context while callers still classify the cause with errors.Is.
var (
	// ErrEstimation reports that a model could not be identified from the
	// supplied history (too short, or a singular regression).
	ErrEstimation = errors.New("estimation failed")

	// ErrForecast reports that a fitted model could not produce a
	// prediction from the supplied history.
	ErrForecast = errors.New("forecast failed")
)

// Order selects the ARIMA(p,d,q) family member to fit.
type Order struct {
	P int `json:"p" yaml:"p"`
	D int `json:"d" yaml:"d"`
	Q int `json:"q" yaml:"q"`
}

// DefaultOrder is the low-order model the system runs out of the box.
func DefaultOrder() Order { return Order{P: 2, D: 0, Q: 1} }

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return errors.New("order terms must be non-negative")
	}
	if o.P+o.D+o.Q == 0 {
		return errors.New("at least one order term must be positive")
	}
	return nil
}

// Model is a fitted forecaster. ForecastOne conditions the frozen
// coefficients on history and predicts the next value; it never
// re-estimates. The history may extend past the series the model was fitted
// on, which is exactly what the engine relies on between refits.
type Model interface {
	ForecastOne(history []float64) (float64, error)
}

// Fitter estimates a Model from history. Implementations must be
// deterministic: the same history and order always produce the same
// coefficients.
type Fitter interface {
	Fit(history []float64, order Order) (Model, error)
}
