package model

import "time"

// PriceBar is one observation of the instrument under evaluation. Only the
// close participates in modeling; Date is carried through for reporting.
type PriceBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// DailyBarsResponse matches the JSON shape returned by the history API and
// written by cmd/fetch-data.
//
// Example:
//
//	{
//	  "status_code": 200,
//	  "symbol": "SPY",
//	  "data": [ {"date": "...", "close": 441.2}, ... ]
//	}
type DailyBarsResponse struct {
	StatusCode int        `json:"status_code"`
	Symbol     string     `json:"symbol"`
	Data       []PriceBar `json:"data"`
}

// Closes extracts the close column in bar order.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
