package models

import "time"

// EvaluateResponse represents the result of one evaluation run
type EvaluateResponse struct {
	ID        string            `json:"id,omitempty"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	Summary   EvaluationSummary `json:"summary"`
	Records   []PredictionRow   `json:"records,omitempty"`
}

// EvaluationSummary contains the series diagnostics and aggregated results
type EvaluationSummary struct {
	Symbol        string      `json:"symbol,omitempty"`
	Bars          int         `json:"bars"`
	DroppedPrices int         `json:"dropped_prices"`
	Differenced   bool        `json:"differenced"`
	ADFStat       float64     `json:"adf_stat"`
	ADFPValue     float64     `json:"adf_p_value"`
	ADFError      string      `json:"adf_error,omitempty"`
	Model         string      `json:"model"` // e.g. "ARIMA(2,0,1)"
	TrainSize     int         `json:"train_size"`
	TestSize      int         `json:"test_size"`
	RefitSteps    []int       `json:"refit_steps,omitempty"`
	Performance   Performance `json:"performance"`
}

// Performance contains the headline strategy metrics
type Performance struct {
	Steps        int       `json:"steps"`
	ValidSteps   int       `json:"valid_steps"`
	Accuracy     float64   `json:"accuracy"`
	Confusion    [3][3]int `json:"confusion"` // rows actual, cols predicted, DOWN/FLAT/UP order
	TotalReturn  float64   `json:"total_return"`
	Sharpe       float64   `json:"sharpe"`
	Sortino      float64   `json:"sortino"`
	WinRate      float64   `json:"win_rate"`
	ProfitFactor float64   `json:"profit_factor"`
	MaxDrawdown  float64   `json:"max_drawdown"`
}

// PredictionRow represents one walk-forward step in the response
type PredictionRow struct {
	Step      int     `json:"step"`
	Predicted string  `json:"predicted"` // "UP", "DOWN", "FLAT"
	Actual    string  `json:"actual"`
	Realized  float64 `json:"realized"`
	Return    float64 `json:"strategy_return"`
	CumReturn float64 `json:"cum_return"`
	Valid     bool    `json:"valid"`
}

// SweepResponse represents the ranked outcome of an order sweep
type SweepResponse struct {
	Status  string     `json:"status"`
	Results []SweepRow `json:"results"`
}

// SweepRow contains results for one candidate order
type SweepRow struct {
	Rank    int          `json:"rank"`
	Model   string       `json:"model"`
	Error   string       `json:"error,omitempty"`
	Summary *Performance `json:"summary,omitempty"`
}

// ModelsResponse lists the forecasting models the service can run
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelInfo represents information about a model family
type ModelInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a model parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// DatasetsResponse lists stored datasets
type DatasetsResponse struct {
	Datasets []DatasetInfo `json:"datasets"`
}

// DatasetInfo represents one stored dataset file
type DatasetInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Bars   int    `json:"bars"`
	First  string `json:"first,omitempty"`
	Last   string `json:"last,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
