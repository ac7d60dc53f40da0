package models

// EvaluateRequest represents the request body for running an evaluation
type EvaluateRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Params     EvaluationParams `json:"params,omitempty"`
	Options    EvaluateOptions  `json:"options,omitempty"`
}

// DataSourceConfig defines where the price series comes from
type DataSourceConfig struct {
	Type      string    `json:"type" binding:"required"` // "inline", "csv", "json", "remote"
	Prices    []float64 `json:"prices,omitempty"`        // inline close prices, oldest first
	Path      string    `json:"path,omitempty"`          // file name inside the server's data directory
	Column    string    `json:"column,omitempty"`        // csv price column, default "close"
	Symbol    string    `json:"symbol,omitempty"`        // remote only
	StartDate string    `json:"start_date,omitempty"`    // YYYY-MM-DD
	EndDate   string    `json:"end_date,omitempty"`      // YYYY-MM-DD
	APIKey    string    `json:"api_key,omitempty"`       // remote only, falls back to server config
}

// OrderSpec selects the ARIMA order
type OrderSpec struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// EvaluationParams overrides the server's configured defaults. Zero fields
// keep the defaults
type EvaluationParams struct {
	TrainFraction  float64    `json:"train_fraction,omitempty"`
	Significance   float64    `json:"significance,omitempty"`
	RefitEvery     int        `json:"refit_every,omitempty"`
	UnitCost       float64    `json:"unit_cost,omitempty"`
	PeriodsPerYear int        `json:"periods_per_year,omitempty"`
	Model          *OrderSpec `json:"model,omitempty"`
}

// EvaluateOptions contains optional response knobs
type EvaluateOptions struct {
	IncludeRecords bool `json:"include_records,omitempty"` // default: false
	LimitBars      int  `json:"limit_bars,omitempty"`      // keep only the most recent n bars, 0 = all
}

// SweepRequest represents a request to compare several ARIMA orders on one series
type SweepRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Params     EvaluationParams `json:"params,omitempty"`
	Candidates []OrderSpec      `json:"candidates" binding:"required"`
}
