package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"arima-backtest/internal/api/models"
	"arima-backtest/internal/config"
	"arima-backtest/internal/evaluation"
	"arima-backtest/internal/series"
	"arima-backtest/internal/walkforward"
)

// ModelHandler describes the forecasting models the service can run
type ModelHandler struct{}

// NewModelHandler creates a new model handler
func NewModelHandler() *ModelHandler {
	return &ModelHandler{}
}

// ListModels handles GET /api/v1/models
func (h *ModelHandler) ListModels(c *gin.Context) {
	defaults := config.Default()

	arima := models.ModelInfo{
		Name:        "arima",
		Description: "ARIMA fitted by conditional least squares, forecasting one step ahead over an expanding window",
		Parameters: []models.ParameterInfo{
			{Name: "p", Type: "int", Description: "autoregressive lags", Default: defaults.Model.P},
			{Name: "d", Type: "int", Description: "differencing passes applied inside the model", Default: defaults.Model.D},
			{Name: "q", Type: "int", Description: "moving-average lags", Default: defaults.Model.Q},
			{Name: "refit_every", Type: "int", Description: "steps between re-estimations", Default: walkforward.DefaultRefitEvery},
			{Name: "train_fraction", Type: "float", Description: "share of returns used for the initial fit", Default: series.DefaultTrainFraction},
			{Name: "significance", Type: "float", Description: "p-value threshold for the stationarity pre-test", Default: series.DefaultSignificance},
			{Name: "unit_cost", Type: "float", Description: "cost charged per unit of position per step", Default: evaluation.DefaultUnitCost},
			{Name: "periods_per_year", Type: "int", Description: "annualization factor for Sharpe and Sortino", Default: evaluation.DefaultPeriodsPerYear},
		},
	}

	c.JSON(http.StatusOK, models.ModelsResponse{Models: []models.ModelInfo{arima}})
}
