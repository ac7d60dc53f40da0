package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"arima-backtest/internal/analysis"
	"arima-backtest/internal/api/models"
	"arima-backtest/internal/config"
	"arima-backtest/internal/data"
	"arima-backtest/internal/evaluation"
	"arima-backtest/internal/forecast"
	"arima-backtest/internal/metrics"
	"arima-backtest/internal/model"
	"arima-backtest/internal/series"
	"arima-backtest/internal/store"
	"arima-backtest/internal/walkforward"
)

// runTTL bounds how long completed runs stay retrievable by ID.
const runTTL = 24 * time.Hour

// EvaluationHandler handles evaluation-related requests
type EvaluationHandler struct {
	cfg      config.Config
	fitter   forecast.Fitter
	store    store.Store
	recorder *metrics.Recorder
	dataDir  string
}

// NewEvaluationHandler creates a new evaluation handler. The recorder may
// be nil when metrics are not wanted.
func NewEvaluationHandler(cfg config.Config, fitter forecast.Fitter, st store.Store, recorder *metrics.Recorder, dataDir string) *EvaluationHandler {
	if dataDir == "" {
		dataDir = data.DefaultDataDir()
	}
	return &EvaluationHandler{cfg: cfg, fitter: fitter, store: st, recorder: recorder, dataDir: dataDir}
}

// RunEvaluation handles POST /api/v1/evaluations
func (h *EvaluationHandler) RunEvaluation(c *gin.Context) {
	started := time.Now()

	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	cfg, err := h.mergeParams(req.Params)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	prices, symbol, err := h.fetchPrices(c.Request.Context(), req.DataSource, req.Options.LimitBars)
	if err != nil {
		h.observe("error", started)
		respondFetchError(c, err)
		return
	}

	prep, split, err := prepareSplit(prices, cfg)
	if err != nil {
		h.observe("error", started)
		respondError(c, http.StatusBadRequest, "INSUFFICIENT_DATA", err.Error())
		return
	}

	engine := walkforward.New(h.fitter, walkforward.Config{
		Order:      cfg.Model.Order(),
		RefitEvery: cfg.Engine.RefitEvery,
	})
	result, err := engine.Run(c.Request.Context(), split.Train, split.Test)
	if err != nil {
		h.observe("error", started)
		respondError(c, http.StatusUnprocessableEntity, "ESTIMATION_FAILED", err.Error())
		return
	}

	evalCfg := evaluation.Config{UnitCost: cfg.Costs.UnitCost, PeriodsPerYear: cfg.Costs.PeriodsPerYear}
	report := evaluation.Evaluate(result.Records, evalCfg)

	resp := h.buildResponse(symbol, cfg, prep, split, result, report, evalCfg, req.Options.IncludeRecords)
	log.Info().
		Str("id", resp.ID).
		Str("symbol", symbol).
		Bool("differenced", prep.Differenced).
		Int("steps", report.Steps).
		Int("refits", len(result.RefitSteps)).
		Float64("sharpe", report.Sharpe).
		Msg("evaluation completed")

	if err := h.store.Set(c.Request.Context(), resp.ID, resp, runTTL); err != nil {
		log.Warn().Err(err).Str("id", resp.ID).Msg("storing run failed")
	}

	h.observe("success", started)
	if h.recorder != nil {
		h.recorder.SetLastRun(report.Sharpe, report.Accuracy)
	}
	c.JSON(http.StatusOK, resp)
}

// GetEvaluation handles GET /api/v1/evaluations/:id
func (h *EvaluationHandler) GetEvaluation(c *gin.Context) {
	id := c.Param("id")

	var resp models.EvaluateResponse
	err := h.store.Get(c.Request.Context(), id, &resp)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no run with id %s", id))
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RunSweep handles POST /api/v1/evaluations/sweep
func (h *EvaluationHandler) RunSweep(c *gin.Context) {
	started := time.Now()

	var req models.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if len(req.Candidates) == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "candidates must not be empty")
		return
	}

	cfg, err := h.mergeParams(req.Params)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	prices, _, err := h.fetchPrices(c.Request.Context(), req.DataSource, 0)
	if err != nil {
		h.observe("error", started)
		respondFetchError(c, err)
		return
	}

	_, split, err := prepareSplit(prices, cfg)
	if err != nil {
		h.observe("error", started)
		respondError(c, http.StatusBadRequest, "INSUFFICIENT_DATA", err.Error())
		return
	}

	orders := make([]forecast.Order, len(req.Candidates))
	for i, cand := range req.Candidates {
		orders[i] = forecast.Order{P: cand.P, D: cand.D, Q: cand.Q}
	}

	entries, err := analysis.Sweep(c.Request.Context(), h.fitter, split, orders, analysis.SweepConfig{
		RefitEvery: cfg.Engine.RefitEvery,
		Eval:       evaluation.Config{UnitCost: cfg.Costs.UnitCost, PeriodsPerYear: cfg.Costs.PeriodsPerYear},
	})
	if err != nil {
		h.observe("error", started)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	rows := make([]models.SweepRow, len(entries))
	for i, entry := range entries {
		row := models.SweepRow{Rank: i + 1, Model: entry.Order.String()}
		if entry.Err != nil {
			row.Error = entry.Err.Error()
		} else {
			perf := buildPerformance(entry.Report)
			row.Summary = &perf
		}
		rows[i] = row
	}

	h.observe("success", started)
	c.JSON(http.StatusOK, models.SweepResponse{Status: "completed", Results: rows})
}

// Helper methods

func (h *EvaluationHandler) mergeParams(params models.EvaluationParams) (config.Config, error) {
	override := config.Overrides{
		TrainFraction:  params.TrainFraction,
		Significance:   params.Significance,
		RefitEvery:     params.RefitEvery,
		UnitCost:       params.UnitCost,
		PeriodsPerYear: params.PeriodsPerYear,
	}
	if params.Model != nil {
		override.Model = &config.ModelConfig{P: params.Model.P, D: params.Model.D, Q: params.Model.Q}
	}

	cfg := config.Merge(h.cfg, override)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (h *EvaluationHandler) fetchPrices(ctx context.Context, ds models.DataSourceConfig, limitBars int) ([]float64, string, error) {
	var (
		prices []float64
		symbol string
	)

	switch ds.Type {
	case "inline":
		if len(ds.Prices) == 0 {
			return nil, "", fmt.Errorf("inline data source needs a non-empty prices array")
		}
		prices = ds.Prices
		symbol = ds.Symbol

	case "csv":
		bars, err := data.LoadCSV(h.resolvePath(ds.Path), ds.Column)
		if err != nil {
			return nil, "", err
		}
		prices = model.Closes(bars)
		symbol = ds.Symbol

	case "json":
		dataset, err := data.LoadDataset(h.resolvePath(ds.Path))
		if err != nil {
			return nil, "", err
		}
		prices = model.Closes(dataset.Data)
		symbol = dataset.Symbol

	case "remote":
		apiKey := ds.APIKey
		if apiKey == "" {
			apiKey = h.cfg.Data.APIKey
		}
		client := data.NewHistoryClient(apiKey, h.cfg.Data.BaseURL)
		resp, err := client.QueryDaily(ctx, data.DailyQuery{Symbol: ds.Symbol, Start: ds.StartDate, End: ds.EndDate})
		if err != nil {
			return nil, "", err
		}
		prices = model.Closes(resp.Data)
		symbol = resp.Symbol

	default:
		return nil, "", fmt.Errorf("unsupported data source type: %s", ds.Type)
	}

	if limitBars > 0 && limitBars < len(prices) {
		prices = prices[len(prices)-limitBars:]
	}
	return prices, symbol, nil
}

// resolvePath confines file reads to the configured data directory.
func (h *EvaluationHandler) resolvePath(path string) string {
	return filepath.Join(h.dataDir, filepath.Base(path))
}

func prepareSplit(prices []float64, cfg config.Config) (*series.Prepared, series.Split, error) {
	prep, err := series.Prepare(prices, series.Options{
		MinObservations: cfg.Series.MinObservations,
		Significance:    cfg.Series.Significance,
	})
	if err != nil {
		return nil, series.Split{}, err
	}

	split := series.SplitReturns(prep.Returns, cfg.Series.TrainFraction)
	if len(split.Train) == 0 || len(split.Test) == 0 {
		return nil, series.Split{}, fmt.Errorf("%w: %d returns leave an empty train or test segment",
			series.ErrInsufficientData, len(prep.Returns))
	}
	return prep, split, nil
}

func (h *EvaluationHandler) buildResponse(symbol string, cfg config.Config, prep *series.Prepared,
	split series.Split, result *walkforward.Result, report *model.PerformanceReport,
	evalCfg evaluation.Config, includeRecords bool) models.EvaluateResponse {

	summary := models.EvaluationSummary{
		Symbol:        symbol,
		Bars:          len(prep.Returns) + prep.Dropped + 1,
		DroppedPrices: prep.Dropped,
		Differenced:   prep.Differenced,
		ADFStat:       prep.ADF.Stat,
		ADFPValue:     prep.ADF.PValue,
		Model:         cfg.Model.Order().String(),
		TrainSize:     len(split.Train),
		TestSize:      len(split.Test),
		RefitSteps:    result.RefitSteps,
		Performance:   buildPerformance(report),
	}
	if prep.ADFErr != nil {
		summary.ADFError = prep.ADFErr.Error()
	}

	resp := models.EvaluateResponse{
		ID:        uuid.NewString(),
		Status:    "completed",
		CreatedAt: time.Now().UTC(),
		Summary:   summary,
	}
	if includeRecords {
		resp.Records = buildRecords(result.Records, evalCfg)
	}
	return resp
}

func buildPerformance(report *model.PerformanceReport) models.Performance {
	return models.Performance{
		Steps:        report.Steps,
		ValidSteps:   report.ValidSteps,
		Accuracy:     report.Accuracy,
		Confusion:    [3][3]int(report.Confusion),
		TotalReturn:  report.TotalReturn,
		Sharpe:       report.Sharpe,
		Sortino:      report.Sortino,
		WinRate:      report.WinRate,
		ProfitFactor: report.ProfitFactor,
		MaxDrawdown:  report.MaxDrawdown,
	}
}

func buildRecords(records []model.PredictionRecord, cfg evaluation.Config) []models.PredictionRow {
	ledger := evaluation.BuildLedger(records, cfg)
	rows := make([]models.PredictionRow, len(ledger))
	for i, row := range ledger {
		rows[i] = models.PredictionRow{
			Step:      row.Step,
			Predicted: row.Predicted.String(),
			Actual:    row.Actual.String(),
			Realized:  row.Realized,
			Return:    row.Return,
			CumReturn: row.Cum,
			Valid:     row.Valid,
		}
	}
	return rows
}

func (h *EvaluationHandler) observe(status string, started time.Time) {
	if h.recorder != nil {
		h.recorder.ObserveEvaluation(status, time.Since(started))
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: message},
	})
}

// respondFetchError maps data-loading failures onto the provider's own
// status where one exists.
func respondFetchError(c *gin.Context, err error) {
	var apiErr *data.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadRequest
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			status = http.StatusUnauthorized
		case http.StatusTooManyRequests:
			status = http.StatusTooManyRequests
		}
		detail := models.ErrorDetail{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: map[string]interface{}{"status_code": apiErr.StatusCode},
		}
		if apiErr.RetryAfter > 0 {
			detail.Details["retry_after"] = apiErr.RetryAfter
		}
		c.JSON(status, models.ErrorResponse{Error: detail})
		return
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		respondError(c, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "history provider is failing, retry later")
		return
	}
	respondError(c, http.StatusBadRequest, "DATA_FETCH_ERROR", err.Error())
}
