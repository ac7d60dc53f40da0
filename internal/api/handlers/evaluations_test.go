package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arima-backtest/internal/api/models"
	"arima-backtest/internal/config"
	"arima-backtest/internal/forecast"
	"arima-backtest/internal/metrics"
	"arima-backtest/internal/store"
)

type testServer struct {
	router  *gin.Engine
	handler *EvaluationHandler
	dataDir string
}

func newTestServer(t *testing.T, recorder *metrics.Recorder) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory(0)
	t.Cleanup(func() { _ = st.Close() })

	dataDir := t.TempDir()
	h := NewEvaluationHandler(*config.Default(), forecast.NewARIMA(forecast.Config{}), st, recorder, dataDir)

	r := gin.New()
	r.POST("/api/v1/evaluations", h.RunEvaluation)
	r.GET("/api/v1/evaluations/:id", h.GetEvaluation)
	r.POST("/api/v1/evaluations/sweep", h.RunSweep)
	return &testServer{router: r, handler: h, dataDir: dataDir}
}

func (s *testServer) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// syntheticPrices builds a geometric series with mildly autocorrelated
// returns, long enough for the full pipeline to run.
func syntheticPrices(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	prices := make([]float64, n)
	prices[0] = 100
	var r1, r2 float64
	for i := 1; i < n; i++ {
		ret := 0.35*r1 - 0.15*r2 + 0.01*rng.NormFloat64()
		prices[i] = prices[i-1] * math.Exp(ret)
		r2, r1 = r1, ret
	}
	return prices
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error
}

func TestRunEvaluationInline(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.post(t, "/api/v1/evaluations", models.EvaluateRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Prices: syntheticPrices(300, 9), Symbol: "TEST"},
		Options:    models.EvaluateOptions{IncludeRecords: true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	assert.False(t, resp.CreatedAt.IsZero())

	sum := resp.Summary
	assert.Equal(t, "TEST", sum.Symbol)
	assert.Equal(t, 300, sum.Bars)
	assert.Zero(t, sum.DroppedPrices)
	assert.False(t, sum.Differenced)
	assert.Equal(t, "ARIMA(2,0,1)", sum.Model)
	assert.Equal(t, 209, sum.TrainSize)
	assert.Equal(t, 90, sum.TestSize)
	assert.Equal(t, []int{21, 42, 63, 84}, sum.RefitSteps)
	assert.Equal(t, 90, sum.Performance.Steps)
	assert.Equal(t, 90, sum.Performance.ValidSteps)

	require.Len(t, resp.Records, 90)
	assert.Equal(t, 1, resp.Records[0].Step)
	assert.Contains(t, []string{"UP", "DOWN", "FLAT"}, resp.Records[0].Predicted)
}

func TestRunEvaluationOmitsRecordsByDefault(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.post(t, "/api/v1/evaluations", models.EvaluateRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Prices: syntheticPrices(300, 9)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Records)
}

func TestRunEvaluationLimitBars(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.post(t, "/api/v1/evaluations", models.EvaluateRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Prices: syntheticPrices(300, 9)},
		Options:    models.EvaluateOptions{LimitBars: 250},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 250, resp.Summary.Bars)
}

func TestRunEvaluationFromCSV(t *testing.T) {
	srv := newTestServer(t, nil)

	var sb strings.Builder
	sb.WriteString("date,close\n")
	for i, p := range syntheticPrices(120, 3) {
		fmt.Fprintf(&sb, "2024-01-%02d,%f\n", i%28+1, p)
	}
	require.NoError(t, os.WriteFile(filepath.Join(srv.dataDir, "prices.csv"), []byte(sb.String()), 0o644))

	w := srv.post(t, "/api/v1/evaluations", models.EvaluateRequest{
		DataSource: models.DataSourceConfig{Type: "csv", Path: "prices.csv", Symbol: "CSV"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 120, resp.Summary.Bars)
	assert.Equal(t, "CSV", resp.Summary.Symbol)
}

func TestRunEvaluationValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing data source",
			body:       map[string]any{"options": map[string]any{}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name: "unsupported source type",
			body: models.EvaluateRequest{
				DataSource: models.DataSourceConfig{Type: "carrier-pigeon"},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "DATA_FETCH_ERROR",
		},
		{
			name: "empty inline prices",
			body: models.EvaluateRequest{
				DataSource: models.DataSourceConfig{Type: "inline"},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "DATA_FETCH_ERROR",
		},
		{
			name: "too few prices",
			body: models.EvaluateRequest{
				DataSource: models.DataSourceConfig{Type: "inline", Prices: syntheticPrices(20, 1)},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INSUFFICIENT_DATA",
		},
		{
			name: "invalid train fraction",
			body: models.EvaluateRequest{
				DataSource: models.DataSourceConfig{Type: "inline", Prices: syntheticPrices(300, 1)},
				Params:     models.EvaluationParams{TrainFraction: 1.5},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_CONFIG",
		},
		{
			name: "invalid model order",
			body: models.EvaluateRequest{
				DataSource: models.DataSourceConfig{Type: "inline", Prices: syntheticPrices(300, 1)},
				Params:     models.EvaluationParams{Model: &models.OrderSpec{P: -1}},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_CONFIG",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.post(t, "/api/v1/evaluations", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestGetEvaluationRoundTrip(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.post(t, "/api/v1/evaluations", models.EvaluateRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Prices: syntheticPrices(300, 9), Symbol: "TEST"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created models.EvaluateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	got := srv.get("/api/v1/evaluations/" + created.ID)
	require.Equal(t, http.StatusOK, got.Code, got.Body.String())

	var fetched models.EvaluateResponse
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Summary, fetched.Summary)
}

func TestGetEvaluationNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.get("/api/v1/evaluations/no-such-run")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
}

func TestRunSweepRanksCandidates(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.post(t, "/api/v1/evaluations/sweep", models.SweepRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Prices: syntheticPrices(300, 9)},
		Candidates: []models.OrderSpec{
			{P: 2, D: 0, Q: 1},
			{P: -1}, // unidentifiable, must sink to the bottom
			{P: 1},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.SweepResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	require.Len(t, resp.Results, 3)

	for i, row := range resp.Results {
		assert.Equal(t, i+1, row.Rank)
	}

	// The two estimable orders come first with summaries, ordered by
	// Sharpe; the failing one keeps its slot at the end.
	require.NotNil(t, resp.Results[0].Summary)
	require.NotNil(t, resp.Results[1].Summary)
	assert.GreaterOrEqual(t, resp.Results[0].Summary.Sharpe, resp.Results[1].Summary.Sharpe)

	last := resp.Results[2]
	assert.Equal(t, "ARIMA(-1,0,0)", last.Model)
	assert.Nil(t, last.Summary)
	assert.NotEmpty(t, last.Error)
}

func TestRunSweepValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.post(t, "/api/v1/evaluations/sweep", map[string]any{
		"data_source": map[string]any{"type": "inline", "prices": []float64{1, 2, 3}},
		"candidates":  []any{},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Code)
}

func TestRunEvaluationRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := newTestServer(t, metrics.NewRecorder(reg))

	w := srv.post(t, "/api/v1/evaluations", models.EvaluateRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Prices: syntheticPrices(300, 9)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]bool, len(families))
	for _, f := range families {
		byName[f.GetName()] = true
	}
	assert.True(t, byName["arima_backtest_evaluations_total"])
	assert.True(t, byName["arima_backtest_last_sharpe_ratio"])
}
