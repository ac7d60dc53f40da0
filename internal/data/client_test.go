package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key-0123456789"

func TestQueryDailySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/daily/SPY", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-02-01", r.URL.Query().Get("end_date"))
		assert.Equal(t, testAPIKey, r.Header.Get("x-api-key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"date":"2024-01-02T00:00:00Z","close":470.5},{"date":"2024-01-03T00:00:00Z","close":468.75}]}`))
	}))
	defer srv.Close()

	client := NewHistoryClient(testAPIKey, srv.URL)
	resp, err := client.QueryDaily(context.Background(), DailyQuery{Symbol: "SPY", Start: "2024-01-01", End: "2024-02-01"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SPY", resp.Symbol) // backfilled from the query
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 470.5, resp.Data[0].Close)
}

func TestQueryDailyProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   string
		wantInBody string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "forbidden", status: http.StatusForbidden, wantCode: "INVALID_API_KEY"},
		{name: "server error keeps body", status: http.StatusInternalServerError, body: "kaput", wantCode: "API_ERROR", wantInBody: "kaput"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewHistoryClient(testAPIKey, srv.URL)
			_, err := client.QueryDaily(context.Background(), DailyQuery{Symbol: "SPY"})
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			if tt.wantInBody != "" {
				assert.Contains(t, apiErr.Message, tt.wantInBody)
			}
		})
	}
}

func TestQueryDailyRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewHistoryClient(testAPIKey, srv.URL)
	_, err := client.QueryDaily(context.Background(), DailyQuery{Symbol: "SPY"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", apiErr.Code)
	assert.Equal(t, 7, apiErr.RetryAfter)
}

func TestQueryDailyKeyValidation(t *testing.T) {
	ctx := context.Background()

	var apiErr *APIError
	_, err := NewHistoryClient("", "").QueryDaily(ctx, DailyQuery{Symbol: "SPY"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "MISSING_API_KEY", apiErr.Code)

	_, err = NewHistoryClient("short", "").QueryDaily(ctx, DailyQuery{Symbol: "SPY"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_API_KEY_FORMAT", apiErr.Code)
}

func TestQueryDailyRequiresSymbol(t *testing.T) {
	_, err := NewHistoryClient(testAPIKey, "").QueryDaily(context.Background(), DailyQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol")
}

func TestQueryDailyBackfillsOnlyMissingSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"RENAMED","data":[{"close":1}]}`))
	}))
	defer srv.Close()

	client := NewHistoryClient(testAPIKey, srv.URL)
	resp, err := client.QueryDaily(context.Background(), DailyQuery{Symbol: "SPY"})
	require.NoError(t, err)
	assert.Equal(t, "RENAMED", resp.Symbol)
}
