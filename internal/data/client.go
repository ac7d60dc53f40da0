// Package data loads daily close prices from local CSV or JSON files and
// from the hosted history API.
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"arima-backtest/internal/model"
)

// DefaultBaseURL points at the hosted daily-bars API.
const DefaultBaseURL = "https://api.markethistory.io"

// APIError carries the provider's failure details so callers can map them
// onto their own error codes.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter int // seconds, set only for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("history api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// HistoryClient fetches daily bars over HTTP. Requests are rate limited
// client-side and pass through a circuit breaker, so a provider outage
// fails fast instead of holding every evaluation for the full timeout.
type HistoryClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewHistoryClient builds a client for the given key. An empty baseURL
// selects DefaultBaseURL.
func NewHistoryClient(apiKey, baseURL string) *HistoryClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HistoryClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "history-api",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// DailyQuery names the window of bars to fetch. Dates are inclusive and
// formatted YYYY-MM-DD; empty bounds mean the provider's full history.
type DailyQuery struct {
	Symbol string
	Start  string
	End    string
}

// QueryDaily fetches daily bars for the symbol, oldest first.
func (c *HistoryClient) QueryDaily(ctx context.Context, q DailyQuery) (*model.DailyBarsResponse, error) {
	if err := c.validateAPIKey(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.Symbol) == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.fetchDaily(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.DailyBarsResponse), nil
}

func (c *HistoryClient) fetchDaily(ctx context.Context, q DailyQuery) (*model.DailyBarsResponse, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/v1/daily/%s", c.baseURL, url.PathEscape(q.Symbol)))
	if err != nil {
		return nil, fmt.Errorf("building request url: %w", err)
	}
	params := url.Values{}
	if q.Start != "" {
		params.Set("start_date", q.Start)
	}
	if q.End != "" {
		params.Set("end_date", q.End)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting daily bars: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("symbol", q.Symbol).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("history api request")

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "UNAUTHORIZED", Message: "API key was rejected"}
	case http.StatusForbidden:
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "INVALID_API_KEY", Message: "API key lacks access to this dataset"}
	case http.StatusTooManyRequests:
		retryAfter := 60
		if v := resp.Header.Get("Retry-After"); v != "" {
			if n, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = n
			}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "RATE_LIMIT_EXCEEDED", Message: "rate limit exceeded", RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "API_ERROR", Message: strings.TrimSpace(string(body))}
	}

	var out model.DailyBarsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding daily bars: %w", err)
	}
	out.StatusCode = resp.StatusCode
	if out.Symbol == "" {
		out.Symbol = q.Symbol
	}
	return &out, nil
}

func (c *HistoryClient) validateAPIKey() error {
	key := strings.TrimSpace(c.apiKey)
	if key == "" {
		return &APIError{StatusCode: http.StatusUnauthorized, Code: "MISSING_API_KEY", Message: "no API key configured"}
	}
	if len(key) < 10 {
		return &APIError{StatusCode: http.StatusUnauthorized, Code: "INVALID_API_KEY_FORMAT", Message: "API key looks malformed"}
	}
	return nil
}
