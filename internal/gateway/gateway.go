package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gestao/internal/timeframe"
)

const (
	// EndpointPath is the metrics API route for the dashboard dataset
	EndpointPath = "/v1/shopify/gestao"
	// DefaultTimeout bounds a single fetch when no timeout is configured
	DefaultTimeout = 15 * time.Second

	maxErrorBodyBytes    = 4 << 10
	maxResponseBodyBytes = 32 << 20
)

// Gateway fetches the metrics of one closed date interval.
// Each call issues exactly one query and never retries.
type Gateway interface {
	Fetch(ctx context.Context, r timeframe.DateRange) (*PeriodResult, error)
}

// HTTPClient is the subset of *http.Client the gateway needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Client  HTTPClient
	Logger  *slog.Logger
}

// HTTPGateway queries the metrics API over HTTP
type HTTPGateway struct {
	baseURL *url.URL
	client  HTTPClient
	logger  *slog.Logger
}

// NewHTTPGateway validates the base URL; a missing or malformed one is a ConfigurationError
func NewHTTPGateway(opts Options) (*HTTPGateway, error) {
	base, err := ParseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &HTTPGateway{baseURL: base, client: client, logger: logger}, nil
}

// ParseBaseURL checks the configured API base URL
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ConfigurationError{Field: "api_base_url", Msg: "metrics API base URL is not configured"}
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, &ConfigurationError{Field: "api_base_url", Msg: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ConfigurationError{Field: "api_base_url", Msg: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, &ConfigurationError{Field: "api_base_url", Msg: "missing host"}
	}
	return u, nil
}

// RequestURL builds the query URL for r
func (g *HTTPGateway) RequestURL(r timeframe.DateRange) string {
	u := *g.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + EndpointPath
	q := url.Values{}
	q.Set("start", r.Start.String())
	q.Set("end", r.End.String())
	u.RawQuery = q.Encode()
	return u.String()
}

func (g *HTTPGateway) Fetch(ctx context.Context, r timeframe.DateRange) (*PeriodResult, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid range %s: %w", r, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, &CancelledError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.RequestURL(r), nil)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("failed to build request: %v", err), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return nil, &CancelledError{Err: ctxErr}
		}
		g.logger.Debug("Metrics request failed", slog.String("range", r.String()), slog.Any("error", err))
		return nil, &TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("metrics API returned HTTP %d", resp.StatusCode)
		}
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: msg}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return nil, &CancelledError{Err: ctxErr}
		}
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	result, err := Decode(body)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Fetched period metrics",
		slog.String("range", r.String()),
		slog.Int("funnel_days", len(result.DailyFunnel)),
		slog.Int("channels", len(result.Channels)))

	return result, nil
}
