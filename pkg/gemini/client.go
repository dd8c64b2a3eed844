// Package gemini is a small client for the Gemini generateContent REST endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/pkg/apperr"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	defaultTimeout        = 90 * time.Second
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 30 * time.Second
)

// Generator is what the analysis, chat and speech components need from the transport.
type Generator interface {
	GenerateContent(ctx context.Context, model string, req *GenerateContentRequest) (*GenerateContentResponse, error)
}

type Config struct {
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	RPM            int // 0 disables pacing
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// APIError is a non-2xx reply from the service.
type APIError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
	logger     logger.ILogger
}

func NewClient(cfg Config, log logger.ILogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPM > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), 1)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		tracer:     otel.Tracer("trend-finder-be/gemini"),
		logger:     log,
	}
}

// GenerateContent calls models/{model}:generateContent. Throttled replies are
// retried with exponential backoff; every failure is a RemoteService error.
func (c *Client) GenerateContent(ctx context.Context, model string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	const op = "gemini.generateContent"

	if c.cfg.APIKey == "" {
		return nil, apperr.Wrap(apperr.KindRemoteService, op, errors.New("api key is not configured"))
	}

	ctx, span := c.tracer.Start(ctx, "gemini.GenerateContent", trace.WithAttributes(
		attribute.String("gemini.model", model),
	))
	defer span.End()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemoteService, op, fmt.Errorf("encode request: %w", err))
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt, lastErr)
			c.logger.Warn("GEMINI", "Retrying throttled request", map[string]interface{}{
				"model":   model,
				"attempt": attempt,
				"delay":   delay.String(),
			})
			if err := sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		res, err := c.doOnce(ctx, model, payload)
		if err == nil {
			span.SetAttributes(attribute.Int("gemini.attempts", attempt+1))
			return res, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.retryable() {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	c.logger.Error("GEMINI", "Request failed", map[string]interface{}{
		"model": model,
		"error": lastErr.Error(),
	})

	return nil, apperr.Wrap(apperr.KindRemoteService, op, lastErr)
}

func (c *Client) doOnce(ctx context.Context, model string, payload []byte) (*GenerateContentResponse, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: res.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: parseRetryAfter(res.Header.Get("Retry-After")),
		}
	}

	var out GenerateContentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" && len(out.Candidates) == 0 {
		return nil, fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
	}

	return &out, nil
}

// backoff doubles the base delay per attempt (1-based) unless the server said otherwise.
func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	var apiErr *APIError
	if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > 0 {
		return min(apiErr.RetryAfter, defaultRetryMaxDelay)
	}

	delay := c.cfg.RetryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= defaultRetryMaxDelay {
			return defaultRetryMaxDelay
		}
	}
	return delay
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
