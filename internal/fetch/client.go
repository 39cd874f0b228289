// Package fetch provides the resilient HTTP client shared by all
// upstream source fetchers. Every outbound request goes through a
// token-bucket rate limiter, a circuit breaker, and bounded retries
// with exponential backoff. Government data endpoints throttle and
// flap; the ingest pipeline must not hammer them or cascade failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"freightpulse/internal/config"
)

var (
	// ErrRateLimited marks an upstream 429 response.
	ErrRateLimited = errors.New("rate limited by upstream")
	// ErrServerError marks an upstream 5xx response.
	ErrServerError = errors.New("upstream server error")
	// ErrUnexpectedStatus marks a non-retryable status code.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrCircuitOpen is returned while the breaker refuses requests.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Client wraps http.Client with the resilience stack. Safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cfg        config.FetchConfig
	logger     *slog.Logger
}

// NewClient builds a client from the fetch configuration.
func NewClient(cfg config.FetchConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "upstream-fetch",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("fetch circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker:    breaker,
		cfg:        cfg,
		logger:     logger,
	}
}

// Get fetches the URL and returns the response body. Retries with
// exponential backoff on network errors, 429 and 5xx; other non-2xx
// statuses fail immediately.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var attempt int
	var lastErr error

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if errors.Is(err, ErrUnexpectedStatus) || ctx.Err() != nil {
			return nil, err
		}

		lastErr = err
		if attempt >= c.cfg.MaxRetries {
			return nil, fmt.Errorf("fetch %s failed after %d attempts: %w", url, attempt+1, lastErr)
		}

		delay := c.cfg.InitialBackoff * time.Duration(math.Pow(2, float64(attempt)))
		if c.cfg.MaxBackoff > 0 && delay > c.cfg.MaxBackoff {
			delay = c.cfg.MaxBackoff
		}

		c.logger.WarnContext(ctx, "retrying fetch",
			slog.String("url", url),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

func (c *Client) doOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, url)
		}

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
