package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/nimasrn/smart-wakala/pkg/logger"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

var (
	ErrCircuitOpen = errors.New("provider gateway circuit is open")
	ErrRejected    = errors.New("provider rejected the transaction")
)

const ConfirmPath = "/api/v1/transactions/confirm"

type ConfirmRequest struct {
	TransactionType string  `json:"transaction_type"`
	Amount          float64 `json:"amount"`
	Provider        string  `json:"provider"`
	PhoneNumber     string  `json:"phone_number"`
}

type ConfirmResponse struct {
	ReferenceNumber string    `json:"reference_number"`
	Status          string    `json:"status"`
	Message         string    `json:"message,omitempty"`
	ProcessedAt     time.Time `json:"processed_at"`
}

type Metrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	ConsecutiveFails atomic.Int32
}

func (m *Metrics) RecordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.ConsecutiveFails.Store(0)
}

func (m *Metrics) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
}

func (m *Metrics) SuccessRate() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulReqs.Load()) / float64(total)
}

type Config struct {
	BaseURL                 string
	Timeout                 time.Duration
	MaxRetries              int
	InitialInterval         time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration

	// Dial overrides the network dialer, used by tests with an in-memory listener.
	Dial fasthttp.DialFunc
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:                 baseURL,
		Timeout:                 5 * time.Second,
		MaxRetries:              3,
		InitialInterval:         200 * time.Millisecond,
		MaxConns:                64,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
}

type Client struct {
	config           Config
	http             *fasthttp.Client
	metrics          *Metrics
	circuitOpenUntil atomic.Int64
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("provider gateway base url is required")
	}
	httpClient := &fasthttp.Client{
		Name:                "smart-wakala",
		MaxConnsPerHost:     config.MaxConns,
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: time.Minute,
		Dial:                config.Dial,
	}
	logger.Info("[gateway] provider client initialized", "url", config.BaseURL, "timeout", config.Timeout, "retries", config.MaxRetries)
	return &Client{config: config, http: httpClient, metrics: &Metrics{}}, nil
}

func (c *Client) Metrics() *Metrics { return c.metrics }

// Confirm asks the provider to confirm a transaction and returns its
// reference. Network errors and 5xx responses are retried with exponential
// backoff; a 4xx response fails at once with ErrRejected.
func (c *Client) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	if c.circuitOpen() {
		return nil, ErrCircuitOpen
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal confirm request")
	}

	var out ConfirmResponse
	attempt := 0
	op := func() error {
		attempt++
		start := time.Now()
		raw, err := c.doRequest(ctx, fasthttp.MethodPost, ConfirmPath, body)
		if errors.Is(err, ErrRejected) {
			// a decline is an answer from a healthy provider
			c.metrics.RecordSuccess(time.Since(start).Milliseconds())
			logger.Info("[gateway] confirm declined", "error", err, "provider", req.Provider)
			return backoff.Permanent(err)
		}
		if err != nil {
			c.metrics.RecordFailure()
			c.checkCircuitBreaker()
			logger.Warn("[gateway] confirm failed", "error", err, "attempt", attempt, "provider", req.Provider)
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		c.metrics.RecordSuccess(time.Since(start).Milliseconds())
		if err := json.Unmarshal(raw, &out); err != nil {
			return backoff.Permanent(errors.Wrap(err, "unmarshal confirm response"))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.InitialInterval
	b.MaxElapsedTime = 0
	retries := c.config.MaxRetries
	if retries < 0 {
		retries = 0
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)); err != nil {
		return nil, errors.Wrapf(err, "confirm after %d attempts", attempt)
	}
	if out.ReferenceNumber == "" {
		return nil, errors.New("provider returned an empty reference number")
	}

	logger.Info("[gateway] transaction confirmed", "reference", out.ReferenceNumber, "status", out.Status, "provider", req.Provider)
	return &out, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > c.config.Timeout {
		deadline = time.Now().Add(c.config.Timeout)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	switch {
	case status >= 500:
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", status, resp.Body())
	case status >= 400:
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrRejected, status, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

func (c *Client) circuitOpen() bool {
	until := c.circuitOpenUntil.Load()
	if until == 0 {
		return false
	}
	if time.Now().UnixNano() > until {
		c.circuitOpenUntil.Store(0)
		c.metrics.ConsecutiveFails.Store(0)
		return false
	}
	return true
}

func (c *Client) checkCircuitBreaker() {
	if c.config.CircuitBreakerThreshold <= 0 {
		return
	}
	fails := c.metrics.ConsecutiveFails.Load()
	if fails >= int32(c.config.CircuitBreakerThreshold) {
		c.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).UnixNano())
		logger.Warn("[gateway] circuit breaker opened", "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
	}
}
