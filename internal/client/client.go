// Package client talks JSON over HTTP to the remote advisor/seller backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
)

const (
	pathProfile        = "/api/auth/profile"
	pathForgotPassword = "/api/auth/forgot-password"
	pathCreateIntent   = "/api/payment/create-intent"
	pathCreateMethod   = "/api/payment/create-method"
	pathConfirm        = "/api/payment/confirm"

	maxBodyBytes = 1 << 20
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: StaticToken(""),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// response is a received HTTP answer with its body already read.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// decode unmarshals the body into v. A body that is not JSON leaves v zeroed.
func (r *response) decode(v any) {
	if len(r.body) == 0 {
		return
	}
	_ = json.Unmarshal(r.body, v)
}

// rejection builds the BackendError for an answer the caller did not accept.
func (r *response) rejection(op string) *BackendError {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	r.decode(&body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	return &BackendError{Op: op, StatusCode: r.status, Message: msg}
}

// bearer resolves the token for an authenticated call.
func (c *Client) bearer(ctx context.Context) (string, error) {
	tok := tokenFromContext(ctx)
	if tok == "" {
		var err error
		if tok, err = c.tokens.Token(ctx); err != nil {
			return "", err
		}
	}
	if err := checkExpiry(tok, c.now()); err != nil {
		return "", err
	}
	return tok, nil
}

// do sends one request. Only transport failures come back as error; any HTTP
// answer, whatever its status, is returned for the caller to judge.
func (c *Client) do(ctx context.Context, op, method, path string, payload any, auth authMode) (*response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	tok, err := c.bearer(ctx)
	switch {
	case err == nil:
		req.Header.Set("Authorization", "Bearer "+tok)
	case auth == authRequired:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	telemetry.BackendLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.BackendRequests.WithLabelValues(op, "network_error").Inc()
		telemetry.Logger.Warn("Backend unreachable",
			zap.String("operation", op),
			zap.Error(err),
		)
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		telemetry.BackendRequests.WithLabelValues(op, "network_error").Inc()
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	result := "ok"
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result = "rejected"
	}
	telemetry.BackendRequests.WithLabelValues(op, result).Inc()
	telemetry.Logger.Debug("Backend call",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return &response{status: resp.StatusCode, body: raw}, nil
}

type authMode int

const (
	authOptional authMode = iota
	authRequired
)
