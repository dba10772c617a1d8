package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.paystack.co"
	maxBodyBytes   = 1 << 20
)

var ErrNotConfigured = errors.New("paystack secret key not configured")

type Config struct {
	BaseURL       string
	SecretKey     string
	Timeout       time.Duration
	VerifyRetries uint
	RetryInterval time.Duration
}

// GatewayError is any failed exchange with Paystack. StatusCode is zero for
// transport failures (timeouts, refused connections).
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("paystack %s: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("paystack %s: status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("paystack %s failed", e.Op)
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether Paystack rejected the request itself (4xx).
func (e *GatewayError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Payload is the provider body for audit: decoded JSON when possible.
func (e *GatewayError) Payload() any {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(e.Body), &decoded); err == nil {
		return decoded
	}
	if e.Body != "" {
		return e.Body
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return nil
}

type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	Raw              map[string]any
}

// VerifyResult is Paystack's current view of a transaction. HTTPStatus mirrors
// the provider response, including 4xx answers such as an unknown reference.
type VerifyResult struct {
	HTTPStatus int
	Status     ChargeStatus
	Reference  string
	Amount     int64
	Currency   string
	Raw        map[string]any
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type Client struct {
	baseURL       string
	secretKey     string
	http          *http.Client
	verifyRetries uint
	retryInterval time.Duration
	logger        *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.VerifyRetries == 0 {
		cfg.VerifyRetries = 1
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 300 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		http:          &http.Client{Timeout: cfg.Timeout},
		verifyRetries: cfg.VerifyRetries,
		retryInterval: cfg.RetryInterval,
		logger:        logger.Named("paystack"),
	}
}

func (c *Client) Configured() bool {
	return c.secretKey != ""
}

// Initialize creates a Paystack transaction and returns the payer redirect.
// It is not retried: a timeout may still have created the transaction.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body := map[string]any{
		"email":     req.Email,
		"amount":    req.AmountMinor,
		"currency":  req.Currency,
		"reference": req.Reference,
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	status, raw, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, &GatewayError{Op: "initialize", Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &GatewayError{Op: "initialize", StatusCode: status, Body: string(raw)}
	}

	var env envelope[initializeData]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &GatewayError{Op: "initialize", Body: string(raw), Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Status || env.Data.AuthorizationURL == "" {
		return nil, &GatewayError{Op: "initialize", Body: string(raw), Err: errors.New("response missing authorization_url")}
	}

	return &InitializeResult{
		AuthorizationURL: env.Data.AuthorizationURL,
		AccessCode:       env.Data.AccessCode,
		Reference:        env.Data.Reference,
		Raw:              decodeRaw(raw),
	}, nil
}

// Verify fetches the provider status of a reference. Transport failures and
// 5xx answers are retried with exponential backoff.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	policy.MaxInterval = c.retryInterval * 10

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying verify",
			zap.String("reference", reference),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	return backoff.Retry(ctx, func() (*VerifyResult, error) {
		return c.verifyOnce(ctx, reference)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.verifyRetries),
		backoff.WithNotify(notify))
}

func (c *Client) verifyOnce(ctx context.Context, reference string) (*VerifyResult, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(&GatewayError{Op: "verify", Err: err})
		}
		return nil, &GatewayError{Op: "verify", Err: err}
	}
	if status >= 500 {
		return nil, &GatewayError{Op: "verify", StatusCode: status, Body: string(raw)}
	}

	res := &VerifyResult{
		HTTPStatus: status,
		Status:     ChargeUnknown,
		Raw:        decodeRaw(raw),
	}
	if status < 200 || status > 299 {
		return res, nil
	}

	var env envelope[verifyData]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, backoff.Permanent(&GatewayError{Op: "verify", StatusCode: status, Body: string(raw), Err: fmt.Errorf("decode response: %w", err)})
	}
	res.Status = ParseChargeStatus(env.Data.Status)
	res.Reference = env.Data.Reference
	res.Amount = env.Data.Amount
	res.Currency = env.Data.Currency
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("paystack call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	return resp.StatusCode, raw, nil
}

// decodeRaw keeps a body that is not a JSON object under "message".
func decodeRaw(raw []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil && m != nil {
		return m
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return map[string]any{"message": text}
	}
	return map[string]any{}
}
