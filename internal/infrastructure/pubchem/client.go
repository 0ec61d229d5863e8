// Package pubchem implements compound.Provider on top of the PubChem
// PUG-REST API.
package pubchem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/compoundrank/pkg/errors"
)

const (
	// DefaultBaseURL is the public PUG-REST endpoint.
	DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

	// DefaultRequestsPerSecond is PubChem's published per-user limit.
	DefaultRequestsPerSecond = 5.0

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "compoundrank/1.0"
	maxFaultBody     = 512
)

// Observer receives one call per HTTP exchange.  status is the HTTP status
// code as text, or "error" when no response arrived.
type Observer interface {
	ObserveRequest(operation, status string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string, time.Duration) {}

// Client is a throttled PUG-REST client.  It never retries: every transport
// or HTTP failure is returned to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     logging.Logger
	observer   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit sets the sustained request rate and burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the request observer, typically Prometheus metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid provider base URL").WithDetail(baseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.InvalidConfig("provider base URL scheme must be http or https").WithDetail(baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		logger:     logging.NewNopLogger(),
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// fault is the PUG-REST error envelope.
type fault struct {
	Fault struct {
		Code    string   `json:"Code"`
		Message string   `json:"Message"`
		Details []string `json:"Details"`
	} `json:"Fault"`
}

// APIError is a non-2xx PUG-REST response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pubchem: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

// IsNotFound reports whether PubChem had no record for the query.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.Code == "PUGREST.NotFound"
}

// IsRateLimited reports whether PubChem throttled the request.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "PUGREST.ServerBusy"
}

// do sends one request and decodes a 2xx JSON body into result.  Non-2xx
// responses come back as *APIError wrapped in an AppError.
func (c *Client) do(ctx context.Context, operation, method, path string, form url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderUnavailable, "rate limiter wait aborted").WithDetail(operation)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create request").WithDetail(path)
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observer.ObserveRequest(operation, "error", elapsed)
		c.logger.Error("pubchem request failed",
			logging.String("operation", operation),
			logging.String("request_id", requestID),
			logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeProviderUnavailable, "pubchem request failed").WithDetail(operation)
	}
	defer resp.Body.Close()

	c.observer.ObserveRequest(operation, fmt.Sprint(resp.StatusCode), elapsed)
	c.logger.Debug("pubchem request",
		logging.String("operation", operation),
		logging.String("method", method),
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", elapsed),
		logging.String("request_id", requestID))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderUnavailable, "failed to read response body").WithDetail(operation)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
		var f fault
		if json.Unmarshal(respBody, &f) == nil && f.Fault.Code != "" {
			apiErr.Code = f.Fault.Code
			apiErr.Message = f.Fault.Message
			if len(f.Fault.Details) > 0 {
				apiErr.Message += ": " + strings.Join(f.Fault.Details, "; ")
			}
		} else {
			apiErr.Message = truncate(string(respBody), maxFaultBody)
		}
		code := errors.ErrCodeProviderBadStatus
		if apiErr.IsRateLimited() {
			code = errors.ErrCodeProviderRateLimited
		}
		return errors.Wrap(apiErr, code, "pubchem returned an error").WithDetail(operation)
	}

	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderParseError, "failed to decode pubchem response").WithDetail(operation)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
