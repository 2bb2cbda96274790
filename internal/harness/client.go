package harness

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

	"go.uber.org/zap"
)

const defaultClientTimeout = 10 * time.Second

// Response is a decoded reply from the service under test.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is the decoded JSON object, or nil when the reply was not a JSON object.
	// Numbers are kept as json.Number so integer typing can be checked.
	Body map[string]any
	Raw  []byte
	// DecodeErr records why a JSON reply could not be decoded.
	DecodeErr error
}

// ContentType returns the Content-Type header of the reply.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Films returns the films array, if the body has one.
func (r *Response) Films() ([]any, bool) {
	films, ok := r.Body["films"].([]any)
	return films, ok
}

// Count returns the integer count, if the body has one.
func (r *Response) Count() (int64, bool) {
	n, ok := r.Body["count"].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// Filter returns the filter object, if the body has one.
func (r *Response) Filter() (map[string]any, bool) {
	filter, ok := r.Body["filter"].(map[string]any)
	return filter, ok
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each round trip, including reading the body.
// The current client is copied, so a client passed to WithHTTPClient keeps
// its transport, cookie jar and redirect policy and is not mutated.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := http.Client{}
		if c.http != nil {
			hc = *c.http
		}
		hc.Timeout = d
		c.http = &hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client issues film lookups against a running service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for the service at baseURL, e.g. http://localhost:8080.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultClientTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient returns the client requests are sent with.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// BaseURL returns the service address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL builds the lookup URL. startsWith is only percent-encoded, never
// validated or trimmed, so the service sees exactly the raw value.
func (c *Client) URL(path, startsWith string) string {
	return c.baseURL + path + "?startsWith=" + url.QueryEscape(startsWith)
}

// Get performs one GET round trip with the startsWith parameter.
// There is no retry: a transport failure is returned as *ConnectionError.
func (c *Client) Get(ctx context.Context, path, startsWith string) (*Response, error) {
	target := c.URL(path, startsWith)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{URL: target, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Raw:        raw,
	}
	out.Body, out.DecodeErr = decodeObject(raw)

	c.logger.Debug("film lookup",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
	)

	return out, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode JSON body: %w", err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("body is %T, not a JSON object", v)
	}
	return obj, nil
}

// MeasureQuery times a single lookup of q and reports the result count
// the service returned for it (zero when the body has no count).
func MeasureQuery(ctx context.Context, c *Client, path string, q QueryParams) (PerformanceMetrics, *Response, error) {
	start := time.Now()
	resp, err := c.Get(ctx, path, q.StartsWith)
	elapsed := time.Since(start)
	if err != nil {
		return PerformanceMetrics{}, nil, err
	}

	count, _ := resp.Count()

	return PerformanceMetrics{
		ExecutionTime: elapsed,
		ResultCount:   int(count),
	}, resp, nil
}

// PerformanceMetrics pairs the wall-clock time of a lookup with its result count.
type PerformanceMetrics struct {
	ExecutionTime time.Duration
	ResultCount   int
}
