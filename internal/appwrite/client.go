// Package appwrite is a small REST client for the Appwrite-compatible backend
// platform that stores documents, files and accounts for the application.
package appwrite

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"snapgram/internal/observability"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	responseFormat   = "1.5.0"
	userAgent        = "snapgram-bff/1.0"
	defaultTimeout   = 15 * time.Second
	defaultRetryMax  = 2
	maxErrorBodySize = 64 * 1024
)

// Config describes how to reach the platform. It is passed explicitly to
// NewClient; nothing in this package keeps process-wide handles.
type Config struct {
	Endpoint   string // e.g. https://cloud.appwrite.io/v1
	ProjectID  string
	APIKey     string
	SelfSigned bool
	Timeout    time.Duration
	RetryMax   int
}

// Client issues authenticated requests against the platform REST API.
type Client struct {
	cfg      Config
	endpoint *url.URL
	http     *retryablehttp.Client
}

type sessionKey struct{}
type retryKey struct{}

// WithSession returns a context whose requests run as the user owning secret
// instead of with the server API key.
func WithSession(ctx context.Context, secret string) context.Context {
	return context.WithValue(ctx, sessionKey{}, secret)
}

// SessionFrom returns the session secret stored by WithSession.
func SessionFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sessionKey{}).(string); ok {
		return s
	}
	return ""
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("appwrite: endpoint is required")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("appwrite: project id is required")
	}
	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("appwrite: invalid endpoint %q: %w", cfg.Endpoint, err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("appwrite: endpoint %q must be http or https", cfg.Endpoint)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = observability.GlobalLogger.Logger
	rc.HTTPClient.Timeout = cfg.Timeout
	if cfg.SelfSigned {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-hosted dev instances
		rc.HTTPClient.Transport = transport
	}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{cfg: cfg, endpoint: endpoint, http: rc}, nil
}

// ProjectID returns the configured project id.
func (c *Client) ProjectID() string { return c.cfg.ProjectID }

// Endpoint returns the API root URL.
func (c *Client) Endpoint() string { return c.endpoint.String() }

// checkRetry only retries requests marked as idempotent.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if retry, _ := ctx.Value(retryKey{}).(bool); !retry {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// request describes one REST call.
type request struct {
	service     string
	operation   string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	header      http.Header
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.endpoint
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) jsonRequest(service, operation, method, path string, query url.Values, payload any) (*request, error) {
	r := &request{service: service, operation: operation, method: method, path: path, query: query}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("appwrite: encode %s body: %w", operation, err)
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

// do sends r and decodes a successful JSON response into out when out is not nil.
func (c *Client) do(ctx context.Context, r *request, out any) (err error) {
	ctx, done := observability.StartRemoteCall(ctx, r.service, r.operation, r.method, r.path)
	defer func() { done(err) }()

	ctx = context.WithValue(ctx, retryKey{}, r.method == http.MethodGet)

	var body any
	if r.body != nil {
		body = r.body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, r.method, c.url(r.path, r.query), body)
	if err != nil {
		return fmt.Errorf("appwrite: build %s request: %w", r.operation, err)
	}
	c.authorize(ctx, req.Header)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("appwrite: %s: %w", r.operation, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			observability.GlobalLogger.WarnContext(ctx, "failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("appwrite: decode %s response: %w", r.operation, err)
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, h http.Header) {
	h.Set("X-Appwrite-Project", c.cfg.ProjectID)
	h.Set("X-Appwrite-Response-Format", responseFormat)
	h.Set("User-Agent", userAgent)
	if secret := SessionFrom(ctx); secret != "" {
		h.Set("X-Appwrite-Session", secret)
		return
	}
	if c.cfg.APIKey != "" {
		h.Set("X-Appwrite-Key", c.cfg.APIKey)
	}
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	apiErr := &Error{Code: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	}
	if apiErr.Code == 0 {
		apiErr.Code = resp.StatusCode
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
