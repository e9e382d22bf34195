// Package rest implements the outbound HTTP pipeline shared by every
// resource call: base URL resolution, bearer token injection from the
// current session, JSON envelope decoding, and the error taxonomy the rest
// of the data core relies on.
//
// The client never retries on its own. Reads are idempotent and may be
// retried by callers; writes are not and must not be.
package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/fsdteam8/lowready-dashboard-sub000/logger"
	"github.com/fsdteam8/lowready-dashboard-sub000/session"
)

// Meta carries the pagination block every list endpoint returns.
type Meta struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// Envelope is the common response wrapper the backend uses. Data is kept raw
// here; the resource layer decodes it into typed records, which keeps
// per-endpoint shape variance out of the cache and controller layers.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    *Meta           `json:"meta,omitempty"`
}

// Client performs authenticated JSON requests against the backend REST API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	sessions       session.Provider
	defaultHeaders map[string]string
	log            *logrus.Entry
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithSession sets the provider consulted for a bearer token on every call.
func WithSession(p session.Provider) Option {
	return func(c *Client) { c.sessions = p }
}

// WithHTTPClient replaces the underlying transport. Timeouts live here.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithHeader adds a default header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.defaultHeaders[key] = value }
}

// New creates a Client for the given base URL. An empty base URL is a fatal
// configuration problem and fails fast with a ConfigError.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, &ConfigError{Field: "APIBaseURL", Message: "must not be empty"}
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, &ConfigError{Field: "APIBaseURL", Message: "must be an absolute http(s) URL"}
	}

	c := &Client{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: 20 * time.Second},
		sessions:       session.NoSession{},
		defaultHeaders: map[string]string{},
		log:            logger.WithComponent("rest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Request performs one HTTP call and decodes the response envelope.
//
// body may be nil, a []byte of pre-encoded JSON, or any value to marshal.
// A status >= 400 yields an *APIError whose message prefers the envelope's
// message field. Transport failures yield a *NetworkError.
func (c *Client) Request(ctx context.Context, method, path string, body any) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, ok := body.([]byte)
		if !ok {
			var err error
			raw, err = json.Marshal(body)
			if err != nil {
				return nil, err
			}
		}
		reader = bytes.NewReader(raw)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if s, ok := c.sessions.Current(); ok && s.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	} else {
		// Some endpoints are public; the backend decides.
		c.log.WithFields(logrus.Fields{"method": method, "path": path}).
			Warn("request sent without access token")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	if res.StatusCode == http.StatusNoContent {
		return &Envelope{Success: true}, nil
	}

	env := &Envelope{}
	if len(resBody) > 0 {
		if err := json.Unmarshal(resBody, env); err != nil && res.StatusCode < 400 {
			return nil, &APIError{
				Status:  res.StatusCode,
				Message: "response is not a valid envelope: " + err.Error(),
			}
		}
	}

	if res.StatusCode >= 400 {
		message := env.Message
		if message == "" {
			message = http.StatusText(res.StatusCode)
		}
		return nil, &APIError{Status: res.StatusCode, Message: message}
	}

	return env, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Envelope, error) {
	return c.Request(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Request(ctx, http.MethodPost, path, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Request(ctx, http.MethodPatch, path, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Request(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.Request(ctx, http.MethodDelete, path, nil)
}
