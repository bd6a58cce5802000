package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client sends JSON requests to the remote session API. All requests share
// one Headers value, and every response of Do passes through the installed
// Interceptor.
type Client struct {
	baseURL string
	http    *http.Client
	headers *Headers
	logger  *slog.Logger

	mu          sync.RWMutex
	interceptor Interceptor
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    o.httpClient,
		headers: NewHeaders(),
		logger:  o.logger.With(logger.Component("apiclient")),
	}
	c.headers.Set("Accept", "application/json")
	for k, v := range o.headers {
		c.headers.Set(k, v)
	}
	if o.store != nil && o.tokenName != "" {
		if token, err := o.store.Get(o.tokenName); err == nil {
			c.headers.SetBearer(token)
		}
	}

	return c, nil
}

// Headers returns the session context shared by all requests.
func (c *Client) Headers() *Headers {
	return c.headers
}

// Use installs the interceptor, replacing any previous one.
func (c *Client) Use(i Interceptor) {
	c.mu.Lock()
	c.interceptor = i
	c.mu.Unlock()
}

// Do sends req and hands the outcome to the interceptor unless the request
// opts out with SkipIntercept.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.Send(ctx, req)
	if req == nil || req.SkipIntercept {
		return resp, err
	}

	c.mu.RLock()
	ic := c.interceptor
	c.mu.RUnlock()
	if ic == nil {
		return resp, err
	}
	return ic.Intercept(ctx, req, resp, err)
}

// Get is a shorthand for Do with GET.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path})
}

// Post is a shorthand for Do with POST and a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Request is a shorthand for Do.
func (c *Client) Request(ctx context.Context, method, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: method, Path: path, Body: body})
}

// Send performs a single round trip without interception. A non-2xx status
// returns both the response and an *APIError.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeBody, err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.url(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	req.sentWith = c.headers.apply(httpReq)
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed",
			logger.Method(method),
			logger.Path(req.Path),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}

	c.logger.DebugContext(ctx, "request completed",
		logger.Method(method),
		logger.Path(req.Path),
		logger.StatusCode(resp.StatusCode),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, data)
		c.logger.DebugContext(ctx, "api error",
			logger.Path(req.Path),
			logger.StatusCode(apiErr.StatusCode),
			logger.ErrorCode(apiErr.Code),
		)
		return resp, apiErr
	}
	return resp, nil
}

func (c *Client) url(path string) string {
	if path == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}
