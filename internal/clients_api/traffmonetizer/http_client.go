package traffmonetizer

// Package traffmonetizer contains the client for the TraffMonetizer dashboard API
// This file holds the client state (token, headers, proxy) and the one routine that sends requests
// Transport layer only: it never looks at status codes or bodies, newResult does that

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"traffmon/internal/infra/log"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL - dashboard data API host
	DefaultBaseURL = "https://data.traffmonetizer.com"
	// DefaultPrefix - path prefix all endpoints live under
	DefaultPrefix = "/api"
	// DashboardOrigin - the vendor backend rejects requests without this Origin/Referrer
	DashboardOrigin = "https://app.traffmonetizer.com"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/74.0.3729.169 Safari/537.36"

	DefaultTimeout         = 30 * time.Second
	DefaultMaxResponseSize = 10 * 1024 * 1024
)

// DefaultHeaders returns the headers every new client starts with.
// "Referrer" is misspelled on purpose, it is what the dashboard sends.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": DefaultUserAgent,
		"Origin":     DashboardOrigin,
		"Referrer":   DashboardOrigin,
	}
}

// Client talks to the dashboard API on behalf of one account.
// It is safe for concurrent use; session, headers and proxy changes apply to requests started afterwards.
type Client struct {
	root            string // baseURL + prefix + version, fixed at construction
	httpClient      *http.Client
	transport       *http.Transport
	maxResponseSize int64

	mu      sync.RWMutex
	token   string            // empty = not logged in
	headers map[string]string // default headers, see MergeHeaders/ClearHeaders
	proxy   ProxyConfig
}

type options struct {
	baseURL         string
	prefix          string
	version         string
	headers         map[string]string
	timeout         time.Duration
	maxResponseSize int64
}

// Option configures a Client at construction.
type Option func(*options)

func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = strings.TrimSuffix(baseURL, "/") }
}

func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithVersion appends a version segment ("/v2") after the prefix.
func WithVersion(version string) Option {
	return func(o *options) { o.version = version }
}

// WithHeaders merges extra headers over the defaults.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) { mergeHeaders(o.headers, headers) }
}

// WithTimeout bounds each request. Zero disables the client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMaxResponseSize caps how many body bytes are read. Larger bodies are truncated.
func WithMaxResponseSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxResponseSize = n
		}
	}
}

// NewClient builds an unauthenticated client with no proxy and the default headers.
func NewClient(opts ...Option) *Client {
	o := options{
		baseURL:         DefaultBaseURL,
		prefix:          DefaultPrefix,
		headers:         DefaultHeaders(),
		timeout:         DefaultTimeout,
		maxResponseSize: DefaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		root:            o.baseURL + o.prefix + o.version,
		maxResponseSize: o.maxResponseSize,
		headers:         o.headers,
	}
	c.transport = &http.Transport{
		Proxy:             c.proxyFor,
		DisableKeepAlives: false,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}
	c.httpClient = &http.Client{
		Timeout:   o.timeout,
		Transport: c.transport,
	}
	return c
}

// Root returns the URL all endpoint paths are appended to.
func (c *Client) Root() string {
	return c.root
}

// ============================================
// Headers
// ============================================

// ClearHeaders drops every default header, including User-Agent, Origin and Referrer.
func (c *Client) ClearHeaders() {
	c.mu.Lock()
	c.headers = map[string]string{}
	c.mu.Unlock()
}

// MergeHeaders overlays headers on the defaults; given keys win.
func (c *Client) MergeHeaders(headers map[string]string) {
	c.mu.Lock()
	mergeHeaders(c.headers, headers)
	c.mu.Unlock()
}

// mergeHeaders copies src into dst under canonical keys, so "user-agent" replaces "User-Agent".
func mergeHeaders(dst, src map[string]string) {
	for k, v := range src {
		dst[http.CanonicalHeaderKey(k)] = v
	}
}

// Headers returns a copy of the current default headers.
func (c *Client) Headers() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.headers)
}

// ============================================
// Proxy
// ============================================

// SetProxy routes all later requests through the proxy described by spec.
// An empty spec removes the proxy. On error the current proxy is left as is.
func (c *Client) SetProxy(spec string, scheme ProxyScheme) error {
	cfg, err := ParseProxySpec(spec, scheme)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.proxy = cfg
	c.mu.Unlock()

	// pooled connections belong to the old route
	c.transport.CloseIdleConnections()

	log.LogDebug("Proxy updated", zap.String("proxy", cfg.String()))
	return nil
}

func (c *Client) SetSocks5Proxy(spec string) error { return c.SetProxy(spec, ProxySOCKS5) }
func (c *Client) SetHTTPProxy(spec string) error   { return c.SetProxy(spec, ProxyHTTP) }
func (c *Client) SetHTTPSProxy(spec string) error  { return c.SetProxy(spec, ProxyHTTPS) }

// ClearProxy makes later requests go direct.
func (c *Client) ClearProxy() {
	// an empty spec cannot fail
	_ = c.SetProxy("", ProxySOCKS5)
}

// Proxy returns the current proxy config and whether one is set.
func (c *Client) Proxy() (ProxyConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proxy, c.proxy.Kind != NoProxy
}

// proxyFor is the transport's Proxy hook.
func (c *Client) proxyFor(*http.Request) (*url.URL, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proxy.URL(), nil
}

// ============================================
// Session
// ============================================

// IsAuthenticated reports whether a session token is set. Its validity is never checked.
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// SetToken stores the JWT sent as bearer token. An empty token logs out.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current JWT, empty when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Logout forgets the session token. Nothing is sent to the server.
func (c *Client) Logout() {
	c.SetToken("")
}

// ============================================
// Dispatch
// ============================================

// request describes one API call.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any               // marshalled as JSON when non-nil
	headers map[string]string // call-specific, override defaults
	auth    bool              // require a session token
}

// do sends r and normalizes the response. Only local precondition failures
// and transport failures are returned as errors.
func (c *Client) do(ctx context.Context, r request) (*Result, error) {
	c.mu.RLock()
	token := c.token
	headers := maps.Clone(c.headers)
	proxy := c.proxy
	c.mu.RUnlock()

	if r.auth && token == "" {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, ErrNotAuthenticated)
	}

	requestID := log.GenerateRequestID()
	startTime := time.Now()

	var reqBody io.Reader
	callHeaders := map[string]string{}
	mergeHeaders(callHeaders, r.headers)
	if r.body != nil {
		jsonData, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
		if _, ok := callHeaders["Content-Type"]; !ok {
			callHeaders["Content-Type"] = "application/json"
		}
	}

	target := c.root + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	applyHeaders(req, headers, callHeaders, token)

	log.LogRequest(requestID, r.method, r.path,
		zap.String("url", req.URL.String()),
		zap.Bool("authenticated", token != ""),
		zap.String("proxy", proxy.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.LogResponse(requestID, 0, time.Since(startTime).Milliseconds(), zap.String("endpoint", r.path), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	// one extra byte tells a body of exactly maxResponseSize from a longer one
	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		log.LogResponse(requestID, resp.StatusCode, time.Since(startTime).Milliseconds(), zap.String("endpoint", r.path), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	truncated := int64(len(raw)) > c.maxResponseSize
	if truncated {
		raw = raw[:c.maxResponseSize]
		log.LogWarn("Response body truncated",
			zap.String("request_id", requestID),
			zap.String("endpoint", r.path),
			zap.Int64("limit", c.maxResponseSize))
	}

	log.LogResponse(requestID, resp.StatusCode, time.Since(startTime).Milliseconds(),
		zap.String("endpoint", r.path),
		zap.Int("bytes", len(raw)))

	res := newResult(resp, raw)
	res.Truncated = truncated
	return res, nil
}

// applyHeaders layers defaults, then call-specific headers, then Authorization.
func applyHeaders(req *http.Request, defaults, call map[string]string, token string) {
	for k, v := range defaults {
		req.Header.Set(k, v)
	}
	for k, v := range call {
		req.Header.Set(k, v)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// net/http fills in its own User-Agent unless the header is present
	if _, ok := req.Header["User-Agent"]; !ok {
		req.Header["User-Agent"] = []string{""}
	}
}
