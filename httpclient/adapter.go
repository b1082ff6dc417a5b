package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// errCanceledAll is the cancel cause set by CancelAll.
var errCanceledAll = errors.New("httpclient: all in-flight requests canceled")

// Adapter is a configurable HTTP adapter with default headers, TLS and
// cancel-all support. It is safe for concurrent use.
type Adapter struct {
	httpClient *http.Client
	config     Config

	mu        sync.Mutex
	gen       context.Context
	cancelGen context.CancelCauseFunc
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the underlying *http.Client. Its Timeout is kept as is.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
	}
	a.gen, a.cancelGen = context.WithCancelCause(context.Background())

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the adapter configuration with defaults applied.
func (a *Adapter) Config() Config {
	return a.config
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// CancelAll aborts every request currently in flight. Requests started
// afterwards are not affected.
func (a *Adapter) CancelAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelGen(errCanceledAll)
	a.gen, a.cancelGen = context.WithCancelCause(context.Background())
}

func (a *Adapter) generation() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen
}

// Do executes an HTTP request and returns the complete response.
//
// A non-2xx status returns both the response and a classified *Error, so
// callers that care about the body still get it. Transport failures return
// a nil response.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(a.generation(), func() { cancel(errCanceledAll) })
	defer stop()

	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}
	if classErr := ClassifyStatusCode(resp.StatusCode); classErr != nil {
		return result, classErr
	}
	return result, nil
}

// classifyTransportError maps a failed exchange onto an *Error.
func classifyTransportError(ctx context.Context, err error) *Error {
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return NewTimeoutError(err)
		}
		return NewCanceledError(context.Cause(ctx))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := a.resolveURL(req.Path)

	body, contentType, size, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewRequestError(fmt.Sprintf("encode body: %v", err), err)
	}
	if body != nil && req.Progress != nil {
		body = newProgressReader(body, size, req.Progress)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewRequestError(fmt.Sprintf("create request: %v", err), err)
	}
	if body != nil && size >= 0 {
		httpReq.ContentLength = size
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, vs := range req.Query {
			q[k] = append(q[k], vs...)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header.Set("User-Agent", a.config.UserAgent)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	return httpReq, nil
}

// resolveURL joins path onto BaseURL unless path is already absolute.
func (a *Adapter) resolveURL(path string) string {
	if a.config.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return a.config.BaseURL
	}
	return strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// encodeBody converts a body value into a reader, content type and size.
// Size is -1 when unknown.
func encodeBody(body any) (io.Reader, string, int64, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", 0, nil
	case *MultipartBody:
		buf, ct, err := v.encode()
		if err != nil {
			return nil, "", 0, err
		}
		return buf, ct, int64(buf.Len()), nil
	case url.Values:
		encoded := v.Encode()
		return strings.NewReader(encoded), "application/x-www-form-urlencoded", int64(len(encoded)), nil
	case io.Reader:
		return v, "", -1, nil
	case []byte:
		return bytes.NewReader(v), "", int64(len(v)), nil
	case string:
		return strings.NewReader(v), "text/plain", int64(len(v)), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", 0, err
		}
		return bytes.NewReader(data), "application/json", int64(len(data)), nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
