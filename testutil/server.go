package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const maxMultipartMemory = 32 << 20

// Reply describes how a route answers.
type Reply struct {
	// StatusCode is the HTTP status. Defaults to 200.
	StatusCode int
	// Body is written verbatim.
	Body []byte
	// ContentType defaults to application/json.
	ContentType string
	// Delay postpones the answer. The wait ends early if the client goes away.
	Delay time.Duration
	// Hold blocks until the client cancels the request.
	Hold bool
	// Drop closes the connection without answering.
	Drop bool
}

// RawReply answers with body as is.
func RawReply(body string) Reply {
	return Reply{Body: []byte(body)}
}

// JSONReply answers with v encoded as JSON. It panics if v cannot be encoded.
func JSONReply(v any) Reply {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: encode reply: %v", err))
	}
	return Reply{Body: b}
}

// EnvelopeReply answers with {"status", "message", "responseData"}.
// A nil data is sent as null.
func EnvelopeReply(status int, message string, data any) Reply {
	return JSONReply(map[string]any{
		"status":       status,
		"message":      message,
		"responseData": data,
	})
}

// WithStatusCode returns a copy of r with the HTTP status set.
func (r Reply) WithStatusCode(code int) Reply {
	r.StatusCode = code
	return r
}

// File is an uploaded multipart file.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Hit is a recorded request.
type Hit struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	// Form holds urlencoded or multipart text fields.
	Form url.Values
	// Files holds multipart files by field name.
	Files map[string]File
	// Body is the raw request body.
	Body []byte
}

// JSON decodes the recorded body into v.
func (h Hit) JSON(v any) error {
	return json.Unmarshal(h.Body, v)
}

// EnvelopeServer is a fake backend that speaks the envelope protocol.
type EnvelopeServer struct {
	engine *gin.Engine
	ts     *httptest.Server

	mu      sync.RWMutex
	started bool
	hits    []Hit
	arrived chan struct{}
}

var _ TestComponent = (*EnvelopeServer)(nil)

// NewEnvelopeServer creates a server. Routes may be added before or after Start.
func NewEnvelopeServer() *EnvelopeServer {
	s := &EnvelopeServer{
		engine:  gin.New(),
		arrived: make(chan struct{}, 64),
	}
	s.engine.Use(gin.Recovery(), s.record)
	s.engine.NoRoute(func(c *gin.Context) {
		c.Data(http.StatusNotFound, "application/json", []byte(`{"status":404,"message":"not found","responseData":null}`))
	})
	return s
}

// Handle answers method requests on path with reply.
func (s *EnvelopeServer) Handle(method, path string, reply Reply) {
	s.engine.Handle(method, path, func(c *gin.Context) {
		answer(c, reply)
	})
}

// HandleFunc registers a custom Gin handler. Hits are recorded as usual.
func (s *EnvelopeServer) HandleFunc(method, path string, h gin.HandlerFunc) {
	s.engine.Handle(method, path, h)
}

// Engine returns the Gin engine for advanced routing.
func (s *EnvelopeServer) Engine() *gin.Engine {
	return s.engine
}

// BaseURL returns the server URL with a trailing slash, or "" before Start.
func (s *EnvelopeServer) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ts == nil {
		return ""
	}
	return s.ts.URL + "/"
}

// Hits returns a copy of the recorded requests in arrival order.
func (s *EnvelopeServer) Hits() []Hit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.hits)
}

// LastHit returns the most recent request, or a zero Hit.
func (s *EnvelopeServer) LastHit() Hit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.hits) == 0 {
		return Hit{}
	}
	return s.hits[len(s.hits)-1]
}

// AwaitHits blocks until n requests arrived after the last Reset, or ctx ends.
func (s *EnvelopeServer) AwaitHits(ctx context.Context, n int) error {
	for {
		s.mu.RLock()
		got := len(s.hits)
		s.mu.RUnlock()
		if got >= n {
			return nil
		}
		select {
		case <-s.arrived:
		case <-ctx.Done():
			return fmt.Errorf("testutil: waited for %d hits, got %d: %w", n, got, ctx.Err())
		}
	}
}

// record stores the request before the route runs.
func (s *EnvelopeServer) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	hit := Hit{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Header: c.Request.Header.Clone(),
		Query:  c.Request.URL.Query(),
		Form:   url.Values{},
		Files:  map[string]File{},
		Body:   body,
	}
	parseForm(c.Request, &hit)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.hits = append(s.hits, hit)
	s.mu.Unlock()
	select {
	case s.arrived <- struct{}{}:
	default:
	}

	c.Next()
}

func parseForm(r *http.Request, hit *Hit) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return
		}
		for k, vs := range r.MultipartForm.Value {
			hit.Form[k] = slices.Clone(vs)
		}
		for k, fhs := range r.MultipartForm.File {
			if len(fhs) == 0 {
				continue
			}
			fh := fhs[0]
			f, err := fh.Open()
			if err != nil {
				continue
			}
			data, _ := io.ReadAll(f)
			_ = f.Close()
			hit.Files[k] = File{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			}
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err == nil {
			for k, vs := range r.PostForm {
				hit.Form[k] = slices.Clone(vs)
			}
		}
	}
}

func answer(c *gin.Context, reply Reply) {
	if reply.Drop {
		if hj, ok := c.Writer.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
		}
		c.Abort()
		return
	}

	ctx := c.Request.Context()
	if reply.Hold {
		<-ctx.Done()
		c.Abort()
		return
	}
	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-ctx.Done():
			c.Abort()
			return
		}
	}

	code := reply.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	contentType := reply.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(code, contentType, reply.Body)
}

// --- TestComponent ---

// Name implements TestComponent.
func (s *EnvelopeServer) Name() string { return "envelope-server" }

// Start implements TestComponent.
func (s *EnvelopeServer) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("component already started")
	}
	s.ts = httptest.NewServer(s.engine)
	s.started = true
	return nil
}

// Stop implements TestComponent.
func (s *EnvelopeServer) Stop(_ context.Context) error {
	s.mu.Lock()
	ts := s.ts
	s.ts = nil
	s.started = false
	s.mu.Unlock()

	if ts != nil {
		ts.CloseClientConnections()
		ts.Close()
	}
	return nil
}

// Reset clears the recorded hits. Routes are kept.
func (s *EnvelopeServer) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = nil
	for {
		select {
		case <-s.arrived:
		default:
			return nil
		}
	}
}

// Snapshot returns a copy of the recorded hits.
func (s *EnvelopeServer) Snapshot(_ context.Context) (interface{}, error) {
	return s.Hits(), nil
}

// Restore replaces the recorded hits with a snapshot.
func (s *EnvelopeServer) Restore(_ context.Context, snapshot interface{}) error {
	hits, ok := snapshot.([]Hit)
	if !ok {
		return fmt.Errorf("testutil: snapshot is %T, want []Hit", snapshot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = slices.Clone(hits)
	return nil
}
