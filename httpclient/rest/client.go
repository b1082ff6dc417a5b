package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/apikit/httpclient"
	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/observability"
)

// Client talks to one backend. It is safe for concurrent use; its
// configuration never changes after New.
type Client struct {
	config  Config
	adapter *httpclient.Adapter
	log     *logger.Logger
	metrics *observability.ClientMetrics

	adapterOpts []httpclient.Option
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithMetrics records call metrics on m.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClient replaces the transport's *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.adapterOpts = append(c.adapterOpts, httpclient.WithHTTPClient(hc))
	}
}

// New creates a client. The configuration is validated up front so a
// client is never half-configured.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.GetGlobalLogger()
	}
	c.log = c.log.WithComponent("rest").WithFields(logger.Fields("client", cfg.Name))

	adapter, err := httpclient.New(cfg.transport(), c.adapterOpts...)
	if err != nil {
		return nil, err
	}
	c.adapter = adapter
	c.adapterOpts = nil
	return c, nil
}

// Config returns the client configuration with defaults applied.
func (c *Client) Config() Config {
	return c.config
}

// CancelAll aborts every call in flight. They complete with a network
// error; later calls are unaffected.
func (c *Client) CancelAll() {
	c.mustBeConfigured()
	c.adapter.CancelAll()
	c.log.Info("canceled all in-flight requests")
}

// mustBeConfigured panics with ErrNotConfigured on a nil or unconfigured
// client. This is a programming error, not a call outcome.
func (c *Client) mustBeConfigured() {
	if c == nil || c.adapter == nil || c.config.BaseURL == "" {
		panic(ErrNotConfigured)
	}
}

// call tracks the logging and telemetry of one request or upload.
type call struct {
	ctx  context.Context
	log  *logger.Logger
	cc   *observability.CallContext
	span trace.Span
}

func (c *Client) begin(ctx context.Context, operation, spanName, endpoint, method string) *call {
	id := logger.RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = logger.ContextWithRequestID(ctx, id)
	}

	cc := observability.NewCallContext(c.config.Name, operation, endpoint, method, id, c.metrics)
	ctx, span := cc.Start(ctx, spanName)
	log := c.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldOperation, operation,
		logger.FieldEndpoint, endpoint,
		logger.FieldMethod, method,
	))
	log.Debug("call started")
	return &call{ctx: ctx, log: log, cc: cc, span: span}
}

func (k *call) end(outcome string, err *Error) {
	fields := logger.Fields(logger.FieldDuration, k.cc.Duration().Milliseconds())
	if err != nil {
		fields[logger.FieldKind] = err.Kind.String()
		fields[logger.FieldError] = err.Message
		k.log.Debug("call failed", fields)
		k.cc.End(k.ctx, k.span, outcome, err)
		return
	}
	k.log.Debug("call succeeded", fields)
	k.cc.End(k.ctx, k.span, outcome, nil)
}

// exchange runs req on the transport and resolves the outcome.
func exchange[T any](k *call, c *Client, req httpclient.Request) Result[T] {
	resp, err := c.adapter.Do(k.ctx, req)
	if resp == nil {
		return failure[T](transportError(err))
	}

	fields := logger.Fields(
		logger.FieldStatus, resp.StatusCode,
		logger.FieldBody, string(resp.Body),
	)
	// The envelope decides the outcome; the HTTP class is kept for diagnosis.
	var he *httpclient.Error
	if errors.As(err, &he) {
		fields[logger.FieldHTTPClass] = he.Code.String()
		fields[logger.FieldRetryable] = he.Retryable
	}
	k.log.Debug("response received", fields)
	return decode[T](decoder{strict: c.config.StrictPayload, log: k.log}, resp.Body)
}

// transportError maps a failure without a response onto the call taxonomy.
func transportError(err error) *Error {
	var he *httpclient.Error
	if !errors.As(err, &he) {
		if err == nil || err.Error() == "" {
			return NewUnknownError(MessageUnknown)
		}
		return NewNetworkError(err.Error())
	}

	switch he.Code {
	case httpclient.ErrCodeRequest:
		return NewBadRequestError(he.Message)
	case httpclient.ErrCodeCanceled:
		return NewNetworkError(MessageCanceled)
	}
	if he.Message == "" {
		return NewUnknownError(MessageUnknown)
	}
	return NewNetworkError(he.Message)
}
