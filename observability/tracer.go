package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/validation"
)

const tracerName = "github.com/kbukum/apikit/observability"

// Exporter defaults: a local collector over plain HTTP.
const (
	DefaultEndpoint   = "localhost:4318"
	DefaultSampleRate = 1.0
)

// TracerConfig configures span export over OTLP/HTTP.
type TracerConfig struct {
	ServiceName    string `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	Environment    string `yaml:"environment" mapstructure:"environment"`

	// Endpoint is the collector's host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`

	// SampleRate is the fraction of calls traced, from 0 to 1. Nil traces
	// every call; 0 turns tracing off.
	SampleRate *float64 `yaml:"sample_rate,omitempty" mapstructure:"sample_rate"`
}

// DefaultTracerConfig returns the configuration for a local collector.
func DefaultTracerConfig(serviceName string) TracerConfig {
	c := TracerConfig{ServiceName: serviceName, ServiceVersion: "1.0.0", Environment: "development"}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in the unset endpoint and sample rate. An unset
// endpoint means the local collector, without TLS.
func (c *TracerConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
		c.Insecure = true
	}
	if c.SampleRate == nil {
		rate := DefaultSampleRate
		c.SampleRate = &rate
	}
}

// Validate checks the configuration.
func (c *TracerConfig) Validate() error {
	rate := c.rate()
	return validation.New().
		Required("service_name", c.ServiceName).
		Required("endpoint", c.Endpoint).
		Custom(rate >= 0 && rate <= 1, "sample_rate", "must be between 0 and 1").
		Err()
}

func (c *TracerConfig) rate() float64 {
	if c.SampleRate == nil {
		return DefaultSampleRate
	}
	return *c.SampleRate
}

// InitTracer installs a global tracer provider exporting to the configured
// collector. The caller shuts it down on exit to flush pending spans.
func InitTracer(ctx context.Context, config *TracerConfig) (*sdktrace.TracerProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("tracer config: %w", err)
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(config.rate())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracer initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"sample_rate", config.rate(),
	))
	return tp, nil
}

// samplerFor honors the parent's decision and samples root spans at rate.
func samplerFor(rate float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case rate >= 1:
		root = sdktrace.AlwaysSample()
	case rate <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(root)
}

// newResource describes the process emitting spans and metrics.
func newResource(serviceName, serviceVersion, environment string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String(AttrServiceName, serviceName),
			attribute.String(AttrServiceVersion, serviceVersion),
			attribute.String(AttrEnvironment, environment),
		),
	)
}

// startSpan opens a span on the global provider.
func startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// Span names.
const (
	SpanRequest = "rest.request"
	SpanUpload  = "rest.upload"
)

// Attribute keys.
const (
	AttrServiceName    = "service.name"
	AttrServiceVersion = "service.version"
	AttrEnvironment    = "deployment.environment"
	AttrClientName     = "client.name"
	AttrOperation      = "operation.name"
	AttrEndpoint       = "http.endpoint"
	AttrMethod         = "http.method"
	AttrRequestID      = "request.id"
	AttrOutcome        = "outcome"
	AttrDurationMs     = "duration_ms"
	AttrErrorMessage   = "error.message"
)
