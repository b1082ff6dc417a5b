package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/apikit/logger"
)

// DefaultInterval is the metric export interval used when none is set.
const DefaultInterval = 15 * time.Second

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	c := MeterConfig{ServiceName: serviceName, ServiceVersion: "1.0.0", Environment: "development"}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in the unset endpoint and interval, like
// TracerConfig.ApplyDefaults.
func (c *MeterConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
		c.Insecure = true
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric names.
const (
	MetricRequestTotal    = "apikit.request.total"
	MetricRequestDuration = "apikit.request.duration"
	MetricRequestActive   = "apikit.request.active"
	MetricUploadBytes     = "apikit.upload.bytes"
)

// ClientMetrics holds the instruments recorded by an API client.
type ClientMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter
	uploadBytes     metric.Int64Counter
}

// NewClientMetrics creates metric instruments on the given meter.
func NewClientMetrics(meter metric.Meter) (*ClientMetrics, error) {
	requestTotal, err := meter.Int64Counter(MetricRequestTotal,
		metric.WithDescription("Total number of API calls by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRequestTotal, err)
	}

	requestDuration, err := meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("Duration of API calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRequestDuration, err)
	}

	requestActive, err := meter.Int64UpDownCounter(MetricRequestActive,
		metric.WithDescription("Number of API calls in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricRequestActive, err)
	}

	uploadBytes, err := meter.Int64Counter(MetricUploadBytes,
		metric.WithDescription("Multipart body bytes sent"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricUploadBytes, err)
	}

	return &ClientMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestActive:   requestActive,
		uploadBytes:     uploadBytes,
	}, nil
}

// RecordStart increments the in-flight call count.
func (m *ClientMetrics) RecordStart(ctx context.Context, client, operation string) {
	m.requestActive.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrClientName, client),
		attribute.String(AttrOperation, operation),
	))
}

// RecordEnd decrements the in-flight count and records the completed call.
func (m *ClientMetrics) RecordEnd(ctx context.Context, client, operation, method, outcome string, duration time.Duration) {
	m.requestActive.Add(ctx, -1, metric.WithAttributes(
		attribute.String(AttrClientName, client),
		attribute.String(AttrOperation, operation),
	))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrClientName, client),
		attribute.String(AttrOperation, operation),
		attribute.String(AttrMethod, method),
		attribute.String(AttrOutcome, outcome),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrClientName, client),
		attribute.String(AttrOperation, operation),
	))
}

// RecordUploadBytes adds n to the uploaded byte count.
func (m *ClientMetrics) RecordUploadBytes(ctx context.Context, client string, n int64) {
	if n <= 0 {
		return
	}
	m.uploadBytes.Add(ctx, n, metric.WithAttributes(attribute.String(AttrClientName, client)))
}
