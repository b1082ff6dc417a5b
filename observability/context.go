package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Call outcomes shared by spans, metrics and logs.
const (
	OutcomeSuccess    = "success"
	OutcomeBadRequest = "bad_request"
	OutcomeNetwork    = "network"
	OutcomeParsing    = "parsing"
	OutcomeUnknown    = "unknown"
)

// CallContext holds observability context for one API call.
type CallContext struct {
	ClientName string
	Operation  string
	Endpoint   string
	Method     string
	RequestID  string
	StartTime  time.Time
	Metrics    *ClientMetrics
}

// NewCallContext creates a new call context.
// If metrics is nil, metric recording is silently skipped.
func NewCallContext(clientName, operation, endpoint, method, requestID string, metrics *ClientMetrics) *CallContext {
	return &CallContext{
		ClientName: clientName,
		Operation:  operation,
		Endpoint:   endpoint,
		Method:     method,
		RequestID:  requestID,
		StartTime:  time.Now(),
		Metrics:    metrics,
	}
}

type callContextKey struct{}

// WithCallContext stores a CallContext in the context.
func WithCallContext(ctx context.Context, cc *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, cc)
}

// CallContextFromContext retrieves the CallContext from context, or nil.
func CallContextFromContext(ctx context.Context) *CallContext {
	if cc, ok := ctx.Value(callContextKey{}).(*CallContext); ok {
		return cc
	}
	return nil
}

// Start opens the call span and records the in-flight metric.
func (cc *CallContext) Start(ctx context.Context, spanName string) (context.Context, trace.Span) {
	ctx, span := startSpan(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(AttrClientName, cc.ClientName),
		attribute.String(AttrOperation, cc.Operation),
		attribute.String(AttrEndpoint, cc.Endpoint),
		attribute.String(AttrMethod, cc.Method),
		attribute.String(AttrRequestID, cc.RequestID),
	)

	if cc.Metrics != nil {
		cc.Metrics.RecordStart(ctx, cc.ClientName, cc.Operation)
	}
	return WithCallContext(ctx, cc), span
}

// End closes the span and records the outcome. err is nil on success.
func (cc *CallContext) End(ctx context.Context, span trace.Span, outcome string, err error) {
	duration := time.Since(cc.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if cc.Metrics != nil {
		cc.Metrics.RecordEnd(ctx, cc.ClientName, cc.Operation, cc.Method, outcome, duration)
	}
}

// Duration returns the elapsed time since the call started.
func (cc *CallContext) Duration() time.Duration {
	return time.Since(cc.StartTime)
}
