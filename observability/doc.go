// Package observability provides OpenTelemetry tracing and metrics for API
// clients.
//
// Tracing:
//
//	tracerCfg := observability.DefaultTracerConfig("my-app")
//	tp, err := observability.InitTracer(ctx, &tracerCfg)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewClientMetrics(observability.Meter("my-app"))
//
// Per call:
//
//	cc := observability.NewCallContext("backend", "request", "/app-settings", "GET", id, metrics)
//	ctx, span := cc.Start(ctx, observability.SpanRequest)
//	defer cc.End(ctx, span, observability.OutcomeSuccess, nil)
package observability
