// Package observability wires tracing (OpenTelemetry, OTLP over gRPC) and the
// service-level Prometheus collectors for the chat relay and form
// submissions. HTTP-level metrics live in the middleware package.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-compliance-backend/internal/config"
)

// instrumentationPrefix namespaces tracer names created through Tracer.
const instrumentationPrefix = "compliance-backend/"

// serviceNamespace groups the funnel's services in trace backends.
const serviceNamespace = "compliance-funnel"

// Funnel resource attribute keys.
const (
	AttrStoreDriver = attribute.Key("funnel.store.driver")
	AttrChatModel   = attribute.Key("funnel.chat.model")
)

// Swapped by tests to fail exporter or resource construction.
var (
	newTraceClient = otlptracegrpc.NewClient

	newTraceExporter = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newFunnelResource = func(ctx context.Context, serviceName, version string, extra []attribute.KeyValue) (*resource.Resource, error) {
		attrs := append([]attribute.KeyValue{
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
			semconv.ServiceNamespace(serviceNamespace),
		}, extra...)
		// OTEL_RESOURCE_ATTRIBUTES is applied first so the values above win.
		return resource.New(ctx,
			resource.WithFromEnv(),
			resource.WithTelemetrySDK(),
			resource.WithAttributes(attrs...),
		)
	}
)

// FunnelAttributes describes the running backend: which submission store is
// in use and which model answers the chat relay.
func FunnelAttributes(storeDriver, chatModel string) []attribute.KeyValue {
	if storeDriver == "" {
		storeDriver = "memory"
	}
	return []attribute.KeyValue{
		AttrStoreDriver.String(storeDriver),
		AttrChatModel.String(chatModel),
	}
}

// Tracer returns a named tracer from the global provider. Before SetupOTel
// runs (or when tracing is disabled) it is a no-op tracer.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + component)
}

// SetupOTel installs the global tracer provider and W3C propagators when
// tracing is enabled, and returns the matching shutdown function. attrs are
// added to the service resource, typically FunnelAttributes. On failure the
// globals are left untouched.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string, attrs ...attribute.KeyValue) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newTraceExporter(ctx, newTraceClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := newFunnelResource(ctx, cfg.ServiceName, version, attrs)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}
