//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package metric starts OTLP metric export for the tool host and the chat
// loop and wires the module's instruments to it.
package metric

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	itelemetry "trpc.group/trpc-go/trpc-toolchat-go/internal/telemetry"
)

// shutdownTimeout bounds the final flush of clean.
const shutdownTimeout = 5 * time.Second

// InitMeterProvider creates the chat and execute_tool instruments from mp.
func InitMeterProvider(mp metric.MeterProvider) error {
	if mp == nil {
		return fmt.Errorf("meter provider is nil")
	}
	return itelemetry.InitMeterProvider(mp)
}

// GetMeterProvider returns the provider the instruments were created from.
func GetMeterProvider() metric.MeterProvider {
	return itelemetry.MeterProvider
}

// Start creates an OTLP meter provider, installs it globally and wires the
// instruments to it. The returned clean function flushes and shuts it down.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	mp, err := NewMeterProvider(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := InitMeterProvider(mp); err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	otel.SetMeterProvider(mp)
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return mp.Shutdown(ctx)
	}, nil
}

// NewMeterProvider creates a meter provider exporting over OTLP every
// export interval. Without WithEndpoint the endpoint comes from
// OTEL_EXPORTER_OTLP_METRICS_ENDPOINT, then OTEL_EXPORTER_OTLP_ENDPOINT, then
// localhost:4317 for grpc or localhost:4318 for http.
func NewMeterProvider(ctx context.Context, opts ...Option) (*sdkmetric.MeterProvider, error) {
	o := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.endpoint == "" {
		o.endpoint = metricsEndpoint(o.protocol)
	}

	res, err := buildResource(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	exporter, err := newExporter(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s metric exporter: %w", o.protocol, err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if o.interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(o.interval))
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
	), nil
}

func newExporter(ctx context.Context, o *options) (sdkmetric.Exporter, error) {
	if o.protocol == itelemetry.ProtocolHTTP {
		httpOpts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(o.endpoint),
			otlpmetrichttp.WithInsecure(),
		}
		if len(o.headers) > 0 {
			httpOpts = append(httpOpts, otlpmetrichttp.WithHeaders(o.headers))
		}
		return otlpmetrichttp.New(ctx, httpOpts...)
	}

	conn, err := itelemetry.NewGRPCConn(o.endpoint)
	if err != nil {
		return nil, err
	}
	grpcOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithGRPCConn(conn)}
	if len(o.headers) > 0 {
		grpcOpts = append(grpcOpts, otlpmetricgrpc.WithHeaders(o.headers))
	}
	return otlpmetricgrpc.New(ctx, grpcOpts...)
}

func metricsEndpoint(protocol string) string {
	for _, key := range []string{"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		if endpoint := os.Getenv(key); endpoint != "" {
			return endpoint
		}
	}
	if protocol == itelemetry.ProtocolHTTP {
		return "localhost:4318"
	}
	return "localhost:4317"
}

// Option is a function that configures meter options.
type Option func(*options)

type options struct {
	endpoint           string
	headers            map[string]string
	interval           time.Duration
	protocol           string
	serviceName        string
	serviceNamespace   string
	serviceVersion     string
	resourceAttributes []attribute.KeyValue
}

// WithEndpoint sets the collector host and port, e.g. "collector:4317".
// It takes precedence over the OTEL_EXPORTER_OTLP_* variables.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.endpoint = endpoint
	}
}

// WithHeaders sets headers sent with every export request.
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		opts.headers = headers
	}
}

// WithInterval sets how often metrics are exported. The SDK default is one
// minute.
func WithInterval(interval time.Duration) Option {
	return func(opts *options) {
		opts.interval = interval
	}
}

// WithProtocol selects "grpc" (default) or "http".
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(serviceName string) Option {
	return func(opts *options) {
		opts.serviceName = serviceName
	}
}

// WithServiceNamespace overrides the service.namespace resource attribute.
func WithServiceNamespace(serviceNamespace string) Option {
	return func(opts *options) {
		opts.serviceNamespace = serviceNamespace
	}
}

// WithServiceVersion overrides the service.version resource attribute.
func WithServiceVersion(serviceVersion string) Option {
	return func(opts *options) {
		opts.serviceVersion = serviceVersion
	}
}

// WithResourceAttributes appends custom resource attributes.
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return func(opts *options) {
		opts.resourceAttributes = append(opts.resourceAttributes, attrs...)
	}
}

func buildResource(ctx context.Context, o *options) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{
		semconv.ServiceNamespace(o.serviceNamespace),
		semconv.ServiceName(o.serviceName),
		semconv.ServiceVersion(o.serviceVersion),
	}, o.resourceAttributes...)
	return resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
}
