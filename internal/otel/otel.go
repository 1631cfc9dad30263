// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel initializes the global OpenTelemetry providers used by
// tamed loggers, tracers and meters.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/z5labs/tamed/config"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// UnknownOTLPConnTypeError is returned for OTLP configs whose Type is neither grpc nor http.
type UnknownOTLPConnTypeError struct {
	Type config.OTLPConnType
}

// Error implements the [error] interface.
func (e UnknownOTLPConnTypeError) Error() string {
	return fmt.Sprintf("otel: unknown otlp connection type: %s", e.Type)
}

// ShutdownFunc flushes and stops every provider registered by [Initialize].
type ShutdownFunc func(context.Context) error

// Initialize registers global trace, metric and log providers built from cfg.
// Signals without an OTLP target fall back to: no tracing, no metrics and
// JSON logs written to stdout.
func Initialize(ctx context.Context, cfg config.OTel) (ShutdownFunc, error) {
	return initialize(ctx, cfg, os.Stdout)
}

func initialize(ctx context.Context, cfg config.OTel, stdout io.Writer) (ShutdownFunc, error) {
	r, err := newResource(ctx, cfg.Resource)
	if err != nil {
		return nil, err
	}

	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs error
		for _, f := range shutdowns {
			errs = errors.Join(errs, f(ctx))
		}
		return errs
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tp, err := initTracerProvider(ctx, cfg.Trace, r)
	if err != nil {
		return nil, err
	}
	if tp != nil {
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	mp, err := initMeterProvider(ctx, cfg.Metric, r)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}
	if mp != nil {
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)

		err = runtime.Start(runtime.WithMeterProvider(mp))
		if err != nil {
			return nil, errors.Join(err, shutdown(ctx))
		}
	}

	lp, err := initLoggerProvider(ctx, cfg.Log, r, stdout)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}
	global.SetLoggerProvider(lp)
	shutdowns = append(shutdowns, lp.Shutdown)

	return shutdown, nil
}

func initTracerProvider(ctx context.Context, cfg config.Trace, r *resource.Resource) (*sdktrace.TracerProvider, error) {
	if cfg.OTLP.Target == "" {
		return nil, nil
	}

	var exp sdktrace.SpanExporter
	var err error
	switch cfg.OTLP.Type {
	case config.OTLPGRPC:
		exp, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.OTLP.Target), otlptracegrpc.WithInsecure())
	case config.OTLPHTTP:
		exp, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.OTLP.Target), otlptracehttp.WithInsecure())
	default:
		return nil, UnknownOTLPConnTypeError{Type: cfg.OTLP.Type}
	}
	if err != nil {
		return nil, err
	}

	ratio := cfg.SamplingRatio
	if ratio <= 0 {
		ratio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(r),
	)
	return tp, nil
}

func initMeterProvider(ctx context.Context, cfg config.Metric, r *resource.Resource) (*sdkmetric.MeterProvider, error) {
	if cfg.OTLP.Target == "" {
		return nil, nil
	}

	var exp sdkmetric.Exporter
	var err error
	switch cfg.OTLP.Type {
	case config.OTLPGRPC:
		exp, err = otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.OTLP.Target), otlpmetricgrpc.WithInsecure())
	case config.OTLPHTTP:
		exp, err = otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.OTLP.Target), otlpmetrichttp.WithInsecure())
	default:
		return nil, UnknownOTLPConnTypeError{Type: cfg.OTLP.Type}
	}
	if err != nil {
		return nil, err
	}

	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(r),
	)
	return mp, nil
}

func initLoggerProvider(ctx context.Context, cfg config.Log, r *resource.Resource, stdout io.Writer) (*sdklog.LoggerProvider, error) {
	var processor sdklog.Processor
	switch {
	case cfg.OTLP.Target == "":
		processor = sdklog.NewSimpleProcessor(newJSONExporter(stdout))
	case cfg.OTLP.Type == config.OTLPGRPC:
		exp, err := otlploggrpc.New(ctx, otlploggrpc.WithEndpoint(cfg.OTLP.Target), otlploggrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		processor = sdklog.NewBatchProcessor(exp)
	case cfg.OTLP.Type == config.OTLPHTTP:
		exp, err := otlploghttp.New(ctx, otlploghttp.WithEndpoint(cfg.OTLP.Target), otlploghttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		processor = sdklog.NewBatchProcessor(exp)
	default:
		return nil, UnknownOTLPConnTypeError{Type: cfg.OTLP.Type}
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(newLevelProcessor(processor, cfg.Levels)),
		sdklog.WithResource(r),
	)
	return lp, nil
}
