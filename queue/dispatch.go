// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/z5labs/tamed"

	"github.com/cenkalti/backoff/v5"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dispatcher runs the attempt, retry and recycle lifecycle for a single message.
type Dispatcher[T any] struct {
	log       *slog.Logger
	tracer    trace.Tracer
	metrics   engineMetrics
	processor Processor[T]
	recycler  Processor[T]
	policy    RetryPolicy
	attrs     func(T) []slog.Attr
}

// NewDispatcher validates cfg and returns a [Dispatcher] for it.
// Concurrency and Flow are not used by the [Dispatcher].
func NewDispatcher[T any](cfg Config[T]) (*Dispatcher[T], error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Dispatcher[T]{
		log:       cfg.Logger,
		tracer:    tracer(),
		metrics:   initEngineMetrics(cfg.Logger),
		processor: cfg.Processor,
		recycler:  cfg.Recycler,
		policy:    cfg.Retry,
		attrs:     cfg.MessageAttrs,
	}, nil
}

// Dispatch handles msg and reports the terminal [Outcome]. Handler errors and
// panics are logged and never escape Dispatch.
//
// The primary [Processor] is called up to MaxAttempts times. If every attempt
// fails msg is passed to the recycler exactly once. A failing recycler drops msg.
// If ctx is cancelled while waiting to retry, msg is neither retried nor recycled.
func (d *Dispatcher[T]) Dispatch(ctx context.Context, msg T) Outcome {
	attrs := d.attrs(msg)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	log := d.log.With(args...)

	spanCtx, span := d.tracer.Start(ctx, "dispatch", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	outcome := d.dispatch(spanCtx, log, msg)
	span.SetAttributes(attribute.String("tamed.dispatch.outcome", string(outcome)))
	d.metrics.recordOutcome(spanCtx, outcome)

	log.DebugContext(spanCtx, "message handling finished")
	return outcome
}

func (d *Dispatcher[T]) dispatch(ctx context.Context, log *slog.Logger, msg T) Outcome {
	log.InfoContext(ctx, "message handling started")

	attempt := 0
	_, err := backoff.Retry(
		ctx,
		func() (struct{}, error) {
			attempt++
			d.metrics.attempts.Add(ctx, 1)
			return struct{}{}, invoke(ctx, d.processor, msg)
		},
		backoff.WithBackOff(d.policy.newBackOff()),
		backoff.WithMaxTries(uint(d.policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			trace.SpanFromContext(ctx).AddEvent("retry", trace.WithAttributes(
				attribute.Int("tamed.dispatch.attempt", attempt),
			))
			log.WarnContext(
				ctx,
				"message handling failed, retrying",
				AttemptAttr(attempt),
				RetryInAttr(next),
				errorAttr(err),
			)
		}),
	)
	if err == nil {
		log.InfoContext(ctx, "message handling successful", AttemptAttr(attempt))
		return OutcomeProcessed
	}

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if ctx.Err() != nil {
		log.WarnContext(ctx, "message handling interrupted", AttemptAttr(attempt), errorAttr(err))
		return OutcomeInterrupted
	}

	log.WarnContext(ctx, "message handling failed, redirecting to recycler", AttemptAttr(attempt), errorAttr(err))
	tamed.Trace(ctx, log, "message handling failed payload", slog.Any("message", msg))

	return d.recycle(ctx, log, msg)
}

func (d *Dispatcher[T]) recycle(ctx context.Context, log *slog.Logger, msg T) Outcome {
	if d.recycler == nil {
		log.WarnContext(ctx, "message failed to process and no recycler available", slog.Any("message", msg))
		return OutcomeDropped
	}

	log.InfoContext(ctx, "message recycle started")
	err := invoke(ctx, d.recycler, msg)
	if err != nil {
		log.ErrorContext(
			ctx,
			"message recycle failed, dropping message",
			errorAttr(err),
			slog.Any("message", msg),
		)
		return OutcomeDropped
	}

	log.InfoContext(ctx, "message recycle successful")
	return OutcomeRecycled
}

func invoke[T any](ctx context.Context, p Processor[T], msg T) (err error) {
	defer try.Recover(&err)

	return p.Process(ctx, msg)
}
