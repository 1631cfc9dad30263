// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"context"
	"log/slog"

	"github.com/z5labs/tamed"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/z5labs/tamed/queue"

func logger() *slog.Logger {
	return tamed.Logger(instrumentationName)
}

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Outcome is the terminal state of a dispatched message.
type Outcome string

const (
	OutcomeProcessed   Outcome = "processed"
	OutcomeRecycled    Outcome = "recycled"
	OutcomeDropped     Outcome = "dropped"
	OutcomeInterrupted Outcome = "interrupted"
)

type engineMetrics struct {
	attempts    metric.Int64Counter
	messages    metric.Int64Counter
	occupancy   metric.Int64UpDownCounter
	transitions metric.Int64Counter
}

func initEngineMetrics(log *slog.Logger) engineMetrics {
	m := meter()

	attempts, err := m.Int64Counter(
		"tamed.dispatch.attempts",
		metric.WithDescription("Total number of primary handler invocations"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		log.Warn("failed to create dispatch attempts metric", errorAttr(err))
		attempts = noop.Int64Counter{}
	}

	messages, err := m.Int64Counter(
		"tamed.dispatch.messages",
		metric.WithDescription("Total number of dispatched messages by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		log.Warn("failed to create dispatched messages metric", errorAttr(err))
		messages = noop.Int64Counter{}
	}

	occupancy, err := m.Int64UpDownCounter(
		"tamed.queue.occupancy",
		metric.WithDescription("Number of messages admitted to the processing queue and not yet completed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		log.Warn("failed to create queue occupancy metric", errorAttr(err))
		occupancy = noop.Int64UpDownCounter{}
	}

	transitions, err := m.Int64Counter(
		"tamed.source.transitions",
		metric.WithDescription("Total number of source pause and resume commands"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		log.Warn("failed to create source transitions metric", errorAttr(err))
		transitions = noop.Int64Counter{}
	}

	return engineMetrics{
		attempts:    attempts,
		messages:    messages,
		occupancy:   occupancy,
		transitions: transitions,
	}
}

func (m engineMetrics) recordOutcome(ctx context.Context, outcome Outcome) {
	m.messages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tamed.dispatch.outcome", string(outcome)),
	))
}

func (m engineMetrics) recordTransition(ctx context.Context, state RunState) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tamed.source.state", state.String()),
	))
}
