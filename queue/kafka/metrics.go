// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"

	"github.com/z5labs/tamed/queue"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metricsRecorder holds OTel metric instruments for tracking Kafka message delivery.
type metricsRecorder struct {
	messagesDelivered metric.Int64Counter
	messagesMarked    metric.Int64Counter
	fetchErrors       metric.Int64Counter
}

// newMetricsRecorder creates a new metricsRecorder with initialized metric instruments.
func newMetricsRecorder() (*metricsRecorder, error) {
	m := meter()

	messagesDelivered, err := m.Int64Counter(
		"messaging.client.messages.delivered",
		metric.WithDescription("Total number of Kafka messages delivered to the engine"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	messagesMarked, err := m.Int64Counter(
		"messaging.client.messages.marked",
		metric.WithDescription("Total number of Kafka messages marked for commit"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := m.Int64Counter(
		"messaging.client.fetch.errors",
		metric.WithDescription("Total number of Kafka fetch errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsRecorder{
		messagesDelivered: messagesDelivered,
		messagesMarked:    messagesMarked,
		fetchErrors:       fetchErrors,
	}, nil
}

func partitionAttrs(topic string, partition int32) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("messaging.destination.name", topic),
		attribute.Int("messaging.destination.partition.id", int(partition)),
	}
}

// recordMessageDelivered records a message handed to the engine.
func (m *metricsRecorder) recordMessageDelivered(ctx context.Context, topic string, partition int32) {
	m.messagesDelivered.Add(ctx, 1, metric.WithAttributes(partitionAttrs(topic, partition)...))
}

// recordMessageMarked records a message whose offset was marked for commit.
func (m *metricsRecorder) recordMessageMarked(ctx context.Context, topic string, partition int32, outcome queue.Outcome) {
	attrs := append(
		partitionAttrs(topic, partition),
		attribute.String("tamed.dispatch.outcome", string(outcome)),
	)
	m.messagesMarked.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// recordFetchError records a failed partition fetch.
func (m *metricsRecorder) recordFetchError(ctx context.Context, topic string, partition int32) {
	m.fetchErrors.Add(ctx, 1, metric.WithAttributes(partitionAttrs(topic, partition)...))
}
