// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import "log/slog"

// GroupIDAttr returns a slog attribute for the Kafka consumer group ID.
func GroupIDAttr(groupID string) slog.Attr {
	return slog.String("messaging.consumer.group.name", groupID)
}

// ClientIDAttr returns a slog attribute for the Kafka client ID.
func ClientIDAttr(clientID string) slog.Attr {
	return slog.String("messaging.client.id", clientID)
}

// TopicAttr returns a slog attribute for the Kafka topic.
func TopicAttr(topic string) slog.Attr {
	return slog.String("messaging.destination.name", topic)
}

// PartitionAttr returns a slog attribute for the Kafka partition.
func PartitionAttr(partition int32) slog.Attr {
	return slog.Int64("messaging.destination.partition.id", int64(partition))
}

// OffsetAttr returns a slog attribute for the Kafka offset.
func OffsetAttr(offset int64) slog.Attr {
	return slog.Int64("messaging.kafka.offset", offset)
}

// KeyAttr returns a slog attribute for the Kafka message key.
func KeyAttr(key []byte) slog.Attr {
	return slog.String("messaging.kafka.message.key", string(key))
}
