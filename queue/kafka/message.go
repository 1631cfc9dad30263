// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Header represents a Kafka message header.
type Header struct {
	Key   string
	Value []byte
}

// Message represents a Kafka message.
type Message struct {
	Key       []byte
	Value     []byte
	Headers   []Header
	Timestamp time.Time
	Topic     string
	Partition int32
	Offset    int64

	record *kgo.Record
}

func newMessage(r *kgo.Record) Message {
	var headers []Header
	if len(r.Headers) > 0 {
		headers = make([]Header, len(r.Headers))
		for i, h := range r.Headers {
			headers[i] = Header{Key: h.Key, Value: h.Value}
		}
	}

	return Message{
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		record:    r,
	}
}

// LogValue implements the [slog.LogValuer] interface. The full message,
// including its value, is rendered so it can be recovered from logs.
func (m Message) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("topic", m.Topic),
		slog.Int64("partition", int64(m.Partition)),
		slog.Int64("offset", m.Offset),
		slog.String("key", string(m.Key)),
		slog.String("value", string(m.Value)),
		slog.Time("timestamp", m.Timestamp),
	}
	if len(m.Headers) > 0 {
		headers := make([]any, len(m.Headers))
		for i, h := range m.Headers {
			headers[i] = slog.String(h.Key, string(h.Value))
		}
		attrs = append(attrs, slog.Group("headers", headers...))
	}
	return slog.GroupValue(attrs...)
}

// MessageAttrs returns the attributes every log record about m is tagged with.
func MessageAttrs(m Message) []slog.Attr {
	return []slog.Attr{
		TopicAttr(m.Topic),
		PartitionAttr(m.Partition),
		OffsetAttr(m.Offset),
		KeyAttr(m.Key),
	}
}
