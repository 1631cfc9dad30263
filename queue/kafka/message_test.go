// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestNewMessage(t *testing.T) {
	t.Run("will copy the record fields", func(t *testing.T) {
		ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		record := &kgo.Record{
			Key:       []byte("order-1"),
			Value:     []byte(`{"id":1}`),
			Headers:   []kgo.RecordHeader{{Key: "trace", Value: []byte("abc")}},
			Timestamp: ts,
			Topic:     "orders",
			Partition: 2,
			Offset:    42,
		}

		msg := newMessage(record)

		require.Equal(t, []byte("order-1"), msg.Key)
		require.Equal(t, []byte(`{"id":1}`), msg.Value)
		require.Equal(t, []Header{{Key: "trace", Value: []byte("abc")}}, msg.Headers)
		require.Equal(t, ts, msg.Timestamp)
		require.Equal(t, "orders", msg.Topic)
		require.Equal(t, int32(2), msg.Partition)
		require.Equal(t, int64(42), msg.Offset)
		require.Same(t, record, msg.record)
	})
}

func TestMessage_LogValue(t *testing.T) {
	t.Run("will render the full message", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, nil))

		msg := Message{
			Key:       []byte("order-1"),
			Value:     []byte("payload"),
			Headers:   []Header{{Key: "trace", Value: []byte("abc")}},
			Topic:     "orders",
			Partition: 2,
			Offset:    42,
		}
		log.Info("hello", slog.Any("message", msg))

		var record struct {
			Message struct {
				Topic     string            `json:"topic"`
				Partition int               `json:"partition"`
				Offset    int               `json:"offset"`
				Key       string            `json:"key"`
				Value     string            `json:"value"`
				Headers   map[string]string `json:"headers"`
			} `json:"message"`
		}
		require.Nil(t, json.Unmarshal(buf.Bytes(), &record))
		require.Equal(t, "orders", record.Message.Topic)
		require.Equal(t, 2, record.Message.Partition)
		require.Equal(t, 42, record.Message.Offset)
		require.Equal(t, "order-1", record.Message.Key)
		require.Equal(t, "payload", record.Message.Value)
		require.Equal(t, map[string]string{"trace": "abc"}, record.Message.Headers)
	})
}

func TestMessageAttrs(t *testing.T) {
	t.Run("will tag topic, partition, offset and key", func(t *testing.T) {
		attrs := MessageAttrs(Message{
			Key:       []byte("order-1"),
			Topic:     "orders",
			Partition: 2,
			Offset:    42,
		})

		require.Equal(t, []slog.Attr{
			TopicAttr("orders"),
			PartitionAttr(2),
			OffsetAttr(42),
			KeyAttr([]byte("order-1")),
		}, attrs)
	})
}
