// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/z5labs/tamed"
	"github.com/z5labs/tamed/queue/kafka"

	"github.com/cenkalti/backoff/v5"
	"github.com/twmb/franz-go/pkg/kgo"
)

// ErrInvalidOrder is returned for orders which can never be processed.
var ErrInvalidOrder = errors.New("invalid order")

// Order is the payload of every message on the orders topic.
type Order struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Quantity int    `json:"quantity"`
}

func decodeOrders(p *OrderProcessor) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		var order Order
		err := json.Unmarshal(msg.Value, &order)
		if err != nil {
			// Retrying won't fix a malformed payload.
			return backoff.Permanent(fmt.Errorf("%w: %w", ErrInvalidOrder, err))
		}
		return p.Process(ctx, order)
	}
}

// OrderProcessor handles decoded orders.
type OrderProcessor struct{}

// Process validates and fulfills order.
func (p *OrderProcessor) Process(ctx context.Context, order Order) error {
	if order.ID == "" || order.Quantity < 1 {
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrInvalidOrder, order.ID))
	}

	tamed.Logger("github.com/z5labs/tamed/example/kafka-recycle/orders").InfoContext(
		ctx,
		"fulfilled order",
		slog.String("order.id", order.ID),
		slog.Int("order.quantity", order.Quantity),
	)
	return nil
}

type recordProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Recycler forwards messages to the recycle topic, keeping their key and headers.
type Recycler struct {
	producer recordProducer
}

// Process implements the [queue.Processor] interface.
func (r *Recycler) Process(ctx context.Context, msg kafka.Message) error {
	record := &kgo.Record{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: []kgo.RecordHeader{
			{Key: "x-recycled-from", Value: []byte(msg.Topic)},
		},
	}
	for _, h := range msg.Headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: h.Key, Value: h.Value})
	}

	return r.producer.ProduceSync(ctx, record).FirstErr()
}
