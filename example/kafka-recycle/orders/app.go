// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package orders

import (
	"context"
	"fmt"

	"github.com/z5labs/tamed/app"
	"github.com/z5labs/tamed/config"
	"github.com/z5labs/tamed/queue"
	"github.com/z5labs/tamed/queue/kafka"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Config holds the application configuration.
type Config struct {
	OTel config.OTel `yaml:"otel"`

	Kafka struct {
		RecycleTopic string `yaml:"recycle_topic"`
	} `yaml:"kafka"`
}

// Build wires the order handler and the recycle producer into a Kafka engine.
func Build(cfg Config) app.Builder[app.Runtime] {
	return app.BuilderFunc[app.Runtime](func(ctx context.Context) (app.Runtime, error) {
		brokers, err := config.Read(ctx, kafka.BrokersFromEnv())
		if err != nil {
			return nil, fmt.Errorf("failed to read brokers: %w", err)
		}

		producer, err := kgo.NewClient(
			kgo.SeedBrokers(brokers...),
			kgo.DefaultProduceTopic(cfg.Kafka.RecycleTopic),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create recycle producer: %w", err)
		}

		rt, err := kafka.Build(kafka.Config{
			Brokers:       config.Static(brokers),
			GroupID:       kafka.GroupIDFromEnv(),
			Topic:         kafka.TopicFromEnv(),
			Concurrency:   kafka.ConcurrencyFromEnv(),
			RetryTimes:    kafka.RetryTimesFromEnv(),
			RetryInterval: kafka.RetryIntervalFromEnv(),
			Processor:     queue.ProcessorFunc[kafka.Message](decodeOrders(&OrderProcessor{})),
			Recycler:      &Recycler{producer: producer},
		}).Build(ctx)
		if err != nil {
			producer.Close()
			return nil, err
		}

		return app.RuntimeFunc(func(ctx context.Context) error {
			defer producer.Close()

			return rt.Run(ctx)
		}), nil
	})
}
