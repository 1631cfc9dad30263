// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command kafka-recycle consumes orders from Kafka and forwards orders which
// could not be handled to a recycle topic.
//
// Brokers, consumer group and topic are read from the KAFKA_BROKERS, KAFKA_GROUP_ID
// and KAFKA_TOPIC environment variables.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"os"

	"github.com/z5labs/tamed/app"
	"github.com/z5labs/tamed/config"
	"github.com/z5labs/tamed/example/kafka-recycle/orders"
	"github.com/z5labs/tamed/internal/otel"
)

//go:embed config.yaml
var configBytes []byte

func main() {
	err := run(context.Background())
	if err != nil {
		app.LogError(slog.NewJSONHandler(os.Stderr, nil), err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	cfg, err := config.Read(ctx, config.UnmarshalYAML[orders.Config](config.ReaderOf(bytes.NewReader(configBytes))))
	if err != nil {
		return err
	}

	shutdown, err := otel.Initialize(ctx, cfg.OTel)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, shutdown(context.Background()))
	}()

	return app.Run(ctx, orders.Build(cfg))
}
