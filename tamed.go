// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tamed provides a flow-controlled message processing engine which sits
// between a streaming message source, like a Kafka consumer group, and your
// message handling logic.
//
// The engine itself lives in the [github.com/z5labs/tamed/queue] package and the
// Kafka integration in [github.com/z5labs/tamed/queue/kafka]. This package only
// holds the logging conventions shared by both.
package tamed

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// LevelTrace is more verbose than [slog.LevelDebug] and is used for
// dumping message payloads.
const LevelTrace = slog.LevelDebug - 4

// Logger returns a [slog.Logger] which forwards all records to the
// global OpenTelemetry LoggerProvider under the given instrumentation name.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// Trace logs msg at [LevelTrace].
func Trace(ctx context.Context, log *slog.Logger, msg string, attrs ...slog.Attr) {
	log.LogAttrs(ctx, LevelTrace, msg, attrs...)
}
