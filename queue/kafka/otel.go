// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"log/slog"

	"github.com/z5labs/tamed"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/z5labs/tamed/queue/kafka"

func logger() *slog.Logger {
	return tamed.Logger(instrumentationName)
}

func clientLogger() *slog.Logger {
	return tamed.Logger("github.com/twmb/franz-go/pkg/kgo")
}

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
