// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrNilSource is returned by [NewEngine] when no [Source] is given.
	ErrNilSource = errors.New("queue: source must not be nil")

	// ErrNilProcessor is returned when [Config] has no primary [Processor].
	ErrNilProcessor = errors.New("queue: processor must not be nil")

	// ErrInvalidConcurrency is returned when [Config] has a negative concurrency.
	ErrInvalidConcurrency = errors.New("queue: concurrency must be at least 1")
)

// Config configures how messages, T, are handled by the engine.
// Only Processor is required.
type Config[T any] struct {
	// Processor is the primary handler.
	Processor Processor[T]

	// Recycler receives messages for which Processor exhausted its retries.
	// When nil, such messages are logged at warn level with their
	// full content and dropped.
	Recycler Processor[T]

	// Concurrency is the maximum number of messages handled at once.
	// Defaults to 1, which processes messages strictly in order.
	Concurrency int

	// Retry defaults to [DefaultRetryPolicy] when left as its zero value.
	Retry RetryPolicy

	// Logger defaults to a logger backed by the global OpenTelemetry LoggerProvider.
	Logger *slog.Logger

	// Flow decides when the source is paused and resumed.
	// Defaults to [PauseUntilDrained].
	Flow FlowStrategy

	// MessageAttrs tags every per-message log record, typically with
	// the message offset and key.
	MessageAttrs func(T) []slog.Attr

	// OnOutcome is called by the [Engine] once a message reached its terminal [Outcome].
	// Sources use it to acknowledge messages, e.g. marking Kafka offsets for commit.
	OnOutcome func(context.Context, T, Outcome)
}

// Validate reports whether cfg, with defaults applied, can be used to create an [Engine].
func (cfg Config[T]) Validate() error {
	return cfg.withDefaults().validate()
}

func (cfg Config[T]) withDefaults() Config[T] {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 1
	}
	if cfg.Retry.MaxAttempts == 0 && cfg.Retry.Interval == 0 && cfg.Retry.BackOff == nil {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger()
	}
	if cfg.Flow == nil {
		cfg.Flow = PauseUntilDrained()
	}
	if cfg.MessageAttrs == nil {
		cfg.MessageAttrs = func(T) []slog.Attr { return nil }
	}
	if cfg.OnOutcome == nil {
		cfg.OnOutcome = func(context.Context, T, Outcome) {}
	}
	return cfg
}

func (cfg Config[T]) validate() error {
	if cfg.Processor == nil {
		return ErrNilProcessor
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, cfg.Concurrency)
	}
	if err := cfg.Retry.Validate(); err != nil {
		return fmt.Errorf("%w: max attempts %d, interval %s", err, cfg.Retry.MaxAttempts, cfg.Retry.Interval)
	}
	return nil
}
