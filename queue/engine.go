// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"
)

// Engine wires a [Source] to a [Pending] queue of [Dispatcher] calls
// through a [FlowController].
type Engine[T any] struct {
	log        *slog.Logger
	source     Source[T]
	dispatcher *Dispatcher[T]
	pending    *Pending[T]
	flow       *FlowController[T]
}

// NewEngine validates cfg and attaches the engine to source. Configuration
// errors are returned before source is touched.
func NewEngine[T any](source Source[T], cfg Config[T]) (*Engine[T], error) {
	if source == nil {
		return nil, ErrNilSource
	}

	cfg = cfg.withDefaults()
	dispatcher, err := NewDispatcher(cfg)
	if err != nil {
		return nil, err
	}

	pending := NewPending(cfg.Concurrency, func(ctx context.Context, msg T) {
		outcome := dispatcher.Dispatch(ctx, msg)
		cfg.OnOutcome(ctx, msg, outcome)
	})
	pending.log = cfg.Logger

	flow := NewFlowController(source, pending, cfg.Flow)
	flow.log = cfg.Logger

	source.OnMessage(flow.OnMessage)
	source.OnError(flow.OnError)

	cfg.Logger.Info(
		"consumer setup completed, waiting for messages",
		ConcurrencyAttr(cfg.Concurrency),
		slog.Int("tamed.retry.max_attempts", cfg.Retry.MaxAttempts),
		slog.Duration("tamed.retry.interval", cfg.Retry.Interval),
		slog.Bool("tamed.recycler.configured", cfg.Recycler != nil),
	)

	return &Engine[T]{
		log:        cfg.Logger,
		source:     source,
		dispatcher: dispatcher,
		pending:    pending,
		flow:       flow,
	}, nil
}

// State returns the current [RunState] of the underlying [Source].
func (e *Engine[T]) State() RunState {
	return e.flow.State()
}

// Occupancy returns the number of messages admitted and not yet completed.
func (e *Engine[T]) Occupancy() int {
	return e.pending.Occupancy()
}

// Run consumes from the [Source] until ctx is cancelled or the source returns.
// Messages already being handled are allowed to complete. When the source
// returns without an error the remaining backlog is handled before Run returns.
func (e *Engine[T]) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return e.pending.Run(ctx)
	})
	p.Go(func(ctx context.Context) error {
		defer e.pending.Close()

		err := e.source.Run(ctx)
		if err != nil {
			e.log.ErrorContext(ctx, "source stopped", errorAttr(err))
		}
		return err
	})

	return p.Wait()
}
