// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"context"
)

// Processor implements the logic for handling a single message, T.
//
// The same contract is used for the primary handler and for the recycler,
// the fallback handler which receives messages the primary handler could not process.
type Processor[T any] interface {
	Process(context.Context, T) error
}

// ProcessorFunc is an adapter to allow the use of ordinary functions as [Processor]s.
type ProcessorFunc[T any] func(context.Context, T) error

// Process implements the [Processor] interface.
func (f ProcessorFunc[T]) Process(ctx context.Context, t T) error {
	return f(ctx, t)
}

// Source delivers messages, T, by notifying the registered callbacks.
//
// Implementations must guarantee that once Pause returns no further OnMessage
// notification is delivered until Resume is called, and that Resume continues
// delivery from where it stopped. Pause and Resume must not block since they
// are called from within OnMessage callbacks and from message handling goroutines.
type Source[T any] interface {
	OnMessage(func(context.Context, T))
	OnError(func(context.Context, error))
	Pause()
	Resume()

	// Run delivers messages until ctx is cancelled or the source is exhausted.
	Run(context.Context) error
}
