// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package queue provides a flow-controlled message processing engine.
//
// The engine sits between a streaming [Source] and your message handling logic.
// It is made of three cooperating parts:
//
//   - Pending: a bounded concurrency work queue which starts messages in arrival order
//   - FlowController: pauses the Source when a message arrives and resumes it once
//     the Pending queue has capacity again
//   - Dispatcher: runs the process, retry and recycle lifecycle for a single message
//
// # Processing Semantics
//
// Every message is handed to the primary [Processor] up to [RetryPolicy.MaxAttempts]
// times with [RetryPolicy.Interval] between attempts. If every attempt fails the message
// is handed to the recycler exactly once. If there is no recycler, or the recycler fails
// too, the message is logged with its full content and dropped. Handler errors and
// panics never stop the engine.
//
// # Flow Control
//
// By default the Source is paused on every message arrival and only resumed once every
// admitted message has completed, see [PauseUntilDrained]. This means at most a single
// delivery batch is ever held in memory. [PauseAtCapacity] keeps every concurrency slot
// busy instead.
//
// # Example Usage
//
//	source := memory.NewSource[string](16)
//
//	engine, err := queue.NewEngine(source, queue.Config[string]{
//	    Processor:   queue.ProcessorFunc[string](handle),
//	    Recycler:    queue.ProcessorFunc[string](recycle),
//	    Concurrency: 4,
//	})
//	if err != nil {
//	    return err
//	}
//	return engine.Run(ctx)
package queue
