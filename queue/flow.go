// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"context"
	"log/slog"
	"sync"
)

// RunState is whether a [Source] is currently allowed to deliver messages.
type RunState int

const (
	Running RunState = iota
	Paused
)

// String implements the [fmt.Stringer] interface.
func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// FlowStrategy decides when the [FlowController] pauses and resumes its [Source].
type FlowStrategy interface {
	// ShouldPause is called on every message arrival while the source is running.
	// occupancy includes the arriving message.
	ShouldPause(occupancy, concurrency int) bool

	// ShouldResume is called after every completed message while the source is paused.
	ShouldResume(occupancy, concurrency int) bool
}

type untilDrained struct{}

// PauseUntilDrained pauses the source on every message arrival and only resumes
// it once every pending message has completed. The source never delivers while
// there is outstanding work, at the cost of leaving concurrency slots idle.
func PauseUntilDrained() FlowStrategy {
	return untilDrained{}
}

func (untilDrained) ShouldPause(occupancy, concurrency int) bool {
	return true
}

func (untilDrained) ShouldResume(occupancy, concurrency int) bool {
	return occupancy == 0
}

type atCapacity struct{}

// PauseAtCapacity pauses the source once the pending messages fill every
// concurrency slot and resumes it as soon as one of them completes.
func PauseAtCapacity() FlowStrategy {
	return atCapacity{}
}

func (atCapacity) ShouldPause(occupancy, concurrency int) bool {
	return occupancy >= concurrency
}

func (atCapacity) ShouldResume(occupancy, concurrency int) bool {
	return occupancy < concurrency
}

type pauser interface {
	Pause()
	Resume()
}

// FlowController couples [Pending] occupancy to [Source] consumption.
type FlowController[T any] struct {
	log      *slog.Logger
	metrics  engineMetrics
	source   pauser
	pending  *Pending[T]
	strategy FlowStrategy

	mu    sync.Mutex
	state RunState
}

// NewFlowController returns a [FlowController] for the source in the [Running] state
// and registers itself for completion notifications from pending.
func NewFlowController[T any](source Source[T], pending *Pending[T], strategy FlowStrategy) *FlowController[T] {
	log := logger()
	fc := &FlowController[T]{
		log:      log,
		metrics:  initEngineMetrics(log),
		source:   source,
		pending:  pending,
		strategy: strategy,
		state:    Running,
	}
	pending.OnRelease(fc.onRelease)
	return fc
}

// State returns the current [RunState] of the source.
func (fc *FlowController[T]) State() RunState {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	return fc.state
}

// OnMessage admits msg to the [Pending] queue. If the [FlowStrategy] asks for
// it, the source is paused before msg is submitted.
func (fc *FlowController[T]) OnMessage(ctx context.Context, msg T) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	occupancy := fc.pending.Occupancy() + 1
	if fc.state == Running && fc.strategy.ShouldPause(occupancy, fc.pending.Concurrency()) {
		fc.log.DebugContext(ctx, "consumer received message, pausing consumption", OccupancyAttr(occupancy))
		fc.source.Pause()
		fc.state = Paused
		fc.metrics.recordTransition(ctx, Paused)
	}

	fc.pending.Submit(ctx, msg)
}

// OnError logs source level failures. They are otherwise left to the source to handle.
func (fc *FlowController[T]) OnError(ctx context.Context, err error) {
	fc.log.ErrorContext(ctx, "source reported an error", errorAttr(err), RunStateAttr(fc.State()))
}

func (fc *FlowController[T]) onRelease(int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.state != Paused {
		return
	}

	// The released occupancy may already be stale if a message was submitted
	// concurrently, so the live value is used instead.
	occupancy := fc.pending.Occupancy()
	if !fc.strategy.ShouldResume(occupancy, fc.pending.Concurrency()) {
		return
	}

	ctx := context.Background()
	fc.log.DebugContext(ctx, "pending queue released, resuming consumption", OccupancyAttr(occupancy))
	fc.source.Resume()
	fc.state = Running
	fc.metrics.recordTransition(ctx, Running)
}
