// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Pending is a bounded concurrency work queue.
//
// Messages are started in the order they were submitted, but with a
// concurrency above 1 they may complete in any order.
type Pending[T any] struct {
	log         *slog.Logger
	metrics     engineMetrics
	concurrency int
	work        func(context.Context, T)

	wake chan struct{}

	mu        sync.Mutex
	backlog   []T
	running   int
	occupancy int
	closed    bool
	drained   func()
	released  func(occupancy int)
}

// NewPending returns a [Pending] queue which calls work for every submitted
// message with at most concurrency calls in flight. A concurrency below 1 is
// treated as 1.
func NewPending[T any](concurrency int, work func(context.Context, T)) *Pending[T] {
	log := logger()
	return &Pending[T]{
		log:         log,
		metrics:     initEngineMetrics(log),
		concurrency: max(concurrency, 1),
		work:        work,
		wake:        make(chan struct{}, 1),
	}
}

// OnDrained registers f to be called every time occupancy returns to zero.
// Registering again replaces the previous callback.
func (q *Pending[T]) OnDrained(f func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.drained = f
}

// OnRelease registers f to be called after every completed message with the
// remaining occupancy. Registering again replaces the previous callback.
func (q *Pending[T]) OnRelease(f func(occupancy int)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.released = f
}

// Occupancy returns the number of submitted messages which have not completed yet.
func (q *Pending[T]) Occupancy() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.occupancy
}

// Running returns the number of messages currently being worked on.
// It never exceeds the configured concurrency.
func (q *Pending[T]) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.running
}

// Concurrency returns the maximum number of messages worked on at once.
func (q *Pending[T]) Concurrency() int {
	return q.concurrency
}

// Submit adds msg to the end of the backlog. It never blocks.
// Messages submitted after [Pending.Close] are discarded.
func (q *Pending[T]) Submit(ctx context.Context, msg T) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.log.WarnContext(ctx, "pending queue closed, discarding message")
		return
	}
	q.backlog = append(q.backlog, msg)
	q.occupancy++
	occupancy := q.occupancy
	q.mu.Unlock()

	q.metrics.occupancy.Add(ctx, 1)
	q.log.DebugContext(ctx, "pushed message to pending queue", OccupancyAttr(occupancy))

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Close stops the queue from accepting new messages. Run returns once the
// remaining backlog has been worked on.
func (q *Pending[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run starts backlog messages, in submission order, as concurrency slots become
// available. It returns once ctx is cancelled and all started messages have completed.
// Messages still in the backlog at that point are never started.
func (q *Pending[T]) Run(ctx context.Context) error {
	p := pool.New().WithMaxGoroutines(q.concurrency).WithContext(ctx)

	for {
		msg, ok := q.next(ctx)
		if !ok {
			break
		}

		// Blocks while all concurrency slots are taken which keeps
		// the backlog order as the start order.
		p.Go(func(ctx context.Context) error {
			q.start()
			defer q.complete(ctx)

			q.work(ctx, msg)
			return nil
		})
	}

	return p.Wait()
}

func (q *Pending[T]) next(ctx context.Context) (T, bool) {
	for {
		if ctx.Err() != nil {
			var zero T
			return zero, false
		}

		q.mu.Lock()
		if len(q.backlog) > 0 {
			msg := q.backlog[0]
			var zero T
			q.backlog[0] = zero
			q.backlog = q.backlog[1:]
			q.mu.Unlock()
			return msg, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			var zero T
			return zero, false
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, false
		case <-q.wake:
		}
	}
}

func (q *Pending[T]) start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.running++
}

func (q *Pending[T]) complete(ctx context.Context) {
	q.mu.Lock()
	q.running--
	q.occupancy--
	occupancy := q.occupancy
	released := q.released
	drained := q.drained
	q.mu.Unlock()

	q.metrics.occupancy.Add(ctx, -1)

	if released != nil {
		released(occupancy)
	}
	if occupancy == 0 {
		q.log.DebugContext(ctx, "pending queue drained")
		if drained != nil {
			drained()
		}
	}
}
