// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package memory provides an in-process [queue.Source] backed by a buffered channel.
//
// It is useful for tests and for feeding the engine from another part of the
// same process. Messages still buffered when the source stops are lost.
package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/z5labs/tamed"
	"github.com/z5labs/tamed/queue"
)

var (
	// ErrClosed is returned by [Source.Publish] once [Source.Close] has been called.
	ErrClosed = errors.New("memory: source is closed")

	// ErrNoHandler is returned by [Source.Run] when no message callback was registered.
	ErrNoHandler = errors.New("memory: no message handler registered")
)

// Source is a [queue.Source] which delivers published messages in order.
type Source[T any] struct {
	log    *slog.Logger
	msgs   chan T
	done   chan struct{}
	resume chan struct{}
	once   sync.Once

	mu        sync.Mutex
	paused    bool
	onMessage func(context.Context, T)
	onError   func(context.Context, error)
}

var _ queue.Source[any] = (*Source[any])(nil)

// NewSource returns a [Source] which buffers up to size published messages.
func NewSource[T any](size int) *Source[T] {
	return &Source[T]{
		log:    tamed.Logger("github.com/z5labs/tamed/queue/memory"),
		msgs:   make(chan T, max(size, 0)),
		done:   make(chan struct{}),
		resume: make(chan struct{}, 1),
	}
}

// Publish enqueues msg for delivery. It blocks while the buffer is full.
func (s *Source[T]) Publish(ctx context.Context, msg T) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.msgs <- msg:
		return nil
	}
}

// Close stops accepting new messages. [Source.Run] returns once
// every already published message has been delivered.
func (s *Source[T]) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Fail reports err to the registered error callback.
func (s *Source[T]) Fail(ctx context.Context, err error) {
	s.mu.Lock()
	onError := s.onError
	s.mu.Unlock()

	if onError == nil {
		s.log.ErrorContext(ctx, "memory source failed", slog.Any("error", err))
		return
	}
	onError(ctx, err)
}

// OnMessage implements the [queue.Source] interface.
func (s *Source[T]) OnMessage(f func(context.Context, T)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onMessage = f
}

// OnError implements the [queue.Source] interface.
func (s *Source[T]) OnError(f func(context.Context, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onError = f
}

// Pause implements the [queue.Source] interface.
func (s *Source[T]) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = true
}

// Resume implements the [queue.Source] interface.
func (s *Source[T]) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()

	select {
	case s.resume <- struct{}{}:
	default:
	}
}

// Paused reports whether delivery is currently paused.
func (s *Source[T]) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.paused
}

// Run implements the [queue.Source] interface. It returns nil once ctx is
// cancelled or the source is closed and all published messages were delivered.
func (s *Source[T]) Run(ctx context.Context) error {
	s.mu.Lock()
	registered := s.onMessage != nil
	s.mu.Unlock()
	if !registered {
		return ErrNoHandler
	}

	for {
		if !s.waitRunning(ctx) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case msg := <-s.msgs:
			s.deliver(ctx, msg)
		case <-s.done:
			select {
			case msg := <-s.msgs:
				s.deliver(ctx, msg)
			default:
				s.log.DebugContext(ctx, "memory source closed and drained")
				return nil
			}
		}
	}
}

func (s *Source[T]) waitRunning(ctx context.Context) bool {
	for {
		s.mu.Lock()
		paused := s.paused
		s.mu.Unlock()
		if !paused {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-s.resume:
		}
	}
}

func (s *Source[T]) deliver(ctx context.Context, msg T) {
	s.mu.Lock()
	onMessage := s.onMessage
	s.mu.Unlock()

	onMessage(ctx, msg)
}
