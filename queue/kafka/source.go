// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/z5labs/tamed/queue"

	"github.com/twmb/franz-go/pkg/kgo"
)

type recordClient interface {
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches
	PauseFetchTopics(topics ...string) []string
	ResumeFetchTopics(topics ...string)
	MarkCommitRecords(rs ...*kgo.Record)
}

// Source is a [queue.Source] which consumes a single topic as part of a consumer group.
//
// Records are handed to the engine one at a time. Pausing stops fetching the topic
// and holds back any records which were already polled until the source is resumed.
type Source struct {
	log            *slog.Logger
	metrics        *metricsRecorder
	client         recordClient
	topic          string
	maxPollRecords int
	resume         chan struct{}

	mu        sync.Mutex
	paused    bool
	onMessage func(context.Context, Message)
	onError   func(context.Context, error)
}

var _ queue.Source[Message] = (*Source)(nil)

func newSource(log *slog.Logger, metrics *metricsRecorder, client recordClient, topic string, maxPollRecords int) *Source {
	return &Source{
		log:            log,
		metrics:        metrics,
		client:         client,
		topic:          topic,
		maxPollRecords: max(maxPollRecords, 1),
		resume:         make(chan struct{}, 1),
	}
}

// OnMessage implements the [queue.Source] interface.
func (s *Source) OnMessage(f func(context.Context, Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onMessage = f
}

// OnError implements the [queue.Source] interface.
func (s *Source) OnError(f func(context.Context, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onError = f
}

// Pause implements the [queue.Source] interface.
func (s *Source) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused {
		return
	}
	s.paused = true
	s.client.PauseFetchTopics(s.topic)
}

// Resume implements the [queue.Source] interface.
func (s *Source) Resume() {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = false
	s.client.ResumeFetchTopics(s.topic)
	s.mu.Unlock()

	select {
	case s.resume <- struct{}{}:
	default:
	}
}

// Run implements the [queue.Source] interface. It returns nil once ctx
// is cancelled or the underlying client is closed.
func (s *Source) Run(ctx context.Context) error {
	for {
		if !s.waitRunning(ctx) {
			return nil
		}

		fetches := s.client.PollRecords(ctx, s.maxPollRecords)
		if fetches.IsClientClosed() {
			s.log.InfoContext(ctx, "kafka client closed, stopped fetching")
			return nil
		}
		if ctx.Err() != nil {
			s.log.InfoContext(ctx, "stopped fetching", slog.Any("error", ctx.Err()))
			return nil
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			s.metrics.recordFetchError(ctx, topic, partition)
			s.fail(ctx, fmt.Errorf("kafka: failed to fetch topic %s partition %d: %w", topic, partition, err))
		})

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			if !s.waitRunning(ctx) {
				return nil
			}
			s.deliver(ctx, newMessage(record))
		}
	}
}

func (s *Source) waitRunning(ctx context.Context) bool {
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

func (s *Source) deliver(ctx context.Context, msg Message) {
	s.mu.Lock()
	onMessage := s.onMessage
	s.mu.Unlock()

	s.metrics.recordMessageDelivered(ctx, msg.Topic, msg.Partition)
	if onMessage == nil {
		s.log.LogAttrs(ctx, slog.LevelWarn, "no message handler registered, skipping message", MessageAttrs(msg)...)
		return
	}
	onMessage(ctx, msg)
}

func (s *Source) fail(ctx context.Context, err error) {
	s.mu.Lock()
	onError := s.onError
	s.mu.Unlock()

	if onError == nil {
		s.log.ErrorContext(ctx, "kafka source failed", slog.Any("error", err))
		return
	}
	onError(ctx, err)
}

// acknowledge marks the offset of msg for the next autocommit. Interrupted
// messages are left unmarked so they are redelivered after a restart.
func (s *Source) acknowledge(ctx context.Context, msg Message, outcome queue.Outcome) {
	if outcome == queue.OutcomeInterrupted || msg.record == nil {
		return
	}

	s.client.MarkCommitRecords(msg.record)
	s.metrics.recordMessageMarked(ctx, msg.Topic, msg.Partition, outcome)
}
