// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/z5labs/tamed/queue"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeClient struct {
	mu      sync.Mutex
	polls   []kgo.Fetches
	paused  []string
	resumed []string
	marked  []*kgo.Record
}

func (c *fakeClient) PollRecords(ctx context.Context, _ int) kgo.Fetches {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.polls) == 0 {
		return kgo.NewErrFetch(kgo.ErrClientClosed)
	}
	fetches := c.polls[0]
	c.polls = c.polls[1:]
	return fetches
}

func (c *fakeClient) PauseFetchTopics(topics ...string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paused = append(c.paused, topics...)
	return c.paused
}

func (c *fakeClient) ResumeFetchTopics(topics ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resumed = append(c.resumed, topics...)
}

func (c *fakeClient) MarkCommitRecords(rs ...*kgo.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.marked = append(c.marked, rs...)
}

func recordsFetch(topic string, partition int32, records ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{
		{
			Topics: []kgo.FetchTopic{
				{
					Topic: topic,
					Partitions: []kgo.FetchPartition{
						{
							Partition: partition,
							Records:   records,
						},
					},
				},
			},
		},
	}
}

func errFetch(topic string, partition int32, err error) kgo.Fetches {
	return kgo.Fetches{
		{
			Topics: []kgo.FetchTopic{
				{
					Topic: topic,
					Partitions: []kgo.FetchPartition{
						{
							Partition: partition,
							Err:       err,
						},
					},
				},
			},
		},
	}
}

func testRecord(topic string, offset int64, value string) *kgo.Record {
	return &kgo.Record{
		Topic:  topic,
		Offset: offset,
		Key:    []byte("key"),
		Value:  []byte(value),
	}
}

func newTestSource(t *testing.T, client recordClient) *Source {
	t.Helper()

	metrics, err := newMetricsRecorder()
	require.Nil(t, err)

	return newSource(logger(), metrics, client, "orders", 1)
}

func TestSource_Run(t *testing.T) {
	t.Run("will deliver every polled record in order", func(t *testing.T) {
		client := &fakeClient{
			polls: []kgo.Fetches{
				recordsFetch("orders", 0, testRecord("orders", 0, "a"), testRecord("orders", 1, "b")),
				recordsFetch("orders", 0, testRecord("orders", 2, "c")),
			},
		}
		src := newTestSource(t, client)

		var got []string
		src.OnMessage(func(_ context.Context, msg Message) {
			got = append(got, string(msg.Value))
		})

		err := src.Run(t.Context())

		require.Nil(t, err)
		require.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("will hold back polled records while paused", func(t *testing.T) {
		client := &fakeClient{
			polls: []kgo.Fetches{
				recordsFetch("orders", 0, testRecord("orders", 0, "a"), testRecord("orders", 1, "b")),
			},
		}
		src := newTestSource(t, client)

		var mu sync.Mutex
		var got []string
		src.OnMessage(func(_ context.Context, msg Message) {
			mu.Lock()
			defer mu.Unlock()

			got = append(got, string(msg.Value))
			if msg.Offset == 0 {
				src.Pause()
			}
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- src.Run(t.Context())
		}()

		require.Eventually(t, func() bool {
			client.mu.Lock()
			defer client.mu.Unlock()

			return len(client.paused) == 1
		}, time.Second, time.Millisecond)

		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		require.Equal(t, []string{"a"}, got)
		mu.Unlock()

		src.Resume()

		require.Nil(t, <-errCh)
		require.Equal(t, []string{"a", "b"}, got)
		require.Equal(t, []string{"orders"}, client.paused)
		require.Equal(t, []string{"orders"}, client.resumed)
	})

	t.Run("will report fetch errors", func(t *testing.T) {
		fetchErr := errors.New("leader not available")
		client := &fakeClient{
			polls: []kgo.Fetches{
				errFetch("orders", 3, fetchErr),
			},
		}
		src := newTestSource(t, client)
		src.OnMessage(func(context.Context, Message) {})

		var errs []error
		src.OnError(func(_ context.Context, err error) {
			errs = append(errs, err)
		})

		err := src.Run(t.Context())

		require.Nil(t, err)
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], fetchErr)
	})

	t.Run("will return nil", func(t *testing.T) {
		t.Run("if the context is cancelled while paused", func(t *testing.T) {
			src := newTestSource(t, &fakeClient{})
			src.Pause()

			ctx, cancel := context.WithCancel(t.Context())
			cancel()

			err := src.Run(ctx)

			require.Nil(t, err)
		})
	})
}

func TestSource_Pause(t *testing.T) {
	t.Run("will only pause the topic once", func(t *testing.T) {
		client := &fakeClient{}
		src := newTestSource(t, client)

		src.Pause()
		src.Pause()
		src.Resume()
		src.Resume()

		require.Equal(t, []string{"orders"}, client.paused)
		require.Equal(t, []string{"orders"}, client.resumed)
	})
}

func TestSource_acknowledge(t *testing.T) {
	t.Run("will mark the record for commit", func(t *testing.T) {
		for _, outcome := range []queue.Outcome{queue.OutcomeProcessed, queue.OutcomeRecycled, queue.OutcomeDropped} {
			t.Run("if the outcome is "+string(outcome), func(t *testing.T) {
				client := &fakeClient{}
				src := newTestSource(t, client)
				record := testRecord("orders", 7, "a")

				src.acknowledge(t.Context(), newMessage(record), outcome)

				require.Equal(t, []*kgo.Record{record}, client.marked)
			})
		}
	})

	t.Run("will not mark the record", func(t *testing.T) {
		t.Run("if handling was interrupted", func(t *testing.T) {
			client := &fakeClient{}
			src := newTestSource(t, client)

			src.acknowledge(t.Context(), newMessage(testRecord("orders", 7, "a")), queue.OutcomeInterrupted)

			require.Empty(t, client.marked)
		})
	})
}

func TestSource_Engine(t *testing.T) {
	t.Run("will resume fetching once the message is handled", func(t *testing.T) {
		client := &fakeClient{
			polls: []kgo.Fetches{
				recordsFetch("orders", 0, testRecord("orders", 0, "a"), testRecord("orders", 1, "b")),
			},
		}
		src := newTestSource(t, client)

		var handled []string
		engine, err := queue.NewEngine[Message](src, queue.Config[Message]{
			Processor: queue.ProcessorFunc[Message](func(_ context.Context, msg Message) error {
				handled = append(handled, string(msg.Value))
				return nil
			}),
			MessageAttrs: MessageAttrs,
			OnOutcome:    src.acknowledge,
		})
		require.Nil(t, err)

		err = engine.Run(t.Context())
		require.Nil(t, err)

		require.Equal(t, []string{"a", "b"}, handled)
		require.Len(t, client.marked, 2)
		require.Equal(t, []string{"orders", "orders"}, client.paused)
		require.Equal(t, []string{"orders", "orders"}, client.resumed)
	})
}
