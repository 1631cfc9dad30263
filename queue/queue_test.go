// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/z5labs/tamed"

	"github.com/stretchr/testify/require"
)

type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *logBuffer) records(t *testing.T) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	var records []map[string]any
	dec := json.NewDecoder(bytes.NewReader(b.buf.Bytes()))
	for dec.More() {
		var record map[string]any
		require.Nil(t, dec.Decode(&record))
		records = append(records, record)
	}
	return records
}

func (b *logBuffer) messages(t *testing.T) []string {
	var msgs []string
	for _, record := range b.records(t) {
		msgs = append(msgs, record[slog.MessageKey].(string))
	}
	return msgs
}

func (b *logBuffer) find(t *testing.T, msg string) map[string]any {
	for _, record := range b.records(t) {
		if record[slog.MessageKey] == msg {
			return record
		}
	}
	require.Failf(t, "log record not found", "no record with message: %s", msg)
	return nil
}

func newTestLogger() (*slog.Logger, *logBuffer) {
	buf := &logBuffer{}
	log := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: tamed.LevelTrace,
	}))
	return log, buf
}

type fakeSource[T any] struct {
	mu        sync.Mutex
	pauses    int
	resumes   int
	onMessage func(context.Context, T)
	onError   func(context.Context, error)
	run       func(context.Context) error
}

func (s *fakeSource[T]) OnMessage(f func(context.Context, T)) {
	s.onMessage = f
}

func (s *fakeSource[T]) OnError(f func(context.Context, error)) {
	s.onError = f
}

func (s *fakeSource[T]) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pauses++
}

func (s *fakeSource[T]) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resumes++
}

func (s *fakeSource[T]) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pauses, s.resumes
}

func (s *fakeSource[T]) Run(ctx context.Context) error {
	if s.run == nil {
		<-ctx.Done()
		return nil
	}
	return s.run(ctx)
}

func TestProcessorFunc_Process(t *testing.T) {
	t.Run("will call the underlying function", func(t *testing.T) {
		var got string
		p := ProcessorFunc[string](func(_ context.Context, s string) error {
			got = s
			return nil
		})

		err := p.Process(t.Context(), "hello")

		require.Nil(t, err)
		require.Equal(t, "hello", got)
	})
}
