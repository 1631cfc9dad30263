// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"log/slog"
	"time"
)

// AttemptAttr returns a slog attribute for the handler attempt number, starting at 1.
func AttemptAttr(attempt int) slog.Attr {
	return slog.Int("tamed.dispatch.attempt", attempt)
}

// RetryInAttr returns a slog attribute for the delay before the next attempt.
func RetryInAttr(d time.Duration) slog.Attr {
	return slog.Duration("tamed.dispatch.retry_in", d)
}

// OccupancyAttr returns a slog attribute for the number of pending messages.
func OccupancyAttr(occupancy int) slog.Attr {
	return slog.Int("tamed.queue.occupancy", occupancy)
}

// ConcurrencyAttr returns a slog attribute for the configured concurrency.
func ConcurrencyAttr(concurrency int) slog.Attr {
	return slog.Int("tamed.queue.concurrency", concurrency)
}

// RunStateAttr returns a slog attribute for the source [RunState].
func RunStateAttr(state RunState) slog.Attr {
	return slog.String("tamed.source.state", state.String())
}

func errorAttr(err error) slog.Attr {
	return slog.Any("error", err)
}
