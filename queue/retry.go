// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package queue

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrInvalidRetryPolicy is returned when a [RetryPolicy] has MaxAttempts below 1
// or a negative Interval.
var ErrInvalidRetryPolicy = errors.New("queue: invalid retry policy")

// RetryPolicy bounds how often the primary [Processor] is invoked for a
// single message before it is handed to the recycler.
type RetryPolicy struct {
	// MaxAttempts is the total number of primary handler invocations,
	// including the first one.
	MaxAttempts int

	// Interval is the fixed delay between attempts. It is ignored when
	// BackOff is set.
	Interval time.Duration

	// BackOff creates the delay strategy used for a single message.
	// A new [backoff.BackOff] is created for every dispatch since
	// most implementations are stateful.
	BackOff func() backoff.BackOff
}

// DefaultRetryPolicy returns 3 attempts spaced 500ms apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Interval:    500 * time.Millisecond,
	}
}

// Validate reports whether the policy can be used by a [Dispatcher].
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 || p.Interval < 0 {
		return ErrInvalidRetryPolicy
	}
	return nil
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	if p.BackOff != nil {
		return p.BackOff()
	}
	return backoff.NewConstantBackOff(p.Interval)
}
