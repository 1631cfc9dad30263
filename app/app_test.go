// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("will return the build error", func(t *testing.T) {
		buildErr := errors.New("missing topic")
		builder := BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
			return nil, buildErr
		})

		err := Run(context.Background(), builder)
		require.ErrorIs(t, err, buildErr)
	})

	t.Run("will convert a panicking runtime into an error", func(t *testing.T) {
		builder := BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
			return RuntimeFunc(func(ctx context.Context) error {
				panic("source exploded")
			}), nil
		})

		err := Run(context.Background(), builder)
		require.Error(t, err)
	})

	t.Run("will return the runtime error", func(t *testing.T) {
		runErr := errors.New("broker unreachable")
		builder := BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
			return RuntimeFunc(func(ctx context.Context) error {
				return runErr
			}), nil
		})

		err := Run(context.Background(), builder)
		require.ErrorIs(t, err, runErr)
	})
}

func TestWithHooks(t *testing.T) {
	t.Run("will run hooks in order after the runtime", func(t *testing.T) {
		var order []string
		builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
			h.OnPostRun(func(ctx context.Context) error {
				order = append(order, "close client")
				return nil
			})
			h.OnPostRun(func(ctx context.Context) error {
				order = append(order, "flush telemetry")
				return nil
			})
			return RuntimeFunc(func(ctx context.Context) error {
				order = append(order, "consume")
				return nil
			}), nil
		})

		rt, err := builder.Build(context.Background())
		require.NoError(t, err)

		err = rt.Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"consume", "close client", "flush telemetry"}, order)
	})

	t.Run("will join runtime and hook errors", func(t *testing.T) {
		runErr := errors.New("runtime error")
		hookErr := errors.New("hook error")

		hooksCalled := 0
		builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
			h.OnPostRun(func(ctx context.Context) error {
				hooksCalled++
				return hookErr
			})
			h.OnPostRun(func(ctx context.Context) error {
				hooksCalled++
				return nil
			})
			return RuntimeFunc(func(ctx context.Context) error {
				return runErr
			}), nil
		})

		rt, err := builder.Build(context.Background())
		require.NoError(t, err)

		err = rt.Run(context.Background())
		require.ErrorIs(t, err, runErr)
		require.ErrorIs(t, err, hookErr)
		require.Equal(t, 2, hooksCalled)
	})

	t.Run("will give hooks a live context after the runtime context is cancelled", func(t *testing.T) {
		var hookCtxErr error
		builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
			h.OnPostRun(func(ctx context.Context) error {
				hookCtxErr = ctx.Err()
				return nil
			})
			return RuntimeFunc(func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			}), nil
		})

		rt, err := builder.Build(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = rt.Run(ctx)
		require.NoError(t, err)
		require.NoError(t, hookCtxErr)
	})

	t.Run("will not register hooks if the builder fails", func(t *testing.T) {
		buildErr := errors.New("build error")
		builder := WithHooks(func(ctx context.Context, h *HookRegistry) (Runtime, error) {
			h.OnPostRun(func(ctx context.Context) error {
				return nil
			})
			return nil, buildErr
		})

		rt, err := builder.Build(context.Background())
		require.ErrorIs(t, err, buildErr)
		require.Nil(t, rt)
	})
}

func TestLogError(t *testing.T) {
	t.Run("will not log a nil error", func(t *testing.T) {
		var buf bytes.Buffer
		LogError(slog.NewJSONHandler(&buf, nil), nil)
		require.Zero(t, buf.Len())
	})

	t.Run("will log a non-nil error", func(t *testing.T) {
		var buf bytes.Buffer
		LogError(slog.NewJSONHandler(&buf, nil), errors.New("boom"))
		require.Contains(t, buf.String(), `"error":"boom"`)
	})
}
