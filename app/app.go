// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app builds and runs long lived runtimes, like a message processing engine,
// with OS signal based shutdown, panic recovery and post-run cleanup hooks.
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/z5labs/sdk-go/try"
)

// Builder builds a T, usually a [Runtime].
type Builder[T any] interface {
	Build(context.Context) (T, error)
}

// BuilderFunc is an adapter to allow the use of ordinary functions as [Builder]s.
type BuilderFunc[T any] func(context.Context) (T, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context) (T, error) {
	return f(ctx)
}

// Runtime is a long running component which returns once its context is cancelled
// or it can no longer make progress.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is an adapter to allow the use of ordinary functions as [Runtime]s.
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Run builds the [Runtime] and runs it until an interrupt or termination
// signal is received. Panics raised by the [Runtime] are returned as errors.
func Run[T Runtime](ctx context.Context, builder Builder[T]) error {
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := builder.Build(sigCtx)
	if err != nil {
		return err
	}

	return recoverRuntime(sigCtx, rt)
}

func recoverRuntime(ctx context.Context, rt Runtime) (err error) {
	defer try.Recover(&err)

	return rt.Run(ctx)
}

// HookTimeout bounds how long post-run hooks may take in total.
const HookTimeout = 30 * time.Second

// HookFunc is called after a [Runtime] returns.
type HookFunc func(context.Context) error

// HookRegistry collects post-run hooks while a [Runtime] is being built.
type HookRegistry struct {
	hooks []HookFunc
}

// OnPostRun registers hook. Hooks run in registration order.
func (r *HookRegistry) OnPostRun(hook HookFunc) {
	r.hooks = append(r.hooks, hook)
}

type hookRuntime struct {
	inner Runtime
	hooks []HookFunc
}

// Run implements the [Runtime] interface.
//
// Hooks always run, even if the inner runtime or a previous hook failed.
// They receive a context which is detached from ctx cancellation since
// they are usually run during shutdown.
func (rt hookRuntime) Run(ctx context.Context) error {
	runErr := rt.inner.Run(ctx)

	hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HookTimeout)
	defer cancel()

	var hookErrs error
	for _, hook := range rt.hooks {
		hookErrs = errors.Join(hookErrs, hook(hookCtx))
	}

	return errors.Join(runErr, hookErrs)
}

// WithHooks returns a [Builder] whose [Runtime] runs every hook registered by f
// after the [Runtime] returned by f completes. No hooks run if f fails.
func WithHooks[T Runtime](f func(context.Context, *HookRegistry) (T, error)) Builder[Runtime] {
	return BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
		registry := &HookRegistry{}

		inner, err := f(ctx, registry)
		if err != nil {
			return nil, err
		}

		return hookRuntime{
			inner: inner,
			hooks: registry.hooks,
		}, nil
	})
}

// LogError logs err, if non-nil, with the given [slog.Handler].
func LogError(handler slog.Handler, err error) {
	if err == nil {
		return
	}

	log := slog.New(handler)
	log.Error("failed to run", slog.Any("error", err))
}
