// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides composable readers for configuration values.
//
// A [Reader] produces a [Value] which may or may not be set. Readers are
// combined with [Map], [Default] and [Or] so that the engine can tell the
// difference between a value which was never configured and one which was
// configured to its zero value.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// ErrValueNotSet is returned by [Read] when a required value was never configured.
var ErrValueNotSet = errors.New("config: value not set")

// Value is an optionally set configuration value.
type Value[T any] struct {
	v   T
	set bool
}

// ValueOf returns a [Value] which is set to v.
func ValueOf[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Value returns the underlying value and whether or not it was set.
func (v Value[T]) Value() (T, bool) {
	return v.v, v.set
}

// Reader reads a configuration value.
type Reader[T any] interface {
	Read(context.Context) (Value[T], error)
}

// ReaderFunc is an adapter to allow the use of ordinary functions as [Reader]s.
type ReaderFunc[T any] func(context.Context) (Value[T], error)

// Read implements the [Reader] interface.
func (f ReaderFunc[T]) Read(ctx context.Context) (Value[T], error) {
	return f(ctx)
}

// Static returns a [Reader] which always returns v.
func Static[T any](v T) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return ValueOf(v), nil
	})
}

// Env reads the environment variable with the given name. An unset or empty
// variable results in an unset [Value].
func Env(name string) Reader[string] {
	return ReaderFunc[string](func(ctx context.Context) (Value[string], error) {
		s, ok := os.LookupEnv(name)
		if !ok || s == "" {
			return Value[string]{}, nil
		}
		return ValueOf(s), nil
	})
}

// ReaderOf wraps an [io.Reader] so it can be decoded by [UnmarshalJSON] or [UnmarshalYAML].
func ReaderOf(r io.Reader) Reader[io.Reader] {
	return Static(r)
}

// Map transforms the value read by r with f. f is only called when the value is set.
func Map[A, B any](r Reader[A], f func(context.Context, A) (B, error)) Reader[B] {
	return ReaderFunc[B](func(ctx context.Context) (Value[B], error) {
		va, err := read(ctx, r)
		if err != nil {
			return Value[B]{}, err
		}

		a, ok := va.Value()
		if !ok {
			return Value[B]{}, nil
		}

		b, err := f(ctx, a)
		if err != nil {
			return Value[B]{}, err
		}
		return ValueOf(b), nil
	})
}

// Default returns def whenever r does not produce a set value.
func Default[T any](def T, r Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		v, err := read(ctx, r)
		if err != nil {
			return Value[T]{}, err
		}
		if _, ok := v.Value(); ok {
			return v, nil
		}
		return ValueOf(def), nil
	})
}

// Or returns the first set value from the given readers.
func Or[T any](readers ...Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		for _, r := range readers {
			v, err := read(ctx, r)
			if err != nil {
				return Value[T]{}, err
			}
			if _, ok := v.Value(); ok {
				return v, nil
			}
		}
		return Value[T]{}, nil
	})
}

// Read reads a required value from r. A nil r or an unset value
// results in an error wrapping [ErrValueNotSet].
func Read[T any](ctx context.Context, r Reader[T]) (T, error) {
	v, err := read(ctx, r)
	if err != nil {
		var zero T
		return zero, err
	}

	t, ok := v.Value()
	if !ok {
		var zero T
		return zero, ErrValueNotSet
	}
	return t, nil
}

// ReadOr reads an optional value from r, falling back to def.
func ReadOr[T any](ctx context.Context, def T, r Reader[T]) (T, error) {
	return Read(ctx, Default(def, r))
}

// Must is like [Read] but panics on failure. It is meant for program
// entrypoints where a missing value should stop the process.
func Must[T any](ctx context.Context, r Reader[T]) T {
	t, err := Read(ctx, r)
	if err != nil {
		panic(err)
	}
	return t
}

// MustOr is like [ReadOr] but panics on failure.
func MustOr[T any](ctx context.Context, def T, r Reader[T]) T {
	return Must(ctx, Default(def, r))
}

func read[T any](ctx context.Context, r Reader[T]) (Value[T], error) {
	if r == nil {
		return Value[T]{}, nil
	}
	return r.Read(ctx)
}

// IntFromString parses the string read by r as a base 10 int.
func IntFromString(r Reader[string]) Reader[int] {
	return Map(r, func(ctx context.Context, s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("config: invalid int %q: %w", s, err)
		}
		return n, nil
	})
}

// Int64FromString parses the string read by r as a base 10 int64.
func Int64FromString(r Reader[string]) Reader[int64] {
	return Map(r, func(ctx context.Context, s string) (int64, error) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("config: invalid int64 %q: %w", s, err)
		}
		return n, nil
	})
}

// DurationFromString parses the string read by r with [time.ParseDuration].
func DurationFromString(r Reader[string]) Reader[time.Duration] {
	return Map(r, func(ctx context.Context, s string) (time.Duration, error) {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		return d, nil
	})
}
