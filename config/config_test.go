// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	t.Run("will return an unset value", func(t *testing.T) {
		t.Run("if the variable is empty", func(t *testing.T) {
			t.Setenv("TAMED_TEST_ENV", "")

			v, err := Env("TAMED_TEST_ENV").Read(context.Background())
			require.NoError(t, err)

			_, ok := v.Value()
			require.False(t, ok)
		})
	})

	t.Run("will return the variable", func(t *testing.T) {
		t.Setenv("TAMED_TEST_ENV", "orders")

		s, err := Read(context.Background(), Env("TAMED_TEST_ENV"))
		require.NoError(t, err)
		require.Equal(t, "orders", s)
	})
}

func TestRead(t *testing.T) {
	t.Run("will return ErrValueNotSet", func(t *testing.T) {
		t.Run("if the reader is nil", func(t *testing.T) {
			_, err := Read[string](context.Background(), nil)
			require.ErrorIs(t, err, ErrValueNotSet)
		})

		t.Run("if the value is unset", func(t *testing.T) {
			r := ReaderFunc[int](func(ctx context.Context) (Value[int], error) {
				return Value[int]{}, nil
			})

			_, err := Read(context.Background(), r)
			require.ErrorIs(t, err, ErrValueNotSet)
		})
	})

	t.Run("will return the reader error", func(t *testing.T) {
		readErr := errors.New("failed to read")
		r := ReaderFunc[int](func(ctx context.Context) (Value[int], error) {
			return Value[int]{}, readErr
		})

		_, err := Read(context.Background(), r)
		require.ErrorIs(t, err, readErr)
	})

	t.Run("will keep a value explicitly set to zero", func(t *testing.T) {
		n, err := ReadOr(context.Background(), 3, Static(0))
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})
}

func TestMap(t *testing.T) {
	t.Run("will not call the mapper for unset values", func(t *testing.T) {
		called := false
		r := Map(Env("TAMED_TEST_UNSET"), func(ctx context.Context, s string) (int, error) {
			called = true
			return 0, nil
		})

		n, err := ReadOr(context.Background(), 7, r)
		require.NoError(t, err)
		require.Equal(t, 7, n)
		require.False(t, called)
	})

	t.Run("will return parse errors", func(t *testing.T) {
		_, err := Read(context.Background(), DurationFromString(Static("soon")))
		require.Error(t, err)
	})

	t.Run("will parse durations", func(t *testing.T) {
		d, err := Read(context.Background(), DurationFromString(Static("1m30s")))
		require.NoError(t, err)
		require.Equal(t, 90*time.Second, d)
	})
}

func TestOr(t *testing.T) {
	t.Run("will return the first set value", func(t *testing.T) {
		n, err := Read(context.Background(), Or(Int64FromString(Env("TAMED_TEST_UNSET")), Static(int64(2)), Static(int64(3))))
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
	})
}

func TestMust(t *testing.T) {
	t.Run("will panic if the value is unset", func(t *testing.T) {
		require.Panics(t, func() {
			Must(context.Background(), Env("TAMED_TEST_UNSET"))
		})
	})

	t.Run("will fall back to the default", func(t *testing.T) {
		s := MustOr(context.Background(), "fallback", Env("TAMED_TEST_UNSET"))
		require.Equal(t, "fallback", s)
	})
}

func TestUnmarshalJSON(t *testing.T) {
	t.Run("will return an error for invalid documents", func(t *testing.T) {
		_, err := Read(context.Background(), UnmarshalJSON[map[string]any](ReaderOf(strings.NewReader("{"))))
		require.Error(t, err)
	})

	t.Run("will decode into the given type", func(t *testing.T) {
		type retry struct {
			Times int `json:"times"`
		}

		v, err := Read(context.Background(), UnmarshalJSON[retry](ReaderOf(strings.NewReader(`{"times": 4}`))))
		require.NoError(t, err)
		require.Equal(t, 4, v.Times)
	})
}
