// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tamed

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("will never return nil", func(t *testing.T) {
		log := Logger("github.com/z5labs/tamed")
		require.NotNil(t, log)
	})
}

func TestTrace(t *testing.T) {
	t.Run("will not be emitted when the handler level is debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		Trace(context.Background(), log, "payload")

		require.Zero(t, buf.Len())
	})

	t.Run("will be emitted below debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))

		Trace(context.Background(), log, "payload", slog.String("key", "a"))

		var record map[string]any
		err := json.Unmarshal(buf.Bytes(), &record)
		require.NoError(t, err)
		require.Equal(t, "payload", record["msg"])
		require.Equal(t, "a", record["key"])
		require.Equal(t, "DEBUG-4", record["level"])
	})
}
