// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// UnmarshalJSON decodes the JSON document read by r into a T.
func UnmarshalJSON[T any](r Reader[io.Reader]) Reader[T] {
	return Map(r, func(ctx context.Context, src io.Reader) (T, error) {
		var t T
		err := json.NewDecoder(src).Decode(&t)
		if err != nil {
			return t, fmt.Errorf("config: failed to decode json: %w", err)
		}
		return t, nil
	})
}

// UnmarshalYAML decodes the YAML document read by r into a T.
func UnmarshalYAML[T any](r Reader[io.Reader]) Reader[T] {
	return Map(r, func(ctx context.Context, src io.Reader) (T, error) {
		var t T
		err := yaml.NewDecoder(src).Decode(&t)
		if err != nil {
			return t, fmt.Errorf("config: failed to decode yaml: %w", err)
		}
		return t, nil
	})
}
