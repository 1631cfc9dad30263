// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"os"
	"path/filepath"

	"github.com/z5labs/tamed/config"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

func newResource(ctx context.Context, cfg config.Resource) (*resource.Resource, error) {
	return resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		// no schema URL so they merge with the SDK provided detectors
		resource.WithDetectors(
			serviceName(cfg.ServiceName),
			serviceVersion(cfg.ServiceVersion),
		),
	)
}

// serviceName falls back to the executable name, following the
// unknown_service convention, when name is empty.
func serviceName(name string) resource.Detector {
	return resource.StringDetector("", semconv.ServiceNameKey, func() (string, error) {
		if len(name) > 0 {
			return name, nil
		}
		executable, err := os.Executable()
		if err != nil {
			return "unknown_service:go", nil
		}
		return "unknown_service:" + filepath.Base(executable), nil
	})
}

func serviceVersion(version string) resource.Detector {
	return resource.StringDetector("", semconv.ServiceVersionKey, func() (string, error) {
		return version, nil
	})
}
