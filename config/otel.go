// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import "time"

// Resource
type Resource struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
}

// OTLPConnType
type OTLPConnType string

const (
	OTLPHTTP OTLPConnType = "http"
	OTLPGRPC OTLPConnType = "grpc"
)

// OTLP describes where telemetry is exported to. An empty Target
// disables OTLP export for the signal.
type OTLP struct {
	Type   OTLPConnType `yaml:"type"`
	Target string       `yaml:"target"`
}

// Trace
type Trace struct {
	SamplingRatio float64 `yaml:"sampling_ratio"`
	OTLP          OTLP    `yaml:"otlp"`
}

// Metric
type Metric struct {
	ExportInterval time.Duration `yaml:"export_interval"`
	OTLP           OTLP          `yaml:"otlp"`
}

// Log configures the log pipeline. Levels maps logger names to their
// minimum level (trace, debug, info, warn, error) using prefix matching.
type Log struct {
	Levels map[string]string `yaml:"levels"`
	OTLP   OTLP              `yaml:"otlp"`
}

// OTel
type OTel struct {
	Resource Resource `yaml:"resource"`
	Trace    Trace    `yaml:"trace"`
	Metric   Metric   `yaml:"metric"`
	Log      Log      `yaml:"log"`
}
